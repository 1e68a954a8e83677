package usecase

import (
	"errors"
	"fmt"
)

// State is the position of one chat in the publishing conversation.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateClassifying
	StateNewsReview
	StateNewsEditText
	StateNewsEditTitle
	StateNewsImagesReview
	StateNewsPublishing
	StateSchedulePublishing
	StateBannerAwaitDate
	StateBannerPublishing
)

var stateNames = map[State]string{
	StateIdle:               "idle",
	StateSearching:          "searching",
	StateClassifying:        "classifying",
	StateNewsReview:         "news_review",
	StateNewsEditText:       "news_edit_text",
	StateNewsEditTitle:      "news_edit_title",
	StateNewsImagesReview:   "news_images_review",
	StateNewsPublishing:     "news_publishing",
	StateSchedulePublishing: "schedule_publishing",
	StateBannerAwaitDate:    "banner_await_date",
	StateBannerPublishing:   "banner_publishing",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event is what moves the conversation from one state to the next.
type Event int

const (
	EventCheckMail Event = iota + 1
	EventNoMail
	EventMailFound
	EventArchiveUpload
	EventBannerUpload
	EventChooseNews
	EventChooseSchedule
	EventAccept
	EventEdit
	EventEditTitle
	EventText
	EventPublish
	EventDone
	EventWindowClosed
	EventDateAccepted
	EventDateRejected
	EventCancel
	EventError
)

var eventNames = map[Event]string{
	EventCheckMail:      "check_mail",
	EventNoMail:         "no_mail",
	EventMailFound:      "mail_found",
	EventArchiveUpload:  "archive_upload",
	EventBannerUpload:   "banner_upload",
	EventChooseNews:     "choose_news",
	EventChooseSchedule: "choose_schedule",
	EventAccept:         "accept",
	EventEdit:           "edit",
	EventEditTitle:      "edit_title",
	EventText:           "text",
	EventPublish:        "publish",
	EventDone:           "done",
	EventWindowClosed:   "window_closed",
	EventDateAccepted:   "date_accepted",
	EventDateRejected:   "date_rejected",
	EventCancel:         "cancel",
	EventError:          "error",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// ErrInvalidTransition is returned for an event the current state does not accept.
var ErrInvalidTransition = errors.New("invalid transition")

// anyState lists events accepted in every state. A new intake while an
// item is live rolls the old item back first.
var anyState = map[Event]State{
	EventCheckMail:     StateSearching,
	EventArchiveUpload: StateClassifying,
	EventBannerUpload:  StateBannerAwaitDate,
	EventCancel:        StateIdle,
	EventError:         StateIdle,
}

var transitions = map[State]map[Event]State{
	StateSearching: {
		EventNoMail:    StateIdle,
		EventMailFound: StateClassifying,
	},
	StateClassifying: {
		EventChooseNews:     StateNewsReview,
		EventChooseSchedule: StateSchedulePublishing,
	},
	StateNewsReview: {
		EventText:      StateNewsReview,
		EventEdit:      StateNewsEditText,
		EventEditTitle: StateNewsEditTitle,
		EventAccept:    StateNewsImagesReview,
	},
	StateNewsEditText: {
		EventText: StateNewsReview,
	},
	StateNewsEditTitle: {
		EventText: StateNewsReview,
	},
	StateNewsImagesReview: {
		EventPublish: StateNewsPublishing,
	},
	StateNewsPublishing: {
		EventDone: StateIdle,
	},
	StateSchedulePublishing: {
		EventDone:         StateIdle,
		EventWindowClosed: StateIdle,
	},
	StateBannerAwaitDate: {
		EventText:         StateBannerAwaitDate,
		EventDateAccepted: StateBannerPublishing,
		EventDateRejected: StateBannerAwaitDate,
	},
	StateBannerPublishing: {
		EventDone: StateIdle,
	},
}

// Transition returns the state reached from s on e.
func Transition(s State, e Event) (State, error) {
	if next, ok := transitions[s][e]; ok {
		return next, nil
	}
	if next, ok := anyState[e]; ok {
		return next, nil
	}
	return s, fmt.Errorf("%s on %s: %w", e, s, ErrInvalidTransition)
}
