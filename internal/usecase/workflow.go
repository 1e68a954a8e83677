package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/extract"
	"AutoPublisher/internal/ports"
	"AutoPublisher/internal/source"
)

// WorkflowDeps wires the conversation with the use cases it drives.
type WorkflowDeps struct {
	Sessions  *SessionStore
	Sources   *source.Registry
	Intake    *Intake
	News      *News
	Schedule  *Schedule
	Banner    *Banner
	Mailbox   domain.UnreadMarker
	Messenger ports.Messenger
	// MessageLimit bounds error diagnostics sent to the operator.
	MessageLimit int
	// WindowFromDay and WindowToDay are only used in the refusal message.
	WindowFromDay int
	WindowToDay   int
	Logger        *slog.Logger
}

// Workflow is the publishing conversation. It is the only place that
// decides between commit and rollback.
type Workflow struct {
	sessions  *SessionStore
	sources   *source.Registry
	intake    *Intake
	news      *News
	schedule  *Schedule
	banner    *Banner
	mailbox   domain.UnreadMarker
	messenger ports.Messenger
	limit     int
	fromDay   int
	toDay     int
	logger    *slog.Logger
}

var _ ports.Conversation = (*Workflow)(nil)

func NewWorkflow(deps WorkflowDeps) *Workflow {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = NewSessionStore()
	}
	sources := deps.Sources
	if sources == nil {
		sources = source.NewRegistry()
	}
	limit := deps.MessageLimit
	if limit <= 0 {
		limit = 4096
	}
	return &Workflow{
		sessions:  sessions,
		sources:   sources,
		intake:    deps.Intake,
		news:      deps.News,
		schedule:  deps.Schedule,
		banner:    deps.Banner,
		mailbox:   deps.Mailbox,
		messenger: deps.Messenger,
		limit:     limit,
		fromDay:   deps.WindowFromDay,
		toDay:     deps.WindowToDay,
		logger:    logger,
	}
}

// Handle runs one operator input to completion. Failures are reported to
// the operator, the live item is rolled back and the chat returns to idle.
func (w *Workflow) Handle(ctx context.Context, input domain.Input) error {
	sess := w.sessions.Get(input.ChatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if input.Kind == domain.InputCommand && input.Command == "start" {
		return w.say(ctx, sess, replyGreeting)
	}

	event, ok := w.eventFor(input)
	if ok {
		if _, err := Transition(sess.state, event); err != nil {
			ok = false
		}
	}
	if !ok {
		w.logger.DebugContext(ctx, "input ignored", "state", sess.state, "kind", input.Kind)
		return w.say(ctx, sess, replyFallback)
	}

	w.logger.InfoContext(ctx, "event", "chat", sess.chatID, "state", sess.state, "event", event)
	if err := w.dispatch(ctx, sess, event, input); err != nil {
		return w.fail(ctx, sess, err)
	}
	return nil
}

func (w *Workflow) eventFor(input domain.Input) (Event, bool) {
	switch input.Kind {
	case domain.InputCommand:
		if input.Command == choiceCancel {
			return EventCancel, true
		}
		if w.sources.Has(input.Command) {
			return EventCheckMail, true
		}
	case domain.InputChoice:
		switch input.Data {
		case choiceNews:
			return EventChooseNews, true
		case choiceSchedule:
			return EventChooseSchedule, true
		case choiceCancel:
			return EventCancel, true
		case choiceYes:
			return EventAccept, true
		case choiceEdit:
			return EventEdit, true
		case choiceTitle:
			return EventEditTitle, true
		case choicePublish:
			return EventPublish, true
		}
	case domain.InputText:
		return EventText, true
	case domain.InputDocument:
		if input.Document == nil {
			return 0, false
		}
		if isArchive(input.Document.FileName) {
			return EventArchiveUpload, true
		}
		return EventBannerUpload, true
	}
	return 0, false
}

func (w *Workflow) dispatch(ctx context.Context, sess *Session, event Event, input domain.Input) error {
	switch event {
	case EventCheckMail:
		return w.checkMail(ctx, sess, input.Command)
	case EventArchiveUpload:
		return w.uploadArchive(ctx, sess, *input.Document)
	case EventBannerUpload:
		return w.uploadBanner(ctx, sess, *input.Document)
	case EventChooseNews:
		return w.reviewNews(ctx, sess)
	case EventChooseSchedule:
		return w.publishSchedule(ctx, sess)
	case EventEdit:
		if err := sess.fire(EventEdit); err != nil {
			return err
		}
		return w.say(ctx, sess, replySendText)
	case EventEditTitle:
		if err := sess.fire(EventEditTitle); err != nil {
			return err
		}
		return w.say(ctx, sess, replySendTitle)
	case EventText:
		if sess.state == StateBannerAwaitDate {
			return w.bannerDate(ctx, sess, input.Text)
		}
		return w.editNews(ctx, sess, input.Text)
	case EventAccept:
		return w.prepareImages(ctx, sess)
	case EventPublish:
		return w.publishNews(ctx, sess)
	case EventCancel:
		err := sess.release(ctx, w.mailbox)
		sess.state = StateIdle
		if err != nil {
			w.logger.ErrorContext(ctx, "cancel rollback", "error", err)
		}
		return w.say(ctx, sess, replyCancelled)
	}
	return fmt.Errorf("%s: %w", event, ErrInvalidTransition)
}

// begin rolls back whatever the session still holds before a new intake.
func (w *Workflow) begin(ctx context.Context, sess *Session, event Event) error {
	if err := sess.release(ctx, w.mailbox); err != nil {
		w.logger.ErrorContext(ctx, "rollback previous item", "error", err)
	}
	return sess.fire(event)
}

func (w *Workflow) checkMail(ctx context.Context, sess *Session, command string) error {
	src, err := w.sources.Resolve(command)
	if err != nil {
		return err
	}
	if err := w.begin(ctx, sess, EventCheckMail); err != nil {
		return err
	}
	if err := w.say(ctx, sess, replyCheckingMail); err != nil {
		return err
	}

	item, err := w.intake.FromMail(ctx, src.Address)
	if errors.Is(err, domain.ErrNoNewMail) {
		if err := sess.fire(EventNoMail); err != nil {
			return err
		}
		return w.say(ctx, sess, noMailReply(src.Label))
	}
	if err != nil {
		return err
	}
	sess.item = item
	if err := sess.fire(EventMailFound); err != nil {
		return err
	}
	if err := w.say(ctx, sess, replyMailFound); err != nil {
		return err
	}
	return w.ask(ctx, sess, item.Summary(), classifyButtons)
}

func (w *Workflow) uploadArchive(ctx context.Context, sess *Session, upload domain.Upload) error {
	if err := w.begin(ctx, sess, EventArchiveUpload); err != nil {
		return err
	}
	item, err := w.intake.FromUpload(ctx, upload)
	if err != nil {
		return err
	}
	sess.item = item
	if err := w.say(ctx, sess, replyArchiveUpload); err != nil {
		return err
	}
	return w.ask(ctx, sess, item.Summary(), classifyButtons)
}

func (w *Workflow) reviewNews(ctx context.Context, sess *Session) error {
	item, err := sess.liveItem()
	if err != nil {
		return err
	}
	if !item.Extracted() {
		title, sentences, err := w.news.TextForNews(ctx, item)
		if err != nil {
			return err
		}
		if err := item.SetExtracted(title, sentences); err != nil {
			return err
		}
	}
	if err := sess.fire(EventChooseNews); err != nil {
		return err
	}
	return w.presentReview(ctx, sess, item)
}

func (w *Workflow) presentReview(ctx context.Context, sess *Session, item *domain.InboundItem) error {
	if err := w.say(ctx, sess, "Title: "+item.Title()); err != nil {
		return err
	}
	return w.ask(ctx, sess, extract.FormatForReview(item.Sentences()), reviewButtons)
}

// editNews applies free text: a new title in the title-edit state, a new
// sentence list otherwise.
func (w *Workflow) editNews(ctx context.Context, sess *Session, text string) error {
	item, err := sess.liveItem()
	if err != nil {
		return err
	}
	if sess.state == StateNewsEditTitle {
		err = item.SetTitle(strings.TrimSpace(text))
	} else {
		err = item.SetSentences(extract.ParseEdited(text))
	}
	if err != nil {
		return err
	}
	if err := sess.fire(EventText); err != nil {
		return err
	}
	return w.presentReview(ctx, sess, item)
}

func (w *Workflow) prepareImages(ctx context.Context, sess *Session) error {
	item, err := sess.liveItem()
	if err != nil {
		return err
	}
	folder, err := item.Folder()
	if err != nil {
		return err
	}
	images, err := w.news.ImagesForNews(ctx, folder)
	if err != nil {
		return err
	}
	if err := item.SetImages(images); err != nil {
		return err
	}
	if err := sess.fire(EventAccept); err != nil {
		return err
	}
	return w.ask(ctx, sess, imagesReply(images), publishButtons)
}

func (w *Workflow) publishNews(ctx context.Context, sess *Session) error {
	item, err := sess.liveItem()
	if err != nil {
		return err
	}
	if err := sess.fire(EventPublish); err != nil {
		return err
	}
	if err := w.say(ctx, sess, replyPublishing); err != nil {
		return err
	}
	url, err := w.news.Publish(ctx, item)
	if err != nil {
		return err
	}
	return w.finish(ctx, sess, url)
}

func (w *Workflow) publishSchedule(ctx context.Context, sess *Session) error {
	item, err := sess.liveItem()
	if err != nil {
		return err
	}
	if err := sess.fire(EventChooseSchedule); err != nil {
		return err
	}
	if err := w.say(ctx, sess, replyPreparing); err != nil {
		return err
	}

	if err := w.schedule.WindowOpen(); err != nil {
		w.logger.InfoContext(ctx, "schedule refused", "reason", err)
		if rbErr := sess.release(ctx, w.mailbox); rbErr != nil {
			return rbErr
		}
		if err := sess.fire(EventWindowClosed); err != nil {
			return err
		}
		return w.say(ctx, sess, windowClosedReply(w.fromDay, w.toDay))
	}

	folder, err := item.Folder()
	if err != nil {
		return err
	}
	if err := w.say(ctx, sess, replyScheduleStart); err != nil {
		return err
	}
	url, err := w.schedule.Publish(ctx, folder)
	if err != nil {
		return err
	}
	return w.finish(ctx, sess, url)
}

// finish announces the page and commits the item.
func (w *Workflow) finish(ctx context.Context, sess *Session, url string) error {
	if err := sess.commit(); err != nil {
		return err
	}
	if err := sess.fire(EventDone); err != nil {
		return err
	}
	if err := w.say(ctx, sess, replyPublished); err != nil {
		return err
	}
	return w.say(ctx, sess, url)
}

func (w *Workflow) uploadBanner(ctx context.Context, sess *Session, upload domain.Upload) error {
	if err := w.begin(ctx, sess, EventBannerUpload); err != nil {
		return err
	}
	img, description, err := w.banner.Start(ctx, upload)
	if description != "" {
		if err := w.say(ctx, sess, replyFileUploaded+description); err != nil {
			return errors.Join(err, rollbackBanner(img))
		}
	}
	if errors.Is(err, domain.ErrUnsupportedImage) {
		if err := sess.fire(EventCancel); err != nil {
			return err
		}
		return w.say(ctx, sess, unsupportedImageReply(w.banner.SupportedKinds()))
	}
	if err != nil {
		return err
	}
	sess.banner = img
	return w.say(ctx, sess, replyBannerAsk)
}

func rollbackBanner(img *domain.MainpageImage) error {
	if img == nil {
		return nil
	}
	return img.Rollback()
}

func (w *Workflow) bannerDate(ctx context.Context, sess *Session, text string) error {
	img := sess.banner
	if img == nil || !img.Live() {
		return domain.ErrItemCleared
	}
	if err := w.say(ctx, sess, "Понятно, "+text); err != nil {
		return err
	}

	end, err := w.banner.SetEndDate(img, text)
	if errors.Is(err, domain.ErrUnknownDate) {
		if err := sess.fire(EventDateRejected); err != nil {
			return err
		}
		return w.say(ctx, sess, replyUnknownDate+"\n"+err.Error())
	}
	if err != nil {
		return err
	}
	if err := sess.fire(EventDateAccepted); err != nil {
		return err
	}

	dates := fmt.Sprintf("START DATE: %s, END DATE: %s", img.StartISO(), end.Format("2006-01-02"))
	if err := w.say(ctx, sess, dates); err != nil {
		return err
	}
	if err := w.say(ctx, sess, replyBannerUpload); err != nil {
		return err
	}
	url, err := w.banner.Publish(ctx, img)
	if err != nil {
		return err
	}
	if err := img.Commit(); err != nil {
		return err
	}
	sess.banner = nil
	if err := sess.fire(EventDone); err != nil {
		return err
	}
	if err := w.say(ctx, sess, replyBannerDone); err != nil {
		return err
	}
	return w.say(ctx, sess, url)
}

// fail is the error boundary of every step.
func (w *Workflow) fail(ctx context.Context, sess *Session, cause error) error {
	kind, _ := domain.KindOf(cause)
	w.logger.ErrorContext(ctx, "step failed", "chat", sess.chatID, "state", sess.state, "kind", kind, "error", cause)

	rbErr := sess.release(ctx, w.mailbox)
	if rbErr != nil {
		w.logger.ErrorContext(ctx, "rollback failed", "error", rbErr)
	}
	sess.state = StateIdle

	text := replyError + "\n" + truncateTail(cause.Error(), w.limit-len([]rune(replyError))-1)
	if err := w.say(ctx, sess, text); err != nil {
		return errors.Join(cause, rbErr, err)
	}
	return nil
}

func (w *Workflow) say(ctx context.Context, sess *Session, text string) error {
	return w.ask(ctx, sess, text, nil)
}

func (w *Workflow) ask(ctx context.Context, sess *Session, text string, buttons []domain.Button) error {
	if err := w.messenger.Send(ctx, sess.chatID, domain.Reply{Text: text, Buttons: buttons}); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}
