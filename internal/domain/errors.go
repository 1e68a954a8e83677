package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNoNewMail        = errors.New("no new mail")
	ErrItemCleared      = errors.New("item is already committed or rolled back")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrScheduleWindow   = errors.New("schedule publishing window is closed")
	ErrUnknownDate      = errors.New("unknown date or interval")
)

// Kind tags an error with the pipeline stage that produced it.
type Kind int

const (
	KindPrepare Kind = iota + 1
	KindTransform
	KindPublish
	KindMailbox
)

func (k Kind) String() string {
	switch k {
	case KindPrepare:
		return "prepare"
	case KindTransform:
		return "transform"
	case KindPublish:
		return "publish"
	case KindMailbox:
		return "mailbox"
	default:
		return "unknown"
	}
}

// Error is a tagged failure of one pipeline operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// PrepareError marks precondition failures of the preparation stages.
func PrepareError(op string, err error) *Error {
	return &Error{Kind: KindPrepare, Op: op, Err: err}
}

// TransformError marks failures while rewriting a document or image.
func TransformError(op string, err error) *Error {
	return &Error{Kind: KindTransform, Op: op, Err: err}
}

// PublishError marks failures at the site boundary.
func PublishError(op string, err error) *Error {
	return &Error{Kind: KindPublish, Op: op, Err: err}
}

// MailboxError marks failures of the mail session.
func MailboxError(op string, err error) *Error {
	return &Error{Kind: KindMailbox, Op: op, Err: err}
}

// KindOf reports the kind of the first tagged error in the chain.
func KindOf(err error) (Kind, bool) {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind, true
	}
	return 0, false
}
