package ports

import (
	"context"
	"time"

	"AutoPublisher/internal/domain"
)

// Mailbox finds, downloads and restores source messages.
type Mailbox interface {
	// FetchOldestUnread returns domain.ErrNoNewMail when nothing matches.
	FetchOldestUnread(ctx context.Context, from string) (domain.FetchedMail, error)
	MarkUnread(ctx context.Context, id string) error
}

// UnreadCounter counts unread messages without fetching them.
type UnreadCounter interface {
	CountUnread(ctx context.Context, from string) (int, error)
}

// Speller corrects spelling of one line of text.
type Speller interface {
	Spell(ctx context.Context, text string) (string, error)
}

// Publisher drives the target site; each call returns the published page URL.
type Publisher interface {
	PublishSchedule(ctx context.Context, images []string) (string, error)
	PublishNews(ctx context.Context, title, html string, images []string) (string, error)
	PublishBanner(ctx context.Context, image string, start, end time.Time) (string, error)
}

// ToolRunner executes external programs and captures their streams.
type ToolRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (domain.ToolOutput, error)
}

// ImageSniffer inspects file content and reports a supported image type.
type ImageSniffer interface {
	// Sniff returns the canonical type name (JPEG, PNG) and file extension,
	// or domain.ErrUnsupportedImage together with a human description.
	Sniff(path string) (kind, ext, description string, err error)
}

// Messenger delivers replies to the operator's chat.
type Messenger interface {
	Send(ctx context.Context, chatID int64, reply domain.Reply) error
}

// FileFetcher downloads a chat upload to a local path.
type FileFetcher interface {
	Download(ctx context.Context, fileID, dst string) error
}

// Conversation consumes operator input.
type Conversation interface {
	Handle(ctx context.Context, input domain.Input) error
}

// Clock abstracts the wall clock.
type Clock interface {
	Now() time.Time
}

// Scheduler controls when periodic jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
