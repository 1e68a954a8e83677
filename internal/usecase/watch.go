package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
	"AutoPublisher/internal/source"
)

// MailWatch periodically tells the owner about unread mail from the
// configured sources without fetching it.
type MailWatch struct {
	driver    ports.Scheduler
	counter   ports.UnreadCounter
	sources   *source.Registry
	messenger ports.Messenger
	ownerID   int64
	logger    *slog.Logger
}

// MailWatchDeps wires the reminder job.
type MailWatchDeps struct {
	Driver    ports.Scheduler
	Counter   ports.UnreadCounter
	Sources   *source.Registry
	Messenger ports.Messenger
	OwnerID   int64
	Logger    *slog.Logger
}

func NewMailWatch(deps MailWatchDeps) *MailWatch {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MailWatch{
		driver:    deps.Driver,
		counter:   deps.Counter,
		sources:   deps.Sources,
		messenger: deps.Messenger,
		ownerID:   deps.OwnerID,
		logger:    logger,
	}
}

// Start registers the check with the driver.
func (m *MailWatch) Start(ctx context.Context) error {
	if m.driver == nil || m.counter == nil || m.sources == nil {
		return nil
	}
	return m.driver.Start(ctx, func(time.Time) {
		if err := m.Check(ctx); err != nil {
			m.logger.WarnContext(ctx, "unread check failed", "error", err)
		}
	})
}

// Check counts unread mail per source and sends one reminder per source
// that has any.
func (m *MailWatch) Check(ctx context.Context) error {
	for _, src := range m.sources.All() {
		n, err := m.counter.CountUnread(ctx, src.Address)
		if err != nil {
			return fmt.Errorf("count unread from %s: %w", src.Address, err)
		}
		if n == 0 {
			continue
		}
		text := fmt.Sprintf("Непрочитанных писем от %s: %d. Проверить: /%s", src.Label, n, src.Command)
		if err := m.messenger.Send(ctx, m.ownerID, domain.Reply{Text: text}); err != nil {
			return fmt.Errorf("send reminder: %w", err)
		}
	}
	return nil
}

// Stop tears down the driver.
func (m *MailWatch) Stop(ctx context.Context) error {
	if m.driver == nil {
		return nil
	}
	return m.driver.Stop(ctx)
}
