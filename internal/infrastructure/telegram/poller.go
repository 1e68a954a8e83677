package telegram

import (
	"context"
	"log/slog"
	"time"
)

type updateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Poller long-polls getUpdates and feeds updates to a dispatcher one at a
// time, so a blocking step finishes before the next input is read.
type Poller struct {
	source     updateSource
	dispatcher *Dispatcher
	timeout    time.Duration
	backoff    time.Duration
	logger     *slog.Logger
}

// NewPoller uses timeout as the long-poll duration.
func NewPoller(source updateSource, dispatcher *Dispatcher, timeout time.Duration, logger *slog.Logger) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{
		source:     source,
		dispatcher: dispatcher,
		timeout:    timeout,
		backoff:    3 * time.Second,
		logger:     logger.With("component", "poller"),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		updates, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.WarnContext(ctx, "get updates", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.backoff):
			}
			continue
		}
		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			p.dispatcher.Dispatch(ctx, upd)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
