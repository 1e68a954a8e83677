package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

type rasterizer interface {
	Rasterize(ctx context.Context, folder string) (domain.ScheduleArtifact, error)
}

// ScheduleDeps wires the rasterization chain and the site.
type ScheduleDeps struct {
	Rasterizer rasterizer
	Publisher  ports.Publisher
	Clock      ports.Clock
	// Schedules are not published on days BlockFromDay..BlockToDay of
	// the month in Location.
	BlockFromDay int
	BlockToDay   int
	Location     *time.Location
	Logger       *slog.Logger
}

// Schedule publishes the monthly schedule document as page images.
type Schedule struct {
	rasterizer rasterizer
	publisher  ports.Publisher
	clock      ports.Clock
	blockFrom  int
	blockTo    int
	loc        *time.Location
	logger     *slog.Logger
}

func NewSchedule(deps ScheduleDeps) *Schedule {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Schedule{
		rasterizer: deps.Rasterizer,
		publisher:  deps.Publisher,
		clock:      deps.Clock,
		blockFrom:  deps.BlockFromDay,
		blockTo:    deps.BlockToDay,
		loc:        loc,
		logger:     logger,
	}
}

// WindowOpen returns domain.ErrScheduleWindow when today falls into the
// blocked part of the month.
func (s *Schedule) WindowOpen() error {
	if s.blockFrom <= 0 {
		return nil
	}
	day := s.clock.Now().In(s.loc).Day()
	if day >= s.blockFrom && (s.blockTo <= 0 || day <= s.blockTo) {
		return fmt.Errorf("day %d: %w", day, domain.ErrScheduleWindow)
	}
	return nil
}

// Publish rasterizes the schedule docx of folder and uploads the pages.
func (s *Schedule) Publish(ctx context.Context, folder string) (string, error) {
	if err := s.WindowOpen(); err != nil {
		return "", err
	}
	artifact, err := s.rasterizer.Rasterize(ctx, folder)
	if err != nil {
		return "", err
	}
	url, err := s.publisher.PublishSchedule(ctx, artifact.Pages)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "schedule published", "url", url, "pages", len(artifact.Pages))
	return url, nil
}
