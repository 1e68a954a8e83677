package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

// RasterizerConfig names the tools and output format of the schedule chain.
type RasterizerConfig struct {
	Soffice     string
	ImageMagick string
	ImageFormat string
}

// Rasterizer turns the schedule docx of a folder into page images.
type Rasterizer struct {
	cfg    RasterizerConfig
	runner ports.ToolRunner
	clock  ports.Clock
	logger *slog.Logger
}

// NewRasterizer wires the tool runner and clock used for output names.
func NewRasterizer(cfg RasterizerConfig, runner ports.ToolRunner, clock ports.Clock, logger *slog.Logger) *Rasterizer {
	if cfg.ImageFormat == "" {
		cfg.ImageFormat = "png"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Rasterizer{cfg: cfg, runner: runner, clock: clock, logger: logger}
}

// stage is one step of the chain with the output it must leave behind.
type stage struct {
	name  string
	run   func(ctx context.Context) error
	check func() error
}

func runStages(ctx context.Context, stages []stage) error {
	for _, s := range stages {
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		if err := s.check(); err != nil {
			return domain.PrepareError(s.name, err)
		}
	}
	return nil
}

// CheckScheduleFolder requires exactly one docx and no jpg/png or images of
// the configured format.
func CheckScheduleFolder(folder, imageFormat string) error {
	docxs, err := FilesWithExt(folder, ".docx")
	if err != nil {
		return domain.PrepareError("check folder", err)
	}
	switch {
	case len(docxs) == 0:
		return domain.PrepareError("check folder", fmt.Errorf("word file: %w", domain.ErrNotFound))
	case len(docxs) > 1:
		return domain.PrepareError("check folder", fmt.Errorf("too many word files: %d", len(docxs)))
	}

	images, err := FilesWithExt(folder, "jpg", "jpeg", "png", imageFormat)
	if err != nil {
		return domain.PrepareError("check folder", err)
	}
	if len(images) > 0 {
		return domain.PrepareError("check folder", fmt.Errorf("unexpected images in schedule folder: %s",
			strings.Join(baseNames(images), ", ")))
	}
	return nil
}

// Rasterize runs docx -> formatted docx -> pdf -> page images and returns
// the pages in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, folder string) (domain.ScheduleArtifact, error) {
	if err := CheckScheduleFolder(folder, r.cfg.ImageFormat); err != nil {
		return domain.ScheduleArtifact{}, err
	}
	docxs, err := FilesWithExt(folder, ".docx")
	if err != nil {
		return domain.ScheduleArtifact{}, domain.PrepareError("list docx", err)
	}
	source := docxs[0]

	stamp := r.clock.Now().Format("2006-01-02-15-04-05")
	formatted := filepath.Join(folder, FormattedDocx)
	pdf := strings.TrimSuffix(formatted, filepath.Ext(formatted)) + ".pdf"
	// %03d keeps lexicographic order equal to page order.
	pattern := filepath.Join(folder, fmt.Sprintf("rasp_%s-%%03d.%s", stamp, r.cfg.ImageFormat))

	var pages []string
	stages := []stage{
		{
			name: "format docx",
			run: func(context.Context) error {
				_, err := FormatScheduleDocx(source, folder)
				return err
			},
			check: fileProduced(formatted),
		},
		{
			name: "convert to pdf",
			run: func(ctx context.Context) error {
				_, err := r.runner.Run(ctx, folder, r.cfg.Soffice,
					"--headless", "--convert-to", "pdf", "--outdir", folder, formatted)
				return err
			},
			check: fileProduced(pdf),
		},
		{
			name: "rasterize pdf",
			run: func(ctx context.Context) error {
				_, err := r.runner.Run(ctx, folder, r.cfg.ImageMagick,
					"-verbose",
					"-density", "150",
					pdf,
					"-quality", "100",
					"-alpha", "remove",
					"-colorspace", "sRGB",
					pattern,
				)
				return err
			},
			check: func() error {
				found, err := FilesWithExt(folder, r.cfg.ImageFormat)
				if err != nil {
					return err
				}
				if len(found) == 0 {
					return fmt.Errorf("rasp images: %w", domain.ErrNotFound)
				}
				pages = found
				return nil
			},
		},
	}

	if err := runStages(ctx, stages); err != nil {
		var tagged *domain.Error
		if !errors.As(err, &tagged) {
			err = domain.PrepareError("rasterize", err)
		}
		return domain.ScheduleArtifact{}, err
	}

	r.logger.Info("schedule rasterized", "pages", len(pages), "folder", folder)
	return domain.ScheduleArtifact{Pages: pages}, nil
}

func fileProduced(path string) func() error {
	return func() error {
		if !exists(path) {
			return fmt.Errorf("%s: %w", filepath.Base(path), domain.ErrNotFound)
		}
		return nil
	}
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}
