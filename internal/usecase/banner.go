package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"AutoPublisher/internal/dateparse"
	"AutoPublisher/internal/document"
	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

// BannerDeps wires the mainpage image flow.
type BannerDeps struct {
	Fetcher   ports.FileFetcher
	Sniffer   ports.ImageSniffer
	Resizer   imageResizer
	Publisher ports.Publisher
	Clock     ports.Clock
	// SupportedKinds is shown to the operator when an upload is rejected.
	SupportedKinds []string
	TmpDir         string
	FolderPrefix   string
	ImageMaxMB     float64
	WideSide       int
	Logger         *slog.Logger
}

// Banner replaces the mainpage image for a period of time.
type Banner struct {
	fetcher      ports.FileFetcher
	sniffer      ports.ImageSniffer
	resizer      imageResizer
	publisher    ports.Publisher
	clock        ports.Clock
	kinds        []string
	tmpDir       string
	folderPrefix string
	imageMaxMB   float64
	wideSide     int
	logger       *slog.Logger
}

func NewBanner(deps BannerDeps) *Banner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Banner{
		fetcher:      deps.Fetcher,
		sniffer:      deps.Sniffer,
		resizer:      deps.Resizer,
		publisher:    deps.Publisher,
		clock:        deps.Clock,
		kinds:        deps.SupportedKinds,
		tmpDir:       deps.TmpDir,
		folderPrefix: deps.FolderPrefix,
		imageMaxMB:   deps.ImageMaxMB,
		wideSide:     deps.WideSide,
		logger:       logger,
	}
	if b.imageMaxMB <= 0 {
		b.imageMaxMB = 1
	}
	if b.wideSide <= 0 {
		b.wideSide = document.WideSide
	}
	return b
}

// Start downloads the upload into a fresh folder and checks its type. The
// returned description names what was uploaded even when the type is
// rejected with domain.ErrUnsupportedImage.
func (b *Banner) Start(ctx context.Context, upload domain.Upload) (*domain.MainpageImage, string, error) {
	folder := filepath.Join(b.tmpDir, b.folderPrefix+uuid.NewString())
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, "", domain.PrepareError("banner upload", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(folder); err != nil {
			b.logger.WarnContext(ctx, "remove banner folder", "folder", folder, "error", err)
		}
	}

	raw := filepath.Join(folder, "upload"+filepath.Ext(upload.FileName))
	if err := b.fetcher.Download(ctx, upload.FileID, raw); err != nil {
		cleanup()
		return nil, "", domain.PrepareError("download banner", err)
	}

	kind, ext, description, err := b.sniffer.Sniff(raw)
	if err != nil {
		cleanup()
		if !errors.Is(err, domain.ErrUnsupportedImage) {
			err = domain.PrepareError("sniff banner", err)
		}
		return nil, description, err
	}

	now := b.clock.Now()
	name := document.FormatImageName("mainpage_image_"+now.Format("2006-01-02T15:04:05")) + ext
	dst := filepath.Join(folder, name)
	if err := b.store(ctx, raw, dst); err != nil {
		cleanup()
		return nil, description, err
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	b.logger.InfoContext(ctx, "banner uploaded", "kind", kind, "name", name)
	return domain.NewMainpageImage(folder, name, start), description, nil
}

func (b *Banner) store(ctx context.Context, raw, dst string) error {
	size, err := document.FileSizeMB(raw)
	if err != nil {
		return domain.PrepareError("banner size", err)
	}
	if size > b.imageMaxMB {
		return b.resizer.ResizeToWideSide(ctx, raw, dst, b.wideSide)
	}
	if err := os.Rename(raw, dst); err != nil {
		return domain.PrepareError("banner rename", err)
	}
	return nil
}

// SetEndDate parses the operator's answer relative to the start date.
func (b *Banner) SetEndDate(img *domain.MainpageImage, text string) (time.Time, error) {
	end, err := dateparse.AddDate(text, img.StartDate())
	if err != nil {
		return time.Time{}, err
	}
	if err := img.SetEndDate(end); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", domain.ErrUnknownDate, err)
	}
	return end, nil
}

// Publish puts the image on the mainpage for its validity window.
func (b *Banner) Publish(ctx context.Context, img *domain.MainpageImage) (string, error) {
	path, err := img.Path()
	if err != nil {
		return "", err
	}
	end, ok := img.EndDate()
	if !ok {
		return "", domain.PrepareError("publish banner", fmt.Errorf("end date: %w", domain.ErrNotFound))
	}
	url, err := b.publisher.PublishBanner(ctx, path, img.StartDate(), end)
	if err != nil {
		return "", err
	}
	b.logger.InfoContext(ctx, "banner published", "url", url, "until", img.EndISO())
	return url, nil
}

// SupportedKinds lists the accepted image types.
func (b *Banner) SupportedKinds() []string { return b.kinds }
