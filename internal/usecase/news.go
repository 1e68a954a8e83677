package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"AutoPublisher/internal/document"
	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/extract"
	"AutoPublisher/internal/ports"
)

type imageResizer interface {
	ResizeToWideSide(ctx context.Context, src, dst string, target int) error
}

// NewsDeps wires text extraction, image preparation and the site.
type NewsDeps struct {
	Speller   ports.Speller
	Resizer   imageResizer
	Publisher ports.Publisher
	// ImageMaxMB is the size above which images are shrunk to WideSide.
	ImageMaxMB float64
	WideSide   int
	Logger     *slog.Logger
}

// News prepares and publishes news items.
type News struct {
	speller    ports.Speller
	resizer    imageResizer
	publisher  ports.Publisher
	imageMaxMB float64
	wideSide   int
	logger     *slog.Logger
}

// NewsDraft is a news item ready for the site.
type NewsDraft struct {
	Title  string
	HTML   string
	Images []string
}

func NewNews(deps NewsDeps) *News {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n := &News{
		speller:    deps.Speller,
		resizer:    deps.Resizer,
		publisher:  deps.Publisher,
		imageMaxMB: deps.ImageMaxMB,
		wideSide:   deps.WideSide,
		logger:     logger,
	}
	if n.imageMaxMB <= 0 {
		n.imageMaxMB = 1.5
	}
	if n.wideSide <= 0 {
		n.wideSide = document.WideSide
	}
	return n
}

// TextForNews derives the title and sentences of an item: from its only
// docx, or from the forwarded mail body when there is none.
func (n *News) TextForNews(ctx context.Context, item *domain.InboundItem) (string, []string, error) {
	folder, err := item.Folder()
	if err != nil {
		return "", nil, err
	}
	docxs, err := document.FilesWithExt(folder, ".docx")
	if err != nil {
		return "", nil, domain.PrepareError("text for news", err)
	}

	meta := item.Metadata()
	var text string
	switch len(docxs) {
	case 0:
		text, err = extract.ForwardedText(meta.Subject, meta.Body, meta.BodyIsHTML)
	case 1:
		text, err = extract.TextFromDocx(docxs[0])
	default:
		err = domain.PrepareError("text for news", fmt.Errorf("found %d docx for one news", len(docxs)))
	}
	if err != nil {
		return "", nil, err
	}

	title, sentences := extract.Segment(text)
	title = n.spell(ctx, extract.TitleFromSubject(title, meta.Subject))
	for i, s := range sentences {
		sentences[i] = n.spell(ctx, s)
	}
	return title, sentences, nil
}

// spell corrects one line and keeps it unchanged when the service fails.
func (n *News) spell(ctx context.Context, line string) string {
	if n.speller == nil {
		return line
	}
	fixed, err := n.speller.Spell(ctx, line)
	if err != nil {
		n.logger.WarnContext(ctx, "spell check skipped", "error", err)
		return line
	}
	return fixed
}

// ImagesForNews puts every jpeg of folder into folder/img under a
// transliterated unique name, shrinking the heavy ones.
func (n *News) ImagesForNews(ctx context.Context, folder string) ([]string, error) {
	sources, err := document.FilesWithExt(folder, ".jpg", ".jpeg")
	if err != nil {
		return nil, domain.PrepareError("images for news", err)
	}
	imgDir := filepath.Join(folder, "img")
	if err := os.Mkdir(imgDir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			err = fmt.Errorf("%s: %w", imgDir, domain.ErrAlreadyExists)
		}
		return nil, domain.PrepareError("images for news", err)
	}

	used := map[string]struct{}{}
	images := make([]string, 0, len(sources))
	for _, src := range sources {
		dst := filepath.Join(imgDir, document.UniqueName(used, document.FormatImageName(filepath.Base(src))))
		size, err := document.FileSizeMB(src)
		if err != nil {
			return nil, domain.PrepareError("images for news", err)
		}
		if size > n.imageMaxMB {
			n.logger.InfoContext(ctx, "resize news image", "file", src, "size_mb", size)
			err = n.resizer.ResizeToWideSide(ctx, src, dst, n.wideSide)
		} else {
			err = document.CopyFile(src, dst)
		}
		if err != nil {
			var tagged *domain.Error
			if !errors.As(err, &tagged) {
				err = domain.PrepareError("images for news", err)
			}
			return nil, err
		}
		images = append(images, dst)
	}
	return images, nil
}

// Publish sends the reviewed item to the site.
func (n *News) Publish(ctx context.Context, item *domain.InboundItem) (string, error) {
	return n.publish(ctx, NewsDraft{
		Title:  item.Title(),
		HTML:   extract.Render(item.Sentences()),
		Images: item.Images(),
	})
}

// PrepareFolder builds a draft from a folder with one docx and some jpegs.
// The first docx paragraph is the title.
func (n *News) PrepareFolder(ctx context.Context, folder string) (NewsDraft, error) {
	jpegs, err := document.FilesWithExt(folder, ".jpg", ".jpeg")
	if err != nil {
		return NewsDraft{}, domain.PrepareError("news folder", err)
	}
	if len(jpegs) == 0 {
		return NewsDraft{}, domain.PrepareError("news folder", fmt.Errorf("jpg images: %w", domain.ErrNotFound))
	}
	docxs, err := document.FilesWithExt(folder, ".docx")
	if err != nil {
		return NewsDraft{}, domain.PrepareError("news folder", err)
	}
	if len(docxs) != 1 {
		return NewsDraft{}, domain.PrepareError("news folder", fmt.Errorf("want one docx, found %d", len(docxs)))
	}

	title, html, err := extract.NewsFromDocx(docxs[0])
	if err != nil {
		return NewsDraft{}, err
	}
	images, err := n.ImagesForNews(ctx, folder)
	if err != nil {
		return NewsDraft{}, err
	}
	return NewsDraft{Title: title, HTML: html, Images: images}, nil
}

// PublishFolder prepares folder and publishes it in one go.
func (n *News) PublishFolder(ctx context.Context, folder string) (string, error) {
	draft, err := n.PrepareFolder(ctx, folder)
	if err != nil {
		return "", err
	}
	return n.publish(ctx, draft)
}

func (n *News) publish(ctx context.Context, draft NewsDraft) (string, error) {
	if draft.Title == "" {
		return "", domain.PrepareError("publish news", fmt.Errorf("title: %w", domain.ErrNotFound))
	}
	if len(draft.Images) == 0 {
		return "", domain.PrepareError("publish news", fmt.Errorf("images: %w", domain.ErrNotFound))
	}
	url, err := n.publisher.PublishNews(ctx, draft.Title, draft.HTML, draft.Images)
	if err != nil {
		return "", err
	}
	n.logger.InfoContext(ctx, "news published", "url", url, "images", len(draft.Images))
	return url, nil
}
