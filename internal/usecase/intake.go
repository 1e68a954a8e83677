package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"AutoPublisher/internal/document"
	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/extract"
	"AutoPublisher/internal/ports"
)

// IntakeDeps wires the collaborators that materialize an InboundItem.
type IntakeDeps struct {
	Mailbox      ports.Mailbox
	Fetcher      ports.FileFetcher
	Runner       ports.ToolRunner
	UnrarBin     string
	TmpDir       string
	FolderPrefix string
	Logger       *slog.Logger
}

// Intake turns an unread mail or an uploaded archive into a live item.
type Intake struct {
	mailbox      ports.Mailbox
	fetcher      ports.FileFetcher
	runner       ports.ToolRunner
	unrarBin     string
	tmpDir       string
	folderPrefix string
	logger       *slog.Logger
}

func NewIntake(deps IntakeDeps) *Intake {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	unrar := deps.UnrarBin
	if unrar == "" {
		unrar = "unrar"
	}
	return &Intake{
		mailbox:      deps.Mailbox,
		fetcher:      deps.Fetcher,
		runner:       deps.Runner,
		unrarBin:     unrar,
		tmpDir:       deps.TmpDir,
		folderPrefix: deps.FolderPrefix,
		logger:       logger,
	}
}

// FromMail fetches the oldest unread mail of from. It returns
// domain.ErrNoNewMail when there is nothing to do.
func (in *Intake) FromMail(ctx context.Context, from string) (*domain.InboundItem, error) {
	fetched, err := in.mailbox.FetchOldestUnread(ctx, from)
	if err != nil {
		return nil, err
	}

	summary, err := in.summarize(ctx, fetched.Folder, fetched.Metadata)
	item := domain.NewInboundItem(fetched.ID, fetched.Folder, fetched.Metadata, summary)
	if err != nil {
		if rbErr := item.Rollback(ctx, in.mailbox); rbErr != nil {
			in.logger.ErrorContext(ctx, "rollback after failed unpack", "error", rbErr)
		}
		return nil, err
	}
	return item, nil
}

// FromUpload creates an item without a source mail from an archive sent
// through the chat.
func (in *Intake) FromUpload(ctx context.Context, upload domain.Upload) (*domain.InboundItem, error) {
	folder := filepath.Join(in.tmpDir, in.folderPrefix+uuid.NewString())
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, domain.PrepareError("upload", err)
	}

	name := "archive" + strings.ToLower(filepath.Ext(upload.FileName))
	if err := in.fetcher.Download(ctx, upload.FileID, filepath.Join(folder, name)); err != nil {
		_ = os.RemoveAll(folder)
		return nil, domain.PrepareError("download upload", err)
	}

	meta := domain.MailMetadata{
		Date:        "Right now",
		From:        "Me",
		Subject:     " ",
		Body:        " ",
		Attachments: []string{name},
	}
	summary, err := in.summarize(ctx, folder, meta)
	if err != nil {
		_ = os.RemoveAll(folder)
		return nil, err
	}
	in.logger.InfoContext(ctx, "archive uploaded", "folder", folder, "file", upload.FileName)
	return domain.NewInboundItem("", folder, meta, summary), nil
}

// summarize renders the digest and eagerly unpacks a lone zip or rar attachment.
func (in *Intake) summarize(ctx context.Context, folder string, meta domain.MailMetadata) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nSubject: %s\n\n%s\n\nAttachments:\n",
		meta.Date, meta.Subject, extract.TextFromBody(meta.Body, meta.BodyIsHTML))
	writeNumbered(&b, meta.Attachments)

	if len(meta.Attachments) != 1 {
		return b.String(), nil
	}
	archive := filepath.Join(folder, meta.Attachments[0])
	switch strings.ToLower(filepath.Ext(archive)) {
	case ".zip":
		if err := document.UnzipFlat(archive, folder); err != nil {
			return "", err
		}
	case ".rar":
		report := document.Unrar(ctx, in.runner, in.unrarBin, archive, folder)
		fmt.Fprintf(&b, "\nUnpack %s to %s\n%s\n", meta.Attachments[0], folder, report)
	default:
		return b.String(), nil
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return "", domain.PrepareError("list unpacked", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	b.WriteString("\nUnpacked Attachments:\n")
	writeNumbered(&b, names)
	return b.String(), nil
}

func writeNumbered(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d) %s\n", i+1, item)
	}
}

// isArchive reports whether an upload goes through archive intake.
func isArchive(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".zip", ".rar":
		return true
	}
	return false
}
