package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
)

// MailMetadata is the immutable description of one source message.
type MailMetadata struct {
	Date        string
	From        string
	Subject     string
	Body        string
	BodyIsHTML  bool
	Attachments []string
}

// FetchedMail is what a mailbox returns for the oldest unread message.
type FetchedMail struct {
	ID       string
	Folder   string
	Metadata MailMetadata
}

// UnreadMarker restores the unread flag of a source message.
type UnreadMarker interface {
	MarkUnread(ctx context.Context, id string) error
}

// InboundItem is the unit of content currently being processed.
// It owns its scratch folder until Commit or Rollback.
type InboundItem struct {
	id        string
	folder    string
	metadata  MailMetadata
	summary   string
	title     string
	sentences []string
	extracted bool
	images    []string
	cleared   bool
}

// NewInboundItem takes ownership of folder. id may be empty for direct uploads.
func NewInboundItem(id, folder string, metadata MailMetadata, summary string) *InboundItem {
	metadata.Attachments = slices.Clone(metadata.Attachments)
	return &InboundItem{
		id:       id,
		folder:   folder,
		metadata: metadata,
		summary:  summary,
	}
}

// ID returns the source message id, empty for uploads.
func (i *InboundItem) ID() string { return i.id }

// Metadata returns a copy of the source metadata.
func (i *InboundItem) Metadata() MailMetadata {
	m := i.metadata
	m.Attachments = slices.Clone(i.metadata.Attachments)
	return m
}

// Summary is the digest shown to the operator before any decision.
func (i *InboundItem) Summary() string { return i.summary }

// Live reports whether the item still owns its scratch folder.
func (i *InboundItem) Live() bool { return !i.cleared }

// Folder returns the scratch folder or ErrItemCleared.
func (i *InboundItem) Folder() (string, error) {
	if i.cleared {
		return "", ErrItemCleared
	}
	return i.folder, nil
}

func (i *InboundItem) Title() string       { return i.title }
func (i *InboundItem) Sentences() []string { return slices.Clone(i.sentences) }
func (i *InboundItem) Images() []string    { return slices.Clone(i.images) }

// Extracted reports whether automatic extraction has already run.
func (i *InboundItem) Extracted() bool { return i.extracted }

// SetExtracted stores the automatically derived title and sentences. It runs once.
func (i *InboundItem) SetExtracted(title string, sentences []string) error {
	if i.cleared {
		return ErrItemCleared
	}
	if i.extracted {
		return fmt.Errorf("extraction: %w", ErrAlreadyExists)
	}
	i.title = title
	i.sentences = slices.Clone(sentences)
	i.extracted = true
	return nil
}

// SetTitle applies an operator edit.
func (i *InboundItem) SetTitle(title string) error {
	if i.cleared {
		return ErrItemCleared
	}
	i.title = title
	return nil
}

// SetSentences replaces the whole sentence list with an operator edit.
func (i *InboundItem) SetSentences(sentences []string) error {
	if i.cleared {
		return ErrItemCleared
	}
	i.sentences = slices.Clone(sentences)
	return nil
}

// SetImages records the prepared image paths.
func (i *InboundItem) SetImages(images []string) error {
	if i.cleared {
		return ErrItemCleared
	}
	i.images = slices.Clone(images)
	return nil
}

// Commit discards the scratch folder without touching the source message.
func (i *InboundItem) Commit() error {
	if i.cleared {
		return ErrItemCleared
	}
	i.cleared = true
	if err := os.RemoveAll(i.folder); err != nil {
		return fmt.Errorf("remove scratch folder: %w", err)
	}
	return nil
}

// Rollback marks the source message unread and discards the scratch folder.
// Both steps are attempted even if one fails.
func (i *InboundItem) Rollback(ctx context.Context, marker UnreadMarker) error {
	if i.cleared {
		return ErrItemCleared
	}
	i.cleared = true

	var errs []error
	if i.id != "" && marker != nil {
		if err := marker.MarkUnread(ctx, i.id); err != nil {
			errs = append(errs, fmt.Errorf("mark %s unread: %w", i.id, err))
		}
	}
	if err := os.RemoveAll(i.folder); err != nil {
		errs = append(errs, fmt.Errorf("remove scratch folder: %w", err))
	}
	return errors.Join(errs...)
}

// ScheduleArtifact is the page images of one schedule document in page order.
type ScheduleArtifact struct {
	Pages []string
}
