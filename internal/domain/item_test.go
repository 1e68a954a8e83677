package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingMarker struct {
	ids []string
	err error
}

func (r *recordingMarker) MarkUnread(_ context.Context, id string) error {
	r.ids = append(r.ids, id)
	return r.err
}

func newScratch(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "autopublisher_42")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	return dir
}

func TestInboundItemRollbackRestoresUnreadAndRemovesFolder(t *testing.T) {
	t.Parallel()

	dir := newScratch(t)
	item := NewInboundItem("42", dir, MailMetadata{Subject: "Fwd: test"}, "about")
	marker := &recordingMarker{}

	require.NoError(t, item.Rollback(context.Background(), marker))
	require.Equal(t, []string{"42"}, marker.ids)
	require.NoDirExists(t, dir)
	require.False(t, item.Live())
}

func TestInboundItemRollbackAttemptsCleanupWhenMarkFails(t *testing.T) {
	t.Parallel()

	dir := newScratch(t)
	item := NewInboundItem("7", dir, MailMetadata{}, "")
	marker := &recordingMarker{err: errors.New("imap down")}

	err := item.Rollback(context.Background(), marker)
	require.Error(t, err)
	require.Contains(t, err.Error(), "imap down")
	require.NoDirExists(t, dir)
}

func TestInboundItemWithoutIDSkipsMarker(t *testing.T) {
	t.Parallel()

	dir := newScratch(t)
	item := NewInboundItem("", dir, MailMetadata{}, "")
	marker := &recordingMarker{}

	require.NoError(t, item.Rollback(context.Background(), marker))
	require.Empty(t, marker.ids)
}

func TestClearedItemRejectsOperations(t *testing.T) {
	t.Parallel()

	dir := newScratch(t)
	item := NewInboundItem("1", dir, MailMetadata{}, "")
	require.NoError(t, item.Commit())
	require.NoDirExists(t, dir)

	_, err := item.Folder()
	require.ErrorIs(t, err, ErrItemCleared)
	require.ErrorIs(t, item.Commit(), ErrItemCleared)
	require.ErrorIs(t, item.Rollback(context.Background(), nil), ErrItemCleared)
	require.ErrorIs(t, item.SetTitle("x"), ErrItemCleared)
	require.ErrorIs(t, item.SetSentences([]string{"x"}), ErrItemCleared)
	require.ErrorIs(t, item.SetImages(nil), ErrItemCleared)
}

func TestExtractionAppliesOnceEditsAnyNumber(t *testing.T) {
	t.Parallel()

	item := NewInboundItem("1", newScratch(t), MailMetadata{}, "")
	require.NoError(t, item.SetExtracted("Title", []string{"a.", "b."}))
	require.ErrorIs(t, item.SetExtracted("Other", nil), ErrAlreadyExists)

	require.NoError(t, item.SetTitle("Edited"))
	require.NoError(t, item.SetSentences([]string{"c."}))
	require.NoError(t, item.SetSentences([]string{"d.", "e."}))
	require.Equal(t, "Edited", item.Title())
	require.Equal(t, []string{"d.", "e."}, item.Sentences())
}

func TestMainpageImageLifecycle(t *testing.T) {
	t.Parallel()

	dir := newScratch(t)
	start := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	img := NewMainpageImage(dir, "banner.jpg", start)

	require.Error(t, img.SetEndDate(start.AddDate(0, 0, -1)))
	require.NoError(t, img.SetEndDate(start.AddDate(0, 0, 7)))
	require.Equal(t, "2024-03-10", img.StartISO())
	require.Equal(t, "2024-03-17", img.EndISO())

	path, err := img.Path()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "banner.jpg"), path)

	require.NoError(t, img.Rollback())
	require.NoDirExists(t, dir)
	_, err = img.Path()
	require.ErrorIs(t, err, ErrItemCleared)
}
