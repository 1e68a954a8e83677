package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"AutoPublisher/internal/clock"
	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/source"
)

const newsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Открытие парка</w:t></w:r></w:p>
    <w:p><w:r><w:t>В субботу открылся парк.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Пришли жители.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Ждём всех.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func docxBytes(t *testing.T, documentXML string) []byte {
	t.Helper()
	return zipBytes(t, map[string][]byte{"word/document.xml": []byte(documentXML)})
}

func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeFiles(t *testing.T, folder string, files map[string][]byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(folder, 0o755))
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), data, 0o644))
	}
}

func newsFiles(t *testing.T) map[string][]byte {
	return map[string][]byte{
		"новость.docx": docxBytes(t, newsXML),
		"Фото 1.jpg":   []byte("jpeg-1"),
		"Фото 2.JPG":   []byte("jpeg-2"),
		"фото-3.jpeg":  []byte("jpeg-3"),
	}
}

// fakeMailbox hands out prepared mails and records unread marks.
type fakeMailbox struct {
	mu       sync.Mutex
	root     string
	queue    map[string][]fakeMail
	unread   []string
	counts   map[string]int
	fetchErr error
}

type fakeMail struct {
	id    string
	meta  domain.MailMetadata
	files map[string][]byte
}

func newFakeMailbox(root string) *fakeMailbox {
	return &fakeMailbox{root: root, queue: map[string][]fakeMail{}, counts: map[string]int{}}
}

func (m *fakeMailbox) add(from string, mail fakeMail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue[from] = append(m.queue[from], mail)
}

func (m *fakeMailbox) FetchOldestUnread(_ context.Context, from string) (domain.FetchedMail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return domain.FetchedMail{}, m.fetchErr
	}
	if len(m.queue[from]) == 0 {
		return domain.FetchedMail{}, domain.ErrNoNewMail
	}
	mail := m.queue[from][0]
	m.queue[from] = m.queue[from][1:]

	folder := filepath.Join(m.root, "mail_"+mail.id)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return domain.FetchedMail{}, err
	}
	for name, data := range mail.files {
		if err := os.WriteFile(filepath.Join(folder, name), data, 0o644); err != nil {
			return domain.FetchedMail{}, err
		}
		mail.meta.Attachments = append(mail.meta.Attachments, name)
	}
	return domain.FetchedMail{ID: mail.id, Folder: folder, Metadata: mail.meta}, nil
}

func (m *fakeMailbox) MarkUnread(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unread = append(m.unread, id)
	return nil
}

func (m *fakeMailbox) CountUnread(_ context.Context, from string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[from], nil
}

func (m *fakeMailbox) unreadMarks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.unread...)
}

type fakeMessenger struct {
	mu      sync.Mutex
	replies []domain.Reply
	chats   []int64
}

func (f *fakeMessenger) Send(_ context.Context, chatID int64, reply domain.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, reply)
	f.chats = append(f.chats, chatID)
	return nil
}

func (f *fakeMessenger) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.replies))
	for i, r := range f.replies {
		out[i] = r.Text
	}
	return out
}

func (f *fakeMessenger) last() domain.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replies[len(f.replies)-1]
}

func (f *fakeMessenger) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies, f.chats = nil, nil
}

type fakeSpeller struct {
	fix   func(string) string
	err   error
	calls int
}

func (f *fakeSpeller) Spell(_ context.Context, text string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.fix == nil {
		return text, nil
	}
	return f.fix(text), nil
}

type newsCall struct {
	title  string
	html   string
	images []string
}

type bannerCall struct {
	image      string
	start, end time.Time
}

type fakePublisher struct {
	err      error
	news     []newsCall
	schedule [][]string
	banners  []bannerCall
}

func (f *fakePublisher) PublishSchedule(_ context.Context, images []string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.schedule = append(f.schedule, images)
	return "https://site.example/rasp", nil
}

func (f *fakePublisher) PublishNews(_ context.Context, title, html string, images []string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, img := range images {
		if _, err := os.Stat(img); err != nil {
			return "", err
		}
	}
	f.news = append(f.news, newsCall{title: title, html: html, images: images})
	return "https://site.example/node/99", nil
}

func (f *fakePublisher) PublishBanner(_ context.Context, image string, start, end time.Time) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := os.Stat(image); err != nil {
		return "", err
	}
	f.banners = append(f.banners, bannerCall{image: image, start: start, end: end})
	return "https://site.example/", nil
}

// fakeResizer copies the source and records the call.
type fakeResizer struct {
	calls []string
}

func (f *fakeResizer) ResizeToWideSide(_ context.Context, src, dst string, target int) error {
	f.calls = append(f.calls, fmt.Sprintf("%s %d", filepath.Base(src), target))
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

type fakeRasterizer struct {
	err error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, folder string) (domain.ScheduleArtifact, error) {
	if f.err != nil {
		return domain.ScheduleArtifact{}, f.err
	}
	var pages []string
	for i := 1; i <= 2; i++ {
		page := filepath.Join(folder, fmt.Sprintf("rasp-%03d.png", i))
		if err := os.WriteFile(page, []byte("png"), 0o644); err != nil {
			return domain.ScheduleArtifact{}, err
		}
		pages = append(pages, page)
	}
	return domain.ScheduleArtifact{Pages: pages}, nil
}

// fakeFetcher writes the registered content of a file id.
type fakeFetcher struct {
	files map[string][]byte
}

func (f *fakeFetcher) Download(_ context.Context, fileID, dst string) error {
	data, ok := f.files[fileID]
	if !ok {
		return errors.New("file not found")
	}
	return os.WriteFile(dst, data, 0o644)
}

type fakeSniffer struct{}

func (fakeSniffer) Sniff(path string) (string, string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", "", err
	}
	switch string(data) {
	case "png":
		return "PNG", ".png", "image/png", nil
	case "jpeg":
		return "JPEG", ".jpg", "image/jpeg", nil
	}
	return "", ".pdf", "application/pdf", fmt.Errorf("application/pdf: %w", domain.ErrUnsupportedImage)
}

const (
	ownerChat = int64(42)
	koshelev  = "koshelev@example.org"
	myself    = "me@example.org"
)

type harness struct {
	root      string
	mailbox   *fakeMailbox
	messenger *fakeMessenger
	speller   *fakeSpeller
	publisher *fakePublisher
	resizer   *fakeResizer
	fetcher   *fakeFetcher
	clock     *clock.Fixed
	sessions  *SessionStore
	workflow  *Workflow
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	h := &harness{
		root:      root,
		mailbox:   newFakeMailbox(root),
		messenger: &fakeMessenger{},
		speller:   &fakeSpeller{},
		publisher: &fakePublisher{},
		resizer:   &fakeResizer{},
		fetcher:   &fakeFetcher{files: map[string][]byte{}},
		clock:     clock.NewFixed(time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)),
		sessions:  NewSessionStore(),
	}

	sources := source.NewRegistry()
	sources.Register(source.Source{Command: "mail", Address: koshelev, Label: "Кошелева"})
	sources.Register(source.Source{Command: "mymail", Address: myself, Label: "меня"})

	h.workflow = NewWorkflow(WorkflowDeps{
		Sessions: h.sessions,
		Sources:  sources,
		Intake: NewIntake(IntakeDeps{
			Mailbox:      h.mailbox,
			Fetcher:      h.fetcher,
			TmpDir:       root,
			FolderPrefix: "upload_",
		}),
		News: NewNews(NewsDeps{
			Speller:    h.speller,
			Resizer:    h.resizer,
			Publisher:  h.publisher,
			ImageMaxMB: 1.5,
		}),
		Schedule: NewSchedule(ScheduleDeps{
			Rasterizer:   &fakeRasterizer{},
			Publisher:    h.publisher,
			Clock:        h.clock,
			BlockFromDay: 21,
			BlockToDay:   31,
		}),
		Banner: NewBanner(BannerDeps{
			Fetcher:        h.fetcher,
			Sniffer:        fakeSniffer{},
			Resizer:        h.resizer,
			Publisher:      h.publisher,
			Clock:          h.clock,
			SupportedKinds: []string{"JPEG", "PNG"},
			TmpDir:         root,
			FolderPrefix:   "banner_",
		}),
		Mailbox:       h.mailbox,
		Messenger:     h.messenger,
		MessageLimit:  200,
		WindowFromDay: 21,
		WindowToDay:   31,
	})
	return h
}

func (h *harness) command(t *testing.T, cmd string) {
	t.Helper()
	require.NoError(t, h.workflow.Handle(context.Background(), domain.Input{
		ChatID: ownerChat, UserID: ownerChat, Kind: domain.InputCommand, Command: cmd,
	}))
}

func (h *harness) choose(t *testing.T, data string) {
	t.Helper()
	require.NoError(t, h.workflow.Handle(context.Background(), domain.Input{
		ChatID: ownerChat, UserID: ownerChat, Kind: domain.InputChoice, Data: data,
	}))
}

func (h *harness) text(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, h.workflow.Handle(context.Background(), domain.Input{
		ChatID: ownerChat, UserID: ownerChat, Kind: domain.InputText, Text: text,
	}))
}

func (h *harness) upload(t *testing.T, fileID, name string) {
	t.Helper()
	require.NoError(t, h.workflow.Handle(context.Background(), domain.Input{
		ChatID: ownerChat, UserID: ownerChat, Kind: domain.InputDocument,
		Document: &domain.Upload{FileID: fileID, FileName: name},
	}))
}

func (h *harness) state() State {
	return h.sessions.Get(ownerChat).State()
}

// folders lists what is left under the scratch root.
func (h *harness) folders(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.root)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
