// Package mailbox finds, downloads and restores source messages over IMAP.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/textproto"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
	"AutoPublisher/pkg/logger"
)

// Config describes the mail account and where messages are stored.
type Config struct {
	Server   string
	Login    string
	Password string
	TLS      bool
	Mailbox  string
	// TmpDir and FolderPrefix name the scratch folder of a message:
	// TmpDir/FolderPrefix<uid>.
	TmpDir       string
	FolderPrefix string
}

// IMAP opens a fresh session for every operation and always logs out.
type IMAP struct {
	cfg    Config
	logger *slog.Logger
	dial   func() (*client.Client, error)
}

var (
	_ ports.Mailbox       = (*IMAP)(nil)
	_ ports.UnreadCounter = (*IMAP)(nil)
)

// NewIMAP prepares a client for the configured account.
func NewIMAP(cfg Config, base *slog.Logger) *IMAP {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if base == nil {
		base = slog.New(slog.DiscardHandler)
	}
	m := &IMAP{cfg: cfg, logger: base.With("component", "mailbox")}
	m.dial = func() (*client.Client, error) {
		if cfg.TLS {
			return client.DialTLS(cfg.Server, nil)
		}
		return client.Dial(cfg.Server)
	}
	return m
}

func (m *IMAP) connect() (*client.Client, error) {
	c, err := m.dial()
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", m.cfg.Server, err)
	}
	c.ErrorLog = logger.New("imap", m.logger)
	if err := c.Login(m.cfg.Login, m.cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("login: %w", err)
	}
	if _, err := c.Select(m.cfg.Mailbox, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("select %s: %w", m.cfg.Mailbox, err)
	}
	return c, nil
}

func (m *IMAP) close(c *client.Client) {
	if err := c.Logout(); err != nil {
		m.logger.Warn("logout failed", "error", err)
	}
}

func unseenFrom(from string) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	criteria.Header = textproto.MIMEHeader{"From": {from}}
	criteria.WithoutFlags = []string{imap.SeenFlag}
	return criteria
}

// FetchOldestUnread downloads the unread message with the lowest uid from
// sender into a fresh scratch folder and marks it seen.
func (m *IMAP) FetchOldestUnread(ctx context.Context, from string) (fetched domain.FetchedMail, err error) {
	m.logger.InfoContext(ctx, "connecting to mail server", "server", m.cfg.Server)
	c, err := m.connect()
	if err != nil {
		return domain.FetchedMail{}, domain.MailboxError("connect", err)
	}
	defer m.close(c)

	uids, err := c.UidSearch(unseenFrom(from))
	if err != nil {
		return domain.FetchedMail{}, domain.MailboxError("search", err)
	}
	if len(uids) == 0 {
		return domain.FetchedMail{}, domain.ErrNoNewMail
	}
	uid := slices.Min(uids)
	id := strconv.FormatUint(uint64(uid), 10)

	defer func() {
		if err == nil {
			return
		}
		if markErr := storeSeen(c, uid, imap.RemoveFlags); markErr != nil {
			m.logger.ErrorContext(ctx, "restore unread flag", "uid", id, "error", markErr)
		}
	}()

	raw, err := fetchBody(c, uid)
	if err != nil {
		return domain.FetchedMail{}, domain.MailboxError("fetch "+id, err)
	}
	if err := storeSeen(c, uid, imap.AddFlags); err != nil {
		return domain.FetchedMail{}, domain.MailboxError("mark seen "+id, err)
	}

	folder := filepath.Join(m.cfg.TmpDir, m.cfg.FolderPrefix+id)
	if err := os.RemoveAll(folder); err != nil {
		return domain.FetchedMail{}, domain.MailboxError("clean folder", err)
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return domain.FetchedMail{}, domain.MailboxError("create folder", err)
	}

	meta, err := saveMessage(raw, folder, m.logger)
	if err != nil {
		_ = os.RemoveAll(folder)
		return domain.FetchedMail{}, domain.MailboxError("save "+id, err)
	}
	m.logger.InfoContext(ctx, "mail fetched", "uid", id, "attachments", len(meta.Attachments))

	return domain.FetchedMail{ID: id, Folder: folder, Metadata: meta}, nil
}

func fetchBody(c *client.Client, uid uint32) (io.Reader, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	section := &imap.BodySectionName{Peek: true}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var body io.Reader
	for msg := range messages {
		if lit := msg.GetBody(section); lit != nil {
			body = lit
		}
	}
	if err := <-done; err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("server returned no message body")
	}
	return body, nil
}

func storeSeen(c *client.Client, uid uint32, op imap.FlagsOp) error {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	return c.UidStore(seqset, imap.FormatFlagsOp(op, true), []interface{}{imap.SeenFlag}, nil)
}

// MarkUnread opens its own session to clear the seen flag. Clearing an
// already unread message is not an error.
func (m *IMAP) MarkUnread(ctx context.Context, id string) error {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return domain.MailboxError("mark unread", fmt.Errorf("bad message id %q: %w", id, err))
	}
	c, err := m.connect()
	if err != nil {
		return domain.MailboxError("connect", err)
	}
	defer m.close(c)

	if err := storeSeen(c, uint32(uid), imap.RemoveFlags); err != nil {
		return domain.MailboxError("mark unread "+id, err)
	}
	m.logger.InfoContext(ctx, "mail marked unread", "uid", id)
	return nil
}

// CountUnread reports how many unread messages sender has in the mailbox.
func (m *IMAP) CountUnread(ctx context.Context, from string) (int, error) {
	c, err := m.connect()
	if err != nil {
		return 0, domain.MailboxError("connect", err)
	}
	defer m.close(c)

	uids, err := c.UidSearch(unseenFrom(from))
	if err != nil {
		return 0, domain.MailboxError("search", err)
	}
	return len(uids), nil
}
