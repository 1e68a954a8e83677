package mailbox

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"AutoPublisher/internal/domain"
)

var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

var knownExtensions = map[string]string{
	"text/plain":      ".txt",
	"text/html":       ".html",
	"message/rfc822":  ".eml",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

type typedHeader interface {
	ContentType() (string, map[string]string, error)
	ContentDisposition() (string, map[string]string, error)
}

// saveMessage writes every leaf MIME part of raw into folder and returns the
// message metadata. Parts without a filename get a generated part-NNN name.
func saveMessage(raw io.Reader, folder string, logger *slog.Logger) (domain.MailMetadata, error) {
	mr, err := mail.CreateReader(raw)
	if err != nil {
		if !message.IsUnknownCharset(err) {
			return domain.MailMetadata{}, fmt.Errorf("parse message: %w", err)
		}
		logger.Warn("unknown charset in message header", "error", err)
	}
	defer mr.Close()

	meta := domain.MailMetadata{Date: mr.Header.Get("Date")}
	if meta.From, err = mr.Header.Text("From"); err != nil {
		meta.From = mr.Header.Get("From")
	}
	if meta.Subject, err = mr.Header.Subject(); err != nil {
		meta.Subject = mr.Header.Get("Subject")
	}

	bodyFound := false
	for counter := 1; ; counter++ {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !message.IsUnknownCharset(err) {
				return domain.MailMetadata{}, fmt.Errorf("read part %d: %w", counter, err)
			}
			logger.Warn("unknown charset in message part", "part", counter, "error", err)
		}

		contentType := ""
		name := ""
		if h, ok := part.Header.(typedHeader); ok {
			contentType, _, _ = h.ContentType()
			name = partFilename(h)
		}
		if name == "" {
			name = fmt.Sprintf("part-%03d%s", counter, extensionFor(contentType))
		} else {
			meta.Attachments = append(meta.Attachments, name)
		}

		data, err := io.ReadAll(part.Body)
		if err != nil {
			logger.Warn("cannot decode message part, writing placeholder", "file", name, "error", err)
			data = []byte("\n")
		}
		if err := os.WriteFile(filepath.Join(folder, name), data, 0o644); err != nil {
			return domain.MailMetadata{}, fmt.Errorf("write %s: %w", name, err)
		}

		if _, inline := part.Header.(*mail.InlineHeader); inline && !bodyFound && strings.HasPrefix(contentType, "text/") {
			meta.Body = string(data)
			meta.BodyIsHTML = contentType == "text/html"
			bodyFound = true
		}
	}
	return meta, nil
}

func partFilename(h typedHeader) string {
	_, params, _ := h.ContentDisposition()
	name, ok := params["filename"]
	if !ok {
		_, params, _ = h.ContentType()
		name = params["name"]
	}
	if decoded, err := wordDecoder.DecodeHeader(name); err == nil {
		name = decoded
	}
	return sanitizeFilename(name)
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.NewReplacer("/", "_", "\\", "_", "\x00", "").Replace(name))
	if name == "." || name == ".." {
		return ""
	}
	return name
}

func extensionFor(contentType string) string {
	if ext, ok := knownExtensions[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
