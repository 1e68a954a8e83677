// Package publisher submits content to the community site through its
// Drupal admin forms.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

// Site paths relative to the configured root.
const (
	LoginPath       = "user"
	FileBrowserPath = "imce"
	SchedulePath    = "node/18/edit"
	NewsPath        = "node/add/news"
	MainpagePath    = "node/17/edit"
)

const (
	userAgent     = "AutoPublisher/1.0"
	bodySelector  = "#edit-body-und-0-value"
	bodyField     = "body[und][0][value]"
	submitButton  = "#edit-submit"
	editingTitle  = "Редактирование"
	creatingTitle = "Создание материала"
)

// Config holds the site root, credentials and wait settings.
type Config struct {
	BaseURL       string
	Username      string
	Password      string
	WaitTimeout   time.Duration
	PollInterval  time.Duration
	LoginAttempts int
	HTTPTimeout   time.Duration
}

// Drupal logs in anew for every publish call and keeps the session
// cookies only for that call.
type Drupal struct {
	cfg    Config
	base   *url.URL
	logger *slog.Logger
}

var _ ports.Publisher = (*Drupal)(nil)

// NewDrupal validates the site root and fills in defaults.
func NewDrupal(cfg Config, logger *slog.Logger) (*Drupal, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("site url %q is not absolute", cfg.BaseURL)
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 20 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.LoginAttempts <= 0 {
		cfg.LoginAttempts = 3
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Drupal{cfg: cfg, base: base, logger: logger.With("component", "publisher")}, nil
}

type session struct {
	d    *Drupal
	http *http.Client
}

func (d *Drupal) url(path string) string {
	return d.base.ResolveReference(&url.URL{Path: path}).String()
}

// PublishSchedule uploads the pages and replaces the schedule page body.
func (d *Drupal) PublishSchedule(ctx context.Context, images []string) (string, error) {
	s, err := d.login(ctx)
	if err != nil {
		return "", domain.PublishError("login", err)
	}
	for _, img := range images {
		if err := s.upload(ctx, img); err != nil {
			return "", domain.PublishError("upload", err)
		}
	}
	done, err := s.editBody(ctx, SchedulePath, editingTitle, func(string) string { return RaspHTML(images) })
	if err != nil {
		return "", domain.PublishError("schedule", err)
	}
	d.logger.InfoContext(ctx, "schedule published", "url", done, "pages", len(images))
	return done, nil
}

// PublishBanner uploads the image and prepends the banner block to the
// mainpage body.
func (d *Drupal) PublishBanner(ctx context.Context, image string, start, end time.Time) (string, error) {
	s, err := d.login(ctx)
	if err != nil {
		return "", domain.PublishError("login", err)
	}
	if err := s.upload(ctx, image); err != nil {
		return "", domain.PublishError("upload", err)
	}
	block := BannerHTML(image, start, end)
	done, err := s.editBody(ctx, MainpagePath, editingTitle, func(old string) string { return block + old })
	if err != nil {
		return "", domain.PublishError("mainpage", err)
	}
	d.logger.InfoContext(ctx, "banner published", "url", done, "image", filepath.Base(image))
	return done, nil
}

// PublishNews creates a news node, attaching images one upload slot at a time.
func (d *Drupal) PublishNews(ctx context.Context, title, html string, images []string) (string, error) {
	s, err := d.login(ctx)
	if err != nil {
		return "", domain.PublishError("login", err)
	}
	p, err := s.get(ctx, d.url(NewsPath))
	if err != nil {
		return "", domain.PublishError("news form", err)
	}

	fill := func(p *page) (*form, error) {
		f, err := p.form(submitButton)
		if err != nil {
			return nil, err
		}
		f.values.Set("title", title)
		f.values.Set(bodyFieldName(p), html)
		return f, nil
	}

	for j, img := range images {
		f, err := fill(p)
		if err != nil {
			return "", domain.PublishError("news form", err)
		}
		if err := f.press(p, fmt.Sprintf("#edit-field-image-und-%d-upload-button", j)); err != nil {
			return "", domain.PublishError("news image", err)
		}
		p, err = s.submit(ctx, f, map[string]string{fmt.Sprintf("files[field_image_und_%d]", j): img})
		if err != nil {
			return "", domain.PublishError("news image", err)
		}
		if !p.has(fmt.Sprintf("#edit-field-image-und-%d-upload", j+1)) {
			return "", domain.PublishError("news image", fmt.Errorf("image %s was not attached", filepath.Base(img)))
		}
	}

	f, err := fill(p)
	if err != nil {
		return "", domain.PublishError("news form", err)
	}
	if err := f.press(p, submitButton); err != nil {
		return "", domain.PublishError("news form", err)
	}
	p, err = s.submit(ctx, f, nil)
	if err != nil {
		return "", domain.PublishError("news submit", err)
	}
	p, err = s.waitTitleWithout(ctx, p, creatingTitle)
	if err != nil {
		return "", domain.PublishError("news submit", err)
	}
	d.logger.InfoContext(ctx, "news published", "url", p.url.String(), "images", len(images))
	return p.url.String(), nil
}

func bodyFieldName(p *page) string {
	if name, ok := p.doc.Find(bodySelector).First().Attr("name"); ok {
		return name
	}
	return bodyField
}

// editBody rewrites the body of an existing node and returns the URL the
// site shows after saving.
func (s *session) editBody(ctx context.Context, path, stillEditing string, rewrite func(old string) string) (string, error) {
	p, err := s.get(ctx, s.d.url(path))
	if err != nil {
		return "", err
	}
	f, err := p.form(submitButton)
	if err != nil {
		return "", err
	}
	old := p.doc.Find(bodySelector).First().Text()
	f.values.Set(bodyFieldName(p), rewrite(old))
	if err := f.press(p, submitButton); err != nil {
		return "", err
	}
	p, err = s.submit(ctx, f, nil)
	if err != nil {
		return "", err
	}
	p, err = s.waitTitleWithout(ctx, p, stillEditing)
	if err != nil {
		return "", err
	}
	return p.url.String(), nil
}

// login opens a new cookie session. Only this step is retried.
func (d *Drupal) login(ctx context.Context) (*session, error) {
	if d.cfg.Username == "" || d.cfg.Password == "" {
		return nil, errors.New("no site username or password provided")
	}

	var errs []error
	for attempt := 1; attempt <= d.cfg.LoginAttempts; attempt++ {
		s, err := d.tryLogin(ctx)
		if err == nil {
			return s, nil
		}
		d.logger.WarnContext(ctx, "login attempt failed", "attempt", attempt, "error", err)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("login failed after %d attempts: %w", len(errs), errors.Join(errs...))
}

func (d *Drupal) tryLogin(ctx context.Context) (*session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	s := &session{d: d, http: &http.Client{Jar: jar, Timeout: d.cfg.HTTPTimeout}}

	p, err := s.get(ctx, d.url(LoginPath))
	if err != nil {
		return nil, err
	}
	f, err := p.form(`input[name="pass"]`)
	if err != nil {
		return nil, err
	}
	f.values.Set("name", d.cfg.Username)
	f.values.Set("pass", d.cfg.Password)
	if p.has(submitButton) {
		if err := f.press(p, submitButton); err != nil {
			return nil, err
		}
	}
	p, err = s.submit(ctx, f, nil)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(p.title(), d.cfg.Username) {
		return nil, fmt.Errorf("login rejected, page title %q", p.title())
	}
	return s, nil
}

// upload sends one file through the file browser and waits until it is listed.
func (s *session) upload(ctx context.Context, path string) error {
	p, err := s.get(ctx, s.d.url(FileBrowserPath))
	if err != nil {
		return err
	}
	f, err := p.form(`input[name="files[imce]"]`)
	if err != nil {
		return err
	}
	if err := f.press(p, "#edit-upload"); err != nil {
		return err
	}
	p, err = s.submit(ctx, f, map[string]string{"files[imce]": path})
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	return s.d.waitFor(ctx, func(ctx context.Context) (bool, error) {
		if p.hasID(name) {
			return true, nil
		}
		next, err := s.get(ctx, s.d.url(FileBrowserPath))
		if err != nil {
			return false, err
		}
		p = next
		return false, nil
	})
}

// waitTitleWithout reloads p until its title no longer contains fragment.
func (s *session) waitTitleWithout(ctx context.Context, p *page, fragment string) (*page, error) {
	err := s.d.waitFor(ctx, func(ctx context.Context) (bool, error) {
		if !strings.Contains(p.title(), fragment) {
			return true, nil
		}
		next, err := s.get(ctx, p.url.String())
		if err != nil {
			return false, err
		}
		p = next
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("page still %q: %w", fragment, err)
	}
	return p, nil
}

// waitFor polls cond until it holds or the configured wait runs out.
func (d *Drupal) waitFor(ctx context.Context, cond func(context.Context) (bool, error)) error {
	deadline := time.Now().Add(d.cfg.WaitTimeout)
	var lastErr error
	for {
		ok, err := cond(ctx)
		if ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		if time.Now().After(deadline) {
			if lastErr != nil {
				return fmt.Errorf("timed out after %s: %w", d.cfg.WaitTimeout, lastErr)
			}
			return fmt.Errorf("timed out after %s", d.cfg.WaitTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.cfg.PollInterval):
		}
	}
}
