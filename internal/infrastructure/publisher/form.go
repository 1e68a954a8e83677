package publisher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// page is a fetched HTML page together with its final URL.
type page struct {
	url *url.URL
	doc *goquery.Document
}

func (p *page) title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

func (p *page) has(selector string) bool {
	return p.doc.Find(selector).Length() > 0
}

func (p *page) hasID(id string) bool {
	found := false
	p.doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr("id"); v == id {
			found = true
		}
		return !found
	})
	return found
}

// form holds the current values of an HTML form ready to be submitted.
type form struct {
	action    string
	multipart bool
	values    url.Values
}

// form returns the form that contains marker, with every successful
// control's current value. Buttons are not included; see press.
func (p *page) form(marker string) (*form, error) {
	sel := p.doc.Find(marker).First().Closest("form")
	if sel.Length() == 0 {
		return nil, fmt.Errorf("no form with %s on %s", marker, p.url)
	}

	action := p.url.String()
	if raw, ok := sel.Attr("action"); ok && raw != "" {
		ref, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("form action %q: %w", raw, err)
		}
		action = p.url.ResolveReference(ref).String()
	}
	enctype, _ := sel.Attr("enctype")

	f := &form{
		action:    action,
		multipart: strings.EqualFold(enctype, "multipart/form-data"),
		values:    url.Values{},
	}

	sel.Find("input[name]").Each(func(_ int, in *goquery.Selection) {
		name, _ := in.Attr("name")
		value, _ := in.Attr("value")
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "submit", "button", "image", "reset", "file":
		case "checkbox", "radio":
			if _, checked := in.Attr("checked"); checked {
				f.values.Add(name, value)
			}
		default:
			f.values.Add(name, value)
		}
	})
	sel.Find("textarea[name]").Each(func(_ int, ta *goquery.Selection) {
		f.values.Add(ta.AttrOr("name", ""), ta.Text())
	})
	sel.Find("select[name]").Each(func(_ int, s *goquery.Selection) {
		opt := s.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = s.Find("option").First()
		}
		if opt.Length() > 0 {
			f.values.Add(s.AttrOr("name", ""), opt.AttrOr("value", strings.TrimSpace(opt.Text())))
		}
	})
	return f, nil
}

// press adds the name and value of the button matched by selector, as a
// browser does for the clicked submit button.
func (f *form) press(p *page, selector string) error {
	btn := p.doc.Find(selector).First()
	name, ok := btn.Attr("name")
	if !ok {
		return fmt.Errorf("no button %s on %s", selector, p.url)
	}
	f.values.Set(name, btn.AttrOr("value", ""))
	return nil
}

// encode renders the form body. Files map field names to local paths and
// force a multipart body.
func (f *form) encode(files map[string]string) (io.Reader, string, error) {
	if !f.multipart && len(files) == 0 {
		return strings.NewReader(f.values.Encode()), "application/x-www-form-urlencoded", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, values := range f.values {
		for _, v := range values {
			if err := w.WriteField(name, v); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", name, err)
			}
		}
	}
	for field, path := range files {
		if err := attach(w, field, path); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func attach(w *multipart.Writer, field, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file %s: %w", field, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy upload %s: %w", path, err)
	}
	return nil
}

func readPage(resp *http.Response) (*page, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("site returned %s for %s", resp.Status, resp.Request.URL)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &page{url: resp.Request.URL, doc: doc}, nil
}

func (s *session) get(ctx context.Context, target string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	return readPage(resp)
}

func (s *session) submit(ctx context.Context, f *form, files map[string]string) (*page, error) {
	body, contentType, err := f.encode(files)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.action, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit form: %w", err)
	}
	return readPage(resp)
}
