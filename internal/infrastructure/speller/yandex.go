// Package speller corrects spelling through the Yandex Speller web service.
package speller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"AutoPublisher/internal/ports"
)

// DefaultEndpoint is the public checkText method of Yandex Speller.
const DefaultEndpoint = "https://speller.yandex.net/services/spellservice.json/checkText"

// Yandex sends one line per request and applies the first suggestion of
// every reported mistake.
type Yandex struct {
	endpoint string
	http     *http.Client
}

var _ ports.Speller = (*Yandex)(nil)

// NewYandex creates a client; an empty endpoint means DefaultEndpoint.
func NewYandex(endpoint string, timeout time.Duration) *Yandex {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Yandex{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type mistake struct {
	Pos         int      `json:"pos"`
	Len         int      `json:"len"`
	Word        string   `json:"word"`
	Suggestions []string `json:"s"`
}

// Spell returns text with the suggested fixes applied.
func (y *Yandex) Spell(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	var mistakes []mistake
	if err := y.post(ctx, text, &mistakes); err != nil {
		return "", err
	}
	return applyFixes(text, mistakes), nil
}

func (y *Yandex) post(ctx context.Context, text string, v any) error {
	form := url.Values{}
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := y.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// applyFixes replaces mistakes from the end of the line so earlier
// positions stay valid. Positions are in characters, not bytes.
func applyFixes(text string, mistakes []mistake) string {
	runes := []rune(text)
	sort.SliceStable(mistakes, func(i, j int) bool { return mistakes[i].Pos > mistakes[j].Pos })

	end := len(runes) + 1
	for _, m := range mistakes {
		if len(m.Suggestions) == 0 || m.Pos < 0 || m.Len < 0 || m.Pos+m.Len > len(runes) || m.Pos+m.Len > end {
			continue
		}
		fixed := make([]rune, 0, len(runes)-m.Len+len(m.Suggestions[0]))
		fixed = append(fixed, runes[:m.Pos]...)
		fixed = append(fixed, []rune(m.Suggestions[0])...)
		fixed = append(fixed, runes[m.Pos+m.Len:]...)
		runes = fixed
		end = m.Pos
	}
	return string(runes)
}
