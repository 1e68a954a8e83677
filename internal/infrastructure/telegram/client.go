package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

const (
	// DefaultAPIURL is the public Bot API root.
	DefaultAPIURL = "https://api.telegram.org"
	// MessageLimit is the longest text Telegram accepts in one message.
	MessageLimit = 4096
)

// Client calls the Telegram Bot API with plain form posts.
type Client struct {
	apiURL   string
	botToken string
	client   *http.Client
}

var (
	_ ports.Messenger   = (*Client)(nil)
	_ ports.FileFetcher = (*Client)(nil)
)

// NewClient registers the bot token; an empty apiURL means DefaultAPIURL.
// The HTTP timeout must exceed the long-poll timeout.
func NewClient(apiURL, botToken string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiURL:   strings.TrimSuffix(apiURL, "/"),
		botToken: botToken,
		client:   &http.Client{Timeout: timeout},
	}
}

// Send posts reply to chatID. Long texts are split into several messages;
// buttons go with the last one.
func (c *Client) Send(ctx context.Context, chatID int64, reply domain.Reply) error {
	chunks := SplitText(reply.Text, MessageLimit)
	for i, chunk := range chunks {
		form := url.Values{}
		form.Set("chat_id", strconv.FormatInt(chatID, 10))
		form.Set("text", chunk)
		if i == len(chunks)-1 && len(reply.Buttons) > 0 {
			markup, err := keyboard(reply.Buttons)
			if err != nil {
				return err
			}
			form.Set("reply_markup", markup)
		}
		if err := c.call(ctx, "sendMessage", form, nil); err != nil {
			return err
		}
	}
	return nil
}

func keyboard(buttons []domain.Button) (string, error) {
	row := make([]inlineButton, len(buttons))
	for i, b := range buttons {
		row[i] = inlineButton{Text: b.Label, CallbackData: b.Data}
	}
	raw, err := json.Marshal(inlineKeyboard{InlineKeyboard: [][]inlineButton{row}})
	if err != nil {
		return "", fmt.Errorf("marshal keyboard: %w", err)
	}
	return string(raw), nil
}

// SplitText cuts text into pieces of at most limit characters. Empty text
// still yields one piece so a message with only buttons can be sent.
func SplitText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var out []string
	for len(runes) > 0 {
		n := min(limit, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

// AnswerCallback stops the button spinner in the client.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	form := url.Values{}
	form.Set("callback_query_id", callbackID)
	return c.call(ctx, "answerCallbackQuery", form, nil)
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	form := url.Values{}
	form.Set("offset", strconv.FormatInt(offset, 10))
	form.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	form.Set("allowed_updates", `["message","callback_query"]`)

	var updates []Update
	if err := c.call(ctx, "getUpdates", form, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SetWebhook points Telegram at publicURL; an empty URL removes the webhook.
func (c *Client) SetWebhook(ctx context.Context, publicURL, secret string) error {
	if publicURL == "" {
		return c.call(ctx, "deleteWebhook", url.Values{}, nil)
	}
	form := url.Values{}
	form.Set("url", publicURL)
	if secret != "" {
		form.Set("secret_token", secret)
	}
	return c.call(ctx, "setWebhook", form, nil)
}

// Download saves the uploaded file fileID to dst.
func (c *Client) Download(ctx context.Context, fileID, dst string) error {
	form := url.Values{}
	form.Set("file_id", fileID)
	var file File
	if err := c.call(ctx, "getFile", form, &file); err != nil {
		return err
	}
	if file.FilePath == "" {
		return fmt.Errorf("getFile %s: empty file path", fileID)
	}

	endpoint := fmt.Sprintf("%s/file/bot%s/%s", c.apiURL, c.botToken, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file: telegram error: %s", resp.Status)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, form url.Values, result any) error {
	if c.botToken == "" || c.client == nil {
		return fmt.Errorf("telegram client misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", method, err)
	}
	defer resp.Body.Close()

	var body apiResponse[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%s: telegram error: %s", method, resp.Status)
	}
	if !body.OK {
		return fmt.Errorf("%s: telegram error %d: %s", method, body.ErrorCode, body.Description)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body.Result, result); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}
