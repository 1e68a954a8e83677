package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWebhookChecksSecretAndQueuesUpdates(t *testing.T) {
	t.Parallel()

	d, _, _, _ := newTestDispatcher()
	w := NewWebhook(":0", "/hook", "s3cret", d, nil)

	body := `{"update_id":3,"message":{"message_id":1,"from":{"id":7},"chat":{"id":7},"text":"/start"}}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, w.queue)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, "s3cret")
	w.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	upd := <-w.queue
	require.Equal(t, int64(3), upd.UpdateID)
	require.Equal(t, "/start", upd.Message.Text)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader("{"))
	req.Header.Set(SecretHeader, "s3cret")
	w.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHealth(t *testing.T) {
	t.Parallel()

	d, _, _, _ := newTestDispatcher()
	rec := httptest.NewRecorder()
	NewWebhook(":0", "", "", d, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
