package telegram

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"AutoPublisher/pkg/logger"
)

// SecretHeader carries the secret token Telegram echoes on every webhook call.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Webhook receives updates over HTTP. Updates are dispatched one at a time.
type Webhook struct {
	listen     string
	path       string
	secret     string
	dispatcher *Dispatcher
	logger     *slog.Logger
	engine     *gin.Engine
	queue      chan Update
}

// NewWebhook builds the gin router for path.
func NewWebhook(listen, path, secret string, dispatcher *Dispatcher, base *slog.Logger) *Webhook {
	if path == "" {
		path = "/telegram/webhook"
	}
	if base == nil {
		base = slog.New(slog.DiscardHandler)
	}
	w := &Webhook{
		listen:     listen,
		path:       path,
		secret:     secret,
		dispatcher: dispatcher,
		logger:     base.With("component", "webhook"),
		queue:      make(chan Update, 64),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST(path, w.receive)
	w.engine = r
	return w
}

// Handler exposes the router for tests and custom servers.
func (w *Webhook) Handler() http.Handler { return w.engine }

func (w *Webhook) receive(c *gin.Context) {
	if w.secret != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader(SecretHeader)), []byte(w.secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad secret token"})
		return
	}
	var upd Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	select {
	case w.queue <- upd:
		c.Status(http.StatusOK)
	default:
		w.logger.Warn("update queue full", "update_id", upd.UpdateID)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "busy"})
	}
}

// Run serves HTTP and dispatches queued updates until ctx is cancelled.
func (w *Webhook) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              w.listen,
		Handler:           w.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.New("webhook", w.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		w.logger.Info("webhook listening", "addr", w.listen, "path", w.path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	for {
		select {
		case upd := <-w.queue:
			w.dispatcher.Dispatch(ctx, upd)
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}
