// Package server is the HTTP front door: Telegram webhook, health and
// metrics endpoints, and the Connect turn API, served by one gin engine
// over cleartext HTTP/2.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/pricebook/internal/telegram"
)

// SecretHeader carries the webhook secret registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const rootText = "pricebook: grocery price bot. Talk to it on Telegram."

// UpdateSink accepts inbound Telegram updates. Implemented by *telegram.Dispatcher.
type UpdateSink interface {
	SubmitUpdate(source string, u telegram.Update) error
}

// Route mounts a plain http.Handler, such as a Connect procedure.
type Route struct {
	Path    string
	Handler http.Handler
}

type Options struct {
	Updates       UpdateSink
	WebhookSecret string
	Gatherer      prometheus.Gatherer
	Routes        []Route
	Logger        *slog.Logger
}

type Server struct {
	engine  *gin.Engine
	updates UpdateSink
	secret  string
	logger  *slog.Logger
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(nil); err != nil {
		logger.Warn("Failed to reset trusted proxies", "error", err)
	}
	engine.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		engine:  engine,
		updates: opts.Updates,
		secret:  opts.WebhookSecret,
		logger:  logger,
	}

	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, rootText)
	})
	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if opts.Updates != nil {
		engine.POST("/webhook", s.webhook)
	}
	if opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/", cors())
	for _, r := range opts.Routes {
		api.Any(r.Path, gin.WrapH(r.Handler))
	}

	return s
}

// Handler returns the engine wrapped for h2c, which Connect needs for
// HTTP/2 without TLS.
func (s *Server) Handler() http.Handler {
	return h2c.NewHandler(s.engine, &http2.Server{})
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// webhook acknowledges an update once it is queued. Processing is
// asynchronous, so turn failures never surface here.
func (s *Server) webhook(c *gin.Context) {
	if s.secret != "" {
		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			c.String(http.StatusUnauthorized, "unauthorized")
			return
		}
	}

	var u telegram.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		s.logger.Warn("Webhook body rejected", "error", err)
		c.String(http.StatusBadRequest, "malformed update")
		return
	}

	err := s.updates.SubmitUpdate("webhook", u)
	switch {
	case err == nil, errors.Is(err, telegram.ErrMalformedUpdate):
		// Unusable updates are acknowledged so Telegram does not redeliver them.
		c.String(http.StatusOK, "OK")
	case errors.Is(err, telegram.ErrQueueFull):
		c.String(http.StatusTooManyRequests, "busy")
	case errors.Is(err, telegram.ErrDispatcherClosed):
		c.String(http.StatusServiceUnavailable, "shutting down")
	default:
		s.logger.Error("Webhook submit failed", "update_id", u.UpdateID, "error", err)
		c.String(http.StatusInternalServerError, "error")
	}
}
