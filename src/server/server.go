package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"errorcollector/src/config"
	"errorcollector/src/connectors"
	"errorcollector/src/database"
	"errorcollector/src/handler"
	"errorcollector/src/repository"
	"errorcollector/src/stream"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"
)

// StartServer wires the routes and blocks until SIGINT/SIGTERM, then drains
// connections for up to five seconds.
func StartServer(port string, settings config.Settings) {
	r := NewRouter(settings)

	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}

// NewRouter builds the chi router with all application routes attached.
func NewRouter(settings config.Settings) *chi.Mux {
	hub := stream.NewHub()
	repo := repository.NewErrorRepository()
	glitchtip := connectors.NewGlitchTipClient(settings.GlitchTipBaseURL, settings.GlitchTipAPIToken)
	databaseURL := database.GetConfig().DatabaseURL

	r := chi.NewRouter()

	// Webhook ingestion
	r.Post("/sentry/webhook", handler.SentryWebhookHandler(settings, repo, hub))
	r.Post("/glitchtip/webhook", handler.GlitchTipWebhookHandler(settings, repo, hub, glitchtip))

	// Read API
	r.Get("/errors/latest", handler.LatestErrorHandler(repo))
	r.Get("/errors", handler.ListErrorsHandler(repo))
	r.Get("/errors/stream", stream.WebSocketHandler(hub))

	// Service info
	r.Get("/", handler.RootHandler(settings))
	r.Get("/config", handler.ConfigHandler(settings, databaseURL))
	r.Get("/health", handler.HealthHandler())
	r.Handle("/metrics", promhttp.Handler())

	return r
}
