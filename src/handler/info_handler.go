package handler

import (
	"net/http"

	"errorcollector/src/config"
	"errorcollector/src/database"
)

// RootHandler serves a small service description with the endpoint index.
func RootHandler(settings config.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "Error Collector API",
			"endpoints": map[string]string{
				"sentry_webhook":    "/sentry/webhook",
				"glitchtip_webhook": "/glitchtip/webhook",
				"latest_error":      "/errors/latest",
				"all_errors":        "/errors",
				"error_stream":      "/errors/stream",
				"config":            "/config",
				"health":            "/health",
				"metrics":           "/metrics",
			},
			"filter_by_project": settings.FilterByProject,
		})
	}
}

// ConfigHandler serves the non-secret configuration. Credentials, tokens and
// connection strings never appear here; only their presence is reported.
func ConfigHandler(settings config.Settings, databaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"sentry": map[string]any{
				"project":           settings.Project,
				"organization":      settings.Organization,
				"filter_by_project": settings.FilterByProject,
				"dsn_configured":    settings.SentryDSN != "",
			},
			"glitchtip": map[string]any{
				"api_configured": settings.GlitchTipAPIToken != "",
			},
			"database": map[string]any{
				"driver": database.DriverName(databaseURL),
			},
		})
	}
}

// HealthHandler is a liveness probe only; it checks no dependencies.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
