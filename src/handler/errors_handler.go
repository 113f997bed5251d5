package handler

import (
	"context"
	"net/http"
	"strconv"

	"errorcollector/src/model"

	logger "github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type errorReader interface {
	Latest(ctx context.Context) (*model.ErrorEvent, error)
	List(ctx context.Context, limit int) ([]model.ErrorEvent, error)
}

// LatestErrorHandler serves GET /errors/latest. An empty table is not an
// error; it answers with an explicit not_found body.
func LatestErrorHandler(repo errorReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := repo.Latest(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to load latest error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if event == nil {
			respondJSON(w, http.StatusOK, map[string]string{"error": "not_found"})
			return
		}

		respondJSON(w, http.StatusOK, event)
	}
}

// ListErrorsHandler serves GET /errors, most recent first. The limit query
// parameter defaults to 100 and is capped at 500.
func ListErrorsHandler(repo errorReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultListLimit
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}

		events, err := repo.List(r.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("failed to list errors")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if events == nil {
			events = []model.ErrorEvent{}
		}
		respondJSON(w, http.StatusOK, events)
	}
}
