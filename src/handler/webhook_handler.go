package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"errorcollector/src/config"
	"errorcollector/src/metrics"
	"errorcollector/src/model"
	"errorcollector/src/webhook"

	logger "github.com/sirupsen/logrus"
)

// maxBodyBytes caps inbound webhook bodies. Sentry payloads with full
// stacktraces stay well under this.
const maxBodyBytes = 1 << 20

type errorCreator interface {
	Create(ctx context.Context, ev *model.ErrorEvent) error
}

type eventPublisher interface {
	Publish(ev model.ErrorEvent)
}

type webhookResponse struct {
	Status  string `json:"status"`
	ID      uint   `json:"id,omitempty"`
	EventID string `json:"event_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// SentryWebhookHandler returns the handler for POST /sentry/webhook. It
// accepts both the legacy flat payload format and the nested issue/event
// format, normalizes either into one record, applies the project filter and
// persists the result.
//
// Decision sequence: malformed JSON -> 400, filtered action -> 200 ignored,
// project mismatch under an active filter -> 403, storage failure -> 500,
// otherwise 200 stored with the assigned id. Webhook senders must receive
// 2xx for ignored events, otherwise they retry forever.
func SentryWebhookHandler(settings config.Settings, repo errorCreator, hub eventPublisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			logger.WithError(err).Error("failed to read webhook body")
			metrics.CountOutcome("sentry", metrics.OutcomeMalformed)
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			logger.WithError(err).WithField("bodySize", len(body)).Warn("rejected webhook with invalid JSON")
			metrics.CountOutcome("sentry", metrics.OutcomeMalformed)
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		result := webhook.Normalize(payload)
		logger.WithFields(map[string]interface{}{
			"shape": result.Shape.String(),
			"skip":  result.Skip,
		}).Info("Received sentry webhook")

		if result.Skip {
			metrics.CountOutcome("sentry", metrics.OutcomeIgnored)
			respondJSON(w, http.StatusOK, webhookResponse{Status: "ignored", Reason: result.SkipReason})
			return
		}

		record := result.Record
		if rejected := applyProjectFilter(w, settings, "sentry", record.Project); rejected {
			return
		}

		record.RawPayload = string(body)
		record.ReceivedAt = time.Now().UTC()

		if err := repo.Create(r.Context(), record); err != nil {
			logger.WithError(err).WithFields(map[string]interface{}{
				"project":  record.Project,
				"eventID":  record.EventID,
				"bodySize": len(body),
			}).Error("failed to persist error event")
			metrics.CountOutcome("sentry", metrics.OutcomeStorageError)
			http.Error(w, "failed to store error event", http.StatusInternalServerError)
			return
		}

		hub.Publish(*record)
		metrics.CountOutcome("sentry", metrics.OutcomeStored)
		metrics.StoredErrors.WithLabelValues(record.Project).Inc()

		logger.WithFields(map[string]interface{}{
			"id":      record.ID,
			"project": record.Project,
			"eventID": record.EventID,
		}).Info("Stored error event")

		respondJSON(w, http.StatusOK, webhookResponse{Status: "stored", ID: record.ID, EventID: record.EventID})
	}
}

// applyProjectFilter writes a 403 and returns true when project filtering is
// enabled and the record names a different project. Records without a
// project are never rejected on this basis.
func applyProjectFilter(w http.ResponseWriter, settings config.Settings, source, project string) bool {
	if !settings.FilterByProject || settings.Project == "" {
		return false
	}
	if project == "" || project == settings.Project {
		return false
	}

	logger.WithFields(map[string]interface{}{
		"project": project,
		"allowed": settings.Project,
	}).Warn("rejected webhook from non-allowed project")
	metrics.CountOutcome(source, metrics.OutcomeRejected)
	respondJSON(w, http.StatusForbidden, webhookResponse{
		Status: "rejected",
		Reason: "project is not in the allow-list",
	})
	return true
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
