package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"errorcollector/src/config"
	"errorcollector/src/connectors"
	"errorcollector/src/metrics"
	"errorcollector/src/model"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

var issueIDPattern = regexp.MustCompile(`/issues/(\d+)`)

type eventFetcher interface {
	Configured() bool
	FetchLatestEvent(ctx context.Context, issueID string) (*connectors.GlitchTipEvent, error)
}

// glitchTipPayload is the Slack/Microsoft Teams compatible format GlitchTip
// sends, which differs from the Sentry webhook formats entirely.
type glitchTipPayload struct {
	Alias       string `json:"alias"`
	Attachments []struct {
		Title     string `json:"title"`
		TitleLink string `json:"title_link"`
		Fields    []struct {
			Title string `json:"title"`
			Value string `json:"value"`
		} `json:"fields"`
	} `json:"attachments"`
}

// GlitchTipWebhookHandler returns the handler for POST /glitchtip/webhook.
// The webhook body only carries a title, a project field and an issue link;
// when API access is configured the stored record is enriched with the
// stacktrace of the issue's latest event.
func GlitchTipWebhookHandler(settings config.Settings, repo errorCreator, hub eventPublisher, api eventFetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			metrics.CountOutcome("glitchtip", metrics.OutcomeMalformed)
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		var payload glitchTipPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			logger.WithError(err).Warn("rejected glitchtip webhook with invalid JSON")
			metrics.CountOutcome("glitchtip", metrics.OutcomeMalformed)
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		if payload.Alias == "" || len(payload.Attachments) == 0 {
			metrics.CountOutcome("glitchtip", metrics.OutcomeMalformed)
			http.Error(w, "payload does not match the GlitchTip webhook format", http.StatusBadRequest)
			return
		}

		attachment := payload.Attachments[0]
		record := &model.ErrorEvent{
			Message:        attachment.Title,
			IssuePermalink: attachment.TitleLink,
		}

		for _, field := range attachment.Fields {
			if strings.EqualFold(field.Title, "project") {
				record.Project = field.Value
			}
		}

		// GlitchTip titles read "ExceptionType: value".
		if parts := strings.SplitN(attachment.Title, ":", 2); len(parts) == 2 {
			record.ExceptionType = strings.TrimSpace(parts[0])
			record.ExceptionValue = strings.TrimSpace(parts[1])
		}

		if m := issueIDPattern.FindStringSubmatch(attachment.TitleLink); m != nil {
			record.IssueID = m[1]
		}

		// Each delivery is a distinct occurrence, so the event id is
		// synthesized rather than deduplicated.
		record.EventID = "glitchtip-" + uuid.NewString()

		if rejected := applyProjectFilter(w, settings, "glitchtip", record.Project); rejected {
			return
		}

		if record.IssueID != "" && api != nil && api.Configured() {
			if event, err := api.FetchLatestEvent(r.Context(), record.IssueID); err != nil {
				logger.WithError(err).WithField("issueID", record.IssueID).Warn("glitchtip enrichment failed")
			} else {
				record.Stacktrace = event.Stacktrace()
				if event.EventID != "" {
					record.EventID = event.EventID
				}
			}
		}

		record.RawPayload = string(body)
		record.ReceivedAt = time.Now().UTC()

		if err := repo.Create(r.Context(), record); err != nil {
			logger.WithError(err).WithField("bodySize", len(body)).Error("failed to persist glitchtip event")
			metrics.CountOutcome("glitchtip", metrics.OutcomeStorageError)
			http.Error(w, "failed to store error event", http.StatusInternalServerError)
			return
		}

		hub.Publish(*record)
		metrics.CountOutcome("glitchtip", metrics.OutcomeStored)
		metrics.StoredErrors.WithLabelValues(record.Project).Inc()

		respondJSON(w, http.StatusOK, webhookResponse{Status: "stored", ID: record.ID, EventID: record.EventID})
	}
}
