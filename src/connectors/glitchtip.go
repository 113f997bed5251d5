package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"errorcollector/src/webhook"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultRetryCount     = 2
)

// GlitchTipClient reads event details from the GlitchTip REST API. GlitchTip
// webhooks only carry a title and an issue link; the stacktrace has to be
// fetched separately.
type GlitchTipClient struct {
	baseURL  string
	apiToken string
	http     *resty.Client
}

func NewGlitchTipClient(baseURL, apiToken string) *GlitchTipClient {
	baseURL = strings.TrimRight(baseURL, "/")

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultRequestTimeout).
		SetRetryCount(defaultRetryCount).
		SetHeader("Content-Type", "application/json")

	if apiToken != "" {
		client.SetAuthToken(apiToken)
	}

	return &GlitchTipClient{
		baseURL:  baseURL,
		apiToken: apiToken,
		http:     client,
	}
}

// Configured reports whether the client has everything it needs to talk to
// the API. Enrichment is silently skipped otherwise.
func (c *GlitchTipClient) Configured() bool {
	return c.baseURL != "" && c.apiToken != ""
}

// GlitchTipEvent is the relevant subset of the GlitchTip latest-event
// response. Entry payloads vary by type, so their data stays raw until a
// consumer asks for it.
type GlitchTipEvent struct {
	EventID string           `json:"eventID"`
	Title   string           `json:"title"`
	Entries []GlitchTipEntry `json:"entries"`
}

type GlitchTipEntry struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// FetchLatestEvent retrieves the most recent event recorded for an issue.
func (c *GlitchTipClient) FetchLatestEvent(ctx context.Context, issueID string) (*GlitchTipEvent, error) {
	var event GlitchTipEvent

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&event).
		Get(fmt.Sprintf("/api/0/issues/%s/events/latest/", issueID))
	if err != nil {
		return nil, fmt.Errorf("fetch latest event for issue %s: %w", issueID, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("fetch latest event for issue %s: unexpected status %d", issueID, resp.StatusCode())
	}

	logger.WithField("issueID", issueID).Info("Fetched GlitchTip latest event")
	return &event, nil
}

// Stacktrace extracts the first exception stacktrace from the event entries
// and renders it one frame per line. Returns "" when no stacktrace exists.
func (e *GlitchTipEvent) Stacktrace() string {
	for _, entry := range e.Entries {
		if entry.Type != "exception" {
			continue
		}

		var data struct {
			Values []map[string]any `json:"values"`
		}
		if err := json.Unmarshal(entry.Data, &data); err != nil || len(data.Values) == 0 {
			continue
		}

		if st, ok := data.Values[0]["stacktrace"].(map[string]any); ok {
			if frames, ok := st["frames"].([]any); ok {
				return webhook.RenderFrames(frames)
			}
		}
	}
	return ""
}
