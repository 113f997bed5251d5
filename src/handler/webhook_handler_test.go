package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"errorcollector/src/config"
	"errorcollector/src/model"

	"github.com/stretchr/testify/assert"
)

type mockErrorStore struct {
	err     error
	created []*model.ErrorEvent
}

func (m *mockErrorStore) Create(ctx context.Context, ev *model.ErrorEvent) error {
	if m.err != nil {
		return m.err
	}
	ev.ID = uint(len(m.created) + 1)
	m.created = append(m.created, ev)
	return nil
}

type mockPublisher struct {
	published []model.ErrorEvent
}

func (m *mockPublisher) Publish(ev model.ErrorEvent) {
	m.published = append(m.published, ev)
}

func postWebhook(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/sentry/webhook", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestSentryWebhookHandler_MalformedJSON(t *testing.T) {
	store := &mockErrorStore{}
	handler := SentryWebhookHandler(config.Settings{}, store, &mockPublisher{})

	rr := postWebhook(handler, "not json")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if len(store.created) != 0 {
		t.Fatalf("malformed payload must not be persisted")
	}
}

func TestSentryWebhookHandler_IgnoredAction(t *testing.T) {
	store := &mockErrorStore{}
	hub := &mockPublisher{}
	handler := SentryWebhookHandler(config.Settings{}, store, hub)

	rr := postWebhook(handler, `{"action":"resolved","data":{"issue":{"title":"t"}}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for ignored action, got %d", rr.Code)
	}

	var resp webhookResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Status != "ignored" {
		t.Fatalf("status = %q, want ignored", resp.Status)
	}
	if len(store.created) != 0 || len(hub.published) != 0 {
		t.Fatal("ignored events must not be persisted or published")
	}
}

func TestSentryWebhookHandler_ProjectFilter(t *testing.T) {
	payload := `{"event_id":"e1","project":"other","message":"m"}`

	t.Run("rejects when filtering enabled", func(t *testing.T) {
		store := &mockErrorStore{}
		settings := config.Settings{FilterByProject: true, Project: "my-project"}
		handler := SentryWebhookHandler(settings, store, &mockPublisher{})

		rr := postWebhook(handler, payload)

		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rr.Code)
		}
		if len(store.created) != 0 {
			t.Fatal("rejected events must not be persisted")
		}
	})

	t.Run("stores when filtering disabled", func(t *testing.T) {
		store := &mockErrorStore{}
		settings := config.Settings{FilterByProject: false, Project: "my-project"}
		handler := SentryWebhookHandler(settings, store, &mockPublisher{})

		rr := postWebhook(handler, payload)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		if len(store.created) != 1 {
			t.Fatal("expected one persisted record")
		}
	})

	t.Run("matching project passes the filter", func(t *testing.T) {
		store := &mockErrorStore{}
		settings := config.Settings{FilterByProject: true, Project: "other"}
		handler := SentryWebhookHandler(settings, store, &mockPublisher{})

		rr := postWebhook(handler, payload)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("records without a project are never rejected", func(t *testing.T) {
		store := &mockErrorStore{}
		settings := config.Settings{FilterByProject: true, Project: "my-project"}
		handler := SentryWebhookHandler(settings, store, &mockPublisher{})

		rr := postWebhook(handler, `{"message":"no project here"}`)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})
}

func TestSentryWebhookHandler_StoresLegacyPayload(t *testing.T) {
	body := `{"event_id":"e1","project":"p1","message":"m","exception":{"type":"T","value":"V"}}`
	store := &mockErrorStore{}
	hub := &mockPublisher{}
	handler := SentryWebhookHandler(config.Settings{}, store, hub)

	rr := postWebhook(handler, body)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(store.created))
	}
	rec := store.created[0]

	assert.Equal(t, "e1", rec.EventID)
	assert.Equal(t, "p1", rec.Project)
	assert.Equal(t, "m", rec.Message)
	assert.Equal(t, "T", rec.ExceptionType)
	assert.Equal(t, "V", rec.ExceptionValue)
	assert.Equal(t, body, rec.RawPayload, "raw payload must be the exact bytes received")
	assert.False(t, rec.ReceivedAt.IsZero(), "received_at must be server-assigned")

	var resp webhookResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Status != "stored" || resp.ID != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if len(hub.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(hub.published))
	}
}

func TestSentryWebhookHandler_StorageError(t *testing.T) {
	store := &mockErrorStore{err: assert.AnError}
	hub := &mockPublisher{}
	handler := SentryWebhookHandler(config.Settings{}, store, hub)

	rr := postWebhook(handler, `{"message":"m"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if len(hub.published) != 0 {
		t.Fatal("failed stores must not be published")
	}
}

func TestSentryWebhookHandler_NestedRoundTrip(t *testing.T) {
	body := `{"action":"created","data":{"project":{"slug":"p"},"event":{"event_id":"e9","title":"boom happened","exceptions":[{"type":"ValueError","value":"boom"}]}}}`
	store := &mockErrorStore{}
	handler := SentryWebhookHandler(config.Settings{}, store, &mockPublisher{})

	rr := postWebhook(handler, body)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	rec := store.created[0]
	if rec.ExceptionType != "ValueError" || rec.ExceptionValue != "boom" {
		t.Fatalf("exception = %q/%q, want ValueError/boom", rec.ExceptionType, rec.ExceptionValue)
	}
}
