package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"errorcollector/src/model"

	"github.com/stretchr/testify/assert"
)

type mockErrorReader struct {
	latest *model.ErrorEvent
	events []model.ErrorEvent
	err    error
	limit  int
}

func (m *mockErrorReader) Latest(ctx context.Context) (*model.ErrorEvent, error) {
	return m.latest, m.err
}

func (m *mockErrorReader) List(ctx context.Context, limit int) ([]model.ErrorEvent, error) {
	m.limit = limit
	return m.events, m.err
}

func TestLatestErrorHandler_Empty(t *testing.T) {
	handler := LatestErrorHandler(&mockErrorReader{})

	req := httptest.NewRequest(http.MethodGet, "/errors/latest", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("empty store must not be an error, got status %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp["error"] != "not_found" {
		t.Fatalf("expected not_found body, got %v", resp)
	}
}

func TestLatestErrorHandler_ReturnsRecord(t *testing.T) {
	latest := &model.ErrorEvent{
		ID:         7,
		EventID:    "e7",
		Project:    "p",
		Message:    "boom",
		ReceivedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	handler := LatestErrorHandler(&mockErrorReader{latest: latest})

	req := httptest.NewRequest(http.MethodGet, "/errors/latest", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp model.ErrorEvent
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	assert.Equal(t, latest.ID, resp.ID)
	assert.Equal(t, latest.Message, resp.Message)
}

func TestLatestErrorHandler_StorageError(t *testing.T) {
	handler := LatestErrorHandler(&mockErrorReader{err: assert.AnError})

	req := httptest.NewRequest(http.MethodGet, "/errors/latest", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestListErrorsHandler_Limits(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		reader := &mockErrorReader{}
		handler := ListErrorsHandler(reader)

		req := httptest.NewRequest(http.MethodGet, "/errors", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		if reader.limit != defaultListLimit {
			t.Fatalf("limit = %d, want %d", reader.limit, defaultListLimit)
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		reader := &mockErrorReader{}
		handler := ListErrorsHandler(reader)

		req := httptest.NewRequest(http.MethodGet, "/errors?limit=5", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if reader.limit != 5 {
			t.Fatalf("limit = %d, want 5", reader.limit)
		}
	})

	t.Run("limit is capped", func(t *testing.T) {
		reader := &mockErrorReader{}
		handler := ListErrorsHandler(reader)

		req := httptest.NewRequest(http.MethodGet, "/errors?limit=99999", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if reader.limit != maxListLimit {
			t.Fatalf("limit = %d, want %d", reader.limit, maxListLimit)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		handler := ListErrorsHandler(&mockErrorReader{})

		req := httptest.NewRequest(http.MethodGet, "/errors?limit=abc", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestListErrorsHandler_EmptyListIsJSONArray(t *testing.T) {
	handler := ListErrorsHandler(&mockErrorReader{})

	req := httptest.NewRequest(http.MethodGet, "/errors", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	body := rr.Body.String()
	if body == "null\n" {
		t.Fatal("empty result must encode as [] rather than null")
	}

	var resp []model.ErrorEvent
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(resp) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(resp))
	}
}
