package errors

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body.Error
}

func TestRenderHelpers_StatusAndBody(t *testing.T) {
	cases := []struct {
		name   string
		render func(rec *httptest.ResponseRecorder)
		status int
	}{
		{"bad request", func(rec *httptest.ResponseRecorder) {
			RenderBadRequest(rec, httptest.NewRequest("GET", "/x", nil), "bad input")
		}, 400},
		{"not found", func(rec *httptest.ResponseRecorder) {
			RenderNotFound(rec, httptest.NewRequest("GET", "/x", nil), "missing")
		}, 404},
		{"forbidden", func(rec *httptest.ResponseRecorder) {
			RenderForbidden(rec, httptest.NewRequest("GET", "/x", nil), "no access")
		}, 403},
		{"conflict", func(rec *httptest.ResponseRecorder) {
			RenderConflict(rec, httptest.NewRequest("GET", "/x", nil), "stale")
		}, 409},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.render(rec)
			if rec.Code != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != "application/json" {
				t.Errorf("expected application/json, got %q", got)
			}
			if msg := decodeError(t, rec); msg == "" {
				t.Error("expected non-empty error message")
			}
		})
	}
}

func TestErrorLogger_LogServerError(t *testing.T) {
	errLog := NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/circles", nil)

	errLog.LogServerError(rec, req, "db blew up", errors.New("boom"), "A database error occurred.")

	if rec.Code != 500 {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "A database error occurred." {
		t.Errorf("unexpected user message %q", msg)
	}
}

func TestErrorLogger_LogBadRequest(t *testing.T) {
	errLog := NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/circles", nil)

	errLog.LogBadRequest(rec, req, "parse failed", errors.New("bad json"), "Invalid request body.")

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Invalid request body." {
		t.Errorf("unexpected user message %q", msg)
	}
}
