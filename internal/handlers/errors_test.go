package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"authgate/internal/logger"
	"authgate/internal/testutil"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, testutil.MakeNoopLogger(), 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	body := strings.TrimSpace(recorder.Body.String())
	if body != `{"error":"Teapot"}` {
		t.Fatalf("expected JSON error body, got %q", body)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, int(slog.LevelDebug))

	recorder := httptest.NewRecorder()
	err := errors.New("boom")

	respondWithError(recorder, log, 500, "Internal server error", "", err)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
}

func TestNotFound(t *testing.T) {
	recorder := httptest.NewRecorder()
	NotFound(recorder, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", recorder.Code)
	}
	if body := strings.TrimSpace(recorder.Body.String()); body != `{"error":"Not found"}` {
		t.Fatalf("unexpected body %q", body)
	}
}
