package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizePassthrough(t *testing.T) {
	original := ErrRateLimited(5).WithRequestID("req-1")
	if got := Normalize(original); got != original {
		t.Fatalf("Normalize rewrote a typed error: %+v", got)
	}

	wrapped := fmt.Errorf("while handling request: %w", ErrInvalidToken())
	got := Normalize(wrapped)
	if got.Code != CodeInvalidToken {
		t.Fatalf("Normalize(wrapped) code = %s", got.Code)
	}
}

func TestNormalizeUnknownError(t *testing.T) {
	got := Normalize(errors.New("pq: connection refused on 10.1.2.3"))

	if got.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got.StatusCode)
	}
	if got.Code != CodeInternalError {
		t.Fatalf("code = %s, want INTERNAL_ERROR", got.Code)
	}
	if got.Details != nil {
		t.Fatalf("details = %v, want nil", got.Details)
	}
	if strings.Contains(got.Message, "10.1.2.3") {
		t.Fatal("internal failure detail leaked into the message")
	}
}

func TestWriteErrorShape(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrUpstreamUnavailable(503, "overloaded").WithRequestID("up-77"))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}

	var body struct {
		Error struct {
			Code      string          `json:"code"`
			Message   string          `json:"message"`
			Details   json.RawMessage `json:"details"`
			RequestID string          `json:"requestId"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Error.Code != CodeUpstreamUnavailable {
		t.Fatalf("code = %s", body.Error.Code)
	}
	if body.Error.RequestID != "up-77" {
		t.Fatalf("requestId = %q", body.Error.RequestID)
	}
	if !strings.Contains(string(body.Error.Details), "overloaded") {
		t.Fatalf("details missing upstream message: %s", body.Error.Details)
	}
}

func TestWriteErrorRetryAfterHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrRateLimited(42))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("Retry-After = %q, want 42", got)
	}

	var body struct {
		Error struct {
			Details RateLimitDetails `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Error.Details.RetryAfterSeconds != 42 {
		t.Fatalf("retryAfterSeconds = %d", body.Error.Details.RetryAfterSeconds)
	}
}

func TestWriteErrorIsTotal(t *testing.T) {
	// Even a nil error must produce a valid normalized shape.
	rec := httptest.NewRecorder()
	WriteError(rec, nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Error.Code != CodeInternalError {
		t.Fatalf("code = %s", body.Error.Code)
	}
}

func TestDetailsSerializeNullWhenAbsent(t *testing.T) {
	raw, err := json.Marshal(errorEnvelope{Error: ErrInvalidJSON()})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"details":null`) {
		t.Fatalf("expected null details, got %s", raw)
	}
}
