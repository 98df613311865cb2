package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeRateLimit:    http.StatusTooManyRequests,
		CodeInternal:     http.StatusInternalServerError,
		CodeDependency:   http.StatusServiceUnavailable,
	}
	for code, status := range cases {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Fatalf("code %s: expected status %d, got %d", code, status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	if got := MetadataFor(Code("BOGUS")).HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("root cause")
	wrapped := Wrap(CodeDependency, cause, "cache unavailable")

	if !errors.Is(wrapped, cause) {
		t.Fatal("expected wrapped error to match cause via errors.Is")
	}
	typed := As(fmt.Errorf("outer: %w", wrapped))
	if typed == nil || typed.Code() != CodeDependency {
		t.Fatalf("expected typed error through the chain, got %v", typed)
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]string{"rating": "must be between 1 and 5"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["rating"] == "" {
		t.Fatalf("expected details to round-trip, got %v", err.Details())
	}
}
