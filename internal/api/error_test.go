package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestNormalizeErrorStringDetail(t *testing.T) {
	err := normalizeError(404, []byte(`{"detail":"not found"}`))
	if err.Message != "not found" {
		t.Fatalf("expected detail string verbatim, got %q", err.Message)
	}
	if err.Status != 404 {
		t.Fatalf("expected status 404, got %d", err.Status)
	}
}

func TestNormalizeErrorValidationList(t *testing.T) {
	body := []byte(`{"detail":[{"msg":"a"},{"message":"b"},{"x":1}]}`)
	err := normalizeError(422, body)
	want := `a, b, {"x":1}`
	if err.Message != want {
		t.Fatalf("expected %q, got %q", want, err.Message)
	}
}

func TestNormalizeErrorMalformedBody(t *testing.T) {
	err := normalizeError(500, []byte("<html>oops</html>"))
	if err.Message != "HTTP 500: Internal Server Error" {
		t.Fatalf("expected generic message, got %q", err.Message)
	}
}

func TestNormalizeErrorMissingDetail(t *testing.T) {
	err := normalizeError(503, []byte(`{"error":"nope"}`))
	if err.Message != "HTTP 503: Service Unavailable" {
		t.Fatalf("expected generic message, got %q", err.Message)
	}
}

func TestNormalizeErrorObjectDetail(t *testing.T) {
	err := normalizeError(400, []byte(`{"detail":{"field": "name", "issue": "blank"}}`))
	want := `{"field":"name","issue":"blank"}`
	if err.Message != want {
		t.Fatalf("expected compacted detail, got %q", err.Message)
	}
}

func TestNormalizeErrorNullDetail(t *testing.T) {
	err := normalizeError(400, []byte(`{"detail":null}`))
	if err.Message != "HTTP 400: Bad Request" {
		t.Fatalf("expected generic message, got %q", err.Message)
	}
	if err.Details != nil {
		t.Fatalf("expected no details, got %s", err.Details)
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	var err error = &TransportError{Err: inner}
	if !errors.Is(err, inner) {
		t.Fatalf("expected TransportError to unwrap to inner error")
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		t.Fatalf("TransportError must not satisfy *Error")
	}
}
