package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Error is a normalized server-returned error. The service reports failures
// through a `detail` envelope whose shape varies by endpoint: a plain string,
// a list of per-field validation objects, or an arbitrary object. Message is
// always derived into a single human-readable string; Details keeps the raw
// payload for callers that want the structure.
type Error struct {
	Message string
	Status  int
	Details json.RawMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// TransportError indicates the request never completed: connectivity, DNS,
// or a canceled context. It is distinct from Error, which carries a response
// the server actually produced.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// validationItem is one entry of a structured validation error list.
// Backends emit either "msg" or "message" per invalid field.
type validationItem struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
}

// normalizeError converts a non-success response into an Error. The message
// is derived from the body's detail field when possible, falling back to
// "HTTP <status>: <text>" when the body is not JSON or carries no detail.
func normalizeError(status int, body []byte) *Error {
	apiErr := &Error{
		Message: fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
		Status:  status,
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apiErr
	}
	if len(envelope.Detail) == 0 || bytes.Equal(envelope.Detail, []byte("null")) {
		return apiErr
	}
	apiErr.Details = envelope.Detail

	if msg, ok := detailMessage(envelope.Detail); ok {
		apiErr.Message = msg
	}
	return apiErr
}

// detailMessage flattens a detail payload into one string. Strings are used
// verbatim; lists are joined element by element with ", "; anything else is
// rendered as compact JSON.
func detailMessage(detail json.RawMessage) (string, bool) {
	var asString string
	if err := json.Unmarshal(detail, &asString); err == nil {
		return asString, true
	}

	var asList []json.RawMessage
	if err := json.Unmarshal(detail, &asList); err == nil {
		parts := make([]byte, 0, len(detail))
		for i, element := range asList {
			if i > 0 {
				parts = append(parts, ", "...)
			}
			parts = append(parts, elementMessage(element)...)
		}
		return string(parts), true
	}

	if compacted, err := compact(detail); err == nil {
		return compacted, true
	}
	return "", false
}

func elementMessage(element json.RawMessage) string {
	var item validationItem
	if err := json.Unmarshal(element, &item); err == nil {
		if item.Msg != "" {
			return item.Msg
		}
		if item.Message != "" {
			return item.Message
		}
	}
	if compacted, err := compact(element); err == nil {
		return compacted
	}
	return string(element)
}

func compact(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
