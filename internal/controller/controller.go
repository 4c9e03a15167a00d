// Package controller builds entity-scoped operations on top of the api
// client and the resource stores. Each controller privately owns its stores;
// callers observe them through Subscribe and never mutate them directly.
package controller

import (
	"errors"

	"github.com/nvoss/persona-pilot/internal/api"
)

// ErrNotFound is returned when an id is absent from a local collection.
var ErrNotFound = errors.New("not found")

// errorMessage extracts the message surfaced to store state: the normalized
// server message when available, the plain error text otherwise.
func errorMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
