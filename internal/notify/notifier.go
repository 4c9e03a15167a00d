package notify

import (
	"context"

	"github.com/nvoss/persona-pilot/internal/outcome"
)

// Notifier delivers settled intervention results to external systems.
type Notifier interface {
	Notify(ctx context.Context, result outcome.Composite) error
}
