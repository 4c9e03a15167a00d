package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nvoss/persona-pilot/internal/outcome"
)

// DryRunNotifier logs composite results without sending notifications.
type DryRunNotifier struct {
	logger zerolog.Logger
	inner  Notifier
}

// NewDryRunNotifier returns a notifier that suppresses delivery and logs instead.
func NewDryRunNotifier(logger zerolog.Logger, inner Notifier) *DryRunNotifier {
	return &DryRunNotifier{logger: logger, inner: inner}
}

// Notify implements Notifier.
func (n *DryRunNotifier) Notify(_ context.Context, result outcome.Composite) error {
	for _, variant := range result.Variants {
		n.logger.Info().
			Str("run_id", result.RunID).
			Str("intervention", result.InterventionName).
			Str("variant", variant.VariantName).
			Str("status", variant.Status).
			Str("simulation_id", variant.SimulationID).
			Str("error", variant.Err).
			Msg("[DRY-RUN] Would notify")
	}
	return nil
}
