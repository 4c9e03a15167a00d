// Package orchestrate fans one intervention out into per-variant simulation
// runs and aggregates their settled results into a composite.
package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nvoss/persona-pilot/internal/allocate"
	"github.com/nvoss/persona-pilot/internal/api"
	"github.com/nvoss/persona-pilot/internal/controller"
	"github.com/nvoss/persona-pilot/internal/metrics"
	"github.com/nvoss/persona-pilot/internal/notify"
	"github.com/nvoss/persona-pilot/internal/outcome"
)

const (
	defaultConcurrency = 4
	defaultMaxRounds   = 5
)

// simulationRunner is the single primitive the orchestrator uses to reach the
// service; it never holds any other store open across its fan-out.
type simulationRunner interface {
	Run(ctx context.Context, simulationType string, req api.SimulationRequest) (api.SimulationResponse, error)
}

var _ simulationRunner = (*controller.SimulationController)(nil)

// interventionRegistry is the subset of the intervention controller the
// orchestrator needs for lifecycle transitions.
type interventionRegistry interface {
	Get(id string) (controller.Intervention, error)
	MarkRunning(id string) error
	Complete(id string) error
	MarkFailed(id string) error
}

var _ interventionRegistry = (*controller.InterventionController)(nil)

// ParticipantSpec names the audience an intervention runs against. Agents
// are assigned to variants by weight, in declaration order.
type ParticipantSpec struct {
	PopulationID string
	AgentNames   []string
	MaxRounds    int
}

// Orchestrator executes interventions: one simulation per variant, bounded
// concurrency, per-variant failure capture.
type Orchestrator struct {
	logger        zerolog.Logger
	simulations   simulationRunner
	interventions interventionRegistry
	notifier      notify.Notifier
	metrics       *metrics.Metrics
	concurrency   int
	newRunID      func() string
	now           func() time.Time
}

// Option customizes orchestrator behavior.
type Option func(*Orchestrator)

// WithConcurrency bounds how many variant simulations run at once.
func WithConcurrency(limit int) Option {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.concurrency = limit
		}
	}
}

// WithNotifier delivers composite results after every run.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithMetrics attaches orchestration instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// New constructs an Orchestrator over the given controllers.
func New(logger zerolog.Logger, simulations simulationRunner, interventions interventionRegistry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:        logger,
		simulations:   simulations,
		interventions: interventions,
		concurrency:   defaultConcurrency,
		newRunID:      uuid.NewString,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute runs every variant of the intervention and returns the composite
// result. Variant failures do not abort siblings and do not surface as an
// Execute error; they are recorded per variant. Execute errors only when the
// run cannot start at all.
func (o *Orchestrator) Execute(ctx context.Context, interventionID string, participants ParticipantSpec) (outcome.Composite, error) {
	intervention, err := o.interventions.Get(interventionID)
	if err != nil {
		return outcome.Composite{}, err
	}
	if len(intervention.Variants) == 0 {
		return outcome.Composite{}, fmt.Errorf("intervention %s has no variants", interventionID)
	}

	if err := o.interventions.MarkRunning(interventionID); err != nil {
		return outcome.Composite{}, err
	}

	runID := o.newRunID()
	startedAt := o.now()
	assignments := o.assignParticipants(intervention, participants.AgentNames)

	o.logger.Info().
		Str("run_id", runID).
		Str("intervention_id", interventionID).
		Int("variants", len(intervention.Variants)).
		Int("participants", len(participants.AgentNames)).
		Int("concurrency", o.concurrency).
		Msg("intervention run starting")

	outcomes := make([]outcome.Variant, len(intervention.Variants))
	var group errgroup.Group
	group.SetLimit(o.concurrency)

	for i, variant := range intervention.Variants {
		i, variant := i, variant
		group.Go(func() error {
			req := o.buildRequest(runID, intervention, variant, assignments[i], participants)
			resp, err := o.simulations.Run(ctx, simulationTypeFor(intervention.Type), req)
			if err != nil {
				outcomes[i] = outcome.Variant{
					VariantID:    variant.ID,
					VariantName:  variant.Name,
					Status:       outcome.StatusFailed,
					Participants: len(assignments[i]),
					Err:          err.Error(),
				}
				o.logger.Warn().
					Str("run_id", runID).
					Str("variant", variant.Name).
					Err(err).
					Msg("variant run failed")
				return nil
			}
			outcomes[i] = outcome.Variant{
				VariantID:    variant.ID,
				VariantName:  variant.Name,
				Status:       outcome.StatusSucceeded,
				SimulationID: resp.SimulationID,
				Results:      resp.ExtractedResults,
				Participants: len(assignments[i]),
			}
			return nil
		})
	}
	// Closures never return errors; Wait is a settlement barrier.
	_ = group.Wait()

	composite := outcome.Composite{
		RunID:            runID,
		InterventionID:   interventionID,
		InterventionName: intervention.Name,
		Variants:         outcomes,
		StartedAt:        startedAt,
		CompletedAt:      o.now(),
	}

	succeeded, failed := composite.Tally()
	for _, v := range outcomes {
		o.metrics.IncVariantRun(v.Status)
	}
	o.metrics.ObserveOrchestration(composite.CompletedAt.Sub(startedAt))
	if failed == 0 {
		o.metrics.SetLastSuccessfulRunTimestamp(composite.CompletedAt)
	}

	if succeeded == 0 {
		if err := o.interventions.MarkFailed(interventionID); err != nil {
			o.logger.Error().Err(err).Str("intervention_id", interventionID).Msg("failed to mark intervention failed")
		}
	} else {
		if err := o.interventions.Complete(interventionID); err != nil {
			o.logger.Error().Err(err).Str("intervention_id", interventionID).Msg("failed to mark intervention completed")
		}
	}

	o.logger.Info().
		Str("run_id", runID).
		Int("succeeded", succeeded).
		Int("failed", failed).
		Dur("elapsed", composite.CompletedAt.Sub(startedAt)).
		Msg("intervention run settled")

	if o.notifier != nil {
		if err := o.notifier.Notify(ctx, composite); err != nil {
			o.logger.Error().Err(err).Str("run_id", runID).Msg("result notification failed")
		}
	}

	return composite, nil
}

// assignParticipants splits the audience across variants by weight. Agents
// are handed out contiguously in declaration order; when weights do not sum
// to 100 the unweighted tail stays unassigned.
func (o *Orchestrator) assignParticipants(intervention controller.Intervention, agents []string) [][]string {
	shares := make([]allocate.Segment, len(intervention.Variants))
	for i, v := range intervention.Variants {
		shares[i] = allocate.Segment{Name: v.Name, Percentage: float64(v.Weight)}
	}
	counts := allocate.Counts(len(agents), shares)

	assignments := make([][]string, len(counts))
	offset := 0
	for i, count := range counts {
		if offset+count > len(agents) {
			count = len(agents) - offset
		}
		assignments[i] = agents[offset : offset+count]
		offset += count
	}
	if offset < len(agents) {
		o.logger.Warn().
			Str("intervention_id", intervention.ID).
			Int("unassigned", len(agents)-offset).
			Msg("variant weights leave agents unassigned")
	}
	return assignments
}

func (o *Orchestrator) buildRequest(runID string, intervention controller.Intervention, variant controller.Variant, agents []string, participants ParticipantSpec) api.SimulationRequest {
	configs := make([]api.ParticipantConfig, len(agents))
	for i, name := range agents {
		configs[i] = api.ParticipantConfig{AgentName: name}
	}

	maxRounds := participants.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}

	return api.SimulationRequest{
		Participants: configs,
		Interaction: api.InteractionConfig{
			MaxRounds:                   maxRounds,
			AllowQuestionsToFacilitator: true,
		},
		Stimulus: api.StimulusConfig{
			Type:    stimulusTypeFor(intervention.Type),
			Content: variant.Content,
		},
		Extraction: api.ExtractionConfig{
			CheckpointName:      fmt.Sprintf("%s_%s", runID, variant.ID),
			ExtractionObjective: fmt.Sprintf("Analyze responses to %s", variant.Name),
			ResultType:          "json",
		},
		Context: map[string]string{
			"intervention_id": intervention.ID,
			"variant_id":      variant.ID,
			"variant_name":    variant.Name,
			"run_id":          runID,
		},
	}
}

// simulationTypeFor maps an intervention type to the simulation endpoint that
// best exercises it.
func simulationTypeFor(t controller.InterventionType) string {
	switch t {
	case controller.TypeSingleMessage, controller.TypeCampaignSequence:
		return "advertisement_test"
	case controller.TypeProductFeature:
		return "product_evaluation"
	case controller.TypePolicySimulation:
		return "focus_group"
	default:
		return "focus_group"
	}
}

func stimulusTypeFor(t controller.InterventionType) string {
	switch t {
	case controller.TypeSingleMessage:
		return "advertisement"
	case controller.TypeCampaignSequence:
		return "campaign"
	case controller.TypeProductFeature:
		return "product_demo"
	case controller.TypePolicySimulation:
		return "policy"
	default:
		return "message"
	}
}
