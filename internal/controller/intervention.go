package controller

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nvoss/persona-pilot/internal/resource"
)

// InterventionType selects how variant content is presented downstream.
type InterventionType string

const (
	TypeSingleMessage    InterventionType = "single_message"
	TypeCampaignSequence InterventionType = "campaign_sequence"
	TypeProductFeature   InterventionType = "product_feature"
	TypePolicySimulation InterventionType = "policy_simulation"
)

// InterventionStatus is the lifecycle state of an intervention.
type InterventionStatus string

const (
	StatusDraft     InterventionStatus = "draft"
	StatusScheduled InterventionStatus = "scheduled"
	StatusRunning   InterventionStatus = "running"
	StatusPaused    InterventionStatus = "paused"
	StatusCompleted InterventionStatus = "completed"
	StatusFailed    InterventionStatus = "failed"
)

// Variant is one alternative message tested within an intervention. Weight is
// a traffic-split hint in percent; weights are advisory and not required to
// sum to 100.
type Variant struct {
	ID        string
	Name      string
	Content   string
	Channel   string
	Timing    string
	Weight    int
	MediaType string
}

// SuccessMetric names one measurement the intervention is judged by.
type SuccessMetric struct {
	ID          string
	Name        string
	Description string
	Type        string // rate, score, binary, or scale
	Target      float64
	Enabled     bool
}

// Intervention is a client-side experiment definition: one intervention owns
// its variants, created together and never persisted independently.
type Intervention struct {
	ID                 string
	Name               string
	Description        string
	Type               InterventionType
	Status             InterventionStatus
	Variants           []Variant
	SuccessMetrics     []SuccessMetric
	TargetPopulationID string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
}

// CreateInterventionRequest is the input to Create.
type CreateInterventionRequest struct {
	Name               string
	Description        string
	Type               InterventionType
	Variants           []Variant
	SuccessMetrics     []SuccessMetric
	TargetPopulationID string
}

// InterventionController manages the local intervention registry.
// Interventions live client-side; only their variant simulations reach the
// remote service.
type InterventionController struct {
	logger zerolog.Logger
	store  *resource.Collection[Intervention]
	now    func() time.Time
	newID  func() string
}

// NewInterventionController constructs a controller with an empty registry.
func NewInterventionController(logger zerolog.Logger) *InterventionController {
	return &InterventionController{
		logger: logger,
		store:  resource.NewCollection(func(i Intervention) string { return i.ID }),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Store exposes the underlying collection for subscription.
func (c *InterventionController) Store() *resource.Collection[Intervention] {
	return c.store
}

// Create registers a new draft intervention. Variant ids are assigned when
// absent. Weights that do not sum to 100 are allowed but logged, since the
// allocator will then leave part of the audience unassigned.
func (c *InterventionController) Create(req CreateInterventionRequest) (Intervention, error) {
	if req.Name == "" {
		return Intervention{}, fmt.Errorf("intervention name is required")
	}
	if len(req.Variants) == 0 {
		return Intervention{}, fmt.Errorf("intervention %q has no variants", req.Name)
	}

	variants := append([]Variant(nil), req.Variants...)
	weightSum := 0
	for i := range variants {
		if variants[i].ID == "" {
			variants[i].ID = c.newID()
		}
		weightSum += variants[i].Weight
	}
	if weightSum != 100 {
		c.logger.Warn().
			Str("intervention", req.Name).
			Int("weight_sum", weightSum).
			Msg("variant weights do not sum to 100; unweighted audience will be unassigned")
	}

	now := c.now()
	intervention := Intervention{
		ID:                 c.newID(),
		Name:               req.Name,
		Description:        req.Description,
		Type:               req.Type,
		Status:             StatusDraft,
		Variants:           variants,
		SuccessMetrics:     append([]SuccessMetric(nil), req.SuccessMetrics...),
		TargetPopulationID: req.TargetPopulationID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	c.store.Append(intervention)

	c.logger.Info().
		Str("intervention_id", intervention.ID).
		Str("name", intervention.Name).
		Int("variants", len(intervention.Variants)).
		Msg("intervention created")

	return intervention, nil
}

// List returns all registered interventions in creation order.
func (c *InterventionController) List() []Intervention {
	return c.store.Items()
}

// Get returns the intervention with the given id.
func (c *InterventionController) Get(id string) (Intervention, error) {
	intervention, ok := c.store.Get(id)
	if !ok {
		return Intervention{}, fmt.Errorf("intervention %s: %w", id, ErrNotFound)
	}
	return intervention, nil
}

// Delete removes an intervention from the registry. Deleting an absent id is
// a no-op on the collection and reports ErrNotFound to the caller.
func (c *InterventionController) Delete(id string) error {
	if !c.store.RemoveByID(id) {
		return fmt.Errorf("intervention %s: %w", id, ErrNotFound)
	}
	return nil
}

// MarkRunning transitions an intervention to running and stamps StartedAt.
func (c *InterventionController) MarkRunning(id string) error {
	return c.setStatus(id, StatusRunning, func(i *Intervention, now time.Time) {
		i.StartedAt = &now
	})
}

// Pause transitions a running intervention to paused.
func (c *InterventionController) Pause(id string) error {
	return c.setStatus(id, StatusPaused, nil)
}

// Resume transitions a paused intervention back to running.
func (c *InterventionController) Resume(id string) error {
	return c.setStatus(id, StatusRunning, nil)
}

// Complete transitions an intervention to completed and stamps CompletedAt.
func (c *InterventionController) Complete(id string) error {
	return c.setStatus(id, StatusCompleted, func(i *Intervention, now time.Time) {
		i.CompletedAt = &now
	})
}

// MarkFailed transitions an intervention to failed and stamps CompletedAt.
func (c *InterventionController) MarkFailed(id string) error {
	return c.setStatus(id, StatusFailed, func(i *Intervention, now time.Time) {
		i.CompletedAt = &now
	})
}

// setStatus patches only the status and timestamps of the local record,
// leaving every other field untouched.
func (c *InterventionController) setStatus(id string, status InterventionStatus, stamp func(*Intervention, time.Time)) error {
	now := c.now()
	patched := c.store.Patch(id, func(i *Intervention) {
		i.Status = status
		i.UpdatedAt = now
		if stamp != nil {
			stamp(i, now)
		}
	})
	if !patched {
		return fmt.Errorf("intervention %s: %w", id, ErrNotFound)
	}
	c.logger.Debug().
		Str("intervention_id", id).
		Str("status", string(status)).
		Msg("intervention status updated")
	return nil
}
