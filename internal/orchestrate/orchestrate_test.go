package orchestrate

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvoss/persona-pilot/internal/api"
	"github.com/nvoss/persona-pilot/internal/controller"
	"github.com/nvoss/persona-pilot/internal/outcome"
)

// fakeRunner fails the variants whose stimulus content appears in failContent
// and records every request it receives.
type fakeRunner struct {
	mu          sync.Mutex
	failContent map[string]bool
	requests    []api.SimulationRequest
	types       []string
}

func (f *fakeRunner) Run(ctx context.Context, simulationType string, req api.SimulationRequest) (api.SimulationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.types = append(f.types, simulationType)
	if f.failContent[req.Stimulus.Content] {
		return api.SimulationResponse{}, &api.Error{Message: "participants required", Status: 422}
	}
	return api.SimulationResponse{
		SimulationID: req.Context["variant_id"] + "-sim",
		Status:       api.SimulationCompleted,
	}, nil
}

func newTestOrchestrator(t *testing.T, runner simulationRunner, registry *controller.InterventionController, opts ...Option) *Orchestrator {
	t.Helper()
	o := New(zerolog.Nop(), runner, registry, opts...)
	o.newRunID = func() string { return "run-1" }
	o.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return o
}

func createTestIntervention(t *testing.T, registry *controller.InterventionController, variants ...controller.Variant) controller.Intervention {
	t.Helper()
	created, err := registry.Create(controller.CreateInterventionRequest{
		Name:     "headline test",
		Type:     controller.TypeSingleMessage,
		Variants: variants,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return created
}

func TestExecuteCapturesPartialFailure(t *testing.T) {
	registry := controller.NewInterventionController(zerolog.Nop())
	created := createTestIntervention(t, registry,
		controller.Variant{ID: "v1", Name: "control", Content: "old copy", Weight: 34},
		controller.Variant{ID: "v2", Name: "bold", Content: "rejected copy", Weight: 33},
		controller.Variant{ID: "v3", Name: "subtle", Content: "new copy", Weight: 33},
	)

	runner := &fakeRunner{failContent: map[string]bool{"rejected copy": true}}
	o := newTestOrchestrator(t, runner, registry)

	composite, err := o.Execute(context.Background(), created.ID, ParticipantSpec{
		AgentNames: []string{"a1", "a2", "a3", "a4", "a5", "a6"},
	})
	if err != nil {
		t.Fatalf("variant failures must not surface as an Execute error: %v", err)
	}

	if len(composite.Variants) != 3 {
		t.Fatalf("expected one entry per variant, got %d", len(composite.Variants))
	}
	for i, want := range []string{"control", "bold", "subtle"} {
		if composite.Variants[i].VariantName != want {
			t.Fatalf("entries must keep declaration order, got %+v", composite.Variants)
		}
	}

	if composite.Variants[0].Status != outcome.StatusSucceeded {
		t.Fatalf("expected control to succeed, got %+v", composite.Variants[0])
	}
	if composite.Variants[1].Status != outcome.StatusFailed {
		t.Fatalf("expected bold to fail, got %+v", composite.Variants[1])
	}
	if !strings.Contains(composite.Variants[1].Err, "participants required") {
		t.Fatalf("failed variant must carry the error message, got %q", composite.Variants[1].Err)
	}
	if composite.Variants[1].SimulationID != "" {
		t.Fatalf("failed variant must not carry a simulation id")
	}

	succeeded, failed := composite.Tally()
	if succeeded != 2 || failed != 1 {
		t.Fatalf("tally = %d/%d, want 2/1", succeeded, failed)
	}

	// A partial success still completes the intervention.
	got, _ := registry.Get(created.ID)
	if got.Status != controller.StatusCompleted {
		t.Fatalf("expected completed intervention, got %q", got.Status)
	}
}

func TestExecuteMarksFailedWhenAllVariantsFail(t *testing.T) {
	registry := controller.NewInterventionController(zerolog.Nop())
	created := createTestIntervention(t, registry,
		controller.Variant{ID: "v1", Name: "a", Content: "bad one", Weight: 50},
		controller.Variant{ID: "v2", Name: "b", Content: "bad two", Weight: 50},
	)

	runner := &fakeRunner{failContent: map[string]bool{"bad one": true, "bad two": true}}
	o := newTestOrchestrator(t, runner, registry)

	composite, err := o.Execute(context.Background(), created.ID, ParticipantSpec{AgentNames: []string{"a1", "a2"}})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if succeeded, failed := composite.Tally(); succeeded != 0 || failed != 2 {
		t.Fatalf("tally = %d/%d, want 0/2", succeeded, failed)
	}

	got, _ := registry.Get(created.ID)
	if got.Status != controller.StatusFailed {
		t.Fatalf("expected failed intervention, got %q", got.Status)
	}
	if got.CompletedAt == nil {
		t.Fatalf("expected CompletedAt stamped on failure")
	}
}

func TestExecuteAssignsAgentsByWeight(t *testing.T) {
	registry := controller.NewInterventionController(zerolog.Nop())
	created := createTestIntervention(t, registry,
		controller.Variant{ID: "v1", Name: "control", Content: "c", Weight: 50},
		controller.Variant{ID: "v2", Name: "alt", Content: "a", Weight: 30},
		controller.Variant{ID: "v3", Name: "wild", Content: "w", Weight: 20},
	)

	runner := &fakeRunner{}
	o := newTestOrchestrator(t, runner, registry, WithConcurrency(1))

	agents := make([]string, 10)
	for i := range agents {
		agents[i] = string(rune('a' + i))
	}
	composite, err := o.Execute(context.Background(), created.ID, ParticipantSpec{AgentNames: agents})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	wantCounts := map[string]int{"control": 5, "alt": 3, "wild": 2}
	for _, v := range composite.Variants {
		if v.Participants != wantCounts[v.VariantName] {
			t.Fatalf("variant %s got %d participants, want %d", v.VariantName, v.Participants, wantCounts[v.VariantName])
		}
	}

	// WithConcurrency(1) makes request order deterministic; assignment must be
	// contiguous and non-overlapping across variants.
	seen := map[string]bool{}
	total := 0
	for _, req := range runner.requests {
		for _, p := range req.Participants {
			if seen[p.AgentName] {
				t.Fatalf("agent %s assigned twice", p.AgentName)
			}
			seen[p.AgentName] = true
			total++
		}
	}
	if total != 10 {
		t.Fatalf("expected all 10 agents assigned, got %d", total)
	}
}

func TestExecuteBuildsCorrelatedRequests(t *testing.T) {
	registry := controller.NewInterventionController(zerolog.Nop())
	created := createTestIntervention(t, registry,
		controller.Variant{ID: "v1", Name: "control", Content: "the copy", Weight: 100},
	)

	runner := &fakeRunner{}
	o := newTestOrchestrator(t, runner, registry)

	if _, err := o.Execute(context.Background(), created.ID, ParticipantSpec{
		AgentNames: []string{"a1"},
		MaxRounds:  7,
	}); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if runner.types[0] != "advertisement_test" {
		t.Fatalf("single_message must run an advertisement test, got %q", runner.types[0])
	}
	req := runner.requests[0]
	if req.Stimulus.Content != "the copy" || req.Stimulus.Type != "advertisement" {
		t.Fatalf("unexpected stimulus %+v", req.Stimulus)
	}
	if req.Interaction.MaxRounds != 7 {
		t.Fatalf("expected caller MaxRounds honored, got %d", req.Interaction.MaxRounds)
	}
	if req.Extraction.CheckpointName != "run-1_v1" {
		t.Fatalf("unexpected checkpoint %q", req.Extraction.CheckpointName)
	}
	if req.Context["intervention_id"] != created.ID || req.Context["variant_id"] != "v1" {
		t.Fatalf("missing correlation keys: %+v", req.Context)
	}
}

func TestExecuteUnknownIntervention(t *testing.T) {
	registry := controller.NewInterventionController(zerolog.Nop())
	o := newTestOrchestrator(t, &fakeRunner{}, registry)

	if _, err := o.Execute(context.Background(), "absent", ParticipantSpec{}); err == nil {
		t.Fatalf("expected error for unknown intervention")
	}
}

func TestSimulationTypeMapping(t *testing.T) {
	cases := []struct {
		in   controller.InterventionType
		want string
	}{
		{controller.TypeSingleMessage, "advertisement_test"},
		{controller.TypeCampaignSequence, "advertisement_test"},
		{controller.TypeProductFeature, "product_evaluation"},
		{controller.TypePolicySimulation, "focus_group"},
		{controller.InterventionType("unknown"), "focus_group"},
	}
	for _, tc := range cases {
		if got := simulationTypeFor(tc.in); got != tc.want {
			t.Errorf("simulationTypeFor(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
