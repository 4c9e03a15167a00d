package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Health probes the service's liveness endpoint.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	return do[HealthStatus](ctx, c, call{
		op:     "health",
		method: http.MethodGet,
		path:   "/health",
	})
}

// CreatePersonaFromAgent creates a persona from a named agent specification.
func (c *Client) CreatePersonaFromAgent(ctx context.Context, req PersonaFromAgentRequest) (Persona, error) {
	return do[Persona](ctx, c, call{
		op:     "create_persona_from_agent",
		method: http.MethodPost,
		path:   "/api/v1/personas/create-from-agent",
		body:   req,
	})
}

// CreateDemographicSample bulk-creates personas from a demographic template.
func (c *Client) CreateDemographicSample(ctx context.Context, req DemographicSampleRequest) ([]Persona, error) {
	return do[[]Persona](ctx, c, call{
		op:     "create_demographic_sample",
		method: http.MethodPost,
		path:   "/api/v1/personas/create-demographic-sample",
		body:   req,
	})
}

// ApplyFragments attaches trait fragments to an existing persona.
func (c *Client) ApplyFragments(ctx context.Context, req FragmentApplicationRequest) (FragmentApplicationResult, error) {
	return do[FragmentApplicationResult](ctx, c, call{
		op:     "apply_fragments",
		method: http.MethodPost,
		path:   "/api/v1/personas/apply-fragments",
		body:   req,
	})
}

// ValidatePersona scores a persona against stated expectations.
func (c *Client) ValidatePersona(ctx context.Context, req PersonaValidationRequest) (PersonaValidationResult, error) {
	return do[PersonaValidationResult](ctx, c, call{
		op:     "validate_persona",
		method: http.MethodPost,
		path:   "/api/v1/personas/validate",
		body:   req,
	})
}

// ListTemplates lists available agent and fragment templates.
func (c *Client) ListTemplates(ctx context.Context) (TemplateCatalog, error) {
	return do[TemplateCatalog](ctx, c, call{
		op:     "list_templates",
		method: http.MethodGet,
		path:   "/api/v1/personas/templates",
	})
}

// ProductEvaluation runs a product-evaluation research task.
func (c *Client) ProductEvaluation(ctx context.Context, req ProductEvaluationRequest) (ProductEvaluationResult, error) {
	return do[ProductEvaluationResult](ctx, c, call{
		op:     "product_evaluation",
		method: http.MethodPost,
		path:   "/api/v1/research/product-evaluation",
		body:   req,
	})
}

// RunSimulation runs one simulation of the given type. The service routes by
// kebab-cased type, e.g. "focus_group" becomes /api/v1/simulate/focus-group.
func (c *Client) RunSimulation(ctx context.Context, simulationType string, req SimulationRequest) (SimulationResponse, error) {
	return do[SimulationResponse](ctx, c, call{
		op:     "run_simulation",
		method: http.MethodPost,
		path:   "/api/v1/simulate/" + kebab(simulationType),
		body:   req,
	})
}

// GetSimulationStatus polls the status of a running simulation.
func (c *Client) GetSimulationStatus(ctx context.Context, simulationID string) (SimulationStatus, error) {
	return do[SimulationStatus](ctx, c, call{
		op:     "simulation_status",
		method: http.MethodGet,
		path:   "/api/v1/simulate/status/" + url.PathEscape(simulationID),
	})
}

// StopSimulation asks the service to stop a running simulation.
func (c *Client) StopSimulation(ctx context.Context, simulationID string) (SimulationStatus, error) {
	return do[SimulationStatus](ctx, c, call{
		op:     "stop_simulation",
		method: http.MethodPost,
		path:   "/api/v1/simulate/stop/" + url.PathEscape(simulationID),
	})
}

// BulkGeneratePopulation generates a population from segment specs.
func (c *Client) BulkGeneratePopulation(ctx context.Context, req BulkGenerationRequest) (PopulationResponse, error) {
	return do[PopulationResponse](ctx, c, call{
		op:     "bulk_generate_population",
		method: http.MethodPost,
		path:   "/api/v1/populations/bulk-generate",
		body:   req,
	})
}

// AvailableAgents lists the agent catalog.
func (c *Client) AvailableAgents(ctx context.Context) (AgentCatalog, error) {
	return do[AgentCatalog](ctx, c, call{
		op:     "available_agents",
		method: http.MethodGet,
		path:   "/api/v1/agents/available",
	})
}

// AvailableFragments lists the personality fragment catalog.
func (c *Client) AvailableFragments(ctx context.Context) (FragmentCatalog, error) {
	return do[FragmentCatalog](ctx, c, call{
		op:     "available_fragments",
		method: http.MethodGet,
		path:   "/api/v1/populations/fragments/available",
	})
}

func kebab(simulationType string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(simulationType)), "_", "-")
}
