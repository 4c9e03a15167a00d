package controller

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nvoss/persona-pilot/internal/allocate"
	"github.com/nvoss/persona-pilot/internal/api"
	"github.com/nvoss/persona-pilot/internal/resource"
)

// populationClient is the subset of the api client this controller uses.
type populationClient interface {
	BulkGeneratePopulation(ctx context.Context, req api.BulkGenerationRequest) (api.PopulationResponse, error)
	CreateDemographicSample(ctx context.Context, req api.DemographicSampleRequest) ([]api.Persona, error)
	ApplyFragments(ctx context.Context, req api.FragmentApplicationRequest) (api.FragmentApplicationResult, error)
	ListTemplates(ctx context.Context) (api.TemplateCatalog, error)
}

var _ populationClient = (*api.Client)(nil)

// SegmentSpec describes one sub-population by percentage share rather than
// absolute size. Percentages across one request are expected to sum to 100;
// when they do not, the floored counts are used and the shortfall is logged.
type SegmentSpec struct {
	Name            string
	Percentage      float64
	AgeRange        string
	IncomeLevel     string
	Location        string
	Particularities string
	Fragments       []string
}

// PopulationController manages generated populations, sampled personas, and
// the template catalog.
type PopulationController struct {
	logger      zerolog.Logger
	client      populationClient
	populations *resource.Collection[api.PopulationResponse]
	personas    *resource.Collection[api.Persona]
	templates   *resource.Store[api.TemplateCatalog]
}

// NewPopulationController constructs a controller over the given client.
func NewPopulationController(logger zerolog.Logger, client populationClient) *PopulationController {
	return &PopulationController{
		logger:      logger,
		client:      client,
		populations: resource.NewCollection(func(p api.PopulationResponse) string { return p.PopulationID }),
		personas:    resource.NewCollection(func(p api.Persona) string { return p.ID }),
		templates:   resource.NewStore[api.TemplateCatalog](),
	}
}

// Populations exposes the population collection for subscription.
func (c *PopulationController) Populations() *resource.Collection[api.PopulationResponse] {
	return c.populations
}

// Personas exposes the persona collection for subscription.
func (c *PopulationController) Personas() *resource.Collection[api.Persona] {
	return c.personas
}

// Templates exposes the template catalog store for subscription.
func (c *PopulationController) Templates() *resource.Store[api.TemplateCatalog] {
	return c.templates
}

// FetchTemplates loads the agent and fragment template catalog.
func (c *PopulationController) FetchTemplates(ctx context.Context) (api.TemplateCatalog, error) {
	token := c.templates.Begin()
	catalog, err := c.client.ListTemplates(ctx)
	if err != nil {
		c.templates.Fail(token, errorMessage(err))
		return api.TemplateCatalog{}, err
	}
	c.templates.Resolve(token, catalog)
	return catalog, nil
}

// GenerateBulk converts percentage-weighted segments into absolute sizes and
// asks the service to generate the population. The confirmed population is
// appended locally without a re-fetch.
func (c *PopulationController) GenerateBulk(ctx context.Context, name, demographicTemplate string, total int, segments []SegmentSpec, generationContext string) (api.PopulationResponse, error) {
	shares := make([]allocate.Segment, len(segments))
	for i, s := range segments {
		shares[i] = allocate.Segment{Name: s.Name, Percentage: s.Percentage}
	}
	counts := allocate.Counts(total, shares)

	assigned := 0
	wireSegments := make([]api.PopulationSegment, len(segments))
	for i, s := range segments {
		assigned += counts[i]
		wireSegments[i] = api.PopulationSegment{
			Name:            s.Name,
			Size:            counts[i],
			AgeRange:        s.AgeRange,
			IncomeLevel:     s.IncomeLevel,
			Location:        s.Location,
			Particularities: s.Particularities,
			Fragments:       s.Fragments,
		}
	}
	if assigned < total {
		c.logger.Warn().
			Str("population", name).
			Int("total", total).
			Int("assigned", assigned).
			Msg("segment percentages leave part of the population unassigned")
	}

	token := c.populations.Begin()
	resp, err := c.client.BulkGeneratePopulation(ctx, api.BulkGenerationRequest{
		Name:                name,
		DemographicTemplate: demographicTemplate,
		TotalSize:           assigned,
		Segments:            wireSegments,
		Context:             generationContext,
	})
	if err != nil {
		c.populations.Fail(token, errorMessage(err))
		return api.PopulationResponse{}, err
	}
	c.populations.ResolveAppend(token, resp)

	c.logger.Info().
		Str("population_id", resp.PopulationID).
		Int("generated", resp.TotalGenerated).
		Msg("population generated")

	return resp, nil
}

// CreateDemographicSample bulk-creates personas and appends them locally.
func (c *PopulationController) CreateDemographicSample(ctx context.Context, req api.DemographicSampleRequest) ([]api.Persona, error) {
	token := c.personas.Begin()
	personas, err := c.client.CreateDemographicSample(ctx, req)
	if err != nil {
		c.personas.Fail(token, errorMessage(err))
		return nil, err
	}
	c.personas.ResolveAppendMany(token, personas)
	return personas, nil
}

// ApplyFragments attaches fragments to a persona. On success the local
// record's fragment list is patched in place; nothing else is touched.
func (c *PopulationController) ApplyFragments(ctx context.Context, req api.FragmentApplicationRequest) (api.FragmentApplicationResult, error) {
	result, err := c.client.ApplyFragments(ctx, req)
	if err != nil {
		return api.FragmentApplicationResult{}, err
	}
	c.personas.Patch(req.PersonaID, func(p *api.Persona) {
		if p.Details == nil {
			p.Details = map[string]any{}
		}
		p.Details["fragments"] = result.FragmentsApplied
	})
	return result, nil
}
