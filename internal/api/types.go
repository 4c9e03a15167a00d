package api

// Wire types for the simulation service. Field names follow the service's
// snake_case JSON; optional fields are omitted when empty so requests stay
// minimal.

// HealthStatus is the response of the liveness probe.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Version string `json:"version,omitempty"`
}

// Persona is a single synthetic persona as returned by the service.
type Persona struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// PersonaFromAgentRequest creates a persona from a named agent specification.
type PersonaFromAgentRequest struct {
	AgentName    string `json:"agent_name"`
	NewAgentName string `json:"new_agent_name,omitempty"`
}

// DemographicSampleRequest bulk-creates personas sampled from a demographic
// template.
type DemographicSampleRequest struct {
	DemographicTemplate string   `json:"demographic_template,omitempty"`
	SampleSize          int      `json:"sample_size"`
	Context             string   `json:"context,omitempty"`
	MinAge              int      `json:"min_age,omitempty"`
	MaxAge              int      `json:"max_age,omitempty"`
	NationalityFilter   []string `json:"nationality_filter,omitempty"`
}

// FragmentApplicationRequest attaches trait fragments to an existing persona.
type FragmentApplicationRequest struct {
	PersonaID string   `json:"persona_id"`
	Fragments []string `json:"fragments"`
	Mode      string   `json:"mode,omitempty"` // append, replace, or merge
}

// FragmentApplicationResult reports the outcome of a fragment application.
type FragmentApplicationResult struct {
	Status           string   `json:"status"`
	PersonaID        string   `json:"persona_id"`
	FragmentsApplied []string `json:"fragments_applied,omitempty"`
	Message          string   `json:"message,omitempty"`
}

// PersonaValidationRequest scores a persona against stated expectations.
type PersonaValidationRequest struct {
	PersonaID        string `json:"persona_id"`
	Expectations     string `json:"expectations"`
	IncludeAgentSpec bool   `json:"include_agent_spec,omitempty"`
}

// PersonaValidationResult is the service's judgement of a persona.
type PersonaValidationResult struct {
	PersonaID     string  `json:"persona_id"`
	Score         float64 `json:"score"`
	Justification string  `json:"justification,omitempty"`
}

// TemplateInfo describes one available agent or fragment template.
type TemplateInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TemplateCatalog lists the agent and fragment templates the service knows.
type TemplateCatalog struct {
	Agents    []TemplateInfo `json:"agents"`
	Fragments []TemplateInfo `json:"fragments"`
}

// AgentCatalog lists agents available for simulations.
type AgentCatalog struct {
	Agents []TemplateInfo `json:"agents"`
}

// FragmentCatalog lists personality fragments available for populations.
type FragmentCatalog struct {
	Fragments []TemplateInfo `json:"fragments"`
}

// ProductEvaluationRequest runs a product-evaluation research task.
type ProductEvaluationRequest struct {
	ProductName        string   `json:"product_name"`
	ProductDescription string   `json:"product_description"`
	ParticipantIDs     []string `json:"participant_ids,omitempty"`
	Questions          []string `json:"questions,omitempty"`
}

// ProductEvaluationResult carries the research output.
type ProductEvaluationResult struct {
	ResearchID string         `json:"research_id"`
	Status     string         `json:"status"`
	Results    map[string]any `json:"results,omitempty"`
}

// ParticipantConfig names one agent taking part in a simulation.
type ParticipantConfig struct {
	AgentName         string `json:"agent_name"`
	PreparationPrompt string `json:"preparation_prompt,omitempty"`
	MaxWordsPerPost   int    `json:"max_words_per_post,omitempty"`
}

// InteractionConfig bounds the interaction rounds of a simulation.
type InteractionConfig struct {
	MaxRounds                   int  `json:"max_rounds"`
	AllowQuestionsToFacilitator bool `json:"allow_questions_to_facilitator"`
	IncludeWorldClock           bool `json:"include_world_clock"`
}

// StimulusConfig is the content presented to the participants.
type StimulusConfig struct {
	Type              string `json:"type"`
	Content           string `json:"content"`
	PresentationStyle string `json:"presentation_style,omitempty"`
}

// ExtractionConfig tells the service what to extract from the finished run.
type ExtractionConfig struct {
	CheckpointName      string `json:"checkpoint_name"`
	ExtractionObjective string `json:"extraction_objective"`
	ResultType          string `json:"result_type,omitempty"`
}

// SimulationRequest is one simulation run. Context carries caller-side
// correlation keys (intervention id, variant id) that the service echoes back.
type SimulationRequest struct {
	Participants []ParticipantConfig `json:"participants"`
	Interaction  InteractionConfig   `json:"interaction"`
	Stimulus     StimulusConfig      `json:"stimulus"`
	Extraction   ExtractionConfig    `json:"extraction"`
	Context      map[string]string   `json:"context,omitempty"`
}

// SimulationResponse is the service's record of one simulation run.
type SimulationResponse struct {
	SimulationID     string           `json:"simulation_id"`
	Status           string           `json:"status"`
	CheckpointName   string           `json:"checkpoint_name,omitempty"`
	Interactions     []map[string]any `json:"interactions,omitempty"`
	ExtractedResults map[string]any   `json:"extracted_results,omitempty"`
}

// Simulation status values reported by the service.
const (
	SimulationRunning   = "running"
	SimulationCompleted = "completed"
	SimulationFailed    = "failed"
	SimulationStopped   = "stopped"
)

// SimulationStatus is the polling view of a run in progress.
type SimulationStatus struct {
	SimulationID string  `json:"simulation_id"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// PopulationSegment is one sub-population in a bulk generation request. Size
// is an absolute agent count; percentage-weighted segment definitions are
// converted to counts before reaching the wire.
type PopulationSegment struct {
	Name            string   `json:"name"`
	Size            int      `json:"size"`
	AgeRange        string   `json:"age_range"`
	IncomeLevel     string   `json:"income_level"`
	Location        string   `json:"location"`
	Particularities string   `json:"particularities,omitempty"`
	Fragments       []string `json:"fragments,omitempty"`
}

// BulkGenerationRequest generates a population from segment specs.
type BulkGenerationRequest struct {
	Name                string              `json:"name"`
	DemographicTemplate string              `json:"demographic_template,omitempty"`
	TotalSize           int                 `json:"total_size"`
	Segments            []PopulationSegment `json:"segments"`
	Context             string              `json:"context,omitempty"`
}

// GeneratedAgent is one agent of a generated population.
type GeneratedAgent struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Age                  int      `json:"age,omitempty"`
	Nationality          string   `json:"nationality,omitempty"`
	Occupation           string   `json:"occupation,omitempty"`
	IncomeLevel          string   `json:"income_level,omitempty"`
	Location             string   `json:"location,omitempty"`
	PersonalityFragments []string `json:"personality_fragments,omitempty"`
	MiniBio              string   `json:"minibio,omitempty"`
}

// PopulationResponse is the service's record of a generated population.
type PopulationResponse struct {
	PopulationID       string           `json:"population_id"`
	Name               string           `json:"name"`
	TotalGenerated     int              `json:"total_generated"`
	Agents             []GeneratedAgent `json:"agents,omitempty"`
	GenerationMetadata map[string]any   `json:"generation_metadata,omitempty"`
}
