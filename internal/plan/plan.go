// Package plan loads intervention plan files: a YAML description of one
// intervention, its variants, and the audience it runs against.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nvoss/persona-pilot/internal/controller"
)

// Variant is one tested alternative in a plan file.
type Variant struct {
	ID        string `yaml:"id,omitempty"`
	Name      string `yaml:"name"`
	Content   string `yaml:"content"`
	Channel   string `yaml:"channel,omitempty"`
	Timing    string `yaml:"timing,omitempty"`
	Weight    int    `yaml:"weight"`
	MediaType string `yaml:"media_type,omitempty"`
}

// SuccessMetric names one measurement for the intervention.
type SuccessMetric struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Type        string  `yaml:"type,omitempty"`
	Target      float64 `yaml:"target,omitempty"`
}

// Segment describes a percentage share of a generated population.
type Segment struct {
	Name            string   `yaml:"name"`
	Percentage      float64  `yaml:"percentage"`
	AgeRange        string   `yaml:"age_range,omitempty"`
	IncomeLevel     string   `yaml:"income_level,omitempty"`
	Location        string   `yaml:"location,omitempty"`
	Particularities string   `yaml:"particularities,omitempty"`
	Fragments       []string `yaml:"fragments,omitempty"`
}

// Population names the audience: either explicit agent names or a generation
// request (template + total + segments).
type Population struct {
	ID       string    `yaml:"id,omitempty"`
	Agents   []string  `yaml:"agents,omitempty"`
	Template string    `yaml:"template,omitempty"`
	Total    int       `yaml:"total,omitempty"`
	Segments []Segment `yaml:"segments,omitempty"`
	Context  string    `yaml:"context,omitempty"`
}

// Plan is one parsed intervention plan file.
type Plan struct {
	Name           string          `yaml:"name"`
	Description    string          `yaml:"description,omitempty"`
	Type           string          `yaml:"type,omitempty"`
	Variants       []Variant       `yaml:"variants"`
	SuccessMetrics []SuccessMetric `yaml:"success_metrics,omitempty"`
	Population     Population      `yaml:"population"`
	Concurrency    int             `yaml:"concurrency,omitempty"`
	MaxRounds      int             `yaml:"max_rounds,omitempty"`
}

// Load parses and validates a plan file from the given path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan file: %w", err)
	}
	if p.Type == "" {
		p.Type = string(controller.TypeSingleMessage)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Plan) validate() error {
	if p.Name == "" {
		return fmt.Errorf("plan name is required")
	}
	if len(p.Variants) == 0 {
		return fmt.Errorf("plan %q declares no variants", p.Name)
	}

	switch controller.InterventionType(p.Type) {
	case controller.TypeSingleMessage, controller.TypeCampaignSequence,
		controller.TypeProductFeature, controller.TypePolicySimulation:
	default:
		return fmt.Errorf("plan %q: unknown intervention type %q", p.Name, p.Type)
	}

	seen := make(map[string]bool)
	for i, v := range p.Variants {
		if v.Name == "" {
			return fmt.Errorf("variant %d: name is required", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("variant %q: duplicate name", v.Name)
		}
		seen[v.Name] = true
		if v.Content == "" {
			return fmt.Errorf("variant %q: content is required", v.Name)
		}
		if v.Weight < 1 || v.Weight > 100 {
			return fmt.Errorf("variant %q: weight must be within 1-100, got %d", v.Name, v.Weight)
		}
	}

	if len(p.Population.Agents) == 0 && p.Population.Total <= 0 {
		return fmt.Errorf("plan %q: population needs agent names or a generation total", p.Name)
	}
	for _, s := range p.Population.Segments {
		if s.Name == "" {
			return fmt.Errorf("plan %q: segment name is required", p.Name)
		}
		if s.Percentage < 0 || s.Percentage > 100 {
			return fmt.Errorf("segment %q: percentage must be within 0-100, got %v", s.Name, s.Percentage)
		}
	}
	return nil
}

// InterventionRequest converts the plan into a create request for the
// intervention controller.
func (p *Plan) InterventionRequest() controller.CreateInterventionRequest {
	variants := make([]controller.Variant, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = controller.Variant{
			ID:        v.ID,
			Name:      v.Name,
			Content:   v.Content,
			Channel:   v.Channel,
			Timing:    v.Timing,
			Weight:    v.Weight,
			MediaType: v.MediaType,
		}
	}

	metrics := make([]controller.SuccessMetric, len(p.SuccessMetrics))
	for i, m := range p.SuccessMetrics {
		metrics[i] = controller.SuccessMetric{
			Name:        m.Name,
			Description: m.Description,
			Type:        m.Type,
			Target:      m.Target,
			Enabled:     true,
		}
	}

	return controller.CreateInterventionRequest{
		Name:               p.Name,
		Description:        p.Description,
		Type:               controller.InterventionType(p.Type),
		Variants:           variants,
		SuccessMetrics:     metrics,
		TargetPopulationID: p.Population.ID,
	}
}

// SegmentSpecs converts the plan's segments for the population controller.
func (p *Plan) SegmentSpecs() []controller.SegmentSpec {
	specs := make([]controller.SegmentSpec, len(p.Population.Segments))
	for i, s := range p.Population.Segments {
		specs[i] = controller.SegmentSpec{
			Name:            s.Name,
			Percentage:      s.Percentage,
			AgeRange:        s.AgeRange,
			IncomeLevel:     s.IncomeLevel,
			Location:        s.Location,
			Particularities: s.Particularities,
			Fragments:       s.Fragments,
		}
	}
	return specs
}
