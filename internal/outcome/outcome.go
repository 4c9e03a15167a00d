// Package outcome holds the per-variant results an orchestration produces
// and notifiers consume.
package outcome

import "time"

// Variant run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Variant is the settled result of one variant's simulation run: either a
// success payload or a failure marker, never both.
type Variant struct {
	VariantID    string
	VariantName  string
	Status       string
	SimulationID string         // set on success
	Results      map[string]any // extracted results, set on success
	Participants int            // agents assigned to this variant
	Err          string         // set on failure
}

// Succeeded reports whether the variant's run completed.
func (v Variant) Succeeded() bool {
	return v.Status == StatusSucceeded
}

// Composite is the aggregated result of one intervention run. It is only
// materialized after every variant has settled; Variants keeps declaration
// order regardless of completion order.
type Composite struct {
	RunID            string
	InterventionID   string
	InterventionName string
	Variants         []Variant
	StartedAt        time.Time
	CompletedAt      time.Time
}

// Tally counts settled variants by status.
func (c Composite) Tally() (succeeded, failed int) {
	for _, v := range c.Variants {
		if v.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// AllSucceeded reports whether no variant failed.
func (c Composite) AllSucceeded() bool {
	_, failed := c.Tally()
	return failed == 0
}
