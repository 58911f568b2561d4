package harness

import (
	"github.com/roach88/novelbackup/internal/engine"
	"github.com/roach88/novelbackup/internal/ir"
)

// StepRecord is the outcome of one step, in step order.
type StepRecord struct {
	Op   string `json:"op"`
	Name string `json:"name"`

	// ErrorCode and Error are set when the step failed.
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`

	// Merge is set for successful merge and augment steps.
	Merge *engine.MergeReport `json:"merge,omitempty"`

	// Change is set for successful replace steps.
	Change *engine.ChangeReport `json:"change,omitempty"`

	// SnapshotSeq and Inserted are set for successful snapshot steps.
	SnapshotSeq int64 `json:"snapshot_seq,omitempty"`
	Inserted    bool  `json:"inserted,omitempty"`
}

// Failed reports whether the step returned an error.
func (r StepRecord) Failed() bool {
	return r.ErrorCode != "" || r.Error != ""
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step either succeeded or failed as asserted,
	// and every assertion held.
	Pass bool `json:"pass"`

	// Steps records each step in execution order.
	Steps []StepRecord `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Documents holds every named document: the scenario inputs plus the
	// result of each successful document-producing step.
	Documents map[string]*ir.Document `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Steps:     []StepRecord{},
		Errors:    []string{},
		Documents: make(map[string]*ir.Document),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Step returns the record of the step named name.
func (r *Result) Step(name string) (StepRecord, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepRecord{}, false
}
