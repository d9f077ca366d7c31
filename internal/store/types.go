package store

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// RunRecord is the persisted outcome of one optimizer in one comparison.
// Runs from the same comparison share an ExperimentID.
type RunRecord struct {
	// RunID is the unique identifier for this run
	RunID string `json:"runId"`

	// ExperimentID groups the runs of one comparison
	ExperimentID string `json:"experimentId"`

	// Optimizer is the algorithm name ("ga", "pso", "mayfly")
	Optimizer string `json:"optimizer"`

	// Sense is "maximize" or "minimize"; Value is in this convention
	Sense string `json:"sense"`

	// Best is the best parameter vector (intercept, slope, sigma)
	Best []float64 `json:"best"`

	// Value is the objective value of Best as the optimizer saw it
	Value float64 `json:"value"`

	// LogLikelihood is Value converted back to a log-likelihood
	LogLikelihood float64 `json:"logLikelihood"`

	// Truth is the generating parameter vector, for reference only
	Truth []float64 `json:"truth,omitempty"`

	Seed        int64   `json:"seed"`
	Iterations  int     `json:"iterations"`
	Evaluations int     `json:"evaluations"`
	Degenerate  int     `json:"degenerate"`
	Stabilized  bool    `json:"stabilized"`
	ElapsedSec  float64 `json:"elapsedSec"`

	// Timestamp records when this record was created
	Timestamp time.Time `json:"timestamp"`
}

// RunInfo contains metadata about a run without the parameter data.
// Used for listing runs efficiently.
type RunInfo struct {
	RunID         string    `json:"runId"`
	ExperimentID  string    `json:"experimentId"`
	Optimizer     string    `json:"optimizer"`
	LogLikelihood float64   `json:"logLikelihood"`
	Iterations    int       `json:"iterations"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewRunID returns a fresh random identifier for a run or experiment.
func NewRunID() string {
	return uuid.New().String()
}

// ToInfo converts a full RunRecord to RunInfo (metadata only).
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		RunID:         r.RunID,
		ExperimentID:  r.ExperimentID,
		Optimizer:     r.Optimizer,
		LogLikelihood: r.LogLikelihood,
		Iterations:    r.Iterations,
		Timestamp:     r.Timestamp,
	}
}

// Validate checks if the record has valid data.
// Returns an error if any required field is missing or invalid.
func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if r.Optimizer == "" {
		return &ValidationError{Field: "Optimizer", Reason: "cannot be empty"}
	}
	if r.Sense != "maximize" && r.Sense != "minimize" {
		return &ValidationError{Field: "Sense", Reason: "must be maximize or minimize"}
	}
	if len(r.Best) == 0 {
		return &ValidationError{Field: "Best", Reason: "cannot be empty"}
	}
	if r.Truth != nil && len(r.Truth) != len(r.Best) {
		return &ValidationError{Field: "Truth", Reason: "length must match Best"}
	}
	// JSON cannot carry infinities
	if !finite(r.Value) {
		return &ValidationError{Field: "Value", Reason: "must be finite"}
	}
	if !finite(r.LogLikelihood) {
		return &ValidationError{Field: "LogLikelihood", Reason: "must be finite"}
	}
	for _, v := range r.Best {
		if !finite(v) {
			return &ValidationError{Field: "Best", Reason: "must be finite"}
		}
	}
	if r.Iterations < 0 {
		return &ValidationError{Field: "Iterations", Reason: "cannot be negative"}
	}
	if r.Evaluations < 0 {
		return &ValidationError{Field: "Evaluations", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidationError represents a record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
