package domain

import "time"

// InvalidationStrategy identifies how a cache invalidation was performed.
type InvalidationStrategy string

const (
	StrategySelective     InvalidationStrategy = "selective"
	StrategyComplete      InvalidationStrategy = "complete"
	StrategyCriteriaBased InvalidationStrategy = "criteria-based"
)

// InvalidationResult reports the outcome of a cache invalidation. Failures
// are carried in Errors rather than returned; invalidation never panics.
type InvalidationResult struct {
	Success          bool                 `json:"success"`
	InvalidatedCount int                  `json:"invalidatedCount"`
	RefreshedCount   int                  `json:"refreshedCount"`
	Errors           []string             `json:"errors,omitempty"`
	Strategy         InvalidationStrategy `json:"strategy"`
	Recovered        bool                 `json:"recovered,omitempty"`
	Timestamp        time.Time            `json:"timestamp"`
}

// AddError records a failure and marks the result unsuccessful.
func (r *InvalidationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Success = false
}
