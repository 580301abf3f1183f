// Package costcontrol will track LLM spend per operation and enforce
// user-defined limits. Every operation returns ErrNotImplemented until
// the tracking backend lands.
package costcontrol

import (
	"context"
	"errors"
	"time"
)

// ErrNotImplemented is returned while cost tracking is pending.
var ErrNotImplemented = errors.New("cost tracking is not implemented")

// OperationCost is one recorded LLM call.
type OperationCost struct {
	Operation    string    `json:"operation"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	Timestamp    time.Time `json:"timestamp"`
}

// Limits caps spend per operation, day, and month.
type Limits struct {
	PerOperationUSD float64 `json:"per_operation_usd"`
	DailyUSD        float64 `json:"daily_usd"`
	MonthlyUSD      float64 `json:"monthly_usd"`
}

// Tracker records operation costs and aggregates them over time.
type Tracker struct {
	storagePath string
	limits      Limits
}

// NewTracker creates a cost tracker persisting at storagePath.
func NewTracker(storagePath string, limits Limits) *Tracker {
	return &Tracker{storagePath: storagePath, limits: limits}
}

// Track records the cost of one operation.
func (t *Tracker) Track(ctx context.Context, cost OperationCost) error {
	return ErrNotImplemented
}

// DailyCost sums the recorded spend for one day.
func (t *Tracker) DailyCost(ctx context.Context, day time.Time) (float64, error) {
	return 0, ErrNotImplemented
}

// MonthlyCost sums the recorded spend for one month.
func (t *Tracker) MonthlyCost(ctx context.Context, month time.Time) (float64, error) {
	return 0, ErrNotImplemented
}

// Authorize reports whether an estimated cost fits within the limits.
func (t *Tracker) Authorize(ctx context.Context, estimatedUSD float64) (bool, error) {
	return false, ErrNotImplemented
}
