// Package applicator will apply accepted improvement suggestions to a
// protocol through an LLM backend. The API is settled; the engine behind
// it is not wired yet, so every operation returns ErrNotImplemented.
package applicator

import (
	"context"
	"errors"

	"github.com/daktuslabs/daktus-qa-agent/internal/protocol"
)

// ErrNotImplemented is returned while the auto-apply engine is pending.
var ErrNotImplemented = errors.New("improvement applicator is not implemented")

// ApplyResult is the outcome of applying suggestions to a protocol.
type ApplyResult struct {
	FixedProtocol    protocol.Protocol `json:"fixed_protocol"`
	ChangesDiff      []map[string]any  `json:"changes_diff"`
	ValidationResult map[string]any    `json:"validation_result"`
	CostActual       map[string]any    `json:"cost_actual"`
	Metadata         map[string]any    `json:"metadata"`
}

// Applicator applies improvement suggestions under a cost limit.
type Applicator struct {
	model string
}

// New creates an applicator using the given LLM model identifier.
func New(model string) *Applicator {
	return &Applicator{model: model}
}

// ApplyWithAuthorization estimates cost, requests authorization, and
// applies the suggestions when authorized.
func (a *Applicator) ApplyWithAuthorization(ctx context.Context, p protocol.Protocol, suggestions []map[string]any, costLimit float64) (*ApplyResult, error) {
	return nil, ErrNotImplemented
}
