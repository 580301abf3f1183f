// Package pipeline orchestrates the full analyze-and-fix flow: protocol
// analysis, memory filtering, auto-apply, validation, and diff reporting.
// The orchestration depends on stages that are not implemented yet, so
// AnalyzeAndFix currently always fails with ErrNotImplemented.
package pipeline

import (
	"context"
	"errors"

	"github.com/daktuslabs/daktus-qa-agent/internal/protocol"
)

// ErrNotImplemented is returned while the correction stages are pending.
var ErrNotImplemented = errors.New("analyze-and-fix pipeline is not implemented")

// Options configures one pipeline run.
type Options struct {
	// ProtocolPath is the protocol JSON file to analyze.
	ProtocolPath string

	// PlaybookPath is the optional clinical playbook to analyze against.
	PlaybookPath string

	// Model is the LLM used for analysis and auto-apply.
	Model string

	// AutoApply applies corrections without manual review.
	AutoApply bool

	// ConfidenceThreshold is the minimum confidence for auto-applying a
	// correction, between 0 and 1.
	ConfidenceThreshold float64

	// CostLimit caps the LLM spend of the run in USD.
	CostLimit float64
}

// Result is the unified outcome of one pipeline run.
type Result struct {
	ProtocolAnalysis       map[string]any    `json:"protocol_analysis"`
	ImprovementSuggestions []map[string]any  `json:"improvement_suggestions"`
	FixedProtocol          protocol.Protocol `json:"fixed_protocol"`
	ChangesDiff            []map[string]any  `json:"changes_diff"`
	ConfidenceScores       map[string]any    `json:"confidence_scores"`
	Metadata               map[string]any    `json:"metadata"`
}

// AnalyzeAndFix runs the full analysis and correction flow.
func AnalyzeAndFix(ctx context.Context, opts Options) (*Result, error) {
	return nil, ErrNotImplemented
}
