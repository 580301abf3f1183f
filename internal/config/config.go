// Package config provides configuration loading for the daktus-qa-agent.
package config

import (
	"fmt"

	"github.com/daktuslabs/daktus-qa-agent/internal/logging"
)

// Config is the root configuration for the agent.
type Config struct {
	Memory   MemoryConfig   `koanf:"memory"`
	Feedback FeedbackConfig `koanf:"feedback"`
	Logging  logging.Config `koanf:"logging"`
	Pipeline PipelineConfig `koanf:"pipeline"`
}

// MemoryConfig configures the feedback-rule memory engine.
type MemoryConfig struct {
	// File is the path to the structured memory markdown file.
	File string `koanf:"file"`

	// SimilarityThreshold is the minimum lexical similarity for a
	// suggestion to be filtered against a rejected rule.
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
}

// FeedbackConfig configures the feedback session store.
type FeedbackConfig struct {
	// Path is the base directory for month-partitioned session files.
	Path string `koanf:"path"`
}

// PipelineConfig configures the (not yet implemented) auto-apply pipeline.
type PipelineConfig struct {
	// Model is the LLM model identifier used for auto-apply.
	Model string `koanf:"model"`

	// AutoApply enables automatic application of suggestions.
	AutoApply bool `koanf:"auto_apply"`

	// ConfidenceThreshold is the minimum confidence for auto-applying.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	// CostLimit is the maximum spend per run, in USD.
	CostLimit float64 `koanf:"cost_limit"`
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Memory.File == "" {
		return fmt.Errorf("memory.file must not be empty")
	}
	if c.Memory.SimilarityThreshold < 0 || c.Memory.SimilarityThreshold > 1 {
		return fmt.Errorf("memory.similarity_threshold must be between 0.0 and 1.0, got %v", c.Memory.SimilarityThreshold)
	}
	if c.Feedback.Path == "" {
		return fmt.Errorf("feedback.path must not be empty")
	}
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 1 {
		return fmt.Errorf("pipeline.confidence_threshold must be between 0.0 and 1.0, got %v", c.Pipeline.ConfidenceThreshold)
	}
	if c.Pipeline.CostLimit < 0 {
		return fmt.Errorf("pipeline.cost_limit must not be negative, got %v", c.Pipeline.CostLimit)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Memory.File == "" {
		cfg.Memory.File = "memory_qa.md"
	}
	if cfg.Memory.SimilarityThreshold == 0 {
		cfg.Memory.SimilarityThreshold = 0.85
	}
	if cfg.Feedback.Path == "" {
		cfg.Feedback.Path = "feedback_sessions"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Pipeline.Model == "" {
		cfg.Pipeline.Model = "anthropic/claude-sonnet-4.5"
	}
	if cfg.Pipeline.ConfidenceThreshold == 0 {
		cfg.Pipeline.ConfidenceThreshold = 0.90
	}
}
