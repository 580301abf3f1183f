package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/daktuslabs/daktus-qa-agent/internal/memory"

// Config configures the memory engine.
type Config struct {
	// Path is the structured memory markdown file.
	Path string

	// SimilarityThreshold is the minimum lexical similarity for a
	// suggestion to be filtered against a rejected rule.
	SimilarityThreshold float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Path:                "memory_qa.md",
		SimilarityThreshold: 0.85,
	}
}

// reinforcementThreshold is the similarity above which a suggestion is
// marked as reinforced by a previously accepted rule.
const reinforcementThreshold = 0.8

// InitResult summarizes one mining run over the feedback history.
type InitResult struct {
	// RunID identifies this run in logs.
	RunID string

	// Extracted is the number of rejected suggestions mined from the log.
	Extracted int

	// NewRules is the number of rules appended; re-running over unchanged
	// input yields 0 because rule IDs are content-addressed.
	NewRules int

	// TotalRules is the size of the merged RULES_REJECTED block.
	TotalRules int
}

// FilterMatch records why one suggestion was filtered or reinforced.
type FilterMatch struct {
	SuggestionID string  `json:"suggestion_id"`
	RuleID       string  `json:"rule_id"`
	Similarity   float64 `json:"similarity_score,omitempty"`
	Reason       string  `json:"reason"`
}

// FilterReport is the debug summary of one FilterSuggestions call.
type FilterReport struct {
	FilteredCount   int           `json:"filtered_count"`
	ExactMatches    []FilterMatch `json:"exact_matches"`
	SemanticMatches []FilterMatch `json:"semantic_matches"`
	Reinforced      []FilterMatch `json:"reinforced_by_memory"`
}

// Engine owns the structured memory file.
//
// All mutating operations hold an internal mutex across their full
// read-modify-write sequence, so a single Engine instance is safe for
// concurrent use. The file itself has no cross-process lock: concurrent
// writers in separate processes can still lose updates, and callers are
// expected to run a single writer per memory file.
type Engine struct {
	config *Config
	logger *zap.Logger

	tracer          trace.Tracer
	meter           metric.Meter
	minedCounter    metric.Int64Counter
	filteredCounter metric.Int64Counter

	mu            sync.Mutex
	rulesAccepted []Rule
	rulesRejected []Rule
	vectorIndex   []map[string]any
}

// NewEngine creates a memory engine for the given file.
func NewEngine(cfg *Config, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}
	if cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold > 1 {
		return nil, ErrInvalidThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		config: cfg,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	e.initMetrics()

	return e, nil
}

func (e *Engine) initMetrics() {
	var err error

	e.minedCounter, err = e.meter.Int64Counter(
		"daktusqa.memory.rules_mined_total",
		metric.WithDescription("Total number of rules mined from feedback history"),
		metric.WithUnit("{rule}"),
	)
	if err != nil {
		e.logger.Warn("failed to create mined counter", zap.Error(err))
	}

	e.filteredCounter, err = e.meter.Int64Counter(
		"daktusqa.memory.suggestions_filtered_total",
		metric.WithDescription("Total number of suggestions filtered by memory rules"),
		metric.WithUnit("{suggestion}"),
	)
	if err != nil {
		e.logger.Warn("failed to create filtered counter", zap.Error(err))
	}
}

// InitializeFromHistory mines the feedback history in the memory file into
// rejected rules and merges them into the RULES_REJECTED block.
//
// The merge is a union keyed by rule_id: existing rules are kept verbatim
// and only unseen IDs are appended, so the operation is idempotent. A
// missing file is treated as empty input. The whole file is rewritten on
// every run.
func (e *Engine) InitializeFromHistory(ctx context.Context) (*InitResult, error) {
	ctx, span := e.tracer.Start(ctx, "memory.initialize")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	runID := uuid.New().String()
	span.SetAttributes(attribute.String("run_id", runID))
	log := e.logger.With(zap.String("run_id", runID), zap.String("path", e.config.Path))

	content, err := e.readFile()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	entries := ExtractRejectedSuggestions(content)
	fresh := BuildRules(entries)
	log.Info("extracted rejected suggestions", zap.Int("count", len(entries)))

	hasRejected := strings.Contains(content, "### "+sectionRulesRejected)
	hasAccepted := strings.Contains(content, "### "+sectionRulesAccepted)

	merged := make([]any, 0, len(fresh))
	newCount := len(fresh)

	if hasRejected {
		if raw, found := extractJSONBlock(content, sectionRulesRejected); found {
			existing, decodeErr := decodeRules(raw)
			if decodeErr != nil {
				// Prior rules are unrecoverable; this drops them, so say so.
				log.Warn("existing RULES_REJECTED block is not valid JSON, rebuilding from mined rules only",
					zap.Error(decodeErr))
				for _, r := range fresh {
					merged = append(merged, r)
				}
			} else {
				existingIDs := make(map[string]struct{}, len(existing))
				for _, m := range existing {
					if id, ok := m["rule_id"].(string); ok {
						existingIDs[id] = struct{}{}
					}
					merged = append(merged, m)
				}
				newCount = 0
				for _, r := range fresh {
					if _, ok := existingIDs[r.RuleID]; !ok {
						merged = append(merged, r)
						newCount++
					}
				}
			}
		} else {
			log.Warn("RULES_REJECTED heading present but fenced block not found, rebuilding from mined rules only")
			for _, r := range fresh {
				merged = append(merged, r)
			}
		}
	} else {
		for _, r := range fresh {
			merged = append(merged, r)
		}
	}

	rejectedJSON, err := marshalJSON(merged)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to serialize rules: %w", err)
	}

	var newContent string
	switch {
	case !hasRejected && !hasAccepted:
		newContent = renderDocument("[]", rejectedJSON, "[]", historyContent(content))
	case hasRejected:
		replaced, ok := replaceJSONBlock(content, sectionRulesRejected, rejectedJSON)
		if !ok {
			log.Warn("could not replace RULES_REJECTED block in place, leaving file unchanged")
			replaced = content
		}
		newContent = replaced
	default:
		newContent = insertRejectedBlock(content, rejectedJSON)
	}

	if err := writeFileAtomic(e.config.Path, newContent); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to write memory file: %w", err)
	}

	if e.minedCounter != nil {
		e.minedCounter.Add(ctx, int64(newCount))
	}

	result := &InitResult{
		RunID:      runID,
		Extracted:  len(entries),
		NewRules:   newCount,
		TotalRules: len(merged),
	}

	log.Info("memory engine initialized",
		zap.Int("extracted", result.Extracted),
		zap.Int("new_rules", result.NewRules),
		zap.Int("total_rules", result.TotalRules),
	)
	span.SetAttributes(
		attribute.Int("new_rules", result.NewRules),
		attribute.Int("total_rules", result.TotalRules),
	)

	return result, nil
}

// Load reads the structured sections from the memory file into the engine.
// A missing file initializes empty state; a malformed section is logged
// and treated as empty rather than aborting the load.
func (e *Engine) Load(ctx context.Context) error {
	_, span := e.tracer.Start(ctx, "memory.load")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.rulesAccepted = nil
	e.rulesRejected = nil
	e.vectorIndex = nil

	content, err := e.readFile()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if content == "" {
		e.logger.Info("memory file does not exist, starting empty", zap.String("path", e.config.Path))
		return nil
	}

	e.rulesAccepted = e.loadRuleSection(content, sectionRulesAccepted)
	e.rulesRejected = e.loadRuleSection(content, sectionRulesRejected)

	if raw, found := extractJSONBlock(content, sectionVectorIndex); found {
		if err := jsonUnmarshal(raw, &e.vectorIndex); err != nil {
			e.logger.Warn("failed to parse VECTOR_INDEX", zap.Error(err))
			e.vectorIndex = nil
		}
	}

	e.logger.Info("memory loaded",
		zap.Int("accepted", len(e.rulesAccepted)),
		zap.Int("rejected", len(e.rulesRejected)),
	)
	return nil
}

func (e *Engine) loadRuleSection(content, section string) []Rule {
	raw, found := extractJSONBlock(content, section)
	if !found {
		return nil
	}
	var rules []Rule
	if err := jsonUnmarshal(raw, &rules); err != nil {
		e.logger.Warn("failed to parse rule section",
			zap.String("section", section), zap.Error(err))
		return nil
	}
	return rules
}

// Save rewrites the memory file from the engine's in-memory state,
// preserving the free-text history section. The write is atomic (temp
// file plus rename) so a crash never leaves a truncated memory file.
func (e *Engine) Save(ctx context.Context) error {
	_, span := e.tracer.Start(ctx, "memory.save")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	content, err := e.readFile()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	acceptedJSON, err := marshalJSON(nonNilRules(e.rulesAccepted))
	if err != nil {
		return fmt.Errorf("failed to serialize accepted rules: %w", err)
	}
	rejectedJSON, err := marshalJSON(nonNilRules(e.rulesRejected))
	if err != nil {
		return fmt.Errorf("failed to serialize rejected rules: %w", err)
	}
	vector := e.vectorIndex
	if vector == nil {
		vector = []map[string]any{}
	}
	vectorJSON, err := marshalJSON(vector)
	if err != nil {
		return fmt.Errorf("failed to serialize vector index: %w", err)
	}

	newContent := renderDocument(acceptedJSON, rejectedJSON, vectorJSON, historyContent(content))

	if err := writeFileAtomic(e.config.Path, newContent); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to write memory file: %w", err)
	}

	e.logger.Info("memory saved",
		zap.Int("accepted", len(e.rulesAccepted)),
		zap.Int("rejected", len(e.rulesRejected)),
	)
	return nil
}

// RegisterFeedback records one user verdict as a structured rule. A rule
// with the same content-addressed ID replaces its predecessor in the same
// decision list, so repeated feedback on identical text does not pile up.
func (e *Engine) RegisterFeedback(ctx context.Context, sug Suggestion, decision Decision, comment, protocolID, modelID string) (*Rule, error) {
	_, span := e.tracer.Start(ctx, "memory.register_feedback")
	defer span.End()

	if decision != DecisionAccepted && decision != DecisionRejected {
		return nil, ErrInvalidDecision
	}
	text := sug.Text()
	if text == "" {
		return nil, ErrEmptySuggestion
	}
	if protocolID == "" {
		protocolID = "unknown"
	}
	if modelID == "" {
		modelID = "unknown"
	}
	suggestionID := sug.ID
	if suggestionID == "" {
		suggestionID = "unknown"
	}

	rule := Rule{
		RuleID:       RuleID(text, protocolID),
		Text:         text,
		Decision:     decision,
		ProtocolID:   protocolID,
		ModelID:      modelID,
		Comment:      comment,
		Timestamp:    time.Now().Format(time.RFC3339),
		Keywords:     ExtractKeywords(text),
		SuggestionID: suggestionID,
		Category:     sug.Category,
		Priority:     sug.Priority,
	}

	e.mu.Lock()
	if decision == DecisionAccepted {
		e.rulesAccepted = upsertRule(e.rulesAccepted, rule)
	} else {
		e.rulesRejected = upsertRule(e.rulesRejected, rule)
	}
	e.mu.Unlock()

	e.logger.Info("registered feedback rule",
		zap.String("rule_id", rule.RuleID),
		zap.String("suggestion_id", suggestionID),
		zap.String("decision", string(decision)),
	)
	span.SetAttributes(
		attribute.String("rule_id", rule.RuleID),
		attribute.String("decision", string(decision)),
	)

	return &rule, nil
}

// FilterSuggestions drops suggestions matching previously rejected rules.
//
// Two filters run in order: exact match on normalized text (including
// substring containment for texts longer than 20 characters), then lexical
// similarity against each rejected rule at the configured threshold.
// Surviving suggestions similar to an accepted rule are marked as
// reinforced but never dropped. Suggestions without text pass through;
// filtering must never invent a rejection.
func (e *Engine) FilterSuggestions(ctx context.Context, suggestions []Suggestion) ([]Suggestion, *FilterReport) {
	ctx, span := e.tracer.Start(ctx, "memory.filter_suggestions")
	defer span.End()

	report := &FilterReport{
		ExactMatches:    []FilterMatch{},
		SemanticMatches: []FilterMatch{},
		Reinforced:      []FilterMatch{},
	}
	if len(suggestions) == 0 {
		return []Suggestion{}, report
	}

	e.mu.Lock()
	rejected := append([]Rule(nil), e.rulesRejected...)
	accepted := append([]Rule(nil), e.rulesAccepted...)
	e.mu.Unlock()

	kept := make([]Suggestion, 0, len(suggestions))

	for _, sug := range suggestions {
		text := sug.Text()
		if text == "" {
			kept = append(kept, sug)
			continue
		}

		if match := exactMatch(text, rejected); match != nil {
			report.ExactMatches = append(report.ExactMatches, FilterMatch{
				SuggestionID: sug.ID,
				RuleID:       match.RuleID,
				Reason:       "exact_match",
			})
			report.FilteredCount++
			e.logger.Debug("filtered suggestion by exact match",
				zap.String("suggestion_id", sug.ID),
				zap.String("rule_id", match.RuleID),
			)
			continue
		}

		if match, score := bestSimilarity(text, rejected); match != nil && score >= e.config.SimilarityThreshold {
			report.SemanticMatches = append(report.SemanticMatches, FilterMatch{
				SuggestionID: sug.ID,
				RuleID:       match.RuleID,
				Similarity:   score,
				Reason:       "lexical_similarity",
			})
			report.FilteredCount++
			e.logger.Debug("filtered suggestion by similarity",
				zap.String("suggestion_id", sug.ID),
				zap.String("rule_id", match.RuleID),
				zap.Float64("score", score),
			)
			continue
		}

		if match, score := bestSimilarity(text, accepted); match != nil && score >= reinforcementThreshold {
			report.Reinforced = append(report.Reinforced, FilterMatch{
				SuggestionID: sug.ID,
				RuleID:       match.RuleID,
				Similarity:   score,
				Reason:       "reinforced_by_memory",
			})
		}

		kept = append(kept, sug)
	}

	if e.filteredCounter != nil {
		e.filteredCounter.Add(ctx, int64(report.FilteredCount))
	}
	e.logger.Info("memory filtering complete",
		zap.Int("input", len(suggestions)),
		zap.Int("kept", len(kept)),
		zap.Int("filtered", report.FilteredCount),
		zap.Int("exact", len(report.ExactMatches)),
		zap.Int("semantic", len(report.SemanticMatches)),
	)
	span.SetAttributes(
		attribute.Int("input", len(suggestions)),
		attribute.Int("filtered", report.FilteredCount),
	)

	return kept, report
}

// AcceptedRules returns a copy of the accepted rules.
func (e *Engine) AcceptedRules() []Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Rule(nil), e.rulesAccepted...)
}

// RejectedRules returns a copy of the rejected rules.
func (e *Engine) RejectedRules() []Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Rule(nil), e.rulesRejected...)
}

// exactMatch reports the first rejected rule whose normalized text equals
// the suggestion, or contains/is contained by it when both are longer
// than 20 characters.
func exactMatch(text string, rules []Rule) *Rule {
	normalized := normalizeText(text)

	for i := range rules {
		normalizedRule := normalizeText(rules[i].Text)

		if normalized == normalizedRule {
			return &rules[i]
		}
		if len(normalized) > 20 && len(normalizedRule) > 20 {
			if strings.Contains(normalized, normalizedRule) || strings.Contains(normalizedRule, normalized) {
				return &rules[i]
			}
		}
	}
	return nil
}

// bestSimilarity returns the rule most similar to the text and its score.
func bestSimilarity(text string, rules []Rule) (*Rule, float64) {
	var best *Rule
	bestScore := 0.0

	for i := range rules {
		score := lexicalSimilarity(text, rules[i].Text)
		if score > bestScore {
			bestScore = score
			best = &rules[i]
		}
	}
	return best, bestScore
}

func upsertRule(rules []Rule, rule Rule) []Rule {
	out := rules[:0]
	for _, r := range rules {
		if r.RuleID != rule.RuleID {
			out = append(out, r)
		}
	}
	return append(out, rule)
}

func nonNilRules(rules []Rule) []Rule {
	if rules == nil {
		return []Rule{}
	}
	return rules
}

// readFile returns the memory file content, treating a missing file as
// empty input.
func (e *Engine) readFile() (string, error) {
	data, err := os.ReadFile(e.config.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read memory file: %w", err)
	}
	return string(data), nil
}

// writeFileAtomic writes content to a temp file in the target directory
// and renames it over the destination.
func writeFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
