// Package memory implements the structured feedback memory engine.
//
// The engine owns a single markdown file holding three fenced JSON sections
// (RULES_ACCEPTED, RULES_REJECTED, VECTOR_INDEX) followed by the free-text
// feedback history. It mines historical rejection feedback into
// content-addressed rules, registers new feedback, and filters incoming
// suggestions against the accumulated rules.
package memory

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
)

// Common errors for memory operations.
var (
	ErrEmptyPath        = errors.New("memory file path cannot be empty")
	ErrInvalidDecision  = errors.New("decision must be 'accepted' or 'rejected'")
	ErrEmptySuggestion  = errors.New("suggestion text cannot be empty")
	ErrInvalidThreshold = errors.New("similarity threshold must be between 0.0 and 1.0")
)

// Decision is the user's verdict recorded on a rule.
type Decision string

const (
	// DecisionAccepted marks a suggestion the user accepted.
	DecisionAccepted Decision = "accepted"

	// DecisionRejected marks a suggestion the user rejected.
	DecisionRejected Decision = "rejected"
)

// FeedbackEntry is one rejected suggestion mined from a feedback section of
// the history log. Entries are transient; they are immediately folded into
// rules and never persisted directly.
type FeedbackEntry struct {
	SuggestionID string
	Comment      string
	ProtocolID   string
	ModelID      string
	Timestamp    string
	Text         string
}

// Rule is a content-addressed record distilling one piece of historical
// feedback into reusable filter metadata.
//
// RuleID is a pure function of (Text, ProtocolID): the first 12 hex
// characters of the MD5 digest of "text_protocolID". Two runs over
// unchanged input produce identical IDs, which is what makes the merge
// into the memory file idempotent.
type Rule struct {
	RuleID       string   `json:"rule_id"`
	Text         string   `json:"text"`
	Decision     Decision `json:"decision"`
	ProtocolID   string   `json:"protocol_id"`
	ModelID      string   `json:"model_id"`
	Comment      string   `json:"comment"`
	Timestamp    string   `json:"timestamp"`
	Keywords     []string `json:"keywords"`
	SuggestionID string   `json:"suggestion_id"`
	Category     string   `json:"category,omitempty"`
	Priority     string   `json:"priority,omitempty"`
}

// Suggestion is the subset of an analysis suggestion the engine needs for
// registration and filtering.
type Suggestion struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// Text combines title and description into the text the rule store keys on.
func (s Suggestion) Text() string {
	if s.Title == "" && s.Description == "" {
		return ""
	}
	if s.Title == "" {
		return s.Description
	}
	if s.Description == "" {
		return s.Title + "."
	}
	return s.Title + ". " + s.Description
}

// RuleID computes the stable content-addressed identifier for a rule.
func RuleID(text, protocolID string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s", text, protocolID)))
	return hex.EncodeToString(sum[:])[:12]
}
