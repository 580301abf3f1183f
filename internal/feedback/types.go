// Package feedback persists structured review sessions as JSON files
// partitioned by month and aggregates them into relevance statistics.
package feedback

import "errors"

// Common errors for feedback storage operations.
var (
	ErrEmptyBasePath = errors.New("feedback base path cannot be empty")
	ErrNilSession    = errors.New("session cannot be nil")
	ErrStoreClosed   = errors.New("feedback store is closed")
)

// Verdicts a reviewer can attach to one suggestion.
const (
	VerdictRelevant   = "relevant"
	VerdictIrrelevant = "irrelevant"
)

// Session is one feedback session as stored on disk. Sessions are
// schema-light JSON objects: the store guarantees only session_id and
// timestamp, everything else is carried through untouched so collectors
// can evolve the payload without breaking old files.
type Session map[string]any

// ID returns the session_id field, or "" when unset.
func (s Session) ID() string {
	return s.stringField("session_id")
}

// Timestamp returns the timestamp field, or "" when unset.
func (s Session) Timestamp() string {
	return s.stringField("timestamp")
}

// ProtocolName returns the protocol_name field, or "" when unset.
func (s Session) ProtocolName() string {
	return s.stringField("protocol_name")
}

// ModelUsed returns the model_used field, or "" when unset.
func (s Session) ModelUsed() string {
	return s.stringField("model_used")
}

// QualityRating returns the quality_rating field; ok is false when the
// field is absent or not numeric.
func (s Session) QualityRating() (float64, bool) {
	switch v := s["quality_rating"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// SuggestionsFeedback returns the per-suggestion verdicts. JSON decoding
// yields []any, so entries that are not objects are skipped.
func (s Session) SuggestionsFeedback() []map[string]any {
	raw, ok := s["suggestions_feedback"].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func (s Session) stringField(key string) string {
	v, _ := s[key].(string)
	return v
}

// clone returns a shallow copy so query results can be narrowed without
// mutating the loaded session.
func (s Session) clone() Session {
	out := make(Session, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// LoadFilter narrows which stored sessions are loaded. Zero values mean
// no filtering on that field.
type LoadFilter struct {
	// Month restricts loading to one partition, e.g. "202512".
	Month string

	// ProtocolName matches the session's protocol_name field exactly.
	ProtocolName string

	// ModelUsed matches the session's model_used field exactly.
	ModelUsed string
}

// QueryFilter selects sessions and narrows their suggestion feedback.
type QueryFilter struct {
	// Verdict keeps only suggestion feedback with this user_verdict.
	Verdict string

	// SuggestionCategory keeps only suggestion feedback in this category.
	SuggestionCategory string

	// MinQualityRating drops sessions rated below this value; sessions
	// without a rating are dropped too. Nil disables the filter.
	MinQualityRating *float64
}

// CategoryCount is one entry of the most-rejected-categories ranking.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Statistics aggregates stored feedback. Rates are percentages over all
// suggestion verdicts, rounded to two decimals.
type Statistics struct {
	TotalSessions          int             `json:"total_sessions"`
	AvgQualityRating       float64         `json:"avg_quality_rating"`
	RelevantRate           float64         `json:"relevant_rate"`
	IrrelevantRate         float64         `json:"irrelevant_rate"`
	MostRejectedCategories []CategoryCount `json:"most_rejected_categories"`
}
