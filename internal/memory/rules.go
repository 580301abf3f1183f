package memory

// BuildRules folds mined feedback entries into rejected rules.
//
// Each entry becomes one rule: the rule ID is content-addressed on
// (text, protocol) so re-running extraction over unchanged input produces
// identical IDs, and keywords are derived from the comment via the static
// tagging vocabulary. Decision is fixed to "rejected"; the miner only sees
// the rejection log.
func BuildRules(entries []FeedbackEntry) []Rule {
	rules := make([]Rule, 0, len(entries))

	for _, e := range entries {
		text := e.Text
		if text == "" {
			text = e.Comment
		}
		protocolID := e.ProtocolID
		if protocolID == "" {
			protocolID = "unknown"
		}
		modelID := e.ModelID
		if modelID == "" {
			modelID = "unknown"
		}
		suggestionID := e.SuggestionID
		if suggestionID == "" {
			suggestionID = "unknown"
		}

		rules = append(rules, Rule{
			RuleID:       RuleID(text, protocolID),
			Text:         text,
			Decision:     DecisionRejected,
			ProtocolID:   protocolID,
			ModelID:      modelID,
			Comment:      e.Comment,
			Timestamp:    e.Timestamp,
			Keywords:     ExtractKeywords(text),
			SuggestionID: suggestionID,
		})
	}

	return rules
}
