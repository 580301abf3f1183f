package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleID(t *testing.T) {
	id := RuleID("Remover verificação", "prot-sepse")

	assert.Len(t, id, 12)
	assert.Regexp(t, "^[0-9a-f]{12}$", id)

	// Same inputs, same ID.
	assert.Equal(t, id, RuleID("Remover verificação", "prot-sepse"))

	// Either component changing changes the ID.
	assert.NotEqual(t, id, RuleID("Remover verificação", "prot-avc"))
	assert.NotEqual(t, id, RuleID("Outro texto", "prot-sepse"))
}

func TestBuildRules(t *testing.T) {
	entries := []FeedbackEntry{
		{
			SuggestionID: "SUG-002",
			Comment:      "Remover verificação de pressão arterial",
			Text:         "Remover verificação de pressão arterial",
			ProtocolID:   "prot-sepse-adulto",
			ModelID:      "anthropic/claude-sonnet-4.5",
			Timestamp:    "2025-11-20 14:30",
		},
		{
			SuggestionID: "SUG-003",
			Comment:      "Já consta no playbook, tooltip já explica",
			Text:         "Já consta no playbook, tooltip já explica",
			ProtocolID:   "prot-sepse-adulto",
			ModelID:      "anthropic/claude-sonnet-4.5",
			Timestamp:    "2025-11-20 14:30",
		},
	}

	rules := BuildRules(entries)
	require.Len(t, rules, 2)

	for i, r := range rules {
		assert.Equal(t, RuleID(entries[i].Text, entries[i].ProtocolID), r.RuleID)
		assert.Equal(t, DecisionRejected, r.Decision)
		assert.Equal(t, entries[i].SuggestionID, r.SuggestionID)
		assert.Equal(t, entries[i].Timestamp, r.Timestamp)
	}
	assert.Equal(t, []string{"fora_playbook", "tooltip"}, rules[1].Keywords)
}

func TestBuildRules_IDIndependentOfMetadata(t *testing.T) {
	base := FeedbackEntry{
		SuggestionID: "SUG-001",
		Text:         "Mesmo texto",
		ProtocolID:   "prot-1",
		ModelID:      "model-a",
		Timestamp:    "2025-11-20 14:30",
	}
	variant := base
	variant.SuggestionID = "SUG-099"
	variant.ModelID = "model-b"
	variant.Timestamp = "2025-12-01 08:00"

	rules := BuildRules([]FeedbackEntry{base, variant})
	require.Len(t, rules, 2)
	assert.Equal(t, rules[0].RuleID, rules[1].RuleID)
}

func TestBuildRules_Defaults(t *testing.T) {
	rules := BuildRules([]FeedbackEntry{{Comment: "texto sem metadados"}})
	require.Len(t, rules, 1)

	assert.Equal(t, "texto sem metadados", rules[0].Text)
	assert.Equal(t, "unknown", rules[0].ProtocolID)
	assert.Equal(t, "unknown", rules[0].ModelID)
	assert.Equal(t, "unknown", rules[0].SuggestionID)
}

func TestBuildRules_Empty(t *testing.T) {
	assert.Empty(t, BuildRules(nil))
}
