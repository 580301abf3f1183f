package memory

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONBlock(t *testing.T) {
	doc := renderDocument("[]", `[{"rule_id": "abc"}]`, "[]", "## Feedback Histórico\n\nhistória antiga")

	raw, found := extractJSONBlock(doc, sectionRulesRejected)
	require.True(t, found)
	assert.Equal(t, `[{"rule_id": "abc"}]`, raw)

	raw, found = extractJSONBlock(doc, sectionRulesAccepted)
	require.True(t, found)
	assert.Equal(t, "[]", raw)

	_, found = extractJSONBlock(doc, "NO_SUCH_SECTION")
	assert.False(t, found)
}

func TestExtractJSONBlock_BlankLineAfterHeading(t *testing.T) {
	doc := "### RULES_REJECTED\n\n```json\n[1, 2]\n```\n"

	raw, found := extractJSONBlock(doc, sectionRulesRejected)
	require.True(t, found)
	assert.Equal(t, "[1, 2]", raw)
}

func TestReplaceJSONBlock(t *testing.T) {
	doc := renderDocument("[]", "[]", "[]", "")

	replaced, ok := replaceJSONBlock(doc, sectionRulesRejected, `[{"rule_id": "xyz"}]`)
	require.True(t, ok)

	raw, found := extractJSONBlock(replaced, sectionRulesRejected)
	require.True(t, found)
	assert.Equal(t, `[{"rule_id": "xyz"}]`, raw)

	// The other sections are untouched.
	raw, found = extractJSONBlock(replaced, sectionRulesAccepted)
	require.True(t, found)
	assert.Equal(t, "[]", raw)

	_, ok = replaceJSONBlock(doc, "NO_SUCH_SECTION", "[]")
	assert.False(t, ok)
}

func TestInsertRejectedBlock(t *testing.T) {
	doc := "# Memory QA\n\n### RULES_ACCEPTED\n```json\n[]\n```\n\n## Feedback Histórico\n\nconteúdo\n"

	out := insertRejectedBlock(doc, "[]")

	raw, found := extractJSONBlock(out, sectionRulesRejected)
	require.True(t, found)
	assert.Equal(t, "[]", raw)

	// Inserted before the history, not after.
	assert.Less(t,
		strings.Index(out, "### RULES_REJECTED"),
		strings.Index(out, historyHeading),
	)
}

func TestInsertRejectedBlock_NoHistory(t *testing.T) {
	out := insertRejectedBlock("# Memory QA\n", "[]")

	_, found := extractJSONBlock(out, sectionRulesRejected)
	assert.True(t, found)
}

func TestHistoryContent(t *testing.T) {
	withHeading := "prefixo\n\n## Feedback Histórico\n\n## Feedback - 2025-11-20 14:30\n"
	assert.Equal(t, "\n\n## Feedback - 2025-11-20 14:30\n", historyContent(withHeading))

	// Without the heading the whole content is the history.
	assert.Equal(t, "log antigo\n", historyContent("log antigo\n"))
}

func TestMarshalJSON_PreservesNonASCII(t *testing.T) {
	out, err := marshalJSON([]Rule{{
		RuleID:   "abc123def456",
		Text:     "Remover verificação de pressão",
		Decision: DecisionRejected,
		Keywords: []string{},
	}})
	require.NoError(t, err)

	assert.Contains(t, out, "verificação")
	assert.NotContains(t, out, `\u`)
	assert.Contains(t, out, `"keywords": []`)
}

func TestDecodeRules_PreservesUnknownFields(t *testing.T) {
	raw := `[{"rule_id": "abc", "custom_field": 42}]`

	rules, err := decodeRules(raw)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "abc", rules[0]["rule_id"])
	assert.Contains(t, rules[0], "custom_field")
}

func TestRenderDocument_Roundtrip(t *testing.T) {
	rules := []Rule{{
		RuleID:     RuleID("texto", "prot-1"),
		Text:       "texto",
		Decision:   DecisionRejected,
		ProtocolID: "prot-1",
		ModelID:    "unknown",
		Keywords:   []string{},
	}}
	payload, err := marshalJSON(rules)
	require.NoError(t, err)

	doc := renderDocument("[]", payload, "[]", "## Feedback Histórico\n\nantigo")

	raw, found := extractJSONBlock(doc, sectionRulesRejected)
	require.True(t, found)

	var decoded []Rule
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, rules, decoded)

	assert.Contains(t, doc, historyHeading)
	assert.Contains(t, doc, "antigo")
}
