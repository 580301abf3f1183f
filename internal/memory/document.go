package memory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Section names of the structured JSON blocks in the memory file.
const (
	sectionRulesAccepted = "RULES_ACCEPTED"
	sectionRulesRejected = "RULES_REJECTED"
	sectionVectorIndex   = "VECTOR_INDEX"
)

// historyHeading separates the structured sections from the free-text
// feedback history carried over from the original log format.
const historyHeading = "## Feedback Histórico"

// extractJSONBlock pulls the fenced JSON array following "### <section>".
//
// The block is located by fixed delimiters, not structure-aware markdown
// parsing: everything between "### <section>\n```json\n" and the next
// "\n```" is the payload. Returns found=false when the section is absent,
// which callers treat as an empty section rather than an error.
func extractJSONBlock(content, section string) (raw string, found bool) {
	startMarker := fmt.Sprintf("### %s\n```json\n", section)
	start := strings.Index(content, startMarker)
	if start < 0 {
		// Tolerate a blank line between the heading and the fence.
		startMarker = fmt.Sprintf("### %s\n\n```json\n", section)
		start = strings.Index(content, startMarker)
		if start < 0 {
			return "", false
		}
	}
	start += len(startMarker)

	end := strings.Index(content[start:], "\n```")
	if end < 0 {
		return "", false
	}
	return content[start : start+end], true
}

// decodeRules parses a JSON block into loosely-typed rule records. The
// map form preserves fields this version does not know about, so a merge
// never strips data written by another tool.
func decodeRules(raw string) ([]map[string]any, error) {
	var rules []map[string]any
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func jsonUnmarshal(raw string, v any) error {
	return json.Unmarshal([]byte(raw), v)
}

// marshalJSON serializes a value as indented JSON with non-ASCII text
// preserved (the memory file is read by humans and carries Portuguese).
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// replaceJSONBlock swaps the payload of an existing fenced section in
// place, leaving everything around it untouched.
func replaceJSONBlock(content, section, payload string) (string, bool) {
	startMarker := fmt.Sprintf("### %s\n```json\n", section)
	start := strings.Index(content, startMarker)
	if start < 0 {
		startMarker = fmt.Sprintf("### %s\n\n```json\n", section)
		start = strings.Index(content, startMarker)
		if start < 0 {
			return content, false
		}
	}
	bodyStart := start + len(startMarker)

	end := strings.Index(content[bodyStart:], "\n```")
	if end < 0 {
		return content, false
	}

	return content[:bodyStart] + payload + content[bodyStart+end:], true
}

// insertRejectedBlock adds a RULES_REJECTED section to a document that has
// structured sections but not this one: immediately before the history
// heading when present, appended at the end otherwise.
func insertRejectedBlock(content, payload string) string {
	block := fmt.Sprintf("### %s\n```json\n%s\n```", sectionRulesRejected, payload)

	if idx := strings.Index(content, historyHeading); idx >= 0 {
		return content[:idx] + block + "\n\n" + content[idx:]
	}
	return content + "\n\n" + block + "\n"
}

// historyContent extracts the free-text history to carry over into a
// rewritten document: everything after the history heading when present,
// the whole prior content otherwise.
func historyContent(content string) string {
	if idx := strings.Index(content, historyHeading); idx >= 0 {
		return content[idx+len(historyHeading):]
	}
	return content
}

// renderDocument builds the full structured memory document.
func renderDocument(acceptedJSON, rejectedJSON, vectorJSON, history string) string {
	return fmt.Sprintf(`# Memory QA - Feedback e Aprendizados do Agente Daktus QA

Este documento concentra todos os feedbacks e aprendizados do agente para refinar futuras análises.

## Memory Engine V2 - Regras Estruturadas

### %s
`+"```json\n%s\n```"+`

### %s
`+"```json\n%s\n```"+`

### %s
`+"```json\n%s\n```"+`

---

%s

%s
`,
		sectionRulesAccepted, acceptedJSON,
		sectionRulesRejected, rejectedJSON,
		sectionVectorIndex, vectorJSON,
		historyHeading,
		strings.TrimSpace(history),
	)
}
