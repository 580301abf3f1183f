package memory

import "strings"

// keywordRule tags a comment when any of its trigger substrings appears in
// the lower-cased text. Rules are evaluated in fixed order and every
// matching rule contributes its tag, so one comment may carry several tags.
// This follows the ordered-rule-slice pattern of the suggestion filters.
type keywordRule struct {
	tag      string
	triggers []string
}

// keywordRules is the static tagging vocabulary. Triggers cover both the
// accented and unaccented spellings found in historical feedback.
var keywordRules = []keywordRule{
	{tag: "fora_playbook", triggers: []string{"playbook", "não consta", "fora do playbook"}},
	{tag: "tooltip", triggers: []string{"tooltip"}},
	{tag: "autonomia_medica", triggers: []string{"critério médico", "critério medico", "a critério médico"}},
	{tag: "criterios_exclusao", triggers: []string{"critérios de exclusão", "criterios de exclusao"}},
	{tag: "desnecessario", triggers: []string{"desnecessário", "desnecessario"}},
	{tag: "ja_implementado", triggers: []string{"já ocorre", "ja ocorre", "já implementado", "já está"}},
	{tag: "mudanca_estrutural", triggers: []string{"estrutural", "função", "funcao", "daktus studio"}},
	{tag: "contexto_especialista", triggers: []string{"especialista"}},
	{tag: "complexidade_baixo_retorno", triggers: []string{"complexidade", "baixo retorno"}},
}

// ExtractKeywords derives taxonomy tags from a feedback comment.
// Matching is case-insensitive substring containment; tags are returned in
// vocabulary order. A comment matching nothing yields an empty (non-nil)
// list so it serializes as [].
func ExtractKeywords(comment string) []string {
	lower := strings.ToLower(comment)
	keywords := []string{}

	for _, rule := range keywordRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lower, trigger) {
				keywords = append(keywords, rule.tag)
				break
			}
		}
	}

	return keywords
}
