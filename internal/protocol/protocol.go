// Package protocol handles Daktus Studio protocol documents: metadata
// access, semantic version arithmetic, and output filename generation.
package protocol

// Protocol is a clinical protocol document as exported by Daktus Studio.
// Only the metadata block is interpreted; the decision-tree payload is
// carried through untouched.
type Protocol map[string]any

// Metadata returns the metadata block, or nil when absent.
func (p Protocol) Metadata() map[string]any {
	m, _ := p["metadata"].(map[string]any)
	return m
}

// Company returns metadata.company, defaulting to "unknown".
func (p Protocol) Company() string {
	return p.metadataString("company", "unknown")
}

// Name returns metadata.name, defaulting to "protocol".
func (p Protocol) Name() string {
	return p.metadataString("name", "protocol")
}

func (p Protocol) metadataString(key, fallback string) string {
	if v, ok := p.Metadata()[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
