// Package validator will check corrected protocols for structural and
// schema integrity before they are written back. Every operation returns
// ErrNotImplemented until the validation rules land.
package validator

import (
	"context"
	"errors"

	"github.com/daktuslabs/daktus-qa-agent/internal/protocol"
)

// ErrNotImplemented is returned while validation is pending.
var ErrNotImplemented = errors.New("protocol validation is not implemented")

// Result reports the outcome of one validation pass.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// StructuralValidator compares a corrected protocol against its original,
// checking node counts, reference integrity, and flow reachability.
type StructuralValidator struct{}

// NewStructuralValidator creates a structural validator.
func NewStructuralValidator() *StructuralValidator {
	return &StructuralValidator{}
}

// Validate checks that the corrected protocol preserves the original's
// structure.
func (v *StructuralValidator) Validate(ctx context.Context, original, corrected protocol.Protocol) (*Result, error) {
	return nil, ErrNotImplemented
}

// SchemaValidator checks a protocol against the Daktus Studio JSON schema.
type SchemaValidator struct {
	schemaPath string
}

// NewSchemaValidator creates a schema validator reading its schema from
// schemaPath.
func NewSchemaValidator(schemaPath string) *SchemaValidator {
	return &SchemaValidator{schemaPath: schemaPath}
}

// Validate checks the protocol against the schema.
func (v *SchemaValidator) Validate(ctx context.Context, p protocol.Protocol) (*Result, error) {
	return nil, ErrNotImplemented
}
