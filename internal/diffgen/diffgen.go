// Package diffgen will produce human-readable change reports between an
// original protocol and its corrected version. Every operation returns
// ErrNotImplemented until the diff engine lands.
package diffgen

import (
	"context"
	"errors"

	"github.com/daktuslabs/daktus-qa-agent/internal/protocol"
)

// ErrNotImplemented is returned while diff generation is pending.
var ErrNotImplemented = errors.New("diff generation is not implemented")

// Change is one modification between two protocol versions.
type Change struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Before   any    `json:"before,omitempty"`
	After    any    `json:"after,omitempty"`
	NodeName string `json:"node_name,omitempty"`
}

// Generator computes structured diffs between protocol versions.
type Generator struct{}

// New creates a diff generator.
func New() *Generator {
	return &Generator{}
}

// Generate computes the changes from original to corrected.
func (g *Generator) Generate(ctx context.Context, original, corrected protocol.Protocol) ([]Change, error) {
	return nil, ErrNotImplemented
}

// Format renders changes as markdown for review.
func (g *Generator) Format(changes []Change) (string, error) {
	return "", ErrNotImplemented
}
