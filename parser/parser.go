// Package parser turns document files into plain-text units sized for
// individual extraction passes.
package parser

import "context"

// Unit is one extractable chunk of text from a document.
type Unit struct {
	Label string // human-readable origin: "paragraph 3", "page 2", a sheet name
	Text  string
}

// Parser can parse a specific document format into text units.
type Parser interface {
	Parse(ctx context.Context, path string) ([]Unit, error)
	SupportedFormats() []string
}
