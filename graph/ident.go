package graph

import "strings"

// uriSafe reports whether r belongs to the restricted identifier alphabet
// [A-Za-z0-9-_.]. Everything else, whitespace included, is stripped.
func uriSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	}
	return false
}

// stripUnsafe removes every rune outside the restricted identifier alphabet.
func stripUnsafe(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if uriSafe(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonicalize normalizes free-form text into a stable lowercase token used
// for dedup keys and Turtle local names. Total over all inputs (the empty
// string is a valid, degenerate result) and idempotent.
func Canonicalize(text string) string {
	return strings.ToLower(stripUnsafe(text))
}

// BuildURI joins a scheme prefix and an entity ID into a URI, stripping
// whitespace and unsafe characters from the ID. Case is preserved.
func BuildURI(prefix, entityID string) string {
	return prefix + ":" + stripUnsafe(entityID)
}
