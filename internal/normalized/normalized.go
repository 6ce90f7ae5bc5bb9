// Package normalized implements the canonical vanity-path string form
// ([Normalized]) and the validated redirect-destination URL form ([Link]).
package normalized

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalized is a canonicalized vanity path: Unicode-NFKC-folded, with
// control and whitespace runes dropped, lowercased. Two inputs that differ
// only by compatibility-equivalent glyphs, case, or whitespace compare
// equal once normalized.
type Normalized struct {
	value string
}

// New normalizes s into its canonical form. This always succeeds.
func New(s string) Normalized {
	folded := norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}

	return Normalized{value: strings.ToLower(b.String())}
}

// String returns the canonical string this Normalized wraps.
func (n Normalized) String() string {
	return n.value
}

// Compare returns -1, 0, or 1 for lexicographic ordering of the canonical
// strings.
func (n Normalized) Compare(other Normalized) int {
	return strings.Compare(n.value, other.value)
}
