// Package domain implements validated, ACE-encoded domain names ([Domain])
// and a wildcard-aware associative container keyed by them ([Map]).
package domain

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// LabelMaxLen is the maximum length, in octets, of a single domain label.
const LabelMaxLen = 63

// MaxLen is the maximum total serialized length of a [Domain], including a
// wildcard's "*." prefix, excluding the trailing root dot.
const MaxLen = 253

// Label is one ASCII, lowercased, dot-separated component of a domain name
// (an "A-label" in IDNA terminology).
type Label string

// idnaProfile matches the teacher's and the upstream IDNA crate's lenient,
// transitional handling: encode to ASCII without rejecting underscores,
// which links accepts in labels for browser-compatibility reasons (see
// SPEC_FULL.md §4).
var idnaProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(true),
	idna.StrictDomainName(false),
)

// NewLabelACE validates s as an already-ASCII label (a "reference
// identifier" component): non-empty, at most [LabelMaxLen] octets, composed
// only of `[a-z0-9_-]` after lowercasing, and not starting or ending with a
// hyphen. It never performs IDNA encoding or decoding.
func NewLabelACE(s string) (Label, error) {
	lower := strings.ToLower(s)

	if len(lower) == 0 {
		return "", fmt.Errorf("%w: empty label", ErrLabelEmpty)
	}
	if len(lower) > LabelMaxLen {
		return "", fmt.Errorf("%w: label %q is %d octets, max %d", ErrLabelTooLong, lower, len(lower), LabelMaxLen)
	}
	if lower[0] == '-' || lower[len(lower)-1] == '-' {
		return "", fmt.Errorf("%w: label %q starts or ends with a hyphen", ErrInvalidHyphen, lower)
	}

	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if !isLabelChar(c) {
			return "", fmt.Errorf("%w: %q in label %q", ErrInvalidChar, string(c), lower)
		}
	}

	return Label(lower), nil
}

// NewLabelIDN validates and IDNA-encodes s (a "presented identifier"
// component, possibly containing Unicode) into an A-label, then validates
// the result as if by [NewLabelACE].
func NewLabelIDN(s string) (Label, error) {
	ascii, err := idnaProfile.ToASCII(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIDNA, err)
	}

	return NewLabelACE(ascii)
}

func isLabelChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	default:
		return false
	}
}

// toUnicode best-effort decodes an A-label back to its Unicode form for
// display purposes. If decoding fails (the label was never IDNA-encoded,
// e.g. a plain ASCII reference label) the A-label is returned unchanged.
func (l Label) toUnicode() string {
	u, err := idna.ToUnicode(string(l))
	if err != nil {
		return string(l)
	}
	return u
}
