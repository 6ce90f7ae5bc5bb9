package domain

import "strings"

// presentedSeparators are the IDNA-defined label separators accepted (one,
// trailing) when parsing a presented identifier: U+002E FULL STOP, U+3002
// IDEOGRAPHIC FULL STOP, U+FF0E FULLWIDTH FULL STOP, and U+FF61 HALFWIDTH
// IDEOGRAPHIC FULL STOP.
var presentedSeparators = []rune{'.', '。', '．', '｡'}

// Domain is a parsed, validated domain name: a right-to-left sequence of
// labels (most-significant label first) plus a flag marking it as a
// left-most wildcard. Domain values are comparable with ==.
type Domain struct {
	labels   string // labels joined by '\x00', most-significant first
	n        int
	wildcard bool
}

func newDomain(labels []Label, wildcard bool) Domain {
	strs := make([]string, len(labels))
	for i, l := range labels {
		strs[i] = string(l)
	}
	return Domain{labels: strings.Join(strs, "\x00"), n: len(labels), wildcard: wildcard}
}

// Labels returns the domain's labels, most-significant first.
func (d Domain) Labels() []Label {
	if d.n == 0 {
		return nil
	}
	parts := strings.Split(d.labels, "\x00")
	out := make([]Label, len(parts))
	for i, p := range parts {
		out[i] = Label(p)
	}
	return out
}

// IsWildcard reports whether d's left-most label is the wildcard `*`.
func (d Domain) IsWildcard() bool {
	return d.wildcard
}

// Reference parses input as a reference identifier: ASCII-only, wildcards
// rejected, no IDNA decoding or encoding performed. One trailing '.' is
// stripped before parsing.
func Reference(input string) (Domain, error) {
	s := strings.TrimSuffix(input, ".")
	if s == "" {
		return Domain{}, ErrEmpty
	}
	if len(s) > MaxLen {
		return Domain{}, ErrTooLong
	}

	parts := strings.Split(s, ".")
	labels := make([]Label, len(parts))
	for i, p := range parts {
		lbl, err := NewLabelACE(p)
		if err != nil {
			return Domain{}, err
		}
		labels[len(parts)-1-i] = lbl
	}

	return newDomain(labels, false), nil
}

// Presented parses input as a presented identifier: accepts Unicode,
// accepts a left-most `*` wildcard label, and IDNA-encodes every other
// label to an A-label. One trailing separator (see [presentedSeparators])
// is stripped before parsing.
func Presented(input string) (Domain, error) {
	s := stripOneTrailingSeparator(input)
	if s == "" {
		return Domain{}, ErrEmpty
	}

	parts := strings.Split(s, ".")

	wildcard := false
	if parts[0] == "*" {
		wildcard = true
		parts = parts[1:]
	}

	if len(parts) == 0 {
		return Domain{}, ErrEmpty
	}

	labels := make([]Label, len(parts))
	total := 0
	for i, p := range parts {
		lbl, err := NewLabelIDN(p)
		if err != nil {
			return Domain{}, err
		}
		labels[len(parts)-1-i] = lbl
		total += len(lbl)
	}
	total += len(parts) - 1
	if wildcard {
		total += 2
	}
	if total > MaxLen {
		return Domain{}, ErrTooLong
	}

	return newDomain(labels, wildcard), nil
}

func stripOneTrailingSeparator(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	last := r[len(r)-1]
	for _, sep := range presentedSeparators {
		if last == sep {
			return string(r[:len(r)-1])
		}
	}
	return s
}

// Matches reports, per spec, whether self (the reference identifier)
// matches other (a presented identifier): ok is false iff self itself is a
// wildcard, in which case the result is not defined. Otherwise matched is
// true iff other is non-wildcard with equal labels, or other is a wildcard
// whose labels equal self's labels with the least-significant label
// dropped.
func (d Domain) Matches(other Domain) (matched bool, ok bool) {
	if d.wildcard {
		return false, false
	}

	if !other.wildcard {
		return d.labels == other.labels && d.n == other.n, true
	}

	selfLabels := d.Labels()
	if d.n == 0 {
		return false, true
	}
	prefix := newDomain(selfLabels[:d.n-1], false)
	return prefix.labels == other.labels && prefix.n == other.n, true
}

// Compare orders domains lexicographically by label sequence; when labels
// are equal, a wildcard sorts after its non-wildcard twin.
func (d Domain) Compare(other Domain) int {
	dl, ol := d.Labels(), other.Labels()
	for i := 0; i < len(dl) && i < len(ol); i++ {
		if dl[i] != ol[i] {
			if dl[i] < ol[i] {
				return -1
			}
			return 1
		}
	}
	if len(dl) != len(ol) {
		if len(dl) < len(ol) {
			return -1
		}
		return 1
	}
	if d.wildcard == other.wildcard {
		return 0
	}
	if d.wildcard {
		return 1
	}
	return -1
}

// String renders d in display order (least-significant label first), with
// a `*.` prefix if d is a wildcard. Labels are rendered as A-labels.
func (d Domain) String() string {
	return d.render(false)
}

// Unicode renders d like [Domain.String] but decodes each A-label back to
// its Unicode presentation form where possible.
func (d Domain) Unicode() string {
	return d.render(true)
}

func (d Domain) render(unicodeForm bool) string {
	labels := d.Labels()
	parts := make([]string, len(labels))
	for i, l := range labels {
		if unicodeForm {
			parts[i] = l.toUnicode()
		} else {
			parts[i] = string(l)
		}
	}
	// Stored order is most-significant first; display order reverses it.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	var b strings.Builder
	if d.wildcard {
		b.WriteString("*.")
	}
	b.WriteString(strings.Join(parts, "."))
	return b.String()
}
