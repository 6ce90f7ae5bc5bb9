// Package statistic implements the quantized-time request counters:
// [Type], [Time], [Value], [Statistic], and the wildcard query
// description used by the store's statistic operations.
package statistic

import (
	"fmt"
	"math/bits"
)

// Type is a closed enum of the kinds of statistics links collects.
type Type int

const (
	Request Type = iota
	HostRequest
	SniRequest
	StatusCode
	HttpVersion
	TlsVersion
	TlsCipherSuite
	UserAgent
	UserAgentMobile
	UserAgentPlatform
)

var typeNames = [...]string{
	Request:            "request",
	HostRequest:        "host_request",
	SniRequest:         "sni_request",
	StatusCode:         "status_code",
	HttpVersion:        "http_version",
	TlsVersion:         "tls_version",
	TlsCipherSuite:     "tls_cipher_suite",
	UserAgent:          "user_agent",
	UserAgentMobile:    "user_agent_mobile",
	UserAgentPlatform:  "user_agent_platform",
}

// String returns the canonical snake_case name of t.
func (t Type) String() string {
	if int(t) < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// ParseType parses the canonical snake_case name of a statistic type.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("statistic: unknown type %q", s)
}

// Category groups related [Type] values behind a single configuration
// toggle (the `statistics` option, see SPEC_FULL.md §6).
type Category int

const (
	CategoryRedirect Category = iota
	CategoryBasic
	CategoryProtocol
	CategoryUserAgent
)

var categoryNames = [...]string{
	CategoryRedirect:  "redirect",
	CategoryBasic:     "basic",
	CategoryProtocol:  "protocol",
	CategoryUserAgent: "user_agent",
}

func (c Category) String() string {
	if int(c) < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// ParseCategory parses the canonical name of a statistic category.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("statistic: unknown category %q", s)
}

// typesForCategory lists which [Type]s a [Category] enables, per
// SPEC_FULL.md §4.5.
var typesForCategory = map[Category][]Type{
	CategoryRedirect:  {Request},
	CategoryBasic:     {HostRequest, SniRequest, StatusCode},
	CategoryProtocol:  {HttpVersion, TlsVersion, TlsCipherSuite},
	CategoryUserAgent: {UserAgent, UserAgentMobile, UserAgentPlatform},
}

// Value is a positive counter. The zero Value is not meaningful on its own;
// a key absent from a store has no Value at all. Increment saturates at
// the maximum uint64 rather than wrapping.
type Value uint64

// Increment returns v+1, saturating at [math.MaxUint64].
func (v Value) Increment() Value {
	sum, carry := bits.Add64(uint64(v), 1, 0)
	if carry != 0 {
		return Value(^uint64(0))
	}
	return Value(sum)
}

// Statistic is one quantized-time counter key: which link it concerns,
// what kind of observation it is, a type-dependent data string (empty for
// [Request]), and the quarter-hour bucket it falls in.
type Statistic struct {
	Link string
	Type Type
	Data string
	Time Time
}

// Description is a wildcard query over [Statistic]'s four fields: a nil
// field matches any value; a non-nil field must match exactly.
type Description struct {
	Link *string
	Type *Type
	Data *string
	Time *Time
}

// Matches reports whether s satisfies every non-nil field of d.
func (d Description) Matches(s Statistic) bool {
	if d.Link != nil && *d.Link != s.Link {
		return false
	}
	if d.Type != nil && *d.Type != s.Type {
		return false
	}
	if d.Data != nil && *d.Data != s.Data {
		return false
	}
	if d.Time != nil && d.Time.Compare(s.Time) != 0 {
		return false
	}
	return true
}
