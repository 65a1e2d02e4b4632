// Package sourcetype classifies news sources by how they relate to the
// underlying reporting.
package sourcetype

import "strings"

type SourceType string

const (
	OriginalReporting SourceType = "original_reporting"
	Wire              SourceType = "wire"
	Aggregator        SourceType = "aggregator"
	SocialMedia       SourceType = "social_media"
	Unknown           SourceType = "unknown"
)

var priorities = map[SourceType]int{
	OriginalReporting: 3,
	Wire:              2,
	Aggregator:        1,
}

// Parse maps raw onto a known type; anything unrecognized is Unknown.
func Parse(raw string) SourceType {
	switch candidate := SourceType(strings.ToLower(strings.TrimSpace(raw))); candidate {
	case OriginalReporting, Wire, Aggregator, SocialMedia:
		return candidate
	default:
		return Unknown
	}
}

// Priority ranks types for representative selection. Higher is better.
func (t SourceType) Priority() int {
	return priorities[t]
}

func (t SourceType) String() string {
	if t == "" {
		return string(Unknown)
	}
	return string(t)
}

// Valid reports whether t is one of the named types, unknown included.
func (t SourceType) Valid() bool {
	return Parse(string(t)) == t
}
