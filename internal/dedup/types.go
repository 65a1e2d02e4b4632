package dedup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"horse.fit/briefing/internal/sourcetype"
)

const unknownSource = "Unknown"

// NewsItem is one record from the fetch layer. Only Source is expected to be
// set; every other field may be empty.
type NewsItem struct {
	Title      string                `json:"title"`
	URL        string                `json:"url,omitempty"`
	Source     string                `json:"source"`
	SourceType sourcetype.SourceType `json:"source_type,omitempty"`
	Heat       string                `json:"heat,omitempty"`
	Time       string                `json:"time,omitempty"`
	TimeISO    string                `json:"time_iso,omitempty"`
	Content    string                `json:"content,omitempty"`
}

type rawNewsItem struct {
	Title      string          `json:"title"`
	URL        string          `json:"url"`
	Source     string          `json:"source"`
	Sources    []string        `json:"sources"`
	SourceType string          `json:"source_type"`
	Heat       json.RawMessage `json:"heat"`
	Time       json.RawMessage `json:"time"`
	TimeISO    string          `json:"time_iso"`
	Content    string          `json:"content"`
}

// UnmarshalJSON accepts the loose shapes upstream fetchers emit: numeric heat
// and time, per-source heat maps, and merged stories that carry "sources"
// instead of "source".
func (n *NewsItem) UnmarshalJSON(data []byte) error {
	var raw rawNewsItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	source := raw.Source
	if source == "" && len(raw.Sources) > 0 {
		source = raw.Sources[0]
	}

	heat, err := looseHeat(raw.Heat, source)
	if err != nil {
		return fmt.Errorf("heat: %w", err)
	}
	ts, err := looseScalar(raw.Time)
	if err != nil {
		return fmt.Errorf("time: %w", err)
	}

	var sourceType sourcetype.SourceType
	if strings.TrimSpace(raw.SourceType) != "" {
		sourceType = sourcetype.Parse(raw.SourceType)
	}

	*n = NewsItem{
		Title:      raw.Title,
		URL:        raw.URL,
		Source:     source,
		SourceType: sourceType,
		Heat:       heat,
		Time:       ts,
		TimeISO:    raw.TimeISO,
		Content:    raw.Content,
	}
	return nil
}

// EffectiveTime is Time, or TimeISO when Time is empty.
func (n NewsItem) EffectiveTime() string {
	if n.Time != "" {
		return n.Time
	}
	return n.TimeISO
}

func (n NewsItem) sourceName() string {
	if strings.TrimSpace(n.Source) == "" {
		return unknownSource
	}
	return n.Source
}

func looseScalar(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", nil
	case 't', 'f':
		return "", nil
	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
}

// looseHeat flattens a per-source heat map to the entry for source, or the
// first non-empty entry by key.
func looseHeat(raw json.RawMessage, source string) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return looseScalar(raw)
	}

	var byKey map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &byKey); err != nil {
		return "", err
	}
	if value, ok := byKey[sourceSlug(source)]; ok {
		if heat, err := looseScalar(value); err == nil && heat != "" {
			return heat, nil
		}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		heat, err := looseScalar(byKey[key])
		if err != nil {
			return "", err
		}
		if heat != "" {
			return heat, nil
		}
	}
	return "", nil
}

// MergedStory is the output record for one duplicate group.
type MergedStory struct {
	Title        string                `json:"title"`
	URL          string                `json:"url"`
	Source       string                `json:"source,omitempty"`
	SourceType   sourcetype.SourceType `json:"source_type,omitempty"`
	Sources      []string              `json:"sources"`
	SourceCount  int                   `json:"source_count"`
	Heat         map[string]string     `json:"heat"`
	Time         string                `json:"time"`
	TimeISO      string                `json:"time_iso,omitempty"`
	DedupGroupID string                `json:"dedup_group_id"`
	Alternates   []Alternate           `json:"alternates"`
	Content      string                `json:"content,omitempty"`
}

type Alternate struct {
	Source     string                `json:"source"`
	SourceType sourcetype.SourceType `json:"source_type"`
	URL        string                `json:"url"`
	Title      string                `json:"title"`
}

// EffectiveTime is Time, or TimeISO when Time is empty.
func (m MergedStory) EffectiveTime() string {
	if m.Time != "" {
		return m.Time
	}
	return m.TimeISO
}

type Meta struct {
	RawItems         int `json:"raw_items"`
	AfterDedup       int `json:"after_dedup"`
	DuplicatesMerged int `json:"duplicates_merged"`
	SourcesScanned   int `json:"sources_scanned"`
}

// Result is the interop shape consumed by formatters and run diffs.
type Result struct {
	Stories []MergedStory `json:"stories"`
	Meta    Meta          `json:"meta"`
}
