package dedup

import (
	"math"
	"time"

	"horse.fit/briefing/internal/textsim"
	"horse.fit/briefing/internal/timeparse"
	"horse.fit/briefing/internal/urlnorm"
)

// Confidence is the tiered verdict on whether two items report the same
// story.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceNone   Confidence = "NONE"
)

const (
	DefaultTitleThreshold = 0.70

	mediumSimilarity = 0.80
	lowSimilarity    = 0.70
	proximityWindow  = 24 * time.Hour
)

// Signal names which check produced a verdict.
type Signal string

const (
	SignalCanonicalURL Signal = "canonical_url"
	SignalContentHash  Signal = "content_hash"
	SignalTitle        Signal = "title_similarity"
)

type Verdict struct {
	Confidence Confidence
	Signal     Signal
	Similarity float64
	// WithinDay is informational only; it never changes Confidence.
	WithinDay bool
}

// IsDuplicate reports whether the verdict alone merges the pair.
func (v Verdict) IsDuplicate() bool {
	switch v.Confidence {
	case ConfidenceHigh, ConfidenceMedium:
		return true
	case ConfidenceLow, ConfidenceNone:
		return false
	default:
		return false
	}
}

// PassesThreshold layers the caller's similarity threshold on top of the
// tiers: HIGH always passes, MEDIUM passes only at or above threshold.
func (v Verdict) PassesThreshold(threshold float64) bool {
	switch v.Confidence {
	case ConfidenceHigh:
		return true
	case ConfidenceMedium:
		return v.Similarity >= threshold
	case ConfidenceLow, ConfidenceNone:
		return false
	default:
		return false
	}
}

// Classify compares two items. It is symmetric in its arguments. now is only
// used to resolve relative timestamps for WithinDay.
func Classify(a, b NewsItem, now time.Time) Verdict {
	urlA := urlnorm.Canonicalize(a.URL)
	urlB := urlnorm.Canonicalize(b.URL)
	if urlA != "" && urlB != "" && urlA == urlB {
		return Verdict{Confidence: ConfidenceHigh, Signal: SignalCanonicalURL}
	}

	if a.Content != "" && b.Content != "" {
		hashA := textsim.Fingerprint(a.Content)
		hashB := textsim.Fingerprint(b.Content)
		if hashA != "" && hashA == hashB {
			return Verdict{Confidence: ConfidenceHigh, Signal: SignalContentHash}
		}
	}

	similarity := textsim.Similarity(a.Title, b.Title)
	verdict := Verdict{Confidence: ConfidenceNone, Signal: SignalTitle, Similarity: similarity}
	switch {
	case similarity >= mediumSimilarity:
		// High title similarity stays MEDIUM even when the timestamps are
		// far apart or missing.
		verdict.Confidence = ConfidenceMedium
		verdict.WithinDay = withinWindow(a, b, now)
	case similarity >= lowSimilarity:
		verdict.Confidence = ConfidenceLow
	}
	return verdict
}

// AreDuplicates is the grouping predicate: HIGH, or MEDIUM at or above
// threshold. LOW never merges.
func AreDuplicates(a, b NewsItem, threshold float64, now time.Time) bool {
	return Classify(a, b, now).PassesThreshold(threshold)
}

func withinWindow(a, b NewsItem, now time.Time) bool {
	timeA, okA := timeparse.Parse(a.EffectiveTime(), now)
	timeB, okB := timeparse.Parse(b.EffectiveTime(), now)
	if !okA || !okB {
		return false
	}
	return math.Abs(float64(timeA.Sub(timeB))) <= float64(proximityWindow)
}
