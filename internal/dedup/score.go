package dedup

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"horse.fit/briefing/internal/timeparse"
)

// RankBy names the score a ranked run sorts on.
type RankBy string

const (
	RankTrending RankBy = "trending"
	RankSignal   RankBy = "signal"
	RankCombined RankBy = "combined"
)

// ParseRankBy accepts "signals" as an alias. Unknown strategies are an error
// here; Options falls back to combined instead.
func ParseRankBy(raw string) (RankBy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(RankCombined):
		return RankCombined, nil
	case string(RankTrending):
		return RankTrending, nil
	case string(RankSignal), "signals":
		return RankSignal, nil
	default:
		return "", fmt.Errorf("unknown rank strategy %q (expected trending, signal or combined)", raw)
	}
}

type heatFamily int

const (
	heatDefault heatFamily = iota
	heatHackerNews
	heatReddit
	heatGitHub
)

const (
	heatCap      = 100.0
	heatBaseline = 50.0
)

var heatDivisors = map[heatFamily]float64{
	heatHackerNews: 10,
	heatReddit:     500,
	heatGitHub:     1000,
}

var credibleSources = []string{
	"bbc", "bbc news", "reuters", "ap news", "bloomberg",
	"techcrunch", "ars technica", "the verge", "cnbc", "yahoo finance",
}

var heatPattern = regexp.MustCompile(`([\d,.]+)\s*([kKmM])?`)

type Scores struct {
	Trending float64 `json:"trending"`
	Signal   float64 `json:"signal"`
	Combined float64 `json:"combined"`
}

func (s Scores) For(rankBy RankBy) float64 {
	switch rankBy {
	case RankTrending:
		return s.Trending
	case RankSignal:
		return s.Signal
	case RankCombined:
		return s.Combined
	default:
		return s.Combined
	}
}

// ParseHeat pulls the leading number out of strings like "529 points" or
// "11.3K upvotes". Anything unreadable is 0.
func ParseHeat(raw string) int {
	if raw == "" {
		return 0
	}
	match := heatPattern.FindStringSubmatch(raw)
	if match == nil {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(match[2]) {
	case "k":
		value *= 1_000
	case "m":
		value *= 1_000_000
	}
	if math.IsInf(value, 0) || math.IsNaN(value) || value > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(value)
}

func familyOf(sourceKey string) heatFamily {
	key := strings.ToLower(sourceKey)
	switch {
	case strings.Contains(key, "hacker") || hasToken(key, "hn"):
		return heatHackerNews
	case strings.Contains(key, "reddit"):
		return heatReddit
	case strings.Contains(key, "github"):
		return heatGitHub
	default:
		return heatDefault
	}
}

func hasToken(key, token string) bool {
	for _, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == ' ' }) {
		if part == token {
			return true
		}
	}
	return false
}

// NormalizeHeat maps a raw heat value onto 0..100 for the source family
// named by sourceKey. Sources without a family get a flat 50.
func NormalizeHeat(value int, sourceKey string) float64 {
	divisor, ok := heatDivisors[familyOf(sourceKey)]
	if !ok {
		return heatBaseline
	}
	return math.Min(heatCap, float64(value)/divisor)
}

// storyHeat is the strongest normalized signal across the story's sources.
func storyHeat(story MergedStory) float64 {
	best := 0.0
	for key, raw := range story.Heat {
		if normalized := NormalizeHeat(ParseHeat(raw), key); normalized > best {
			best = normalized
		}
	}
	return best
}

func credibleCount(sources []string) int {
	count := 0
	for _, source := range sources {
		lower := strings.ToLower(source)
		for _, credible := range credibleSources {
			if strings.Contains(lower, credible) {
				count++
				break
			}
		}
	}
	return count
}

// Score computes every ranking strategy for story relative to now.
func Score(story MergedStory, now time.Time) Scores {
	heat := storyHeat(story)
	credible := float64(credibleCount(story.Sources))
	count := float64(story.SourceCount)
	recency := float64(timeparse.RecencyBonus(story.EffectiveTime(), now))

	return Scores{
		Trending: heat + recency,
		Signal:   count*100 + credible*50 + recency,
		Combined: count*50 + heat + credible*30 + recency,
	}
}
