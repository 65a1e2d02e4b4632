package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"horse.fit/briefing/internal/sourcetype"
	"horse.fit/briefing/internal/timeparse"
	"horse.fit/briefing/internal/urlnorm"
)

const groupIDLength = 12

var aggregatorDomains = []string{"reddit.com", "news.ycombinator.com", "lobste.rs"}

var slugReplacer = strings.NewReplacer(" ", "_", "/", "_")

// Merge folds a non-empty group of items into one story. Items must be in
// group order; ties everywhere resolve to the earliest member.
func Merge(items []NewsItem, now time.Time) MergedStory {
	if len(items) == 0 {
		return MergedStory{}
	}
	if len(items) == 1 {
		return mergeSingle(items[0])
	}

	story := MergedStory{
		Title:        longestTitle(items),
		URL:          items[bestURLIndex(items)].URL,
		Heat:         make(map[string]string, len(items)),
		DedupGroupID: GroupID(items),
		Content:      longestContent(items),
	}

	earliest := earliestIndex(items, now)
	story.Time = items[earliest].Time
	story.TimeISO = items[earliest].TimeISO

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		source := item.sourceName()
		if _, ok := seen[source]; !ok {
			seen[source] = struct{}{}
			story.Sources = append(story.Sources, source)
		}
		story.Heat[sourceSlug(source)] = item.Heat
	}
	story.SourceCount = len(story.Sources)

	representative := representativeIndex(items)
	story.Alternates = make([]Alternate, 0, len(items)-1)
	for i, item := range items {
		if i == representative {
			continue
		}
		story.Alternates = append(story.Alternates, Alternate{
			Source:     item.sourceName(),
			SourceType: sourcetype.SourceType(item.SourceType.String()),
			URL:        item.URL,
			Title:      item.Title,
		})
	}
	return story
}

func mergeSingle(item NewsItem) MergedStory {
	source := item.sourceName()
	return MergedStory{
		Title:        item.Title,
		URL:          item.URL,
		Source:       source,
		SourceType:   item.SourceType,
		Sources:      []string{source},
		SourceCount:  1,
		Heat:         map[string]string{sourceSlug(source): item.Heat},
		Time:         item.Time,
		TimeISO:      item.TimeISO,
		DedupGroupID: GroupID([]NewsItem{item}),
		Alternates:   []Alternate{},
		Content:      item.Content,
	}
}

// GroupID digests the sorted canonical URLs of items, so it does not depend
// on member order.
func GroupID(items []NewsItem) string {
	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = urlnorm.Canonicalize(item.URL)
	}
	sort.Strings(urls)

	sum := md5.Sum([]byte(strings.Join(urls, "|")))
	return hex.EncodeToString(sum[:])[:groupIDLength]
}

func sourceSlug(source string) string {
	return slugReplacer.Replace(strings.ToLower(source))
}

func longestTitle(items []NewsItem) string {
	best := items[0].Title
	bestLen := utf8.RuneCountInString(best)
	for _, item := range items[1:] {
		if n := utf8.RuneCountInString(item.Title); n > bestLen {
			best, bestLen = item.Title, n
		}
	}
	return best
}

func longestContent(items []NewsItem) string {
	var best string
	bestLen := 0
	for _, item := range items {
		if n := utf8.RuneCountInString(item.Content); n > bestLen {
			best, bestLen = item.Content, n
		}
	}
	return best
}

func isAggregatorURL(raw string) bool {
	host := urlnorm.Host(raw)
	for _, domain := range aggregatorDomains {
		if urlnorm.HostMatches(host, domain) {
			return true
		}
	}
	return false
}

// urlPriority: original reporting off-aggregator 4, wire 3, any other
// non-aggregator 2, aggregator 1, no URL 0.
func urlPriority(item NewsItem) int {
	if strings.TrimSpace(item.URL) == "" {
		return 0
	}
	aggregator := isAggregatorURL(item.URL)
	switch {
	case item.SourceType == sourcetype.OriginalReporting && !aggregator:
		return 4
	case item.SourceType == sourcetype.Wire:
		return 3
	case !aggregator:
		return 2
	default:
		return 1
	}
}

func bestURLIndex(items []NewsItem) int {
	best, bestPriority := 0, urlPriority(items[0])
	for i := 1; i < len(items); i++ {
		if p := urlPriority(items[i]); p > bestPriority {
			best, bestPriority = i, p
		}
	}
	return best
}

// earliestIndex picks the member with the earliest parseable time, falling
// back to the first member when none parse.
func earliestIndex(items []NewsItem, now time.Time) int {
	best := -1
	var bestTime time.Time
	for i, item := range items {
		ts, ok := timeparse.Parse(item.EffectiveTime(), now)
		if !ok {
			continue
		}
		if best < 0 || ts.Before(bestTime) {
			best, bestTime = i, ts
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

func representativeIndex(items []NewsItem) int {
	best := 0
	bestPriority := items[0].SourceType.Priority()
	bestLen := utf8.RuneCountInString(items[0].Title)
	for i := 1; i < len(items); i++ {
		priority := items[i].SourceType.Priority()
		titleLen := utf8.RuneCountInString(items[i].Title)
		if priority > bestPriority || (priority == bestPriority && titleLen > bestLen) {
			best, bestPriority, bestLen = i, priority, titleLen
		}
	}
	return best
}
