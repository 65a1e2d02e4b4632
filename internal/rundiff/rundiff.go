// Package rundiff compares two ranked dedup runs.
package rundiff

import (
	"sort"

	"horse.fit/briefing/internal/dedup"
)

const maxRankChanges = 10

type NewStory struct {
	dedup.MergedStory
	NewRank int `json:"new_rank"`
}

type DroppedStory struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	OldRank int      `json:"old_rank"`
	Sources []string `json:"sources"`
}

type RankChange struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	OldRank int    `json:"old_rank"`
	NewRank int    `json:"new_rank"`
	// Change is positive when the story moved up.
	Change int `json:"change"`
}

type Summary struct {
	NewCount     int `json:"new_count"`
	DroppedCount int `json:"dropped_count"`
	ChangedCount int `json:"changed_count"`
}

type Diff struct {
	NewStories     []NewStory     `json:"new_stories"`
	DroppedStories []DroppedStory `json:"dropped_stories"`
	RankChanges    []RankChange   `json:"rank_changes"`
	Summary        Summary        `json:"summary"`
}

type entry struct {
	rank  int
	story dedup.MergedStory
}

// index keys stories by URL, or title when URL is empty. A repeated key
// keeps its first position in the order but takes the later rank.
type index struct {
	keys    []string
	entries map[string]entry
}

func buildIndex(stories []dedup.MergedStory) index {
	idx := index{
		keys:    make([]string, 0, len(stories)),
		entries: make(map[string]entry, len(stories)),
	}
	for i, story := range stories {
		key := Key(story)
		if _, ok := idx.entries[key]; !ok {
			idx.keys = append(idx.keys, key)
		}
		idx.entries[key] = entry{rank: i + 1, story: story}
	}
	return idx
}

// Key identifies a story across runs.
func Key(story dedup.MergedStory) string {
	if story.URL != "" {
		return story.URL
	}
	return story.Title
}

// Compute reports which stories in current are new, which stories in
// previous are gone, and the largest rank moves. Ranks are 1-based list
// positions. ChangedCount counts every move, not only the reported ones.
func Compute(current, previous []dedup.MergedStory) Diff {
	cur := buildIndex(current)
	prev := buildIndex(previous)

	diff := Diff{
		NewStories:     []NewStory{},
		DroppedStories: []DroppedStory{},
		RankChanges:    []RankChange{},
	}

	for _, key := range cur.keys {
		now := cur.entries[key]
		before, seen := prev.entries[key]
		if !seen {
			diff.NewStories = append(diff.NewStories, NewStory{MergedStory: now.story, NewRank: now.rank})
			continue
		}
		if before.rank != now.rank {
			diff.RankChanges = append(diff.RankChanges, RankChange{
				Title:   now.story.Title,
				URL:     now.story.URL,
				OldRank: before.rank,
				NewRank: now.rank,
				Change:  before.rank - now.rank,
			})
		}
	}

	for _, key := range prev.keys {
		if _, ok := cur.entries[key]; ok {
			continue
		}
		old := prev.entries[key]
		diff.DroppedStories = append(diff.DroppedStories, DroppedStory{
			Title:   old.story.Title,
			URL:     old.story.URL,
			OldRank: old.rank,
			Sources: droppedSources(old.story),
		})
	}

	sort.SliceStable(diff.RankChanges, func(i, j int) bool {
		return abs(diff.RankChanges[i].Change) > abs(diff.RankChanges[j].Change)
	})

	diff.Summary = Summary{
		NewCount:     len(diff.NewStories),
		DroppedCount: len(diff.DroppedStories),
		ChangedCount: len(diff.RankChanges),
	}
	if len(diff.RankChanges) > maxRankChanges {
		diff.RankChanges = diff.RankChanges[:maxRankChanges]
	}
	return diff
}

func droppedSources(story dedup.MergedStory) []string {
	if len(story.Sources) > 0 {
		return story.Sources
	}
	return []string{story.Source}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
