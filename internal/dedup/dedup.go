// Package dedup collapses news items that describe the same story into
// single ranked entries.
//
// Grouping compares every pair of items, so a run is quadratic in batch
// size; callers are expected to bound batches upstream.
package dedup

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	// Threshold gates MEDIUM title matches. Zero means DefaultTitleThreshold.
	Threshold   float64
	RankBy      RankBy
	ClusterMode ClusterMode
	// Now supplies the reference instant for relative timestamps and
	// recency. Nil means time.Now in UTC.
	Now func() time.Time
	// Logger receives per-run summaries; the zero value discards them.
	Logger zerolog.Logger
}

type Deduplicator struct {
	threshold float64
	rankBy    RankBy
	mode      ClusterMode
	now       func() time.Time
	logger    zerolog.Logger
}

func New(opts Options) *Deduplicator {
	d := &Deduplicator{
		threshold: opts.Threshold,
		rankBy:    opts.RankBy,
		mode:      opts.ClusterMode,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if d.threshold <= 0 {
		d.threshold = DefaultTitleThreshold
	}
	if rankBy, err := ParseRankBy(string(d.rankBy)); err == nil {
		d.rankBy = rankBy
	} else {
		d.rankBy = RankCombined
	}
	if mode, err := ParseClusterMode(string(d.mode)); err == nil {
		d.mode = mode
	} else {
		d.mode = ClusterSeed
	}
	if d.now == nil {
		d.now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

type rankedStory struct {
	story MergedStory
	score float64
}

// Deduplicate groups, merges and ranks items. The input slice is not
// modified. It is safe to call concurrently.
func (d *Deduplicator) Deduplicate(items []NewsItem) Result {
	if len(items) == 0 {
		return Result{Stories: []MergedStory{}}
	}
	now := d.now().UTC()

	test := func(a, b NewsItem) Verdict { return Classify(a, b, now) }
	var groups []group
	switch d.mode {
	case ClusterUnionFind:
		groups = groupByComponents(items, test, d.threshold)
	default:
		groups = groupBySeed(items, test, d.threshold)
	}

	ranked := make([]rankedStory, 0, len(groups))
	for _, g := range groups {
		d.logMembers(g)
		story := Merge(g.items(), now)
		ranked = append(ranked, rankedStory{story: story, score: Score(story, now).For(d.rankBy)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	stories := make([]MergedStory, len(ranked))
	for i, r := range ranked {
		stories[i] = r.story
	}

	meta := Meta{
		RawItems:       len(items),
		AfterDedup:     len(stories),
		SourcesScanned: countSources(items),
	}
	meta.DuplicatesMerged = meta.RawItems - meta.AfterDedup

	d.logger.Info().
		Int("raw_items", meta.RawItems).
		Int("after_dedup", meta.AfterDedup).
		Int("duplicates_merged", meta.DuplicatesMerged).
		Int("sources_scanned", meta.SourcesScanned).
		Str("rank_by", string(d.rankBy)).
		Str("cluster_mode", string(d.mode)).
		Msg("deduplicated batch")

	return Result{Stories: stories, Meta: meta}
}

func (d *Deduplicator) logMembers(g group) {
	if len(g.members) < 2 {
		return
	}
	seed := g.members[0]
	for _, m := range g.members[1:] {
		d.logger.Debug().
			Int("seed_index", seed.index).
			Int("member_index", m.index).
			Str("confidence", string(m.verdict.Confidence)).
			Str("signal", string(m.verdict.Signal)).
			Float64("similarity", m.verdict.Similarity).
			Bool("within_day", m.verdict.WithinDay).
			Msg("merged duplicate")
	}
}

func countSources(items []NewsItem) int {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item.Source] = struct{}{}
	}
	return len(seen)
}

// Deduplicate runs a one-off pass with the given threshold and strategy.
func Deduplicate(items []NewsItem, threshold float64, rankBy RankBy, now time.Time) Result {
	return New(Options{
		Threshold: threshold,
		RankBy:    rankBy,
		Now:       func() time.Time { return now },
	}).Deduplicate(items)
}
