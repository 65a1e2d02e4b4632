package dedup

import (
	"fmt"
	"strings"
)

// ClusterMode selects how items are partitioned into duplicate groups.
type ClusterMode string

const (
	// ClusterSeed compares every candidate only against its group's seed,
	// so membership is not transitive.
	ClusterSeed ClusterMode = "seed"
	// ClusterUnionFind groups connected components of the duplicate graph.
	ClusterUnionFind ClusterMode = "union-find"
)

func ParseClusterMode(raw string) (ClusterMode, error) {
	switch mode := ClusterMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "", ClusterSeed:
		return ClusterSeed, nil
	case ClusterUnionFind, "unionfind", "union_find":
		return ClusterUnionFind, nil
	default:
		return "", fmt.Errorf("unknown cluster mode %q (expected seed or union-find)", raw)
	}
}

type member struct {
	index   int
	item    NewsItem
	verdict Verdict
}

type group struct {
	members []member
}

func (g group) items() []NewsItem {
	out := make([]NewsItem, len(g.members))
	for i, m := range g.members {
		out[i] = m.item
	}
	return out
}

type pairTest func(a, b NewsItem) Verdict

// groupBySeed opens a group at each unclaimed item, in input order, and
// claims every later unclaimed item that passes against that seed.
func groupBySeed(items []NewsItem, test pairTest, threshold float64) []group {
	claimed := make([]bool, len(items))
	groups := make([]group, 0, len(items))

	for i, seed := range items {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		current := group{members: []member{{index: i, item: seed}}}

		for j := i + 1; j < len(items); j++ {
			if claimed[j] {
				continue
			}
			verdict := test(seed, items[j])
			if !verdict.PassesThreshold(threshold) {
				continue
			}
			claimed[j] = true
			current.members = append(current.members, member{index: j, item: items[j], verdict: verdict})
		}
		groups = append(groups, current)
	}
	return groups
}

// groupByComponents links every passing pair and emits components ordered by
// their lowest index, members in input order.
func groupByComponents(items []NewsItem, test pairTest, threshold float64) []group {
	parent := make([]int, len(items))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	verdicts := make([]Verdict, len(items))
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			rootI, rootJ := find(i), find(j)
			if rootI == rootJ {
				continue
			}
			verdict := test(items[i], items[j])
			if !verdict.PassesThreshold(threshold) {
				continue
			}
			if rootJ < rootI {
				rootI, rootJ = rootJ, rootI
			}
			parent[rootJ] = rootI
			if verdicts[j].Confidence == "" {
				verdicts[j] = verdict
			}
		}
	}

	position := make(map[int]int, len(items))
	groups := make([]group, 0, len(items))
	for i, item := range items {
		root := find(i)
		idx, ok := position[root]
		if !ok {
			idx = len(groups)
			position[root] = idx
			groups = append(groups, group{})
		}
		groups[idx].members = append(groups[idx].members, member{index: i, item: item, verdict: verdicts[i]})
	}
	return groups
}
