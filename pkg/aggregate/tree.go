// Package aggregate computes tree-view and flat-view hotspot statistics from
// reconstructed call forests.
package aggregate

import (
	"sort"

	"github.com/tracescope/tracescope/pkg/calltree"
)

// TreeNode is the tree-view aggregate of all calls that share the same name
// under the same parent path.
type TreeNode struct {
	Name string

	// TotalTime includes all nested children, SelfTime excludes them.
	// SelfTime is never negative for a well-nested forest: children are
	// disjoint sub-intervals of the parent.
	TotalTime uint64
	SelfTime  uint64
	CallCount uint64

	// MinTime and MaxTime bound the durations of the merged calls.
	MinTime uint64
	MaxTime uint64

	// Children are ordered by descending TotalTime, ties in first-seen order.
	Children []*TreeNode
}

// Tree merges sibling calls with equal names level by level, starting from
// the forest roots. Hotspots first: every child list is ordered by
// descending total time, with ties broken by first-seen order so the result
// is deterministic.
func Tree(f *calltree.Forest) []*TreeNode {
	return mergeLevel(f.Roots)
}

func mergeLevel(nodes []*calltree.Node) []*TreeNode {
	if len(nodes) == 0 {
		return nil
	}

	merged := make([]*TreeNode, 0, len(nodes))
	index := make(map[string]int, len(nodes))
	children := make(map[string][]*calltree.Node, len(nodes))

	for _, n := range nodes {
		i, ok := index[n.Name]
		if !ok {
			i = len(merged)
			index[n.Name] = i
			merged = append(merged, &TreeNode{Name: n.Name, MinTime: n.Duration()})
		}
		agg := merged[i]
		d := n.Duration()
		agg.TotalTime += d
		agg.CallCount++
		if d < agg.MinTime {
			agg.MinTime = d
		}
		if d > agg.MaxTime {
			agg.MaxTime = d
		}
		children[n.Name] = append(children[n.Name], n.Children...)
	}

	for _, agg := range merged {
		agg.Children = mergeLevel(children[agg.Name])
		agg.SelfTime = agg.TotalTime - childrenTotal(agg.Children)
	}

	sortTreeNodes(merged)
	return merged
}

func childrenTotal(children []*TreeNode) uint64 {
	var sum uint64
	for _, c := range children {
		sum += c.TotalTime
	}
	return sum
}

func sortTreeNodes(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].TotalTime > nodes[j].TotalTime
	})
}

// CombineTrees merges independent tree views level by level, by name, as if
// they hung off one synthetic root. Per-thread trees have no common path, so
// this is a best-effort merge, not a strict path merge.
func CombineTrees(trees ...[]*TreeNode) []*TreeNode {
	var total int
	for _, t := range trees {
		total += len(t)
	}
	if total == 0 {
		return nil
	}

	merged := make([]*TreeNode, 0, total)
	index := make(map[string]int, total)
	children := make(map[string][][]*TreeNode, total)

	for _, tree := range trees {
		for _, n := range tree {
			i, ok := index[n.Name]
			if !ok {
				i = len(merged)
				index[n.Name] = i
				merged = append(merged, &TreeNode{Name: n.Name, MinTime: n.MinTime})
			}
			agg := merged[i]
			agg.TotalTime += n.TotalTime
			agg.SelfTime += n.SelfTime
			agg.CallCount += n.CallCount
			if n.MinTime < agg.MinTime {
				agg.MinTime = n.MinTime
			}
			if n.MaxTime > agg.MaxTime {
				agg.MaxTime = n.MaxTime
			}
			children[n.Name] = append(children[n.Name], n.Children)
		}
	}

	for _, agg := range merged {
		agg.Children = CombineTrees(children[agg.Name]...)
	}

	sortTreeNodes(merged)
	return merged
}
