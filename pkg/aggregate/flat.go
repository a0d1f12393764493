package aggregate

import (
	"sort"

	"github.com/tracescope/tracescope/pkg/calltree"
)

// FlatEntry aggregates every occurrence of a name regardless of its position
// in any call tree.
//
// TotalTime intentionally double-counts wall-clock overlap created by
// recursion: a function calling itself contributes its full duration at
// every recursion depth. SelfTime never double-counts, since each addend is
// an exclusive slice of one specific call instance.
type FlatEntry struct {
	Name      string
	TotalTime uint64
	SelfTime  uint64
	CallCount uint64
	MinTime   uint64
	MaxTime   uint64
}

// FlatView visits every call at every depth and groups purely by name.
// Output is ordered by descending total time, ties broken by name.
func FlatView(f *calltree.Forest) []FlatEntry {
	entries := make([]FlatEntry, 0)
	index := make(map[string]int)

	f.Walk(func(n *calltree.Node) {
		i, ok := index[n.Name]
		if !ok {
			i = len(entries)
			index[n.Name] = i
			entries = append(entries, FlatEntry{Name: n.Name, MinTime: n.Duration()})
		}
		e := &entries[i]
		d := n.Duration()
		e.TotalTime += d
		e.SelfTime += d - childrenDuration(n)
		e.CallCount++
		if d < e.MinTime {
			e.MinTime = d
		}
		if d > e.MaxTime {
			e.MaxTime = d
		}
	})

	sortFlat(entries)
	return entries
}

func childrenDuration(n *calltree.Node) uint64 {
	var sum uint64
	for _, c := range n.Children {
		sum += c.Duration()
	}
	return sum
}

// CombineFlats merges flat views by summing entries keyed by name.
func CombineFlats(flats ...[]FlatEntry) []FlatEntry {
	merged := make([]FlatEntry, 0)
	index := make(map[string]int)

	for _, flat := range flats {
		for i := range flat {
			in := &flat[i]
			j, ok := index[in.Name]
			if !ok {
				j = len(merged)
				index[in.Name] = j
				merged = append(merged, FlatEntry{Name: in.Name, MinTime: in.MinTime})
			}
			e := &merged[j]
			e.TotalTime += in.TotalTime
			e.SelfTime += in.SelfTime
			e.CallCount += in.CallCount
			if in.MinTime < e.MinTime {
				e.MinTime = in.MinTime
			}
			if in.MaxTime > e.MaxTime {
				e.MaxTime = in.MaxTime
			}
		}
	}

	sortFlat(merged)
	return merged
}

func sortFlat(entries []FlatEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalTime != entries[j].TotalTime {
			return entries[i].TotalTime > entries[j].TotalTime
		}
		return entries[i].Name < entries[j].Name
	})
}
