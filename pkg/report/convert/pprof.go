// Package convert exports aggregate views into interchange formats
// understood by external profiling tooling.
package convert

import (
	"github.com/google/pprof/profile"

	"github.com/tracescope/tracescope/pkg/aggregate"
)

type pprofBuilder struct {
	prof      *profile.Profile
	locations map[string]*profile.Location
}

func newPProfBuilder() *pprofBuilder {
	return &pprofBuilder{
		prof: &profile.Profile{
			SampleType: []*profile.ValueType{
				{Type: "self", Unit: "nanoseconds"},
				{Type: "total", Unit: "nanoseconds"},
				{Type: "calls", Unit: "count"},
			},
			DefaultSampleType: "self",
		},
		locations: make(map[string]*profile.Location),
	}
}

func (b *pprofBuilder) location(name string) *profile.Location {
	loc, ok := b.locations[name]
	if !ok {
		fn := &profile.Function{
			ID:   1 + uint64(len(b.prof.Function)),
			Name: name,
		}
		loc = &profile.Location{
			ID: 1 + uint64(len(b.prof.Location)),
			Line: []profile.Line{{
				Function: fn,
			}},
		}
		b.prof.Function = append(b.prof.Function, fn)
		b.prof.Location = append(b.prof.Location, loc)
		b.locations[name] = loc
	}
	return loc
}

// addSample appends a sample for the given root-to-leaf stack.
// pprof wants locations leaf first.
func (b *pprofBuilder) addSample(stack []string, self, total, calls int64) {
	locs := make([]*profile.Location, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		locs = append(locs, b.location(stack[i]))
	}
	b.prof.Sample = append(b.prof.Sample, &profile.Sample{
		Location: locs,
		Value:    []int64{self, total, calls},
	})
}

// FlatToPProf builds a pprof profile from a flat view, one single-location
// sample per entry.
func FlatToPProf(flat []aggregate.FlatEntry) *profile.Profile {
	b := newPProfBuilder()
	for i := range flat {
		e := &flat[i]
		b.addSample([]string{e.Name}, int64(e.SelfTime), int64(e.TotalTime), int64(e.CallCount))
	}
	return b.prof
}

// TreeToPProf builds a pprof profile from a tree view, one sample per
// root-to-node path weighted by the node's self time, so pprof reconstructs
// the call graph.
func TreeToPProf(tree []*aggregate.TreeNode) *profile.Profile {
	b := newPProfBuilder()
	var visit func(stack []string, nodes []*aggregate.TreeNode)
	visit = func(stack []string, nodes []*aggregate.TreeNode) {
		for _, n := range nodes {
			stack = append(stack, n.Name)
			b.addSample(stack, int64(n.SelfTime), int64(n.TotalTime), int64(n.CallCount))
			visit(stack, n.Children)
			stack = stack[:len(stack)-1]
		}
	}
	visit(nil, tree)
	return b.prof
}
