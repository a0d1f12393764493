// Package calltree reconstructs well-nested call forests from one thread's
// ordered event subsequence.
package calltree

import (
	"sort"

	"github.com/tracescope/tracescope/pkg/capture"
)

// Node is one completed call. For every node each child's [Start, End)
// interval is contained in the node's interval and children are pairwise
// non-overlapping; the stack discipline below enforces this for any
// per-thread ordered input.
type Node struct {
	Name     string
	Start    uint64
	End      uint64
	FrameID  int32
	ThreadID uint64

	// Children are ordered by start time.
	Children []*Node
	// Parent is a non-owning back reference, nil for roots.
	Parent *Node
}

// Duration is the node's total wall-clock time in nanoseconds.
func (n *Node) Duration() uint64 {
	return n.End - n.Start
}

// Diagnostics counts per-thread anomalies observed during reconstruction.
type Diagnostics struct {
	// Underflows counts exits with no matching open enter.
	Underflows int
	// Unterminated counts enters never closed by end of stream.
	Unterminated int
}

// Forest is the reconstruction result for one thread.
type Forest struct {
	ThreadID uint64
	// Roots are ordered by start time.
	Roots []*Node
	// Notes are the thread's annotation events, in arrival order.
	Notes []capture.Event

	// Partial is set when any diagnostic was recorded. Aggregates built from
	// a partial forest are still valid for the calls that did complete.
	Partial     bool
	Diagnostics Diagnostics
}

// Reconstruct replays one thread's ordered events through an explicit
// open-call stack. Events of other threads must have been filtered out
// beforehand; cross-thread interleaving is irrelevant here.
//
// Anomalies never abort the run. An exit on an empty stack is counted and
// skipped. Calls still open at end of stream have unknown duration and are
// dropped from the forest; their completed subtrees are promoted to roots so
// their time is not lost.
func Reconstruct(threadID uint64, events []capture.Event) *Forest {
	forest := &Forest{ThreadID: threadID}

	var stack []*Node
	for i := range events {
		ev := &events[i]
		switch ev.Op {
		case capture.OpEnter:
			node := &Node{
				Name:     ev.Name,
				Start:    ev.Timestamp,
				FrameID:  ev.FrameID,
				ThreadID: threadID,
			}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				node.Parent = top
				top.Children = append(top.Children, node)
			} else {
				forest.Roots = append(forest.Roots, node)
			}
			stack = append(stack, node)

		case capture.OpExit:
			if len(stack) == 0 {
				forest.Diagnostics.Underflows++
				forest.Partial = true
				continue
			}
			top := stack[len(stack)-1]
			top.End = ev.Timestamp
			stack = stack[:len(stack)-1]

		case capture.OpNote:
			forest.Notes = append(forest.Notes, *ev)
		}
	}

	if len(stack) > 0 {
		forest.Diagnostics.Unterminated = len(stack)
		forest.Partial = true
		forest.dropUnterminated(stack)
	}

	return forest
}

// dropUnterminated removes the still-open nodes from the forest and promotes
// their completed children to roots, ordered by start time.
func (f *Forest) dropUnterminated(stack []*Node) {
	open := make(map[*Node]bool, len(stack))
	for _, n := range stack {
		open[n] = true
	}

	var promoted []*Node
	for _, n := range stack {
		for _, child := range n.Children {
			if !open[child] {
				child.Parent = nil
				promoted = append(promoted, child)
			}
		}
		n.Children = nil
	}

	roots := f.Roots[:0]
	for _, r := range f.Roots {
		if !open[r] {
			roots = append(roots, r)
		}
	}
	sort.SliceStable(promoted, func(i, j int) bool {
		return promoted[i].Start < promoted[j].Start
	})
	f.Roots = append(roots, promoted...)
}

// Walk calls fn for every node of the forest in depth-first pre-order.
func (f *Forest) Walk(fn func(*Node)) {
	var visit func(*Node)
	visit = func(n *Node) {
		fn(n)
		for _, child := range n.Children {
			visit(child)
		}
	}
	for _, root := range f.Roots {
		visit(root)
	}
}
