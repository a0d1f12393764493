package calltree_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tracescope/tracescope/pkg/calltree"
	"github.com/tracescope/tracescope/pkg/capture"
)

func enter(name string, ts uint64) capture.Event {
	return capture.Event{Op: capture.OpEnter, ThreadID: 1, FrameID: -1, Timestamp: ts, Name: name}
}

func exit(ts uint64) capture.Event {
	return capture.Event{Op: capture.OpExit, ThreadID: 1, FrameID: -1, Timestamp: ts}
}

func note(name string, ts uint64) capture.Event {
	return capture.Event{Op: capture.OpNote, ThreadID: 1, FrameID: -1, Timestamp: ts, Name: name}
}

// requireWellNested checks the reconstruction invariant: every child's
// interval is contained in its parent's, and siblings never overlap.
func requireWellNested(t *testing.T, f *calltree.Forest) {
	t.Helper()
	f.Walk(func(n *calltree.Node) {
		for i, child := range n.Children {
			require.GreaterOrEqual(t, child.Start, n.Start)
			require.LessOrEqual(t, child.End, n.End)
			require.Equal(t, n, child.Parent)
			if i > 0 {
				require.LessOrEqual(t, n.Children[i-1].End, child.Start)
			}
		}
	})
}

func TestNestedCalls(t *testing.T) {
	f := calltree.Reconstruct(1, []capture.Event{
		enter("A", 0),
		enter("B", 10),
		exit(30),
		exit(50),
	})

	require.False(t, f.Partial)
	require.Len(t, f.Roots, 1)

	a := f.Roots[0]
	require.Equal(t, "A", a.Name)
	require.EqualValues(t, 0, a.Start)
	require.EqualValues(t, 50, a.End)
	require.EqualValues(t, 50, a.Duration())
	require.Nil(t, a.Parent)

	require.Len(t, a.Children, 1)
	b := a.Children[0]
	require.Equal(t, "B", b.Name)
	require.EqualValues(t, 10, b.Start)
	require.EqualValues(t, 30, b.End)
	require.Equal(t, a, b.Parent)

	requireWellNested(t, f)
}

func TestSiblingsAndTimestampTies(t *testing.T) {
	// Matching relies on arrival order, so ties are legal.
	f := calltree.Reconstruct(1, []capture.Event{
		enter("A", 0),
		enter("B", 10),
		exit(20),
		enter("C", 20),
		exit(30),
		exit(40),
	})

	require.False(t, f.Partial)
	require.Len(t, f.Roots, 1)
	require.Len(t, f.Roots[0].Children, 2)
	require.Equal(t, "B", f.Roots[0].Children[0].Name)
	require.Equal(t, "C", f.Roots[0].Children[1].Name)
	requireWellNested(t, f)
}

func TestStackUnderflow(t *testing.T) {
	f := calltree.Reconstruct(2, []capture.Event{
		exit(5),
		enter("A", 10),
		exit(20),
	})

	require.True(t, f.Partial)
	require.Equal(t, 1, f.Diagnostics.Underflows)
	require.Equal(t, 0, f.Diagnostics.Unterminated)

	// Processing continues after the underflow.
	require.Len(t, f.Roots, 1)
	require.Equal(t, "A", f.Roots[0].Name)
	requireWellNested(t, f)
}

func TestUnterminatedCalls(t *testing.T) {
	for _, test := range []struct {
		name         string
		events       []capture.Event
		unterminated int
		roots        []string
	}{
		{
			name: "open_root_closed_child",
			events: []capture.Event{
				enter("A", 0),
				enter("B", 10),
				exit(20),
			},
			unterminated: 1,
			roots:        []string{"B"},
		},
		{
			name: "two_open_one_closed_leaf",
			events: []capture.Event{
				enter("A", 0),
				enter("B", 10),
				enter("C", 20),
				exit(30),
			},
			unterminated: 2,
			roots:        []string{"C"},
		},
		{
			name: "all_open",
			events: []capture.Event{
				enter("A", 0),
				enter("B", 10),
			},
			unterminated: 2,
			roots:        []string{},
		},
		{
			name: "closed_root_survives",
			events: []capture.Event{
				enter("A", 0),
				exit(10),
				enter("B", 20),
			},
			unterminated: 1,
			roots:        []string{"A"},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			f := calltree.Reconstruct(1, test.events)

			require.True(t, f.Partial)
			require.Equal(t, test.unterminated, f.Diagnostics.Unterminated)

			names := make([]string, 0, len(f.Roots))
			for _, r := range f.Roots {
				names = append(names, r.Name)
				// Open nodes must not reach aggregation: every surviving
				// node is fully closed.
				require.NotZero(t, r.End)
			}
			require.Equal(t, test.roots, names)
		})
	}
}

func TestNotes(t *testing.T) {
	f := calltree.Reconstruct(1, []capture.Event{
		enter("A", 0),
		note("halfway", 25),
		exit(50),
		note("done", 60),
	})

	require.False(t, f.Partial)
	require.Len(t, f.Roots, 1)
	require.Len(t, f.Notes, 2)
	require.Equal(t, "halfway", f.Notes[0].Name)
	require.Equal(t, "done", f.Notes[1].Name)
}

func TestEmptyInput(t *testing.T) {
	f := calltree.Reconstruct(1, nil)
	require.False(t, f.Partial)
	require.Empty(t, f.Roots)
}
