package recorder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tracescope/tracescope/pkg/calltree"
	"github.com/tracescope/tracescope/pkg/capture"
	"github.com/tracescope/tracescope/pkg/recorder"
)

// tickClock returns timestamps 0, 1, 2, ... so expected event times are exact.
func tickClock() func() uint64 {
	var t uint64
	return func() uint64 {
		t++
		return t - 1
	}
}

func TestSpanPairing(t *testing.T) {
	rec := recorder.New(recorder.WithClock(tickClock()))
	rec.Start()

	th := rec.ForThread(1)
	outer := th.Span("outer")
	inner := th.Span("inner")
	inner.End()
	outer.End()

	c := rec.Flush()
	require.Equal(t, []capture.Event{
		{Op: capture.OpEnter, ThreadID: 1, FrameID: -1, Timestamp: 0, Name: "outer"},
		{Op: capture.OpEnter, ThreadID: 1, FrameID: -1, Timestamp: 1, Name: "inner"},
		{Op: capture.OpExit, ThreadID: 1, FrameID: -1, Timestamp: 2, Name: "inner"},
		{Op: capture.OpExit, ThreadID: 1, FrameID: -1, Timestamp: 3, Name: "outer"},
	}, c.Events)

	// A flushed capture reconstructs into the recorded nesting.
	forest := calltree.Reconstruct(1, c.Events)
	require.False(t, forest.Partial)
	require.Len(t, forest.Roots, 1)
	require.Equal(t, "outer", forest.Roots[0].Name)
	require.Len(t, forest.Roots[0].Children, 1)
	require.Equal(t, "inner", forest.Roots[0].Children[0].Name)
}

func TestEndIsIdempotent(t *testing.T) {
	rec := recorder.New(recorder.WithClock(tickClock()))
	rec.Start()

	span := rec.ForThread(1).Span("s")
	span.End()
	span.End()
	defer span.End()

	require.Len(t, rec.Flush().Events, 2)
}

func TestDisabledRecordsNothing(t *testing.T) {
	rec := recorder.New(recorder.WithClock(tickClock()))

	th := rec.ForThread(1)
	span := th.Span("ignored")
	th.Note("ignored")
	span.End()
	require.Empty(t, rec.Flush().Events)

	rec.Start()
	th.Span("kept").End()
	rec.Stop()
	th.Span("dropped").End()

	events := rec.Flush().Events
	require.Len(t, events, 2)
	require.Equal(t, "kept", events[0].Name)
}

func TestFrameStamping(t *testing.T) {
	rec := recorder.New(recorder.WithClock(tickClock()))
	rec.Start()

	th := rec.ForThread(1)
	th.Span("before").End()
	rec.SetFrame(0)
	th.Span("frame0").End()
	rec.SetFrame(1)
	th.Note("frame1 note")

	events := rec.Flush().Events
	require.Len(t, events, 5)
	require.EqualValues(t, -1, events[0].FrameID)
	require.EqualValues(t, -1, events[1].FrameID)
	require.EqualValues(t, 0, events[2].FrameID)
	require.EqualValues(t, 0, events[3].FrameID)
	require.EqualValues(t, 1, events[4].FrameID)
	require.Equal(t, capture.OpNote, events[4].Op)
}

func TestSnapshotKeepsEvents(t *testing.T) {
	rec := recorder.New(recorder.WithClock(tickClock()))
	rec.Start()

	rec.ForThread(1).Span("a").End()

	require.Len(t, rec.Snapshot().Events, 2)
	require.Len(t, rec.Snapshot().Events, 2)
	require.Len(t, rec.Flush().Events, 2)
	require.Empty(t, rec.Flush().Events)
}

func TestArenaGrowth(t *testing.T) {
	rec := recorder.New(recorder.WithClock(tickClock()))
	rec.Start()

	th := rec.ForThread(1)
	const spans = 10000
	for i := 0; i < spans; i++ {
		th.Span("s").End()
	}

	events := rec.Flush().Events
	require.Len(t, events, 2*spans)
	for i, ev := range events {
		require.EqualValues(t, i, ev.Timestamp)
	}
}
