package frames_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tracescope/tracescope/pkg/capture"
	"github.com/tracescope/tracescope/pkg/frames"
)

func ev(op capture.Operation, thread uint64, frame int32, ts uint64, name string) capture.Event {
	return capture.Event{Op: op, ThreadID: thread, FrameID: frame, Timestamp: ts, Name: name}
}

func TestSplit(t *testing.T) {
	events := []capture.Event{
		ev(capture.OpEnter, 1, 1, 100, "late"),
		ev(capture.OpEnter, 1, -1, 0, "setup"),
		ev(capture.OpExit, 1, -1, 10, ""),
		ev(capture.OpEnter, 1, 0, 20, "draw"),
		ev(capture.OpExit, 1, 0, 40, ""),
		ev(capture.OpExit, 1, 1, 140, ""),
		ev(capture.OpEnter, 2, 0, 25, "audio"),
		ev(capture.OpExit, 2, 0, 35, ""),
	}
	c := &capture.Capture{Events: events}

	framed, unframed := frames.Split(c)

	// Ascending frame id order regardless of arrival order.
	require.Len(t, framed, 2)
	require.EqualValues(t, 0, framed[0].FrameID)
	require.EqualValues(t, 1, framed[1].FrameID)

	require.NotNil(t, unframed)
	require.EqualValues(t, -1, unframed.FrameID)
	require.Len(t, unframed.Events, 2)

	require.EqualValues(t, 20, framed[0].MinTS)
	require.EqualValues(t, 40, framed[0].MaxTS)
	require.EqualValues(t, 100, framed[1].MinTS)
	require.EqualValues(t, 140, framed[1].MaxTS)

	// The union of all partitions plus the unframed bucket is exactly the
	// input event set: nothing dropped, nothing duplicated.
	seen := make(map[capture.Event]int)
	for _, b := range framed {
		for _, e := range b.Events {
			seen[e]++
		}
	}
	for _, e := range unframed.Events {
		seen[e]++
	}
	require.Len(t, seen, len(events))
	for _, e := range events {
		require.Equal(t, 1, seen[e])
	}
}

func TestSplitNoUnframed(t *testing.T) {
	c := &capture.Capture{Events: []capture.Event{
		ev(capture.OpEnter, 1, 5, 0, "a"),
		ev(capture.OpExit, 1, 5, 10, ""),
	}}

	framed, unframed := frames.Split(c)
	require.Len(t, framed, 1)
	require.Nil(t, unframed)
}

func TestByThread(t *testing.T) {
	events := []capture.Event{
		ev(capture.OpEnter, 7, -1, 0, "a"),
		ev(capture.OpEnter, 3, -1, 5, "b"),
		ev(capture.OpExit, 7, -1, 10, ""),
		ev(capture.OpExit, 3, -1, 15, ""),
	}

	threads := frames.ByThread(events)
	require.Len(t, threads, 2)

	// First appearance order, per-thread order preserved.
	require.EqualValues(t, 7, threads[0].ThreadID)
	require.Len(t, threads[0].Events, 2)
	require.Equal(t, capture.OpEnter, threads[0].Events[0].Op)
	require.Equal(t, capture.OpExit, threads[0].Events[1].Op)

	require.EqualValues(t, 3, threads[1].ThreadID)
	require.Len(t, threads[1].Events, 2)
}

func TestTimeline(t *testing.T) {
	c := &capture.Capture{Events: []capture.Event{
		ev(capture.OpEnter, 1, 2, 200, "b"),
		ev(capture.OpExit, 1, 2, 230, ""),
		ev(capture.OpEnter, 1, 0, 0, "a"),
		ev(capture.OpExit, 1, 0, 100, ""),
		ev(capture.OpEnter, 1, 1, 100, "c"),
		ev(capture.OpExit, 1, 1, 105, ""),
	}}

	framed, _ := frames.Split(c)

	spans := frames.Timeline(framed, 0)
	require.Len(t, spans, 3)
	require.EqualValues(t, 0, spans[0].FrameID)
	require.EqualValues(t, 1, spans[1].FrameID)
	require.EqualValues(t, 2, spans[2].FrameID)
	require.EqualValues(t, 100, spans[0].Duration())

	// Frames shorter than the threshold are dropped.
	spans = frames.Timeline(framed, 10)
	require.Len(t, spans, 2)
	require.EqualValues(t, 0, spans[0].FrameID)
	require.EqualValues(t, 2, spans[1].FrameID)
}
