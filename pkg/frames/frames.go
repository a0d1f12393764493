// Package frames partitions a capture by its application-defined frame
// counter and derives the frame timeline.
package frames

import (
	"sort"

	"github.com/tracescope/tracescope/pkg/capture"
)

// Bucket holds the events of one frame id, in ingestion order.
// The union of all buckets is exactly the input event set.
type Bucket struct {
	FrameID int32
	// MinTS and MaxTS bound the timestamps observed for this frame.
	MinTS  uint64
	MaxTS  uint64
	Events []capture.Event
}

func (b *Bucket) observe(ev capture.Event) {
	if len(b.Events) == 0 || ev.Timestamp < b.MinTS {
		b.MinTS = ev.Timestamp
	}
	if len(b.Events) == 0 || ev.Timestamp > b.MaxTS {
		b.MaxTS = ev.Timestamp
	}
	b.Events = append(b.Events, ev)
}

// Split buckets the capture's events by frame id. Events with frame id −1
// form the permanent unframed bucket, never mixed with framed data. Framed
// buckets are returned in ascending frame id order. The unframed bucket is
// nil when the capture has no unframed events.
func Split(c *capture.Capture) (framed []*Bucket, unframed *Bucket) {
	index := make(map[int32]*Bucket)

	for _, ev := range c.Events {
		if ev.FrameID == capture.UnframedID {
			if unframed == nil {
				unframed = &Bucket{FrameID: capture.UnframedID}
			}
			unframed.observe(ev)
			continue
		}
		b, ok := index[ev.FrameID]
		if !ok {
			b = &Bucket{FrameID: ev.FrameID}
			index[ev.FrameID] = b
			framed = append(framed, b)
		}
		b.observe(ev)
	}

	sort.Slice(framed, func(i, j int) bool {
		return framed[i].FrameID < framed[j].FrameID
	})
	return framed, unframed
}

// ThreadEvents is one thread's event subsequence, global order preserved.
type ThreadEvents struct {
	ThreadID uint64
	Events   []capture.Event
}

// ByThread partitions events by thread id, preserving per-thread order.
// Threads are returned in order of first appearance, which keeps downstream
// results deterministic.
func ByThread(events []capture.Event) []ThreadEvents {
	index := make(map[uint64]int)
	threads := make([]ThreadEvents, 0)

	for _, ev := range events {
		i, ok := index[ev.ThreadID]
		if !ok {
			i = len(threads)
			index[ev.ThreadID] = i
			threads = append(threads, ThreadEvents{ThreadID: ev.ThreadID})
		}
		threads[i].Events = append(threads[i].Events, ev)
	}

	return threads
}

// Span is one frame timeline entry.
type Span struct {
	FrameID int32
	MinTS   uint64
	MaxTS   uint64
}

// Duration is the frame's [MinTS, MaxTS] extent.
func (s Span) Duration() uint64 {
	return s.MaxTS - s.MinTS
}

// Timeline derives the frame timeline, ascending by frame id. Frames whose
// extent is below minFrameTime are dropped; pass 0 to keep every frame.
// This bounds the zoomable per-frame view external renderers build.
func Timeline(framed []*Bucket, minFrameTime uint64) []Span {
	spans := make([]Span, 0, len(framed))
	for _, b := range framed {
		s := Span{FrameID: b.FrameID, MinTS: b.MinTS, MaxTS: b.MaxTS}
		if s.Duration() < minFrameTime {
			continue
		}
		spans = append(spans, s)
	}
	return spans
}
