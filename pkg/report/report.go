// Package report assembles the analysis of a capture into one immutable
// result shared by any number of renderers.
package report

import (
	"github.com/tracescope/tracescope/pkg/aggregate"
	"github.com/tracescope/tracescope/pkg/calltree"
	"github.com/tracescope/tracescope/pkg/frames"
)

// ThreadReport holds one thread's tree and flat views for one partition.
type ThreadReport struct {
	ThreadID uint64 `json:"thread_id"`

	Tree []*aggregate.TreeNode `json:"tree"`
	Flat []aggregate.FlatEntry `json:"flat"`

	// Partial is set when reconstruction recorded diagnostics for the
	// thread. The views cover the calls that did complete.
	Partial     bool                 `json:"partial,omitempty"`
	Diagnostics calltree.Diagnostics `json:"diagnostics"`
}

// Combined is a cross-thread merge. The tree side merges per level by name
// starting from a synthetic root, since independent per-thread trees share
// no path; it is best-effort, not a strict path merge.
type Combined struct {
	Tree []*aggregate.TreeNode `json:"tree"`
	Flat []aggregate.FlatEntry `json:"flat"`
}

// Section is one partition's full analysis: per-thread views plus the
// cross-thread combine.
type Section struct {
	Threads  []*ThreadReport `json:"threads"`
	Combined Combined        `json:"combined"`
}

// FrameSection is the analysis of a single frame.
type FrameSection struct {
	FrameID int32  `json:"frame_id"`
	StartTS uint64 `json:"start_ts"`
	EndTS   uint64 `json:"end_ts"`

	Section
}

// Note is a zero-duration annotation carried through from the capture.
type Note struct {
	Name      string `json:"name"`
	Timestamp uint64 `json:"timestamp"`
	FrameID   int32  `json:"frame_id"`
	ThreadID  uint64 `json:"thread_id"`
}

// Report is the engine's sole output. It is built once and never mutated
// afterwards, so it may be handed to multiple consumers concurrently.
type Report struct {
	// AllFrames spans every framed event regardless of frame id.
	AllFrames Section `json:"all_frames"`
	// Unframed covers events recorded outside any frame. Unframed data is
	// never mixed into the framed sections.
	Unframed Section `json:"unframed"`
	// Frames holds one section per observed frame id, ascending.
	Frames []*FrameSection `json:"frames"`

	// Combined merges every thread of the whole capture, framed and
	// unframed together.
	Combined Combined `json:"combined"`

	// Timeline is ordered by frame id.
	Timeline []frames.Span `json:"timeline"`
	// Notes are in capture ingestion order.
	Notes []Note `json:"notes"`

	// Incomplete is set when a caller-imposed deadline abandoned
	// outstanding partitions; the finished ones are kept.
	Incomplete bool `json:"incomplete,omitempty"`
}
