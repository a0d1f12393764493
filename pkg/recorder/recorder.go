// Package recorder is the in-process event producer: an explicitly owned
// collector with an explicit start/stop lifecycle and scoped-span handles
// that guarantee enter/exit pairing on every exit path.
package recorder

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tracescope/tracescope/pkg/capture"
)

// chunkSize is the fixed capacity of one arena chunk.
const chunkSize = 4096

// chunk is one fixed-capacity segment of the growable event arena.
// Chunks are linked by an ownership chain and released only on flush.
type chunk struct {
	events [chunkSize]capture.Event
	n      int
	next   *chunk
}

// Recorder collects scoped enter/exit/annotation events. It is explicitly
// constructed and passed to callers; there is no ambient global instance.
//
// Appends are coordinated by a single exclusive lock over the shared
// append-only arena. A stopped recorder records nothing: every recording
// call returns before taking the lock.
type Recorder struct {
	enabled atomic.Bool
	frame   atomic.Int32

	// now returns nanoseconds since the recorder's monotonic base.
	now func() uint64

	mu   sync.Mutex
	head *chunk
	tail *chunk
}

type Option func(*Recorder)

// WithClock overrides the monotonic timestamp source.
func WithClock(now func() uint64) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// New returns a stopped recorder. Call Start to begin collecting.
func New(opts ...Option) *Recorder {
	r := &Recorder{}
	r.frame.Store(capture.UnframedID)

	base := time.Now()
	r.now = func() uint64 {
		return uint64(time.Since(base))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start enables collection.
func (r *Recorder) Start() {
	r.enabled.Store(true)
}

// Stop disables collection. Events already recorded are kept; spans ended
// after Stop record nothing.
func (r *Recorder) Stop() {
	r.enabled.Store(false)
}

// Enabled reports whether the recorder is collecting.
func (r *Recorder) Enabled() bool {
	return r.enabled.Load()
}

// SetFrame sets the frame counter stamped on subsequent events.
// Frame-based applications bump this once per frame; others leave it unset.
func (r *Recorder) SetFrame(id int32) {
	r.frame.Store(id)
}

func (r *Recorder) append(op capture.Operation, threadID uint64, name string) {
	if !r.enabled.Load() {
		return
	}
	ev := capture.Event{
		Op:        op,
		ThreadID:  threadID,
		FrameID:   r.frame.Load(),
		Timestamp: r.now(),
		Name:      name,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tail == nil || r.tail.n == chunkSize {
		c := &chunk{}
		if r.tail == nil {
			r.head = c
		} else {
			r.tail.next = c
		}
		r.tail = c
	}
	r.tail.events[r.tail.n] = ev
	r.tail.n++
}

// Flush drains every recorded event into a capture in append order and
// releases the arena.
func (r *Recorder) Flush() *capture.Capture {
	r.mu.Lock()
	head := r.head
	r.head = nil
	r.tail = nil
	r.mu.Unlock()

	return drain(head)
}

// Snapshot copies the recorded events without releasing them.
func (r *Recorder) Snapshot() *capture.Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return drain(r.head)
}

func drain(head *chunk) *capture.Capture {
	var n int
	for c := head; c != nil; c = c.next {
		n += c.n
	}
	events := make([]capture.Event, 0, n)
	for c := head; c != nil; c = c.next {
		events = append(events, c.events[:c.n]...)
	}
	return &capture.Capture{Events: events}
}
