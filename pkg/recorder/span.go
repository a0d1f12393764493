package recorder

import "github.com/tracescope/tracescope/pkg/capture"

// Thread is a recording handle bound to one event stream. Goroutines must
// not share a Thread: enter/exit matching relies on per-stream ordering.
type Thread struct {
	r  *Recorder
	id uint64
}

// ForThread returns a handle recording under the given stream id.
// Callers assign ids; one id per goroutine is the expected convention.
func (r *Recorder) ForThread(id uint64) *Thread {
	return &Thread{r: r, id: id}
}

// Note records a zero-duration annotation.
func (t *Thread) Note(text string) {
	t.r.append(capture.OpNote, t.id, text)
}

// Span opens a named block and records its enter event. The returned span's
// End must run on every exit path, typically via defer.
func (t *Thread) Span(name string) *Span {
	t.r.append(capture.OpEnter, t.id, name)
	return &Span{thread: t, name: name}
}

// Span is a scoped-acquisition handle: construction emitted the enter
// event, End emits the matching exit exactly once.
type Span struct {
	thread *Thread
	name   string
	ended  bool
}

// End records the span's exit event. Calling End again is a no-op, so a
// deferred End is safe alongside an early explicit one.
func (s *Span) End() {
	if s.ended {
		return
	}
	s.ended = true
	s.thread.r.append(capture.OpExit, s.thread.id, s.name)
}
