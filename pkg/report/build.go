package report

import (
	"context"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tracescope/tracescope/pkg/aggregate"
	"github.com/tracescope/tracescope/pkg/calltree"
	"github.com/tracescope/tracescope/pkg/capture"
	"github.com/tracescope/tracescope/pkg/frames"
	"github.com/tracescope/tracescope/pkg/xlog"
)

// Options tune the analysis. The zero value is usable.
type Options struct {
	// Workers bounds the number of concurrently analyzed partitions.
	// Defaults to GOMAXPROCS.
	Workers int

	// MinFrameTime drops frames shorter than this many nanoseconds from the
	// timeline and the per-frame sections. The all-frames view is unaffected.
	MinFrameTime uint64

	Logger xlog.Logger
}

func (o *Options) normalized() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = xlog.NewNop()
	}
	return opts
}

// Analyze parses a capture and builds its report. A structurally invalid
// capture yields a *capture.FormatError and no report.
func Analyze(ctx context.Context, data []byte, format capture.Format, opts *Options) (*Report, error) {
	c, err := capture.Decode(data, format)
	if err != nil {
		return nil, err
	}
	return Build(ctx, c, opts), nil
}

// Build computes the report for an already decoded capture.
//
// Per-thread reconstruction and per-frame aggregation run on independent
// event subsets, so they are fanned out across workers; assembly waits for
// all of them. Cancelling ctx abandons not-yet-started partitions: the
// report keeps the finished ones and is marked Incomplete instead of
// failing.
func Build(ctx context.Context, c *capture.Capture, opts *Options) *Report {
	o := opts.normalized()
	logger := o.Logger

	framed, unframed := frames.Split(c)

	r := &Report{
		Timeline: frames.Timeline(framed, o.MinFrameTime),
		Notes:    collectNotes(c),
	}

	var incomplete atomic.Bool
	g := &errgroup.Group{}
	g.SetLimit(o.Workers)

	runSection := func(events []capture.Event, sec *Section) {
		threads := frames.ByThread(events)
		sec.Threads = make([]*ThreadReport, len(threads))
		for i, th := range threads {
			i, th := i, th
			g.Go(func() error {
				if ctx.Err() != nil {
					incomplete.Store(true)
					return nil
				}
				sec.Threads[i] = analyzeThread(th)
				return nil
			})
		}
	}

	if framedEvents := framedOnly(c.Events); len(framedEvents) > 0 {
		runSection(framedEvents, &r.AllFrames)
	}
	if unframed != nil {
		runSection(unframed.Events, &r.Unframed)
	}
	for _, b := range framed {
		if b.MaxTS-b.MinTS < o.MinFrameTime {
			continue
		}
		fs := &FrameSection{FrameID: b.FrameID, StartTS: b.MinTS, EndTS: b.MaxTS}
		r.Frames = append(r.Frames, fs)
		runSection(b.Events, &fs.Section)
	}

	// Wait-for-all barrier: the cross-thread merges below must see every
	// finished partition.
	_ = g.Wait()

	finalizeSection(&r.AllFrames, &incomplete)
	finalizeSection(&r.Unframed, &incomplete)
	for _, fs := range r.Frames {
		finalizeSection(&fs.Section, &incomplete)
	}
	r.Combined = combine(append(append([]*ThreadReport(nil), r.AllFrames.Threads...), r.Unframed.Threads...))
	r.Incomplete = incomplete.Load()

	logger.Info(ctx, "Built report",
		zap.Int("events", len(c.Events)),
		zap.Int("frames", len(framed)),
		zap.Int("notes", len(r.Notes)),
		zap.Bool("incomplete", r.Incomplete),
	)

	return r
}

func analyzeThread(th frames.ThreadEvents) *ThreadReport {
	forest := calltree.Reconstruct(th.ThreadID, th.Events)
	return &ThreadReport{
		ThreadID:    th.ThreadID,
		Tree:        aggregate.Tree(forest),
		Flat:        aggregate.FlatView(forest),
		Partial:     forest.Partial,
		Diagnostics: forest.Diagnostics,
	}
}

// finalizeSection drops abandoned thread slots and computes the section's
// cross-thread combine from the threads that did finish.
func finalizeSection(sec *Section, incomplete *atomic.Bool) {
	finished := sec.Threads[:0]
	for _, th := range sec.Threads {
		if th == nil {
			incomplete.Store(true)
			continue
		}
		finished = append(finished, th)
	}
	sec.Threads = finished
	sec.Combined = combine(sec.Threads)
}

func combine(threads []*ThreadReport) Combined {
	trees := make([][]*aggregate.TreeNode, 0, len(threads))
	flats := make([][]aggregate.FlatEntry, 0, len(threads))
	for _, th := range threads {
		trees = append(trees, th.Tree)
		flats = append(flats, th.Flat)
	}
	return Combined{
		Tree: aggregate.CombineTrees(trees...),
		Flat: aggregate.CombineFlats(flats...),
	}
}

func framedOnly(events []capture.Event) []capture.Event {
	framed := make([]capture.Event, 0, len(events))
	for _, ev := range events {
		if ev.FrameID != capture.UnframedID {
			framed = append(framed, ev)
		}
	}
	return framed
}

func collectNotes(c *capture.Capture) []Note {
	var notes []Note
	for i := range c.Events {
		ev := &c.Events[i]
		if ev.Op != capture.OpNote {
			continue
		}
		notes = append(notes, Note{
			Name:      ev.Name,
			Timestamp: ev.Timestamp,
			FrameID:   ev.FrameID,
			ThreadID:  ev.ThreadID,
		})
	}
	return notes
}
