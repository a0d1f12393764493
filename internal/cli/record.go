package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracescope/tracescope/pkg/capture"
	"github.com/tracescope/tracescope/pkg/must"
	"github.com/tracescope/tracescope/pkg/recorder"
)

var (
	recordOutput  string
	recordThreads int
	recordFrames  int

	recordCmd = &cobra.Command{
		Use:   "record",
		Short: "Record a synthetic demo capture to try the analyzer on",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRecord()
		},
	}
)

// runRecord exercises the recorder with a small nested workload and writes
// the resulting binary capture.
func runRecord() error {
	rec := recorder.New()
	rec.Start()

	var wg sync.WaitGroup
	for t := 0; t < recordThreads; t++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			th := rec.ForThread(id)
			for i := 0; i < 100; i++ {
				span := th.Span("work")
				inner := th.Span("inner")
				busy(10 * time.Microsecond)
				inner.End()
				busy(5 * time.Microsecond)
				span.End()
			}
			th.Note(fmt.Sprintf("worker %d done", id))
		}(uint64(t + 1))
	}
	wg.Wait()

	for f := 0; f < recordFrames; f++ {
		rec.SetFrame(int32(f))
		th := rec.ForThread(0)
		span := th.Span("frame")
		busy(50 * time.Microsecond)
		span.End()
	}

	rec.Stop()

	data, err := capture.EncodeBinary(rec.Flush())
	if err != nil {
		return err
	}
	if err := os.WriteFile(recordOutput, data, 0o644); err != nil {
		return fmt.Errorf("can't write capture: %w", err)
	}
	return nil
}

func busy(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

func init() {
	bindOutputFlag(recordCmd.Flags(), &recordOutput, "tracescope.capture", "Capture output path")
	recordCmd.Flags().IntVar(
		&recordThreads,
		"threads",
		4,
		"Number of recording goroutines",
	)
	recordCmd.Flags().IntVar(
		&recordFrames,
		"frames",
		8,
		"Number of demo frames to record",
	)

	must.Must(recordCmd.MarkFlagFilename("output"))

	rootCmd.AddCommand(recordCmd)
}
