package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/tracescope/tracescope/pkg/capture"
	"github.com/tracescope/tracescope/pkg/must"
	"github.com/tracescope/tracescope/pkg/report"
	"github.com/tracescope/tracescope/pkg/report/convert"
	"github.com/tracescope/tracescope/pkg/xlog"
)

var (
	analyzeConfigPath   string
	analyzeFormat       string
	analyzeExport       string
	analyzeOutput       string
	analyzeWorkers      int
	analyzeMinFrameTime time.Duration
	analyzeLogLevel     string
	analyzeTimeout      time.Duration

	analyzeCmd = &cobra.Command{
		Use:   "analyze <capture>",
		Short: "Build a hotspot report from a recorded capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0])
		},
	}
)

func analyzeConfig(cmd *cobra.Command) (*Config, error) {
	conf := &Config{}
	if analyzeConfigPath != "" {
		parsed, err := ParseConfig(analyzeConfigPath)
		if err != nil {
			return nil, err
		}
		conf = parsed
	} else {
		conf.fillDefault()
	}

	// Explicit flags win over the config file.
	if cmd.Flags().Changed("format") {
		conf.Format = analyzeFormat
	}
	if cmd.Flags().Changed("export") {
		conf.Export = analyzeExport
	}
	if cmd.Flags().Changed("output") {
		conf.Output = analyzeOutput
	}
	if cmd.Flags().Changed("workers") {
		conf.Workers = analyzeWorkers
	}
	if cmd.Flags().Changed("min-frame-time") {
		conf.MinFrameTime = analyzeMinFrameTime
	}
	if cmd.Flags().Changed("log-level") {
		conf.LogLevel = analyzeLogLevel
	}
	return conf, nil
}

func runAnalyze(cmd *cobra.Command, capturePath string) error {
	conf, err := analyzeConfig(cmd)
	if err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(conf.LogLevel)
	if err != nil {
		return fmt.Errorf("bad log level %q: %w", conf.LogLevel, err)
	}
	logger, err := xlog.NewTTYLogger(level)
	if err != nil {
		return err
	}

	format, err := capture.ParseFormat(conf.Format)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(capturePath)
	if err != nil {
		return fmt.Errorf("can't read capture: %w", err)
	}

	ctx := context.Background()
	if analyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, analyzeTimeout)
		defer cancel()
	}

	rep, err := report.Analyze(ctx, data, format, &report.Options{
		Workers:      conf.Workers,
		MinFrameTime: uint64(conf.MinFrameTime),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if conf.Output != "" {
		f, err := os.Create(conf.Output)
		if err != nil {
			return fmt.Errorf("can't create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	return writeExport(out, rep, conf.Export)
}

func writeExport(w io.Writer, rep *report.Report, export string) error {
	switch export {
	case "report":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)

	case "pprof":
		return convert.TreeToPProf(rep.Combined.Tree).Write(w)

	case "collapsed", "folded":
		return convert.TreeToFolded(rep.Combined.Tree).Encode(w)

	default:
		return fmt.Errorf("unsupported export %q, expected one of (report, pprof, collapsed)", export)
	}
}

func init() {
	analyzeCmd.Flags().StringVarP(
		&analyzeConfigPath,
		"config",
		"c",
		"",
		"Path to a YAML config mirroring the flags",
	)
	analyzeCmd.Flags().StringVarP(
		&analyzeFormat,
		"format",
		"f",
		"auto",
		"Capture format, one of (auto, binary, text)",
	)
	analyzeCmd.Flags().StringVarP(
		&analyzeExport,
		"export",
		"e",
		"report",
		"Output kind, one of (report, pprof, collapsed)",
	)
	bindOutputFlag(analyzeCmd.Flags(), &analyzeOutput, "", "Output path, stdout when empty")
	analyzeCmd.Flags().IntVar(
		&analyzeWorkers,
		"workers",
		0,
		"Concurrent analysis workers, GOMAXPROCS when 0",
	)
	analyzeCmd.Flags().DurationVar(
		&analyzeMinFrameTime,
		"min-frame-time",
		0,
		"Drop frames shorter than this from per-frame output",
	)
	analyzeCmd.Flags().DurationVar(
		&analyzeTimeout,
		"timeout",
		0,
		"Abandon unfinished partitions after this long, no limit when 0",
	)
	analyzeCmd.Flags().StringVar(
		&analyzeLogLevel,
		"log-level",
		"info",
		"Logging level, one of (debug, info, warn, error)",
	)

	must.Must(analyzeCmd.MarkFlagFilename("config"))
	must.Must(analyzeCmd.MarkFlagFilename("output"))

	rootCmd.AddCommand(analyzeCmd)
}
