package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hookguard/internal/analyzer"
	"hookguard/internal/deps"
	"hookguard/internal/quality"
	"hookguard/internal/render"
	"hookguard/internal/sweep"
	"hookguard/internal/timings"
)

var (
	sweepFormat  string
	sweepWorkers int
	sweepTimings bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [dir]",
	Short: "Analyze every supported file under a directory",
	Long: `Walk a directory, skipping built-in ignored directories, .gitignore entries
and configured ignore globs, and analyze every supported file concurrently.

Examples:
  hookguard sweep
  hookguard sweep --format=human ./services/api
  hookguard sweep --workers=8 --timings`,
	Args: cobra.MaximumNArgs(1),
	Run:  runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepFormat, "format", "json", "Output format (json, human)")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "Concurrent analyses (0 uses AST_SWEEP_WORKERS)")
	sweepCmd.Flags().BoolVar(&sweepTimings, "timings", false, "Include per-stage timings")
	rootCmd.AddCommand(sweepCmd)
}

// SweepFileCLI is one file of a sweep.
type SweepFileCLI struct {
	Path     string          `json:"path"`
	Language string          `json:"language"`
	Score    *int            `json:"score,omitempty"`
	Issues   []quality.Issue `json:"issues,omitempty"`
	Skipped  string          `json:"skipped,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// SweepResponseCLI is the sweep command output.
type SweepResponseCLI struct {
	Root      string                 `json:"root"`
	Structure sweep.Structure        `json:"structure"`
	Metrics   sweep.Metrics          `json:"metrics"`
	Deps      *deps.Summary          `json:"dependencies,omitempty"`
	Files     []SweepFileCLI         `json:"files"`
	Timings   []timings.StageSummary `json:"timings,omitempty"`
}

// Human renders the project summary shown by the user-prompt hook.
func (r *SweepResponseCLI) Human() string {
	out := sweep.RenderSummary(r.Structure, r.Metrics, r.Deps, 0)
	for _, f := range r.Files {
		switch {
		case f.Error != "":
			out += fmt.Sprintf("\n- %s: skipped: %s", f.Path, f.Error)
		case f.Skipped != "":
			out += fmt.Sprintf("\n- %s: %s", f.Path, f.Skipped)
		}
	}
	if len(r.Timings) > 0 {
		out += "\n\n" + render.Header(render.SectionTimings) + "\n" + strings.Join(render.TimingLines(r.Timings), "\n")
	}
	return out
}

func runSweep(cmd *cobra.Command, args []string) {
	start := time.Now()
	root := workingDir()
	if len(args) == 1 {
		root = args[0]
		if !filepath.IsAbs(root) {
			root = filepath.Join(workingDir(), root)
		}
	}
	s := newSession(cmd, root)
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers := s.cfg.Hooks.SweepWorkers
	if sweepWorkers > 0 {
		workers = sweepWorkers
	}
	rec := timings.New(sweepTimings || s.cfg.Hooks.Timings)

	sw := sweep.New(analyzer.New(s.logger), s.logger)
	rep, err := sw.Run(ctx, root, sweep.Options{
		Matcher:               sweep.Matcher(root, s.cfg.IgnoreGlobs, s.logger),
		SoftBudgetBytes:       s.cfg.Hooks.SoftBudgetBytes,
		NestedSoftBudgetBytes: s.cfg.Hooks.NestedSoftBudgetBytes,
		Workers:               workers,
		Timeout:               s.cfg.Hooks.ParseTimeout,
		Policy:                &s.cfg.Settings,
		Timings:               rec,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sweeping %s: %v\n", root, err)
		os.Exit(1)
	}

	st, met := sweep.Summarize(rep)
	resp := &SweepResponseCLI{Root: root, Structure: st, Metrics: met}
	if d, err := deps.Scan(root); err != nil {
		s.logger.Warn("dependency scan failed", "error", err)
	} else {
		resp.Deps = d
	}
	for _, f := range rep.Files {
		fc := SweepFileCLI{Path: f.Path, Language: string(f.Language), Skipped: f.Skipped}
		switch {
		case f.Err != nil:
			_, fc.Error = render.SafeMessage(f.Err)
		case f.Result != nil:
			total := f.Result.Score().Total
			fc.Score = &total
			fc.Issues = f.Result.Issues
		}
		resp.Files = append(resp.Files, fc)
	}
	if rec.Enabled() {
		resp.Timings = timings.Summarize(rec.Samples())
	}

	output, err := FormatResponse(resp, OutputFormat(sweepFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	s.logger.Debug("sweep completed",
		"root", root,
		"files", len(rep.Files),
		"duration", time.Since(start).Milliseconds(),
	)
}
