package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hookguard/internal/render"
	"hookguard/internal/storage"
	"hookguard/internal/timings"
)

var (
	timingsFormat  string
	timingsLimit   int
	timingsStage   string
	timingsCleanup bool
)

var timingsCmd = &cobra.Command{
	Use:   "timings",
	Short: "Show persisted per-stage hook timings",
	Long: `Show timing samples recorded by hooks running with AST_TIMINGS=1.

Samples live in .hookguard/timings.db under the project root and are kept
for seven days.

Examples:
  hookguard timings
  hookguard timings --stage=parse --limit=20
  hookguard timings --cleanup`,
	Args: cobra.NoArgs,
	Run:  runTimings,
}

func init() {
	timingsCmd.Flags().StringVar(&timingsFormat, "format", "human", "Output format (json, human)")
	timingsCmd.Flags().IntVar(&timingsLimit, "limit", 10, "Number of recent samples to list")
	timingsCmd.Flags().StringVar(&timingsStage, "stage", "", "Only list samples of this stage")
	timingsCmd.Flags().BoolVar(&timingsCleanup, "cleanup", false, "Delete samples past the retention window")
	rootCmd.AddCommand(timingsCmd)
}

// TimingSampleCLI is one persisted sample.
type TimingSampleCLI struct {
	RunID      string `json:"runId"`
	Stage      string `json:"stage"`
	DurationUs int64  `json:"durationUs"`
	RecordedAt string `json:"recordedAt"`
}

// TimingsResponseCLI is the timings command output.
type TimingsResponseCLI struct {
	Database string                 `json:"database"`
	Total    int64                  `json:"total"`
	Oldest   *time.Time             `json:"oldest,omitempty"`
	Newest   *time.Time             `json:"newest,omitempty"`
	Deleted  int64                  `json:"deleted,omitempty"`
	Stages   []timings.StageSummary `json:"stages"`
	Recent   []TimingSampleCLI      `json:"recent"`
}

// Human renders the summary and recent samples.
func (r *TimingsResponseCLI) Human() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Database: %s\n", r.Database)
	fmt.Fprintf(&b, "Samples: %d", r.Total)
	if r.Oldest != nil && r.Newest != nil {
		fmt.Fprintf(&b, " (%s to %s)", r.Oldest.Format(time.RFC3339), r.Newest.Format(time.RFC3339))
	}
	b.WriteString("\n")
	if r.Deleted > 0 {
		fmt.Fprintf(&b, "Deleted: %d expired samples\n", r.Deleted)
	}
	if len(r.Stages) > 0 {
		b.WriteString("\n" + render.Header(render.SectionTimings) + "\n")
		b.WriteString(strings.Join(render.TimingLines(r.Stages), "\n") + "\n")
	}
	if len(r.Recent) > 0 {
		b.WriteString("\nRecent:\n")
		for _, s := range r.Recent {
			fmt.Fprintf(&b, "  %s  %-8s %8dus  run %s\n", s.RecordedAt, s.Stage, s.DurationUs, s.RunID)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func runTimings(cmd *cobra.Command, args []string) {
	root := workingDir()
	s := newSession(cmd, root)
	defer s.Close()

	db, err := storage.Open(root, s.logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening timing store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	resp := &TimingsResponseCLI{Database: db.Path()}

	if timingsCleanup {
		n, err := db.CleanupOldSamples(ctx, storage.DefaultRetention)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error cleaning up samples: %v\n", err)
			os.Exit(1)
		}
		resp.Deleted = n
	}

	total, oldest, newest, err := db.Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading timing stats: %v\n", err)
		os.Exit(1)
	}
	resp.Total, resp.Oldest, resp.Newest = total, oldest, newest

	samples, err := db.LoadSamples(ctx, time.Now().Add(-storage.DefaultRetention))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading samples: %v\n", err)
		os.Exit(1)
	}
	resp.Stages = timings.Summarize(samples)

	records, err := db.Records(ctx, timingsLimit, timingsStage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing samples: %v\n", err)
		os.Exit(1)
	}
	for _, r := range records {
		resp.Recent = append(resp.Recent, TimingSampleCLI{
			RunID:      r.RunID,
			Stage:      r.Stage,
			DurationUs: r.Duration.Microseconds(),
			RecordedAt: r.RecordedAt.Format(time.RFC3339),
		})
	}

	output, err := FormatResponse(resp, OutputFormat(timingsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
