package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"hookguard/internal/analyzer"
	"hookguard/internal/contract"
	"hookguard/internal/lang"
	"hookguard/internal/paths"
	"hookguard/internal/quality"
	"hookguard/internal/render"
	"hookguard/internal/version"
)

var (
	analyzeFormat string
	analyzeBefore string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze one source file",
	Long: `Analyze a source file and print its issues, metrics and quality score.

With --before, the given file is treated as the previous version and function
contract changes are reported as well.

Examples:
  hookguard analyze internal/api/handler.go
  hookguard analyze --format=human src/app.ts
  hookguard analyze --before=old/app.py app.py`,
	Args: cobra.ExactArgs(1),
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "json", "Output format (json, human)")
	analyzeCmd.Flags().StringVar(&analyzeBefore, "before", "", "Previous version of the file for contract comparison")
	rootCmd.AddCommand(analyzeCmd)
}

// AnalyzeResponseCLI is the analyze command output.
type AnalyzeResponseCLI struct {
	Engine    string              `json:"engine"`
	Report    quality.Report      `json:"report"`
	Issues    []quality.Issue     `json:"issues"`
	Functions []analyzer.Function `json:"functions,omitempty"`
	Breakage  *analyzer.Breakage  `json:"breakage,omitempty"`
	Contract  *contract.Result    `json:"contract,omitempty"`

	block *render.Block
}

// Human renders the post-tool context block for the file.
func (r *AnalyzeResponseCLI) Human() string {
	return r.block.Render()
}

func runAnalyze(cmd *cobra.Command, args []string) {
	start := time.Now()
	root := workingDir()
	s := newSession(cmd, root)
	defer s.Close()

	absPath := args[0]
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(root, absPath)
	}
	rel := paths.Relative(absPath, root)

	l, ok := lang.ResolvePath(absPath)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unsupported file type: %s\n", rel)
		os.Exit(1)
	}
	src, err := os.ReadFile(absPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	a := analyzer.New(s.logger)
	opts := analyzer.Options{Path: rel, Policy: &s.cfg.Settings, Timeout: s.cfg.Hooks.ParseTimeout}
	res, err := a.Analyze(ctx, src, l, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing file: %v\n", err)
		os.Exit(1)
	}

	score := res.Score()
	resp := &AnalyzeResponseCLI{
		Engine:    version.EngineID,
		Report:    res.Report(),
		Issues:    res.Issues,
		Functions: res.Functions,
		Breakage:  res.Breakage,
	}
	fr := render.FileReport{
		Path:     rel,
		Language: string(l),
		Issues:   res.Issues,
		Metrics:  res.Metrics,
		Score:    &score,
		Source:   src,
	}

	if analyzeBefore != "" {
		before, err := os.ReadFile(analyzeBefore)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cr, err := contract.NewDiffer(a, s.logger).Compare(ctx, before, src, l, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error comparing versions: %v\n", err)
			os.Exit(1)
		}
		resp.Contract = cr
		fr.Deltas = cr.Deltas
	}

	resp.block = &render.Block{
		Files: []render.FileReport{fr},
		Opts: render.Options{
			QuickTips:        s.cfg.Hooks.QuickTips,
			QuickTipsMax:     s.cfg.Hooks.QuickTipsMax,
			ForceAPIContract: analyzeBefore != "",
			Snippets:         s.cfg.Hooks.EntitySnippets,
			MaxSnippets:      s.cfg.Hooks.MaxSnippets,
			DiffContext:      s.cfg.Hooks.DiffContext,
		},
	}

	output, err := FormatResponse(resp, OutputFormat(analyzeFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	s.logger.Debug("analysis completed",
		"file", rel,
		"issues", len(res.Issues),
		"score", score.Total,
		"duration", time.Since(start).Milliseconds(),
	)
}
