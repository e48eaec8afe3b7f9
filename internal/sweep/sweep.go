// Package sweep analyzes every supported file under a directory and folds
// the results into the project summary shown by the user-prompt hook.
package sweep

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"hookguard/internal/analyzer"
	"hookguard/internal/ignore"
	"hookguard/internal/lang"
	"hookguard/internal/paths"
	"hookguard/internal/render"
	"hookguard/internal/timings"
)

// DefaultWorkers bounds concurrent file analyses.
const DefaultWorkers = 4

// Options configure one sweep.
type Options struct {
	// Matcher defaults to the built-in ignore list plus <root>/.gitignore
	Matcher *ignore.Matcher

	// SoftBudgetBytes applies to files at the root, NestedSoftBudgetBytes
	// below it. Zero disables the budget.
	SoftBudgetBytes       int
	NestedSoftBudgetBytes int

	Workers int
	Timeout time.Duration
	Policy  analyzer.Policy
	Timings *timings.Recorder
}

// FileResult is the outcome for one file. Exactly one of Result, Skipped
// and Err is set.
type FileResult struct {
	Path     string
	Language lang.Language
	Size     int64
	Result   *analyzer.Result
	Skipped  string
	Err      error
}

// Report holds the file results of a sweep sorted by path.
type Report struct {
	Root  string
	Files []FileResult
}

// Sweeper runs sweeps with a shared analyzer.
type Sweeper struct {
	analyzer *analyzer.Analyzer
	logger   *slog.Logger
}

// New creates a sweeper.
func New(a *analyzer.Analyzer, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sweeper{analyzer: a, logger: logger}
}

// Collect returns the sorted root-relative paths of supported files under
// root that no ignore rule excludes.
func Collect(root string, m *ignore.Matcher) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if p == root {
			return nil
		}
		rel := paths.Relative(p, root)
		if d.IsDir() {
			if m.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := lang.ResolvePath(rel); !ok {
			return nil
		}
		if m.MatchFile(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Matcher builds the default matcher for root: built-in directories, the
// root .gitignore and globs.
func Matcher(root string, globs []string, logger *slog.Logger) *ignore.Matcher {
	m := ignore.New(globs...)
	if err := m.LoadGitignore(root); err != nil && logger != nil {
		logger.Warn("failed to read .gitignore", "root", root, "error", err)
	}
	return m
}

// Run analyzes every collected file. Per-file failures are recorded on the
// file result; only a failure to walk root is returned.
func (s *Sweeper) Run(ctx context.Context, root string, opts Options) (*Report, error) {
	if opts.Matcher == nil {
		opts.Matcher = Matcher(root, nil, s.logger)
	}
	files, err := Collect(root, opts.Matcher)
	if err != nil {
		return nil, err
	}
	return s.RunFiles(ctx, root, files, opts), nil
}

// RunFiles analyzes the given root-relative files. Results keep the input
// order, which Collect makes path-sorted.
func (s *Sweeper) RunFiles(ctx context.Context, root string, files []string, opts Options) *Report {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range files {
		g.Go(func() error {
			results[i] = s.analyzeFile(gctx, root, rel, opts)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug("sweep finished", "root", root, "files", len(files))
	return &Report{Root: root, Files: results}
}

func (s *Sweeper) analyzeFile(ctx context.Context, root, rel string, opts Options) FileResult {
	l, _ := lang.ResolvePath(rel)
	fr := FileResult{Path: rel, Language: l}
	if err := ctx.Err(); err != nil {
		fr.Err = err
		return fr
	}

	abs := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil {
		fr.Err = err
		return fr
	}
	fr.Size = info.Size()

	budget := opts.SoftBudgetBytes
	if paths.Depth(rel) > 0 {
		budget = opts.NestedSoftBudgetBytes
	}
	if budget > 0 && fr.Size > int64(budget) {
		fr.Skipped = render.SoftBudgetSkip(int(fr.Size), budget)
		return fr
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		fr.Err = err
		return fr
	}
	res, err := s.analyzer.Analyze(ctx, src, l, analyzer.Options{
		Path:    rel,
		Policy:  opts.Policy,
		Timeout: opts.Timeout,
		Timings: opts.Timings,
	})
	if err != nil {
		s.logger.Debug("file skipped", "path", rel, "error", err)
		fr.Err = err
		return fr
	}
	fr.Result = res
	return fr
}
