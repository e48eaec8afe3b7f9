package hook

import (
	"context"
	"os"
	"time"

	"hookguard/internal/contract"
	"hookguard/internal/render"
	"hookguard/internal/storage"
	"hookguard/internal/timings"
)

// timingWindow is how far back persisted samples feed the timing section.
const timingWindow = 7 * 24 * time.Hour

// PostTool renders the context block for a completed write. It returns
// false when the call produced nothing worth reporting.
func (h *Handler) PostTool(ctx context.Context, in *Input) (string, bool) {
	t, ok := h.resolveTarget(in)
	if !ok {
		return "", false
	}
	h.logger.Debug("posttool analysis", "path", t.rel,
		"ast_only", h.cfg.Hooks.PosttoolASTOnly, "dry_run", h.cfg.Hooks.PosttoolDryRun)
	src, err := os.ReadFile(t.abs)
	if err != nil {
		h.logger.Debug("written file unreadable", "path", t.rel, "error", err)
		return "", false
	}

	rec := timings.New(h.cfg.Hooks.Timings)
	fr := render.FileReport{Path: t.rel, Language: string(t.lang)}

	if budget := h.cfg.Hooks.SoftBudgetBytes; budget > 0 && len(src) > budget {
		fr.Skipped = render.SoftBudgetSkip(len(src), budget)
	} else {
		opts := h.options(t)
		opts.Timings = rec
		res, err := h.analyzer.Analyze(ctx, src, t.lang, opts)
		if err != nil {
			fr.Err = err
		} else {
			stop := rec.Start("score")
			score := res.Score()
			stop()

			fr.Issues = res.Issues
			fr.Metrics = res.Metrics
			fr.Score = &score
			fr.Source = src

			if edits := in.ToolInput.EditList(in.ToolName); len(edits) > 0 {
				fr.Changed = changedLines(string(src), edits)
				fr.Deltas = h.editDeltas(ctx, src, edits, t, rec)
			}
		}
	}

	block := render.Block{Files: []render.FileReport{fr}, Opts: h.renderOptions(h.cfg.Hooks.ContextLimit)}
	stop := rec.Start("render")
	out := block.Render()
	stop()

	if rec.Enabled() {
		block.Timings = h.timingSummary(ctx, h.root(in), rec)
		out = block.Render()
	}
	return out, true
}

// editDeltas reconstructs the pre-edit file and diffs its contract against
// src.
func (h *Handler) editDeltas(ctx context.Context, src []byte, edits []Edit, t target, rec *timings.Recorder) []contract.Delta {
	before, err := revertEdits(string(src), edits)
	if err != nil {
		h.logger.Debug("cannot reconstruct previous version", "path", t.rel, "error", err)
		return nil
	}
	opts := h.options(t)
	opts.Timings = rec
	res, err := h.differ.Compare(ctx, []byte(before), src, t.lang, opts)
	if err != nil {
		h.logger.Debug("contract diff failed", "path", t.rel, "error", err)
		return nil
	}
	return res.Deltas
}

// timingSummary persists this run's samples and summarizes them together
// with the recent history of the project. Storage failures fall back to
// this run alone.
func (h *Handler) timingSummary(ctx context.Context, root string, rec *timings.Recorder) []timings.StageSummary {
	samples := rec.Samples()
	db, err := storage.Open(root, h.logger)
	if err != nil {
		h.logger.Warn("timing store unavailable", "error", err)
		return timings.Summarize(samples)
	}
	defer db.Close()

	if err := db.RecordSamples(ctx, h.runID, samples); err != nil {
		h.logger.Warn("failed to record timings", "error", err)
		return timings.Summarize(samples)
	}
	if _, err := db.CleanupOldSamples(ctx, storage.DefaultRetention); err != nil {
		h.logger.Debug("timing cleanup failed", "error", err)
	}
	history, err := db.LoadSamples(ctx, time.Now().Add(-timingWindow))
	if err != nil {
		h.logger.Warn("failed to load timing history", "error", err)
		return timings.Summarize(samples)
	}
	return timings.Summarize(history)
}
