package hook

import (
	"context"

	"hookguard/internal/cache"
	"hookguard/internal/deps"
	"hookguard/internal/sweep"
)

// maxPromptFiles bounds the files swept for one prompt.
const maxPromptFiles = 2000

// UserPrompt renders the project summary. Structure and metrics come from
// the project cache while no tracked file has changed.
func (h *Handler) UserPrompt(ctx context.Context, in *Input) string {
	root := h.root(in)
	m := sweep.Matcher(root, h.cfg.IgnoreGlobs, h.logger)
	files, err := sweep.Collect(root, m)
	if err != nil {
		h.logger.Warn("project walk failed", "root", root, "error", err)
		return ""
	}
	if len(files) > maxPromptFiles {
		h.logger.Debug("sweep truncated", "files", len(files), "limit", maxPromptFiles)
		files = files[:maxPromptFiles]
	}

	st, met := h.projectSummary(ctx, root, files)

	d, err := deps.Scan(root)
	if err != nil {
		h.logger.Warn("dependency scan failed", "error", err)
		d = nil
	}
	return sweep.RenderSummary(st, met, d, h.cfg.Hooks.ContextLimit)
}

func (h *Handler) projectSummary(ctx context.Context, root string, files []string) (sweep.Structure, sweep.Metrics) {
	store := cache.New(root, cache.DefaultTTL, h.logger)
	if e, ok := store.Lookup(files); ok {
		var st sweep.Structure
		var met sweep.Metrics
		if e.DecodeStructure(&st) == nil && e.DecodeMetrics(&met) == nil {
			h.logger.Debug("project cache hit", "files", len(files))
			return st, met
		}
	}

	rep := h.sweeper.RunFiles(ctx, root, files, sweep.Options{
		SoftBudgetBytes:       h.cfg.Hooks.SoftBudgetBytes,
		NestedSoftBudgetBytes: h.cfg.Hooks.NestedSoftBudgetBytes,
		Workers:               h.cfg.Hooks.SweepWorkers,
		Timeout:               h.cfg.Hooks.ParseTimeout,
		Policy:                &h.cfg.Settings,
	})
	st, met := sweep.Summarize(rep)
	if _, err := store.Save(files, st, met); err != nil {
		h.logger.Warn("failed to write project cache", "error", err)
	}
	return st, met
}
