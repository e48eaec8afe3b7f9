package hook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"hookguard/internal/analyzer"
	"hookguard/internal/config"
	"hookguard/internal/contract"
	"hookguard/internal/lang"
	"hookguard/internal/paths"
	"hookguard/internal/render"
	"hookguard/internal/sweep"
)

// Handler runs the hook pipelines for one invocation.
type Handler struct {
	cfg      *config.Config
	logger   *slog.Logger
	analyzer *analyzer.Analyzer
	differ   *contract.Differ
	sweeper  *sweep.Sweeper
	runID    string
}

// NewHandler creates a handler. runID tags persisted timing samples.
func NewHandler(cfg *config.Config, logger *slog.Logger, runID string) *Handler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := analyzer.New(logger)
	return &Handler{
		cfg:      cfg,
		logger:   logger,
		analyzer: a,
		differ:   contract.NewDiffer(a, logger),
		sweeper:  sweep.New(a, logger),
		runID:    runID,
	}
}

// Run reads one event from r, runs the pipeline for event and writes its
// payload to w. Internal failures, panics included, degrade to the
// permissive payload of the event.
func (h *Handler) Run(ctx context.Context, event string, r io.Reader, w io.Writer) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("hook panicked", "event", event, "panic", rec, "stack", string(debug.Stack()))
			err = h.fallback(event, w)
		}
	}()

	if event == EventStop {
		_, _ = io.Copy(io.Discard, io.LimitReader(r, maxInputBytes))
		return WriteJSON(w, StopOutput{Continue: true})
	}

	in, readErr := ReadInput(r)
	if readErr != nil {
		h.logger.Warn("ignoring unreadable hook input", "event", event, "error", readErr)
		return h.fallback(event, w)
	}

	switch event {
	case EventPreToolUse:
		d := h.PreTool(ctx, in)
		h.logger.Info("pretool decision", "tool", in.ToolName, "path", in.ToolInput.FilePath, "decision", d.Permission)
		return WriteJSON(w, preToolOutput(d))
	case EventPostToolUse:
		text, ok := h.PostTool(ctx, in)
		if !ok {
			return nil
		}
		return WriteJSON(w, contextOutput(EventPostToolUse, text))
	case EventUserPromptSubmit:
		text := h.UserPrompt(ctx, in)
		if text == "" {
			return nil
		}
		return WriteJSON(w, contextOutput(EventUserPromptSubmit, text))
	default:
		return fmt.Errorf("unknown hook event %q", event)
	}
}

func (h *Handler) fallback(event string, w io.Writer) error {
	switch event {
	case EventPreToolUse:
		return WriteJSON(w, preToolOutput(render.AllowDecision("")))
	case EventStop:
		return WriteJSON(w, StopOutput{Continue: true})
	default:
		return nil
	}
}

func preToolOutput(d render.Decision) PreToolOutput {
	return PreToolOutput{HookSpecificOutput: PreToolSpecific{
		HookEventName:            EventPreToolUse,
		PermissionDecision:       d.Permission,
		PermissionDecisionReason: d.Reason,
	}}
}

func contextOutput(event, text string) ContextOutput {
	return ContextOutput{HookSpecificOutput: ContextSpecific{
		HookEventName:     event,
		AdditionalContext: text,
	}}
}

// target is the file a tool call writes.
type target struct {
	abs  string
	rel  string
	lang lang.Language
}

// root is the project root of an event: its cwd, else the process cwd.
func (h *Handler) root(in *Input) string {
	if in.Cwd != "" {
		return in.Cwd
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// resolveTarget returns the analyzable, non-ignored file of a write-like
// call, or false.
func (h *Handler) resolveTarget(in *Input) (target, bool) {
	if !IsWriteTool(in.ToolName) || in.ToolInput.FilePath == "" {
		return target{}, false
	}
	abs := in.ToolInput.FilePath
	root := h.root(in)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, abs)
	}
	l, ok := lang.ResolvePath(abs)
	if !ok {
		h.logger.Debug("unsupported file type", "path", abs)
		return target{}, false
	}
	rel := paths.Relative(abs, root)
	if h.cfg.ShouldIgnorePath(rel) {
		h.logger.Debug("path ignored", "path", rel)
		return target{}, false
	}
	return target{abs: abs, rel: rel, lang: l}, true
}

func (h *Handler) options(t target) analyzer.Options {
	return analyzer.Options{
		Path:    t.rel,
		Policy:  &h.cfg.Settings,
		Timeout: h.cfg.Hooks.ParseTimeout,
	}
}

func (h *Handler) renderOptions(limit int) render.Options {
	return render.Options{
		QuickTips:        h.cfg.Hooks.QuickTips,
		QuickTipsMax:     h.cfg.Hooks.QuickTipsMax,
		ForceAPIContract: h.cfg.Hooks.ForceAPIContract,
		Snippets:         h.cfg.Hooks.EntitySnippets,
		MaxSnippets:      h.cfg.Hooks.MaxSnippets,
		DiffContext:      h.cfg.Hooks.DiffContext,
		Limit:            limit,
	}
}
