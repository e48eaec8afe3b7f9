package hook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"hookguard/internal/contract"
	"hookguard/internal/quality"
	"hookguard/internal/render"
)

// NoOpReason denies an edit that changes only whitespace or comments.
const NoOpReason = "No-op change (whitespace/comments only)"

// change is the synthesized content of a file around one tool call.
type change struct {
	// before is nil when the file does not exist yet
	before []byte
	after  []byte
	edits  []Edit
}

func (c *change) isEdit() bool { return c.edits != nil }

// synthesize computes the file content the tool call would produce.
func (h *Handler) synthesize(in *Input, t target) (*change, error) {
	before, err := os.ReadFile(t.abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		before = nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", t.rel, err)
	}

	if in.ToolName == ToolWrite {
		if in.ToolInput.Content == nil {
			return nil, errors.New("write without content")
		}
		return &change{before: before, after: []byte(*in.ToolInput.Content)}, nil
	}

	edits := in.ToolInput.EditList(in.ToolName)
	if len(edits) == 0 {
		return nil, errors.New("edit without replacements")
	}
	after, err := applyEdits(string(before), edits)
	if err != nil {
		return nil, err
	}
	return &change{before: before, after: []byte(after), edits: edits}, nil
}

// PreTool decides whether a write-like tool call may proceed.
func (h *Handler) PreTool(ctx context.Context, in *Input) render.Decision {
	t, ok := h.resolveTarget(in)
	if !ok {
		return render.AllowDecision("")
	}
	if !h.cfg.Hooks.PretoolASTOnly {
		h.logger.Debug("remote validation not configured, deciding locally", "path", t.rel)
	}

	c, err := h.synthesize(in, t)
	if err != nil {
		h.logger.Debug("cannot synthesize new content, allowing", "path", t.rel, "error", err)
		return render.AllowDecision("")
	}
	if len(bytes.TrimSpace(c.after)) == 0 {
		return render.AllowDecision("")
	}

	timeout := h.cfg.Hooks.ParseTimeout
	if b := h.analyzer.Breakage(ctx, c.after, t.lang, t.rel, timeout); b != nil {
		if c.before == nil || h.analyzer.Breakage(ctx, c.before, t.lang, t.rel, timeout) == nil {
			return render.DenyDecision(fmt.Sprintf("%s: syntax error at line %d, column %d", render.BreakageReason, b.Line, b.Column))
		}
	}

	opts := h.options(t)
	cur, err := h.analyzer.Analyze(ctx, c.after, t.lang, opts)
	if err != nil {
		h.logger.Warn("analysis failed, allowing", "path", t.rel, "error", err)
		return render.AllowDecision("")
	}

	if in.ToolName == ToolWrite && c.before != nil && h.equivalent(ctx, c.before, c.after, t.lang, t.rel) {
		if !hasSecurityIssue(cur.Issues) {
			return render.AllowDecision("No changes")
		}
	}
	if c.isEdit() && h.editsAreNoOps(ctx, c.edits, t) {
		return render.DenyDecision(NoOpReason)
	}

	issues := cur.Issues
	var deltas []contract.Delta
	if c.before != nil {
		if prev, err := h.analyzer.Analyze(ctx, c.before, t.lang, opts); err == nil {
			issues = introduced(prev.Issues, cur.Issues)
			deltas = contract.Diff(prev.Functions, cur.Functions).Deltas
		} else {
			h.logger.Debug("previous version not analyzable", "path", t.rel, "error", err)
		}
	}
	return render.Decide(issues, deltas, h.cfg.GateSeverity())
}

func (h *Handler) editsAreNoOps(ctx context.Context, edits []Edit, t target) bool {
	for _, e := range edits {
		if e.OldString == "" && e.NewString == "" {
			continue
		}
		if !h.equivalent(ctx, []byte(e.OldString), []byte(e.NewString), t.lang, t.rel) {
			return false
		}
	}
	return true
}

func hasSecurityIssue(issues []quality.Issue) bool {
	for _, is := range issues {
		if is.RuleID == quality.RuleCredentials || is.RuleID == quality.RuleSQL {
			return true
		}
	}
	return false
}

// introduced returns the issues of cur not already present in prev. Issues
// match by rule and message; line numbers shift with edits.
func introduced(prev, cur []quality.Issue) []quality.Issue {
	type key struct{ rule, msg string }
	seen := make(map[key]int, len(prev))
	for _, is := range prev {
		seen[key{is.RuleID, is.Message}]++
	}
	var out []quality.Issue
	for _, is := range cur {
		k := key{is.RuleID, is.Message}
		if seen[k] > 0 {
			seen[k]--
			continue
		}
		out = append(out, is)
	}
	return out
}
