package hook

import (
	"context"
	"slices"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"hookguard/internal/lang"
	"hookguard/internal/parse"
)

// tokens returns the non-comment leaf tokens of src, or nil with ok=false
// when src does not parse.
func tokens(ctx context.Context, pool *parse.Pool, src []byte, l lang.Language, path string, timeout time.Duration) ([]string, bool) {
	if parse.Validate(src) != nil {
		return nil, false
	}
	tree, err := pool.ParseAny(ctx, parse.Request{Source: src, Lang: l, TSX: lang.UsesTSX(path), Timeout: timeout})
	if err != nil {
		return nil, false
	}
	defer tree.Close()

	var out []string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if strings.Contains(n.Type(), "comment") {
			return
		}
		if n.ChildCount() == 0 {
			if text := strings.TrimSpace(n.Content(src)); text != "" {
				out = append(out, text)
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if c := n.Child(i); c != nil {
				visit(c)
			}
		}
	}
	visit(tree.Root())
	return out, true
}

// equivalent reports whether a and b differ only in whitespace and
// comments. Fragments that do not parse fall back to a whitespace-insensitive
// comparison.
func (h *Handler) equivalent(ctx context.Context, a, b []byte, l lang.Language, path string) bool {
	pool := h.analyzer.Pool()
	ta, okA := tokens(ctx, pool, a, l, path, h.cfg.Hooks.ParseTimeout)
	tb, okB := tokens(ctx, pool, b, l, path, h.cfg.Hooks.ParseTimeout)
	if !okA || !okB {
		return slices.Equal(strings.Fields(string(a)), strings.Fields(string(b)))
	}
	return slices.Equal(ta, tb)
}
