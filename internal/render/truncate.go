package render

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Ellipsis marks a cut.
const Ellipsis = "…"

// TruncateUTF8Safe shortens s to at most limit characters, cutting only at
// grapheme cluster boundaries and appending Ellipsis when it cuts. The
// ellipsis counts toward the limit.
func TruncateUTF8Safe(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	budget := limit - 1

	var b strings.Builder
	count := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Str()
		n := utf8.RuneCountInString(cluster)
		if count+n > budget {
			break
		}
		b.WriteString(cluster)
		count += n
	}
	b.WriteString(Ellipsis)
	return b.String()
}
