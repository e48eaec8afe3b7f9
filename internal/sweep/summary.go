package sweep

import (
	"fmt"
	"sort"
	"strings"

	"hookguard/internal/deps"
	"hookguard/internal/quality"
	"hookguard/internal/render"
)

// Section titles of the project summary.
const (
	SectionCodebase     = "CODEBASE"
	SectionQuality      = "QUALITY"
	SectionDependencies = "DEPENDENCIES"
)

const (
	topLanguages  = 3
	topCategories = 3
	topHotspots   = 3
)

// LanguageCount is the file and line total of one language.
type LanguageCount struct {
	Language string `json:"language"`
	Files    int    `json:"files"`
	Lines    int    `json:"lines"`
}

// Structure describes the shape of the codebase.
type Structure struct {
	Files     int             `json:"files"`
	Skipped   int             `json:"skipped"`
	Lines     int             `json:"lines"`
	CodeLines int             `json:"code_lines"`
	Languages []LanguageCount `json:"languages"`
}

// CategoryCount is the number of issues in one category.
type CategoryCount struct {
	Category quality.Category `json:"category"`
	Count    int              `json:"count"`
}

// Hotspot is a low-scoring file.
type Hotspot struct {
	Path   string `json:"path"`
	Score  int    `json:"score"`
	Issues int    `json:"issues"`
}

// Metrics aggregates issues across the codebase.
type Metrics struct {
	Counts     map[quality.Severity]int `json:"counts"`
	Categories []CategoryCount          `json:"categories"`
	Hotspots   []Hotspot                `json:"hotspots"`
}

// Summarize folds a report into its structure and metrics.
func Summarize(r *Report) (Structure, Metrics) {
	var st Structure
	m := Metrics{Counts: map[quality.Severity]int{}}
	byLang := map[string]*LanguageCount{}
	byCat := map[quality.Category]int{}

	for _, f := range r.Files {
		if f.Result == nil {
			st.Skipped++
			continue
		}
		st.Files++
		st.Lines += f.Result.Metrics.TotalLines
		st.CodeLines += f.Result.Metrics.CodeLines

		lc := byLang[string(f.Language)]
		if lc == nil {
			lc = &LanguageCount{Language: string(f.Language)}
			byLang[string(f.Language)] = lc
		}
		lc.Files++
		lc.Lines += f.Result.Metrics.TotalLines

		for _, is := range f.Result.Issues {
			m.Counts[is.Severity]++
			byCat[is.Category]++
		}
		if len(f.Result.Issues) > 0 {
			m.Hotspots = append(m.Hotspots, Hotspot{
				Path:   f.Path,
				Score:  f.Result.Score().Total,
				Issues: len(f.Result.Issues),
			})
		}
	}

	for _, lc := range byLang {
		st.Languages = append(st.Languages, *lc)
	}
	sort.Slice(st.Languages, func(i, j int) bool {
		a, b := st.Languages[i], st.Languages[j]
		if a.Files != b.Files {
			return a.Files > b.Files
		}
		if a.Lines != b.Lines {
			return a.Lines > b.Lines
		}
		return a.Language < b.Language
	})

	for c, n := range byCat {
		m.Categories = append(m.Categories, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(m.Categories, func(i, j int) bool {
		if m.Categories[i].Count != m.Categories[j].Count {
			return m.Categories[i].Count > m.Categories[j].Count
		}
		return m.Categories[i].Category < m.Categories[j].Category
	})

	sort.Slice(m.Hotspots, func(i, j int) bool {
		a, b := m.Hotspots[i], m.Hotspots[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.Path < b.Path
	})
	if len(m.Hotspots) > topHotspots {
		m.Hotspots = m.Hotspots[:topHotspots]
	}
	return st, m
}

// RenderSummary renders the project summary truncated to limit characters.
// A nil dependency summary omits the DEPENDENCIES section.
func RenderSummary(st Structure, m Metrics, d *deps.Summary, limit int) string {
	var b strings.Builder

	b.WriteString(render.Header(SectionCodebase) + "\n")
	fmt.Fprintf(&b, "- Files analyzed: %d", st.Files)
	if st.Skipped > 0 {
		fmt.Fprintf(&b, " (%d skipped)", st.Skipped)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Lines: %d total, %d code\n", st.Lines, st.CodeLines)
	if len(st.Languages) > 0 {
		var parts []string
		for i, lc := range st.Languages {
			if i == topLanguages {
				break
			}
			parts = append(parts, fmt.Sprintf("%s (%d files)", lc.Language, lc.Files))
		}
		fmt.Fprintf(&b, "- Top languages: %s\n", strings.Join(parts, ", "))
	}

	b.WriteString("\n" + render.Header(SectionQuality) + "\n")
	fmt.Fprintf(&b, "- Issues: %d Critical, %d Major, %d Minor\n",
		m.Counts[quality.Critical], m.Counts[quality.Major], m.Counts[quality.Minor])
	if len(m.Categories) > 0 {
		var parts []string
		for i, c := range m.Categories {
			if i == topCategories {
				break
			}
			parts = append(parts, fmt.Sprintf("%s (%d)", c.Category, c.Count))
		}
		fmt.Fprintf(&b, "- Top categories: %s\n", strings.Join(parts, ", "))
	}
	for _, h := range m.Hotspots {
		fmt.Fprintf(&b, "- Hotspot: %s (score %d/%d, %d issues)\n", h.Path, h.Score, quality.MaxScore, h.Issues)
	}

	if d != nil {
		b.WriteString("\n" + render.Header(SectionDependencies) + "\n")
		b.WriteString(strings.Join(d.Lines(), "\n"))
		b.WriteString("\n")
		if len(d.Manifests) > 0 {
			fmt.Fprintf(&b, "- Total: %d\n", d.Total())
		}
	}

	out := strings.TrimRight(b.String(), "\n")
	if limit > 0 {
		out = render.TruncateUTF8Safe(out, limit)
	}
	return out
}
