// Package quality holds the issue model, deterministic ordering and the
// pillar-based quality scorer.
package quality

// Severity ranks an issue. Values serialize as their names.
type Severity string

const (
	Critical Severity = "Critical"
	Major    Severity = "Major"
	Minor    Severity = "Minor"
)

// Points returns the amount an issue of this severity debits its pillar.
func (s Severity) Points() int {
	switch s {
	case Critical:
		return 50
	case Major:
		return 20
	case Minor:
		return 5
	default:
		return 0
	}
}

// Rank orders severities: Critical > Major > Minor.
func (s Severity) Rank() int {
	switch s {
	case Critical:
		return 3
	case Major:
		return 2
	case Minor:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as gate.
func (s Severity) AtLeast(gate Severity) bool {
	return s.Rank() >= gate.Rank()
}

// Category is the closed issue taxonomy.
type Category string

const (
	HardcodedCredentials Category = "HardcodedCredentials"
	SqlInjection         Category = "SqlInjection"
	UnhandledError       Category = "UnhandledError"
	UnreachableCode      Category = "UnreachableCode"
	DeepNesting          Category = "DeepNesting"
	TooManyParameters    Category = "TooManyParameters"
	LongMethod           Category = "LongMethod"
	LongLine             Category = "LongLine"
	ComplexCondition     Category = "ComplexCondition"
	DuplicateCode        Category = "DuplicateCode"
	MissingDocumentation Category = "MissingDocumentation"
	StyleViolation       Category = "StyleViolation"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	HardcodedCredentials,
	SqlInjection,
	UnhandledError,
	UnreachableCode,
	DeepNesting,
	TooManyParameters,
	LongMethod,
	LongLine,
	ComplexCondition,
	DuplicateCode,
	MissingDocumentation,
	StyleViolation,
}

// Issue is a single finding. Issues are values; nothing mutates them after
// emission.
type Issue struct {
	// RuleID is the stable rule key, e.g. SEC001
	RuleID string `json:"rule_id"`

	// Category is the taxonomy bucket
	Category Category `json:"category"`

	// Severity determines points and gating
	Severity Severity `json:"severity"`

	// Message is the human-readable description
	Message string `json:"message"`

	// Line is 1-indexed
	Line int `json:"line"`

	// Column is 1-indexed and counts Unicode scalar values
	Column int `json:"column"`

	// Points is the amount deducted from the category's pillar
	Points int `json:"points_deducted"`
}

// Metrics contains structural measurements for one file.
type Metrics struct {
	// TotalLines is the number of physical lines
	TotalLines int `json:"total_lines"`

	// CodeLines is the number of lines holding code
	CodeLines int `json:"code_lines"`

	// CommentLines is the number of lines holding only comments
	CommentLines int `json:"comment_lines"`

	// BlankLines is the number of whitespace-only lines
	BlankLines int `json:"blank_lines"`

	// FunctionsCount is the number of function, method and lambda frames
	FunctionsCount int `json:"functions_count"`

	// MaxNesting is the deepest control-flow nesting observed
	MaxNesting int `json:"max_nesting"`

	// Cyclomatic is the summed cyclomatic complexity (decision points + 1 per function)
	Cyclomatic int `json:"cyclomatic"`

	// Cognitive is the summed cognitive complexity (nesting-weighted)
	Cognitive int `json:"cognitive"`

	// LongestLine is the length of the longest line in characters
	LongestLine int `json:"longest_line"`
}

// Add accumulates m2 into m. Max fields take the maximum.
func (m *Metrics) Add(m2 Metrics) {
	m.TotalLines += m2.TotalLines
	m.CodeLines += m2.CodeLines
	m.CommentLines += m2.CommentLines
	m.BlankLines += m2.BlankLines
	m.FunctionsCount += m2.FunctionsCount
	m.Cyclomatic += m2.Cyclomatic
	m.Cognitive += m2.Cognitive
	if m2.MaxNesting > m.MaxNesting {
		m.MaxNesting = m2.MaxNesting
	}
	if m2.LongestLine > m.LongestLine {
		m.LongestLine = m2.LongestLine
	}
}

// Report is the serialized result for one file.
type Report struct {
	Path     string  `json:"path"`
	Language string  `json:"language"`
	Metrics  Metrics `json:"metrics"`
	Score    Score   `json:"score"`

	// Skipped carries the reason when the file contributed no analysis
	Skipped string `json:"skipped,omitempty"`
}
