package quality

// Pillar is one of the six scoring buckets.
type Pillar string

const (
	Functionality   Pillar = "functionality"
	Reliability     Pillar = "reliability"
	Maintainability Pillar = "maintainability"
	Performance     Pillar = "performance"
	Security        Pillar = "security"
	Standards       Pillar = "standards"
)

// Pillar maxima. They sum to MaxScore.
const (
	MaxFunctionality   = 300
	MaxReliability     = 200
	MaxMaintainability = 200
	MaxPerformance     = 150
	MaxSecurity        = 100
	MaxStandards       = 50

	MaxScore = 1000
)

var categoryPillar = map[Category]Pillar{
	HardcodedCredentials: Security,
	SqlInjection:         Security,
	UnhandledError:       Functionality,
	UnreachableCode:      Reliability,
	DeepNesting:          Maintainability,
	TooManyParameters:    Maintainability,
	LongMethod:           Maintainability,
	DuplicateCode:        Maintainability,
	ComplexCondition:     Performance,
	LongLine:             Standards,
	StyleViolation:       Standards,
	MissingDocumentation: Standards,
}

// PillarOf maps a category to the pillar it debits.
func PillarOf(c Category) Pillar {
	if p, ok := categoryPillar[c]; ok {
		return p
	}
	return Standards
}

// Pillars holds the per-pillar scores.
type Pillars struct {
	Functionality   int `json:"functionality"`
	Reliability     int `json:"reliability"`
	Maintainability int `json:"maintainability"`
	Performance     int `json:"performance"`
	Security        int `json:"security"`
	Standards       int `json:"standards"`
}

// Sum returns the total of all pillars.
func (p Pillars) Sum() int {
	return p.Functionality + p.Reliability + p.Maintainability + p.Performance + p.Security + p.Standards
}

func (p *Pillars) debit(pillar Pillar, points int) {
	field := p.field(pillar)
	*field -= points
	if *field < 0 {
		*field = 0
	}
}

func (p *Pillars) field(pillar Pillar) *int {
	switch pillar {
	case Functionality:
		return &p.Functionality
	case Reliability:
		return &p.Reliability
	case Maintainability:
		return &p.Maintainability
	case Performance:
		return &p.Performance
	case Security:
		return &p.Security
	default:
		return &p.Standards
	}
}

// Score is the scorer output. Integer fields only.
type Score struct {
	Total   int     `json:"total"`
	Pillars Pillars `json:"per_pillar"`
	Issues  []Issue `json:"issues"`
}

// Compute folds issues into a score. Issues are normalized first so the
// result is independent of emission order.
func Compute(issues []Issue) Score {
	p := Pillars{
		Functionality:   MaxFunctionality,
		Reliability:     MaxReliability,
		Maintainability: MaxMaintainability,
		Performance:     MaxPerformance,
		Security:        MaxSecurity,
		Standards:       MaxStandards,
	}
	normalized := Normalize(issues)
	for _, is := range normalized {
		p.debit(PillarOf(is.Category), is.Points)
	}
	return Score{
		Total:   p.Sum(),
		Pillars: p,
		Issues:  normalized,
	}
}
