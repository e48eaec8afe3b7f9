package render

import "hookguard/internal/quality"

// MaxTipChars bounds a single tip.
const MaxTipChars = 150

var glossary = map[quality.Category]string{
	quality.HardcodedCredentials: "Load secrets from the environment or a secret manager; never commit literal passwords, tokens or API keys.",
	quality.SqlInjection:         "Pass values as query parameters instead of building SQL with concatenation, interpolation or format strings.",
	quality.UnhandledError:       "Handle or propagate errors: log and rethrow, return them, or use ? instead of unwrap and empty catch blocks.",
	quality.UnreachableCode:      "Delete statements after return, throw or break; they never run and hide the real control flow.",
	quality.DeepNesting:          "Flatten nesting with guard clauses and early returns, or extract the inner blocks into helpers.",
	quality.TooManyParameters:    "Group related parameters into an options struct or object, or split the function by responsibility.",
	quality.LongMethod:           "Split long functions into smaller named steps that each do one thing.",
	quality.LongLine:             "Wrap lines longer than 120 characters; break long expressions at operators or arguments.",
	quality.ComplexCondition:     "Name parts of long boolean conditions with local variables or small predicate functions.",
	quality.DuplicateCode:        "Extract repeated logic into a shared function.",
	quality.MissingDocumentation: "Document public functions with what they return and when they fail.",
	quality.StyleViolation:       "Fix the configuration syntax error; tools reading this file will reject it.",
}

const contractTip = "Keep public signatures stable: restore removed parameters and handlers, or update every caller in the same change."

// Tips returns one tip per category present, most severe first, at most
// max, each within MaxTipChars.
func Tips(issues []quality.Issue, hasDeltas bool, max int) []string {
	if max <= 0 {
		return nil
	}
	var out []string
	if hasDeltas {
		out = append(out, TruncateUTF8Safe(contractTip, MaxTipChars))
	}
	seen := make(map[quality.Category]bool)
	for _, is := range quality.BySeverity(issues) {
		if len(out) >= max {
			break
		}
		if seen[is.Category] {
			continue
		}
		seen[is.Category] = true
		if tip, ok := glossary[is.Category]; ok {
			out = append(out, TruncateUTF8Safe(tip, MaxTipChars))
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	return out
}
