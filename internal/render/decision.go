package render

import (
	"fmt"
	"strings"

	"hookguard/internal/contract"
	"hookguard/internal/quality"
)

// Permission values.
const (
	Allow = "allow"
	Deny  = "deny"
)

// BreakageReason is the deny reason for a tree with error nodes.
const BreakageReason = "structural breakage detected"

// Decision is the pre-tool verdict.
type Decision struct {
	Permission string `json:"permission_decision"`
	Reason     string `json:"reason,omitempty"`
}

// Denied reports a deny decision.
func (d Decision) Denied() bool {
	return d.Permission == Deny
}

// AllowDecision allows with an optional reason.
func AllowDecision(reason string) Decision {
	return Decision{Permission: Allow, Reason: reason}
}

// DenyDecision denies with reason.
func DenyDecision(reason string) Decision {
	return Decision{Permission: Deny, Reason: reason}
}

// Decide denies when any contract delta exists or any issue reaches gate.
// The reason cites the first delta, otherwise the most severe gating
// issues.
func Decide(issues []quality.Issue, deltas []contract.Delta, gate quality.Severity) Decision {
	if len(deltas) > 0 {
		reason := "API contract: " + deltas[0].Reason()
		if len(deltas) > 1 {
			reason += fmt.Sprintf(" (+%d more)", len(deltas)-1)
		}
		return DenyDecision(reason)
	}

	var gating []quality.Issue
	for _, is := range quality.BySeverity(issues) {
		if is.Severity.AtLeast(gate) {
			gating = append(gating, is)
		}
	}
	if len(gating) == 0 {
		return AllowDecision("")
	}

	const maxCited = 3
	parts := make([]string, 0, maxCited)
	for i, is := range gating {
		if i == maxCited {
			break
		}
		parts = append(parts, fmt.Sprintf("%s %s at line %d: %s", is.Severity, is.RuleID, is.Line, is.Message))
	}
	reason := strings.Join(parts, "; ")
	if len(gating) > maxCited {
		reason += fmt.Sprintf(" (+%d more)", len(gating)-maxCited)
	}
	return DenyDecision(TruncateUTF8Safe(reason, maxReasonChars))
}

const maxReasonChars = 1000
