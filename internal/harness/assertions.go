package harness

import (
	"fmt"

	"github.com/privhq/dsarkit/internal/dsar"
)

// EvaluateAssertions checks every scenario assertion against the result and
// returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if msg := evaluateAssertion(result, &a); msg != "" {
			failures = append(failures, fmt.Sprintf("assertions[%d] (%s): %s", i, a.Type, msg))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a *Assertion) string {
	run := result.Run
	if run == nil {
		return "no final run record"
	}

	switch a.Type {
	case AssertFinalState:
		if run.State != dsar.State(a.State) {
			return fmt.Sprintf("expected state %q, got %q", a.State, run.State)
		}

	case AssertAuditContains:
		if countAuditSteps(run, a.Step) == 0 {
			return fmt.Sprintf("step %q not found in audit trail", a.Step)
		}

	case AssertAuditCount:
		if got := countAuditSteps(run, a.Step); got != a.Count {
			return fmt.Sprintf("expected step %q %d time(s), got %d", a.Step, a.Count, got)
		}

	case AssertAuditOrder:
		if msg := checkAuditOrder(run, a.Steps); msg != "" {
			return msg
		}

	case AssertBlockedReason:
		if run.Blocked == nil {
			return fmt.Sprintf("expected block reason %q, run is not blocked", a.Reason)
		}
		if run.Blocked.Reason != a.Reason {
			return fmt.Sprintf("expected block reason %q, got %q", a.Reason, run.Blocked.Reason)
		}

	case AssertDelivered:
		delivered := run.Delivery != nil && run.Delivery.Path != ""
		if delivered != a.Expect {
			return fmt.Sprintf("expected delivered=%v, got %v", a.Expect, delivered)
		}

	default:
		return fmt.Sprintf("unknown assertion type %q", a.Type)
	}
	return ""
}

func countAuditSteps(run *dsar.Run, step string) int {
	n := 0
	for _, entry := range run.AuditLog {
		if entry.Step == step {
			n++
		}
	}
	return n
}

// checkAuditOrder verifies the steps appear in the audit trail in the given
// relative order; other entries may appear in between.
func checkAuditOrder(run *dsar.Run, steps []string) string {
	next := 0
	for _, entry := range run.AuditLog {
		if next < len(steps) && entry.Step == steps[next] {
			next++
		}
	}
	if next != len(steps) {
		return fmt.Sprintf("step %q out of order or missing", steps[next])
	}
	return ""
}
