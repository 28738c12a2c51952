// Package guard implements the policy predicates that gate sensitive
// workflow transitions. All functions are pure: they read the run record,
// perform no I/O, and return a Decision. A denial is not an error — the run
// stays in its pending state and the same guard is re-evaluated once the
// blocking condition is lifted.
package guard

import (
	"fmt"
	"strings"

	"github.com/privhq/dsarkit/internal/dsar"
)

// Decision is the result of a guardrail evaluation.
type Decision struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason,omitempty"`
}

func allow() Decision { return Decision{Allow: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Denial reasons. Reason text is part of the audit trail contract.
const (
	ReasonIdentityNotVerified  = "Identity not verified"
	ReasonLegalHold            = "Legal hold active"
	ReasonLegalApprovalMissing = "Legal approval missing"
	ReasonFinancialRetention   = "Data retained for financial regulations"
	ReasonActiveService        = "Data retained for active service contract"
	ReasonLegalBasisNotMet     = "Legal basis not met"
)

// collectionSteps are the transitions gated by identity verification.
var collectionSteps = map[string]bool{
	"discover_sources":  true,
	"collect_artifacts": true,
}

// PreStep gates collection-stage steps on verified identity.
func PreStep(run *dsar.Run, step string) Decision {
	if collectionSteps[step] && run.Identity.Status != dsar.IdentityVerified {
		return deny(ReasonIdentityNotVerified)
	}
	return allow()
}

// PreFinalize gates finalize_delivery. Checks, in order: legal hold,
// presence of every policy-required disclosure section, and the mandatory
// redaction rule.
//
// A finding of a required type is satisfied only by a SELECTED proposal of
// the same type matching on (artifact_id, start, end). When unmatched
// findings remain, the run may still proceed if the policy allows override
// and the compliance approval carries a non-empty justification — the
// override is global and waives all missing redactions at once.
func PreFinalize(run *dsar.Run) Decision {
	if run.Legal.Hold {
		return deny(ReasonLegalHold)
	}

	var missing []string
	for _, section := range run.Policy.Disclosure.RequireSections {
		if _, ok := run.Disclosures[section]; !ok {
			missing = append(missing, section)
		}
	}
	if len(missing) > 0 {
		return deny("Missing disclosures: " + strings.Join(missing, ", "))
	}

	if unmatched := unmatchedRequiredFindings(run); unmatched > 0 {
		if run.Policy.Redaction.AllowOverrideWithJustification && complianceJustification(run) != "" {
			return allow()
		}
		return deny(fmt.Sprintf("Missing required redactions: %d", unmatched))
	}
	return allow()
}

// PreErasure gates execute_erasure. Legal hold dominates every approval;
// after that the legal decision must be an approval, and when the legal
// basis evaluation forbids erasure the most specific retention reason wins.
func PreErasure(run *dsar.Run) Decision {
	if run.Legal.Hold {
		return deny(ReasonLegalHold)
	}
	if !run.Approvals.Legal.Approved() {
		return deny(ReasonLegalApprovalMissing)
	}
	if !run.Legal.AllowErasure {
		if run.Legal.RetainFinancialRecords {
			return deny(ReasonFinancialRetention)
		}
		if run.Legal.RetainActiveService {
			return deny(ReasonActiveService)
		}
		return deny(ReasonLegalBasisNotMet)
	}
	return allow()
}

type spanKey struct {
	artifactID string
	start, end int
}

// unmatchedRequiredFindings counts findings of a required type that no
// selected proposal of the same type covers.
func unmatchedRequiredFindings(run *dsar.Run) int {
	required := run.Policy.Redaction.RequiredTypes
	if len(required) == 0 {
		return 0
	}

	selected := run.Approvals.SelectedSet()
	covered := make(map[spanKey]bool)
	for _, p := range run.RedactionProposals {
		if selected[p.ID] && run.Policy.Redaction.RequiresRedaction(p.PIIType) {
			covered[spanKey{p.ArtifactID, p.Start, p.End}] = true
		}
	}

	unmatched := 0
	for _, f := range run.PIIFindings {
		if !run.Policy.Redaction.RequiresRedaction(f.PIIType) {
			continue
		}
		if !covered[spanKey{f.ArtifactID, f.Start, f.End}] {
			unmatched++
		}
	}
	return unmatched
}

func complianceJustification(run *dsar.Run) string {
	if run.Approvals.Compliance == nil {
		return ""
	}
	return run.Approvals.Compliance.Justification
}
