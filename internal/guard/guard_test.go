package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/privhq/dsarkit/internal/dsar"
)

func TestPreStepCollectionRequiresVerifiedIdentity(t *testing.T) {
	run := &dsar.Run{}

	for _, step := range []string{"discover_sources", "collect_artifacts"} {
		d := PreStep(run, step)
		assert.False(t, d.Allow, step)
		assert.Equal(t, ReasonIdentityNotVerified, d.Reason)
	}

	run.Identity.Status = dsar.IdentityVerified
	for _, step := range []string{"discover_sources", "collect_artifacts"} {
		assert.True(t, PreStep(run, step).Allow, step)
	}
}

func TestPreStepNonCollectionStepsUngated(t *testing.T) {
	run := &dsar.Run{} // identity unverified

	assert.True(t, PreStep(run, "detect_pii").Allow)
	assert.True(t, PreStep(run, "assemble_disclosure").Allow)
}

func TestPreFinalizeLegalHold(t *testing.T) {
	run := &dsar.Run{}
	run.Legal.Hold = true

	d := PreFinalize(run)

	assert.False(t, d.Allow)
	assert.Equal(t, ReasonLegalHold, d.Reason)
}

func TestPreFinalizeMissingDisclosures(t *testing.T) {
	run := &dsar.Run{}
	run.Policy.Disclosure.RequireSections = []string{"purpose_of_processing", "recipients"}
	run.Disclosures = map[string]string{"purpose_of_processing": "..."}

	d := PreFinalize(run)

	assert.False(t, d.Allow)
	assert.Equal(t, "Missing disclosures: recipients", d.Reason)
}

func TestPreFinalizeMissingRequiredRedactions(t *testing.T) {
	run := requiredRedactionRun()
	// No proposal selected: the email finding is uncovered.

	d := PreFinalize(run)

	assert.False(t, d.Allow)
	assert.Equal(t, "Missing required redactions: 1", d.Reason)
}

func TestPreFinalizeSelectedProposalCoversFinding(t *testing.T) {
	run := requiredRedactionRun()
	run.Approvals.SelectedProposals = []string{"p0"}

	assert.True(t, PreFinalize(run).Allow)
}

func TestPreFinalizeSelectionMatchIsBySpan(t *testing.T) {
	run := requiredRedactionRun()
	// Selected proposal covers a different span, so the finding stays
	// unmatched.
	run.RedactionProposals = append(run.RedactionProposals, dsar.Proposal{
		ID: "p9", ArtifactID: "mail_1", PIIType: "email", Start: 40, End: 57,
	})
	run.Approvals.SelectedProposals = []string{"p9"}

	d := PreFinalize(run)

	assert.False(t, d.Allow)
	assert.Equal(t, "Missing required redactions: 1", d.Reason)
}

func TestPreFinalizeJustificationOverride(t *testing.T) {
	run := requiredRedactionRun()
	run.Policy.Redaction.AllowOverrideWithJustification = true
	run.Approvals.Compliance = &dsar.ApprovalDecision{
		Decision:      "approved",
		Justification: "subject requested unredacted copy",
	}

	assert.True(t, PreFinalize(run).Allow)
}

func TestPreFinalizeOverrideNeedsJustification(t *testing.T) {
	run := requiredRedactionRun()
	run.Policy.Redaction.AllowOverrideWithJustification = true
	run.Approvals.Compliance = &dsar.ApprovalDecision{Decision: "approved"}

	d := PreFinalize(run)

	assert.False(t, d.Allow)
	assert.Equal(t, "Missing required redactions: 1", d.Reason)
}

func TestPreFinalizeOverrideDisallowedByPolicy(t *testing.T) {
	run := requiredRedactionRun()
	run.Policy.Redaction.AllowOverrideWithJustification = false
	run.Approvals.Compliance = &dsar.ApprovalDecision{
		Decision:      "approved",
		Justification: "irrelevant",
	}

	assert.False(t, PreFinalize(run).Allow)
}

func TestPreErasure(t *testing.T) {
	approved := &dsar.ApprovalDecision{Decision: "approved"}

	tests := []struct {
		name   string
		mutate func(*dsar.Run)
		reason string
	}{
		{
			name:   "legal hold dominates",
			mutate: func(r *dsar.Run) { r.Legal.Hold = true; r.Approvals.Legal = approved; r.Legal.AllowErasure = true },
			reason: ReasonLegalHold,
		},
		{
			name:   "no legal decision",
			mutate: func(r *dsar.Run) { r.Legal.AllowErasure = true },
			reason: ReasonLegalApprovalMissing,
		},
		{
			name: "denied legal decision",
			mutate: func(r *dsar.Run) {
				r.Approvals.Legal = &dsar.ApprovalDecision{Decision: "denied"}
				r.Legal.AllowErasure = true
			},
			reason: ReasonLegalApprovalMissing,
		},
		{
			name: "financial retention",
			mutate: func(r *dsar.Run) {
				r.Approvals.Legal = approved
				r.Legal.RetainFinancialRecords = true
			},
			reason: ReasonFinancialRetention,
		},
		{
			name: "active service retention",
			mutate: func(r *dsar.Run) {
				r.Approvals.Legal = approved
				r.Legal.RetainActiveService = true
			},
			reason: ReasonActiveService,
		},
		{
			name:   "generic basis not met",
			mutate: func(r *dsar.Run) { r.Approvals.Legal = approved },
			reason: ReasonLegalBasisNotMet,
		},
		{
			name:   "allowed",
			mutate: func(r *dsar.Run) { r.Approvals.Legal = approved; r.Legal.AllowErasure = true },
			reason: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &dsar.Run{}
			tt.mutate(run)

			d := PreErasure(run)

			if tt.reason == "" {
				assert.True(t, d.Allow)
			} else {
				assert.False(t, d.Allow)
				assert.Equal(t, tt.reason, d.Reason)
			}
		})
	}
}

// requiredRedactionRun builds a run with one required email finding and a
// matching proposal p0, nothing selected.
func requiredRedactionRun() *dsar.Run {
	run := &dsar.Run{}
	run.Policy.Redaction.RequiredTypes = []string{"email"}
	run.PIIFindings = []dsar.Finding{
		{ArtifactID: "mail_1", PIIType: "email", Value: "bob@example.org", Start: 5, End: 20},
	}
	run.RedactionProposals = []dsar.Proposal{
		{ID: "p0", ArtifactID: "mail_1", PIIType: "email", Start: 5, End: 20},
	}
	return run
}
