package engine

import (
	"context"

	"github.com/privhq/dsarkit/internal/clarify"
	"github.com/privhq/dsarkit/internal/disclosure"
	"github.com/privhq/dsarkit/internal/dsar"
	"github.com/privhq/dsarkit/internal/guard"
	"github.com/privhq/dsarkit/internal/legal"
	"github.com/privhq/dsarkit/internal/pii"
	"github.com/privhq/dsarkit/internal/sources"
)

// Step names, recorded in the audit trail.
const (
	StepVerifyIdentity     = "verify_identity"
	StepDiscoverSources    = "discover_sources"
	StepCollectArtifacts   = "collect_artifacts"
	StepDetectPII          = "detect_pii"
	StepApplyMinimization  = "apply_minimization"
	StepAssembleDisclosure = "assemble_disclosure"
	StepRequestCompliance  = "request_compliance_approval"
	StepFinalizeDelivery   = "finalize_delivery"
	StepEvaluateLegalBasis = "evaluate_legal_basis"
	StepRequestLegal       = "request_legal_approval"
	StepExecuteErasure     = "execute_erasure"
	StepConfirmCompletion  = "confirm_completion"
)

// StepResult reports one engine invocation.
type StepResult struct {
	Step          string                 `json:"step"`
	Success       bool                   `json:"success"`
	State         dsar.State             `json:"state"`
	Data          map[string]any         `json:"data,omitempty"`
	Err           string                 `json:"error,omitempty"`
	Clarification *clarify.Clarification `json:"clarification,omitempty"`
}

// step performs exactly one transition attempt for the run. It runs under
// the store's per-run update lock; mutations to run are persisted by the
// caller. Re-polling a pending clarification with no decision recorded
// appends no audit entry; every other path appends exactly one.
func (e *Engine) step(ctx context.Context, run *dsar.Run) *StepResult {
	switch run.State {
	case dsar.StateCreated:
		return e.verifyIdentity(run)
	case dsar.StateIdentityPending:
		return e.pollIdentity(run)
	case dsar.StateIdentityVerified:
		return e.discoverSources(ctx, run)
	case dsar.StateSourcesDiscovered:
		return e.collectArtifacts(ctx, run)
	case dsar.StateArtifactsCollected:
		return e.detectPII(run)
	case dsar.StatePIIDetected:
		return e.applyMinimization(run)
	case dsar.StateMinimized:
		return e.assembleDisclosure(run)
	case dsar.StateDisclosureAssembled:
		if run.HasRequestType(dsar.RequestAccess) {
			return e.requestComplianceApproval(run)
		}
		return e.evaluateLegalBasis(ctx, run)
	case dsar.StateAwaitingCompliance:
		return e.finalizeDelivery(ctx, run)
	case dsar.StateDelivered:
		return e.evaluateLegalBasis(ctx, run)
	case dsar.StateLegalBasisEvaluated:
		return e.requestLegalApproval(run)
	case dsar.StateAwaitingLegal:
		return e.executeErasure(run)
	case dsar.StateErasureExecuted:
		return e.confirmCompletion(run)
	}
	return &StepResult{
		Step:  string(run.State),
		State: run.State,
		Err:   "no transition from state " + string(run.State),
	}
}

// verifyIdentity compares the precomputed upload confidence against the
// policy threshold. Below threshold the run pauses for manual review.
func (e *Engine) verifyIdentity(run *dsar.Run) *StepResult {
	conf := uploadConfidence(run.SubjectEmail, run.Identity.Upload)
	if run.Identity.PrecomputedConfidence != nil {
		conf = *run.Identity.PrecomputedConfidence
	}
	run.Identity.Confidence = conf

	threshold := run.Policy.Identity.MinConfidence
	if conf >= threshold {
		run.Identity.Status = dsar.IdentityVerified
		run.State = dsar.StateIdentityVerified
		run.Append(StepVerifyIdentity, map[string]any{
			"confidence": conf,
			"verified":   true,
			"auto":       true,
		})
		return &StepResult{Step: StepVerifyIdentity, Success: true, State: run.State,
			Data: map[string]any{"confidence": conf}}
	}

	run.Identity.Status = dsar.IdentityUnverified
	run.State = dsar.StateIdentityPending
	run.Append(StepVerifyIdentity, map[string]any{
		"confidence": conf,
		"verified":   false,
	})
	c := clarify.NewIdentityVerification(conf, threshold, run.Identity.Upload)
	return &StepResult{Step: StepVerifyIdentity, Success: true, State: run.State,
		Clarification: &c}
}

// pollIdentity re-surfaces the identity clarification. The decision itself
// arrives through SubmitDecision; until an approval lands the run stays
// pending and no audit entry is appended here.
func (e *Engine) pollIdentity(run *dsar.Run) *StepResult {
	c := clarify.NewIdentityVerification(
		run.Identity.Confidence, run.Policy.Identity.MinConfidence, run.Identity.Upload)
	return &StepResult{Step: StepVerifyIdentity, Success: true, State: run.State,
		Clarification: &c}
}

func (e *Engine) discoverSources(ctx context.Context, run *dsar.Run) *StepResult {
	if d := guard.PreStep(run, StepDiscoverSources); !d.Allow {
		return e.blocked(run, StepDiscoverSources, d.Reason, CodeIdentityUnverified)
	}

	names := make([]string, 0, len(e.providers))
	locations := make(map[string]string, len(e.providers))
	for _, p := range e.providers {
		names = append(names, p.Name())
		locations[p.Name()] = p.Location()
	}

	run.Blocked = nil
	run.State = dsar.StateSourcesDiscovered
	run.Append(StepDiscoverSources, map[string]any{
		"sources":   names,
		"locations": locations,
	})
	return &StepResult{Step: StepDiscoverSources, Success: true, State: run.State,
		Data: map[string]any{"sources": names}}
}

// collectArtifacts pulls artifacts from every provider. Source failures are
// isolated: a failing source is recorded and skipped, never fatal. Providers
// that implement Enricher also contribute subject identifiers and may seed
// the legal hold flag.
func (e *Engine) collectArtifacts(ctx context.Context, run *dsar.Run) *StepResult {
	if d := guard.PreStep(run, StepCollectArtifacts); !d.Allow {
		return e.blocked(run, StepCollectArtifacts, d.Reason, CodeIdentityUnverified)
	}

	var failed []string
	for _, p := range e.providers {
		artifacts, err := p.Artifacts(ctx)
		if err != nil {
			e.logger.Warn("source failed",
				"request_id", run.RequestID, "source", p.Name(), "error", err)
			failed = append(failed, p.Name())
			continue
		}
		run.Artifacts = append(run.Artifacts, artifacts...)

		enricher, ok := p.(sources.Enricher)
		if !ok {
			continue
		}
		enrichment, err := enricher.Enrich(ctx)
		if err != nil {
			e.logger.Warn("source enrichment failed",
				"request_id", run.RequestID, "source", p.Name(), "error", err)
			continue
		}
		applyEnrichment(run, enrichment)
	}

	run.Blocked = nil
	run.State = dsar.StateArtifactsCollected
	detail := map[string]any{"count": len(run.Artifacts)}
	if len(failed) > 0 {
		detail["failed_sources"] = failed
	}
	run.Append(StepCollectArtifacts, detail)
	return &StepResult{Step: StepCollectArtifacts, Success: true, State: run.State,
		Data: map[string]any{"count": len(run.Artifacts), "failed": len(failed)}}
}

func applyEnrichment(run *dsar.Run, en sources.Enrichment) {
	if run.Identity.Email == "" && len(en.Emails) > 0 {
		run.Identity.Email = en.Emails[0]
	}
	if run.Identity.Phone == "" && len(en.Phones) > 0 {
		run.Identity.Phone = en.Phones[0]
	}
	if en.LegalHold != nil {
		run.Legal.Hold = *en.LegalHold
	}
}

func (e *Engine) detectPII(run *dsar.Run) *StepResult {
	subject := pii.NewSubjectIdentifiers(run.SubjectEmail)
	subject.AddEmail(run.Identity.Email)
	subject.AddPhone(run.Identity.Phone)

	run.PIIFindings = pii.DetectAll(run.Artifacts, subject)
	run.State = dsar.StatePIIDetected
	run.Append(StepDetectPII, map[string]any{
		"findings":    len(run.PIIFindings),
		"third_party": countThirdParty(run.PIIFindings),
	})
	return &StepResult{Step: StepDetectPII, Success: true, State: run.State,
		Data: map[string]any{"findings": len(run.PIIFindings)}}
}

func countThirdParty(findings []dsar.Finding) int {
	n := 0
	for _, f := range findings {
		if f.ThirdParty {
			n++
		}
	}
	return n
}

func (e *Engine) applyMinimization(run *dsar.Run) *StepResult {
	run.RedactionProposals = pii.BuildProposals(run.PIIFindings)
	run.State = dsar.StateMinimized
	run.Append(StepApplyMinimization, map[string]any{
		"proposals": len(run.RedactionProposals),
	})
	return &StepResult{Step: StepApplyMinimization, Success: true, State: run.State,
		Data: map[string]any{"proposals": len(run.RedactionProposals)}}
}

func (e *Engine) assembleDisclosure(run *dsar.Run) *StepResult {
	run.Disclosures = disclosure.Assemble(
		run.Policy.Disclosure.RequireSections,
		run.PIIFindings,
		run.Artifacts,
		run.Policy.SLA.AccessDays,
	)
	run.State = dsar.StateDisclosureAssembled
	run.Append(StepAssembleDisclosure, map[string]any{
		"sections": len(run.Disclosures),
	})
	return &StepResult{Step: StepAssembleDisclosure, Success: true, State: run.State,
		Data: map[string]any{"sections": len(run.Disclosures)}}
}

func (e *Engine) requestComplianceApproval(run *dsar.Run) *StepResult {
	run.State = dsar.StateAwaitingCompliance
	run.Append(StepRequestCompliance, map[string]any{
		"proposals": len(run.RedactionProposals),
	})
	c := complianceClarification(run)
	return &StepResult{Step: StepRequestCompliance, Success: true, State: run.State,
		Clarification: &c}
}

func complianceClarification(run *dsar.Run) clarify.Clarification {
	categories := make(map[string]bool)
	for _, f := range run.PIIFindings {
		categories[f.PIIType] = true
	}
	names := make([]string, 0, len(categories))
	for _, t := range []string{pii.TypeEmail, pii.TypePhone, pii.TypeAddress} {
		if categories[t] {
			names = append(names, t)
		}
	}
	return clarify.NewComplianceApproval(clarify.ComplianceSummary{
		Records:            len(run.Artifacts),
		PIICategories:      names,
		ThirdPartyFindings: countThirdParty(run.PIIFindings),
	}, run.RedactionProposals)
}

// finalizeDelivery applies the approved redactions, builds the disclosure
// package and marks the run delivered. With no compliance decision yet the
// clarification is re-surfaced without an audit entry. A denied decision
// keeps the run awaiting; the reviewer may submit a new decision.
func (e *Engine) finalizeDelivery(ctx context.Context, run *dsar.Run) *StepResult {
	if run.Approvals.Compliance == nil {
		c := complianceClarification(run)
		return &StepResult{Step: StepFinalizeDelivery, Success: true, State: run.State,
			Clarification: &c}
	}
	if !run.Approvals.Compliance.Approved() {
		run.Approvals.ComplianceOutcome = &dsar.Outcome{
			Status: "blocked", Reason: "Compliance approval denied",
		}
		c := complianceClarification(run)
		return &StepResult{Step: StepFinalizeDelivery, Success: true, State: run.State,
			Clarification: &c}
	}

	if d := guard.PreFinalize(run); !d.Allow {
		run.Approvals.ComplianceOutcome = &dsar.Outcome{Status: "blocked", Reason: d.Reason}
		return e.blocked(run, StepFinalizeDelivery, d.Reason, CodeGuardrailDenied)
	}

	// An approval with no explicit selection applies every proposal.
	selected := run.Approvals.SelectedSet()
	if len(selected) == 0 {
		selected = make(map[string]bool, len(run.RedactionProposals))
		for _, p := range run.RedactionProposals {
			selected[p.ID] = true
		}
	}
	redacted, applied, dropped := applyRedactions(run, selected)
	for _, id := range dropped {
		e.logger.Warn("dropped malformed redaction proposal",
			"request_id", run.RequestID, "proposal_id", id, "code", CodeMalformedFinding)
	}

	detail := map[string]any{
		"applied_proposals": len(applied),
		"packaged":          false,
	}
	if e.packager != nil {
		ref, err := e.packager.Package(ctx, buildPayload(run, redacted, applied))
		if err != nil {
			run.Append(StepFinalizeDelivery, map[string]any{
				"success": false,
				"error":   err.Error(),
			})
			e.logger.Error("packaging failed",
				"request_id", run.RequestID, "error", err, "code", CodeCollaboratorFailure)
			return &StepResult{Step: StepFinalizeDelivery, State: run.State,
				Err: err.Error()}
		}
		run.Delivery = &dsar.Delivery{Path: ref.URL, Digest: ref.Digest}
		detail["packaged"] = true
		detail["package"] = ref.URL
	}

	run.Blocked = nil
	run.State = dsar.StateDelivered
	run.Approvals.ComplianceOutcome = &dsar.Outcome{Status: "delivered"}
	if len(dropped) > 0 {
		detail["dropped_proposals"] = len(dropped)
	}
	run.Append(StepFinalizeDelivery, detail)
	return &StepResult{Step: StepFinalizeDelivery, Success: true, State: run.State,
		Data: map[string]any{"applied": len(applied)}}
}

func (e *Engine) evaluateLegalBasis(ctx context.Context, run *dsar.Run) *StepResult {
	var txns []legal.Transaction
	if e.txns != nil {
		var err error
		txns, err = e.txns.Transactions(ctx)
		if err != nil {
			run.Append(StepEvaluateLegalBasis, map[string]any{
				"success": false,
				"error":   err.Error(),
			})
			e.logger.Error("transaction source failed",
				"request_id", run.RequestID, "error", err, "code", CodeCollaboratorFailure)
			return &StepResult{Step: StepEvaluateLegalBasis, State: run.State,
				Err: err.Error()}
		}
	}

	basis := legal.Evaluator{Now: e.now}.Evaluate(run.Legal.Hold, run.Policy.Retention, txns)
	run.Legal.RetainFinancialRecords = basis.RetainFinancialRecords
	run.Legal.RetainActiveService = basis.RetainActiveService
	run.Legal.AllowErasure = basis.AllowErasure
	run.Legal.Evaluated = true

	run.State = dsar.StateLegalBasisEvaluated
	run.Append(StepEvaluateLegalBasis, map[string]any{
		"allow_erasure": basis.AllowErasure,
		"reasons":       basis.Reasons,
		"transactions":  len(txns),
	})
	return &StepResult{Step: StepEvaluateLegalBasis, Success: true, State: run.State,
		Data: map[string]any{"allow_erasure": basis.AllowErasure}}
}

func (e *Engine) requestLegalApproval(run *dsar.Run) *StepResult {
	var exemptions []string
	if run.Legal.Hold {
		exemptions = append(exemptions, legal.ReasonLegalHold)
	}
	if run.Legal.RetainFinancialRecords {
		exemptions = append(exemptions, legal.ReasonRetainFinancial)
	}
	if run.Legal.RetainActiveService {
		exemptions = append(exemptions, legal.ReasonRetainService)
	}

	run.State = dsar.StateAwaitingLegal
	run.Append(StepRequestLegal, map[string]any{"exemptions": exemptions})
	c := clarify.NewLegalApproval(exemptions)
	return &StepResult{Step: StepRequestLegal, Success: true, State: run.State,
		Clarification: &c}
}

// executeErasure records soft-delete markers for every collected artifact.
// Original content stays in the run record for the audit trail; downstream
// systems act on the markers.
func (e *Engine) executeErasure(run *dsar.Run) *StepResult {
	if run.Approvals.Legal == nil {
		c := clarify.NewLegalApproval(nil)
		return &StepResult{Step: StepExecuteErasure, Success: true, State: run.State,
			Clarification: &c}
	}

	if d := guard.PreErasure(run); !d.Allow {
		run.Approvals.LegalOutcome = &dsar.Outcome{Status: "blocked", Reason: d.Reason}
		return e.blocked(run, StepExecuteErasure, d.Reason, erasureDenialCode(d.Reason))
	}

	deleted := make([]dsar.DeletedArtifact, 0, len(run.Artifacts))
	for _, a := range run.Artifacts {
		deleted = append(deleted, dsar.DeletedArtifact{
			ID:     a.ID,
			Source: a.Source,
			Status: "deleted",
		})
	}

	run.Blocked = nil
	run.Erasure = &dsar.Erasure{Deleted: deleted}
	run.State = dsar.StateErasureExecuted
	run.Approvals.LegalOutcome = &dsar.Outcome{Status: "erasure_executed"}
	run.Append(StepExecuteErasure, map[string]any{"deleted": len(deleted)})
	return &StepResult{Step: StepExecuteErasure, Success: true, State: run.State,
		Data: map[string]any{"deleted": len(deleted)}}
}

func (e *Engine) confirmCompletion(run *dsar.Run) *StepResult {
	run.State = dsar.StateConfirmed
	run.Append(StepConfirmCompletion, map[string]any{
		"request_types": run.RequestTypes,
	})
	return &StepResult{Step: StepConfirmCompletion, Success: true, State: run.State}
}

// blocked records a guardrail denial. State is unchanged, the Blocked marker
// is set, and one audit entry is appended. The run stays resumable.
func (e *Engine) blocked(run *dsar.Run, step, reason string, code Code) *StepResult {
	run.Blocked = &dsar.Block{Step: step, Reason: reason}
	run.Append(step, map[string]any{
		"success": false,
		"reason":  reason,
	})
	e.logger.Warn("guardrail denied step",
		"request_id", run.RequestID, "step", step, "reason", reason, "code", code)
	return &StepResult{Step: step, State: run.State, Err: reason}
}

// erasureDenialCode distinguishes a missing approval from a substantive
// legal block.
func erasureDenialCode(reason string) Code {
	if reason == guard.ReasonLegalApprovalMissing {
		return CodeApprovalMissing
	}
	return CodeLegalBlocked
}
