package engine

import (
	"errors"
	"fmt"
)

// Code categorizes workflow errors.
type Code string

const (
	// CodeGuardrailDenied marks a transition refused by a guardrail.
	CodeGuardrailDenied Code = "GUARDRAIL_DENIED"

	// CodeIdentityUnverified marks collection attempted before identity
	// verification.
	CodeIdentityUnverified Code = "IDENTITY_UNVERIFIED"

	// CodeApprovalMissing marks a gated step invoked with no decision
	// recorded yet.
	CodeApprovalMissing Code = "APPROVAL_MISSING"

	// CodeLegalBlocked marks erasure refused on legal grounds.
	CodeLegalBlocked Code = "LEGAL_BLOCKED"

	// CodeMalformedFinding marks offsets outside the artifact content;
	// such proposals are dropped rather than applied.
	CodeMalformedFinding Code = "MALFORMED_FINDING"

	// CodeCollaboratorFailure marks an artifact source or packager
	// error. Isolated per source or call, never aborts the run.
	CodeCollaboratorFailure Code = "COLLABORATOR_FAILURE"

	// CodeRunComplete marks an invocation on a terminal (read-only) run.
	CodeRunComplete Code = "RUN_COMPLETE"

	// CodeDecisionNotPending marks a decision submitted for a
	// clarification that is not currently pending.
	CodeDecisionNotPending Code = "DECISION_NOT_PENDING"
)

// StepError is a typed workflow error with request context.
type StepError struct {
	Code      Code
	Message   string
	RequestID string
	Step      string
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s: %s (request=%s, step=%s)", e.Code, e.Message, e.RequestID, e.Step)
	}
	return fmt.Sprintf("%s: %s (request=%s)", e.Code, e.Message, e.RequestID)
}

// IsRunComplete reports whether err marks a terminal run.
func IsRunComplete(err error) bool {
	var se *StepError
	return errors.As(err, &se) && se.Code == CodeRunComplete
}

// IsDecisionNotPending reports whether err marks a misdirected decision.
func IsDecisionNotPending(err error) bool {
	var se *StepError
	return errors.As(err, &se) && se.Code == CodeDecisionNotPending
}
