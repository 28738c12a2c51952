package dsar

// RequestType identifies what the data subject asked for.
type RequestType string

const (
	RequestAccess  RequestType = "access"
	RequestErasure RequestType = "erasure"
)

// State is the workflow position of a run.
//
// Access chain:
//
//	created -> identity_pending/identity_verified -> sources_discovered ->
//	artifacts_collected -> pii_detected -> minimized -> disclosure_assembled ->
//	awaiting_compliance_approval -> delivered
//
// Erasure branch (after the access chain, or directly after
// disclosure_assembled for erasure-only requests):
//
//	legal_basis_evaluated -> awaiting_legal_approval -> erasure_executed ->
//	confirmed
//
// Guardrail denials do not change State; they set the Blocked marker and the
// run stays resumable in its pending state.
type State string

const (
	StateCreated             State = "created"
	StateIdentityPending     State = "identity_pending"
	StateIdentityVerified    State = "identity_verified"
	StateSourcesDiscovered   State = "sources_discovered"
	StateArtifactsCollected  State = "artifacts_collected"
	StatePIIDetected         State = "pii_detected"
	StateMinimized           State = "minimized"
	StateDisclosureAssembled State = "disclosure_assembled"
	StateAwaitingCompliance  State = "awaiting_compliance_approval"
	StateDelivered           State = "delivered"
	StateLegalBasisEvaluated State = "legal_basis_evaluated"
	StateAwaitingLegal       State = "awaiting_legal_approval"
	StateErasureExecuted     State = "erasure_executed"
	StateConfirmed           State = "confirmed"
)

// Terminal reports whether the run record is read-only.
// A delivered run that still has an erasure request pending is not terminal.
func (r *Run) Terminal() bool {
	switch r.State {
	case StateConfirmed:
		return true
	case StateDelivered:
		return !r.HasRequestType(RequestErasure)
	}
	return false
}

// Artifact is one collected item of subject data.
// Content is immutable once collected; redaction operates on copies.
type Artifact struct {
	Source  string `json:"source"`
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Finding is one detected instance of personal data inside an artifact.
// Offsets are byte offsets into the artifact content and satisfy
// 0 <= Start <= End <= len(content).
type Finding struct {
	ArtifactID string  `json:"artifact_id"`
	PIIType    string  `json:"pii_type"`
	Value      string  `json:"value"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	ThirdParty bool    `json:"third_party"`
}

// Proposal is a selectable redaction action derived 1:1 from a finding.
type Proposal struct {
	ID            string `json:"id"`
	ArtifactID    string `json:"artifact_id"`
	PIIType       string `json:"pii_type"`
	Value         string `json:"value"`
	MaskedPreview string `json:"masked_preview"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
	Action        string `json:"action"`
	ThirdParty    bool   `json:"third_party"`
}

// ProposalActionMask is the only redaction action currently produced.
const ProposalActionMask = "mask"

// ApprovalDecision records one human decision.
type ApprovalDecision struct {
	Decision      string `json:"decision"` // "approved" | "denied"
	Justification string `json:"justification,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// DecisionApproved is the decision value that unlocks gated steps.
const DecisionApproved = "approved"

// Approved reports whether d carries an approval.
func (d *ApprovalDecision) Approved() bool {
	return d != nil && d.Decision == DecisionApproved
}

// Outcome records how a gated step ended, for status reporting.
type Outcome struct {
	Status string `json:"status"` // "delivered" | "blocked" | "erasure_executed"
	Reason string `json:"reason,omitempty"`
}

// Approvals holds the human-in-the-loop decisions for a run.
// SelectedProposals is the set of redaction proposal IDs the compliance
// reviewer chose to apply; nil/empty means no explicit selection was made.
type Approvals struct {
	Identity          *ApprovalDecision `json:"identity,omitempty"`
	Compliance        *ApprovalDecision `json:"compliance,omitempty"`
	Legal             *ApprovalDecision `json:"legal,omitempty"`
	SelectedProposals []string          `json:"selected_proposals,omitempty"`
	ComplianceOutcome *Outcome          `json:"compliance_status,omitempty"`
	LegalOutcome      *Outcome          `json:"legal_status,omitempty"`
}

// SelectedSet returns the explicit proposal selection as a set.
func (a *Approvals) SelectedSet() map[string]bool {
	set := make(map[string]bool, len(a.SelectedProposals))
	for _, id := range a.SelectedProposals {
		set[id] = true
	}
	return set
}

// IdentityStatus values.
const (
	IdentityUnverified = "unverified"
	IdentityVerified   = "verified"
)

// UploadMeta describes the identity document submitted with the request.
type UploadMeta struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Identity holds verification state plus any subject identifiers learned
// during collection (used to separate subject data from third-party data).
type Identity struct {
	Status                string      `json:"status,omitempty"`
	Confidence            float64     `json:"confidence"`
	PrecomputedConfidence *float64    `json:"precomputed_confidence,omitempty"`
	Upload                *UploadMeta `json:"upload,omitempty"`
	Email                 string      `json:"email,omitempty"`
	Phone                 string      `json:"phone,omitempty"`
}

// Legal holds the legal-basis evaluation result and the hold flag.
// Hold forbids any deletion regardless of other approvals.
type Legal struct {
	Hold                   bool `json:"hold"`
	RetainFinancialRecords bool `json:"retain_financial_records"`
	RetainActiveService    bool `json:"retain_active_service"`
	AllowErasure           bool `json:"allow_erasure"`
	Evaluated              bool `json:"evaluated"`
}

// Delivery is set only when finalize_delivery succeeds.
type Delivery struct {
	Path   string `json:"path"`
	Digest string `json:"digest,omitempty"`
}

// DeletedArtifact is a soft-delete marker recorded by execute_erasure.
type DeletedArtifact struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Status string `json:"status"`
}

// Erasure records the outcome of the erasure branch.
type Erasure struct {
	Deleted []DeletedArtifact `json:"deleted"`
}

// Block marks a guardrail denial. The run stays in its pending state and is
// resumable once the blocking condition is lifted.
type Block struct {
	Step   string `json:"step"`
	Reason string `json:"reason"`
}

// Run is the record for one DSAR request.
type Run struct {
	RequestID    string        `json:"request_id"`
	SubjectEmail string        `json:"subject_email"`
	RequestTypes []RequestType `json:"request_types"`
	State        State         `json:"state"`

	Artifacts          []Artifact        `json:"artifacts,omitempty"`
	PIIFindings        []Finding         `json:"pii_findings,omitempty"`
	RedactionProposals []Proposal        `json:"redaction_proposals,omitempty"`
	Approvals          Approvals         `json:"approvals"`
	Policy             Policy            `json:"policy"`
	Identity           Identity          `json:"identity"`
	Legal              Legal             `json:"legal"`
	AuditLog           []AuditEntry      `json:"audit_log,omitempty"`
	Disclosures        map[string]string `json:"disclosures,omitempty"`
	Delivery           *Delivery         `json:"delivery,omitempty"`
	Erasure            *Erasure          `json:"erasure,omitempty"`
	Blocked            *Block            `json:"blocked,omitempty"`
}

// HasRequestType reports whether the run includes the given request type.
func (r *Run) HasRequestType(t RequestType) bool {
	for _, rt := range r.RequestTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// Artifact returns the artifact with the given ID.
func (r *Run) Artifact(id string) (*Artifact, bool) {
	for i := range r.Artifacts {
		if r.Artifacts[i].ID == id {
			return &r.Artifacts[i], true
		}
	}
	return nil, false
}
