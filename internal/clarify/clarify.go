// Package clarify models the typed pause points of the workflow: requests
// addressed to a human that must be answered before the run can proceed.
// The engine never blocks on a clarification; it returns the payload to its
// caller and the run stays in its pending state until a decision is
// submitted and validated.
package clarify

import (
	"fmt"

	"github.com/privhq/dsarkit/internal/dsar"
)

// Kind identifies which pending clarification a decision answers.
type Kind string

const (
	KindIdentity   Kind = "identity"
	KindCompliance Kind = "compliance"
	KindLegal      Kind = "legal"
)

// Clarification type names, as surfaced to external actors.
const (
	TypeIdentityVerification = "IdentityVerificationClarification"
	TypeComplianceApproval   = "ComplianceApprovalClarification"
	TypeLegalApproval        = "LegalApprovalClarification"
)

// Clarification is a human-addressed pause request.
type Clarification struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// UploadInfo echoes the identity document metadata for the reviewer.
type UploadInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// IdentityVerification asks a human to review an identity document whose
// automatic confidence fell below the policy threshold.
type IdentityVerification struct {
	Message   string     `json:"message"`
	Threshold float64    `json:"threshold"`
	Upload    UploadInfo `json:"upload"`
}

// ComplianceSummary condenses the run for the compliance reviewer.
type ComplianceSummary struct {
	Records            int      `json:"records"`
	PIICategories      []string `json:"pii_categories"`
	ThirdPartyFindings int      `json:"third_party_findings"`
}

// ComplianceApproval asks a human to approve the disclosure package and
// select which redaction proposals to apply.
type ComplianceApproval struct {
	Summary            ComplianceSummary `json:"summary"`
	RedactionProposals []dsar.Proposal   `json:"redaction_proposals"`
	Decision           string            `json:"decision"`
	Justification      string            `json:"justification"`
}

// LegalApproval asks legal counsel to approve an erasure request.
type LegalApproval struct {
	RequestType string   `json:"request_type"`
	Exemptions  []string `json:"exemptions"`
	Decision    string   `json:"decision"`
	Notes       string   `json:"notes"`
}

// NewIdentityVerification builds the identity clarification payload.
func NewIdentityVerification(confidence, threshold float64, upload *dsar.UploadMeta) Clarification {
	info := UploadInfo{}
	if upload != nil {
		info = UploadInfo{Filename: upload.Filename, Size: upload.Size}
	}
	return Clarification{
		Type: TypeIdentityVerification,
		Payload: IdentityVerification{
			Message: fmt.Sprintf(
				"Identity verification confidence is low (%.2f). Please manually review the uploaded ID and approve or deny.",
				confidence),
			Threshold: threshold,
			Upload:    info,
		},
	}
}

// NewComplianceApproval builds the compliance clarification payload from the
// current run record.
func NewComplianceApproval(summary ComplianceSummary, proposals []dsar.Proposal) Clarification {
	return Clarification{
		Type: TypeComplianceApproval,
		Payload: ComplianceApproval{
			Summary:            summary,
			RedactionProposals: proposals,
			Decision:           "pending",
		},
	}
}

// NewLegalApproval builds the legal clarification payload. Exemptions lists
// the already-known blockers (currently only legal_hold).
func NewLegalApproval(exemptions []string) Clarification {
	if exemptions == nil {
		exemptions = []string{}
	}
	return Clarification{
		Type: TypeLegalApproval,
		Payload: LegalApproval{
			RequestType: string(dsar.RequestErasure),
			Exemptions:  exemptions,
			Decision:    "pending",
		},
	}
}
