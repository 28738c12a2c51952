package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/privhq/dsarkit/internal/dsar"
	"github.com/privhq/dsarkit/internal/legal"
)

// Scenario defines a conformance test scenario for the DSAR workflow.
// A scenario submits one request, advances it to completion while answering
// clarifications from the decision script, and asserts on the resulting
// trace and final run state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SubjectEmail is the data subject of the request.
	SubjectEmail string `yaml:"subject_email"`

	// RequestTypes lists the requested operations (access, erasure).
	// Defaults to [access].
	RequestTypes []string `yaml:"request_types,omitempty"`

	// Policy configures the run. Omitted fields take policy defaults.
	Policy dsar.Policy `yaml:"policy,omitempty"`

	// Upload describes the identity document submitted with the request.
	Upload *UploadFixture `yaml:"upload,omitempty"`

	// IdentityConfidence overrides the upload heuristic when set.
	IdentityConfidence *float64 `yaml:"identity_confidence,omitempty"`

	// LegalHold seeds the legal hold flag before the run starts.
	LegalHold bool `yaml:"legal_hold,omitempty"`

	// Artifacts are the fixtures served by the scenario's static sources,
	// grouped by source name during execution.
	Artifacts []ArtifactFixture `yaml:"artifacts,omitempty"`

	// Transactions is the subject's transaction history for the legal
	// basis evaluation.
	Transactions []legal.Transaction `yaml:"transactions,omitempty"`

	// Now is the frozen clock as RFC 3339; defaults to 2026-01-02T00:00:00Z.
	Now string `yaml:"now,omitempty"`

	// Decisions is the script of human decisions, consumed in order each
	// time the run pauses for a clarification.
	Decisions []DecisionStep `yaml:"decisions,omitempty"`

	// Assertions validate the final trace and run state.
	Assertions []Assertion `yaml:"assertions"`
}

// UploadFixture is the identity document metadata for a scenario.
type UploadFixture struct {
	Filename string `yaml:"filename"`
	Size     int64  `yaml:"size"`
}

// ArtifactFixture is one artifact served by a scenario source.
type ArtifactFixture struct {
	Source  string `yaml:"source"`
	ID      string `yaml:"id"`
	Type    string `yaml:"type"`
	Content string `yaml:"content"`
}

// DecisionStep is one scripted human decision.
type DecisionStep struct {
	// Kind is the clarification kind this decision answers
	// (identity, compliance, legal).
	Kind string `yaml:"kind"`

	// Decision is "approved" or "denied".
	Decision string `yaml:"decision"`

	// Justification is the override justification (compliance only).
	Justification string `yaml:"justification,omitempty"`

	// Notes carries free-form reviewer notes.
	Notes string `yaml:"notes,omitempty"`

	// SelectedProposals lists the redaction proposal IDs to apply
	// (compliance only). Empty means apply all.
	SelectedProposals []string `yaml:"selected_proposals,omitempty"`
}

// Assertion validates the trace or the final run state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": run ends in the given state
	// - "audit_contains": step appears in the audit trail
	// - "audit_count": step appears exactly N times
	// - "audit_order": steps appear in this relative order
	// - "blocked_reason": run carries this block reason
	// - "delivered": delivery reference is set (or not)
	Type string `yaml:"type"`

	// State is the expected final state (final_state).
	State string `yaml:"state,omitempty"`

	// Step is the audit step name (audit_contains, audit_count).
	Step string `yaml:"step,omitempty"`

	// Count is the expected number of occurrences (audit_count).
	Count int `yaml:"count,omitempty"`

	// Steps is the expected relative order (audit_order).
	Steps []string `yaml:"steps,omitempty"`

	// Reason is the expected block reason (blocked_reason).
	Reason string `yaml:"reason,omitempty"`

	// Expect is the expected boolean for delivered.
	Expect bool `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState    = "final_state"
	AssertAuditContains = "audit_contains"
	AssertAuditCount    = "audit_count"
	AssertAuditOrder    = "audit_order"
	AssertBlockedReason = "blocked_reason"
	AssertDelivered     = "delivered"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.SubjectEmail == "" {
		return fmt.Errorf("subject_email is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, t := range s.RequestTypes {
		if t != string(dsar.RequestAccess) && t != string(dsar.RequestErasure) {
			return fmt.Errorf("request_types[%d]: unknown type %q", i, t)
		}
	}

	for i, a := range s.Artifacts {
		if a.Source == "" {
			return fmt.Errorf("artifacts[%d]: source is required", i)
		}
		if a.ID == "" {
			return fmt.Errorf("artifacts[%d]: id is required", i)
		}
	}

	for i, d := range s.Decisions {
		switch d.Kind {
		case "identity", "compliance", "legal":
		default:
			return fmt.Errorf("decisions[%d]: unknown kind %q", i, d.Kind)
		}
		if d.Decision != "approved" && d.Decision != "denied" {
			return fmt.Errorf("decisions[%d]: decision must be approved or denied", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for final_state", index)
		}
	case AssertAuditContains:
		if a.Step == "" {
			return fmt.Errorf("assertions[%d]: step is required for audit_contains", index)
		}
	case AssertAuditCount:
		if a.Step == "" {
			return fmt.Errorf("assertions[%d]: step is required for audit_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for audit_count", index)
		}
	case AssertAuditOrder:
		if len(a.Steps) == 0 {
			return fmt.Errorf("assertions[%d]: steps list is required for audit_order", index)
		}
	case AssertBlockedReason:
		if a.Reason == "" {
			return fmt.Errorf("assertions[%d]: reason is required for blocked_reason", index)
		}
	case AssertDelivered:
		// Expect defaults to false, nothing more to validate.
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
