package dsar

// Policy is the fixed compliance policy schema attached to every run.
// All keys are optional in the serialized form; DefaultPolicy supplies the
// documented defaults.
type Policy struct {
	Identity   IdentityPolicy   `json:"identity" yaml:"identity"`
	Disclosure DisclosurePolicy `json:"disclosure" yaml:"disclosure"`
	Redaction  RedactionPolicy  `json:"redaction" yaml:"redaction"`
	Retention  RetentionPolicy  `json:"retention_policies" yaml:"retention_policies"`
	SLA        SLAPolicy        `json:"sla" yaml:"sla"`
}

// IdentityPolicy controls automatic identity verification.
type IdentityPolicy struct {
	// MinConfidence is the threshold at or above which identity is verified
	// without a human clarification. Default 0.85.
	MinConfidence float64 `json:"min_confidence_for_auto_approval" yaml:"min_confidence_for_auto_approval"`
}

// DisclosurePolicy names the sections that must be present in the disclosure
// package before delivery is allowed.
type DisclosurePolicy struct {
	RequireSections []string `json:"require_sections" yaml:"require_sections"`
}

// RedactionPolicy enforces mandatory redaction of selected PII types.
type RedactionPolicy struct {
	RequiredTypes []string `json:"required_types" yaml:"required_types"`

	// AllowOverrideWithJustification waives ALL missing required redactions
	// when the compliance approval carries a non-empty justification. The
	// override is global, not per finding.
	AllowOverrideWithJustification bool `json:"allow_override_with_justification" yaml:"allow_override_with_justification"`
}

// RetentionPolicy holds the day-thresholds consulted by the legal-basis
// evaluator. A zero threshold disables the corresponding rule.
type RetentionPolicy struct {
	FinancialTransactionDays int `json:"financial_transaction_days" yaml:"financial_transaction_days"`
	ActiveServiceDays        int `json:"active_service_days" yaml:"active_service_days"`
}

// SLAPolicy holds service-level settings.
type SLAPolicy struct {
	// AccessDays bounds how long delivered packages are retained. Default 30.
	AccessDays int `json:"access_days" yaml:"access_days"`
}

// Defaults for optional policy keys.
const (
	DefaultMinConfidence = 0.85
	DefaultAccessDays    = 30
)

// DefaultPolicy returns a policy with all documented defaults applied and no
// required sections or redaction types.
func DefaultPolicy() Policy {
	return Policy{
		Identity: IdentityPolicy{MinConfidence: DefaultMinConfidence},
		SLA:      SLAPolicy{AccessDays: DefaultAccessDays},
	}
}

// ApplyDefaults fills zero-valued optional keys with their defaults.
func (p *Policy) ApplyDefaults() {
	if p.Identity.MinConfidence == 0 {
		p.Identity.MinConfidence = DefaultMinConfidence
	}
	if p.SLA.AccessDays == 0 {
		p.SLA.AccessDays = DefaultAccessDays
	}
}

// RequiresRedaction reports whether piiType is in the mandatory set.
func (p *RedactionPolicy) RequiresRedaction(piiType string) bool {
	for _, t := range p.RequiredTypes {
		if t == piiType {
			return true
		}
	}
	return false
}
