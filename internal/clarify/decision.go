package clarify

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed decision.schema.json
var decisionSchemaJSON string

var decisionSchema = jsonschema.MustCompileString("decision.schema.json", decisionSchemaJSON)

// Decision is an externally submitted answer to a pending clarification.
// Submissions arrive as JSON from outside the trust boundary and are
// validated against an embedded schema before the run record is touched.
type Decision struct {
	Kind              Kind     `json:"kind"`
	Decision          string   `json:"decision"` // "approved" | "denied"
	Justification     string   `json:"justification,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	SelectedProposals []string `json:"selected_proposals,omitempty"`
}

// Approved reports whether the decision is an approval.
func (d Decision) Approved() bool { return d.Decision == "approved" }

// ParseDecision validates raw JSON against the decision schema and decodes
// it. Malformed or out-of-shape submissions are rejected without side
// effects.
func ParseDecision(raw []byte) (Decision, error) {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Decision{}, fmt.Errorf("parse decision: %w", err)
	}
	if err := decisionSchema.Validate(generic); err != nil {
		return Decision{}, fmt.Errorf("invalid decision: %w", err)
	}

	var d Decision
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return Decision{}, fmt.Errorf("parse decision: %w", err)
	}
	return d, nil
}
