package harness

import "github.com/privhq/dsarkit/internal/dsar"

// TraceEvent is one engine invocation in the scenario trace.
type TraceEvent struct {
	Type          string `json:"type"` // "step" or "decision"
	Step          string `json:"step,omitempty"`
	State         string `json:"state,omitempty"`
	Success       bool   `json:"success,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Clarification string `json:"clarification,omitempty"`
	Kind          string `json:"kind,omitempty"`
	Decision      string `json:"decision,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: all assertions held.
	Pass bool `json:"pass"`

	// Trace contains every engine invocation and decision in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Run is the final run record.
	Run *dsar.Run `json:"run,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStepTrace records one engine step invocation.
func (r *Result) AddStepTrace(step string, state dsar.State, success bool, reason, clarification string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:          "step",
		Step:          step,
		State:         string(state),
		Success:       success,
		Reason:        reason,
		Clarification: clarification,
	})
}

// AddDecisionTrace records one submitted decision.
func (r *Result) AddDecisionTrace(kind, decision string, state dsar.State) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:     "decision",
		Kind:     kind,
		Decision: decision,
		State:    string(state),
	})
}
