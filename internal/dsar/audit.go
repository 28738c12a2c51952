package dsar

import "encoding/json"

// AuditEntry is one immutable record in the append-only audit trail.
// Exactly one entry is appended per step invocation. The JSON form is the
// step name flattened together with the step-specific detail fields:
//
//	{"step":"detect_pii","count":3,"third_party":1}
type AuditEntry struct {
	Step   string
	Detail map[string]any
}

// Append records a new audit entry. Entries are never mutated or reordered
// after append; callers must not retain references into Detail.
func (r *Run) Append(step string, detail map[string]any) {
	r.AuditLog = append(r.AuditLog, AuditEntry{Step: step, Detail: detail})
}

// MarshalJSON flattens Detail next to the step key.
// Detail may not contain a "step" key of its own.
func (e AuditEntry) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Detail)+1)
	for k, v := range e.Detail {
		flat[k] = v
	}
	flat["step"] = e.Step
	return json.Marshal(flat)
}

// UnmarshalJSON splits the flattened form back into step and detail.
func (e *AuditEntry) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	if step, ok := flat["step"].(string); ok {
		e.Step = step
	}
	delete(flat, "step")
	if len(flat) > 0 {
		e.Detail = flat
	} else {
		e.Detail = nil
	}
	return nil
}
