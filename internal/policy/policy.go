// Package policy loads and validates DSAR policy documents.
//
// Policies are written in YAML and validated against an embedded CUE schema
// before use, so malformed documents fail at load time with a field-level
// message rather than surfacing mid-workflow.
package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/privhq/dsarkit/internal/dsar"
)

//go:embed schema.cue
var schemaCUE string

// Error reports a policy document that failed schema validation.
type Error struct {
	Path    string // file path, empty for inline documents
	Message string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("policy %s: %s", e.Path, e.Message)
	}
	return "policy: " + e.Message
}

// Load reads a YAML policy file, validates it, and applies defaults.
func Load(path string) (dsar.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dsar.Policy{}, fmt.Errorf("read policy: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			perr.Path = path
			return dsar.Policy{}, perr
		}
		return dsar.Policy{}, err
	}
	return p, nil
}

// Parse validates raw YAML policy content and applies defaults.
func Parse(data []byte) (dsar.Policy, error) {
	// Decode generically first so the CUE schema sees unknown keys.
	var generic map[string]any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return dsar.Policy{}, &Error{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if generic == nil {
		generic = map[string]any{}
	}
	if err := validate(generic); err != nil {
		return dsar.Policy{}, err
	}

	var p dsar.Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return dsar.Policy{}, &Error{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	p.ApplyDefaults()
	return p, nil
}

// validate unifies the document with the #Policy definition. Definitions
// are closed, so unknown keys are rejected.
func validate(doc map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Policy"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile policy schema: %w", err)
	}

	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return &Error{Message: fmt.Sprintf("encode document: %v", err)}
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &Error{Message: cueerrors.Details(err, nil)}
	}
	return nil
}
