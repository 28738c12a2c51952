package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullPolicy(t *testing.T) {
	p, err := Parse([]byte(`
identity:
  min_confidence_for_auto_approval: 0.9
disclosure:
  require_sections: [purpose_of_processing, recipients]
redaction:
  required_types: [email]
  allow_override_with_justification: true
retention_policies:
  financial_transaction_days: 90
  active_service_days: 30
sla:
  access_days: 45
`))
	require.NoError(t, err)

	assert.Equal(t, 0.9, p.Identity.MinConfidence)
	assert.Equal(t, []string{"purpose_of_processing", "recipients"}, p.Disclosure.RequireSections)
	assert.Equal(t, []string{"email"}, p.Redaction.RequiredTypes)
	assert.True(t, p.Redaction.AllowOverrideWithJustification)
	assert.Equal(t, 90, p.Retention.FinancialTransactionDays)
	assert.Equal(t, 30, p.Retention.ActiveServiceDays)
	assert.Equal(t, 45, p.SLA.AccessDays)
}

func TestParseEmptyAppliesDefaults(t *testing.T) {
	p, err := Parse([]byte(""))
	require.NoError(t, err)

	assert.Equal(t, 0.85, p.Identity.MinConfidence)
	assert.Equal(t, 30, p.SLA.AccessDays)
}

func TestParsePartialAppliesDefaults(t *testing.T) {
	p, err := Parse([]byte("redaction:\n  required_types: [email]\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.85, p.Identity.MinConfidence)
	assert.Equal(t, 30, p.SLA.AccessDays)
	assert.Equal(t, []string{"email"}, p.Redaction.RequiredTypes)
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown top-level key", "identityy:\n  min_confidence_for_auto_approval: 0.9\n"},
		{"unknown nested key", "identity:\n  threshold: 0.9\n"},
		{"confidence above one", "identity:\n  min_confidence_for_auto_approval: 1.5\n"},
		{"negative retention", "retention_policies:\n  financial_transaction_days: -1\n"},
		{"zero access days", "sla:\n  access_days: 0\n"},
		{"wrong type", "disclosure:\n  require_sections: purpose\n"},
		{"not yaml", ":\n:::\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestParseErrorType(t *testing.T) {
	_, err := Parse([]byte("identity:\n  threshold: 0.9\n"))

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, perr.Path)
	assert.NotEmpty(t, perr.Message)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sla:\n  access_days: 15\n"), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15, p.SLA.AccessDays)
}

func TestLoadAttachesPathToError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unknown_key: 1\n"), 0o600))

	_, err := Load(path)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, path, perr.Path)
	assert.Contains(t, perr.Error(), path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
