package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoldenAccessTrace(t *testing.T) {
	s := &Scenario{
		Name:               "access-trace",
		Description:        "reference trace for the access happy path",
		SubjectEmail:       "alice@example.com",
		RequestTypes:       []string{"access"},
		IdentityConfidence: confidence(0.99),
		Artifacts: []ArtifactFixture{
			{Source: "mail_export", ID: "mail_1", Type: "email",
				Content: "hello alice@example.com"},
		},
		Decisions: []DecisionStep{
			{Kind: "compliance", Decision: "approved"},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, State: "delivered"},
		},
	}

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "failures: %v", result.Errors)
}
