package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privhq/dsarkit/internal/dsar"
)

func TestBuildProposalsOnePerFinding(t *testing.T) {
	findings := []dsar.Finding{
		{ArtifactID: "mail_1", PIIType: TypeEmail, Value: "alice@example.com", Start: 5, End: 22, ThirdParty: false},
		{ArtifactID: "crm_1", PIIType: TypePhone, Value: "+1-555-0101", Start: 10, End: 21, ThirdParty: true},
	}

	proposals := BuildProposals(findings)

	require.Len(t, proposals, 2)

	assert.Equal(t, "p0", proposals[0].ID)
	assert.Equal(t, "mail_1", proposals[0].ArtifactID)
	assert.Equal(t, "al***@example.com", proposals[0].MaskedPreview)
	assert.Equal(t, 5, proposals[0].Start)
	assert.Equal(t, 22, proposals[0].End)
	assert.Equal(t, dsar.ProposalActionMask, proposals[0].Action)
	assert.False(t, proposals[0].ThirdParty)

	assert.Equal(t, "p1", proposals[1].ID)
	assert.Equal(t, "***0101", proposals[1].MaskedPreview)
	assert.True(t, proposals[1].ThirdParty)
}

func TestBuildProposalsEmpty(t *testing.T) {
	assert.Empty(t, BuildProposals(nil))
}

func TestBuildProposalsStableIDs(t *testing.T) {
	findings := []dsar.Finding{
		{ArtifactID: "a", PIIType: TypeEmail, Value: "x@y.io"},
		{ArtifactID: "a", PIIType: TypeEmail, Value: "x@y.io"},
	}

	first := BuildProposals(findings)
	second := BuildProposals(findings)

	assert.Equal(t, first, second)
}
