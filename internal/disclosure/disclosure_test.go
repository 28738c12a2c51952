package disclosure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privhq/dsarkit/internal/dsar"
)

var testFindings = []dsar.Finding{
	{ArtifactID: "mail_1", PIIType: "email", Value: "alice@example.com"},
	{ArtifactID: "crm_1", PIIType: "phone", Value: "+1-555-0101"},
	{ArtifactID: "mail_2", PIIType: "email", Value: "bob@example.org"},
}

var testArtifacts = []dsar.Artifact{
	{ID: "mail_1", Type: "email"},
	{ID: "mail_2", Type: "email"},
	{ID: "crm_1", Type: "profile"},
}

func TestAssembleRendersOnlyRequiredSections(t *testing.T) {
	sections := Assemble([]string{SectionPurpose, SectionRights}, testFindings, testArtifacts, 30)

	require.Len(t, sections, 2)
	assert.Contains(t, sections, SectionPurpose)
	assert.Contains(t, sections, SectionRights)
}

func TestAssemblePurposeAndRightsText(t *testing.T) {
	sections := Assemble([]string{SectionPurpose, SectionRights}, nil, nil, 30)

	assert.Contains(t, sections[SectionPurpose], "Data Subject Access Request")
	assert.Contains(t, sections[SectionRights], "rights to access, rectification, erasure")
}

func TestAssembleCategoriesSorted(t *testing.T) {
	sections := Assemble([]string{SectionCategories}, testFindings, testArtifacts, 30)

	assert.Equal(t,
		"PII categories: email, phone. Artifact types: email, profile.",
		sections[SectionCategories])
}

func TestAssembleCategoriesEmpty(t *testing.T) {
	sections := Assemble([]string{SectionCategories}, nil, nil, 30)

	assert.Equal(t,
		"PII categories: none. Artifact types: none.",
		sections[SectionCategories])
}

func TestAssembleRecipients(t *testing.T) {
	sections := Assemble([]string{SectionRecipients}, nil, nil, 30)

	assert.Contains(t, sections[SectionRecipients], "You (data subject)")
	assert.Contains(t, sections[SectionRecipients], "Internal compliance team (review and approval)")
	assert.Contains(t, sections[SectionRecipients], "Supervisory authority upon lawful request")
}

func TestAssembleRetentionUsesAccessDays(t *testing.T) {
	sections := Assemble([]string{SectionRetention}, nil, nil, 45)

	assert.Equal(t,
		"DSAR artifacts retained for up to 45 days; originals per system policies.",
		sections[SectionRetention])
}

func TestAssembleUnknownSection(t *testing.T) {
	sections := Assemble([]string{"custom_addendum"}, nil, nil, 30)

	assert.Equal(t, "Provided.", sections["custom_addendum"])
}

func TestAssembleDeterministic(t *testing.T) {
	required := []string{SectionPurpose, SectionCategories, SectionRecipients, SectionRetention, SectionRights}

	first := Assemble(required, testFindings, testArtifacts, 30)
	second := Assemble(required, testFindings, testArtifacts, 30)

	assert.Equal(t, first, second)
}
