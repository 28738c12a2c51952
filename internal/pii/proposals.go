package pii

import (
	"fmt"

	"github.com/privhq/dsarkit/internal/dsar"
)

// BuildProposals derives one redaction proposal per finding, id-stamped in
// input order (p0, p1, ...). Proposals are purely derivative: offsets are
// copied from the source finding without revalidation.
func BuildProposals(findings []dsar.Finding) []dsar.Proposal {
	proposals := make([]dsar.Proposal, 0, len(findings))
	for i, f := range findings {
		proposals = append(proposals, dsar.Proposal{
			ID:            fmt.Sprintf("p%d", i),
			ArtifactID:    f.ArtifactID,
			PIIType:       f.PIIType,
			Value:         f.Value,
			MaskedPreview: Mask(f.PIIType, f.Value),
			Start:         f.Start,
			End:           f.End,
			Action:        dsar.ProposalActionMask,
			ThirdParty:    f.ThirdParty,
		})
	}
	return proposals
}
