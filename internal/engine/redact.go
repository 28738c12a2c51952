package engine

import (
	"sort"

	"github.com/privhq/dsarkit/internal/dsar"
	"github.com/privhq/dsarkit/internal/packager"
)

// applyRedactions produces a redacted copy of every artifact with the
// selected proposals applied. Proposals with offsets outside the artifact
// content are dropped, not applied. Spans are replaced from the highest
// start offset down so earlier offsets stay valid as the content shrinks.
func applyRedactions(run *dsar.Run, selected map[string]bool) (redacted []packager.RedactedArtifact, applied []dsar.Proposal, dropped []string) {
	perArtifact := make(map[string][]dsar.Proposal)
	for _, p := range run.RedactionProposals {
		if selected[p.ID] {
			perArtifact[p.ArtifactID] = append(perArtifact[p.ArtifactID], p)
		}
	}

	redacted = make([]packager.RedactedArtifact, 0, len(run.Artifacts))
	for _, a := range run.Artifacts {
		proposals := perArtifact[a.ID]
		sort.Slice(proposals, func(i, j int) bool {
			return proposals[i].Start > proposals[j].Start
		})

		content := a.Content
		for _, p := range proposals {
			if p.Start < 0 || p.End < p.Start || p.End > len(content) {
				dropped = append(dropped, p.ID)
				continue
			}
			content = content[:p.Start] + p.MaskedPreview + content[p.End:]
			applied = append(applied, p)
		}
		redacted = append(redacted, packager.RedactedArtifact{ID: a.ID, Content: content})
	}
	return redacted, applied, dropped
}

func buildPayload(run *dsar.Run, redacted []packager.RedactedArtifact, applied []dsar.Proposal) *packager.Payload {
	return &packager.Payload{
		RequestID:         run.RequestID,
		SubjectEmail:      run.SubjectEmail,
		OriginalArtifacts: run.Artifacts,
		RedactedArtifacts: redacted,
		PIIFindings:       run.PIIFindings,
		AppliedProposals:  applied,
		Disclosures:       run.Disclosures,
		AuditLog:          run.AuditLog,
		Policy:            run.Policy,
		Approvals:         run.Approvals,
	}
}
