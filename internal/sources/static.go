package sources

import (
	"context"

	"github.com/privhq/dsarkit/internal/dsar"
)

// Static serves a fixed artifact set, used by tests and the scenario
// harness. Err, when set, makes the provider fail to exercise per-source
// failure isolation.
type Static struct {
	SourceName string
	Items      []dsar.Artifact
	Identity   Enrichment
	Err        error
}

// Name implements Provider.
func (s *Static) Name() string {
	if s.SourceName == "" {
		return "static"
	}
	return s.SourceName
}

// Location implements Provider.
func (s *Static) Location() string { return "static://" + s.Name() }

// Artifacts implements Provider.
func (s *Static) Artifacts(context.Context) ([]dsar.Artifact, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Items, nil
}

// Enrich implements Enricher.
func (s *Static) Enrich(context.Context) (Enrichment, error) {
	if s.Err != nil {
		return Enrichment{}, s.Err
	}
	return s.Identity, nil
}
