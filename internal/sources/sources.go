// Package sources provides artifact source providers: collaborators that
// load a subject's data from external systems. Providers fail per source;
// the engine tolerates partial or empty results and never retries here.
//
// All I/O goes through viant/afs so providers work identically against
// file://, mem:// and other schemes.
package sources

import (
	"context"

	"github.com/privhq/dsarkit/internal/dsar"
)

// Provider loads artifacts from one source system.
type Provider interface {
	// Name identifies the source; it is recorded on every artifact.
	Name() string

	// Location describes where the source reads from, for the
	// discover_sources audit entry.
	Location() string

	// Artifacts returns the subject's artifacts. An error marks this
	// source as failed; it never aborts the run.
	Artifacts(ctx context.Context) ([]dsar.Artifact, error)
}

// Enrichment carries subject identifiers and flags learned from a source.
type Enrichment struct {
	Emails    []string
	Phones    []string
	LegalHold *bool
}

// Enricher is implemented by providers that can supply subject identifiers
// (used for third-party classification) or seed the legal hold flag.
type Enricher interface {
	Enrich(ctx context.Context) (Enrichment, error)
}
