package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viant/afs"

	"github.com/privhq/dsarkit/internal/dsar"
)

// Profile reads a CRM profile document. Besides producing one profile
// artifact, it enriches the subject identifier set with the profile's email
// and phone and can seed the legal hold flag.
type Profile struct {
	fs  afs.Service
	url string
}

// NewProfile creates a provider reading the profile at the given URL.
func NewProfile(fs afs.Service, url string) *Profile {
	return &Profile{fs: fs, url: url}
}

// Name implements Provider.
func (p *Profile) Name() string { return "crm_profile" }

// Location implements Provider.
func (p *Profile) Location() string { return p.url }

type profileDoc struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	LegalHold *bool  `json:"legal_hold"`
}

func (p *Profile) load(ctx context.Context) (*profileDoc, error) {
	data, err := p.fs.DownloadWithURL(ctx, p.url)
	if err != nil {
		return nil, fmt.Errorf("crm profile %s: %w", p.url, err)
	}
	var doc profileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("crm profile %s: %w", p.url, err)
	}
	return &doc, nil
}

// Artifacts implements Provider.
func (p *Profile) Artifacts(ctx context.Context) ([]dsar.Artifact, error) {
	doc, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	id := doc.ID
	if id == "" {
		id = "crm_1"
	}
	return []dsar.Artifact{{
		Source:  p.Name(),
		ID:      id,
		Type:    "profile",
		Content: strings.Join([]string{doc.Name, doc.Email, doc.Address, doc.Phone}, ", "),
	}}, nil
}

// Enrich implements Enricher.
func (p *Profile) Enrich(ctx context.Context) (Enrichment, error) {
	doc, err := p.load(ctx)
	if err != nil {
		return Enrichment{}, err
	}
	e := Enrichment{LegalHold: doc.LegalHold}
	if doc.Email != "" {
		e.Emails = append(e.Emails, doc.Email)
	}
	if doc.Phone != "" {
		e.Phones = append(e.Phones, doc.Phone)
	}
	return e, nil
}
