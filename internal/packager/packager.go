// Package packager assembles the disclosure package: a zip archive holding
// the original and redacted artifacts, findings, applied proposals,
// disclosures, audit trail, policy snapshot and approvals. The archive is
// uploaded through viant/afs and referenced by a content-addressed digest.
//
// Packager failures never roll back run state; the engine reports the step
// as failed and the approval can be re-applied.
package packager

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/privhq/dsarkit/internal/dsar"
)

// digestDomain separates package digests from any other sha256 use.
const digestDomain = "dsarkit/package/v1"

// RedactedArtifact is an artifact copy with selected redactions applied.
type RedactedArtifact struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Payload is everything the packager receives. The packager is a
// collaborator: it performs no policy decisions of its own.
type Payload struct {
	RequestID         string
	SubjectEmail      string
	OriginalArtifacts []dsar.Artifact
	RedactedArtifacts []RedactedArtifact
	PIIFindings       []dsar.Finding
	AppliedProposals  []dsar.Proposal
	Disclosures       map[string]string
	AuditLog          []dsar.AuditEntry
	Policy            dsar.Policy
	Approvals         dsar.Approvals
}

// Ref points at a delivered package.
type Ref struct {
	URL    string `json:"url"`
	Digest string `json:"digest"` // "sha256:<hex>" over the archive bytes
}

// Packager writes disclosure packages.
type Packager interface {
	Package(ctx context.Context, p *Payload) (Ref, error)
}

// Zip is the afs-backed Packager. BaseURL is the destination directory
// (file:// or mem:// in tests); archives are named <request_id>.zip.
type Zip struct {
	fs      afs.Service
	baseURL string
}

// NewZip creates a zip packager writing under baseURL.
func NewZip(fs afs.Service, baseURL string) *Zip {
	return &Zip{fs: fs, baseURL: baseURL}
}

// Package implements Packager.
func (z *Zip) Package(ctx context.Context, p *Payload) (Ref, error) {
	archive, err := buildArchive(p)
	if err != nil {
		return Ref{}, err
	}

	dest := url.Join(z.baseURL, p.RequestID+".zip")
	if err := z.fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewReader(archive)); err != nil {
		return Ref{}, fmt.Errorf("upload package %s: %w", dest, err)
	}
	return Ref{URL: dest, Digest: Digest(archive)}, nil
}

// Digest computes the content-addressed integrity reference for an archive:
// sha256 over domain + NUL + bytes, domain-separated so package digests can
// never collide with other hashes in the system.
func Digest(archive []byte) string {
	h := sha256.New()
	h.Write([]byte(digestDomain))
	h.Write([]byte{0x00})
	h.Write(archive)
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

func buildArchive(p *Payload) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := []struct {
		name string
		body any
	}{
		{"summary.json", map[string]any{
			"subject": p.SubjectEmail,
			"records": len(p.OriginalArtifacts),
			"pii":     len(p.PIIFindings),
		}},
		{"artifacts.json", map[string]any{
			"original_artifacts": p.OriginalArtifacts,
			"redacted_artifacts": p.RedactedArtifacts,
			"pii_findings":       p.PIIFindings,
			"applied_proposals":  p.AppliedProposals,
			"disclosures":        p.Disclosures,
		}},
		{"audit_log.json", p.AuditLog},
		{"policy_snapshot.json", p.Policy},
		{"approvals.json", p.Approvals},
	}
	for _, entry := range entries {
		data, err := json.MarshalIndent(entry.body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", entry.name, err)
		}
		w, err := zw.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", entry.name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("write %s: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
