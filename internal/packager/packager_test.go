package packager

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/privhq/dsarkit/internal/dsar"
)

func testPayload() *Payload {
	return &Payload{
		RequestID:    "req-1",
		SubjectEmail: "alice@example.com",
		OriginalArtifacts: []dsar.Artifact{
			{Source: "mail_export", ID: "mail_1", Type: "email", Content: "hello alice@example.com"},
		},
		RedactedArtifacts: []RedactedArtifact{
			{ID: "mail_1", Content: "hello al***@example.com"},
		},
		PIIFindings: []dsar.Finding{
			{ArtifactID: "mail_1", PIIType: "email", Value: "alice@example.com", Start: 6, End: 23},
		},
		AppliedProposals: []dsar.Proposal{{ID: "p0", ArtifactID: "mail_1"}},
		Disclosures:      map[string]string{"purpose_of_processing": "..."},
		AuditLog: []dsar.AuditEntry{
			{Step: "detect_pii", Detail: map[string]any{"findings": 1}},
		},
		Policy: dsar.DefaultPolicy(),
	}
}

func TestPackageUploadsArchive(t *testing.T) {
	fs := afs.New()
	z := NewZip(fs, "mem://localhost/packager-test/out")

	ref, err := z.Package(context.Background(), testPayload())
	require.NoError(t, err)

	assert.Equal(t, "mem://localhost/packager-test/out/req-1.zip", ref.URL)
	assert.True(t, strings.HasPrefix(ref.Digest, "sha256:"))

	exists, err := fs.Exists(context.Background(), ref.URL)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPackageArchiveLayout(t *testing.T) {
	fs := afs.New()
	z := NewZip(fs, "mem://localhost/packager-test/layout")

	ref, err := z.Package(context.Background(), testPayload())
	require.NoError(t, err)

	data, err := fs.DownloadWithURL(context.Background(), ref.URL)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"summary.json",
		"artifacts.json",
		"audit_log.json",
		"policy_snapshot.json",
		"approvals.json",
	}, names)
}

func TestPackageSummaryContents(t *testing.T) {
	fs := afs.New()
	z := NewZip(fs, "mem://localhost/packager-test/summary")

	ref, err := z.Package(context.Background(), testPayload())
	require.NoError(t, err)

	data, err := fs.DownloadWithURL(context.Background(), ref.URL)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(readEntry(t, zr, "summary.json"), &summary))
	assert.Equal(t, "alice@example.com", summary["subject"])
	assert.Equal(t, float64(1), summary["records"])
	assert.Equal(t, float64(1), summary["pii"])

	var artifacts map[string]any
	require.NoError(t, json.Unmarshal(readEntry(t, zr, "artifacts.json"), &artifacts))
	assert.Contains(t, artifacts, "original_artifacts")
	assert.Contains(t, artifacts, "redacted_artifacts")
	assert.Contains(t, artifacts, "applied_proposals")
	assert.Contains(t, artifacts, "disclosures")
}

func readEntry(t *testing.T, zr *zip.Reader, name string) []byte {
	t.Helper()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return data
	}
	t.Fatalf("entry %s not found in archive", name)
	return nil
}

func TestDigestDeterministicAndDomainSeparated(t *testing.T) {
	archive := []byte("same bytes")

	assert.Equal(t, Digest(archive), Digest(archive))
	assert.NotEqual(t, Digest(archive), Digest([]byte("other bytes")))
	assert.True(t, strings.HasPrefix(Digest(archive), "sha256:"))
}

func TestSweepExpiredRemovesOldPackages(t *testing.T) {
	fs := afs.New()
	base := "mem://localhost/packager-test/sweep"
	err := fs.Upload(context.Background(), base+"/old.zip", file.DefaultFileOsMode, strings.NewReader("zip"))
	require.NoError(t, err)

	// With a zero TTL and a future reference time every object is expired.
	removed, err := SweepExpired(context.Background(), fs, base, 0, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	exists, err := fs.Exists(context.Background(), base+"/old.zip")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSweepExpiredKeepsYoungPackages(t *testing.T) {
	fs := afs.New()
	base := "mem://localhost/packager-test/sweep-young"
	err := fs.Upload(context.Background(), base+"/fresh.zip", file.DefaultFileOsMode, strings.NewReader("zip"))
	require.NoError(t, err)

	removed, err := SweepExpired(context.Background(), fs, base, 24*time.Hour, time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSweepExpiredMissingBase(t *testing.T) {
	removed, err := SweepExpired(context.Background(), afs.New(),
		"mem://localhost/packager-test/void", time.Hour, time.Now())

	require.NoError(t, err)
	assert.Zero(t, removed)
}
