package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with the given args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// submitRun submits a request against the db and returns its request ID.
func submitRun(t *testing.T, db string, extra ...string) string {
	t.Helper()
	args := append([]string{
		"submit", "--db", db, "--subject", "alice@example.com",
		"--upload-filename", "alice_passport.jpg", "--upload-size", "2048",
		"--format", "json",
	}, extra...)
	out, err := execute(t, args...)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			RequestID string `json:"request_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NotEmpty(t, resp.Data.RequestID)
	return resp.Data.RequestID
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "dsar.db")
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "submit",
		"--db", "ignored", "--subject", "a@b.c", "--format", "xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestSubmitTextOutput(t *testing.T) {
	out, err := execute(t, "submit",
		"--db", tempDB(t), "--subject", "alice@example.com")

	require.NoError(t, err)
	assert.Contains(t, out, "Submitted request")
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "types: access")
}

func TestSubmitRejectsUnknownType(t *testing.T) {
	_, err := execute(t, "submit",
		"--db", tempDB(t), "--subject", "alice@example.com", "--type", "portability")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request type")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSubmitRequiresFlags(t *testing.T) {
	_, err := execute(t, "submit", "--db", tempDB(t))
	assert.Error(t, err, "subject is required")
}

func TestStatusShowsRun(t *testing.T) {
	db := tempDB(t)
	id := submitRun(t, db)

	out, err := execute(t, "status", "--db", db, id)
	require.NoError(t, err)

	assert.Contains(t, out, "Request:   "+id)
	assert.Contains(t, out, "Subject:   alice@example.com")
	assert.Contains(t, out, "State:     created")
}

func TestStatusUnknownRun(t *testing.T) {
	_, err := execute(t, "status", "--db", tempDB(t), "missing-id")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load run")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAdvanceAllPausesForCompliance(t *testing.T) {
	db := tempDB(t)
	id := submitRun(t, db)

	out, err := execute(t, "advance", "--db", db, "--all", id)
	require.NoError(t, err)

	assert.Contains(t, out, "verify_identity")
	assert.Contains(t, out, "PAUSED")
	assert.Contains(t, out, "ComplianceApprovalClarification")

	statusOut, err := execute(t, "status", "--db", db, id)
	require.NoError(t, err)
	assert.Contains(t, statusOut, "State:     awaiting_compliance_approval")
}

func TestApproveAndDeliver(t *testing.T) {
	db := tempDB(t)
	id := submitRun(t, db)
	_, err := execute(t, "advance", "--db", db, "--all", id)
	require.NoError(t, err)

	decision := filepath.Join(t.TempDir(), "decision.json")
	require.NoError(t, os.WriteFile(decision,
		[]byte(`{"kind": "compliance", "decision": "approved"}`), 0o600))

	out, err := execute(t, "approve", "--db", db, "--decision-file", decision, id)
	require.NoError(t, err)
	assert.Contains(t, out, `Recorded compliance decision "approved"`)

	_, err = execute(t, "advance", "--db", db, id)
	require.NoError(t, err)

	statusOut, err := execute(t, "status", "--db", db, "--audit", id)
	require.NoError(t, err)
	assert.Contains(t, statusOut, "State:     delivered")
	assert.Contains(t, statusOut, "finalize_delivery")
}

func TestApproveRejectsMalformedDecision(t *testing.T) {
	db := tempDB(t)
	id := submitRun(t, db)

	decision := filepath.Join(t.TempDir(), "decision.json")
	require.NoError(t, os.WriteFile(decision, []byte(`{"decision": "approved"}`), 0o600))

	_, err := execute(t, "approve", "--db", db, "--decision-file", decision, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid decision")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestApproveOutOfOrderDecision(t *testing.T) {
	db := tempDB(t)
	id := submitRun(t, db)

	decision := filepath.Join(t.TempDir(), "decision.json")
	require.NoError(t, os.WriteFile(decision,
		[]byte(`{"kind": "compliance", "decision": "approved"}`), 0o600))

	// The run is still in state created; no compliance decision is pending.
	_, err := execute(t, "approve", "--db", db, "--decision-file", decision, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decision rejected")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestHoldSetAndClear(t *testing.T) {
	db := tempDB(t)
	id := submitRun(t, db)

	out, err := execute(t, "hold", "--db", db, id)
	require.NoError(t, err)
	assert.Contains(t, out, "Legal hold set")

	statusOut, err := execute(t, "status", "--db", db, id)
	require.NoError(t, err)
	assert.Contains(t, statusOut, "HOLD active")

	out, err = execute(t, "hold", "--db", db, "--clear", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Legal hold cleared")
}

func TestSweepRemovesExpiredPackages(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "req-old.zip")
	require.NoError(t, os.WriteFile(stale, []byte("zip"), 0o600))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	out, err := execute(t, "sweep", "--packages", dir, "--ttl", "24h")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 expired package(s)")

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestSweepEmptyDirectory(t *testing.T) {
	out, err := execute(t, "sweep", "--packages", t.TempDir(), "--ttl", "24h")

	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 expired package(s)")
}
