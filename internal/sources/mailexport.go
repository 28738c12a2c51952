package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/afs"

	"github.com/privhq/dsarkit/internal/dsar"
)

// MailExport reads a JSON mailbox export: an array of messages with id,
// subject and body. Each message becomes one email artifact.
type MailExport struct {
	fs  afs.Service
	url string
}

// NewMailExport creates a provider reading the export at the given URL.
func NewMailExport(fs afs.Service, url string) *MailExport {
	return &MailExport{fs: fs, url: url}
}

// Name implements Provider.
func (m *MailExport) Name() string { return "mail_export" }

// Location implements Provider.
func (m *MailExport) Location() string { return m.url }

type exportMessage struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Artifacts implements Provider.
func (m *MailExport) Artifacts(ctx context.Context) ([]dsar.Artifact, error) {
	data, err := m.fs.DownloadWithURL(ctx, m.url)
	if err != nil {
		return nil, fmt.Errorf("mail export %s: %w", m.url, err)
	}
	var messages []exportMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("mail export %s: %w", m.url, err)
	}

	artifacts := make([]dsar.Artifact, 0, len(messages))
	for _, msg := range messages {
		artifacts = append(artifacts, dsar.Artifact{
			Source:  m.Name(),
			ID:      "mail_" + msg.ID,
			Type:    "email",
			Content: msg.Subject + ": " + msg.Body,
		})
	}
	return artifacts, nil
}
