package sources

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/afs"

	"github.com/privhq/dsarkit/internal/dsar"
)

// Files reads every regular file under a directory URL as one artifact of
// type "file". Unreadable entries are skipped; a missing directory yields an
// empty result rather than an error.
type Files struct {
	fs  afs.Service
	url string
}

// NewFiles creates a provider reading the directory at the given URL.
func NewFiles(fs afs.Service, url string) *Files {
	return &Files{fs: fs, url: url}
}

// Name implements Provider.
func (f *Files) Name() string { return "files" }

// Location implements Provider.
func (f *Files) Location() string { return f.url }

// Artifacts implements Provider.
func (f *Files) Artifacts(ctx context.Context) ([]dsar.Artifact, error) {
	exists, err := f.fs.Exists(ctx, f.url)
	if err != nil {
		return nil, fmt.Errorf("files %s: %w", f.url, err)
	}
	if !exists {
		return nil, nil
	}

	objects, err := f.fs.List(ctx, f.url)
	if err != nil {
		return nil, fmt.Errorf("files %s: %w", f.url, err)
	}

	var artifacts []dsar.Artifact
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		data, err := f.fs.DownloadWithURL(ctx, object.URL())
		if err != nil {
			continue
		}
		artifacts = append(artifacts, dsar.Artifact{
			Source:  f.Name(),
			ID:      object.Name(),
			Type:    "file",
			Content: string(data),
		})
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].ID < artifacts[j].ID })
	return artifacts, nil
}
