package packager

import (
	"context"
	"log/slog"
	"time"

	"github.com/viant/afs"
)

// SweepExpired deletes delivered packages older than ttl from baseURL.
// Best-effort housekeeping tied to the SLA access window: individual delete
// failures are logged and skipped, and a missing base directory is not an
// error.
func SweepExpired(ctx context.Context, fs afs.Service, baseURL string, ttl time.Duration, now time.Time) (int, error) {
	exists, err := fs.Exists(ctx, baseURL)
	if err != nil || !exists {
		return 0, err
	}

	objects, err := fs.List(ctx, baseURL)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		if now.Sub(object.ModTime()) <= ttl {
			continue
		}
		if err := fs.Delete(ctx, object.URL()); err != nil {
			slog.Warn("sweep: delete failed", "url", object.URL(), "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
