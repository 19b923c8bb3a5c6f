package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/site-analytics/internal/store"
)

// ExportMIMEType is the content type of an export artifact.
const ExportMIMEType = "application/json"

// Export returns the current store as indented JSON.
func (t *Tracker) Export(ctx context.Context) (string, error) {
	b, err := json.MarshalIndent(t.load(ctx), "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return string(b), nil
}

// ExportFileName names an export artifact created at t. The ULID carries
// the millisecond timestamp, so names sort by creation time.
func ExportFileName(t time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy())
	return "analytics-" + id.String() + ".json"
}

// WriteExport writes an export artifact into dir and returns its path.
func (t *Tracker) WriteExport(ctx context.Context, dir string) (string, error) {
	data, err := t.Export(ctx)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ExportFileName(t.now()))
	if err := store.WriteFileAtomic(path, []byte(data+"\n")); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
