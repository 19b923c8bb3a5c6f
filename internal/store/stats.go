package store

import (
	"context"
	"os"
	"time"
)

// Info describes the backing storage and the state of the stored blob.
type Info struct {
	Backend       string     `json:"backend"`
	Path          string     `json:"path,omitempty"`
	Key           string     `json:"key"`
	FileBytes     int64      `json:"file_bytes"`
	BlobBytes     int        `json:"blob_bytes"`
	Status        Status     `json:"status"`
	Error         string     `json:"error,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	PageViews     int        `json:"page_views"`
	SearchQueries int        `json:"search_queries"`
}

type describer interface {
	Kind() string
	Path() string
}

type timestamper interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}

// Stats returns storage statistics. It never fails; problems are reported in
// Info.Error.
func (a *Accessor) Stats(ctx context.Context) Info {
	info := Info{Backend: "custom", Key: a.key}
	if d, ok := a.backend.(describer); ok {
		info.Backend = d.Kind()
		info.Path = d.Path()
	}

	if info.Path != "" {
		if fi, err := os.Stat(info.Path); err == nil && !fi.IsDir() {
			info.FileBytes = fi.Size()
		}
	}

	if raw, ok, err := a.backend.Get(ctx, a.key); err == nil && ok {
		info.BlobBytes = len(raw)
		if info.FileBytes == 0 {
			info.FileBytes = int64(len(raw))
		}
	}

	if ts, ok := a.backend.(timestamper); ok {
		if t, found, err := ts.UpdatedAt(ctx, a.key); err == nil && found {
			info.UpdatedAt = &t
		}
	}

	snap, status, err := a.Inspect(ctx)
	info.Status = status
	if err != nil {
		info.Error = err.Error()
	}
	info.PageViews = len(snap.PageViews)
	info.SearchQueries = len(snap.SearchQueries)
	return info
}
