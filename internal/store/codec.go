package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rcliao/site-analytics/internal/model"
)

// Status classifies a stored blob before any of its fields are used.
type Status int

const (
	StatusAbsent Status = iota
	StatusValid
	StatusCorrupt
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusCorrupt:
		return "corrupt"
	default:
		return "absent"
	}
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// rawSnapshot defers decoding of the collections so their shape can be
// checked first.
type rawSnapshot struct {
	PageViews     json.RawMessage `json:"pageViews"`
	SearchQueries json.RawMessage `json:"searchQueries"`
	Version       *string         `json:"version"`
}

// Decode parses and validates a stored blob. The returned snapshot is empty
// unless the status is StatusValid.
func Decode(raw []byte) (model.Snapshot, Status, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return model.Empty(), StatusAbsent, nil
	}

	var r rawSnapshot
	if err := json.Unmarshal(raw, &r); err != nil {
		return corrupt(fmt.Errorf("%w: %v", ErrCorrupt, err))
	}
	if r.Version == nil || *r.Version == "" {
		return corrupt(fmt.Errorf("%w: missing version", ErrVersionMismatch))
	}
	if *r.Version != model.SchemaVersion {
		return corrupt(fmt.Errorf("%w: got %q, want %q", ErrVersionMismatch, *r.Version, model.SchemaVersion))
	}
	if !isArray(r.PageViews) {
		return corrupt(fmt.Errorf("%w: pageViews is not an array", ErrCorrupt))
	}
	if !isArray(r.SearchQueries) {
		return corrupt(fmt.Errorf("%w: searchQueries is not an array", ErrCorrupt))
	}

	snap := model.Snapshot{Version: *r.Version}
	if err := json.Unmarshal(r.PageViews, &snap.PageViews); err != nil {
		return corrupt(fmt.Errorf("%w: pageViews: %v", ErrCorrupt, err))
	}
	if err := json.Unmarshal(r.SearchQueries, &snap.SearchQueries); err != nil {
		return corrupt(fmt.Errorf("%w: searchQueries: %v", ErrCorrupt, err))
	}
	if err := Validate(snap); err != nil {
		return corrupt(err)
	}
	return snap, StatusValid, nil
}

func corrupt(err error) (model.Snapshot, Status, error) {
	return model.Empty(), StatusCorrupt, err
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// Validate checks record-level invariants of a decoded snapshot.
func Validate(snap model.Snapshot) error {
	seen := make(map[string]bool, len(snap.PageViews))
	for i, pv := range snap.PageViews {
		if pv.Path == "" {
			return fmt.Errorf("%w: pageViews[%d]: empty path", ErrCorrupt, i)
		}
		if pv.ViewCount < 1 {
			return fmt.Errorf("%w: pageViews[%d]: viewCount %d", ErrCorrupt, i, pv.ViewCount)
		}
		if seen[pv.Path] {
			return fmt.Errorf("%w: pageViews[%d]: duplicate path %q", ErrCorrupt, i, pv.Path)
		}
		seen[pv.Path] = true
	}
	for i, sq := range snap.SearchQueries {
		if sq.Query == "" {
			return fmt.Errorf("%w: searchQueries[%d]: empty query", ErrCorrupt, i)
		}
		if sq.ResultCount < 0 {
			return fmt.Errorf("%w: searchQueries[%d]: resultCount %d", ErrCorrupt, i, sq.ResultCount)
		}
		if sq.HasResults != (sq.ResultCount > 0) {
			return fmt.Errorf("%w: searchQueries[%d]: hasResults disagrees with resultCount", ErrCorrupt, i)
		}
	}
	return nil
}

// Encode serializes a snapshot in the persisted layout. Nil collections are
// written as empty arrays so the blob always decodes again.
func Encode(snap model.Snapshot) ([]byte, error) {
	if snap.PageViews == nil {
		snap.PageViews = []model.PageView{}
	}
	if snap.SearchQueries == nil {
		snap.SearchQueries = []model.SearchQuery{}
	}
	if snap.Version == "" {
		snap.Version = model.SchemaVersion
	}
	return json.Marshal(snap)
}
