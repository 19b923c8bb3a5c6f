// Package model defines the persisted analytics data types.
package model

import "time"

const (
	// StorageKey is the slot the analytics blob is persisted under.
	StorageKey = "viyu_analytics"
	// SchemaVersion is the only blob version Load accepts.
	SchemaVersion = "1.0.0"

	// MaxPageViews bounds Snapshot.PageViews.
	MaxPageViews = 1000
	// MaxSearchQueries bounds Snapshot.SearchQueries.
	MaxSearchQueries = 500
)

// PageView is the per-path visit counter. Timestamp is the last visit in
// unix milliseconds.
type PageView struct {
	Path      string `json:"path"`
	Timestamp int64  `json:"timestamp"`
	ViewCount int    `json:"viewCount"`
}

// LastSeen returns Timestamp as a time.Time.
func (p PageView) LastSeen() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// SearchQuery is a single search attempt. Query is already normalized.
type SearchQuery struct {
	Query       string `json:"query"`
	Timestamp   int64  `json:"timestamp"`
	ResultCount int    `json:"resultCount"`
	HasResults  bool   `json:"hasResults"`
}

// OccurredAt returns Timestamp as a time.Time.
func (q SearchQuery) OccurredAt() time.Time {
	return time.UnixMilli(q.Timestamp)
}

// Snapshot is the whole persisted analytics store.
type Snapshot struct {
	PageViews     []PageView    `json:"pageViews"`
	SearchQueries []SearchQuery `json:"searchQueries"`
	Version       string        `json:"version"`
}

// Empty returns a fresh store at the current schema version.
func Empty() Snapshot {
	return Snapshot{
		PageViews:     []PageView{},
		SearchQueries: []SearchQuery{},
		Version:       SchemaVersion,
	}
}

// SearchStats summarizes the stored search queries.
type SearchStats struct {
	TotalSearches      int     `json:"totalSearches"`
	UniqueQueries      int     `json:"uniqueQueries"`
	ZeroResultCount    int     `json:"zeroResultCount"`
	AverageResultCount float64 `json:"averageResultCount"`
}

// PageStats summarizes the stored page views.
type PageStats struct {
	TotalPages int `json:"totalPages"`
	TotalViews int `json:"totalViews"`
}
