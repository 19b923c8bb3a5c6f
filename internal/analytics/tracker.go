// Package analytics records page views and search queries into a bounded
// local store and answers aggregate queries over them.
//
// Tracking never fails from the caller's point of view: storage problems are
// logged at debug level and the event is dropped. Queries over unreadable
// storage return empty results.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rcliao/site-analytics/internal/model"
	"github.com/rcliao/site-analytics/internal/store"
)

const (
	// DefaultTopPages is the TopPages limit used for limit <= 0.
	DefaultTopPages = 10
	// DefaultQueryLimit is the RecentSearches and ZeroResultQueries limit
	// used for limit <= 0.
	DefaultQueryLimit = 20
)

// Options configures a Tracker.
type Options struct {
	// Now is the clock used to timestamp events. Defaults to time.Now.
	Now func() time.Time
	// Logger receives debug logs. Defaults to discarding.
	Logger *slog.Logger
}

// Tracker is the tracking and query surface used by the UI. It owns the
// store accessor; every call is one complete load, modify, save cycle.
type Tracker struct {
	mu     sync.Mutex
	store  *store.Accessor
	now    func() time.Time
	logger *slog.Logger
}

// New returns a Tracker over acc.
func New(acc *store.Accessor, opts Options) *Tracker {
	t := &Tracker{store: acc, now: opts.Now, logger: opts.Logger}
	if t.now == nil {
		t.now = time.Now
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	t.logger = t.logger.With(slog.String("component", "tracker"))
	return t
}

// Store returns the underlying accessor.
func (t *Tracker) Store() *store.Accessor {
	return t.store
}

// TrackPageView counts a visit to path. An empty path is ignored.
func (t *Tracker) TrackPageView(ctx context.Context, path string) {
	if path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.store.Load(ctx)
	if recordPageView(&snap, path, t.now().UnixMilli()) {
		t.store.Save(ctx, snap)
		t.logger.Debug("page view recorded", slog.Int("pages", len(snap.PageViews)))
	}
}

// TrackSearchQuery records one search attempt. The query is normalized
// first; a query that is blank after normalization is ignored.
func (t *Tracker) TrackSearchQuery(ctx context.Context, query string, resultCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.store.Load(ctx)
	if recordSearchQuery(&snap, query, resultCount, t.now().UnixMilli()) {
		t.store.Save(ctx, snap)
		t.logger.Debug("search recorded",
			slog.Int("results", resultCount),
			slog.Int("searches", len(snap.SearchQueries)))
	}
}

func (t *Tracker) load(ctx context.Context) model.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Load(ctx)
}

// TopPages returns the most viewed pages. limit <= 0 means DefaultTopPages.
func (t *Tracker) TopPages(ctx context.Context, limit int) []model.PageView {
	if limit <= 0 {
		limit = DefaultTopPages
	}
	return topPages(t.load(ctx).PageViews, limit)
}

// ZeroResultQueries returns the most recent searches that found nothing.
// limit <= 0 means DefaultQueryLimit.
func (t *Tracker) ZeroResultQueries(ctx context.Context, limit int) []model.SearchQuery {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	return zeroResultQueries(t.load(ctx).SearchQueries, limit)
}

// RecentSearches returns searches newest first. limit <= 0 means
// DefaultQueryLimit.
func (t *Tracker) RecentSearches(ctx context.Context, limit int) []model.SearchQuery {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	return recentSearches(t.load(ctx).SearchQueries, limit)
}

// SearchStats summarizes all stored searches.
func (t *Tracker) SearchStats(ctx context.Context) model.SearchStats {
	return searchStats(t.load(ctx).SearchQueries)
}

// PageStats summarizes all stored page views.
func (t *Tracker) PageStats(ctx context.Context) model.PageStats {
	return pageStats(t.load(ctx).PageViews)
}

// Clear deletes all analytics data.
func (t *Tracker) Clear(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.store.Clear(ctx)
	t.logger.Debug("analytics cleared")
}

// Import replaces the stored data with an exported snapshot, trimmed to the
// store bounds. Unlike tracking, failures are returned.
func (t *Tracker) Import(ctx context.Context, data []byte) (model.Snapshot, error) {
	snap, status, err := store.Decode(data)
	switch {
	case status == store.StatusAbsent:
		return model.Snapshot{}, fmt.Errorf("%w: empty input", store.ErrCorrupt)
	case err != nil:
		return model.Snapshot{}, err
	}
	snap.PageViews = evictPageViews(snap.PageViews, model.MaxPageViews)
	snap.SearchQueries = evictSearchQueries(snap.SearchQueries, model.MaxSearchQueries)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.Put(ctx, snap); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}
