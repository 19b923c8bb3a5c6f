package analytics

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rcliao/site-analytics/internal/model"
)

// NormalizeQuery trims surrounding whitespace and lowercases q. Case and
// whitespace variants of a query collapse to the same text.
func NormalizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	// Casers hold state, so one is built per call.
	return cases.Lower(language.Und).String(q)
}

// recordPageView upserts path into snap with the given timestamp and
// enforces the page view bound. It reports whether snap changed.
func recordPageView(snap *model.Snapshot, path string, now int64) bool {
	if path == "" {
		return false
	}

	found := false
	for i, pv := range snap.PageViews {
		if pv.Path == path {
			snap.PageViews[i] = model.PageView{
				Path:      path,
				Timestamp: now,
				ViewCount: pv.ViewCount + 1,
			}
			found = true
			break
		}
	}
	if !found {
		snap.PageViews = append(snap.PageViews, model.PageView{
			Path:      path,
			Timestamp: now,
			ViewCount: 1,
		})
	}

	snap.PageViews = evictPageViews(snap.PageViews, model.MaxPageViews)
	return true
}

// recordSearchQuery appends a normalized search event to snap and enforces
// the search query bound. It reports whether snap changed.
func recordSearchQuery(snap *model.Snapshot, query string, resultCount int, now int64) bool {
	q := NormalizeQuery(query)
	if q == "" {
		return false
	}
	if resultCount < 0 {
		resultCount = 0
	}

	snap.SearchQueries = append(snap.SearchQueries, model.SearchQuery{
		Query:       q,
		Timestamp:   now,
		ResultCount: resultCount,
		HasResults:  resultCount > 0,
	})

	snap.SearchQueries = evictSearchQueries(snap.SearchQueries, model.MaxSearchQueries)
	return true
}

// evictPageViews keeps the max most recently seen page views. Among equal
// timestamps the earlier stored record is dropped first.
func evictPageViews(views []model.PageView, max int) []model.PageView {
	if len(views) <= max {
		return views
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Timestamp < views[j].Timestamp
	})
	return append([]model.PageView(nil), views[len(views)-max:]...)
}

// evictSearchQueries keeps the max most recent search events.
func evictSearchQueries(queries []model.SearchQuery, max int) []model.SearchQuery {
	if len(queries) <= max {
		return queries
	}
	sort.SliceStable(queries, func(i, j int) bool {
		return queries[i].Timestamp < queries[j].Timestamp
	})
	return append([]model.SearchQuery(nil), queries[len(queries)-max:]...)
}
