package analytics

import (
	"math"
	"sort"

	"github.com/rcliao/site-analytics/internal/model"
)

// topPages orders by view count, most viewed first. Equal counts put the most
// recently viewed page first, then sort by path.
func topPages(views []model.PageView, limit int) []model.PageView {
	out := append([]model.PageView(nil), views...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ViewCount != b.ViewCount {
			return a.ViewCount > b.ViewCount
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp > b.Timestamp
		}
		return a.Path < b.Path
	})
	return truncate(out, limit)
}

// recentSearches orders newest first. Events sharing a timestamp keep the
// later stored one first.
func recentSearches(queries []model.SearchQuery, limit int) []model.SearchQuery {
	out := make([]model.SearchQuery, len(queries))
	for i, q := range queries {
		out[len(queries)-1-i] = q
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return truncate(out, limit)
}

func zeroResultQueries(queries []model.SearchQuery, limit int) []model.SearchQuery {
	var zero []model.SearchQuery
	for _, q := range queries {
		if !q.HasResults {
			zero = append(zero, q)
		}
	}
	return recentSearches(zero, limit)
}

func searchStats(queries []model.SearchQuery) model.SearchStats {
	st := model.SearchStats{TotalSearches: len(queries)}
	if len(queries) == 0 {
		return st
	}

	unique := make(map[string]struct{}, len(queries))
	total := 0
	for _, q := range queries {
		unique[q.Query] = struct{}{}
		if !q.HasResults {
			st.ZeroResultCount++
		}
		total += q.ResultCount
	}
	st.UniqueQueries = len(unique)
	st.AverageResultCount = math.Round(float64(total)/float64(len(queries))*10) / 10
	return st
}

func pageStats(views []model.PageView) model.PageStats {
	st := model.PageStats{TotalPages: len(views)}
	for _, pv := range views {
		st.TotalViews += pv.ViewCount
	}
	return st
}

func truncate[T any](s []T, limit int) []T {
	if s == nil {
		s = []T{}
	}
	if limit >= 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
