// Package dashboard renders the usage analytics dashboard as text.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/rcliao/site-analytics/internal/analytics"
	"github.com/rcliao/site-analytics/internal/model"
	"github.com/rcliao/site-analytics/internal/store"
)

// Limits sets how many rows each section shows.
type Limits struct {
	TopPages          int
	RecentSearches    int
	ZeroResultQueries int
}

// View is everything the dashboard shows, gathered in one pass.
type View struct {
	TopPages    []model.PageView
	Recent      []model.SearchQuery
	ZeroResult  []model.SearchQuery
	Search      model.SearchStats
	Pages       model.PageStats
	Store       store.Info
	RefreshedAt time.Time
}

// Collect queries tr for a dashboard view.
func Collect(ctx context.Context, tr *analytics.Tracker, lim Limits, now time.Time) View {
	return View{
		TopPages:    tr.TopPages(ctx, lim.TopPages),
		Recent:      tr.RecentSearches(ctx, lim.RecentSearches),
		ZeroResult:  tr.ZeroResultQueries(ctx, lim.ZeroResultQueries),
		Search:      tr.SearchStats(ctx),
		Pages:       tr.PageStats(ctx),
		Store:       tr.Store().Stats(ctx),
		RefreshedAt: now,
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

// Render writes v to w. Relative ages are computed against v.RefreshedAt.
func Render(w io.Writer, v View) error {
	var b strings.Builder
	now := v.RefreshedAt

	b.WriteString(titleStyle.Render("Usage Analytics Dashboard") + "\n")
	b.WriteString(mutedStyle.Render("Analytics stored locally on this device") + "\n")
	fmt.Fprintf(&b, "Last updated: %s\n", now.Format(time.DateTime))
	fmt.Fprintf(&b, "Store: %s %s (%s)\n", v.Store.Backend, v.Store.Status, humanize.Bytes(uint64(v.Store.BlobBytes)))

	b.WriteString(sectionStyle.Render("Search Statistics") + "\n")
	stats := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Total Searches", "Unique Queries", "Zero-Result Searches", "Avg Results per Search").
		Row(
			humanize.Comma(int64(v.Search.TotalSearches)),
			humanize.Comma(int64(v.Search.UniqueQueries)),
			humanize.Comma(int64(v.Search.ZeroResultCount)),
			strconv.FormatFloat(v.Search.AverageResultCount, 'f', 1, 64),
		)
	b.WriteString(stats.Render() + "\n")

	b.WriteString(sectionStyle.Render("Top Pages") + "\n")
	if len(v.TopPages) == 0 {
		b.WriteString("No page views recorded yet\n")
	} else {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Rank", "Page Path", "View Count", "Last Viewed")
		for i, pv := range v.TopPages {
			t.Row(
				strconv.Itoa(i+1),
				pv.Path,
				humanize.Comma(int64(pv.ViewCount)),
				humanize.RelTime(pv.LastSeen(), now, "ago", "from now"),
			)
		}
		b.WriteString(t.Render() + "\n")
		fmt.Fprintf(&b, "%s pages, %s views\n",
			humanize.Comma(int64(v.Pages.TotalPages)), humanize.Comma(int64(v.Pages.TotalViews)))
	}

	b.WriteString(sectionStyle.Render("Recent Searches") + "\n")
	if len(v.Recent) == 0 {
		b.WriteString("No searches recorded yet\n")
	} else {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Query", "Results", "Timestamp")
		for _, q := range v.Recent {
			results := strconv.Itoa(q.ResultCount)
			if !q.HasResults {
				results = "0 (No Results)"
			}
			t.Row(q.Query, results, humanize.RelTime(q.OccurredAt(), now, "ago", "from now"))
		}
		b.WriteString(t.Render() + "\n")
	}

	b.WriteString(sectionStyle.Render("Zero-Result Searches") + "\n")
	b.WriteString(mutedStyle.Render("These queries returned no results. Consider adding content or improving search for these terms.") + "\n")
	if len(v.ZeroResult) == 0 {
		b.WriteString("No zero-result searches recorded\n")
	} else {
		for _, q := range v.ZeroResult {
			fmt.Fprintf(&b, "  %s  %s\n", q.Query, mutedStyle.Render(humanize.RelTime(q.OccurredAt(), now, "ago", "from now")))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
