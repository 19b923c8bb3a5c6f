package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/site-analytics/internal/model"
	"github.com/rcliao/site-analytics/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestTracker(t *testing.T) (*Tracker, *fakeClock, *store.MemoryBackend) {
	t.Helper()
	clock := &fakeClock{t: time.UnixMilli(1700000000000)}
	mem := store.NewMemoryBackend()
	tr := New(store.NewAccessor(mem, "", nil), Options{Now: clock.Now})
	return tr, clock, mem
}

func TestTrackPageViewRepeated(t *testing.T) {
	ctx := context.Background()
	tr, clock, _ := newTestTracker(t)

	for i := 0; i < 5; i++ {
		tr.TrackPageView(ctx, "/docs/intro")
		clock.Advance(time.Second)
	}

	pages := tr.TopPages(ctx, 0)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page view record, got %d", len(pages))
	}
	if pages[0].ViewCount != 5 {
		t.Errorf("expected viewCount 5, got %d", pages[0].ViewCount)
	}
	if want := clock.Now().Add(-time.Second).UnixMilli(); pages[0].Timestamp != want {
		t.Errorf("expected timestamp of last visit %d, got %d", want, pages[0].Timestamp)
	}
}

func TestTrackPageViewEmptyPath(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	tr.TrackPageView(ctx, "")

	if _, status, _ := tr.Store().Inspect(ctx); status != store.StatusAbsent {
		t.Errorf("empty path must not write, got status %s", status)
	}
}

func TestTrackSearchQueryNormalizes(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	tr.TrackSearchQuery(ctx, "  VLAN  ", 1)

	recent := tr.RecentSearches(ctx, 0)
	if len(recent) != 1 {
		t.Fatalf("expected 1 search, got %d", len(recent))
	}
	if recent[0].Query != "vlan" {
		t.Errorf("expected normalized 'vlan', got %q", recent[0].Query)
	}
	if !recent[0].HasResults || recent[0].ResultCount != 1 {
		t.Errorf("unexpected result fields: %+v", recent[0])
	}
}

func TestTrackSearchQueryBlankAndNegative(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	tr.TrackSearchQuery(ctx, "   ", 4)
	tr.TrackSearchQuery(ctx, "", 4)
	if got := tr.SearchStats(ctx).TotalSearches; got != 0 {
		t.Fatalf("blank queries must be ignored, got %d searches", got)
	}

	tr.TrackSearchQuery(ctx, "poe", -3)
	recent := tr.RecentSearches(ctx, 0)
	if recent[0].ResultCount != 0 || recent[0].HasResults {
		t.Errorf("negative result count should be stored as zero results: %+v", recent[0])
	}
}

func TestSearchesAreAppendOnly(t *testing.T) {
	ctx := context.Background()
	tr, clock, _ := newTestTracker(t)

	tr.TrackSearchQuery(ctx, "VLAN", 2)
	clock.Advance(time.Second)
	tr.TrackSearchQuery(ctx, "vlan ", 0)

	st := tr.SearchStats(ctx)
	if st.TotalSearches != 2 || st.UniqueQueries != 1 {
		t.Errorf("expected 2 searches of 1 unique query, got %+v", st)
	}
}

func TestSearchStats(t *testing.T) {
	ctx := context.Background()
	tr, clock, _ := newTestTracker(t)

	for i, n := range []int{0, 3, 0, 5} {
		tr.TrackSearchQuery(ctx, fmt.Sprintf("q%d", i%3), n)
		clock.Advance(time.Millisecond)
	}

	got := tr.SearchStats(ctx)
	want := model.SearchStats{TotalSearches: 4, UniqueQueries: 3, ZeroResultCount: 2, AverageResultCount: 2.0}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestSearchStatsRounding(t *testing.T) {
	tests := []struct {
		counts []int
		want   float64
	}{
		{nil, 0},
		{[]int{1, 2}, 1.5},
		{[]int{1, 1, 2}, 1.3},
		{[]int{2, 2, 1}, 1.7},
		{[]int{0, 0, 0}, 0},
	}
	for _, tt := range tests {
		var qs []model.SearchQuery
		for _, n := range tt.counts {
			qs = append(qs, model.SearchQuery{Query: "q", ResultCount: n, HasResults: n > 0})
		}
		if got := searchStats(qs).AverageResultCount; got != tt.want {
			t.Errorf("counts %v: expected average %v, got %v", tt.counts, tt.want, got)
		}
	}
}

func TestTopPagesOrdering(t *testing.T) {
	ctx := context.Background()
	tr, clock, _ := newTestTracker(t)

	for path, n := range map[string]int{"/a": 5, "/b": 9, "/c": 2} {
		for i := 0; i < n; i++ {
			tr.TrackPageView(ctx, path)
			clock.Advance(time.Millisecond)
		}
	}

	top := tr.TopPages(ctx, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(top))
	}
	if top[0].Path != "/b" || top[1].Path != "/a" {
		t.Errorf("expected [/b /a], got [%s %s]", top[0].Path, top[1].Path)
	}
}

func TestTopPagesTieBreak(t *testing.T) {
	views := []model.PageView{
		{Path: "/old", Timestamp: 100, ViewCount: 3},
		{Path: "/new", Timestamp: 300, ViewCount: 3},
		{Path: "/b", Timestamp: 200, ViewCount: 3},
		{Path: "/a", Timestamp: 200, ViewCount: 3},
		{Path: "/top", Timestamp: 1, ViewCount: 7},
	}

	got := topPages(views, 10)
	var paths []string
	for _, pv := range got {
		paths = append(paths, pv.Path)
	}
	want := []string{"/top", "/new", "/a", "/b", "/old"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("expected %v, got %v", want, paths)
	}
	if views[0].Path != "/old" {
		t.Error("topPages must not reorder its input")
	}
}

func TestZeroResultQueries(t *testing.T) {
	ctx := context.Background()
	tr, clock, _ := newTestTracker(t)

	tr.TrackSearchQuery(ctx, "vlan", 0)
	clock.Advance(time.Second)
	tr.TrackSearchQuery(ctx, "poe", 3)

	zero := tr.ZeroResultQueries(ctx, 0)
	if len(zero) != 1 {
		t.Fatalf("expected 1 zero-result query, got %d", len(zero))
	}
	if zero[0].Query != "vlan" || zero[0].HasResults {
		t.Errorf("expected the vlan event, got %+v", zero[0])
	}
}

func TestRecentSearchesOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	tr, clock, _ := newTestTracker(t)

	for i := 0; i < 25; i++ {
		tr.TrackSearchQuery(ctx, fmt.Sprintf("q%02d", i), i%2)
		clock.Advance(time.Second)
	}

	recent := tr.RecentSearches(ctx, 0)
	if len(recent) != DefaultQueryLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultQueryLimit, len(recent))
	}
	if recent[0].Query != "q24" || recent[19].Query != "q05" {
		t.Errorf("expected newest first, got %s..%s", recent[0].Query, recent[19].Query)
	}
	for i := 1; i < len(recent); i++ {
		if recent[i-1].Timestamp < recent[i].Timestamp {
			t.Fatalf("not sorted newest first at %d", i)
		}
	}

	if got := tr.RecentSearches(ctx, 3); len(got) != 3 {
		t.Errorf("expected 3, got %d", len(got))
	}
}

func TestRecentSearchesSameTimestamp(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	tr.TrackSearchQuery(ctx, "first", 1)
	tr.TrackSearchQuery(ctx, "second", 1)

	recent := tr.RecentSearches(ctx, 0)
	if recent[0].Query != "second" {
		t.Errorf("later stored event should come first on equal timestamps, got %q", recent[0].Query)
	}
}

func TestPageViewEviction(t *testing.T) {
	ctx := context.Background()
	tr, clock, _ := newTestTracker(t)

	for i := 0; i <= model.MaxPageViews; i++ {
		tr.TrackPageView(ctx, fmt.Sprintf("/p%d", i))
		clock.Advance(time.Millisecond)
	}

	snap := tr.Store().Load(ctx)
	if len(snap.PageViews) != model.MaxPageViews {
		t.Fatalf("expected %d page views, got %d", model.MaxPageViews, len(snap.PageViews))
	}
	for _, pv := range snap.PageViews {
		if pv.Path == "/p0" {
			t.Fatal("oldest page view should have been evicted")
		}
	}
}

func TestPageViewEvictionKeepsRevisited(t *testing.T) {
	ctx := context.Background()
	tr, clock, _ := newTestTracker(t)

	for i := 0; i < model.MaxPageViews; i++ {
		tr.TrackPageView(ctx, fmt.Sprintf("/p%d", i))
		clock.Advance(time.Millisecond)
	}
	// Revisiting /p0 makes /p1 the oldest.
	tr.TrackPageView(ctx, "/p0")
	clock.Advance(time.Millisecond)
	tr.TrackPageView(ctx, "/new")

	paths := map[string]int{}
	for _, pv := range tr.Store().Load(ctx).PageViews {
		paths[pv.Path] = pv.ViewCount
	}
	if _, ok := paths["/p1"]; ok {
		t.Error("expected /p1 to be evicted")
	}
	if paths["/p0"] != 2 || paths["/new"] != 1 {
		t.Errorf("expected /p0 (2 views) and /new to survive, got %d and %d", paths["/p0"], paths["/new"])
	}
}

func TestSearchQueryEviction(t *testing.T) {
	ctx := context.Background()
	tr, clock, _ := newTestTracker(t)

	for i := 0; i < model.MaxSearchQueries+10; i++ {
		tr.TrackSearchQuery(ctx, fmt.Sprintf("q%d", i), 1)
		clock.Advance(time.Millisecond)
	}

	snap := tr.Store().Load(ctx)
	if len(snap.SearchQueries) != model.MaxSearchQueries {
		t.Fatalf("expected %d searches, got %d", model.MaxSearchQueries, len(snap.SearchQueries))
	}
	if snap.SearchQueries[0].Query != "q10" {
		t.Errorf("expected oldest retained to be q10, got %s", snap.SearchQueries[0].Query)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)
	tr.TrackPageView(ctx, "/a")
	tr.TrackSearchQuery(ctx, "vlan", 0)

	tr.Clear(ctx)

	if len(tr.TopPages(ctx, 0)) != 0 || len(tr.RecentSearches(ctx, 0)) != 0 || len(tr.ZeroResultQueries(ctx, 0)) != 0 {
		t.Error("expected empty results after clear")
	}
	if st := tr.SearchStats(ctx); st != (model.SearchStats{}) {
		t.Errorf("expected zero stats after clear, got %+v", st)
	}
}

func TestStorageFailureIsSilent(t *testing.T) {
	ctx := context.Background()
	tr, _, mem := newTestTracker(t)
	tr.TrackPageView(ctx, "/kept")

	mem.Fail(errors.New("storage disabled"))

	tr.TrackPageView(ctx, "/a")
	tr.TrackSearchQuery(ctx, "vlan", 0)
	tr.Clear(ctx)
	if got := tr.TopPages(ctx, 0); len(got) != 0 {
		t.Errorf("expected empty results on read failure, got %+v", got)
	}
	if st := tr.SearchStats(ctx); st != (model.SearchStats{}) {
		t.Errorf("expected zero stats on read failure, got %+v", st)
	}
	if _, err := tr.Export(ctx); err != nil {
		t.Errorf("export of unreadable store should still produce an empty snapshot: %v", err)
	}

	mem.Fail(nil)
	top := tr.TopPages(ctx, 0)
	if len(top) != 1 || top[0].Path != "/kept" {
		t.Errorf("failed operations must leave stored data untouched, got %+v", top)
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)
	tr.TrackPageView(ctx, "/a")
	tr.TrackSearchQuery(ctx, "vlan", 0)

	data, err := tr.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(data, "\n  \"pageViews\": [") {
		t.Errorf("expected two-space indented JSON, got:\n%s", data)
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if !reflect.DeepEqual(snap, tr.Store().Load(ctx)) {
		t.Error("export should match the stored snapshot")
	}
}

func TestExportEmpty(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	data, err := tr.Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"pageViews\": [],\n  \"searchQueries\": [],\n  \"version\": \"1.0.0\"\n}"
	if data != want {
		t.Errorf("expected %q, got %q", want, data)
	}
}

func TestExportFileName(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	name := ExportFileName(at)

	if !strings.HasPrefix(name, "analytics-") || !strings.HasSuffix(name, ".json") {
		t.Fatalf("unexpected name %q", name)
	}
	id, err := ulid.Parse(strings.TrimSuffix(strings.TrimPrefix(name, "analytics-"), ".json"))
	if err != nil {
		t.Fatalf("name does not carry a ULID: %v", err)
	}
	if id.Time() != uint64(at.UnixMilli()) {
		t.Errorf("expected timestamp %d in id, got %d", at.UnixMilli(), id.Time())
	}
	if later := ExportFileName(at.Add(time.Second)); later <= name {
		t.Errorf("expected later export name to sort after %q, got %q", name, later)
	}
}

func TestWriteExport(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)
	tr.TrackPageView(ctx, "/a")

	dir := t.TempDir()
	path, err := tr.WriteExport(ctx, dir)
	if err != nil {
		t.Fatalf("write export: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("expected export in %s, got %s", dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, status, err := store.Decode(data); status != store.StatusValid {
		t.Errorf("export file should be a valid snapshot: %s %v", status, err)
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	src, _, _ := newTestTracker(t)
	src.TrackPageView(ctx, "/a")
	src.TrackPageView(ctx, "/a")
	src.TrackSearchQuery(ctx, "vlan", 0)
	data, _ := src.Export(ctx)

	dst, _, _ := newTestTracker(t)
	dst.TrackPageView(ctx, "/replaced")
	snap, err := dst.Import(ctx, []byte(data))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !reflect.DeepEqual(snap, src.Store().Load(ctx)) {
		t.Errorf("imported snapshot differs: %+v", snap)
	}
	if top := dst.TopPages(ctx, 0); len(top) != 1 || top[0].Path != "/a" || top[0].ViewCount != 2 {
		t.Errorf("expected imported data to replace the store, got %+v", top)
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)
	tr.TrackPageView(ctx, "/kept")

	for _, in := range []string{"", "{", `{"pageViews":[],"searchQueries":[],"version":"0.9"}`} {
		if _, err := tr.Import(ctx, []byte(in)); err == nil {
			t.Errorf("expected error importing %q", in)
		}
	}
	if top := tr.TopPages(ctx, 0); len(top) != 1 {
		t.Error("rejected import must not change the store")
	}
}

func TestImportTrimsToBounds(t *testing.T) {
	snap := model.Empty()
	for i := 0; i < model.MaxSearchQueries+5; i++ {
		snap.SearchQueries = append(snap.SearchQueries, model.SearchQuery{Query: "q", Timestamp: int64(i), ResultCount: 1, HasResults: true})
	}
	data, _ := json.Marshal(snap)

	tr, _, _ := newTestTracker(t)
	got, err := tr.Import(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.SearchQueries) != model.MaxSearchQueries || got.SearchQueries[0].Timestamp != 5 {
		t.Errorf("expected the %d newest searches, got %d starting at %d",
			model.MaxSearchQueries, len(got.SearchQueries), got.SearchQueries[0].Timestamp)
	}
}

func TestConcurrentTracking(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TrackPageView(ctx, "/shared")
		}()
	}
	wg.Wait()

	if top := tr.TopPages(ctx, 0); len(top) != 1 || top[0].ViewCount != 50 {
		t.Errorf("expected 50 views of /shared, got %+v", top)
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := map[string]string{
		"  VLAN  ":        "vlan",
		"PoE Budget":      "poe budget",
		"\tmixed Case\n": "mixed case",
		"   ":             "",
		"ÅNGSTRÖM":        "ångström",
	}
	for in, want := range tests {
		if got := NormalizeQuery(in); got != want {
			t.Errorf("NormalizeQuery(%q) = %q, want %q", in, got, want)
		}
	}
}
