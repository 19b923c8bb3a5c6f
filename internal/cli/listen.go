package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rcliao/site-analytics/internal/analytics"
	"github.com/rcliao/site-analytics/internal/debounce"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Track searches from a stream of search-box values",
		Long: "Read search-box values from stdin, one per line as \"query<TAB>resultCount\", " +
			"and record a search only after typing pauses. Pending input is recorded at EOF.",
		Args: cobra.NoArgs,
		Run:  runListen,
	}

	cmd.Flags().Int("quiet-ms", 0, "Idle time before a query counts (default from config)")
	cmd.Flags().Int("settle-ms", 0, "Wait for results before counting them (default from config)")

	RootCmd.AddCommand(cmd)
}

func runListen(cmd *cobra.Command, args []string) {
	t, cfg, _ := openTracker(true)
	defer closeTracker(t)

	search := cfg.Search
	if v, _ := cmd.Flags().GetInt("quiet-ms"); v > 0 {
		search.QuietMS = v
	}
	if v, _ := cmd.Flags().GetInt("settle-ms"); v > 0 {
		search.SettleMS = v
	}

	n, err := listen(cmd.Context(), t, os.Stdin, search.Quiet(), search.Settle())
	if err != nil {
		exitErr("read stdin", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"tracked":%d}`+"\n", n)
}

// listen feeds r through a debouncer into t and returns how many searches
// were tracked.
func listen(ctx context.Context, t *analytics.Tracker, r io.Reader, quiet, settle time.Duration) (int, error) {
	var (
		mu      sync.Mutex
		counts  = map[string]int{}
		tracked int
	)
	count := func(q string) int {
		mu.Lock()
		defer mu.Unlock()
		return counts[q]
	}
	track := func(ctx context.Context, q string, n int) {
		t.TrackSearchQuery(ctx, q, n)
		mu.Lock()
		tracked++
		mu.Unlock()
	}

	in := debounce.NewSearchInput(ctx, track, count, quiet, settle)
	defer in.Stop()

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		value, n := parseInputLine(sc.Text())
		mu.Lock()
		counts[strings.TrimSpace(value)] = n
		mu.Unlock()
		in.Input(value)
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	in.Flush()
	// Wait for a search that settled while input was still arriving.
	in.Stop()

	mu.Lock()
	defer mu.Unlock()
	return tracked, nil
}

func parseInputLine(line string) (string, int) {
	value, countStr, ok := strings.Cut(line, "\t")
	if !ok {
		return line, 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(countStr))
	if err != nil || n < 0 {
		n = 0
	}
	return value, n
}
