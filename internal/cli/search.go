package cli

import (
	"fmt"
	"strings"

	"github.com/rcliao/site-analytics/internal/analytics"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Record a search query",
		Long:  "Record one search attempt and how many results it returned. The query is trimmed and lowercased.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("results", "r", 0, "Number of results the search returned")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	results, _ := cmd.Flags().GetInt("results")
	query := strings.Join(args, " ")

	t, _, _ := openTracker(true)
	defer closeTracker(t)

	t.TrackSearchQuery(cmd.Context(), query, results)

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"query":%q,"results":%d}`+"\n", analytics.NormalizeQuery(query), max(results, 0))
}
