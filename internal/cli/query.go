package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	top := &cobra.Command{
		Use:   "top",
		Short: "List the most viewed pages",
		Run:   runTop,
	}
	top.Flags().IntP("limit", "l", 10, "Max results")

	recent := &cobra.Command{
		Use:   "recent",
		Short: "List recent searches, newest first",
		Run:   runRecent,
	}
	recent.Flags().IntP("limit", "l", 20, "Max results")

	zero := &cobra.Command{
		Use:   "zero",
		Short: "List recent searches that returned no results",
		Run:   runZero,
	}
	zero.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(top, recent, zero)
}

func runTop(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	t, _, _ := openTracker(true)
	defer closeTracker(t)

	printJSON(cmd, t.TopPages(cmd.Context(), limit))
}

func runRecent(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	t, _, _ := openTracker(true)
	defer closeTracker(t)

	printJSON(cmd, t.RecentSearches(cmd.Context(), limit))
}

func runZero(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	t, _, _ := openTracker(true)
	defer closeTracker(t)

	printJSON(cmd, t.ZeroResultQueries(cmd.Context(), limit))
}

func printJSON(cmd *cobra.Command, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}
