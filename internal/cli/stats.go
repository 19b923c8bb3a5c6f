package cli

import (
	"github.com/rcliao/site-analytics/internal/model"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show search and page view statistics",
		Run:   runStats,
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show where analytics are stored and whether the stored data is valid",
		Run:   runStatus,
	}

	RootCmd.AddCommand(cmd, status)
}

func runStats(cmd *cobra.Command, args []string) {
	t, _, _ := openTracker(true)
	defer closeTracker(t)

	printJSON(cmd, struct {
		Search model.SearchStats `json:"search"`
		Pages  model.PageStats   `json:"pages"`
	}{
		Search: t.SearchStats(cmd.Context()),
		Pages:  t.PageStats(cmd.Context()),
	})
}

func runStatus(cmd *cobra.Command, args []string) {
	t, _, err := openTracker(false)
	if err != nil {
		exitErr("open store", err)
	}
	defer closeTracker(t)

	printJSON(cmd, t.Store().Stats(cmd.Context()))
}
