package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/rcliao/site-analytics/internal/config"
	"github.com/rcliao/site-analytics/internal/dashboard"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the usage analytics dashboard",
		Run:   runDashboard,
	}

	cmd.Flags().Int("top", 0, "Top pages to show (default from config)")
	cmd.Flags().Int("recent", 0, "Recent searches to show (default from config)")
	cmd.Flags().Int("zero", 0, "Zero-result searches to show (default from config)")
	cmd.Flags().BoolP("watch", "w", false, "Redraw whenever the stored data changes")

	RootCmd.AddCommand(cmd)
}

func runDashboard(cmd *cobra.Command, args []string) {
	watch, _ := cmd.Flags().GetBool("watch")

	t, cfg, _ := openTracker(true)
	defer closeTracker(t)

	lim := dashboard.Limits{
		TopPages:          cfg.Dashboard.TopPages,
		RecentSearches:    cfg.Dashboard.RecentSearches,
		ZeroResultQueries: cfg.Dashboard.ZeroResultQueries,
	}
	if v, _ := cmd.Flags().GetInt("top"); v > 0 {
		lim.TopPages = v
	}
	if v, _ := cmd.Flags().GetInt("recent"); v > 0 {
		lim.RecentSearches = v
	}
	if v, _ := cmd.Flags().GetInt("zero"); v > 0 {
		lim.ZeroResultQueries = v
	}

	out := cmd.OutOrStdout()
	draw := func() {
		v := dashboard.Collect(cmd.Context(), t, lim, time.Now())
		if err := dashboard.Render(out, v); err != nil {
			exitErr("render", err)
		}
	}
	draw()
	if !watch {
		return
	}

	dir, prefix := cfg.Storage.Path, cfg.Storage.Key
	if cfg.Storage.Backend == config.BackendSQLite {
		dir, prefix = filepath.Dir(cfg.Storage.Path), filepath.Base(cfg.Storage.Path)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	err := dashboard.Watch(ctx, dir, prefix, 200*time.Millisecond, func() {
		fmt.Fprint(out, "\033[H\033[2J")
		draw()
	})
	if err != nil {
		exitErr("watch", err)
	}
}
