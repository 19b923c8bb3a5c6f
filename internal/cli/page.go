package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "page <path>",
		Short: "Record a page view",
		Long:  "Record a visit to a page path. Repeated visits increment the page's view count.",
		Args:  cobra.ExactArgs(1),
		Run:   runPage,
	}

	RootCmd.AddCommand(cmd)
}

func runPage(cmd *cobra.Command, args []string) {
	t, _, _ := openTracker(true)
	defer closeTracker(t)

	t.TrackPageView(cmd.Context(), args[0])

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"path":%q}`+"\n", args[0])
}
