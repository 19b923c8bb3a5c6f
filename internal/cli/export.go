package cli

import (
	"fmt"

	"github.com/rcliao/site-analytics/internal/analytics"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export analytics data as JSON",
		Long: "Write all stored analytics to analytics-<id>.json in the output directory. " +
			"The id is time-ordered. Use -o - to print the JSON instead.",
		Run: runExport,
	}

	cmd.Flags().StringP("out", "o", ".", "Output directory, or - for stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	out, _ := cmd.Flags().GetString("out")

	t, _, err := openTracker(false)
	if err != nil {
		exitErr("Failed to export analytics data", err)
	}
	defer closeTracker(t)

	if out == "-" {
		data, err := t.Export(cmd.Context())
		if err != nil {
			exitErr("Failed to export analytics data", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), data)
		return
	}

	path, err := t.WriteExport(cmd.Context(), out)
	if err != nil {
		exitErr("Failed to export analytics data", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"file":%q,"type":%q}`+"\n", path, analytics.ExportMIMEType)
}
