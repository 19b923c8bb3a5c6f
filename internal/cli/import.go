package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Restore analytics data from an export",
		Long:  "Replace the stored analytics with an export (file argument or stdin). Expects the format produced by export.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		exitErr("read input", err)
	}

	t, _, err := openTracker(false)
	if err != nil {
		exitErr("open store", err)
	}
	defer closeTracker(t)

	snap, err := t.Import(cmd.Context(), data)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"page_views":%d,"search_queries":%d}`+"\n",
		len(snap.PageViews), len(snap.SearchQueries))
}
