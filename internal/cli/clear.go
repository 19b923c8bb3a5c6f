package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all analytics data",
		Run:   runClear,
	}

	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		fmt.Fprint(cmd.ErrOrStderr(), "Are you sure you want to clear all analytics data? This cannot be undone. [y/N] ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), `{"ok":false,"cleared":false}`)
			return
		}
	}

	t, _, _ := openTracker(true)
	defer closeTracker(t)

	t.Clear(cmd.Context())

	fmt.Fprintln(cmd.OutOrStdout(), `{"ok":true,"cleared":true}`)
}
