package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all sessions and stats",
	Long: `Permanently deletes every session, the active session and the cached stats.
Your material collection is kept. This cannot be undone. Use --force to skip
the confirmation prompt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if !resetForce {
			fmt.Fprintln(out, "This will permanently delete all study sessions and stats.")
			if !confirm(cmd.InOrStdin(), out, "Are you sure? Type 'yes' to confirm: ", "yes") {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}

		if err := app.sessions.ClearAll(context.Background()); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(out, map[string]interface{}{"reset": true})
		}
		fmt.Fprintln(out, "History cleared. Fresh start; your collection is safe.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "Skip confirmation prompt")
}
