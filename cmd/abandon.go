package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/domain"
)

var abandonForce bool

// abandonCmd represents the abandon command
var abandonCmd = &cobra.Command{
	Use:   "abandon",
	Short: "Abandon the active session",
	Long: `End the active session without a reward. The session and its notes stay in
your history but add nothing to your study time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		active, err := app.sessions.ActiveSession(ctx)
		if err != nil {
			return err
		}
		if active == nil {
			return errNoSession
		}

		if !abandonForce && !jsonOutput {
			prompt := fmt.Sprintf("Abandon %q at %d of %d pomodoros? [y/N]: ",
				active.Name, active.PomodorosCompleted, active.TotalPomodoros)
			if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt, "y") {
				fmt.Fprintln(cmd.OutOrStdout(), "Kept going.")
				return nil
			}
		}

		session, err := app.sessions.AbandonSession(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNoActiveSession) {
				return errNoSession
			}
			return fmt.Errorf("failed to abandon session: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), sessionJSON(session))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %q abandoned. %d pomodoros kept in history.\n",
			session.Name, session.PomodorosCompleted)
		return nil
	},
}

func init() {
	abandonCmd.Flags().BoolVarP(&abandonForce, "force", "f", false, "Skip confirmation prompt")
}
