package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/domain"
)

// errNoSession is returned by commands that act on the active session.
var errNoSession = errors.New(`no active session; start one with "studyflow start"`)

// noteCmd represents the note command
var noteCmd = &cobra.Command{
	Use:   "note <text>",
	Short: "Add a note to the current pomodoro",
	Long: `Attach a note (3 to 500 characters) to the pomodoro in progress.

Example:
  studyflow note "Reviewed SN1 vs SN2 mechanisms"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		session, err := app.sessions.AddNote(ctx, strings.Join(args, " "))
		if err != nil {
			if errors.Is(err, domain.ErrNoActiveSession) {
				return errNoSession
			}
			return fmt.Errorf("failed to add note: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), sessionJSON(session))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📝 Note added to pomodoro %d of %q\n",
			session.PomodorosCompleted+1, session.Name)
		return nil
	},
}
