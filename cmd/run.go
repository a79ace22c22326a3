package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/adapters/tui"
	"github.com/xvierd/studyflow/internal/domain"
	"github.com/xvierd/studyflow/internal/services"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:     "run",
	Aliases: []string{"resume"},
	Short:   "Open the timer for the active session",
	Long: `Open the full-screen timer for the active session. Quitting the timer
keeps the session active; run this command again to pick it up.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTimer(cmd)
	},
}

// runTimer hands the terminal to the timer until the user quits, then
// prints where the session ended up.
func runTimer(cmd *cobra.Command) error {
	ctx := setupSignalHandler()

	timer := tui.NewTimer(app.sessions, tui.Options{
		Theme:          &app.config.Theme,
		AutoStartBreak: app.config.Pomodoro.AutoStartBreak,
	})
	timer.SetLogger(app.logger.Named("tui"))

	app.sessions.OnMaterialAwarded(func(r services.AwardResult) {
		timer.NotifyAward(r.Material, r.Err)
	})
	defer app.sessions.OnMaterialAwarded(nil)

	app.notifier.EnableKeepAwake()
	session, err := timer.Run(ctx)
	app.notifier.DisableKeepAwake()
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveSession) {
			return errNoSession
		}
		return err
	}

	out := cmd.OutOrStdout()
	switch session.Status {
	case domain.SessionStatusCompleted:
		fmt.Fprintln(out, session.Reward)
		printAward(out, awaitAward(ctx, session.ID))
	case domain.SessionStatusAbandoned:
		fmt.Fprintf(out, "Session %q abandoned after %d of %d pomodoros.\n",
			session.Name, session.PomodorosCompleted, session.TotalPomodoros)
	default:
		fmt.Fprintf(out, "Session %q paused at %d of %d pomodoros. Run \"studyflow run\" to continue.\n",
			session.Name, session.PomodorosCompleted, session.TotalPomodoros)
	}
	return nil
}
