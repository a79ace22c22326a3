package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/domain"
	"github.com/xvierd/studyflow/internal/services"
)

var (
	startHours  float64
	startDetach bool
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start [name]",
	Short: "Start a study session",
	Long: `Start a new study session and open the timer.

The target is split into pomodoros: every half hour of target is one 25 minute
focus block plus its break. Only one session can be active at a time.

Examples:
  studyflow start "Organic chemistry" --hours 2
  studyflow start --hours 1.5 --detach`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		name := app.config.Session.DefaultName
		if len(args) == 1 {
			name = args[0]
		}
		hours := startHours
		if !cmd.Flags().Changed("hours") {
			hours = app.config.Session.DefaultTargetHours
		}

		session, err := app.sessions.StartSession(ctx, services.StartSessionRequest{
			Name:        name,
			TargetHours: hours,
		})
		if err != nil {
			if errors.Is(err, domain.ErrSessionAlreadyActive) {
				return errors.New(`a session is already active; run "studyflow run" to resume it or "studyflow abandon" to end it`)
			}
			return fmt.Errorf("failed to start session: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), sessionJSON(session))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "📚 Started %q: %d pomodoros toward %s\n",
			session.Name, session.TotalPomodoros, formatHours(session.TargetHours))
		if startDetach {
			fmt.Fprintln(cmd.OutOrStdout(), `   Run "studyflow run" to open the timer.`)
			return nil
		}
		return runTimer(cmd)
	},
}

func init() {
	startCmd.Flags().Float64VarP(&startHours, "hours", "H", 2, "Study target in hours (0.42 to 24, default from config)")
	startCmd.Flags().BoolVarP(&startDetach, "detach", "d", false, "Start without opening the timer")
}
