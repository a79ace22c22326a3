package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/domain"
	"github.com/xvierd/studyflow/internal/services"
)

// completeCmd represents the complete command
var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Count a finished pomodoro",
	Long: `Count one finished pomodoro on the active session, for when you studied
without the timer. Reaching the target completes the session and earns a
material.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		session, err := app.sessions.CompletePomodoro(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNoActiveSession) {
				return errNoSession
			}
			return fmt.Errorf("failed to complete pomodoro: %w", err)
		}
		var award *services.AwardResult
		if session.Status == domain.SessionStatusCompleted {
			award = awaitAward(ctx, session.ID)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			data := sessionJSON(session)
			if award != nil && award.Err == nil {
				data["material"] = string(award.Material)
			}
			return printJSON(out, data)
		}

		if session.Status != domain.SessionStatusCompleted {
			fmt.Fprintf(out, "🍅 Pomodoro %d of %d done. %s left.\n",
				session.PomodorosCompleted, session.TotalPomodoros,
				formatHours(float64(session.TotalPomodoros-session.PomodorosCompleted)*domain.PomodoroMinutes/60))
			return nil
		}

		fmt.Fprintln(out, session.Reward)
		printAward(out, award)
		return nil
	},
}

// awaitAward waits for the background material award of a completed
// session. It returns nil when no award ran for it.
func awaitAward(ctx context.Context, sessionID string) *services.AwardResult {
	result, err := app.sessions.AwardFor(ctx, sessionID)
	if err != nil {
		app.logger.Warn("no material award", "session", sessionID, "error", err)
		return nil
	}
	return &result
}

func printAward(out io.Writer, award *services.AwardResult) {
	switch {
	case award == nil:
	case award.Err != nil:
		fmt.Fprintf(out, "   The material could not be saved: %v\n", award.Err)
	default:
		tier := domain.MaterialByKey(award.Material)
		fmt.Fprintf(out, "   %s %s added to your collection\n", tier.Emoji, tier.Name)
	}
}
