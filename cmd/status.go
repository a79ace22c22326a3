package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/domain"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long:  `Display the active study session and today's totals.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	active, err := app.sessions.ActiveSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to get active session: %w", err)
	}
	today, err := todayStats(ctx)
	if err != nil {
		return err
	}
	level := domain.DailyLevelInfo(domain.DailyLevelFor(today.Hours()))

	if jsonOutput {
		result := map[string]interface{}{
			"active_session": nil,
			"today":          today,
			"level":          level.Level,
			"level_title":    level.Title,
		}
		if active != nil {
			result["active_session"] = sessionJSON(active)
		}
		return printJSON(cmd.OutOrStdout(), result)
	}

	out := cmd.OutOrStdout()
	if active != nil {
		printActiveSession(out, active)
	} else {
		fmt.Fprintln(out, "No active study session.")
		fmt.Fprintln(out, dimStyle.Render(`Start one with "studyflow start <name> --hours 2".`))
	}

	fmt.Fprintf(out, "\n📊 Today\n")
	fmt.Fprintf(out, "   Studied:   %s\n", valueStyle.Render(formatHours(today.Hours())))
	fmt.Fprintf(out, "   Pomodoros: %d\n", today.PomodorosCompleted)
	fmt.Fprintf(out, "   Sessions:  %d completed, %d abandoned\n", today.SessionsCompleted, today.SessionsAbandoned)
	fmt.Fprintf(out, "   Level:     %s %s\n", level.Emoji, level.Title)
	return nil
}

func printActiveSession(out io.Writer, s *domain.Session) {
	fmt.Fprintf(out, "%s %s\n", titleStyle.Render("📚"), titleStyle.Render(s.Name))
	fmt.Fprintf(out, "   Phase:     %s\n", s.CurrentPhase)
	fmt.Fprintf(out, "   Pomodoros: %d of %d\n", s.PomodorosCompleted, s.TotalPomodoros)
	fmt.Fprintf(out, "   Progress:  %s %.0f%%\n", barStyle.Render(progressBar(s.Progress(), 20)), s.Progress())
	fmt.Fprintf(out, "   Studied:   %s of %s\n", formatHours(s.StudyHours()), formatHours(s.TargetHours))
	if n := len(s.Notes); n > 0 {
		last := s.Notes[n-1]
		fmt.Fprintf(out, "   Notes:     %d, latest: %s\n", n, dimStyle.Render(truncate(last.Content, 50)))
	}
}

// todayStats returns today's totals. A failure to cache them is only logged.
func todayStats(ctx context.Context) (domain.DayStats, error) {
	today, err := app.stats.Today(ctx)
	if err != nil && today.Date == "" {
		return today, fmt.Errorf("failed to get today's stats: %w", err)
	}
	if err != nil {
		app.logger.Warn("day stats not cached", "date", today.Date, "error", err)
	}
	return today, nil
}
