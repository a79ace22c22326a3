package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/domain"
)

var (
	historySearch string
	historyLimit  int
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"list", "ls"},
	Short:   "List past study sessions",
	Long: `List study sessions, newest first. --search fuzzy-matches session names and
note contents and orders the results by match quality.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sessions, err := app.stats.SearchHistory(ctx, historySearch)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if historyLimit > 0 && len(sessions) > historyLimit {
			sessions = sessions[:historyLimit]
		}

		if jsonOutput {
			result := make([]map[string]interface{}, 0, len(sessions))
			for i := range sessions {
				result = append(result, sessionJSON(&sessions[i]))
			}
			return printJSON(cmd.OutOrStdout(), result)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			if historySearch != "" {
				fmt.Fprintf(out, "No sessions match %q.\n", historySearch)
			} else {
				fmt.Fprintln(out, "No sessions yet.")
			}
			return nil
		}

		nameWidth := min(40, max(12, terminalWidth(80)-50))
		loc := app.stats.Location()
		for _, s := range sessions {
			fmt.Fprintf(out, "%s  %s  %-*s  %2d/%-2d 🍅  %6s  %s\n",
				dimStyle.Render(shortID(s.ID)),
				s.StartTime.In(loc).Format("2006-01-02 15:04"),
				nameWidth, truncate(s.Name, nameWidth),
				s.PomodorosCompleted, s.TotalPomodoros,
				formatHours(s.StudyHours()),
				statusLabel(s.Status))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historySearch, "search", "s", "", "Fuzzy search session names and notes")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of sessions to list (0 for all)")
}

// shortID is the prefix shown in listings. delete accepts it.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusLabel(status domain.SessionStatus) string {
	switch status {
	case domain.SessionStatusCompleted:
		return goodStyle.Render("completed")
	case domain.SessionStatusAbandoned:
		return badStyle.Render("abandoned")
	default:
		return valueStyle.Render("active")
	}
}
