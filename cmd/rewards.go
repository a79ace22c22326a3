package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/domain"
)

// rewardsCmd represents the rewards command
var rewardsCmd = &cobra.Command{
	Use:     "rewards",
	Aliases: []string{"collection"},
	Short:   "Show today's level, your streak and collected materials",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		data, err := app.rewards.DailyRewardData(ctx)
		if err != nil {
			return fmt.Errorf("failed to get rewards: %w", err)
		}
		level := domain.DailyLevelInfo(data.TodayLevel)

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"today_level":      data.TodayLevel,
				"level_title":      level.Title,
				"next_level_hours": level.NextLevelHours,
				"today_hours":      data.TodayHoursStudied,
				"today_sessions":   data.TodaySessionsCompleted,
				"current_streak":   data.CurrentStreak,
				"longest_streak":   data.LongestStreak,
				"materials":        data.MaterialCollection,
				"materials_total":  data.MaterialCollection.Total(),
			})
		}

		out := cmd.OutOrStdout()
		levelStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(level.Color))

		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s %s\n", level.Emoji, levelStyle.Render(fmt.Sprintf("Level %d: %s", level.Level, level.Title)))
		fmt.Fprintf(out, "  %s studied today in %d sessions", formatHours(data.TodayHoursStudied), data.TodaySessionsCompleted)
		if level.NextLevelHours != nil {
			fmt.Fprintf(out, ", next level at %s", formatHours(*level.NextLevelHours))
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  🔥 Streak: %s (best %d)\n\n",
			valueStyle.Render(fmt.Sprintf("%d days", data.CurrentStreak)), data.LongestStreak)

		fmt.Fprintf(out, "  %s\n", titleStyle.Render(fmt.Sprintf("Collection (%d)", data.MaterialCollection.Total())))
		fmt.Fprintf(out, "  %s\n", dimStyle.Render(strings.Repeat("─", 40)))
		if data.MaterialCollection.Total() == 0 {
			fmt.Fprintf(out, "  %s\n\n", dimStyle.Render("Complete a session to earn your first material."))
			return nil
		}
		for _, tier := range domain.Materials {
			count := data.MaterialCollection[tier.Key]
			if count == 0 {
				continue
			}
			name := lipgloss.NewStyle().Foreground(lipgloss.Color(tier.Color)).Render(fmt.Sprintf("%-12s", tier.Name))
			fmt.Fprintf(out, "  %s %s x%d  %s\n", tier.Emoji, name, count,
				dimStyle.Render(fmt.Sprintf("%s to %s sessions", formatHours(tier.MinHours), formatHours(tier.MaxHours))))
		}
		fmt.Fprintln(out)
		return nil
	},
}
