package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/domain"
)

var statsWeekOf string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a dashboard of weekly study time",
	Long: `Display study hours per day for a Sunday-to-Saturday week, and how the week
compares with the one before it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		at := time.Now()
		if statsWeekOf != "" {
			t, err := app.stats.ParseDate(statsWeekOf)
			if err != nil {
				return err
			}
			at = t
		}
		start := app.stats.StartOfWeek(at)

		week, err := app.stats.WeekSummary(ctx, start)
		if err != nil {
			return fmt.Errorf("failed to get week stats: %w", err)
		}
		cmp, err := app.stats.CompareWeeks(ctx, start)
		if err != nil {
			return fmt.Errorf("failed to compare weeks: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"week":       week,
				"comparison": cmp,
			})
		}

		fmt.Fprintln(cmd.OutOrStdout())
		renderDashboard(cmd.OutOrStdout(), week, cmp)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsWeekOf, "week-of", "w", "", "Any date in the week to show, YYYY-MM-DD (default: this week)")
}

func renderDashboard(out io.Writer, week domain.WeekStats, cmp domain.WeekComparison) {
	label := "Week of " + week.WeekStartDate
	if t, err := time.Parse(domain.DateLayout, week.WeekStartDate); err == nil {
		label = "Week of " + t.Format("Jan 2")
	}
	fmt.Fprintf(out, "  %s\n", titleStyle.Render(label))
	fmt.Fprintf(out, "  %s\n\n", dimStyle.Render(strings.Repeat("─", 40)))

	fmt.Fprintf(out, "  Total: %s studied, %s sessions, %s per day\n\n",
		valueStyle.Render(formatHours(week.TotalHours)),
		valueStyle.Render(fmt.Sprintf("%d", week.TotalSessions)),
		valueStyle.Render(formatHours(week.AveragePerDay)),
	)

	maxHours := 0.0
	for _, d := range week.DailyStats {
		maxHours = max(maxHours, d.Hours())
	}
	maxBarWidth := min(30, max(10, terminalWidth(80)-30))
	for _, d := range week.DailyStats {
		day := d.Date
		if t, err := time.Parse(domain.DateLayout, d.Date); err == nil {
			day = t.Format("Mon 02")
		}
		line := fmt.Sprintf("  %s %s", dimStyle.Render(fmt.Sprintf("%-6s", day)), barStyle.Render(scaledBar(d.Hours(), maxHours, maxBarWidth)))
		if d.Hours() > 0 {
			line += fmt.Sprintf(" %s (%d 🍅)", formatHours(d.Hours()), d.PomodorosCompleted)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "  %s  %dh this week, %dh the week before  %s\n\n",
		dimStyle.Render("vs last week:"),
		cmp.CurrentWeekHours, cmp.LastWeekHours, formatChange(cmp.PercentageChange))
}

// formatChange renders a week-over-week percentage with its direction.
func formatChange(pct float64) string {
	switch {
	case pct > 0:
		return goodStyle.Render(fmt.Sprintf("▲ %.0f%%", pct))
	case pct < 0:
		return badStyle.Render(fmt.Sprintf("▼ %.0f%%", -pct))
	default:
		return dimStyle.Render("no change")
	}
}
