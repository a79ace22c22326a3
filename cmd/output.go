package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/xvierd/studyflow/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C6FE0"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C6FE0"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#27ae60"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c"))
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

// sessionJSON is the CLI's JSON shape of a session.
func sessionJSON(session *domain.Session) map[string]interface{} {
	notes := make([]map[string]interface{}, 0, len(session.Notes))
	for _, n := range session.Notes {
		notes = append(notes, map[string]interface{}{
			"pomodoro":  n.PomodoroNumber,
			"content":   n.Content,
			"timestamp": n.Timestamp.Format(timeLayout),
		})
	}
	data := map[string]interface{}{
		"id":                  session.ID,
		"name":                session.Name,
		"status":              string(session.Status),
		"phase":               string(session.CurrentPhase),
		"target_hours":        session.TargetHours,
		"pomodoros_completed": session.PomodorosCompleted,
		"total_pomodoros":     session.TotalPomodoros,
		"progress":            session.Progress(),
		"study_hours":         session.StudyHours(),
		"started_at":          session.StartTime.Format(timeLayout),
		"notes":               notes,
	}
	if session.EndTime != nil {
		data["ended_at"] = session.EndTime.Format(timeLayout)
	}
	if session.Reward != "" {
		data["reward"] = session.Reward
	}
	return data
}

// terminalWidth returns the stdout width, or fallback when stdout is not a
// terminal.
func terminalWidth(fallback int) int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// truncate shortens s to limit runes with an ellipsis.
func truncate(s string, limit int) string {
	r := []rune(s)
	if limit < 2 || len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

func formatHours(h float64) string {
	if h < 1 {
		return fmt.Sprintf("%dm", int(math.Round(h*60)))
	}
	return fmt.Sprintf("%.1fh", h)
}

func formatMinutes(d time.Duration) string {
	m := int(d.Minutes())
	if m >= 60 && m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	if m >= 60 {
		return fmt.Sprintf("%dh %dm", m/60, m%60)
	}
	return fmt.Sprintf("%dm", m)
}

// scaledBar renders value as a bar relative to maxValue.
func scaledBar(value, maxValue float64, width int) string {
	n := 0
	if maxValue > 0 {
		n = int(math.Round(value / maxValue * float64(width)))
	}
	if n < 1 && value > 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// progressBar renders a fixed-width bar for a 0-100 percentage.
func progressBar(percent float64, width int) string {
	filled := int(math.Round(percent / 100 * float64(width)))
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// confirm asks a question on out and reads the answer from in. It accepts
// only the exact answer given.
func confirm(in io.Reader, out io.Writer, prompt, want string) bool {
	fmt.Fprint(out, prompt)
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(input), want)
}
