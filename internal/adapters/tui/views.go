package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/xvierd/studyflow/internal/domain"
)

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sections := m.viewHeader()
	switch m.screen {
	case screenNote:
		sections = m.viewNotePrompt(sections)
	case screenCompleted:
		sections = m.viewCompleted(sections)
	case screenAbandoned:
		sections = m.viewAbandoned(sections)
	default:
		sections = m.viewTimer(sections)
	}

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorFocus))
		sections = append(sections, "", errStyle.Render("! "+m.err.Error()))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) viewHeader() []string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	counter := fmt.Sprintf("Pomodoro %d of %d", m.currentPomodoro(), m.session.TotalPomodoros)
	return []string{
		titleStyle.Render("📚 " + m.session.Name),
		helpStyle.Render(counter),
		"",
	}
}

// currentPomodoro is the 1-based pomodoro in progress, capped at the target.
func (m Model) currentPomodoro() int {
	n := m.session.PomodorosCompleted
	if m.session.IsActive() && n < m.session.TotalPomodoros {
		n++
	}
	return n
}

// phaseColor returns the color for the current phase, accounting for pause.
func (m Model) phaseColor() lipgloss.Color {
	if m.countdown.Paused() {
		return lipgloss.Color(m.theme.ColorPaused)
	}
	if m.session.CurrentPhase == domain.PhaseBreak {
		return lipgloss.Color(m.theme.ColorBreak)
	}
	return lipgloss.Color(m.theme.ColorFocus)
}

func (m Model) phaseBar() progress.Model {
	var bar progress.Model
	switch {
	case m.countdown.Paused():
		bar = progress.New(progress.WithSolidFill(m.theme.ColorPaused), progress.WithoutPercentage())
	case m.session.CurrentPhase == domain.PhaseBreak:
		bar = progress.New(progress.WithGradient(m.theme.BreakGradientStart, m.theme.BreakGradientEnd), progress.WithoutPercentage())
	default:
		bar = progress.New(progress.WithGradient(m.theme.FocusGradientStart, m.theme.FocusGradientEnd), progress.WithoutPercentage())
	}
	bar.Width = barWidth(m.width)
	return bar
}

func (m Model) viewTimer(sections []string) []string {
	color := m.phaseColor()
	phaseStyle := lipgloss.NewStyle().Bold(true).Foreground(color)
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	label := "Focus"
	if m.session.CurrentPhase == domain.PhaseBreak {
		label = "Break"
	}
	sections = append(sections,
		phaseStyle.Render(fmt.Sprintf("%s · %s", label, formatMinutes(m.phaseLen))),
		"",
		renderClock(formatClock(m.countdown.Remaining()), color, m.width),
	)

	if m.countdown.Paused() {
		badge := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(m.theme.ColorPaused)).
			Padding(0, 1).
			Render("⏸ PAUSED")
		sections = append(sections, "", badge)
	}

	sections = append(sections, "", m.phaseBar().ViewAs(m.countdown.Progress()))

	studied := time.Duration(m.session.FocusMinutes()) * time.Minute
	sections = append(sections,
		"",
		m.progress.ViewAs(m.session.Progress()/100),
		helpStyle.Render(fmt.Sprintf("%.0f%% of %.2gh target · %s studied",
			m.session.Progress(), m.session.TargetHours, formatMinutes(studied))),
	)

	if m.breakTip != "" && m.session.CurrentPhase == domain.PhaseBreak {
		sections = append(sections, "", helpStyle.Italic(true).Render("💡 "+m.breakTip))
	}
	if m.editingNote {
		sections = append(sections, "", helpStyle.Render("Note: ")+m.noteInput.View())
		sections = append(sections, helpStyle.Render("enter save · esc cancel"))
		return sections
	}
	if m.status != "" {
		sections = append(sections, "", phaseStyle.Render(m.status))
	}

	sections = append(sections, "")
	switch {
	case m.busy:
		sections = append(sections, helpStyle.Render("Saving..."))
	case m.confirmSkip:
		sections = append(sections, helpStyle.Render(fmt.Sprintf("Skip this %s? [s] confirm  [esc] cancel", m.session.CurrentPhase)))
	case m.confirmAbandon:
		sections = append(sections, helpStyle.Render("Abandon the session? Progress stays in history. [a] confirm  [esc] cancel"))
	default:
		pause := "[space] pause"
		switch {
		case !m.countdown.Running():
			pause = "[space] start"
		case m.countdown.Paused():
			pause = "[space] resume"
		}
		sections = append(sections, helpStyle.Render(pause+"  [s]kip  [n]ote  [a]bandon  [q]uit"))
	}
	return sections
}

func (m Model) viewNotePrompt(sections []string) []string {
	statusStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorFocus))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	sections = append(sections,
		statusStyle.Render("🍅 Pomodoro done"),
		m.progress.ViewAs(1.0),
		"",
		helpStyle.Render("Jot down what you covered:"),
		m.noteInput.View(),
		"",
	)
	if m.busy {
		return append(sections, helpStyle.Render("Saving..."))
	}
	return append(sections, helpStyle.Render("enter save and count · esc count without note"))
}

func (m Model) viewCompleted(sections []string) []string {
	statusStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorBreak))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	reward := m.session.Reward
	if reward == "" {
		reward = "Session complete!"
	}
	studied := time.Duration(m.session.FocusMinutes()) * time.Minute
	sections = append(sections,
		statusStyle.Render(reward),
		m.progress.ViewAs(1.0),
		"",
		helpStyle.Render(fmt.Sprintf("%d pomodoros · %s studied", m.session.PomodorosCompleted, formatMinutes(studied))),
		"",
	)

	switch {
	case m.award != nil:
		tier := domain.MaterialByKey(*m.award)
		materialStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(tier.Color))
		sections = append(sections, materialStyle.Render(fmt.Sprintf("%s %s added to your collection", tier.Emoji, tier.Name)))
	case m.awardErr != nil:
		sections = append(sections, helpStyle.Render("Your material could not be saved this time."))
	default:
		tier := domain.MaterialFor(m.session.StudyHours())
		sections = append(sections, helpStyle.Render(fmt.Sprintf("%s Earning %s...", tier.Emoji, tier.Name)))
	}

	return append(sections, "", helpStyle.Render("[q]uit"))
}

func (m Model) viewAbandoned(sections []string) []string {
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorPaused))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	return append(sections,
		statusStyle.Render("Session abandoned"),
		helpStyle.Render(fmt.Sprintf("%d pomodoros kept in history", m.session.PomodorosCompleted)),
		"",
		helpStyle.Render("[q]uit"),
	)
}
