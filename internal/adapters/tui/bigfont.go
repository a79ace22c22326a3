package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// clockGlyphs draws digits on a three-row segment grid. Digits are three
// cells wide, the colon one.
var clockGlyphs = map[rune][3]string{
	'0': {"┏━┓", "┃ ┃", "┗━┛"},
	'1': {"  ┓", "  ┃", "  ┻"},
	'2': {"╺━┓", "┏━┛", "┗━╸"},
	'3': {"╺━┓", " ━┫", "╺━┛"},
	'4': {"╻ ╻", "┗━┫", "  ╹"},
	'5': {"┏━╸", "┗━┓", "╺━┛"},
	'6': {"┏━╸", "┣━┓", "┗━┛"},
	'7': {"╺━┓", "  ┃", "  ╹"},
	'8': {"┏━┓", "┣━┫", "┗━┛"},
	'9': {"┏━┓", "┗━┫", "╺━┛"},
	':': {" ", "•", "•"},
}

// minClockWidth is the narrowest terminal that gets the large clock.
const minClockWidth = 30

// renderClock draws a MM:SS string in the segment font, or as one bold line
// on narrow terminals.
func renderClock(clock string, color lipgloss.Color, width int) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(color)
	if width < minClockWidth {
		return style.Render(clock)
	}

	var rows [3]strings.Builder
	for i, ch := range clock {
		glyph, ok := clockGlyphs[ch]
		if !ok {
			continue
		}
		for r := range rows {
			if i > 0 {
				rows[r].WriteByte(' ')
			}
			rows[r].WriteString(glyph[r])
		}
	}

	lines := make([]string, len(rows))
	for r := range rows {
		lines[r] = style.Render(rows[r].String())
	}
	return strings.Join(lines, "\n")
}

// formatClock renders whole seconds as MM:SS. Phases over an hour keep
// counting minutes past 59.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// formatMinutes renders a duration as "25m" or "1h 5m".
func formatMinutes(d time.Duration) string {
	total := int(d.Round(time.Minute).Minutes())
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}
