package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/config"
	"github.com/xvierd/studyflow/internal/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit timer and session settings",
	Long: `Interactively configure pomodoro and break durations, break auto-start,
session defaults, notifications and the timezone used for daily stats.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()
		cfg := app.config

		if jsonOutput {
			return printJSON(out, cfg)
		}

		printConfig(out, cfg)
		fmt.Fprintln(out, "  What would you like to change?")
		fmt.Fprintln(out, "    [p] Pomodoro and break durations")
		fmt.Fprintln(out, "    [a] Toggle break auto-start")
		fmt.Fprintln(out, "    [s] Session defaults")
		fmt.Fprintln(out, "    [n] Notifications")
		fmt.Fprintln(out, "    [t] Timezone")
		fmt.Fprintln(out, "    [q] Quit without saving")
		fmt.Fprint(out, "  Choose: ")

		choice := readLine(reader)
		switch choice {
		case "p":
			return editDurations(reader, out, cfg)
		case "a":
			cfg.Pomodoro.AutoStartBreak = !cfg.Pomodoro.AutoStartBreak
			return saveConfig(out, cfg, fmt.Sprintf("break auto-start %s", onOff(cfg.Pomodoro.AutoStartBreak)))
		case "s":
			return editSessionDefaults(reader, out, cfg)
		case "n":
			return editNotifications(reader, out, cfg)
		case "t":
			return editTimezone(reader, out, cfg)
		case "q", "":
			fmt.Fprintln(out, "  No changes made.")
			return nil
		default:
			return fmt.Errorf("invalid choice %q", choice)
		}
	},
}

func printConfig(out io.Writer, cfg *config.Config) {
	tz := cfg.Stats.Timezone
	if tz == "" {
		tz = "system (" + time.Local.String() + ")"
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Current configuration:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "    Pomodoro:              %s\n", formatMinutes(time.Duration(cfg.Pomodoro.FocusDuration)))
	fmt.Fprintf(out, "    Short break:           %s\n", formatMinutes(time.Duration(cfg.Pomodoro.ShortBreak)))
	fmt.Fprintf(out, "    Long break:            %s\n", formatMinutes(time.Duration(cfg.Pomodoro.LongBreak)))
	fmt.Fprintf(out, "    Pomodoros before long: %d\n", cfg.Pomodoro.SessionsBeforeLong)
	fmt.Fprintf(out, "    Break auto-start:      %s\n", onOff(cfg.Pomodoro.AutoStartBreak))
	fmt.Fprintf(out, "    Default session:       %q, %s\n", cfg.Session.DefaultName, formatHours(cfg.Session.DefaultTargetHours))
	fmt.Fprintf(out, "    Notifications:         %s\n", notificationLabel(cfg.Notifications))
	fmt.Fprintf(out, "    Timezone:              %s\n", tz)
	fmt.Fprintln(out)
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(strings.ToLower(input))
}

// promptDuration asks for a duration, keeping current on empty input.
func promptDuration(reader *bufio.Reader, out io.Writer, label string, current time.Duration) (time.Duration, error) {
	fmt.Fprintf(out, "  %s [%s]: ", label, formatMinutes(current))
	input := readLine(reader)
	if input == "" {
		return current, nil
	}
	parsed, err := time.ParseDuration(input)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", input, err)
	}
	if parsed < time.Minute {
		return 0, fmt.Errorf("%s must be at least 1m", strings.ToLower(label))
	}
	return parsed, nil
}

func editDurations(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	fmt.Fprintln(out, "\n  Editing durations (e.g. 25m, 1h)")

	focus, err := promptDuration(reader, out, "Pomodoro", time.Duration(cfg.Pomodoro.FocusDuration))
	if err != nil {
		return err
	}
	shortBreak, err := promptDuration(reader, out, "Short break", time.Duration(cfg.Pomodoro.ShortBreak))
	if err != nil {
		return err
	}
	longBreak, err := promptDuration(reader, out, "Long break", time.Duration(cfg.Pomodoro.LongBreak))
	if err != nil {
		return err
	}

	sessionsBeforeLong := cfg.Pomodoro.SessionsBeforeLong
	fmt.Fprintf(out, "  Pomodoros before long break [%d]: ", sessionsBeforeLong)
	if input := readLine(reader); input != "" {
		n, err := strconv.Atoi(input)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", input, err)
		}
		if n < 1 {
			return fmt.Errorf("pomodoros before long break must be at least 1")
		}
		sessionsBeforeLong = n
	}

	cfg.Pomodoro.FocusDuration = config.Duration(focus)
	cfg.Pomodoro.ShortBreak = config.Duration(shortBreak)
	cfg.Pomodoro.LongBreak = config.Duration(longBreak)
	cfg.Pomodoro.SessionsBeforeLong = sessionsBeforeLong

	return saveConfig(out, cfg, fmt.Sprintf("pomodoro %s, short break %s, long break %s every %d",
		formatMinutes(focus), formatMinutes(shortBreak), formatMinutes(longBreak), sessionsBeforeLong))
}

func editSessionDefaults(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	fmt.Fprintf(out, "\n  Default session name [%s]: ", cfg.Session.DefaultName)
	input, _ := reader.ReadString('\n')
	if name := strings.TrimSpace(input); name != "" {
		if len([]rune(name)) > domain.MaxSessionNameLength {
			return fmt.Errorf("name too long (max %d characters)", domain.MaxSessionNameLength)
		}
		cfg.Session.DefaultName = name
	}

	fmt.Fprintf(out, "  Default target hours [%g]: ", cfg.Session.DefaultTargetHours)
	if input := readLine(reader); input != "" {
		h, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", input, err)
		}
		if h < domain.MinTargetHours || h > domain.MaxTargetHours {
			return fmt.Errorf("target hours must be between %v and %v", domain.MinTargetHours, domain.MaxTargetHours)
		}
		cfg.Session.DefaultTargetHours = h
	}

	return saveConfig(out, cfg, fmt.Sprintf("sessions default to %q for %s",
		cfg.Session.DefaultName, formatHours(cfg.Session.DefaultTargetHours)))
}

func editNotifications(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	fmt.Fprintf(out, "\n  Current notifications: %s\n\n", notificationLabel(cfg.Notifications))
	fmt.Fprintln(out, "    [1] Off")
	fmt.Fprintln(out, "    [2] On (visual only)")
	fmt.Fprintln(out, "    [3] On (with sound)")
	fmt.Fprint(out, "  Choose: ")

	switch readLine(reader) {
	case "1":
		cfg.Notifications.Enabled = false
		cfg.Notifications.Sound = false
	case "2":
		cfg.Notifications.Enabled = true
		cfg.Notifications.Sound = false
	case "3":
		cfg.Notifications.Enabled = true
		cfg.Notifications.Sound = true
	default:
		fmt.Fprintln(out, "  No changes made.")
		return nil
	}

	return saveConfig(out, cfg, "notifications "+notificationLabel(cfg.Notifications))
}

func editTimezone(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	fmt.Fprint(out, "\n  IANA timezone, e.g. Europe/Madrid (empty for system, \"-\" to keep): ")
	input, _ := reader.ReadString('\n')
	tz := strings.TrimSpace(input)
	if tz == "-" {
		fmt.Fprintln(out, "  No changes made.")
		return nil
	}
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("unknown timezone %q: %w", tz, err)
		}
	}
	cfg.Stats.Timezone = tz

	label := tz
	if label == "" {
		label = "system"
	}
	return saveConfig(out, cfg, "timezone "+label)
}

func saveConfig(out io.Writer, cfg *config.Config, summary string) error {
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(out, "\n  Saved: %s\n", summary)
	return nil
}

func notificationLabel(n config.NotificationConfig) string {
	switch {
	case !n.Enabled:
		return "off"
	case n.Sound:
		return "on (with sound)"
	default:
		return "on"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
