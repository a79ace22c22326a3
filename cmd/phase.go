package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/domain"
)

// phaseCmd represents the phase command
var phaseCmd = &cobra.Command{
	Use:       "phase <focus|break>",
	Short:     "Switch the active session between focus and break",
	Long:      `Switch the active session's phase and report how long the new phase lasts.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(domain.PhaseFocus), string(domain.PhaseBreak)},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		phase := domain.Phase(args[0])
		if phase != domain.PhaseFocus && phase != domain.PhaseBreak {
			return fmt.Errorf("invalid phase %q: use focus or break", args[0])
		}

		session, err := app.sessions.UpdatePhase(ctx, phase)
		if err != nil {
			if errors.Is(err, domain.ErrNoActiveSession) {
				return errNoSession
			}
			return fmt.Errorf("failed to switch phase: %w", err)
		}
		length, err := app.sessions.CurrentPhaseDuration(ctx)
		if err != nil {
			return fmt.Errorf("failed to get phase length: %w", err)
		}

		if jsonOutput {
			data := sessionJSON(session)
			data["phase_minutes"] = int(length.Minutes())
			return printJSON(cmd.OutOrStdout(), data)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Now in %s for %s\n", session.CurrentPhase, formatMinutes(length))
		return nil
	},
}
