package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xvierd/studyflow/internal/domain"
)

var deleteForce bool

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session from history",
	Long: `Delete a session by its ID or by the ID prefix shown in "studyflow history".
Deleting the active session ends it. This cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		session, err := findSession(ctx, args[0])
		if err != nil {
			return err
		}

		if !deleteForce && !jsonOutput {
			prompt := fmt.Sprintf("Are you sure you want to delete %q from %s? [y/N]: ",
				session.Name, session.StartTime.In(app.stats.Location()).Format("2006-01-02"))
			if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt, "y") {
				fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled.")
				return nil
			}
		}

		if err := app.sessions.DeleteSession(ctx, session.ID); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return fmt.Errorf("session not found: %s", args[0])
			}
			return fmt.Errorf("failed to delete session: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"deleted":    true,
				"session_id": session.ID,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑  Session %q deleted.\n", session.Name)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

// findSession resolves a full session ID or a unique prefix of one.
func findSession(ctx context.Context, idOrPrefix string) (domain.Session, error) {
	sessions, err := app.stats.History(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to load history: %w", err)
	}

	var matches []domain.Session
	for _, s := range sessions {
		if s.ID == idOrPrefix {
			return s, nil
		}
		if strings.HasPrefix(s.ID, idOrPrefix) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Session{}, fmt.Errorf("session not found: %s", idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return domain.Session{}, fmt.Errorf("%q matches %d sessions, use more of the ID", idOrPrefix, len(matches))
	}
}
