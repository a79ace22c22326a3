// Package cmd provides the CLI commands for the studyflow application.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	dbPath     string
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "studyflow",
	Short: "studyflow - Pomodoro study sessions with rewards",
	Long: `studyflow splits a study target into 25 minute pomodoros with breaks in
between, keeps notes per pomodoro, and tracks daily and weekly study time.

Finishing a session earns a material for your collection, studying every day
builds a streak, and the hours you put in today raise your daily level.

Run without a subcommand to see the active session and today's totals.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeServices()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
	RunE: runStatus,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	// PostRun is skipped when a command fails.
	if cerr := cleanupServices(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (default: ~/.studyflow/studyflow.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("studyflow\nVersion: {{.Version}}\n")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(phaseCmd)
	rootCmd.AddCommand(abandonCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(rewardsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
}
