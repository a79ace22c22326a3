package ports

import (
	"context"

	"github.com/xvierd/studyflow/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// StudyProvider is everything the MCP tools read and change.
// This is a driven port (implemented by services layer).
type StudyProvider interface {
	ActiveSession(ctx context.Context) (*domain.Session, error)
	StartSession(ctx context.Context, name string, targetHours float64) (*domain.Session, error)
	AddNote(ctx context.Context, content string) (*domain.Session, error)
	CompletePomodoro(ctx context.Context) (*domain.Session, error)

	// MaterialAward waits for the award that followed a completed session and
	// returns the material added to the collection.
	MaterialAward(ctx context.Context, sessionID string) (domain.MaterialKey, error)
	AbandonSession(ctx context.Context) (*domain.Session, error)

	// DayStats returns stats for a local calendar date (YYYY-MM-DD).
	DayStats(ctx context.Context, date string) (domain.DayStats, error)

	// CompareWeeks compares the week containing date with the week before.
	CompareWeeks(ctx context.Context, date string) (domain.WeekComparison, error)

	DailyRewardData(ctx context.Context) (domain.DailyRewardData, error)
}
