// Package ports defines the interfaces (driven and driving ports)
// for the studyflow application following hexagonal architecture principles.
// These interfaces define the contracts between the domain layer and
// external infrastructure.
package ports

import (
	"context"

	"github.com/xvierd/studyflow/internal/domain"
)

// Record keys. Every persisted blob lives under one of these.
const (
	KeySessions      = "@studyflow:sessions"
	KeyActiveSession = "@studyflow:active_session"
	KeyStats         = "@studyflow:stats"
	KeyMaterials     = "@studyflow:materials"
)

// RecordStore is an asynchronous key-value store of opaque blobs.
// This is a driven port (implemented by adapters).
type RecordStore interface {
	// Get returns the blob stored under key. The bool is false when the key
	// has never been written or was removed.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set overwrites the blob stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Clear removes every key given.
	Clear(ctx context.Context, keys ...string) error

	// Close releases the underlying connection.
	Close() error
}

// Repository is typed access to the persisted study data on top of a
// RecordStore. Failures are reported as *domain.PersistenceError.
// This is a driven port (implemented by adapters).
type Repository interface {
	// AllSessions returns the session history in insertion order.
	AllSessions(ctx context.Context) ([]domain.Session, error)

	// SaveSession inserts the session or replaces the entry with the same ID.
	SaveSession(ctx context.Context, session domain.Session) error

	// DeleteSession removes the session with id from the history.
	DeleteSession(ctx context.Context, id string) error

	// ActiveSession returns the single active-session slot, nil when empty.
	ActiveSession(ctx context.Context) (*domain.Session, error)

	// SaveActive overwrites the active-session slot.
	SaveActive(ctx context.Context, session domain.Session) error

	// ClearActive empties the active-session slot.
	ClearActive(ctx context.Context) error

	// AllDayStats returns the cached per-day stats keyed by date.
	AllDayStats(ctx context.Context) (map[string]domain.DayStats, error)

	// SaveDayStats caches one day's stats.
	SaveDayStats(ctx context.Context, stats domain.DayStats) error

	// MaterialCollection returns the awarded materials.
	MaterialCollection(ctx context.Context) (domain.MaterialCollection, error)

	// SaveMaterialCollection overwrites the awarded materials.
	SaveMaterialCollection(ctx context.Context, c domain.MaterialCollection) error

	// ClearAll removes history, the active slot and the stats cache. The
	// material collection is permanent and survives.
	ClearAll(ctx context.Context) error
}
