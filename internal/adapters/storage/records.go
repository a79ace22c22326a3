package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xvierd/studyflow/internal/domain"
	"github.com/xvierd/studyflow/internal/ports"
)

// Records implements ports.Repository by storing JSON documents in a
// ports.RecordStore: the session list, the active-session slot, the stats
// cache and the material collection each live under their own key.
type Records struct {
	store ports.RecordStore
}

// Ensure Records implements ports.Repository.
var _ ports.Repository = (*Records)(nil)

// NewRecords creates typed record access over store.
func NewRecords(store ports.RecordStore) *Records {
	return &Records{store: store}
}

// load decodes the document under key into v. It reports false when the key
// is absent.
func (r *Records) load(ctx context.Context, key string, v any) (bool, error) {
	blob, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return false, &domain.PersistenceError{Op: "get", Key: key, Err: err}
	}
	if !ok || len(blob) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(blob, v); err != nil {
		return false, &domain.PersistenceError{Op: "decode", Key: key, Err: err}
	}
	return true, nil
}

func (r *Records) save(ctx context.Context, key string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Key: key, Err: err}
	}
	if err := r.store.Set(ctx, key, blob); err != nil {
		return &domain.PersistenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// AllSessions returns the session history in insertion order.
func (r *Records) AllSessions(ctx context.Context) ([]domain.Session, error) {
	var sessions []domain.Session
	if _, err := r.load(ctx, ports.KeySessions, &sessions); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return sessions, nil
}

// SaveSession inserts the session or replaces the entry with the same ID.
func (r *Records) SaveSession(ctx context.Context, session domain.Session) error {
	sessions, err := r.AllSessions(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range sessions {
		if sessions[i].ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session)
	}

	return r.save(ctx, ports.KeySessions, sessions)
}

// DeleteSession removes the session with id from the history.
func (r *Records) DeleteSession(ctx context.Context, id string) error {
	sessions, err := r.AllSessions(ctx)
	if err != nil {
		return err
	}

	kept := sessions[:0]
	for _, s := range sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(sessions) {
		return fmt.Errorf("delete %s: %w", id, domain.ErrSessionNotFound)
	}

	return r.save(ctx, ports.KeySessions, kept)
}

// ActiveSession returns the active-session slot, nil when empty.
func (r *Records) ActiveSession(ctx context.Context) (*domain.Session, error) {
	var session domain.Session
	ok, err := r.load(ctx, ports.KeyActiveSession, &session)
	if err != nil || !ok {
		return nil, err
	}
	return &session, nil
}

// SaveActive overwrites the active-session slot.
func (r *Records) SaveActive(ctx context.Context, session domain.Session) error {
	return r.save(ctx, ports.KeyActiveSession, session)
}

// ClearActive empties the active-session slot.
func (r *Records) ClearActive(ctx context.Context) error {
	if err := r.store.Remove(ctx, ports.KeyActiveSession); err != nil {
		return &domain.PersistenceError{Op: "remove", Key: ports.KeyActiveSession, Err: err}
	}
	return nil
}

// AllDayStats returns the cached per-day stats keyed by date.
func (r *Records) AllDayStats(ctx context.Context) (map[string]domain.DayStats, error) {
	stats := map[string]domain.DayStats{}
	if _, err := r.load(ctx, ports.KeyStats, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// SaveDayStats caches one day's stats, replacing any earlier entry.
func (r *Records) SaveDayStats(ctx context.Context, stats domain.DayStats) error {
	all, err := r.AllDayStats(ctx)
	if err != nil {
		return err
	}
	all[stats.Date] = stats
	return r.save(ctx, ports.KeyStats, all)
}

// MaterialCollection returns the awarded materials.
func (r *Records) MaterialCollection(ctx context.Context) (domain.MaterialCollection, error) {
	collection := domain.MaterialCollection{}
	if _, err := r.load(ctx, ports.KeyMaterials, &collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// SaveMaterialCollection overwrites the awarded materials.
func (r *Records) SaveMaterialCollection(ctx context.Context, c domain.MaterialCollection) error {
	return r.save(ctx, ports.KeyMaterials, c)
}

// ClearAll removes history, the active slot and the stats cache.
func (r *Records) ClearAll(ctx context.Context) error {
	if err := r.store.Clear(ctx, ports.KeySessions, ports.KeyActiveSession, ports.KeyStats); err != nil {
		return &domain.PersistenceError{Op: "clear", Key: "all", Err: err}
	}
	return nil
}
