// Package store persists node state in SQLite so it survives deep-sleep resets.
package store

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/service"
)

// SQLiteStore holds service run state and the outbound message queue.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path. Use ":memory:" for tests.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "open sqlite database").
			WithContext("path", path).
			Build()
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, errors.WrapError(err, errors.CategoryStorage, "initialize schema").Build()
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS service_state (
		name TEXT PRIMARY KEY,
		last_run INTEGER, -- NULL until the service has run
		has_run INTEGER NOT NULL,
		state TEXT NOT NULL,
		updated INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS message_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		msg_type INTEGER NOT NULL,
		subtype INTEGER NOT NULL,
		payload BLOB NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveService upserts the run state of one service.
func (s *SQLiteStore) SaveService(ctx context.Context, rec service.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastRun sql.NullInt64
	if !rec.LastRun.IsZero() {
		lastRun = sql.NullInt64{Int64: rec.LastRun.UnixNano(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_state (name, last_run, has_run, state, updated) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			last_run = excluded.last_run,
			has_run = excluded.has_run,
			state = excluded.state,
			updated = excluded.updated`,
		rec.Name, lastRun, rec.HasRun, string(rec.State), time.Now().Unix(),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "save service state").
			WithContext("service", rec.Name).
			Build()
	}
	return nil
}

// LoadServices returns every persisted service record ordered by name.
func (s *SQLiteStore) LoadServices(ctx context.Context) ([]service.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT name, last_run, has_run, state FROM service_state ORDER BY name")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "query service state").Build()
	}
	defer rows.Close()

	var out []service.Record
	for rows.Next() {
		var (
			rec     service.Record
			lastRun sql.NullInt64
			state   string
		)
		if err := rows.Scan(&rec.Name, &lastRun, &rec.HasRun, &state); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "scan service state").Build()
		}
		if lastRun.Valid {
			rec.LastRun = time.Unix(0, lastRun.Int64)
		}
		rec.State = service.State(state)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "iterate service state").Build()
	}
	return out, nil
}

// RestoreServices applies persisted records to the matching services.
// Services without a record are left untouched.
func (s *SQLiteStore) RestoreServices(ctx context.Context, svcs ...*service.Service) error {
	recs, err := s.LoadServices(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]service.Record, len(recs))
	for _, r := range recs {
		byName[r.Name] = r
	}
	for _, svc := range svcs {
		if r, ok := byName[svc.Name()]; ok {
			svc.Restore(r)
			slog.Debug("Restored service state", logfields.Service(svc.Name()), logfields.State(string(r.State)))
		}
	}
	return nil
}

// ClearServices forgets all persisted run state.
func (s *SQLiteStore) ClearServices(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM service_state"); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "clear service state").Build()
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
