package togglestore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/preconditions"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS feature_toggles (
	feature TEXT PRIMARY KEY,
	enabled INTEGER NOT NULL
);`

// SQLite persists user toggles in a local SQLite database, so toggle choices
// survive process restarts. Mutations go through this store, which is also
// the observation point for cache invalidation.
type SQLite struct {
	db  *sql.DB
	log *slog.Logger

	mu        sync.Mutex
	observers []preconditions.ToggleObserver
}

// NewSQLite opens (creating if needed) the toggle database at path. Use
// ":memory:" for an ephemeral store.
func NewSQLite(path string, log *slog.Logger) (*SQLite, error) {
	if log == nil {
		log = discardLogger()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("togglestore: cannot open %q: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("togglestore: cannot create schema: %w", err)
	}
	return &SQLite{db: db, log: log.With(slog.String("toggle_db", path))}, nil
}

// Set upserts the user's toggle for a feature.
func (s *SQLite) Set(feature features.Path, enabled bool) error {
	_, err := s.db.Exec(
		`INSERT INTO feature_toggles (feature, enabled) VALUES (?, ?)
		 ON CONFLICT(feature) DO UPDATE SET enabled = excluded.enabled`,
		string(feature), boolToInt(enabled),
	)
	if err != nil {
		return fmt.Errorf("togglestore: cannot set toggle for %q: %w", feature, err)
	}
	s.notify(feature)
	return nil
}

// Clear removes a feature's toggle, returning it to the declared default.
func (s *SQLite) Clear(feature features.Path) error {
	_, err := s.db.Exec(`DELETE FROM feature_toggles WHERE feature = ?`, string(feature))
	if err != nil {
		return fmt.Errorf("togglestore: cannot clear toggle for %q: %w", feature, err)
	}
	s.notify(feature)
	return nil
}

func (s *SQLite) IsEnabled(feature features.Path) tristate.Value {
	var enabled int
	err := s.db.QueryRow(
		`SELECT enabled FROM feature_toggles WHERE feature = ?`, string(feature),
	).Scan(&enabled)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return tristate.Unknown
	case err != nil:
		s.log.Warn("toggle query failed", "feature", feature, "error", err)
		return tristate.Unknown
	}
	return tristate.FromBool(enabled != 0)
}

func (s *SQLite) AddObserver(o preconditions.ToggleObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *SQLite) notify(changed ...features.Path) {
	s.mu.Lock()
	observers := make([]preconditions.ToggleObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()
	for _, o := range observers {
		o.ToggleChanged(changed...)
	}
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
