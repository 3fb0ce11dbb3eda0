// Package store handles SQLite persistence of named simulation presets.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/brownian/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrPresetNotFound is returned when no preset has the requested name.
var ErrPresetNotFound = errors.New("store: preset not found")

// Store wraps SQLite access for presets.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS presets (
			name TEXT PRIMARY KEY,
			drift REAL NOT NULL,
			volatility REAL NOT NULL,
			barrier REAL NOT NULL,
			horizon REAL NOT NULL,
			step_size REAL NOT NULL,
			path_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SavePreset inserts p or replaces the preset with the same name. A zero
// CreatedAt is set to the current time.
func (s *Store) SavePreset(ctx context.Context, p model.Preset) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return errors.New("store: preset name is empty")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	c := p.Config
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO presets (name, drift, volatility, barrier, horizon, step_size, path_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			drift = excluded.drift,
			volatility = excluded.volatility,
			barrier = excluded.barrier,
			horizon = excluded.horizon,
			step_size = excluded.step_size,
			path_count = excluded.path_count,
			created_at = excluded.created_at`,
		name, c.Drift, c.Volatility, c.Barrier, c.Horizon, c.StepSize, c.PathCount,
		p.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// GetPreset loads the preset called name.
func (s *Store) GetPreset(ctx context.Context, name string) (model.Preset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, drift, volatility, barrier, horizon, step_size, path_count, created_at
		 FROM presets WHERE name = ?`, strings.TrimSpace(name))
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return p, err
}

// ListPresets returns all presets ordered by name.
func (s *Store) ListPresets(ctx context.Context) ([]model.Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, drift, volatility, barrier, horizon, step_size, path_count, created_at
		 FROM presets ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var presets []model.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return presets, nil
}

// DeletePreset removes the preset called name.
func (s *Store) DeletePreset(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(sc scanner) (model.Preset, error) {
	var p model.Preset
	var createdAt string
	c := &p.Config
	if err := sc.Scan(&p.Name, &c.Drift, &c.Volatility, &c.Barrier, &c.Horizon, &c.StepSize, &c.PathCount, &createdAt); err != nil {
		return model.Preset{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.Preset{}, err
	}
	p.CreatedAt = parsed
	return p, nil
}
