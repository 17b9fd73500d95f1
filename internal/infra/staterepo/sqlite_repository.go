package staterepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/yanqian/outdoor-planner/internal/domain/userstate"
	"github.com/yanqian/outdoor-planner/pkg/util"
)

// SQLiteRepository persists user state in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	// single connection avoids SQLITE_BUSY between writers
	db.SetMaxOpenConns(1)
	repo := &SQLiteRepository{db: db}
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// EnsureSchema creates the user_state table when missing.
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_state (
			user_id TEXT PRIMARY KEY,
			city TEXT NOT NULL DEFAULT '',
			lat REAL NOT NULL DEFAULT 0,
			lon REAL NOT NULL DEFAULT 0,
			prefs TEXT NOT NULL DEFAULT '{}',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user_state table: %w", err)
	}
	return nil
}

// Load fetches the record for userID.
func (r *SQLiteRepository) Load(ctx context.Context, userID string) (userstate.State, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, city, lat, lon, prefs
		FROM user_state
		WHERE user_id = ?
	`, userID)
	var (
		state userstate.State
		prefs string
	)
	if err := row.Scan(&state.UserID, &state.City, &state.Lat, &state.Lon, &prefs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return userstate.State{}, false, nil
		}
		return userstate.State{}, false, err
	}
	state.Prefs = []byte(prefs)
	return state, true, nil
}

// Save upserts the record.
func (r *SQLiteRepository) Save(ctx context.Context, state userstate.State) error {
	prefs := string(state.Prefs)
	if prefs == "" {
		prefs = "{}"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_state (user_id, city, lat, lon, prefs, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			city = excluded.city,
			lat = excluded.lat,
			lon = excluded.lon,
			prefs = excluded.prefs,
			updated_at = excluded.updated_at
	`, state.UserID, state.City, state.Lat, state.Lon, prefs, util.NowUTC())
	return err
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

var _ userstate.Repository = (*SQLiteRepository)(nil)
