package staterepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/outdoor-planner/internal/domain/userstate"
)

// PostgresRepository persists user state in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the user_state table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_state (
			user_id TEXT PRIMARY KEY,
			city TEXT NOT NULL DEFAULT '',
			lat DOUBLE PRECISION NOT NULL DEFAULT 0,
			lon DOUBLE PRECISION NOT NULL DEFAULT 0,
			prefs JSONB NOT NULL DEFAULT '{}'::jsonb,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Load fetches the record for userID.
func (r *PostgresRepository) Load(ctx context.Context, userID string) (userstate.State, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, city, lat, lon, prefs::text
		FROM user_state
		WHERE user_id = $1
	`, userID)
	var (
		state userstate.State
		prefs string
	)
	if err := row.Scan(&state.UserID, &state.City, &state.Lat, &state.Lon, &prefs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userstate.State{}, false, nil
		}
		return userstate.State{}, false, err
	}
	state.Prefs = []byte(prefs)
	return state, true, nil
}

// Save upserts the record.
func (r *PostgresRepository) Save(ctx context.Context, state userstate.State) error {
	prefs := string(state.Prefs)
	if prefs == "" {
		prefs = "{}"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_state (user_id, city, lat, lon, prefs, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, now())
		ON CONFLICT (user_id) DO UPDATE SET
			city = EXCLUDED.city,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			prefs = EXCLUDED.prefs,
			updated_at = now()
	`, state.UserID, state.City, state.Lat, state.Lon, prefs)
	return err
}

var _ userstate.Repository = (*PostgresRepository)(nil)
