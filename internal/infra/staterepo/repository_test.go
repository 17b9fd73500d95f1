package staterepo

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/outdoor-planner/internal/domain/userstate"
)

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")
	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	exerciseRepository(t, repo)
}

func TestSQLiteRepositorySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, userstate.State{UserID: "u1", City: "Austin", Lat: 30.27, Lon: -97.74, Prefs: json.RawMessage(`{"avoidRain":true}`)}))
	require.NoError(t, repo.Close())

	repo, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	state, ok, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Austin", state.City)
	require.JSONEq(t, `{"avoidRain":true}`, string(state.Prefs))
}

func exerciseRepository(t *testing.T, repo userstate.Repository) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := repo.Load(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	first := userstate.State{UserID: "u1", City: "Boston", Lat: 42.36, Lon: -71.06, Prefs: json.RawMessage(`{"maxTemperatureF":80}`)}
	require.NoError(t, repo.Save(ctx, first))

	got, ok, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first.City, got.City)
	require.Equal(t, first.Lat, got.Lat)
	require.Equal(t, first.Lon, got.Lon)
	require.JSONEq(t, string(first.Prefs), string(got.Prefs))

	second := userstate.State{UserID: "u1", City: "Denver", Lat: 39.74, Lon: -104.99}
	require.NoError(t, repo.Save(ctx, second))
	got, ok, err = repo.Load(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Denver", got.City)
	require.JSONEq(t, `{}`, string(got.Prefs))
}
