package userstate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/outdoor-planner/pkg/errors"
)

func TestMergeDefaultsAndOverwrites(t *testing.T) {
	svc := NewService(newStubRepo(), discardLogger())
	ctx := context.Background()

	state, err := svc.Merge(ctx, "u1", Patch{})
	require.NoError(t, err)
	require.Equal(t, "u1", state.UserID)
	require.Equal(t, "", state.City)
	require.Zero(t, state.Lat)
	require.JSONEq(t, `{}`, string(state.Prefs))

	city := "Boston"
	lat, lon := 42.36, -71.06
	state, err = svc.Merge(ctx, "u1", Patch{City: &city, Lat: &lat, Lon: &lon, Prefs: json.RawMessage(`{"maxTemperatureF":80,"avoidRain":true}`)})
	require.NoError(t, err)
	require.Equal(t, "Boston", state.City)
	require.Equal(t, 42.36, state.Lat)

	state, err = svc.Merge(ctx, "u1", Patch{Prefs: json.RawMessage(`{"minTemperatureF":50}`)})
	require.NoError(t, err)
	require.Equal(t, "Boston", state.City, "unsubmitted fields are kept")
	require.JSONEq(t, `{"minTemperatureF":50}`, string(state.Prefs), "prefs are replaced whole")

	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, state, got)
}

func TestMergeEmptyPatchIsIdempotent(t *testing.T) {
	svc := NewService(newStubRepo(), discardLogger())
	ctx := context.Background()
	city := "Denver"
	_, err := svc.Merge(ctx, "u2", Patch{City: &city})
	require.NoError(t, err)

	first, err := svc.Merge(ctx, "u2", Patch{})
	require.NoError(t, err)
	second, err := svc.Merge(ctx, "u2", Patch{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestGetUnknownUserReturnsDefault(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, discardLogger())

	state, err := svc.Get(context.Background(), "nobody")
	require.NoError(t, err)
	require.Equal(t, Default("nobody"), state)
	require.Zero(t, repo.saves.Load(), "reads never write")
}

func TestMergeWrapsRepositoryErrors(t *testing.T) {
	repo := newStubRepo()
	repo.saveErr = errors.New("disk full")
	svc := NewService(repo, discardLogger())

	_, err := svc.Merge(context.Background(), "u3", Patch{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeState))
}

func TestMergeSerializesPerUser(t *testing.T) {
	repo := newStubRepo()
	repo.delay = time.Millisecond
	svc := NewService(repo, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lat := float64(i)
			if _, err := svc.Merge(context.Background(), "same-user", Patch{Lat: &lat}); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), repo.maxActive.Load())
	require.Equal(t, 0, svc.(*service).locks.size(), "idle keys are released")
}

func TestMergeDifferentUsersRunConcurrently(t *testing.T) {
	repo := newStubRepo()
	repo.delay = 20 * time.Millisecond
	svc := NewService(repo, discardLogger())

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := svc.Merge(context.Background(), id, Patch{}); err != nil {
				t.Error(err)
			}
		}(id)
	}
	wg.Wait()

	require.Equal(t, int32(1), repo.maxActive.Load())
	require.Greater(t, repo.maxTotal.Load(), int32(1))
}

func TestValidateCoordinates(t *testing.T) {
	ok := func(v float64) *float64 { return &v }

	require.NoError(t, ValidateCoordinates(nil, nil))
	require.NoError(t, ValidateCoordinates(ok(90), ok(-180)))
	require.NoError(t, ValidateCoordinates(ok(-90), ok(180)))

	for _, tc := range []struct{ lat, lon *float64 }{
		{ok(90.01), ok(0)},
		{ok(0), ok(-180.5)},
		{ok(math.NaN()), nil},
		{nil, ok(math.Inf(1))},
	} {
		err := ValidateCoordinates(tc.lat, tc.lon)
		require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
		appErr, found := apperrors.As(err)
		require.True(t, found)
		require.Equal(t, []string{ErrCoordinatesMessage}, appErr.Messages)
	}
}

type stubRepo struct {
	mu        sync.Mutex
	items     map[string]State
	saveErr   error
	delay     time.Duration
	active    sync.Map
	total     atomic.Int32
	maxActive atomic.Int32
	maxTotal  atomic.Int32
	saves     atomic.Int32
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: make(map[string]State)}
}

func (r *stubRepo) enter(userID string) func() {
	counter, _ := r.active.LoadOrStore(userID, new(atomic.Int32))
	raiseTo(&r.maxActive, counter.(*atomic.Int32).Add(1))
	raiseTo(&r.maxTotal, r.total.Add(1))
	return func() {
		counter.(*atomic.Int32).Add(-1)
		r.total.Add(-1)
	}
}

func raiseTo(max *atomic.Int32, n int32) {
	for {
		cur := max.Load()
		if n <= cur || max.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (r *stubRepo) Load(_ context.Context, userID string) (State, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.items[userID]
	return state, ok, nil
}

func (r *stubRepo) Save(_ context.Context, state State) error {
	leave := r.enter(state.UserID)
	defer leave()
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[state.UserID] = state
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseCoordinate(t *testing.T) {
	require.Nil(t, ParseCoordinate(nil))
	require.Nil(t, ParseCoordinate(json.RawMessage(`null`)))
	require.Nil(t, ParseCoordinate(json.RawMessage(`"  "`)))
	require.Equal(t, 40.7, *ParseCoordinate(json.RawMessage(`40.7`)))
	require.Equal(t, -74.01, *ParseCoordinate(json.RawMessage(`" -74.01 "`)))

	bad := ParseCoordinate(json.RawMessage(`"north"`))
	require.NotNil(t, bad)
	require.True(t, math.IsNaN(*bad))
	require.Error(t, ValidateCoordinates(bad, nil))
}
