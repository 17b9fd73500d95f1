package staterepo

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/yanqian/outdoor-planner/internal/domain/userstate"
)

// MemoryRepository keeps user state in process memory for tests/dev.
type MemoryRepository struct {
	mu     sync.RWMutex
	states map[string]userstate.State
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{states: make(map[string]userstate.State)}
}

// Load returns a copy of the stored record.
func (r *MemoryRepository) Load(_ context.Context, userID string) (userstate.State, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.states[userID]
	if !ok {
		return userstate.State{}, false, nil
	}
	state.Prefs = append(json.RawMessage(nil), state.Prefs...)
	return state, true, nil
}

// Save replaces the record for state.UserID.
func (r *MemoryRepository) Save(_ context.Context, state userstate.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(state.Prefs) == 0 {
		state.Prefs = json.RawMessage(`{}`)
	}
	state.Prefs = append(json.RawMessage(nil), state.Prefs...)
	r.states[state.UserID] = state
	return nil
}

var _ userstate.Repository = (*MemoryRepository)(nil)
