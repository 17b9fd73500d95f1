package userstate

import (
	"context"
	"encoding/json"
)

// State is the persisted per-user record. Prefs stays in its submitted JSON form.
type State struct {
	UserID string          `json:"userId"`
	City   string          `json:"city"`
	Lat    float64         `json:"lat"`
	Lon    float64         `json:"lon"`
	Prefs  json.RawMessage `json:"prefs"`
}

// Patch carries the fields a caller submitted. Nil fields keep the stored value.
type Patch struct {
	City  *string
	Lat   *float64
	Lon   *float64
	Prefs json.RawMessage
}

// Repository persists user state records.
type Repository interface {
	Load(ctx context.Context, userID string) (State, bool, error)
	Save(ctx context.Context, state State) error
}

// Default is the record returned for a user that has never been written.
func Default(userID string) State {
	return State{UserID: userID, Prefs: json.RawMessage(`{}`)}
}
