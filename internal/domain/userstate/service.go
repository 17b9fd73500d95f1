package userstate

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/yanqian/outdoor-planner/pkg/errors"
	"github.com/yanqian/outdoor-planner/pkg/util"
)

// ErrCoordinatesMessage is reported for any latitude or longitude outside the valid range.
const ErrCoordinatesMessage = "Latitude/longitude out of range."

var validate = validator.New()

type coordinates struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

// ValidateCoordinates rejects out of range or non-finite coordinates. Nil values are not checked.
func ValidateCoordinates(lat, lon *float64) error {
	c := coordinates{}
	if lat != nil {
		c.Lat = *lat
	}
	if lon != nil {
		c.Lon = *lon
	}
	// NaN compares false against every bound.
	if !util.IsFinite(c.Lat) || !util.IsFinite(c.Lon) {
		return apperrors.Validation(ErrCoordinatesMessage)
	}
	if err := validate.Struct(c); err != nil {
		return apperrors.Validation(ErrCoordinatesMessage)
	}
	return nil
}

// ParseCoordinate reads a submitted latitude or longitude given as a JSON number or numeric
// string. Absent, null and blank values are nil; anything else unparseable is NaN so that
// ValidateCoordinates rejects it.
func ParseCoordinate(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) == "" {
		return nil
	}
	v, ok := util.ParseNumber(raw)
	if !ok {
		v = math.NaN()
	}
	return &v
}

// Service merges and reads per-user state. Writes for one user are serialized.
type Service interface {
	Merge(ctx context.Context, userID string, patch Patch) (State, error)
	Get(ctx context.Context, userID string) (State, error)
}

type service struct {
	repo   Repository
	locks  *keyedMutex
	logger *slog.Logger
}

// NewService builds the state store on top of repo.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		locks:  newKeyedMutex(),
		logger: logger.With("component", "userstate.service"),
	}
}

func (s *service) Merge(ctx context.Context, userID string, patch Patch) (State, error) {
	userID = strings.TrimSpace(userID)
	unlock := s.locks.Lock(userID)
	defer unlock()

	current, err := s.load(ctx, userID)
	if err != nil {
		return State{}, err
	}
	if patch.City != nil {
		current.City = *patch.City
	}
	if patch.Lat != nil {
		current.Lat = *patch.Lat
	}
	if patch.Lon != nil {
		current.Lon = *patch.Lon
	}
	if prefs := bytes.TrimSpace(patch.Prefs); len(prefs) > 0 && string(prefs) != "null" {
		if json.Valid(prefs) {
			current.Prefs = append(json.RawMessage(nil), prefs...)
		} else {
			s.logger.Warn("ignoring malformed prefs", "user_id", userID)
		}
	}

	if err := s.repo.Save(ctx, current); err != nil {
		return State{}, apperrors.Wrap(apperrors.CodeState, "failed to save user state", err)
	}
	s.logger.Debug("user state merged", "user_id", userID)
	return current, nil
}

func (s *service) Get(ctx context.Context, userID string) (State, error) {
	return s.load(ctx, strings.TrimSpace(userID))
}

func (s *service) load(ctx context.Context, userID string) (State, error) {
	stored, ok, err := s.repo.Load(ctx, userID)
	if err != nil {
		return State{}, apperrors.Wrap(apperrors.CodeState, "failed to load user state", err)
	}
	if !ok {
		return Default(userID), nil
	}
	stored.UserID = userID
	if len(bytes.TrimSpace(stored.Prefs)) == 0 {
		stored.Prefs = json.RawMessage(`{}`)
	}
	return stored, nil
}
