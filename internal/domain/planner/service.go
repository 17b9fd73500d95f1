package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
	"github.com/yanqian/outdoor-planner/internal/domain/preferences"
	"github.com/yanqian/outdoor-planner/internal/domain/userstate"
	"github.com/yanqian/outdoor-planner/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/outdoor-planner/pkg/errors"
	"github.com/yanqian/outdoor-planner/pkg/metrics"
)

const (
	defaultDays              = 7
	defaultTemperature       = 0.2
	defaultMaxTokens         = 900
	defaultIndoorTemperature = 0.4
	defaultIndoorMaxTokens   = 600

	indoorNote = "Requested indoor-only plan. Outdoor windows intentionally omitted."
)

// Service turns a plan request into a grounded activity plan.
type Service interface {
	Plan(ctx context.Context, req Request) (Response, error)
}

type service struct {
	cfg       Config
	forecasts forecast.Service
	states    userstate.Service
	client    ChatClient
	counter   TokenCounter
	logger    *slog.Logger
}

// NewService wires the planner. client and counter may be nil.
func NewService(cfg Config, forecasts forecast.Service, states userstate.Service, client ChatClient, counter TokenCounter, logger *slog.Logger) Service {
	if strings.TrimSpace(cfg.DefaultUserID) == "" {
		cfg.DefaultUserID = defaultUserID
	}
	if strings.TrimSpace(cfg.DefaultQuestion) == "" {
		cfg.DefaultQuestion = defaultQuestion
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = defaultDays
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.IndoorTemperature <= 0 {
		cfg.IndoorTemperature = defaultIndoorTemperature
	}
	if cfg.IndoorMaxTokens <= 0 {
		cfg.IndoorMaxTokens = defaultIndoorMaxTokens
	}
	if strings.TrimSpace(cfg.PlanPrompt) == "" {
		cfg.PlanPrompt = defaultPlanPrompt
	}
	if strings.TrimSpace(cfg.IndoorPrompt) == "" {
		cfg.IndoorPrompt = defaultIndoorPrompt
	}
	return &service{
		cfg:       cfg,
		forecasts: forecasts,
		states:    states,
		client:    client,
		counter:   counter,
		logger:    logger.With("component", "planner.service"),
	}
}

func (s *service) Plan(ctx context.Context, req Request) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("plan pipeline panicked", "panic", r)
			resp, err = Response{}, apperrors.Wrap(apperrors.CodePlan, fmt.Sprint(r), nil)
		}
	}()

	resp, err = s.plan(ctx, req)
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.Wrap(apperrors.CodePlan, err.Error(), err)
		}
		return Response{}, err
	}
	return resp, nil
}

func (s *service) plan(ctx context.Context, req Request) (Response, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = s.cfg.DefaultUserID
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		question = s.cfg.DefaultQuestion
	}
	days := req.Days
	if days <= 0 {
		days = s.cfg.DefaultDays
	}

	if err := userstate.ValidateCoordinates(req.Lat, req.Lon); err != nil {
		return Response{}, err
	}
	state, err := s.states.Merge(ctx, userID, userstate.Patch{
		City:  req.City,
		Lat:   req.Lat,
		Lon:   req.Lon,
		Prefs: req.Prefs,
	})
	if err != nil {
		return Response{}, err
	}
	city := state.City
	if city == "" && req.City != nil {
		city = *req.City
	}

	if req.IndoorOnly {
		return s.indoorPlan(ctx, city, question, state.Prefs), nil
	}

	raw := s.forecasts.GetForecast(ctx, state.Lat, state.Lon, days)
	facts := forecast.Aggregate(raw)
	slim := forecast.Columns(facts)
	details := &Details{ForecastF: slim}
	if unit := forecast.ReportedUnit(raw); unit != "" {
		details.ReportedUnit = &unit
	}

	prefs := preferences.Normalize(state.Prefs)
	details.PrefsF = prefs
	if msgs := preferences.Validate(prefs); len(msgs) > 0 {
		return Response{}, apperrors.Validation(msgs...)
	}

	if err := checkForecastShape(slim); err != nil {
		return Response{}, err
	}

	suitable := preferences.FilterSuitableDays(facts, prefs)
	if len(suitable) == 0 {
		s.logger.Info("no suitable days", "user_id", userID, "days", len(facts))
		return Response{
			Plan:       NoSuitableMessage(len(facts)),
			City:       city,
			NoSuitable: true,
			Details:    details,
		}, nil
	}

	if s.client == nil {
		return Response{}, apperrors.Wrap(apperrors.CodeAIUnavailable, "language model not configured; set OPENAI_API_KEY", nil)
	}

	messages, err := s.planMessages(city, question, facts, prefs)
	if err != nil {
		return Response{}, err
	}
	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeAIFailure, "language model request failed", err)
	}
	text := completion.Content()
	s.logger.Debug("plan completion received", "user_id", userID, "chars", len(text))

	resp := Response{
		Plan:       text,
		City:       city,
		Details:    details,
		Structured: ExtractStructured(text),
		TokenUsage: s.usage(completion, messages, text),
	}
	if bad := FindUngrounded(text, facts, prefs); len(bad) > 0 {
		s.logger.Warn("ungrounded temperatures in plan", "user_id", userID, "values", bad)
		resp.Plan = CorrectedPlan(bad, facts, suitable, prefs)
		resp.Structured = nil
	}
	return resp, nil
}

func (s *service) indoorPlan(ctx context.Context, city, question string, prefs json.RawMessage) Response {
	resp := Response{City: city, IndoorOnly: true}
	if s.client == nil {
		resp.Plan = IndoorFallback(indoorNote)
		return resp
	}

	messages := s.indoorMessages(city, question, prefs)
	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: s.cfg.IndoorTemperature,
		MaxTokens:   s.cfg.IndoorMaxTokens,
	})
	if err == nil && strings.TrimSpace(completion.Content()) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		s.logger.Warn("indoor plan request failed, using fallback", "error", err)
		resp.Plan = IndoorFallback(fmt.Sprintf("LLM error: %s. Showing a deterministic fallback.", err.Error()))
		return resp
	}
	resp.Plan = completion.Content()
	resp.TokenUsage = s.usage(completion, messages, resp.Plan)
	return resp
}

func (s *service) usage(completion chatgpt.ChatCompletionResponse, messages []chatgpt.Message, text string) *metrics.TokenUsage {
	if u := completion.Usage; u != nil && u.TotalTokens > 0 {
		return &metrics.TokenUsage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens, TotalTokens: u.TotalTokens}
	}
	if s.counter == nil {
		return nil
	}
	prompt := 0
	for _, m := range messages {
		prompt += s.counter.Count(m.Content)
	}
	return metrics.Estimated(prompt, s.counter.Count(text))
}

func checkForecastShape(slim forecast.Slim) error {
	maxTemps, minTemps := countPresent(slim.TMax), countPresent(slim.TMin)
	if len(slim.Dates) > 0 && maxTemps > 0 && minTemps > 0 {
		return nil
	}
	shape, _ := json.Marshal(map[string]int{
		"dates":    len(slim.Dates),
		"maxTemps": maxTemps,
		"minTemps": minTemps,
	})
	return apperrors.Wrap(apperrors.CodeForecast, "No forecast data available. Response shape: "+string(shape), nil)
}

func countPresent(values []*float64) int {
	n := 0
	for _, v := range values {
		if v != nil {
			n++
		}
	}
	return n
}
