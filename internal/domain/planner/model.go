package planner

import (
	"context"
	"encoding/json"
	"math"

	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
	"github.com/yanqian/outdoor-planner/internal/domain/preferences"
	"github.com/yanqian/outdoor-planner/internal/domain/userstate"
	"github.com/yanqian/outdoor-planner/internal/infra/llm/chatgpt"
	"github.com/yanqian/outdoor-planner/pkg/metrics"
	"github.com/yanqian/outdoor-planner/pkg/util"
)

// Config configures request defaults and the model calls.
type Config struct {
	DefaultUserID     string
	DefaultQuestion   string
	DefaultDays       int
	Model             string
	Temperature       float32
	MaxTokens         int
	IndoorTemperature float32
	IndoorMaxTokens   int
	PlanPrompt        string
	IndoorPrompt      string
}

// Request is the /plan payload. Nil pointers were not submitted.
type Request struct {
	UserID     string          `json:"userId"`
	City       *string         `json:"city"`
	Lat        *float64        `json:"lat"`
	Lon        *float64        `json:"lon"`
	Days       int             `json:"days"`
	Question   string          `json:"question"`
	IndoorOnly bool            `json:"indoorOnly"`
	Prefs      json.RawMessage `json:"prefs"`
}

// UnmarshalJSON accepts numeric strings for lat, lon and days. A days value that is not a
// number falls back to the default.
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	var wire struct {
		plain
		Lat  json.RawMessage `json:"lat"`
		Lon  json.RawMessage `json:"lon"`
		Days json.RawMessage `json:"days"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = Request(wire.plain)
	r.Lat = userstate.ParseCoordinate(wire.Lat)
	r.Lon = userstate.ParseCoordinate(wire.Lon)
	if days, ok := util.ParseNumber(wire.Days); ok && days > 0 && days < math.MaxInt32 {
		r.Days = int(days)
	}
	return nil
}

// Response is the PlanResult returned to clients.
type Response struct {
	Plan       string              `json:"plan"`
	City       string              `json:"city"`
	IndoorOnly bool                `json:"indoorOnly,omitempty"`
	NoSuitable bool                `json:"noSuitable,omitempty"`
	Details    *Details            `json:"details,omitempty"`
	Structured *StructuredPlan     `json:"structured,omitempty"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// Details exposes the inputs the plan was built from.
type Details struct {
	PrefsF       preferences.Preferences `json:"prefsF"`
	ForecastF    forecast.Slim           `json:"forecastF"`
	ReportedUnit *string                 `json:"reportedUnit"`
}

// StructuredPlan is the machine readable payload the model appends to its prose.
type StructuredPlan struct {
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	IndoorOptions   []string         `json:"indoorOptions,omitempty"`
	Summary         string           `json:"summary,omitempty"`
	NoSuitable      *bool            `json:"noSuitable,omitempty"`
}

// Recommendation is a single suggested outdoor window. Numbers are kept as the model wrote them.
type Recommendation struct {
	Date       string          `json:"date"`
	Start      string          `json:"start"`
	End        string          `json:"end"`
	Activity   string          `json:"activity"`
	TempF      json.RawMessage `json:"tempF,omitempty"`
	PrecipPct  json.RawMessage `json:"precipPct,omitempty"`
	Conditions string          `json:"conditions"`
}

// ChatClient is the language model capability.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// TokenCounter estimates prompt sizes when the model does not report usage.
type TokenCounter interface {
	Count(text string) int
}

// promptFact is the per-day grounding record sent to the model.
type promptFact struct {
	Day       int      `json:"day"`
	Date      string   `json:"date"`
	TempMaxF  *float64 `json:"tmaxF"`
	TempMinF  *float64 `json:"tminF"`
	PrecipPct *float64 `json:"precipPct"`
}
