package preferences

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/yanqian/outdoor-planner/pkg/util"
)

const (
	// DefaultMaxPrecipPercent applies when no usable precipitation limit was submitted.
	DefaultMaxPrecipPercent = 50.0

	maxRealisticF = 150.0
	minRealisticF = -100.0
	minSpanF      = 5.0
)

// PreferredTimes toggles the day-parts a user is willing to be outside.
type PreferredTimes struct {
	Morning   bool `json:"morning"`
	Afternoon bool `json:"afternoon"`
	Evening   bool `json:"evening"`
}

// Parts lists the enabled day-parts in chronological order.
func (p PreferredTimes) Parts() []string {
	parts := make([]string, 0, 3)
	if p.Morning {
		parts = append(parts, "morning")
	}
	if p.Afternoon {
		parts = append(parts, "afternoon")
	}
	if p.Evening {
		parts = append(parts, "evening")
	}
	return parts
}

// Preferences is the normalized, Fahrenheit-only view used by the filter and the prompt.
type Preferences struct {
	PreferredTimes   PreferredTimes `json:"preferredTimes"`
	MaxTemperatureF  *float64       `json:"maxTemperatureF,omitempty"`
	MinTemperatureF  *float64       `json:"minTemperatureF,omitempty"`
	MaxPrecipPercent float64        `json:"maxPrecipPercent"`
	AvoidWind        bool           `json:"avoidWind"`
	AvoidRain        bool           `json:"avoidRain"`
	AvoidSnow        bool           `json:"avoidSnow"`
	Activities       []string       `json:"activities"`
}

type wirePrefs struct {
	PreferredTimes   json.RawMessage `json:"preferredTimes"`
	MaxTemperatureF  json.RawMessage `json:"maxTemperatureF"`
	MinTemperatureF  json.RawMessage `json:"minTemperatureF"`
	MaxPrecipPercent json.RawMessage `json:"maxPrecipPercent"`
	AvoidWind        json.RawMessage `json:"avoidWind"`
	AvoidRain        json.RawMessage `json:"avoidRain"`
	AvoidSnow        json.RawMessage `json:"avoidSnow"`
	Activities       json.RawMessage `json:"activities"`
}

// Normalize coerces a stored or submitted prefs object. Malformed input yields defaults.
// Inverted temperature bounds are swapped; a precipitation limit outside 0..100 falls back to the default.
func Normalize(raw json.RawMessage) Preferences {
	var w wirePrefs
	if len(bytes.TrimSpace(raw)) > 0 {
		_ = json.Unmarshal(raw, &w)
	}

	p := Preferences{
		PreferredTimes:   coerceTimes(w.PreferredTimes),
		MaxTemperatureF:  coerceNumber(w.MaxTemperatureF),
		MinTemperatureF:  coerceNumber(w.MinTemperatureF),
		MaxPrecipPercent: DefaultMaxPrecipPercent,
		AvoidWind:        coerceBool(w.AvoidWind),
		AvoidRain:        coerceBool(w.AvoidRain),
		AvoidSnow:        coerceBool(w.AvoidSnow),
		Activities:       coerceList(w.Activities),
	}
	if p.MaxTemperatureF != nil && p.MinTemperatureF != nil && *p.MaxTemperatureF < *p.MinTemperatureF {
		p.MaxTemperatureF, p.MinTemperatureF = p.MinTemperatureF, p.MaxTemperatureF
	}
	if v := coerceNumber(w.MaxPrecipPercent); v != nil && *v >= 0 && *v <= 100 {
		p.MaxPrecipPercent = *v
	}
	return p
}

// Validate reports every unrealistic or contradictory bound. An empty result means valid.
func Validate(p Preferences) []string {
	var messages []string
	if p.MaxTemperatureF != nil && *p.MaxTemperatureF > maxRealisticF {
		messages = append(messages, "Max temperature > 150°F is not realistic.")
	}
	if p.MinTemperatureF != nil && *p.MinTemperatureF < minRealisticF {
		messages = append(messages, "Min temperature < -100°F is not realistic.")
	}
	if p.MaxTemperatureF != nil && p.MinTemperatureF != nil && *p.MaxTemperatureF-*p.MinTemperatureF < minSpanF {
		messages = append(messages, "Temperature range < 5°F is very narrow and may yield no options.")
	}
	return messages
}

func coerceNumber(raw json.RawMessage) *float64 {
	v, ok := util.ParseNumber(raw)
	if !ok {
		return nil
	}
	return &v
}

func coerceBool(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		parsed, _ := strconv.ParseBool(strings.TrimSpace(s))
		return parsed
	}
	if n := coerceNumber(raw); n != nil {
		return *n != 0
	}
	return false
}

// coerceList accepts either a JSON array of strings or a comma separated string.
func coerceList(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	var items []string
	if len(raw) > 0 {
		switch raw[0] {
		case '[':
			_ = json.Unmarshal(raw, &items)
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				items = strings.Split(s, ",")
			}
		}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if clean := strings.TrimSpace(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// coerceTimes accepts {"morning":true,...} or ["morning","evening"].
func coerceTimes(raw json.RawMessage) PreferredTimes {
	raw = bytes.TrimSpace(raw)
	var t PreferredTimes
	if len(raw) == 0 {
		return t
	}
	if raw[0] == '{' {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return t
		}
		for k, v := range m {
			setPart(&t, k, coerceBool(v))
		}
		return t
	}
	for _, part := range coerceList(raw) {
		setPart(&t, part, true)
	}
	return t
}

func setPart(t *PreferredTimes, name string, on bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "morning":
		t.Morning = on
	case "afternoon":
		t.Afternoon = on
	case "evening":
		t.Evening = on
	}
}
