package preferences

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
)

func TestNormalizeDefaults(t *testing.T) {
	p := Normalize(nil)
	require.Nil(t, p.MaxTemperatureF)
	require.Nil(t, p.MinTemperatureF)
	require.Equal(t, 50.0, p.MaxPrecipPercent)
	require.Empty(t, p.Activities)

	p = Normalize(json.RawMessage(`[1,2]`))
	require.Equal(t, 50.0, p.MaxPrecipPercent)
}

func TestNormalizeCoercesLooseValues(t *testing.T) {
	raw := json.RawMessage(`{
		"preferredTimes": {"morning": true, "evening": "true", "afternoon": false},
		"maxTemperatureF": "80",
		"minTemperatureF": 55.5,
		"maxPrecipPercent": 30,
		"avoidWind": 1,
		"avoidRain": true,
		"activities": " running, picnic ,,"
	}`)

	p := Normalize(raw)
	require.Equal(t, PreferredTimes{Morning: true, Evening: true}, p.PreferredTimes)
	require.Equal(t, 80.0, *p.MaxTemperatureF)
	require.Equal(t, 55.5, *p.MinTemperatureF)
	require.Equal(t, 30.0, p.MaxPrecipPercent)
	require.True(t, p.AvoidWind)
	require.True(t, p.AvoidRain)
	require.False(t, p.AvoidSnow)
	require.Equal(t, []string{"running", "picnic"}, p.Activities)
}

func TestNormalizeSwapsInvertedBounds(t *testing.T) {
	p := Normalize(json.RawMessage(`{"maxTemperatureF": 40, "minTemperatureF": 70}`))
	require.Equal(t, 70.0, *p.MaxTemperatureF)
	require.Equal(t, 40.0, *p.MinTemperatureF)
}

func TestNormalizeTreatsGarbageAsAbsent(t *testing.T) {
	p := Normalize(json.RawMessage(`{"maxTemperatureF": "warm", "minTemperatureF": null, "maxPrecipPercent": "lots"}`))
	require.Nil(t, p.MaxTemperatureF)
	require.Nil(t, p.MinTemperatureF)
	require.Equal(t, 50.0, p.MaxPrecipPercent)
}

func TestNormalizePrecipOutOfRangeUsesDefault(t *testing.T) {
	require.Equal(t, 50.0, Normalize(json.RawMessage(`{"maxPrecipPercent": 140}`)).MaxPrecipPercent)
	require.Equal(t, 50.0, Normalize(json.RawMessage(`{"maxPrecipPercent": -3}`)).MaxPrecipPercent)
	require.Equal(t, 0.0, Normalize(json.RawMessage(`{"maxPrecipPercent": 0}`)).MaxPrecipPercent)
	require.Equal(t, 100.0, Normalize(json.RawMessage(`{"maxPrecipPercent": "100"}`)).MaxPrecipPercent)
}

func TestNormalizePreferredTimesArray(t *testing.T) {
	p := Normalize(json.RawMessage(`{"preferredTimes": ["Afternoon", "evening"]}`))
	require.Equal(t, []string{"afternoon", "evening"}, p.PreferredTimes.Parts())
}

func TestValidateCollectsAllMessages(t *testing.T) {
	p := Preferences{MaxTemperatureF: f(151), MinTemperatureF: f(148)}
	msgs := Validate(p)
	require.Equal(t, []string{
		"Max temperature > 150°F is not realistic.",
		"Temperature range < 5°F is very narrow and may yield no options.",
	}, msgs)

	p = Preferences{MinTemperatureF: f(-120)}
	require.Equal(t, []string{"Min temperature < -100°F is not realistic."}, Validate(p))

	p = Preferences{MaxTemperatureF: f(80), MinTemperatureF: f(75)}
	require.Empty(t, Validate(p))
}

func TestFilterSuitableDays(t *testing.T) {
	facts := []forecast.DailyFact{
		{Date: "2024-05-01", TempMaxF: f(72), TempMinF: f(55), PrecipPct: f(10)},
		{Date: "2024-05-02", TempMaxF: f(90), TempMinF: f(70), PrecipPct: f(5)},
		{Date: "2024-05-03", TempMaxF: f(65), TempMinF: f(40), PrecipPct: f(20)},
		{Date: "2024-05-04", TempMaxF: f(70), TempMinF: f(55), PrecipPct: f(80)},
		{Date: "2024-05-05"},
	}
	p := Preferences{MaxTemperatureF: f(85), MinTemperatureF: f(50), MaxPrecipPercent: 50}

	require.Equal(t, []int{0, 4}, FilterSuitableDays(facts, p))
}

func TestFilterIsCommutativeOverSwappedBounds(t *testing.T) {
	facts := []forecast.DailyFact{
		{Date: "2024-05-01", TempMaxF: f(72), TempMinF: f(55), PrecipPct: f(10)},
		{Date: "2024-05-02", TempMaxF: f(90), TempMinF: f(70), PrecipPct: f(5)},
		{Date: "2024-05-03", TempMaxF: f(65), TempMinF: f(40), PrecipPct: f(20)},
	}
	inverted := Normalize(json.RawMessage(`{"maxTemperatureF": 50, "minTemperatureF": 85}`))
	ordered := Normalize(json.RawMessage(`{"maxTemperatureF": 85, "minTemperatureF": 50}`))

	require.Equal(t, FilterSuitableDays(facts, ordered), FilterSuitableDays(facts, inverted))
}

func TestFilterAllDaysTooWet(t *testing.T) {
	facts := []forecast.DailyFact{
		{Date: "2024-05-01", TempMaxF: f(60), TempMinF: f(50), PrecipPct: f(70)},
		{Date: "2024-05-02", TempMaxF: f(60), TempMinF: f(50), PrecipPct: f(90)},
		{Date: "2024-05-03", TempMaxF: f(60), TempMinF: f(50), PrecipPct: f(55)},
	}
	require.Empty(t, FilterSuitableDays(facts, Normalize(nil)))
}

func TestPromptLines(t *testing.T) {
	p := Preferences{
		MaxTemperatureF:  f(80),
		MinTemperatureF:  f(55.5),
		MaxPrecipPercent: 30,
		AvoidWind:        true,
		PreferredTimes:   PreferredTimes{Morning: true, Evening: true},
		Activities:       []string{"run", "picnic"},
	}
	require.Equal(t, []string{
		"Max temperature: 80°F",
		"Min temperature: 55.5°F",
		"Avoid wind: true",
		"Preferred times: morning, evening",
		"Activities: run, picnic",
		"Max precipitation chance: 30%",
	}, PromptLines(p))

	require.Empty(t, PromptLines(Normalize(nil)))
}

func TestAllowedTemperatures(t *testing.T) {
	require.Equal(t, []float64{80.1, 55}, AllowedTemperatures(Preferences{MaxTemperatureF: f(80.06), MinTemperatureF: f(55)}))
	require.Empty(t, AllowedTemperatures(Preferences{}))
}

func f(v float64) *float64 {
	return &v
}
