package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
	"github.com/yanqian/outdoor-planner/internal/domain/preferences"
)

func TestFindUngrounded(t *testing.T) {
	facts := []forecast.DailyFact{
		{Date: "2024-05-01", TempMaxF: f(48.5), TempMinF: f(41), PrecipPct: f(10)},
		{Date: "2024-05-02", TempMaxF: f(52), TempMinF: f(-0.04), PrecipPct: f(20)},
	}
	prefs := preferences.Preferences{MaxTemperatureF: f(75), MaxPrecipPercent: 50}

	require.Empty(t, FindUngrounded("Highs of 48.5°F and lows near 41 °F. Stay under 75°f.", facts, prefs))
	require.Empty(t, FindUngrounded("A chilly 0°F start, then 52.0°F.", facts, prefs))
	require.Empty(t, FindUngrounded("10% chance of rain, 20 percent later.", facts, prefs))

	bad := FindUngrounded("Expect 57.3°F Tuesday, 57.3 °F again, then 60°F and 48.5°F.", facts, prefs)
	require.Equal(t, []float64{57.3, 60}, bad)
}

func TestFindUngroundedReadsRangesAsPositive(t *testing.T) {
	facts := []forecast.DailyFact{{Date: "2024-05-01", TempMaxF: f(65), TempMinF: f(60)}}

	require.Empty(t, FindUngrounded("Comfortable 60-65°F all afternoon.", facts, preferences.Preferences{}))
	require.Empty(t, FindUngrounded("Lows 60°F-65°F overnight.", facts, preferences.Preferences{}))
	require.Equal(t, []float64{-65}, FindUngrounded("Feels like -65°F at the summit.", facts, preferences.Preferences{}))
	require.Equal(t, []float64{-65}, FindUngrounded("-65°F", facts, preferences.Preferences{}))
}

func TestSafePlanUsesOnlyForecastValues(t *testing.T) {
	facts := make([]forecast.DailyFact, 0, 7)
	for i := 1; i <= 7; i++ {
		facts = append(facts, forecast.DailyFact{
			Date:      "2024-05-0" + string(rune('0'+i)),
			TempMaxF:  f(50 + float64(i)),
			TempMinF:  f(40 + float64(i)),
			PrecipPct: f(100.0 / 3),
		})
	}
	facts[2].TempMinF = nil
	prefs := preferences.Preferences{PreferredTimes: preferences.PreferredTimes{Evening: true}}

	plan := SafePlan(facts, []int{0, 1, 2, 3, 4, 5, 6}, prefs)
	require.True(t, strings.HasPrefix(plan, "### Recommended Outdoor Time Windows"))
	require.Contains(t, plan, "| 2024-05-01 | 5:00 PM - 7:00 PM | Max 51°F / Min 41°F, precip 33.3% |")
	require.Contains(t, plan, "Max 53°F / Min N/A")
	require.NotContains(t, plan, "2024-05-06", "only five rows")
	require.Contains(t, plan, "### Weekly Summary")
	require.Empty(t, FindUngrounded(plan, facts, prefs))
}

func TestCorrectedPlanNote(t *testing.T) {
	facts := []forecast.DailyFact{{Date: "2024-05-01", TempMaxF: f(50), TempMinF: f(40), PrecipPct: f(5)}}
	plan := CorrectedPlan([]float64{57.3, 60}, facts, []int{0}, preferences.Preferences{})
	require.True(t, strings.HasPrefix(plan,
		"**Note:** Detected temperatures not present in the forecast (57.3, 60 °F). Showing a corrected plan using only exact forecast values.\n\n### Recommended"))
	require.Contains(t, plan, "| 2024-05-01 | 7:00 AM - 9:00 AM | Max 50°F / Min 40°F, precip 5% |")
}

func TestMessages(t *testing.T) {
	require.Equal(t,
		"No suitable outdoor windows found for the next 3 days given your preferences. Consider widening your temperature range or increasing max precipitation tolerance.",
		NoSuitableMessage(3))
	require.True(t, strings.HasSuffix(IndoorFallback("why"), "### Note\nwhy"))
}

func f(v float64) *float64 {
	return &v
}
