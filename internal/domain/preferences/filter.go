package preferences

import (
	"fmt"
	"strings"

	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
	"github.com/yanqian/outdoor-planner/pkg/util"
)

// FilterSuitableDays returns the indices of facts that satisfy every present bound, ascending.
// A missing fact value never excludes a day on that axis.
func FilterSuitableDays(facts []forecast.DailyFact, p Preferences) []int {
	suitable := make([]int, 0, len(facts))
	for i, f := range facts {
		if p.MaxTemperatureF != nil && known(f.TempMaxF) && *f.TempMaxF > *p.MaxTemperatureF {
			continue
		}
		if p.MinTemperatureF != nil && known(f.TempMinF) && *f.TempMinF < *p.MinTemperatureF {
			continue
		}
		if known(f.PrecipPct) && *f.PrecipPct > p.MaxPrecipPercent {
			continue
		}
		suitable = append(suitable, i)
	}
	return suitable
}

// PromptLines renders the rules derived from p for the planning prompt.
func PromptLines(p Preferences) []string {
	var lines []string
	if p.MaxTemperatureF != nil {
		lines = append(lines, fmt.Sprintf("Max temperature: %s°F", util.FormatNumber(*p.MaxTemperatureF)))
	}
	if p.MinTemperatureF != nil {
		lines = append(lines, fmt.Sprintf("Min temperature: %s°F", util.FormatNumber(*p.MinTemperatureF)))
	}
	if p.AvoidWind {
		lines = append(lines, "Avoid wind: true")
	}
	if p.AvoidRain {
		lines = append(lines, "Avoid rain: true")
	}
	if p.AvoidSnow {
		lines = append(lines, "Avoid snow: true")
	}
	if parts := p.PreferredTimes.Parts(); len(parts) > 0 {
		lines = append(lines, "Preferred times: "+strings.Join(parts, ", "))
	}
	if len(p.Activities) > 0 {
		lines = append(lines, "Activities: "+strings.Join(p.Activities, ", "))
	}
	if p.MaxPrecipPercent != DefaultMaxPrecipPercent {
		lines = append(lines, fmt.Sprintf("Max precipitation chance: %s%%", util.FormatNumber(p.MaxPrecipPercent)))
	}
	return lines
}

// AllowedTemperatures returns the user's own bounds, rounded to one decimal.
func AllowedTemperatures(p Preferences) []float64 {
	var out []float64
	if p.MaxTemperatureF != nil {
		out = append(out, util.Round1(*p.MaxTemperatureF))
	}
	if p.MinTemperatureF != nil {
		out = append(out, util.Round1(*p.MinTemperatureF))
	}
	return out
}

func known(v *float64) bool {
	return v != nil && util.IsFinite(*v)
}
