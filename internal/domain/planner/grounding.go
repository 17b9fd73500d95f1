package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
	"github.com/yanqian/outdoor-planner/internal/domain/preferences"
	"github.com/yanqian/outdoor-planner/pkg/util"
)

const safePlanRows = 5

// The leading guard keeps the dash of a range such as "60-65°F" from reading as a minus sign.
var fahrenheitLiteral = regexp.MustCompile(`(?i)(?:^|[^\d.])(-?\d+(?:\.\d+)?)\s*°F`)

// FindUngrounded returns every °F literal in text that is neither a forecast temperature nor one
// of the user's own bounds. Values are rounded to one decimal, unique, in order of appearance.
func FindUngrounded(text string, facts []forecast.DailyFact, prefs preferences.Preferences) []float64 {
	allowed := make(map[string]struct{})
	for _, f := range facts {
		for _, v := range []*float64{f.TempMaxF, f.TempMinF} {
			if v != nil && util.IsFinite(*v) {
				allowed[tempKey(*v)] = struct{}{}
			}
		}
	}
	for _, v := range preferences.AllowedTemperatures(prefs) {
		allowed[tempKey(v)] = struct{}{}
	}

	var bad []float64
	seen := make(map[string]struct{})
	for _, m := range fahrenheitLiteral.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		key := tempKey(v)
		if _, ok := allowed[key]; ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		bad = append(bad, round1(v))
	}
	return bad
}

func tempKey(v float64) string {
	return strconv.FormatFloat(round1(v), 'f', 1, 64)
}

func round1(v float64) float64 {
	r := util.Round1(v)
	if r == 0 {
		return 0 // fold -0
	}
	return r
}

// CorrectedPlan prefixes SafePlan with a note listing the rejected values.
func CorrectedPlan(bad []float64, facts []forecast.DailyFact, suitable []int, prefs preferences.Preferences) string {
	values := make([]string, len(bad))
	for i, v := range bad {
		values[i] = util.FormatNumber(v)
	}
	return fmt.Sprintf("**Note:** Detected temperatures not present in the forecast (%s °F). "+
		"Showing a corrected plan using only exact forecast values.\n\n%s",
		strings.Join(values, ", "), SafePlan(facts, suitable, prefs))
}

// SafePlan renders a deterministic plan from the first suitable days using only forecast values.
func SafePlan(facts []forecast.DailyFact, suitable []int, prefs preferences.Preferences) string {
	window := timeWindow(prefs.PreferredTimes)
	var rows []string
	for _, i := range suitable {
		if len(rows) == safePlanRows {
			break
		}
		if i < 0 || i >= len(facts) {
			continue
		}
		f := facts[i]
		rows = append(rows, fmt.Sprintf("| %s | %s | Max %s / Min %s, precip %s |",
			f.Date, window, formatTemp(f.TempMaxF), formatTemp(f.TempMinF), formatPercent(f.PrecipPct)))
	}

	var b strings.Builder
	b.WriteString("### Recommended Outdoor Time Windows\n\n")
	b.WriteString("| Date | Time | Reason |\n")
	b.WriteString("| --- | --- | --- |\n")
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString("\n\n### Indoor Backup Options\n\n")
	b.WriteString("- Visit a local museum or gallery\n")
	b.WriteString("- Indoor treadmill / climbing gym\n\n")
	b.WriteString("### Weekly Summary\n\n")
	b.WriteString("Based on the forecast (exact values shown above), these are the best windows matching your preferences.")
	return b.String()
}

func timeWindow(t preferences.PreferredTimes) string {
	switch {
	case t.Morning:
		return "7:00 AM - 9:00 AM"
	case t.Afternoon:
		return "12:00 PM - 2:00 PM"
	case t.Evening:
		return "5:00 PM - 7:00 PM"
	default:
		return "7:00 AM - 9:00 AM"
	}
}

func formatTemp(v *float64) string {
	if v == nil || !util.IsFinite(*v) {
		return "N/A"
	}
	return util.FormatNumber(*v) + "°F"
}

func formatPercent(v *float64) string {
	if v == nil || !util.IsFinite(*v) {
		return "N/A"
	}
	return util.FormatNumber(util.Round1(*v)) + "%"
}

// IndoorFallback is the fixed indoor list shown when the model is unavailable or fails.
func IndoorFallback(note string) string {
	return "### Indoor Options (Only)\n\n" +
		"- Visit a local museum or gallery\n" +
		"- Indoor treadmill / climbing gym\n" +
		"- Aquatic center / indoor pool\n" +
		"- Public library maker space or study session\n\n" +
		"### Note\n" + note
}

// NoSuitableMessage explains an empty suitable-day set.
func NoSuitableMessage(days int) string {
	return fmt.Sprintf("No suitable outdoor windows found for the next %d days given your preferences. "+
		"Consider widening your temperature range or increasing max precipitation tolerance.", days)
}
