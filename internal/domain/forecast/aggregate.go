package forecast

import (
	"sort"
	"strings"

	"github.com/yanqian/outdoor-planner/pkg/util"
)

type dayBucket struct {
	temps   []float64
	precips []float64
}

// Aggregate collapses hourly series into one fact per calendar date, ascending.
// Celsius payloads are converted to Fahrenheit. It never fails; empty in, empty out.
func Aggregate(raw RawForecast) []DailyFact {
	hourly := raw.Hourly
	if len(hourly.Time) == 0 {
		return []DailyFact{}
	}
	celsius := IsCelsius(raw)

	buckets := make(map[string]*dayBucket)
	for i, ts := range hourly.Time {
		date := datePart(ts)
		if date == "" {
			continue
		}
		b, ok := buckets[date]
		if !ok {
			b = &dayBucket{}
			buckets[date] = b
		}
		if v, ok := valueAt(hourly.Temperature2m, i); ok {
			b.temps = append(b.temps, v)
		}
		if v, ok := valueAt(hourly.PrecipitationProbability, i); ok {
			b.precips = append(b.precips, v)
		}
	}

	dates := make([]string, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	facts := make([]DailyFact, 0, len(dates))
	for _, d := range dates {
		b := buckets[d]
		fact := DailyFact{Date: d}
		if len(b.temps) > 0 {
			lo, hi := b.temps[0], b.temps[0]
			for _, t := range b.temps[1:] {
				if t < lo {
					lo = t
				}
				if t > hi {
					hi = t
				}
			}
			if celsius {
				lo, hi = CelsiusToFahrenheit(lo), CelsiusToFahrenheit(hi)
			}
			fact.TempMaxF = &hi
			fact.TempMinF = &lo
		}
		if len(b.precips) > 0 {
			var sum float64
			for _, p := range b.precips {
				sum += p
			}
			mean := sum / float64(len(b.precips))
			fact.PrecipPct = &mean
		}
		facts = append(facts, fact)
	}
	return facts
}

// Columns turns facts into the column-oriented Slim view.
func Columns(facts []DailyFact) Slim {
	s := Slim{
		Dates:  make([]string, 0, len(facts)),
		TMax:   make([]*float64, 0, len(facts)),
		TMin:   make([]*float64, 0, len(facts)),
		Precip: make([]*float64, 0, len(facts)),
	}
	for _, f := range facts {
		s.Dates = append(s.Dates, f.Date)
		s.TMax = append(s.TMax, f.TempMaxF)
		s.TMin = append(s.TMin, f.TempMinF)
		s.Precip = append(s.Precip, f.PrecipPct)
	}
	return s
}

// CelsiusToFahrenheit converts and rounds to one decimal.
func CelsiusToFahrenheit(c float64) float64 {
	return util.Round1(c*9/5 + 32)
}

// ReportedUnit returns the provider's declared temperature unit, or "".
func ReportedUnit(raw RawForecast) string {
	return strings.TrimSpace(raw.HourlyUnits.Temperature2m)
}

// IsCelsius reports whether the provider declared a Celsius temperature series.
func IsCelsius(raw RawForecast) bool {
	return strings.Contains(strings.ToLower(ReportedUnit(raw)), "c")
}

// datePart keeps the calendar date of an ISO-ish timestamp ("2024-05-01T13:00" -> "2024-05-01").
func datePart(ts string) string {
	ts = strings.TrimSpace(ts)
	if i := strings.IndexAny(ts, "T "); i >= 0 {
		ts = ts[:i]
	}
	return ts
}

func valueAt(series []*float64, i int) (float64, bool) {
	if i >= len(series) || series[i] == nil {
		return 0, false
	}
	v := *series[i]
	if !util.IsFinite(v) {
		return 0, false
	}
	return v, true
}
