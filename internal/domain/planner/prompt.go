package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
	"github.com/yanqian/outdoor-planner/internal/domain/preferences"
	"github.com/yanqian/outdoor-planner/internal/infra/llm/chatgpt"
)

const (
	defaultUserID   = "demo-user-1"
	defaultQuestion = "Plan my week for two runs and a picnic."

	defaultPlanPrompt = "You are an outdoor activity planner. Use Fahrenheit (°F) for all temperatures.\n" +
		"Produce two outputs:\n" +
		"1. A concise Markdown plan with a table showing recommended times and a brief summary.\n" +
		"   - Only include indoor backup options if more than 50% of the days have unsuitable weather\n" +
		"   - For each time slot, indicate if there's rain/snow expected (when precipitation > 30%)\n" +
		"2. On a new line, output this exact JSON schema:\n" +
		"{\n  \"recommendations\": [{\n" +
		"    \"date\": \"YYYY-MM-DD\",\n" +
		"    \"start\": \"HH:MM\",\n" +
		"    \"end\": \"HH:MM\",\n" +
		"    \"activity\": \"string\",\n" +
		"    \"tempF\": number,\n" +
		"    \"precipPct\": number,\n" +
		"    \"conditions\": \"clear|rain|snow\"\n" +
		"  }],\n" +
		"  \"indoorOptions\": [\"string\"],\n" +
		"  \"summary\": \"string\",\n" +
		"  \"noSuitable\": false\n" +
		"}\n" +
		"- Set conditions to 'snow' if tempF ≤ 32 and precipPct > 30%\n" +
		"- Set conditions to 'rain' if tempF > 32 and precipPct > 30%\n" +
		"- Set conditions to 'clear' otherwise\n" +
		"- Only include indoorOptions if suggesting indoor alternatives\n" +
		"Only use numbers from facts array or user preferences. Place JSON on its own line."

	defaultIndoorPrompt = "You are an activity planner. Return **indoor-only** options tailored to the city and user preferences. " +
		"Do NOT include outdoor time windows. Provide 3-6 specific suggestions with brief reasons and " +
		"addresses/neighborhoods when possible. End with a 2-3 sentence summary. Output Markdown only."
)

func (s *service) planMessages(city, question string, facts []forecast.DailyFact, prefs preferences.Preferences) ([]chatgpt.Message, error) {
	grounding := make([]promptFact, len(facts))
	for i, f := range facts {
		grounding[i] = promptFact{Day: i, Date: f.Date, TempMaxF: f.TempMaxF, TempMinF: f.TempMinF, PrecipPct: f.PrecipPct}
	}
	encoded, err := json.Marshal(grounding)
	if err != nil {
		return nil, fmt.Errorf("encode facts: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "City: %s\n", displayCity(city))
	b.WriteString("Prefs (°F unless noted):\n")
	for _, line := range preferences.PromptLines(prefs) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Question: %s\n", question)
	fmt.Fprintf(&b, "facts: %s", encoded)

	return []chatgpt.Message{
		{Role: "system", Content: s.cfg.PlanPrompt},
		{Role: "user", Content: b.String()},
	}, nil
}

func (s *service) indoorMessages(city, question string, rawPrefs json.RawMessage) []chatgpt.Message {
	prefs := strings.TrimSpace(string(rawPrefs))
	if prefs == "" {
		prefs = "{}"
	}
	user := fmt.Sprintf("City: %s\nPrefs: %s\nQuestion: %s", displayCity(city), prefs, question)
	return []chatgpt.Message{
		{Role: "system", Content: s.cfg.IndoorPrompt},
		{Role: "user", Content: user},
	}
}

func displayCity(city string) string {
	if strings.TrimSpace(city) == "" {
		return "unknown"
	}
	return city
}
