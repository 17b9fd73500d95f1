package planner

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// ExtractStructured finds the trailing JSON payload in model output. Candidates start at each
// '{' from right to left and must run to the end of the text; the first one that decodes and
// carries a recommendations array or a noSuitable key wins. Field types are not enforced.
func ExtractStructured(text string) *StructuredPlan {
	text = trimTrailingFence(text)
	for pos := strings.LastIndexByte(text, '{'); pos >= 0; pos = strings.LastIndexByte(text[:pos], '{') {
		if plan, ok := parseCandidate(text[pos:]); ok {
			return plan
		}
	}
	return nil
}

func parseCandidate(candidate string) (*StructuredPlan, bool) {
	dec := json.NewDecoder(strings.NewReader(candidate))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}

	recs, hasRecs := fields["recommendations"]
	_, hasNoSuitable := fields["noSuitable"]
	isList := hasRecs && bytes.HasPrefix(bytes.TrimSpace(recs), []byte("["))
	if !isList && !hasNoSuitable {
		return nil, false
	}

	return decodePlan(fields), true
}

func decodePlan(fields map[string]json.RawMessage) *StructuredPlan {
	plan := &StructuredPlan{Summary: looseString(fields["summary"])}

	var recs []json.RawMessage
	_ = json.Unmarshal(fields["recommendations"], &recs)
	for _, raw := range recs {
		var rec map[string]json.RawMessage
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		plan.Recommendations = append(plan.Recommendations, Recommendation{
			Date:       looseString(rec["date"]),
			Start:      looseString(rec["start"]),
			End:        looseString(rec["end"]),
			Activity:   looseString(rec["activity"]),
			TempF:      verbatim(rec["tempF"]),
			PrecipPct:  verbatim(rec["precipPct"]),
			Conditions: looseString(rec["conditions"]),
		})
	}

	var options []json.RawMessage
	_ = json.Unmarshal(fields["indoorOptions"], &options)
	for _, raw := range options {
		if opt := looseString(raw); opt != "" {
			plan.IndoorOptions = append(plan.IndoorOptions, opt)
		}
	}

	var noSuitable bool
	if err := json.Unmarshal(fields["noSuitable"], &noSuitable); err == nil {
		plan.NoSuitable = &noSuitable
	}
	return plan
}

// looseString returns a JSON string's value, or the literal text of any other scalar.
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if raw[0] == '{' || raw[0] == '[' {
		return ""
	}
	return string(raw)
}

func verbatim(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

// trimTrailingFence drops a closing Markdown code fence the model may wrap the payload in.
func trimTrailingFence(text string) string {
	text = strings.TrimRight(text, " \t\r\n")
	if strings.HasSuffix(text, "```") {
		text = strings.TrimRight(strings.TrimSuffix(text, "```"), " \t\r\n")
	}
	return text
}
