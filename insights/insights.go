/*
Package insights prepares the weekly hours payload for narrative analysis
and reads the analysis back.

PURPOSE:
  A language-model service reviews the week's hours and answers in free
  text that usually embeds a JSON object. This package builds the request
  body and parses the reply best-effort. Making the call is left to the
  caller.

REPLY PARSING:
  1. Take the span from the first '{' to the last '}'
  2. Decode it as {summary, violations, recommendations}; violations are
     {type, description} and recommendations {action, reason}, with bare
     strings kept as the description or reason
  3. When there is no such span, or it does not decode, the whole reply
     becomes the summary

SEE ALSO:
  - schedule/hours.go: the numbers in the payload
  - api/handlers.go: GET /api/insights/payload, POST /api/insights/feedback
*/
package insights

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/roster-engine/schedule"
)

// Entry is one employee's line in the payload.
type Entry struct {
	Name  string  `json:"name"`
	Role  string  `json:"role"`
	Hours float64 `json:"hours"`
	OT    float64 `json:"ot"`
}

// Payload is the analysis request for one week.
type Payload struct {
	Week    string  `json:"week"`
	Target  float64 `json:"target"`
	Entries []Entry `json:"entries"`
}

// Build turns an hours summary into a payload.
func Build(week string, summary []schedule.HoursSummary, target decimal.Decimal) Payload {
	p := Payload{
		Week:    week,
		Target:  target.InexactFloat64(),
		Entries: make([]Entry, 0, len(summary)),
	}
	for _, s := range summary {
		p.Entries = append(p.Entries, Entry{
			Name:  s.Employee.Name,
			Role:  string(s.Employee.Role),
			Hours: s.Hours.InexactFloat64(),
			OT:    s.Overtime.InexactFloat64(),
		})
	}
	return p
}

// Prompt renders the instruction sent with the payload.
func (p Payload) Prompt() (string, error) {
	data, err := json.Marshal(p.Entries)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return fmt.Sprintf(
		"Analyze schedule hours: %s. Target %shrs. Give JSON with violations, recommendations, summary.",
		data, decimal.NewFromFloat(p.Target).String(),
	), nil
}

// =============================================================================
// FEEDBACK
// =============================================================================

// Violation is one rule breach the analysis reports.
type Violation struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description"`
}

// Recommendation is one suggested change.
type Recommendation struct {
	Action string `json:"action,omitempty"`
	Reason string `json:"reason"`
}

// Feedback is the parsed analysis. Structured is false when the reply
// carried no decodable object and Summary holds the raw text.
type Feedback struct {
	Summary         string           `json:"summary"`
	Violations      []Violation      `json:"violations,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Structured      bool             `json:"structured"`
}

type rawFeedback struct {
	Summary         json.RawMessage   `json:"summary"`
	Violations      []json.RawMessage `json:"violations"`
	Recommendations []json.RawMessage `json:"recommendations"`
}

// ParseFeedback extracts feedback from a free-form reply. It never fails.
func ParseFeedback(reply string) Feedback {
	fallback := Feedback{Summary: strings.TrimSpace(reply)}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return fallback
	}

	var raw rawFeedback
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return fallback
	}

	fb := Feedback{Summary: text(raw.Summary), Structured: true}
	for _, v := range raw.Violations {
		if viol, ok := violation(v); ok {
			fb.Violations = append(fb.Violations, viol)
		}
	}
	for _, v := range raw.Recommendations {
		if rec, ok := recommendation(v); ok {
			fb.Recommendations = append(fb.Recommendations, rec)
		}
	}
	return fb
}

// violation decodes {type, description}. A non-object element, or an
// object without either field, becomes the description text.
func violation(v json.RawMessage) (Violation, bool) {
	var out Violation
	if isObject(v) && json.Unmarshal(v, &out) == nil && (out.Type != "" || out.Description != "") {
		return out, true
	}
	out = Violation{Description: text(v)}
	return out, out.Description != ""
}

// recommendation decodes {action, reason} the same way.
func recommendation(v json.RawMessage) (Recommendation, bool) {
	var out Recommendation
	if isObject(v) && json.Unmarshal(v, &out) == nil && (out.Action != "" || out.Reason != "") {
		return out, true
	}
	out = Recommendation{Reason: text(v)}
	return out, out.Reason != ""
}

func isObject(v json.RawMessage) bool {
	trimmed := bytes.TrimSpace(v)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// text renders a JSON value as plain text: strings unquoted, anything
// else compacted.
func text(v json.RawMessage) string {
	if len(v) == 0 || string(v) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}
