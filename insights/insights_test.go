package insights_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/roster-engine/insights"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/schedule"
)

func TestBuild_PayloadShape(t *testing.T) {
	summary := []schedule.HoursSummary{
		{
			Employee: roster.Employee{ID: 2, Name: "Zieger, Ken", Role: roster.RoleGuard},
			Hours:    decimal.RequireFromString("42.5"),
			Overtime: decimal.RequireFromString("2.5"),
		},
	}

	p := insights.Build("2026-01-23..2026-01-29", summary, decimal.NewFromInt(40))

	data, err := json.Marshal(p.Entries)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Zieger, Ken","role":"guard","hours":42.5,"ot":2.5}]`, string(data))

	prompt, err := p.Prompt()
	require.NoError(t, err)
	assert.Contains(t, prompt, `"ot":2.5`)
	assert.Contains(t, prompt, "Target 40hrs")
}

func TestParseFeedback_EmbeddedObject(t *testing.T) {
	// GIVEN: A reply wrapping a JSON object with structured violations and recommendations
	// WHEN: Parsing it
	// THEN: Objects keep their fields and bare strings become the text field

	reply := "Here is my review:\n```json\n" +
		`{"summary": "Two guards over target",` +
		` "violations": [{"type": "overtime", "description": "Valerio 45h"}, "Zieger 42.5h", {"employee": "Romero"}],` +
		` "recommendations": [{"action": "swap", "reason": "balance"}, "Rotate Friday"]}` +
		"\n```\nLet me know."

	fb := insights.ParseFeedback(reply)

	assert.True(t, fb.Structured)
	assert.Equal(t, "Two guards over target", fb.Summary)
	assert.Equal(t, []insights.Violation{
		{Type: "overtime", Description: "Valerio 45h"},
		{Description: "Zieger 42.5h"},
		{Description: `{"employee":"Romero"}`},
	}, fb.Violations)
	assert.Equal(t, []insights.Recommendation{
		{Action: "swap", Reason: "balance"},
		{Reason: "Rotate Friday"},
	}, fb.Recommendations)
}

func TestParseFeedback_PlainTextFallback(t *testing.T) {
	fb := insights.ParseFeedback("  Everything looks balanced this week.  ")

	assert.False(t, fb.Structured)
	assert.Equal(t, "Everything looks balanced this week.", fb.Summary)
}

func TestParseFeedback_BrokenObjectFallback(t *testing.T) {
	reply := "Summary {not json at all}"

	fb := insights.ParseFeedback(reply)

	assert.False(t, fb.Structured)
	assert.Equal(t, reply, fb.Summary)
}
