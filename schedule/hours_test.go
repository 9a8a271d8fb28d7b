package schedule_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/rules"
	"github.com/warp/roster-engine/schedule"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWeeklyHours_SumsCells(t *testing.T) {
	// GIVEN: The reference week with MLK Day and employee 4 off on Fri/Sat
	// WHEN: Summing hours
	// THEN: Full days give 8.5, Saturday 5.5, Sunday/holiday/vacation 0

	week := weekOf("2026-01-16")
	s := referenceGenerator().Generate(referenceEmployees(), referenceApprovals(), week)

	assert.True(t, schedule.WeeklyHours(s, 2, week).Equal(dec("39.5")))
	assert.True(t, schedule.WeeklyHours(s, 4, week).Equal(dec("25.5")))
	assert.True(t, schedule.WeeklyHours(s, 7, week).Equal(dec("14")))
	assert.True(t, schedule.WeeklyHours(s, 3, week).Equal(dec("39.5")))

	for _, emp := range referenceEmployees() {
		sum := decimal.Zero
		for _, iso := range week.ISO() {
			c, _ := s.Cell(emp.ID, iso)
			sum = sum.Add(c.Hours)
		}
		assert.True(t, schedule.WeeklyHours(s, emp.ID, week).Equal(sum))
	}
}

func TestWeeklyHours_MissingCellsCountZero(t *testing.T) {
	week := weekOf("2026-01-16")
	s := roster.Schedule{}
	s.Set(2, "2026-01-16", roster.Cell{Status: roster.StatusWork, Hours: dec("8.5")})

	assert.True(t, schedule.WeeklyHours(s, 2, week).Equal(dec("8.5")))
	assert.True(t, schedule.WeeklyHours(s, 99, week).IsZero())
}

func TestOvertime_UsesThreshold(t *testing.T) {
	week := weekOf("2026-01-16")
	s := referenceGenerator().Generate(referenceEmployees(), referenceApprovals(), week)

	reg := rules.NewRegistry(rules.DefaultRules())
	assert.True(t, schedule.Overtime(s, 2, week, reg).IsZero())

	_, err := reg.Set(rules.MaxWeeklyHours, "30")
	require.NoError(t, err)
	assert.True(t, schedule.Overtime(s, 2, week, reg).Equal(dec("9.5")))

	// Below threshold is never negative
	assert.True(t, schedule.Overtime(s, 7, week, reg).IsZero())
}

func TestOvertime_DefaultThreshold(t *testing.T) {
	// GIVEN: A schedule with 42.5 hours and no usable rule
	// THEN: The 40-hour default applies
	week := weekOf("2026-01-23")
	s := roster.Schedule{}
	for _, iso := range week.ISO()[:5] {
		s.Set(1, iso, roster.Cell{Status: roster.StatusWork, Hours: dec("8.5")})
	}

	assert.True(t, schedule.Overtime(s, 1, week, nil).Equal(dec("2.5")))

	var missing *rules.Registry
	assert.True(t, schedule.Overtime(s, 1, week, missing).Equal(dec("2.5")))

	bad := rules.NewRegistry([]rules.Rule{{Key: rules.MaxWeeklyHours, Value: "lots"}})
	assert.True(t, schedule.Overtime(s, 1, week, bad).Equal(dec("2.5")))
}

func TestSummarize_RosterOrderAndDeviation(t *testing.T) {
	week := weekOf("2026-01-16")
	s := referenceGenerator().Generate(referenceEmployees(), referenceApprovals(), week)

	reg := rules.NewRegistry(rules.DefaultRules())
	_, err := reg.Set(rules.TargetWeeklyHours, "32")
	require.NoError(t, err)

	summary := schedule.Summarize(s, referenceEmployees(), week, reg)
	require.Len(t, summary, 8)
	for i, emp := range referenceEmployees() {
		assert.Equal(t, emp.ID, summary[i].Employee.ID)
	}

	david := summary[3]
	assert.True(t, david.Hours.Equal(dec("25.5")))
	assert.True(t, david.Target.Equal(dec("32")))
	assert.True(t, david.Deviation.Equal(dec("-6.5")))
	assert.True(t, david.Overtime.IsZero())
}
