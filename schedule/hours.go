package schedule

import (
	"github.com/shopspring/decimal"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/rules"
)

// Thresholds supplies numeric rule values. *rules.Registry satisfies it.
// A nil Thresholds yields every key's default.
type Thresholds interface {
	Number(key rules.Key) decimal.Decimal
}

// HoursSummary is one employee's week in numbers.
type HoursSummary struct {
	Employee  roster.Employee
	Hours     decimal.Decimal
	Overtime  decimal.Decimal
	Target    decimal.Decimal
	Deviation decimal.Decimal // Hours - Target; negative when under
}

// WeeklyHours sums the employee's cell hours over the week.
// Days without a cell count as zero.
func WeeklyHours(s roster.Schedule, employee roster.EmployeeID, week calendar.Week) decimal.Decimal {
	total := decimal.Zero
	for _, day := range week {
		if c, ok := s.Cell(employee, day.ISO()); ok {
			total = total.Add(c.Hours)
		}
	}
	return total
}

// Overtime is weekly hours above the MaxWeeklyHours threshold, never negative.
func Overtime(s roster.Schedule, employee roster.EmployeeID, week calendar.Week, th Thresholds) decimal.Decimal {
	return overtimeOf(WeeklyHours(s, employee, week), threshold(th, rules.MaxWeeklyHours))
}

// Summarize reports hours, overtime and target deviation in roster order.
func Summarize(s roster.Schedule, employees []roster.Employee, week calendar.Week, th Thresholds) []HoursSummary {
	limit := threshold(th, rules.MaxWeeklyHours)
	target := threshold(th, rules.TargetWeeklyHours)

	out := make([]HoursSummary, 0, len(employees))
	for _, emp := range employees {
		hours := WeeklyHours(s, emp.ID, week)
		out = append(out, HoursSummary{
			Employee:  emp,
			Hours:     hours,
			Overtime:  overtimeOf(hours, limit),
			Target:    target,
			Deviation: hours.Sub(target),
		})
	}
	return out
}

func overtimeOf(hours, limit decimal.Decimal) decimal.Decimal {
	if ot := hours.Sub(limit); ot.IsPositive() {
		return ot
	}
	return decimal.Zero
}

func threshold(th Thresholds, key rules.Key) decimal.Decimal {
	if th == nil {
		return key.Default()
	}
	if reg, ok := th.(*rules.Registry); ok && reg == nil {
		return key.Default()
	}
	return th.Number(key)
}
