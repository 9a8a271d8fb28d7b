package vacation

import (
	"github.com/warp/roster-engine/calendar"
)

// DayPolicy decides whether a date can be requested. It returns nil for a
// bookable day and a *DayError otherwise.
type DayPolicy func(day calendar.Date) error

// BookableDays refuses dates before today, the closed weekday and
// holidays. A nil holidays calendar has no holidays; a nil today reads
// the wall clock.
func BookableDays(week calendar.WeekConfig, holidays calendar.HolidayCalendar, today func() calendar.Date) DayPolicy {
	if holidays == nil {
		holidays = calendar.NoHolidays{}
	}
	if today == nil {
		today = calendar.Today
	}
	return func(day calendar.Date) error {
		switch {
		case day.Before(today()):
			return &DayError{Date: day.ISO(), Reason: ReasonPast}
		case week.IsClosed(day):
			return &DayError{Date: day.ISO(), Reason: ReasonClosed}
		}
		if h, ok := holidays.HolidayFor(day); ok {
			return &DayError{Date: day.ISO(), Reason: ReasonHoliday, Holiday: h.Name}
		}
		return nil
	}
}
