/*
Package calendar provides the date arithmetic the roster engine runs on.

PURPOSE:
  Everything the generator needs to know about a day lives here: the
  7-day work-week window, which weekday is closed, which one is short,
  how many standard hours a day carries, and whether it is a holiday.

KEY CONCEPTS:
  - Date: a calendar day (UTC midnight, no time-of-day component)
  - WeekConfig: which weekday starts the week, which is closed, which is short
  - Week: an ordered run of 7 consecutive dates
  - HolidayCalendar: holiday lookup by exact date

DESIGN PRINCIPLES:
  1. Pure: no clock reads except Today(), no I/O
  2. Total: every function is defined for every valid Date
  3. Day granularity only: schedules never care about hours of the day

SEE ALSO:
  - week.go: WeekConfig, Week and standard hours
  - holiday.go: Holiday table and HolidayCalendar implementations
*/
package calendar

import (
	"fmt"
	"time"
)

// ISOLayout is the wire and map-key format for dates.
const ISOLayout = "2006-01-02"

// =============================================================================
// DATE - A calendar day
// =============================================================================

// Date is a calendar day normalized to UTC midnight.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime drops the time-of-day and location, keeping the wall-clock date.
func FromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return FromTime(time.Now())
}

// ParseISO parses a YYYY-MM-DD string.
func ParseISO(s string) (Date, error) {
	t, err := time.Parse(ISOLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return FromTime(t), nil
}

// MustParseISO panics on malformed input. Use for literals and tests.
func MustParseISO(s string) Date {
	d, err := ParseISO(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }

// Arithmetic
func (d Date) AddDays(n int) Date { return FromTime(d.Time.AddDate(0, 0, n)) }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }
func (d Date) ISO() string           { return d.Time.Format(ISOLayout) }
func (d Date) String() string        { return d.ISO() }

// DaysBetween returns the whole number of days from `from` to `to`.
// Negative when `to` is earlier.
func DaysBetween(from, to Date) int {
	return int(to.Time.Sub(from.Time).Hours() / 24)
}
