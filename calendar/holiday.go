package calendar

import "sort"

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// Holiday is a non-operating day that overrides every assignment.
type Holiday struct {
	Date Date
	Name string
}

// HolidayCalendar provides holiday lookup by exact date.
type HolidayCalendar interface {
	// HolidayFor returns the holiday on d, if any.
	HolidayFor(d Date) (Holiday, bool)

	// HolidaysIn returns every holiday in the given year, ordered by date.
	HolidaysIn(year int) []Holiday
}

// NoHolidays is a calendar without holidays.
type NoHolidays struct{}

func (NoHolidays) HolidayFor(Date) (Holiday, bool) { return Holiday{}, false }
func (NoHolidays) HolidaysIn(int) []Holiday        { return nil }

// StaticCalendar is an in-memory holiday table keyed by ISO date.
type StaticCalendar struct {
	byDate map[string]Holiday
}

func NewStaticCalendar(holidays []Holiday) *StaticCalendar {
	sc := &StaticCalendar{byDate: make(map[string]Holiday, len(holidays))}
	for _, h := range holidays {
		sc.byDate[h.Date.ISO()] = h
	}
	return sc
}

func (sc *StaticCalendar) HolidayFor(d Date) (Holiday, bool) {
	h, ok := sc.byDate[d.ISO()]
	return h, ok
}

func (sc *StaticCalendar) HolidaysIn(year int) []Holiday {
	var out []Holiday
	for _, h := range sc.byDate {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FederalHolidays is the observed federal holiday table for 2026 and 2027.
func FederalHolidays() []Holiday {
	table := []struct{ date, name string }{
		{"2026-01-01", "New Year's Day"},
		{"2026-01-19", "MLK Day"},
		{"2026-02-16", "Presidents' Day"},
		{"2026-05-25", "Memorial Day"},
		{"2026-06-19", "Juneteenth"},
		{"2026-07-03", "Independence Day"},
		{"2026-09-07", "Labor Day"},
		{"2026-10-12", "Columbus Day"},
		{"2026-11-11", "Veterans Day"},
		{"2026-11-26", "Thanksgiving"},
		{"2026-12-25", "Christmas"},

		{"2027-01-01", "New Year's Day"},
		{"2027-01-18", "MLK Day"},
		{"2027-02-15", "Presidents' Day"},
		{"2027-05-31", "Memorial Day"},
		{"2027-06-19", "Juneteenth"},
		{"2027-07-05", "Independence Day"},
		{"2027-09-06", "Labor Day"},
		{"2027-10-11", "Columbus Day"},
		{"2027-11-11", "Veterans Day"},
		{"2027-11-25", "Thanksgiving"},
		{"2027-12-25", "Christmas"},
	}

	out := make([]Holiday, 0, len(table))
	for _, row := range table {
		out = append(out, Holiday{Date: MustParseISO(row.date), Name: row.name})
	}
	return out
}
