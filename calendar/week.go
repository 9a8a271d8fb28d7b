package calendar

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaysPerWeek is the length of every displayed week.
const DaysPerWeek = 7

// =============================================================================
// WEEK CONFIG - Which days are closed, short, or full
// =============================================================================

// WeekConfig describes the shape of the operating week.
type WeekConfig struct {
	Start  time.Weekday // first day of the displayed week
	Closed time.Weekday // non-operating day, always zero hours
	Short  time.Weekday // reduced-hours day

	FullHours  decimal.Decimal
	ShortHours decimal.Decimal

	FullShift  string // shift literal for full days
	ShortShift string // shift literal for the short day
}

// DefaultWeek is the reference calendar: Friday through Thursday, closed
// Sunday, short Saturday.
func DefaultWeek() WeekConfig {
	return WeekConfig{
		Start:      time.Friday,
		Closed:     time.Sunday,
		Short:      time.Saturday,
		FullHours:  decimal.RequireFromString("8.5"),
		ShortHours: decimal.RequireFromString("5.5"),
		FullShift:  "0830-1730",
		ShortShift: "0830-1430",
	}
}

func (wc WeekConfig) IsClosed(d Date) bool { return d.Weekday() == wc.Closed }
func (wc WeekConfig) IsShort(d Date) bool  { return d.Weekday() == wc.Short }

// StandardHours returns the hours a worked day carries.
func (wc WeekConfig) StandardHours(d Date) decimal.Decimal {
	switch {
	case wc.IsClosed(d):
		return decimal.Zero
	case wc.IsShort(d):
		return wc.ShortHours
	default:
		return wc.FullHours
	}
}

// ShiftFor returns the shift time-range literal for a worked day.
func (wc WeekConfig) ShiftFor(d Date) string {
	if wc.IsShort(d) {
		return wc.ShortShift
	}
	return wc.FullShift
}

// Window returns the week containing anchor, starting on the latest
// Start weekday on or before it.
func (wc WeekConfig) Window(anchor Date) Week {
	offset := (int(anchor.Weekday()) - int(wc.Start) + DaysPerWeek) % DaysPerWeek
	start := anchor.AddDays(-offset)

	var w Week
	for i := range w {
		w[i] = start.AddDays(i)
	}
	return w
}

// =============================================================================
// WEEK - Seven consecutive dates
// =============================================================================

// Week is an ordered run of 7 consecutive dates.
type Week [DaysPerWeek]Date

func (w Week) Start() Date { return w[0] }
func (w Week) End() Date   { return w[DaysPerWeek-1] }

// Contains reports whether d falls inside the week, inclusive.
func (w Week) Contains(d Date) bool {
	return !d.Before(w.Start()) && !d.After(w.End())
}

// Next returns the following week.
func (w Week) Next() Week { return w.shift(DaysPerWeek) }

// Prev returns the preceding week.
func (w Week) Prev() Week { return w.shift(-DaysPerWeek) }

func (w Week) shift(n int) Week {
	var out Week
	for i, d := range w {
		out[i] = d.AddDays(n)
	}
	return out
}

// ISO returns the dates formatted as YYYY-MM-DD.
func (w Week) ISO() []string {
	out := make([]string, 0, DaysPerWeek)
	for _, d := range w {
		out = append(out, d.ISO())
	}
	return out
}

func (w Week) String() string {
	return "[" + w.Start().ISO() + ", " + w.End().ISO() + "]"
}
