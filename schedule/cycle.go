package schedule

import (
	"github.com/shopspring/decimal"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// STATUS CYCLE
// =============================================================================
//
//   work → vacation → holiday → nowork → oncall ─┐
//    ▲                                           │
//    └───────────────── (closed skipped) ────────┘
//
// closed is reachable only through generation and cannot be cycled away.

// Next returns the status after current. It returns false when current is
// closed. Unknown statuses advance as if they preceded work.
func Next(current roster.Status) (roster.Status, bool) {
	if current == roster.StatusClosed {
		return current, false
	}

	idx := -1
	for i, s := range roster.Statuses {
		if s == current {
			idx = i
			break
		}
	}

	next := roster.Statuses[(idx+1)%len(roster.Statuses)]
	if next == roster.StatusClosed {
		next = roster.StatusWork
	}
	return next, true
}

// Cycle advances a cell one step, recomputing hours for the new status and
// keeping location, time and holiday name. A missing cell cycles as if it
// were work. Returns false, with the input unchanged, on a closed cell.
func Cycle(c roster.Cell, present bool, day calendar.Date, wc calendar.WeekConfig) (roster.Cell, bool) {
	current := c.Status
	if !present || current == "" {
		current = roster.StatusWork
	}

	next, ok := Next(current)
	if !ok {
		return c, false
	}

	c.Status = next
	if next == roster.StatusWork {
		c.Hours = wc.StandardHours(day)
	} else {
		c.Hours = decimal.Zero
	}
	return c, true
}
