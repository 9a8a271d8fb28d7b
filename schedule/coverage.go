package schedule

import (
	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// COVERAGE
// =============================================================================

type CoverageState string

const (
	CoverageClosed    CoverageState = "closed"
	CoverageHoliday   CoverageState = "holiday"
	CoverageEvaluated CoverageState = "evaluated"
)

type Warning string

const (
	NoWarning        Warning = ""
	WarningNone      Warning = "NONE"
	WarningNeedArmed Warning = "NEED ARMED"
)

// Coverage is the staffing verdict for one post on one day.
// Closed and holiday days are reported, not evaluated.
type Coverage struct {
	Location     roster.Location
	Date         calendar.Date
	State        CoverageState
	HolidayName  string
	Covering     []roster.Employee
	OK           bool
	Warning      Warning
	RoverPresent bool
}

// PostCoverage is one row of the coverage grid.
type PostCoverage struct {
	Location roster.Location
	Days     []Coverage
}

type Verifier struct {
	Week           calendar.WeekConfig
	Holidays       calendar.HolidayCalendar
	SupervisorPost string
}

func NewVerifier(holidays calendar.HolidayCalendar) Verifier {
	if holidays == nil {
		holidays = calendar.NoHolidays{}
	}
	return Verifier{
		Week:           calendar.DefaultWeek(),
		Holidays:       holidays,
		SupervisorPost: roster.SupervisorPost,
	}
}

// Check verifies one post on one day against the schedule.
// Covering is in roster order.
func (v Verifier) Check(loc roster.Location, day calendar.Date, employees []roster.Employee, s roster.Schedule) Coverage {
	cov := Coverage{Location: loc, Date: day}

	if v.Week.IsClosed(day) {
		cov.State = CoverageClosed
		return cov
	}
	if v.Holidays != nil {
		if h, ok := v.Holidays.HolidayFor(day); ok {
			cov.State = CoverageHoliday
			cov.HolidayName = h.Name
			return cov
		}
	}
	cov.State = CoverageEvaluated

	want := loc.Name
	if loc.SupervisorOnly {
		want = v.supervisorPost()
	}

	armed := false
	iso := day.ISO()
	for _, emp := range employees {
		c, ok := s.Cell(emp.ID, iso)
		if !ok || c.Status != roster.StatusWork || c.Location != want {
			continue
		}
		cov.Covering = append(cov.Covering, emp)
		armed = armed || emp.Armed
		cov.RoverPresent = cov.RoverPresent || emp.Role == roster.RoleRover
	}

	cov.OK = len(cov.Covering) > 0
	switch {
	case !cov.OK:
		cov.Warning = WarningNone
	case loc.Armed && !armed:
		cov.Warning = WarningNeedArmed
	}
	return cov
}

// Grid checks every post on every day of the week, posts in the given order.
func (v Verifier) Grid(locations []roster.Location, week calendar.Week, employees []roster.Employee, s roster.Schedule) []PostCoverage {
	out := make([]PostCoverage, 0, len(locations))
	for _, loc := range locations {
		row := PostCoverage{Location: loc, Days: make([]Coverage, 0, calendar.DaysPerWeek)}
		for _, day := range week {
			row.Days = append(row.Days, v.Check(loc, day, employees, s))
		}
		out = append(out, row)
	}
	return out
}

// Gaps returns the evaluated checks that carry a warning.
func Gaps(grid []PostCoverage) []Coverage {
	var out []Coverage
	for _, row := range grid {
		for _, c := range row.Days {
			if c.State == CoverageEvaluated && c.Warning != NoWarning {
				out = append(out, c)
			}
		}
	}
	return out
}

func (v Verifier) supervisorPost() string {
	if v.SupervisorPost == "" {
		return roster.SupervisorPost
	}
	return v.SupervisorPost
}
