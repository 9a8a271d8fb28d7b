/*
Package schedule derives weekly rosters and verifies post coverage.

PURPOSE:
  Turn the static roster, the week calendar and a vacation snapshot into
  one Cell per employee per day, then answer the questions operators ask
  of it: how many hours, how much overtime, which posts are uncovered.

HOW A DAY IS BUILT (generator.go):
  1. Classify the day: closed, short, holiday
  2. Partition guards: those on approved vacation who own a post need
     coverage; the rest are available (only on open, non-holiday days)
  3. On a regular working day with no vacation gap, rotate one available
     guard onto a day off, indexed from a fixed epoch
  4. The rover works the post of the first guard needing coverage
  5. Assign cells, first match wins:
     closed > holiday > approved vacation > supervisor > rover >
     rotation day off > guard at default post

  Generation is a pure function of its inputs. Days are independent.

SEE ALSO:
  - hours.go: weekly hours and overtime
  - coverage.go: post x day verification
  - cycle.go: manual status overrides
  - board.go: holds the current week and regenerates on change
*/
package schedule

import (
	"github.com/shopspring/decimal"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
)

// DefaultRotationEpoch anchors the rotation day-off index.
var DefaultRotationEpoch = calendar.NewDate(2026, 1, 1)

// VacationLookup answers whether an employee has approved vacation on a date.
// vacation.Snapshot satisfies it.
type VacationLookup interface {
	IsApproved(employee roster.EmployeeID, dateISO string) bool
}

// NoVacations is a VacationLookup with no approved requests.
type NoVacations struct{}

func (NoVacations) IsApproved(roster.EmployeeID, string) bool { return false }

// =============================================================================
// DAY PLAN
// =============================================================================

type Reason string

const (
	ReasonVacation Reason = "vacation"
	ReasonRotation Reason = "rotation"
)

// CoverageNeed is a guard whose post is short that day.
type CoverageNeed struct {
	Employee roster.EmployeeID
	Location string
	Reason   Reason
}

// DayPlan is the classification and staffing decision for one day.
type DayPlan struct {
	Date        calendar.Date
	Closed      bool
	Short       bool
	Holiday     bool
	HolidayName string

	// NeedsCoverage lists vacation gaps in roster order, then the rotation entry.
	NeedsCoverage []CoverageNeed
	Available     []roster.EmployeeID

	RotationOff    roster.EmployeeID
	HasRotationOff bool

	// RoverTarget is empty when no post needs relief.
	RoverTarget string
}

// =============================================================================
// GENERATOR
// =============================================================================

type Generator struct {
	Week           calendar.WeekConfig
	Holidays       calendar.HolidayCalendar
	RotationEpoch  calendar.Date
	SupervisorPost string
}

// NewGenerator returns a generator on the reference week with the given holidays.
func NewGenerator(holidays calendar.HolidayCalendar) Generator {
	if holidays == nil {
		holidays = calendar.NoHolidays{}
	}
	return Generator{
		Week:           calendar.DefaultWeek(),
		Holidays:       holidays,
		RotationEpoch:  DefaultRotationEpoch,
		SupervisorPost: roster.SupervisorPost,
	}
}

// Generate builds the schedule for every employee over the week.
// Employees are taken in the given order; that order decides which
// vacation gap the rover fills.
func (g Generator) Generate(employees []roster.Employee, requests VacationLookup, week calendar.Week) roster.Schedule {
	if requests == nil {
		requests = NoVacations{}
	}

	s := make(roster.Schedule, len(employees))
	for _, emp := range employees {
		s[emp.ID] = make(map[string]roster.Cell, calendar.DaysPerWeek)
	}

	for _, day := range week {
		plan := g.Plan(employees, requests, day)
		for _, emp := range employees {
			s.Set(emp.ID, day.ISO(), g.cellFor(emp, plan, requests))
		}
	}
	return s
}

// Plan classifies one day and decides rotation and rover placement.
func (g Generator) Plan(employees []roster.Employee, requests VacationLookup, day calendar.Date) DayPlan {
	if requests == nil {
		requests = NoVacations{}
	}

	plan := DayPlan{
		Date:   day,
		Closed: g.Week.IsClosed(day),
		Short:  g.Week.IsShort(day),
	}
	if h, ok := g.holidays().HolidayFor(day); ok {
		plan.Holiday = true
		plan.HolidayName = h.Name
	}

	iso := day.ISO()
	var available []roster.Employee
	for _, emp := range employees {
		if emp.Role != roster.RoleGuard {
			continue
		}
		switch {
		case requests.IsApproved(emp.ID, iso) && emp.HasDefaultLocation():
			plan.NeedsCoverage = append(plan.NeedsCoverage, CoverageNeed{
				Employee: emp.ID,
				Location: emp.DefaultLocation,
				Reason:   ReasonVacation,
			})
		case !plan.Closed && !plan.Holiday:
			available = append(available, emp)
			plan.Available = append(plan.Available, emp.ID)
		}
	}

	if !plan.Closed && !plan.Short && !plan.Holiday && len(plan.NeedsCoverage) == 0 && len(available) > 0 {
		off := available[g.rotationIndex(day, len(available))]
		plan.RotationOff = off.ID
		plan.HasRotationOff = true
		plan.NeedsCoverage = append(plan.NeedsCoverage, CoverageNeed{
			Employee: off.ID,
			Location: off.DefaultLocation,
			Reason:   ReasonRotation,
		})
	}

	if len(plan.NeedsCoverage) > 0 {
		plan.RoverTarget = plan.NeedsCoverage[0].Location
	}
	return plan
}

// rotationIndex is floor-mod of whole days since the epoch, so dates
// before the epoch still land in [0, n).
func (g Generator) rotationIndex(day calendar.Date, n int) int {
	epoch := g.RotationEpoch
	if epoch.IsZero() {
		epoch = DefaultRotationEpoch
	}
	i := calendar.DaysBetween(epoch, day) % n
	if i < 0 {
		i += n
	}
	return i
}

func (g Generator) cellFor(emp roster.Employee, plan DayPlan, requests VacationLookup) roster.Cell {
	day := plan.Date
	switch {
	case plan.Closed:
		return roster.Cell{Status: roster.StatusClosed, Hours: decimal.Zero}
	case plan.Holiday:
		return roster.Cell{Status: roster.StatusHoliday, Hours: decimal.Zero, HolidayName: plan.HolidayName}
	case requests.IsApproved(emp.ID, day.ISO()):
		return roster.Cell{Status: roster.StatusVacation, Hours: decimal.Zero}
	}

	switch emp.Role {
	case roster.RoleSupervisor:
		return g.workCell(g.supervisorPost(), day)
	case roster.RoleRover:
		if plan.RoverTarget != "" {
			return g.workCell(plan.RoverTarget, day)
		}
		return roster.Cell{Status: roster.StatusOnCall, Location: roster.OnCallLabel, Hours: decimal.Zero}
	}

	if plan.HasRotationOff && plan.RotationOff == emp.ID {
		return roster.Cell{Status: roster.StatusNoWork, Hours: decimal.Zero}
	}
	return g.workCell(emp.DefaultLocation, day)
}

func (g Generator) workCell(location string, day calendar.Date) roster.Cell {
	return roster.Cell{
		Status:   roster.StatusWork,
		Location: location,
		Hours:    g.Week.StandardHours(day),
		Time:     g.Week.ShiftFor(day),
	}
}

func (g Generator) holidays() calendar.HolidayCalendar {
	if g.Holidays == nil {
		return calendar.NoHolidays{}
	}
	return g.Holidays
}

func (g Generator) supervisorPost() string {
	if g.SupervisorPost == "" {
		return roster.SupervisorPost
	}
	return g.SupervisorPost
}
