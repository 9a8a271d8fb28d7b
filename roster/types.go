/*
Package roster holds the records the roster engine reads and produces.

PURPOSE:
  Employees and posts are the static inputs; a Schedule of Cells is the
  only output. Nothing here computes anything: the schedule package
  derives cells, the calendar package classifies days.

KEY CONCEPTS IN THIS FILE (types.go):
  - Role: supervisor, guard (regular post holder) or rover (floating relief)
  - Employee: a person with a role, an armed capability and a default post
  - Location: a post, possibly requiring an armed or supervisor assignment
  - Status: what an employee does on a given day
  - Cell: one employee's assignment for one day
  - Schedule: employee -> ISO date -> Cell

INVARIANTS (maintained by the generator, not by these types):
  - One Cell per employee per displayed day
  - Hours are zero for every status except work, unless manually overridden
  - A rover has no default location

SEE ALSO:
  - schedule/generator.go: builds a Schedule
  - validate.go: reports malformed rosters
*/
package roster

import "github.com/shopspring/decimal"

// SupervisorPost is the post every supervisor works.
const SupervisorPost = "Supervisor Post"

// OnCallLabel is the location a rover carries when no post needs relief.
const OnCallLabel = "On Call"

// =============================================================================
// EMPLOYEES & POSTS
// =============================================================================

type EmployeeID int

type Role string

const (
	RoleSupervisor Role = "supervisor"
	RoleGuard      Role = "guard"
	RoleRover      Role = "rover"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSupervisor, RoleGuard, RoleRover:
		return true
	}
	return false
}

type Employee struct {
	ID              EmployeeID
	Name            string
	Phone           string
	Role            Role
	Armed           bool
	DefaultLocation string // empty means absent
}

// HasDefaultLocation reports whether the employee owns a fixed post.
func (e Employee) HasDefaultLocation() bool { return e.DefaultLocation != "" }

type Location struct {
	Name           string
	Armed          bool // requires an armed employee
	SupervisorOnly bool // only satisfied by the supervisor post assignment
}

// =============================================================================
// STATUS & CELLS
// =============================================================================

type Status string

const (
	StatusWork     Status = "work"
	StatusVacation Status = "vacation"
	StatusHoliday  Status = "holiday"
	StatusNoWork   Status = "nowork"
	StatusOnCall   Status = "oncall"
	StatusClosed   Status = "closed"
)

// Statuses lists every status in cycle order.
var Statuses = []Status{StatusWork, StatusVacation, StatusHoliday, StatusNoWork, StatusOnCall, StatusClosed}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Cell is one employee's assignment on one day.
type Cell struct {
	Status      Status
	Location    string
	Hours       decimal.Decimal
	Time        string // shift time range, empty when not working
	HolidayName string
}

// =============================================================================
// SCHEDULE
// =============================================================================

// Schedule maps employee -> ISO date -> Cell.
type Schedule map[EmployeeID]map[string]Cell

// Cell returns the cell for an employee on a date.
// A missing cell is reported as absent, never as an error.
func (s Schedule) Cell(id EmployeeID, dateISO string) (Cell, bool) {
	days, ok := s[id]
	if !ok {
		return Cell{}, false
	}
	c, ok := days[dateISO]
	return c, ok
}

// Set stores a cell, creating the employee row if needed.
func (s Schedule) Set(id EmployeeID, dateISO string, c Cell) {
	days, ok := s[id]
	if !ok {
		days = make(map[string]Cell)
		s[id] = days
	}
	days[dateISO] = c
}

// Clone returns a deep copy.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for id, days := range s {
		row := make(map[string]Cell, len(days))
		for k, c := range days {
			row[k] = c
		}
		out[id] = row
	}
	return out
}
