package schedule_test

import (
	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/schedule"
)

// approvals is a VacationLookup built from employee -> approved ISO dates.
type approvals map[roster.EmployeeID][]string

func (a approvals) IsApproved(id roster.EmployeeID, iso string) bool {
	for _, d := range a[id] {
		if d == iso {
			return true
		}
	}
	return false
}

func referenceEmployees() []roster.Employee {
	return []roster.Employee{
		{ID: 1, Name: "Jorgensen, Colin", Role: roster.RoleSupervisor, Armed: true, DefaultLocation: roster.SupervisorPost},
		{ID: 2, Name: "Zieger, Ken", Role: roster.RoleGuard, DefaultLocation: "5025 W Baseline Rd"},
		{ID: 3, Name: "De Los Reyes, Harvey", Role: roster.RoleRover, Armed: true},
		{ID: 4, Name: "Dimodica, David", Role: roster.RoleGuard, DefaultLocation: "4303 W. Olive"},
		{ID: 5, Name: "Gonzalez, Manuel", Role: roster.RoleGuard, DefaultLocation: "7723 W. Thomas"},
		{ID: 6, Name: "Goodlow, Ernest", Role: roster.RoleGuard, DefaultLocation: "5755 N 19th Ave"},
		{ID: 7, Name: "Romero, Gilberto", Role: roster.RoleGuard, DefaultLocation: "6026 S. 7th Ave"},
		{ID: 8, Name: "Valerio, Kevin", Role: roster.RoleGuard, Armed: true, DefaultLocation: "5401 W. Indian School"},
	}
}

func referenceLocations() []roster.Location {
	return []roster.Location{
		{Name: "5401 W. Indian School", Armed: true},
		{Name: "5025 W Baseline Rd"},
		{Name: "4303 W. Olive"},
		{Name: "6026 S. 7th Ave"},
		{Name: "7723 W. Thomas"},
		{Name: "5755 N 19th Ave"},
		{Name: roster.SupervisorPost, SupervisorOnly: true},
	}
}

// referenceApprovals mirrors the seeded vacation data.
func referenceApprovals() approvals {
	return approvals{
		4: {"2026-01-16", "2026-01-17"},
		7: {"2026-01-20", "2026-01-21", "2026-01-22"},
	}
}

func referenceGenerator() schedule.Generator {
	return schedule.NewGenerator(calendar.NewStaticCalendar(calendar.FederalHolidays()))
}

func referenceVerifier() schedule.Verifier {
	return schedule.NewVerifier(calendar.NewStaticCalendar(calendar.FederalHolidays()))
}

// weekOf returns the reference window containing the ISO date.
func weekOf(iso string) calendar.Week {
	return calendar.DefaultWeek().Window(calendar.MustParseISO(iso))
}
