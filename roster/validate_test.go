package roster_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/roster-engine/roster"
)

func TestValidate_CleanRoster(t *testing.T) {
	employees := []roster.Employee{
		{ID: 1, Role: roster.RoleSupervisor, DefaultLocation: roster.SupervisorPost},
		{ID: 2, Role: roster.RoleGuard, DefaultLocation: "Gate"},
		{ID: 3, Role: roster.RoleRover},
	}
	locations := []roster.Location{{Name: "Gate"}, {Name: roster.SupervisorPost, SupervisorOnly: true}}

	assert.Empty(t, roster.Validate(employees, locations))
}

func TestValidate_ReportsWithoutCorrecting(t *testing.T) {
	// GIVEN: A rover with a post, a duplicate ID and an unknown post
	// WHEN: Validating
	// THEN: Each problem is reported and the input is untouched

	employees := []roster.Employee{
		{ID: 3, Role: roster.RoleRover, DefaultLocation: "Gate"},
		{ID: 3, Role: roster.RoleGuard, DefaultLocation: "Nowhere"},
		{ID: 9, Role: "janitor"},
	}
	locations := []roster.Location{{Name: "Gate"}, {Name: "Gate"}}

	issues := roster.Validate(employees, locations)

	var errs []error
	for _, is := range issues {
		errs = append(errs, is)
	}
	joined := errors.Join(errs...)
	assert.ErrorIs(t, joined, roster.ErrDuplicateLocation)
	assert.ErrorIs(t, joined, roster.ErrRoverWithPost)
	assert.ErrorIs(t, joined, roster.ErrDuplicateEmployee)
	assert.ErrorIs(t, joined, roster.ErrMissingPost)
	assert.ErrorIs(t, joined, roster.ErrInvalidRole)

	assert.Equal(t, "Gate", employees[0].DefaultLocation)
}

func TestIssue_Error(t *testing.T) {
	is := roster.Issue{EmployeeID: 3, Location: "Gate", Err: roster.ErrRoverWithPost}
	assert.Equal(t, "employee 3: rover has a default location", is.Error())

	loc := roster.Issue{Location: "Gate", Err: roster.ErrDuplicateLocation}
	assert.Equal(t, `location "Gate": duplicate location name`, loc.Error())
}

func TestSchedule_CellAndClone(t *testing.T) {
	s := roster.Schedule{}
	_, ok := s.Cell(1, "2026-01-16")
	assert.False(t, ok)

	s.Set(1, "2026-01-16", roster.Cell{Status: roster.StatusWork, Location: "Gate"})
	clone := s.Clone()
	clone.Set(1, "2026-01-16", roster.Cell{Status: roster.StatusNoWork})

	c, ok := s.Cell(1, "2026-01-16")
	require.True(t, ok)
	assert.Equal(t, roster.StatusWork, c.Status)
}

func TestStatus_Valid(t *testing.T) {
	for _, st := range roster.Statuses {
		assert.True(t, st.Valid())
	}
	assert.False(t, roster.Status("sick").Valid())
	assert.False(t, roster.Role("janitor").Valid())
}
