package roster

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateEmployee = errors.New("duplicate employee id")
	ErrDuplicateLocation = errors.New("duplicate location name")
	ErrInvalidRole       = errors.New("invalid role")
	ErrRoverWithPost     = errors.New("rover has a default location")
	ErrMissingPost       = errors.New("default location is not a known post")
)

// Issue describes one data-integrity problem in a roster.
type Issue struct {
	EmployeeID EmployeeID
	Location   string
	Err        error
}

func (i Issue) Error() string {
	if i.Location != "" && i.EmployeeID == 0 {
		return fmt.Sprintf("location %q: %v", i.Location, i.Err)
	}
	return fmt.Sprintf("employee %d: %v", i.EmployeeID, i.Err)
}

func (i Issue) Unwrap() error { return i.Err }

// Validate reports malformed roster data. It never corrects anything:
// the generator's behavior on malformed data is left as-is.
func Validate(employees []Employee, locations []Location) []Issue {
	var issues []Issue

	posts := make(map[string]bool, len(locations))
	for _, loc := range locations {
		if posts[loc.Name] {
			issues = append(issues, Issue{Location: loc.Name, Err: ErrDuplicateLocation})
		}
		posts[loc.Name] = true
	}

	seen := make(map[EmployeeID]bool, len(employees))
	for _, e := range employees {
		if seen[e.ID] {
			issues = append(issues, Issue{EmployeeID: e.ID, Err: ErrDuplicateEmployee})
		}
		seen[e.ID] = true

		if !e.Role.Valid() {
			issues = append(issues, Issue{EmployeeID: e.ID, Err: fmt.Errorf("%w: %q", ErrInvalidRole, e.Role)})
			continue
		}
		if e.Role == RoleRover && e.HasDefaultLocation() {
			issues = append(issues, Issue{EmployeeID: e.ID, Location: e.DefaultLocation, Err: ErrRoverWithPost})
		}
		if e.HasDefaultLocation() && len(posts) > 0 && !posts[e.DefaultLocation] {
			issues = append(issues, Issue{EmployeeID: e.ID, Location: e.DefaultLocation, Err: ErrMissingPost})
		}
	}
	return issues
}
