// Package seed loads roster reference data from YAML.
//
// The embedded default.yaml carries the reference roster, posts, rules and
// pre-approved vacations. A seed file may omit holidays, in which case the
// built-in federal table applies.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/rules"
	"github.com/warp/roster-engine/vacation"
)

//go:embed default.yaml
var defaultYAML []byte

type employeeRecord struct {
	ID              int    `yaml:"id"`
	Name            string `yaml:"name"`
	Phone           string `yaml:"phone"`
	Role            string `yaml:"role"`
	Armed           bool   `yaml:"armed"`
	DefaultLocation string `yaml:"default_location"`
}

type locationRecord struct {
	Name           string `yaml:"name"`
	Armed          bool   `yaml:"armed"`
	SupervisorOnly bool   `yaml:"supervisor_only"`
}

type ruleRecord struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Value       string `yaml:"value"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

type holidayRecord struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

type vacationRecord struct {
	EmployeeID int    `yaml:"employee_id"`
	Date       string `yaml:"date"`
	Status     string `yaml:"status"`
}

type file struct {
	Employees []employeeRecord `yaml:"employees"`
	Locations []locationRecord `yaml:"locations"`
	Rules     []ruleRecord     `yaml:"rules"`
	Holidays  []holidayRecord  `yaml:"holidays"`
	Vacations []vacationRecord `yaml:"vacations"`
}

// Data is a decoded seed file.
type Data struct {
	Employees []roster.Employee
	Locations []roster.Location
	Rules     []rules.Rule
	Holidays  []calendar.Holiday
	Vacations []vacation.Entry
}

// Default returns the embedded reference data.
func Default() (Data, error) {
	return Parse(defaultYAML)
}

// Load reads a seed file from disk.
func Load(path string) (Data, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("seed: read %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return Data{}, fmt.Errorf("seed: %s: %w", path, err)
	}
	return d, nil
}

// Parse decodes a seed payload. Roles, statuses and dates are checked;
// roster consistency is left to roster.Validate.
func Parse(data []byte) (Data, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Data{}, fmt.Errorf("seed: payload is empty")
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Data{}, fmt.Errorf("seed: decode: %w", err)
	}

	var out Data
	for _, e := range f.Employees {
		role := roster.Role(e.Role)
		if !role.Valid() {
			return Data{}, fmt.Errorf("seed: employee %d: %w %q", e.ID, roster.ErrInvalidRole, e.Role)
		}
		out.Employees = append(out.Employees, roster.Employee{
			ID:              roster.EmployeeID(e.ID),
			Name:            e.Name,
			Phone:           e.Phone,
			Role:            role,
			Armed:           e.Armed,
			DefaultLocation: e.DefaultLocation,
		})
	}

	for _, l := range f.Locations {
		out.Locations = append(out.Locations, roster.Location(l))
	}

	for _, r := range f.Rules {
		typ := rules.Type(r.Type)
		if typ == "" {
			typ = rules.TypeText
		}
		out.Rules = append(out.Rules, rules.Rule{
			ID:          r.ID,
			Name:        r.Name,
			Value:       r.Value,
			Type:        typ,
			Description: r.Description,
		})
	}
	if len(out.Rules) == 0 {
		out.Rules = rules.DefaultRules()
	}

	for _, h := range f.Holidays {
		d, err := calendar.ParseISO(h.Date)
		if err != nil {
			return Data{}, fmt.Errorf("seed: holiday %q: %w", h.Name, err)
		}
		out.Holidays = append(out.Holidays, calendar.Holiday{Date: d, Name: h.Name})
	}
	if len(out.Holidays) == 0 {
		out.Holidays = calendar.FederalHolidays()
	}

	for _, v := range f.Vacations {
		st := vacation.Status(v.Status)
		if !st.Valid() {
			return Data{}, fmt.Errorf("seed: vacation %d %s: %w %q", v.EmployeeID, v.Date, vacation.ErrInvalidStatus, v.Status)
		}
		if _, err := calendar.ParseISO(v.Date); err != nil {
			return Data{}, fmt.Errorf("seed: vacation %d: %w", v.EmployeeID, err)
		}
		out.Vacations = append(out.Vacations, vacation.Entry{
			EmployeeID: roster.EmployeeID(v.EmployeeID),
			Date:       v.Date,
			Status:     st,
		})
	}

	return out, nil
}
