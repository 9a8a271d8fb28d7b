/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine types carry
  decimals and calendar dates; the wire carries plain numbers and ISO
  strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Roster:    EmployeeDTO, LocationDTO, IssueDTO
  Week:      WeekResponse, DayDTO, PlanDTO, ScheduleRowDTO, CellDTO
  Numbers:   HoursDTO, CoverageRowDTO, CoverageDTO
  Rules:     RuleDTO, UpdateRuleRequest
  Holidays:  HolidayDTO, CreateHolidayRequest
  Vacations: VacationDTO, VacationListResponse, CreateVacationRequest, EventDTO
  Insights:  InsightsPayloadResponse, FeedbackRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/insights"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/rules"
	"github.com/warp/roster-engine/schedule"
	"github.com/warp/roster-engine/store/sqlite"
	"github.com/warp/roster-engine/vacation"
)

// =============================================================================
// ROSTER
// =============================================================================

type EmployeeDTO struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Phone           string `json:"phone,omitempty"`
	Role            string `json:"role"`
	Armed           bool   `json:"armed"`
	DefaultLocation string `json:"default_location,omitempty"`
}

type LocationDTO struct {
	Name           string `json:"name"`
	Armed          bool   `json:"armed"`
	SupervisorOnly bool   `json:"supervisor_only"`
}

// IssueDTO is one roster consistency problem.
type IssueDTO struct {
	EmployeeID int    `json:"employee_id,omitempty"`
	Location   string `json:"location,omitempty"`
	Message    string `json:"message"`
}

func toEmployeeDTO(e roster.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:              int(e.ID),
		Name:            e.Name,
		Phone:           e.Phone,
		Role:            string(e.Role),
		Armed:           e.Armed,
		DefaultLocation: e.DefaultLocation,
	}
}

func toLocationDTO(l roster.Location) LocationDTO {
	return LocationDTO{Name: l.Name, Armed: l.Armed, SupervisorOnly: l.SupervisorOnly}
}

// =============================================================================
// WEEK & SCHEDULE
// =============================================================================

// DayDTO classifies one displayed day.
type DayDTO struct {
	Date        string `json:"date"`
	Weekday     string `json:"weekday"`
	Closed      bool   `json:"closed"`
	Short       bool   `json:"short"`
	HolidayName string `json:"holiday_name,omitempty"`
}

type CellDTO struct {
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	Location    string  `json:"location,omitempty"`
	Hours       float64 `json:"hours"`
	Time        string  `json:"time,omitempty"`
	HolidayName string  `json:"holiday_name,omitempty"`
	Overridden  bool    `json:"overridden,omitempty"`
}

// ScheduleRowDTO is one employee's week, cells in date order.
type ScheduleRowDTO struct {
	EmployeeID int       `json:"employee_id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Cells      []CellDTO `json:"cells"`
}

type WeekResponse struct {
	Start           string           `json:"start"`
	End             string           `json:"end"`
	Days            []DayDTO         `json:"days"`
	Schedule        []ScheduleRowDTO `json:"schedule"`
	Hours           []HoursDTO       `json:"hours"`
	Coverage        []CoverageRowDTO `json:"coverage"`
	VacationVersion uint64           `json:"vacation_version"`
	Overrides       int              `json:"overrides"`
}

// SetWeekRequest moves the displayed week. Anchor wins over Step.
type SetWeekRequest struct {
	Anchor string `json:"anchor,omitempty"`
	Step   string `json:"step,omitempty"` // "next" or "prev"
}

type NeedDTO struct {
	EmployeeID int    `json:"employee_id"`
	Location   string `json:"location"`
	Reason     string `json:"reason"`
}

// PlanDTO exposes the generator's decision for one day.
type PlanDTO struct {
	Date          string    `json:"date"`
	Closed        bool      `json:"closed"`
	Short         bool      `json:"short"`
	HolidayName   string    `json:"holiday_name,omitempty"`
	NeedsCoverage []NeedDTO `json:"needs_coverage"`
	Available     []int     `json:"available"`
	RotationOff   *int      `json:"rotation_off,omitempty"`
	RoverTarget   string    `json:"rover_target,omitempty"`
}

type CycleResponse struct {
	Cell    CellDTO `json:"cell"`
	Changed bool    `json:"changed"`
}

func toCellDTO(date string, c roster.Cell, overridden bool) CellDTO {
	return CellDTO{
		Date:        date,
		Status:      string(c.Status),
		Location:    c.Location,
		Hours:       c.Hours.InexactFloat64(),
		Time:        c.Time,
		HolidayName: c.HolidayName,
		Overridden:  overridden,
	}
}

func toPlanDTO(p schedule.DayPlan) PlanDTO {
	dto := PlanDTO{
		Date:          p.Date.ISO(),
		Closed:        p.Closed,
		Short:         p.Short,
		HolidayName:   p.HolidayName,
		NeedsCoverage: make([]NeedDTO, 0, len(p.NeedsCoverage)),
		Available:     make([]int, 0, len(p.Available)),
		RoverTarget:   p.RoverTarget,
	}
	for _, n := range p.NeedsCoverage {
		dto.NeedsCoverage = append(dto.NeedsCoverage, NeedDTO{
			EmployeeID: int(n.Employee),
			Location:   n.Location,
			Reason:     string(n.Reason),
		})
	}
	for _, id := range p.Available {
		dto.Available = append(dto.Available, int(id))
	}
	if p.HasRotationOff {
		off := int(p.RotationOff)
		dto.RotationOff = &off
	}
	return dto
}

// =============================================================================
// HOURS & COVERAGE
// =============================================================================

type HoursDTO struct {
	EmployeeID int     `json:"employee_id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	Hours      float64 `json:"hours"`
	Overtime   float64 `json:"overtime"`
	Target     float64 `json:"target"`
	Deviation  float64 `json:"deviation"`
}

type CoverageDTO struct {
	Location     string   `json:"location"`
	Date         string   `json:"date"`
	State        string   `json:"state"`
	HolidayName  string   `json:"holiday_name,omitempty"`
	Covering     []string `json:"covering"`
	OK           bool     `json:"ok"`
	Warning      string   `json:"warning,omitempty"`
	RoverPresent bool     `json:"rover_present"`
}

type CoverageRowDTO struct {
	Location LocationDTO   `json:"location"`
	Days     []CoverageDTO `json:"days"`
}

func toHoursDTOs(summary []schedule.HoursSummary) []HoursDTO {
	out := make([]HoursDTO, 0, len(summary))
	for _, s := range summary {
		out = append(out, HoursDTO{
			EmployeeID: int(s.Employee.ID),
			Name:       s.Employee.Name,
			Role:       string(s.Employee.Role),
			Hours:      s.Hours.InexactFloat64(),
			Overtime:   s.Overtime.InexactFloat64(),
			Target:     s.Target.InexactFloat64(),
			Deviation:  s.Deviation.InexactFloat64(),
		})
	}
	return out
}

func toCoverageDTO(c schedule.Coverage) CoverageDTO {
	names := make([]string, 0, len(c.Covering))
	for _, e := range c.Covering {
		names = append(names, e.Name)
	}
	return CoverageDTO{
		Location:     c.Location.Name,
		Date:         c.Date.ISO(),
		State:        string(c.State),
		HolidayName:  c.HolidayName,
		Covering:     names,
		OK:           c.OK,
		Warning:      string(c.Warning),
		RoverPresent: c.RoverPresent,
	}
}

func toCoverageRows(grid []schedule.PostCoverage) []CoverageRowDTO {
	out := make([]CoverageRowDTO, 0, len(grid))
	for _, row := range grid {
		days := make([]CoverageDTO, 0, len(row.Days))
		for _, c := range row.Days {
			days = append(days, toCoverageDTO(c))
		}
		out = append(out, CoverageRowDTO{Location: toLocationDTO(row.Location), Days: days})
	}
	return out
}

// =============================================================================
// RULES & HOLIDAYS
// =============================================================================

type RuleDTO struct {
	ID          int    `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type UpdateRuleRequest struct {
	Value string `json:"value"`
}

func toRuleDTO(r rules.Rule) RuleDTO {
	return RuleDTO{
		ID:          r.ID,
		Key:         string(r.Key),
		Name:        r.Name,
		Value:       r.Value,
		Type:        string(r.Type),
		Description: r.Description,
	}
}

type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func toHolidayDTO(h sqlite.HolidayRecord) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.ISO(), Name: h.Name}
}

// =============================================================================
// VACATIONS
// =============================================================================

type VacationDTO struct {
	EmployeeID   int    `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	Date         string `json:"date"`
	Status       string `json:"status"`
}

type VacationListResponse struct {
	Version  uint64        `json:"version"`
	Requests []VacationDTO `json:"requests"`
}

type CreateVacationRequest struct {
	EmployeeID int    `json:"employee_id"`
	Date       string `json:"date"`
}

// EventDTO is one audit record.
type EventDTO struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	Actor      string `json:"actor"`
	EmployeeID int    `json:"employee_id"`
	Date       string `json:"date"`
	Status     string `json:"status,omitempty"`
	Version    uint64 `json:"version"`
	At         string `json:"at"`
}

func toEventDTO(e vacation.Event) EventDTO {
	return EventDTO{
		ID:         e.ID,
		Action:     string(e.Action),
		Actor:      e.Actor,
		EmployeeID: int(e.EmployeeID),
		Date:       e.Date,
		Status:     string(e.Status),
		Version:    e.Version,
		At:         e.At.Format(time.RFC3339),
	}
}

// =============================================================================
// INSIGHTS
// =============================================================================

type InsightsPayloadResponse struct {
	Payload insights.Payload `json:"payload"`
	Prompt  string           `json:"prompt"`
}

// FeedbackRequest carries the collaborator's raw reply.
type FeedbackRequest struct {
	Reply string `json:"reply"`
}

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func weekdayName(d calendar.Date) string { return d.Weekday().String() }
