/*
handlers.go - HTTP API handlers for the roster engine

PURPOSE:
  Exposes the displayed week, its schedule, hours and coverage, plus the
  reference data and vacation requests behind them. Handles HTTP
  request/response and JSON serialization, and delegates to the Board,
  the vacation store and the SQLite store.

ENDPOINTS:
  Roster:
    GET    /api/employees                       List the roster
    GET    /api/employees/{id}                  One employee
    GET    /api/locations                       List posts
    GET    /api/roster/issues                   Roster consistency problems

  Week:
    GET    /api/week                            Dates, schedule, hours, coverage
    PUT    /api/week                            Move the displayed week
    GET    /api/week/plan                       Generator decisions per day
    GET    /api/schedule                        Schedule rows
    POST   /api/schedule/{employeeID}/{date}/cycle  Advance one cell
    GET    /api/hours                           Hours and overtime
    GET    /api/coverage                        Coverage grid (?gaps=true for gaps only)

  Reference data:
    GET    /api/rules                           List rules
    PUT    /api/rules/{key}                     Edit a rule value
    GET    /api/holidays                        List holidays (?year=)
    POST   /api/holidays                        Add or rename a holiday
    DELETE /api/holidays/{id}                   Remove a holiday

  Vacations:
    GET    /api/vacations                       Snapshot
    GET    /api/vacations/pending               Pending requests
    GET    /api/vacations/history               Audit trail
    POST   /api/vacations                       Request a bookable day
    POST   /api/vacations/{employeeID}/{date}/approve
    POST   /api/vacations/{employeeID}/{date}/deny
    DELETE /api/vacations/{employeeID}/{date}   Cancel

  Insights:
    GET    /api/insights/payload                Analysis request for the week
    POST   /api/insights/feedback               Parse an analysis reply

  Scenarios:
    GET    /api/scenarios                       List demo scenarios
    GET    /api/scenarios/current               Last loaded scenario
    POST   /api/scenarios/load                  Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, unbookable vacation day
  - 404: Resource not found
  - 409: Conflict (duplicate request, wrong status, capacity)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/insights"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/rules"
	"github.com/warp/roster-engine/schedule"
	"github.com/warp/roster-engine/store/sqlite"
	"github.com/warp/roster-engine/vacation"
)

// ActorHeader names the caller recorded in the vacation audit trail.
const ActorHeader = "X-Actor"

const defaultActor = "api"

// maxFeedbackBytes bounds the analysis reply accepted by the feedback endpoint.
const maxFeedbackBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// VacationStore is the request store plus its audit trail and bulk reload.
type VacationStore interface {
	vacation.Store
	History() []vacation.Event
	Replace(ctx context.Context, entries []vacation.Entry, actor string) (vacation.Snapshot, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Board     *schedule.Board
	Vacations VacationStore
	Rules     *rules.Registry
	Log       *zap.Logger

	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler wires the handler dependencies. A nil logger discards output.
func NewHandler(store *sqlite.Store, board *schedule.Board, vacations VacationStore, reg *rules.Registry, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Board:     board,
		Vacations: vacations,
		Rules:     reg,
		Log:       log,
	}
}

// =============================================================================
// ROSTER HANDLERS
// =============================================================================

// ListEmployees returns the roster in roster order.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees := h.Board.Employees()
	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := employeeParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id", err)
		return
	}
	emp, ok := h.Board.Employee(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// ListLocations returns the posts in display order.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations := h.Board.Locations()
	dtos := make([]LocationDTO, 0, len(locations))
	for _, l := range locations {
		dtos = append(dtos, toLocationDTO(l))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListIssues reports malformed roster data without correcting it.
func (h *Handler) ListIssues(w http.ResponseWriter, r *http.Request) {
	issues := roster.Validate(h.Board.Employees(), h.Board.Locations())
	writeJSON(w, http.StatusOK, NewIssuesResponse(issues))
}

// NewIssuesResponse converts validation results for output.
func NewIssuesResponse(issues []roster.Issue) []IssueDTO {
	dtos := make([]IssueDTO, 0, len(issues))
	for _, is := range issues {
		dtos = append(dtos, IssueDTO{
			EmployeeID: int(is.EmployeeID),
			Location:   is.Location,
			Message:    is.Error(),
		})
	}
	return dtos
}

// =============================================================================
// WEEK HANDLERS
// =============================================================================

// GetWeek returns the displayed week with everything derived from it.
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.weekResponse())
}

// SetWeek moves the displayed week to the one containing the anchor, or
// one week forward or back.
func (h *Handler) SetWeek(w http.ResponseWriter, r *http.Request) {
	var req SetWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	switch {
	case req.Anchor != "":
		anchor, err := calendar.ParseISO(req.Anchor)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid anchor format (use YYYY-MM-DD)", err)
			return
		}
		h.Board.SetWeek(anchor)
	case req.Step == "next":
		h.Board.NextWeek()
	case req.Step == "prev":
		h.Board.PrevWeek()
	default:
		writeError(w, http.StatusBadRequest, "Provide anchor or step (next|prev)", nil)
		return
	}

	writeJSON(w, http.StatusOK, h.weekResponse())
}

// GetPlan returns the generator's decision for each displayed day.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plans := h.Board.Plans()
	dtos := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		dtos = append(dtos, toPlanDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSchedule returns one row per employee.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	view := h.Board.View()
	writeJSON(w, http.StatusOK, scheduleRows(h.Board, view.Week, view.Schedule))
}

// CycleCell advances one cell to the next status.
// POST /api/schedule/{employeeID}/{date}/cycle
func (h *Handler) CycleCell(w http.ResponseWriter, r *http.Request) {
	id, day, err := employeeDateParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee or date", err)
		return
	}

	cell, changed, err := h.Board.Cycle(id, day)
	switch {
	case errors.Is(err, schedule.ErrUnknownEmployee):
		writeError(w, http.StatusNotFound, "Employee not found", err)
		return
	case errors.Is(err, schedule.ErrDateOutsideWeek):
		writeError(w, http.StatusBadRequest, "Date is not in the displayed week", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to cycle cell", err)
		return
	}

	writeJSON(w, http.StatusOK, CycleResponse{
		Cell:    toCellDTO(day.ISO(), cell, h.Board.IsOverridden(id, day.ISO())),
		Changed: changed,
	})
}

// GetHours returns hours and overtime per employee.
func (h *Handler) GetHours(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewHoursResponse(h.Board))
}

// GetCoverage returns the coverage grid, or only the failing cells when
// gaps=true.
func (h *Handler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	gaps, _ := strconv.ParseBool(r.URL.Query().Get("gaps"))
	writeJSON(w, http.StatusOK, NewCoverageResponse(h.Board, gaps))
}

// NewHoursResponse lists hours and overtime for the displayed week.
func NewHoursResponse(b *schedule.Board) []HoursDTO {
	return toHoursDTOs(b.Hours())
}

// NewCoverageResponse returns the grid rows, or the flat gap list when
// gapsOnly is set.
func NewCoverageResponse(b *schedule.Board, gapsOnly bool) any {
	grid := b.Coverage()
	if !gapsOnly {
		return toCoverageRows(grid)
	}
	missing := schedule.Gaps(grid)
	dtos := make([]CoverageDTO, 0, len(missing))
	for _, c := range missing {
		dtos = append(dtos, toCoverageDTO(c))
	}
	return dtos
}

func (h *Handler) weekResponse() WeekResponse { return NewWeekResponse(h.Board) }

// NewWeekResponse reads the board's displayed week as one response.
func NewWeekResponse(b *schedule.Board) WeekResponse {
	view := b.View()
	days := make([]DayDTO, 0, calendar.DaysPerWeek)
	for _, p := range b.Plans() {
		days = append(days, DayDTO{
			Date:        p.Date.ISO(),
			Weekday:     weekdayName(p.Date),
			Closed:      p.Closed,
			Short:       p.Short,
			HolidayName: p.HolidayName,
		})
	}

	return WeekResponse{
		Start:           view.Week.Start().ISO(),
		End:             view.Week.End().ISO(),
		Days:            days,
		Schedule:        scheduleRows(b, view.Week, view.Schedule),
		Hours:           toHoursDTOs(view.Hours),
		Coverage:        toCoverageRows(view.Coverage),
		VacationVersion: view.VacationVersion,
		Overrides:       view.Overrides,
	}
}

func scheduleRows(b *schedule.Board, week calendar.Week, s roster.Schedule) []ScheduleRowDTO {
	employees := b.Employees()
	rows := make([]ScheduleRowDTO, 0, len(employees))
	for _, e := range employees {
		row := ScheduleRowDTO{
			EmployeeID: int(e.ID),
			Name:       e.Name,
			Role:       string(e.Role),
			Cells:      make([]CellDTO, 0, calendar.DaysPerWeek),
		}
		for _, iso := range week.ISO() {
			c, ok := s.Cell(e.ID, iso)
			if !ok {
				continue
			}
			row.Cells = append(row.Cells, toCellDTO(iso, c, b.IsOverridden(e.ID, iso)))
		}
		rows = append(rows, row)
	}
	return rows
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// ListRules returns the editable rules in order.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rs := h.Rules.Rules()
	dtos := make([]RuleDTO, 0, len(rs))
	for _, rule := range rs {
		dtos = append(dtos, toRuleDTO(rule))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateRule changes one rule value and persists it.
// PUT /api/rules/{key} - key may be the rule key or its display name
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	key, err := rules.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Rule not found", err)
		return
	}

	var req UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	value := strings.TrimSpace(req.Value)
	if key.Type() == rules.TypeNumber {
		if _, err := decimal.NewFromString(value); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a number", key.Name()), err)
			return
		}
	}

	if h.Store != nil {
		if err := h.Store.SaveRule(r.Context(), rules.Rule{Key: key, Value: value, Type: key.Type()}); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save rule", err)
			return
		}
	}
	rule, err := h.Rules.Set(key, value)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update rule", err)
		return
	}

	h.Log.Info("rule updated", zap.String("key", string(key)), zap.String("value", value))
	writeJSON(w, http.StatusOK, toRuleDTO(rule))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns stored holidays, optionally for one year.
// GET /api/holidays?year=2026
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	records, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(records))
	for _, rec := range records {
		if year != 0 && rec.Date.Year() != year {
			continue
		}
		dtos = append(dtos, toHolidayDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday, or renames the one already on that date,
// and regenerates the displayed week.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day, err := calendar.ParseISO(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Holiday name is required", nil)
		return
	}

	id, err := h.Store.SaveHoliday(r.Context(), calendar.Holiday{Date: day, Name: name})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	h.Board.Regenerate("holidays")

	writeJSON(w, http.StatusCreated, HolidayDTO{ID: id, Date: day.ISO(), Name: name})
}

// DeleteHoliday removes a holiday and regenerates the displayed week.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sqlite.ErrHolidayNotFound) {
		writeError(w, http.StatusNotFound, "Holiday not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	h.Board.Regenerate("holidays")
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// VACATION HANDLERS
// =============================================================================

// ListVacations returns every request in the current snapshot.
func (h *Handler) ListVacations(w http.ResponseWriter, r *http.Request) {
	snap := h.Vacations.Snapshot()
	writeJSON(w, http.StatusOK, VacationListResponse{
		Version:  snap.Version(),
		Requests: h.vacationDTOs(snap.Entries()),
	})
}

// ListPendingVacations returns requests awaiting a decision.
func (h *Handler) ListPendingVacations(w http.ResponseWriter, r *http.Request) {
	snap := h.Vacations.Snapshot()
	writeJSON(w, http.StatusOK, VacationListResponse{
		Version:  snap.Version(),
		Requests: h.vacationDTOs(snap.Pending()),
	})
}

// ListVacationHistory returns the audit trail, oldest first.
func (h *Handler) ListVacationHistory(w http.ResponseWriter, r *http.Request) {
	events := h.Vacations.History()
	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, toEventDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateVacation records a pending request.
func (h *Handler) CreateVacation(w http.ResponseWriter, r *http.Request) {
	var req CreateVacationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day, err := calendar.ParseISO(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	id := roster.EmployeeID(req.EmployeeID)
	if _, ok := h.Board.Employee(id); !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	snap, err := h.Vacations.Request(r.Context(), id, day, actor(r))
	if err != nil {
		writeVacationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.vacationDTO(snap, id, day.ISO()))
}

// ApproveVacation approves a pending request.
func (h *Handler) ApproveVacation(w http.ResponseWriter, r *http.Request) {
	h.decideVacation(w, r, h.Vacations.Approve)
}

// DenyVacation denies a pending request.
func (h *Handler) DenyVacation(w http.ResponseWriter, r *http.Request) {
	h.decideVacation(w, r, h.Vacations.Deny)
}

// CancelVacation withdraws a request in any state.
func (h *Handler) CancelVacation(w http.ResponseWriter, r *http.Request) {
	id, day, err := employeeDateParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee or date", err)
		return
	}
	if _, err := h.Vacations.Cancel(r.Context(), id, day, actor(r)); err != nil {
		writeVacationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type vacationMutation func(ctx context.Context, employee roster.EmployeeID, day calendar.Date, actor string) (vacation.Snapshot, error)

func (h *Handler) decideVacation(w http.ResponseWriter, r *http.Request, apply vacationMutation) {
	id, day, err := employeeDateParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee or date", err)
		return
	}
	snap, err := apply(r.Context(), id, day, actor(r))
	if err != nil {
		writeVacationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.vacationDTO(snap, id, day.ISO()))
}

func (h *Handler) vacationDTO(snap vacation.Snapshot, id roster.EmployeeID, iso string) VacationDTO {
	st, _ := snap.Status(id, iso)
	return h.vacationDTOs([]vacation.Entry{{EmployeeID: id, Date: iso, Status: st}})[0]
}

func (h *Handler) vacationDTOs(entries []vacation.Entry) []VacationDTO {
	out := make([]VacationDTO, 0, len(entries))
	for _, e := range entries {
		dto := VacationDTO{EmployeeID: int(e.EmployeeID), Date: e.Date, Status: string(e.Status)}
		if emp, ok := h.Board.Employee(e.EmployeeID); ok {
			dto.EmployeeName = emp.Name
		}
		out = append(out, dto)
	}
	return out
}

func writeVacationError(w http.ResponseWriter, err error) {
	switch {
	case vacation.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Vacation request not found", err)
	case vacation.IsNotBookable(err):
		writeError(w, http.StatusBadRequest, "Day cannot be requested", err)
	case vacation.IsConflict(err):
		writeError(w, http.StatusConflict, "Vacation request conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "Vacation store failure", err)
	}
}

// =============================================================================
// INSIGHTS HANDLERS
// =============================================================================

// GetInsightsPayload returns the analysis request for the displayed week.
func (h *Handler) GetInsightsPayload(w http.ResponseWriter, r *http.Request) {
	view := h.Board.View()
	payload := insights.Build(view.Week.String(), view.Hours, h.Rules.Number(rules.TargetWeeklyHours))
	prompt, err := payload.Prompt()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render prompt", err)
		return
	}
	writeJSON(w, http.StatusOK, InsightsPayloadResponse{Payload: payload, Prompt: prompt})
}

// ParseInsightsFeedback reads an analysis reply. JSON bodies carry the
// reply in "reply"; any other body is the reply itself.
func (h *Handler) ParseInsightsFeedback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFeedbackBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}

	reply := string(body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req FeedbackRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		reply = req.Reply
	}

	writeJSON(w, http.StatusOK, insights.ParseFeedback(reply))
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeParam(r *http.Request, name string) (roster.EmployeeID, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("employee id %q: %w", chi.URLParam(r, name), err)
	}
	return roster.EmployeeID(n), nil
}

func employeeDateParams(r *http.Request) (roster.EmployeeID, calendar.Date, error) {
	id, err := employeeParam(r, "employeeID")
	if err != nil {
		return 0, calendar.Date{}, err
	}
	day, err := calendar.ParseISO(chi.URLParam(r, "date"))
	if err != nil {
		return 0, calendar.Date{}, err
	}
	return id, day, nil
}

func actor(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get(ActorHeader)); a != "" {
		return a
	}
	return defaultActor
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
