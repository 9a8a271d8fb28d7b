/*
handlers_test.go - HTTP tests for the roster API

Tests run against the full chi router with an in-memory SQLite store
seeded from the reference data, the reference week on display.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/insights"
	"github.com/warp/roster-engine/rules"
	"github.com/warp/roster-engine/schedule"
	"github.com/warp/roster-engine/seed"
	"github.com/warp/roster-engine/store/sqlite"
	"github.com/warp/roster-engine/vacation"
)

type testEnv struct {
	handler *Handler
	router  http.Handler
	store   *sqlite.Store
}

func setupTestHandler(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	data, err := seed.Default()
	require.NoError(t, err)
	_, err = store.SeedIfEmpty(ctx, data)
	require.NoError(t, err)

	rs, err := store.ListRules(ctx)
	require.NoError(t, err)
	reg := rules.NewRegistry(rs)

	vacations := vacation.NewMemory(
		vacation.WithCapacity(func() int { return reg.Int(rules.MaxVacationSameDay) }),
		vacation.WithDayPolicy(vacation.BookableDays(calendar.DefaultWeek(), store, func() calendar.Date {
			return calendar.MustParseISO("2026-01-16")
		})),
	)
	_, err = vacations.Seed(ctx, data.Vacations, "seed")
	require.NoError(t, err)

	board := schedule.NewBoard(schedule.BoardConfig{
		Generator: schedule.NewGenerator(store),
		Verifier:  schedule.NewVerifier(store),
		Employees: data.Employees,
		Locations: data.Locations,
		Rules:     reg,
	}, calendar.MustParseISO("2026-01-16"))
	t.Cleanup(board.Follow(vacations))

	h := NewHandler(store, board, vacations, reg, nil)
	return &testEnv{handler: h, router: NewRouter(h, RouterOptions{}), store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func cellOf(rows []ScheduleRowDTO, id int, date string) (CellDTO, bool) {
	for _, row := range rows {
		if row.EmployeeID != id {
			continue
		}
		for _, c := range row.Cells {
			if c.Date == date {
				return c, true
			}
		}
	}
	return CellDTO{}, false
}

// =============================================================================
// ROSTER
// =============================================================================

func TestListEmployees_RosterOrder(t *testing.T) {
	env := setupTestHandler(t)

	rec := env.do(t, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[[]EmployeeDTO](t, rec)
	require.Len(t, got, 8)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, "supervisor", got[0].Role)
	assert.Equal(t, "rover", got[2].Role)
	assert.Empty(t, got[2].DefaultLocation)
}

func TestGetEmployee(t *testing.T) {
	env := setupTestHandler(t)

	rec := env.do(t, http.MethodGet, "/api/employees/8", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[EmployeeDTO](t, rec).Armed)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/employees/42", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/employees/abc", nil).Code)
}

func TestListLocationsAndIssues(t *testing.T) {
	env := setupTestHandler(t)

	locs := decode[[]LocationDTO](t, env.do(t, http.MethodGet, "/api/locations", nil))
	require.Len(t, locs, 7)
	assert.True(t, locs[0].Armed)
	assert.True(t, locs[6].SupervisorOnly)

	issues := decode[[]IssueDTO](t, env.do(t, http.MethodGet, "/api/roster/issues", nil))
	assert.Empty(t, issues)
}

// =============================================================================
// WEEK
// =============================================================================

func TestGetWeek_ReferenceWeek(t *testing.T) {
	// GIVEN: The reference week on display
	// WHEN: Reading the week
	// THEN: Days are classified and the supervisor works every open day

	env := setupTestHandler(t)

	rec := env.do(t, http.MethodGet, "/api/week", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	week := decode[WeekResponse](t, rec)

	assert.Equal(t, "2026-01-16", week.Start)
	assert.Equal(t, "2026-01-22", week.End)
	require.Len(t, week.Days, 7)
	assert.Equal(t, "Friday", week.Days[0].Weekday)
	assert.True(t, week.Days[1].Short)
	assert.True(t, week.Days[2].Closed)
	assert.Equal(t, "MLK Day", week.Days[3].HolidayName)

	require.Len(t, week.Schedule, 8)
	require.Len(t, week.Hours, 8)
	assert.Equal(t, 39.5, week.Hours[0].Hours)
	assert.Equal(t, 0.0, week.Hours[0].Overtime)
	assert.Len(t, week.Coverage, 7)
	assert.Equal(t, uint64(1), week.VacationVersion)

	rover, ok := cellOf(week.Schedule, 3, "2026-01-16")
	require.True(t, ok)
	assert.Equal(t, "4303 W. Olive", rover.Location)
}

func TestSetWeek(t *testing.T) {
	env := setupTestHandler(t)

	rec := env.do(t, http.MethodPut, "/api/week", SetWeekRequest{Step: "next"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-01-23", decode[WeekResponse](t, rec).Start)

	rec = env.do(t, http.MethodPut, "/api/week", SetWeekRequest{Anchor: "2026-03-04"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-02-27", decode[WeekResponse](t, rec).Start)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/week", SetWeekRequest{Anchor: "March 4"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/week", SetWeekRequest{}).Code)
}

func TestGetPlan_RotationWeek(t *testing.T) {
	env := setupTestHandler(t)
	env.do(t, http.MethodPut, "/api/week", SetWeekRequest{Anchor: "2026-01-23"})

	plans := decode[[]PlanDTO](t, env.do(t, http.MethodGet, "/api/week/plan", nil))
	require.Len(t, plans, 7)

	require.NotNil(t, plans[0].RotationOff)
	assert.Equal(t, 7, *plans[0].RotationOff)
	assert.Equal(t, "6026 S. 7th Ave", plans[0].RoverTarget)
	assert.Nil(t, plans[1].RotationOff, "no rotation on the short day")
	assert.True(t, plans[2].Closed)
	assert.Empty(t, plans[2].Available)
}

func TestCycleCell(t *testing.T) {
	// GIVEN: Employee 2 working Tuesday
	// WHEN: Cycling the cell
	// THEN: It becomes vacation, marked as overridden, and hours drop

	env := setupTestHandler(t)

	rec := env.do(t, http.MethodPost, "/api/schedule/2/2026-01-20/cycle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[CycleResponse](t, rec)
	assert.True(t, resp.Changed)
	assert.Equal(t, "vacation", resp.Cell.Status)
	assert.True(t, resp.Cell.Overridden)
	assert.Equal(t, 0.0, resp.Cell.Hours)

	rows := decode[[]ScheduleRowDTO](t, env.do(t, http.MethodGet, "/api/schedule", nil))
	cell, ok := cellOf(rows, 2, "2026-01-20")
	require.True(t, ok)
	assert.Equal(t, "vacation", cell.Status)
}

func TestCycleCell_Errors(t *testing.T) {
	env := setupTestHandler(t)

	closed := decode[CycleResponse](t, env.do(t, http.MethodPost, "/api/schedule/2/2026-01-18/cycle", nil))
	assert.False(t, closed.Changed)
	assert.Equal(t, "closed", closed.Cell.Status)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/schedule/99/2026-01-20/cycle", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/schedule/2/2026-02-20/cycle", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/schedule/2/tuesday/cycle", nil).Code)
}

// =============================================================================
// RULES
// =============================================================================

func TestUpdateRule_ChangesOvertimeAndPersists(t *testing.T) {
	// GIVEN: Overtime threshold lowered to 30
	// WHEN: Reading hours
	// THEN: The supervisor's 39.5 hours carry 9.5 overtime, and the edit is stored

	env := setupTestHandler(t)

	rec := env.do(t, http.MethodPut, "/api/rules/max_weekly_hours", UpdateRuleRequest{Value: "30"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "30", decode[RuleDTO](t, rec).Value)

	hours := decode[[]HoursDTO](t, env.do(t, http.MethodGet, "/api/hours", nil))
	assert.Equal(t, 9.5, hours[0].Overtime)

	stored, err := env.store.ListRules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "30", stored[1].Value)
}

func TestUpdateRule_ByDisplayName(t *testing.T) {
	env := setupTestHandler(t)

	rec := env.do(t, http.MethodPut, "/api/rules/Target%20Weekly%20Hours", UpdateRuleRequest{Value: "38.5"})
	require.Equal(t, http.StatusOK, rec.Code)

	rs := decode[[]RuleDTO](t, env.do(t, http.MethodGet, "/api/rules", nil))
	require.Len(t, rs, 3)
	assert.Equal(t, "38.5", rs[0].Value)
}

func TestUpdateRule_Rejections(t *testing.T) {
	env := setupTestHandler(t)

	assert.Equal(t, http.StatusNotFound,
		env.do(t, http.MethodPut, "/api/rules/coffee_breaks", UpdateRuleRequest{Value: "3"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		env.do(t, http.MethodPut, "/api/rules/max_weekly_hours", UpdateRuleRequest{Value: "lots"}).Code)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestCreateHoliday_RegeneratesWeek(t *testing.T) {
	// GIVEN: A closure added on Tuesday of the displayed week
	// WHEN: Reading the schedule
	// THEN: Every cell that day is a holiday with zero hours

	env := setupTestHandler(t)

	rec := env.do(t, http.MethodPost, "/api/holidays", CreateHolidayRequest{Date: "2026-01-20", Name: "Site Closure"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[HolidayDTO](t, rec)
	assert.NotEmpty(t, created.ID)

	rows := decode[[]ScheduleRowDTO](t, env.do(t, http.MethodGet, "/api/schedule", nil))
	for _, id := range []int{1, 2, 3, 8} {
		cell, ok := cellOf(rows, id, "2026-01-20")
		require.True(t, ok)
		assert.Equal(t, "holiday", cell.Status)
		assert.Equal(t, "Site Closure", cell.HolidayName)
	}

	rec = env.do(t, http.MethodDelete, "/api/holidays/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rows = decode[[]ScheduleRowDTO](t, env.do(t, http.MethodGet, "/api/schedule", nil))
	cell, _ := cellOf(rows, 2, "2026-01-20")
	assert.Equal(t, "work", cell.Status)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/holidays/"+created.ID, nil).Code)
}

func TestListHolidays_ByYear(t *testing.T) {
	env := setupTestHandler(t)

	all := decode[[]HolidayDTO](t, env.do(t, http.MethodGet, "/api/holidays", nil))
	assert.Len(t, all, 22)

	y2027 := decode[[]HolidayDTO](t, env.do(t, http.MethodGet, "/api/holidays?year=2027", nil))
	require.Len(t, y2027, 11)
	assert.Equal(t, "2027-01-01", y2027[0].Date)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/holidays?year=next", nil).Code)
}

func TestCreateHoliday_Validation(t *testing.T) {
	env := setupTestHandler(t)

	assert.Equal(t, http.StatusBadRequest,
		env.do(t, http.MethodPost, "/api/holidays", CreateHolidayRequest{Date: "01/20/2026", Name: "X"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		env.do(t, http.MethodPost, "/api/holidays", CreateHolidayRequest{Date: "2026-01-20", Name: "  "}).Code)
}

// =============================================================================
// VACATIONS
// =============================================================================

func TestVacationLifecycle(t *testing.T) {
	// GIVEN: Employee 5 requests Tuesday off
	// WHEN: The request is approved
	// THEN: The schedule shows vacation and the history records both steps

	env := setupTestHandler(t)

	rec := env.do(t, http.MethodPost, "/api/vacations", CreateVacationRequest{EmployeeID: 5, Date: "2026-01-20"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[VacationDTO](t, rec)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "Gonzalez, Manuel", created.EmployeeName)

	pendingList := decode[VacationListResponse](t, env.do(t, http.MethodGet, "/api/vacations/pending", nil))
	require.Len(t, pendingList.Requests, 1)

	rec = env.do(t, http.MethodPost, "/api/vacations/5/2026-01-20/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "approved", decode[VacationDTO](t, rec).Status)

	rows := decode[[]ScheduleRowDTO](t, env.do(t, http.MethodGet, "/api/schedule", nil))
	cell, ok := cellOf(rows, 5, "2026-01-20")
	require.True(t, ok)
	assert.Equal(t, "vacation", cell.Status)

	history := decode[[]EventDTO](t, env.do(t, http.MethodGet, "/api/vacations/history", nil))
	last := history[len(history)-1]
	assert.Equal(t, "approve", last.Action)
	assert.Equal(t, "api", last.Actor)

	rec = env.do(t, http.MethodDelete, "/api/vacations/5/2026-01-20", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	list := decode[VacationListResponse](t, env.do(t, http.MethodGet, "/api/vacations", nil))
	assert.Len(t, list.Requests, 5)
}

func TestVacation_CapacityAndConflicts(t *testing.T) {
	// GIVEN: Employee 7 already approved on Tuesday, capacity 2
	// WHEN: Approving two more requests for the same day
	// THEN: The second one is rejected with 409

	env := setupTestHandler(t)

	for _, id := range []int{5, 6} {
		rec := env.do(t, http.MethodPost, "/api/vacations", CreateVacationRequest{EmployeeID: id, Date: "2026-01-20"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/vacations/5/2026-01-20/approve", nil).Code)

	rec := env.do(t, http.MethodPost, "/api/vacations/6/2026-01-20/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "vacation slots already approved")

	dup := env.do(t, http.MethodPost, "/api/vacations", CreateVacationRequest{EmployeeID: 6, Date: "2026-01-20"})
	assert.Equal(t, http.StatusConflict, dup.Code)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/vacations/2/2026-01-20/deny", nil).Code)
	assert.Equal(t, http.StatusNotFound,
		env.do(t, http.MethodPost, "/api/vacations", CreateVacationRequest{EmployeeID: 42, Date: "2026-01-20"}).Code)
}

func TestVacation_UnbookableDays(t *testing.T) {
	// GIVEN: Today is Friday 2026-01-16 on the reference calendar
	// WHEN: Requesting Sunday, MLK Day and a past date
	// THEN: Each is refused with 400 and nothing is recorded

	env := setupTestHandler(t)

	for date, reason := range map[string]string{
		"2026-01-18": "closed",
		"2026-01-19": "MLK Day",
		"2026-01-15": "in the past",
	} {
		rec := env.do(t, http.MethodPost, "/api/vacations", CreateVacationRequest{EmployeeID: 5, Date: date})
		assert.Equal(t, http.StatusBadRequest, rec.Code, date)
		assert.Contains(t, decode[ErrorResponse](t, rec).Details, reason, date)
	}

	pending := decode[VacationListResponse](t, env.do(t, http.MethodGet, "/api/vacations/pending", nil))
	assert.Empty(t, pending.Requests)

	today := env.do(t, http.MethodPost, "/api/vacations", CreateVacationRequest{EmployeeID: 5, Date: "2026-01-16"})
	assert.Equal(t, http.StatusCreated, today.Code)
}

func TestVacation_ActorHeader(t *testing.T) {
	env := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/vacations",
		strings.NewReader(`{"employee_id": 6, "date": "2026-01-21"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ActorHeader, "ernest")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	history := decode[[]EventDTO](t, env.do(t, http.MethodGet, "/api/vacations/history", nil))
	assert.Equal(t, "ernest", history[len(history)-1].Actor)
}

// =============================================================================
// COVERAGE & INSIGHTS
// =============================================================================

func TestGetCoverage_GapsOnly(t *testing.T) {
	env := setupTestHandler(t)

	grid := decode[[]CoverageRowDTO](t, env.do(t, http.MethodGet, "/api/coverage", nil))
	require.Len(t, grid, 7)
	assert.Equal(t, "closed", grid[0].Days[2].State)

	gaps := decode[[]CoverageDTO](t, env.do(t, http.MethodGet, "/api/coverage?gaps=true", nil))
	assert.Empty(t, gaps)
}

func TestInsightsPayload(t *testing.T) {
	env := setupTestHandler(t)

	rec := env.do(t, http.MethodGet, "/api/insights/payload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[InsightsPayloadResponse](t, rec)

	assert.Equal(t, 40.0, resp.Payload.Target)
	require.Len(t, resp.Payload.Entries, 8)
	assert.Equal(t, "Jorgensen, Colin", resp.Payload.Entries[0].Name)
	assert.Contains(t, resp.Prompt, "Target 40hrs")
}

func TestInsightsFeedback(t *testing.T) {
	env := setupTestHandler(t)

	rec := env.do(t, http.MethodPost, "/api/insights/feedback",
		FeedbackRequest{Reply: `Here you go: {"summary": "balanced", "violations": [], "recommendations": ["rest Ken"]}`})
	require.Equal(t, http.StatusOK, rec.Code)
	fb := decode[insights.Feedback](t, rec)
	assert.True(t, fb.Structured)
	assert.Equal(t, "balanced", fb.Summary)
	assert.Equal(t, []insights.Recommendation{{Reason: "rest Ken"}}, fb.Recommendations)

	req := httptest.NewRequest(http.MethodPost, "/api/insights/feedback", strings.NewReader("  no structure here "))
	req.Header.Set("Content-Type", "text/plain")
	raw := httptest.NewRecorder()
	env.router.ServeHTTP(raw, req)
	require.Equal(t, http.StatusOK, raw.Code)
	plain := decode[insights.Feedback](t, raw)
	assert.False(t, plain.Structured)
	assert.Equal(t, "no structure here", plain.Summary)
}

func TestUnknownRoute(t *testing.T) {
	env := setupTestHandler(t)

	rec := env.do(t, http.MethodGet, "/api/nothing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode[ErrorResponse](t, rec).Error)
}
