/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built weeks that show specific engine behavior. Each
	scenario replaces the vacation request set and moves the board to
	its week. Roster, posts, rules and holidays are left as stored.

AVAILABLE SCENARIOS:

	reference:        The reference week with its approved vacations
	rotation-week:    No vacations, one guard off per full day by rotation
	holiday-week:     Thanksgiving week, holiday overrides every cell
	vacation-crunch:  Two posts short on one day, one rover to cover them

HOW SCENARIOS WORK:
 1. Replace every vacation request with the scenario's entries
 2. Move the board to the scenario's anchor week
 3. The board regenerates, dropping manual overrides

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "vacation-crunch"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description, anchor, vacations
 2. Nothing else: loading is data-driven

NOTE:

	Loading discards pending requests. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: week and vacation handlers
  - seed/default.yaml: the reference roster these scenarios assume
*/
package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/vacation"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// Scenario is a named week with its vacation requests.
type Scenario struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Anchor      string           `json:"anchor"`
	Vacations   []vacation.Entry `json:"-"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type ScenarioResponse struct {
	Scenario
	Requests int          `json:"requests"`
	Week     WeekResponse `json:"week"`
}

func approved(employee int, dates ...string) []vacation.Entry {
	out := make([]vacation.Entry, 0, len(dates))
	for _, d := range dates {
		out = append(out, vacation.Entry{EmployeeID: roster.EmployeeID(employee), Date: d, Status: vacation.StatusApproved})
	}
	return out
}

func pending(employee int, date string) vacation.Entry {
	return vacation.Entry{EmployeeID: roster.EmployeeID(employee), Date: date, Status: vacation.StatusPending}
}

var scenarios = []Scenario{
	{
		ID:          "reference",
		Name:        "Reference Week",
		Description: "Olive off Friday and Saturday, 7th Ave off Tuesday to Thursday, MLK Day on Monday",
		Anchor:      "2026-01-16",
		Vacations: join(
			approved(4, "2026-01-16", "2026-01-17"),
			approved(7, "2026-01-20", "2026-01-21", "2026-01-22"),
		),
	},
	{
		ID:          "rotation-week",
		Name:        "Rotation Week",
		Description: "No vacations: each full day one guard rotates off and the rover takes the post",
		Anchor:      "2026-01-23",
	},
	{
		ID:          "holiday-week",
		Name:        "Holiday Week",
		Description: "Thanksgiving closes every post on Thursday; 19th Ave off Friday",
		Anchor:      "2026-11-20",
		Vacations:   approved(6, "2026-11-20"),
	},
	{
		ID:          "vacation-crunch",
		Name:        "Vacation Crunch",
		Description: "Baseline and 19th Ave both off Tuesday: the rover covers Baseline, 19th Ave shows NONE; a third request awaits approval",
		Anchor:      "2026-02-06",
		Vacations: join(
			approved(2, "2026-02-10"),
			approved(6, "2026-02-10"),
			[]vacation.Entry{pending(5, "2026-02-10")},
		),
	},
}

func join(parts ...[]vacation.Entry) []vacation.Entry {
	var out []vacation.Entry
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func findScenario(id string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns every available scenario.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario id, empty when none.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": current})
}

// LoadScenario replaces the vacation requests and moves the board.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	sc, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	snap, err := h.Vacations.Replace(r.Context(), sc.Vacations, "scenario:"+sc.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario vacations", err)
		return
	}
	h.Board.SetWeek(calendar.MustParseISO(sc.Anchor))
	h.currentScenario = sc.ID

	h.Log.Info("scenario loaded", zap.String("scenario", sc.ID), zap.Int("requests", snap.Len()))
	writeJSON(w, http.StatusOK, ScenarioResponse{
		Scenario: sc,
		Requests: snap.Len(),
		Week:     h.weekResponse(),
	})
}
