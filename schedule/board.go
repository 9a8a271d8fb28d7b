package schedule

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/vacation"
)

var (
	ErrUnknownEmployee = errors.New("unknown employee")
	ErrDateOutsideWeek = errors.New("date is outside the displayed week")
)

// =============================================================================
// BOARD - The displayed week and its live schedule
// =============================================================================
//
// The Board is the only stateful piece of the engine. It regenerates the
// whole schedule whenever the week or the vacation snapshot changes, which
// discards every manual override. Reads return copies.

type BoardConfig struct {
	Generator Generator
	Verifier  Verifier
	Employees []roster.Employee
	Locations []roster.Location
	Rules     Thresholds
	Logger    *zap.Logger
}

type Board struct {
	mu sync.RWMutex

	gen       Generator
	verifier  Verifier
	employees []roster.Employee
	byID      map[roster.EmployeeID]roster.Employee
	locations []roster.Location
	rules     Thresholds
	log       *zap.Logger

	week      calendar.Week
	vacations VacationLookup
	version   uint64
	schedule  roster.Schedule
	overrides map[roster.EmployeeID]map[string]bool
}

// View is a consistent read of the board.
type View struct {
	Week            calendar.Week
	Schedule        roster.Schedule
	Hours           []HoursSummary
	Coverage        []PostCoverage
	VacationVersion uint64
	Overrides       int
}

func NewBoard(cfg BoardConfig, anchor calendar.Date) *Board {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	b := &Board{
		gen:       cfg.Generator,
		verifier:  cfg.Verifier,
		employees: append([]roster.Employee(nil), cfg.Employees...),
		byID:      make(map[roster.EmployeeID]roster.Employee, len(cfg.Employees)),
		locations: append([]roster.Location(nil), cfg.Locations...),
		rules:     cfg.Rules,
		log:       log,
		vacations: NoVacations{},
	}
	for _, e := range b.employees {
		b.byID[e.ID] = e
	}
	b.week = b.gen.Week.Window(anchor)
	b.regenerateLocked("init")
	return b
}

// Follow regenerates on every snapshot the store publishes, starting with
// its current one. The returned func stops following.
func (b *Board) Follow(store vacation.Store) func() {
	unsubscribe := store.Subscribe(b.adopt)
	b.adopt(store.Snapshot())
	return unsubscribe
}

// adopt applies s unless the board already shows a newer version.
// Notifications from concurrent mutations may arrive out of order.
func (b *Board) adopt(s vacation.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.Version() < b.version {
		return
	}
	b.vacations = s
	b.version = s.Version()
	b.regenerateLocked("vacations")
}

// SetWeek displays the week containing anchor and regenerates.
func (b *Board) SetWeek(anchor calendar.Date) calendar.Week {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.week = b.gen.Week.Window(anchor)
	b.regenerateLocked("week")
	return b.week
}

// Regenerate rebuilds the current week, for example after the holiday
// table changed. Manual overrides are dropped.
func (b *Board) Regenerate(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regenerateLocked(reason)
}

func (b *Board) NextWeek() calendar.Week { return b.SetWeek(b.Week().Next().Start()) }
func (b *Board) PrevWeek() calendar.Week { return b.SetWeek(b.Week().Prev().Start()) }

func (b *Board) Week() calendar.Week {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.week
}

func (b *Board) Employees() []roster.Employee {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]roster.Employee(nil), b.employees...)
}

func (b *Board) Locations() []roster.Location {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]roster.Location(nil), b.locations...)
}

// Employee looks up a roster entry by ID.
func (b *Board) Employee(id roster.EmployeeID) (roster.Employee, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.byID[id]
	return e, ok
}

// Schedule returns a copy of the current schedule, overrides included.
func (b *Board) Schedule() roster.Schedule {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.schedule.Clone()
}

// Plans returns the generator's decision for each displayed day.
func (b *Board) Plans() []DayPlan {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]DayPlan, 0, calendar.DaysPerWeek)
	for _, day := range b.week {
		out = append(out, b.gen.Plan(b.employees, b.vacations, day))
	}
	return out
}

func (b *Board) Hours() []HoursSummary {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Summarize(b.schedule, b.employees, b.week, b.rules)
}

func (b *Board) Coverage() []PostCoverage {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.verifier.Grid(b.locations, b.week, b.employees, b.schedule)
}

// View reads week, schedule, hours and coverage under one lock.
func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return View{
		Week:            b.week,
		Schedule:        b.schedule.Clone(),
		Hours:           Summarize(b.schedule, b.employees, b.week, b.rules),
		Coverage:        b.verifier.Grid(b.locations, b.week, b.employees, b.schedule),
		VacationVersion: b.version,
		Overrides:       b.overrideCountLocked(),
	}
}

// Cycle advances one cell's status. The bool is false when the cell is
// closed and nothing changed.
func (b *Board) Cycle(id roster.EmployeeID, day calendar.Date) (roster.Cell, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.byID[id]; !ok {
		return roster.Cell{}, false, fmt.Errorf("%w: %d", ErrUnknownEmployee, id)
	}
	if !b.week.Contains(day) {
		return roster.Cell{}, false, fmt.Errorf("%w: %s not in %s", ErrDateOutsideWeek, day.ISO(), b.week)
	}

	iso := day.ISO()
	current, present := b.schedule.Cell(id, iso)
	next, changed := Cycle(current, present, day, b.gen.Week)
	if !changed {
		return current, false, nil
	}

	b.schedule.Set(id, iso, next)
	if b.overrides[id] == nil {
		b.overrides[id] = make(map[string]bool)
	}
	b.overrides[id][iso] = true

	b.log.Debug("cell cycled",
		zap.Int("employee_id", int(id)),
		zap.String("date", iso),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next.Status)),
	)
	return next, true, nil
}

// IsOverridden reports whether a cell was changed by hand since the last regeneration.
func (b *Board) IsOverridden(id roster.EmployeeID, dateISO string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.overrides[id][dateISO]
}

func (b *Board) regenerateLocked(reason string) {
	dropped := b.overrideCountLocked()
	b.schedule = b.gen.Generate(b.employees, b.vacations, b.week)
	b.overrides = make(map[roster.EmployeeID]map[string]bool)

	b.log.Debug("schedule regenerated",
		zap.String("reason", reason),
		zap.String("week", b.week.String()),
		zap.Uint64("vacation_version", b.version),
		zap.Int("overrides_dropped", dropped),
	)
}

func (b *Board) overrideCountLocked() int {
	n := 0
	for _, days := range b.overrides {
		n += len(days)
	}
	return n
}
