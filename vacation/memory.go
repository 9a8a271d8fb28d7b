package vacation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// MEMORY STORE - In-process versioned request set
// =============================================================================

// CapacityFunc returns the maximum approved vacations per date; 0 means unlimited.
type CapacityFunc func() int

type Option func(*Memory)

// WithCapacity limits how many approved vacations may share a date.
func WithCapacity(fn CapacityFunc) Option {
	return func(m *Memory) { m.capacity = fn }
}

// WithLogger attaches a logger; the default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Memory) { m.log = l }
}

// WithDayPolicy restricts which dates Request accepts. Seed and Replace
// are not checked.
func WithDayPolicy(p DayPolicy) Option {
	return func(m *Memory) { m.bookable = p }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

type Memory struct {
	mu       sync.RWMutex
	version  uint64
	requests map[roster.EmployeeID]map[string]Status
	history  []Event

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int

	capacity CapacityFunc
	bookable DayPolicy
	log      *zap.Logger
	now      func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		requests: make(map[roster.EmployeeID]map[string]Status),
		subs:     make(map[int]func(Snapshot)),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns the current immutable view.
func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return NewSnapshot(m.version, m.requests)
}

// Request records a pending request on a date the day policy accepts.
func (m *Memory) Request(_ context.Context, employee roster.EmployeeID, day calendar.Date, actor string) (Snapshot, error) {
	if m.bookable != nil {
		if err := m.bookable(day); err != nil {
			return Snapshot{}, err
		}
	}
	return m.mutate(ActionRequest, employee, day, actor, func(current Status, exists bool) (Status, error) {
		if exists {
			return "", ErrAlreadyRequested
		}
		return StatusPending, nil
	})
}

// Approve moves a pending request to approved, honoring the capacity limit.
func (m *Memory) Approve(_ context.Context, employee roster.EmployeeID, day calendar.Date, actor string) (Snapshot, error) {
	return m.mutate(ActionApprove, employee, day, actor, func(current Status, exists bool) (Status, error) {
		if !exists {
			return "", ErrRequestNotFound
		}
		if current != StatusPending {
			return "", &TransitionError{EmployeeID: employee, Date: day.ISO(), Current: current, Action: ActionApprove}
		}
		if m.capacity != nil {
			if limit := m.capacity(); limit > 0 {
				if approved := m.approvedOnLocked(day.ISO()); approved >= limit {
					return "", &CapacityError{Date: day.ISO(), Limit: limit, Approved: approved}
				}
			}
		}
		return StatusApproved, nil
	})
}

// Deny moves a pending request to denied.
func (m *Memory) Deny(_ context.Context, employee roster.EmployeeID, day calendar.Date, actor string) (Snapshot, error) {
	return m.mutate(ActionDeny, employee, day, actor, func(current Status, exists bool) (Status, error) {
		if !exists {
			return "", ErrRequestNotFound
		}
		if current != StatusPending {
			return "", &TransitionError{EmployeeID: employee, Date: day.ISO(), Current: current, Action: ActionDeny}
		}
		return StatusDenied, nil
	})
}

// Cancel removes a request whatever its status.
func (m *Memory) Cancel(_ context.Context, employee roster.EmployeeID, day calendar.Date, actor string) (Snapshot, error) {
	return m.mutate(ActionCancel, employee, day, actor, func(current Status, exists bool) (Status, error) {
		if !exists {
			return "", ErrRequestNotFound
		}
		return "", nil
	})
}

// Seed loads entries as one version, overwriting existing entries for the
// same employee and date. Capacity is not checked.
func (m *Memory) Seed(_ context.Context, entries []Entry, actor string) (Snapshot, error) {
	return m.load(entries, actor, false)
}

// Replace discards every request and loads entries as one version.
func (m *Memory) Replace(_ context.Context, entries []Entry, actor string) (Snapshot, error) {
	return m.load(entries, actor, true)
}

func (m *Memory) load(entries []Entry, actor string, clear bool) (Snapshot, error) {
	for _, e := range entries {
		if !e.Status.Valid() {
			return Snapshot{}, ErrInvalidStatus
		}
		if _, err := calendar.ParseISO(e.Date); err != nil {
			return Snapshot{}, err
		}
	}

	m.mu.Lock()
	if clear {
		m.requests = make(map[roster.EmployeeID]map[string]Status)
	}
	m.version++
	at := m.now()
	for _, e := range entries {
		m.setLocked(e.EmployeeID, e.Date, e.Status)
		m.history = append(m.history, Event{
			ID:         uuid.NewString(),
			Action:     ActionSeed,
			Actor:      actor,
			EmployeeID: e.EmployeeID,
			Date:       e.Date,
			Status:     e.Status,
			Version:    m.version,
			At:         at,
		})
	}
	snap := NewSnapshot(m.version, m.requests)
	m.mu.Unlock()

	m.log.Info("vacation requests loaded",
		zap.Int("entries", len(entries)),
		zap.Bool("replaced", clear),
		zap.Uint64("version", snap.Version()),
	)
	m.notify(snap)
	return snap, nil
}

// History returns the audit trail, oldest first.
func (m *Memory) History() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, len(m.history))
	copy(out, m.history)
	return out
}

// Subscribe registers fn for every new snapshot.
func (m *Memory) Subscribe(fn func(Snapshot)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

// =============================================================================
// INTERNALS
// =============================================================================

// transition decides the next status; an empty status deletes the entry.
type transition func(current Status, exists bool) (Status, error)

func (m *Memory) mutate(action Action, employee roster.EmployeeID, day calendar.Date, actor string, next transition) (Snapshot, error) {
	key := day.ISO()

	m.mu.Lock()
	current, exists := m.requests[employee][key]
	status, err := next(current, exists)
	if err != nil {
		m.mu.Unlock()
		return Snapshot{}, err
	}

	if status == "" {
		m.deleteLocked(employee, key)
	} else {
		m.setLocked(employee, key, status)
	}
	m.version++
	m.history = append(m.history, Event{
		ID:         uuid.NewString(),
		Action:     action,
		Actor:      actor,
		EmployeeID: employee,
		Date:       key,
		Status:     status,
		Version:    m.version,
		At:         m.now(),
	})
	snap := NewSnapshot(m.version, m.requests)
	m.mu.Unlock()

	m.log.Debug("vacation request changed",
		zap.String("action", string(action)),
		zap.Int("employee_id", int(employee)),
		zap.String("date", key),
		zap.String("status", string(status)),
		zap.Uint64("version", snap.Version()),
	)
	m.notify(snap)
	return snap, nil
}

func (m *Memory) setLocked(employee roster.EmployeeID, dateISO string, st Status) {
	days, ok := m.requests[employee]
	if !ok {
		days = make(map[string]Status)
		m.requests[employee] = days
	}
	days[dateISO] = st
}

func (m *Memory) deleteLocked(employee roster.EmployeeID, dateISO string) {
	days, ok := m.requests[employee]
	if !ok {
		return
	}
	delete(days, dateISO)
	if len(days) == 0 {
		delete(m.requests, employee)
	}
}

func (m *Memory) approvedOnLocked(dateISO string) int {
	n := 0
	for _, days := range m.requests {
		if days[dateISO] == StatusApproved {
			n++
		}
	}
	return n
}

func (m *Memory) notify(snap Snapshot) {
	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
