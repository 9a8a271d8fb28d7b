/*
Package vacation models the vacation request store the roster engine reads.

PURPOSE:
  The generator needs one consistent view of which days each employee has
  off. The store owns the mutable request set; every mutation produces a
  new immutable Snapshot with a higher version, and the generator only
  ever reads snapshots.

REQUEST LIFECYCLE:
  ┌──────────────┐  Request   ┌─────────┐  Approve  ┌──────────┐
  │  (no entry)  │ ─────────▶ │ pending │ ────────▶ │ approved │
  └──────────────┘            └─────────┘           └──────────┘
                                   │ Deny
                                   ▼
                              ┌────────┐
                              │ denied │
                              └────────┘
  Cancel removes an entry whatever its status.

CHANGE NOTIFICATION:
  Subscribers are called with the new Snapshot after every successful
  mutation, outside the store lock.

SEE ALSO:
  - memory.go: in-process implementation
  - schedule/board.go: subscribes and regenerates
*/
package vacation

import (
	"context"
	"sort"
	"time"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// STATUS & ACTIONS
// =============================================================================

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusDenied
}

type Action string

const (
	ActionRequest Action = "request"
	ActionApprove Action = "approve"
	ActionDeny    Action = "deny"
	ActionCancel  Action = "cancel"
	ActionSeed    Action = "seed"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the request set with its discrete mutations.
type Store interface {
	Snapshot() Snapshot
	Request(ctx context.Context, employee roster.EmployeeID, day calendar.Date, actor string) (Snapshot, error)
	Approve(ctx context.Context, employee roster.EmployeeID, day calendar.Date, actor string) (Snapshot, error)
	Deny(ctx context.Context, employee roster.EmployeeID, day calendar.Date, actor string) (Snapshot, error)
	Cancel(ctx context.Context, employee roster.EmployeeID, day calendar.Date, actor string) (Snapshot, error)
	Subscribe(fn func(Snapshot)) (unsubscribe func())
}

// Entry is one request in a snapshot listing.
type Entry struct {
	EmployeeID roster.EmployeeID
	Date       string
	Status     Status
}

// Event is an audit record of one mutation.
type Event struct {
	ID         string
	Action     Action
	Actor      string
	EmployeeID roster.EmployeeID
	Date       string
	Status     Status // status after the action; empty for cancel
	Version    uint64
	At         time.Time
}

// =============================================================================
// SNAPSHOT - Immutable view of the request set
// =============================================================================

// Snapshot is an immutable copy of the request set at one version.
// The zero value is an empty snapshot at version 0.
type Snapshot struct {
	version  uint64
	requests map[roster.EmployeeID]map[string]Status
}

// NewSnapshot copies requests into a snapshot.
func NewSnapshot(version uint64, requests map[roster.EmployeeID]map[string]Status) Snapshot {
	return Snapshot{version: version, requests: copyRequests(requests)}
}

func (s Snapshot) Version() uint64 { return s.version }

// Status returns the request status, or false when there is no request.
func (s Snapshot) Status(employee roster.EmployeeID, dateISO string) (Status, bool) {
	days, ok := s.requests[employee]
	if !ok {
		return "", false
	}
	st, ok := days[dateISO]
	return st, ok
}

// IsApproved reports whether the employee has approved vacation on the date.
func (s Snapshot) IsApproved(employee roster.EmployeeID, dateISO string) bool {
	st, ok := s.Status(employee, dateISO)
	return ok && st == StatusApproved
}

// ApprovedOn counts approved requests on a date across employees.
func (s Snapshot) ApprovedOn(dateISO string) int {
	n := 0
	for _, days := range s.requests {
		if days[dateISO] == StatusApproved {
			n++
		}
	}
	return n
}

// Entries lists every request ordered by employee, then date.
func (s Snapshot) Entries() []Entry {
	var out []Entry
	for id, days := range s.requests {
		for d, st := range days {
			out = append(out, Entry{EmployeeID: id, Date: d, Status: st})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].Date < out[j].Date
	})
	return out
}

// Pending lists pending requests in Entries order.
func (s Snapshot) Pending() []Entry {
	var out []Entry
	for _, e := range s.Entries() {
		if e.Status == StatusPending {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of requests.
func (s Snapshot) Len() int {
	n := 0
	for _, days := range s.requests {
		n += len(days)
	}
	return n
}

func copyRequests(in map[roster.EmployeeID]map[string]Status) map[roster.EmployeeID]map[string]Status {
	out := make(map[roster.EmployeeID]map[string]Status, len(in))
	for id, days := range in {
		if len(days) == 0 {
			continue
		}
		row := make(map[string]Status, len(days))
		for d, st := range days {
			row[d] = st
		}
		out[id] = row
	}
	return out
}
