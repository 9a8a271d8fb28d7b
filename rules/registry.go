/*
Package rules provides the typed rule registry.

PURPOSE:
  Operators tune a handful of named thresholds (target hours, overtime
  threshold, vacation capacity). Values are stored as free-form strings
  so they round-trip through storage and the API unchanged, and are
  interpreted per type only when read.

HOW IT WORKS:
  1. Each known rule has a typed Key with a display name and a default
  2. The Registry keeps the ordered rule list the operator edits
  3. Readers ask for Number(key) / Int(key); a missing or unparsable
     value yields the key's documented default, never an error

USAGE:
  reg := rules.NewRegistry(rules.DefaultRules())
  threshold := reg.Number(rules.MaxWeeklyHours) // 40 unless edited

  _, err := reg.SetByName("Max Weekly Hours", "45")

SEE ALSO:
  - schedule/hours.go: overtime threshold
  - vacation/memory.go: same-day vacation capacity
*/
package rules

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrUnknownRule = errors.New("unknown rule")

// =============================================================================
// KEYS
// =============================================================================

// Key identifies a known rule.
type Key string

const (
	TargetWeeklyHours  Key = "target_weekly_hours"
	MaxWeeklyHours     Key = "max_weekly_hours"
	MaxVacationSameDay Key = "max_vacation_same_day"
)

type Type string

const (
	TypeNumber Type = "number"
	TypeText   Type = "text"
	TypeBool   Type = "bool"
)

type keyInfo struct {
	name        string
	typ         Type
	fallback    string
	description string
}

var known = map[Key]keyInfo{
	TargetWeeklyHours:  {"Target Weekly Hours", TypeNumber, "40", "Target hours per employee"},
	MaxWeeklyHours:     {"Max Weekly Hours", TypeNumber, "40", "Max before overtime"},
	MaxVacationSameDay: {"Max Vacation Same Day", TypeNumber, "2", "Max employees on vacation same day"},
}

// keyOrder fixes the presentation order of DefaultRules.
var keyOrder = []Key{TargetWeeklyHours, MaxWeeklyHours, MaxVacationSameDay}

// Name returns the display name rules are edited by.
func (k Key) Name() string { return known[k].name }

// Type returns how the rule's value is interpreted.
func (k Key) Type() Type { return known[k].typ }

// Default returns the documented fallback value.
func (k Key) Default() decimal.Decimal {
	info, ok := known[k]
	if !ok {
		return decimal.Zero
	}
	return decimal.RequireFromString(info.fallback)
}

// ParseKey resolves a rule by key or by display name (case-insensitive).
func ParseKey(s string) (Key, error) {
	if _, ok := known[Key(s)]; ok {
		return Key(s), nil
	}
	for k, info := range known {
		if strings.EqualFold(info.name, strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRule, s)
}

// =============================================================================
// RULE
// =============================================================================

type Rule struct {
	ID          int
	Key         Key
	Name        string
	Value       string
	Type        Type
	Description string
}

// DefaultRules returns the reference rule set.
func DefaultRules() []Rule {
	out := make([]Rule, 0, len(keyOrder))
	for i, k := range keyOrder {
		info := known[k]
		out = append(out, Rule{
			ID:          i + 1,
			Key:         k,
			Name:        info.name,
			Value:       info.fallback,
			Type:        info.typ,
			Description: info.description,
		})
	}
	return out
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is the ordered, editable rule set. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
}

func NewRegistry(rs []Rule) *Registry {
	r := &Registry{}
	for _, rule := range rs {
		if rule.Key == "" {
			if k, err := ParseKey(rule.Name); err == nil {
				rule.Key = k
			}
		}
		r.rules = append(r.rules, rule)
	}
	return r
}

// Rules returns a copy of the ordered rule list.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Lookup returns the rule for key, if present.
func (r *Registry) Lookup(key Key) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rule := range r.rules {
		if rule.Key == key {
			return rule, true
		}
	}
	return Rule{}, false
}

// Number returns the rule's numeric value, or the key's default when the
// rule is absent or its value does not parse.
func (r *Registry) Number(key Key) decimal.Decimal {
	rule, ok := r.Lookup(key)
	if !ok {
		return key.Default()
	}
	d, err := decimal.NewFromString(strings.TrimSpace(rule.Value))
	if err != nil {
		return key.Default()
	}
	return d
}

// Int truncates Number toward zero.
func (r *Registry) Int(key Key) int {
	return int(r.Number(key).IntPart())
}

// Set replaces the value of a rule, adding it with the key's metadata if
// the registry does not carry it yet.
func (r *Registry) Set(key Key, value string) (Rule, error) {
	info, ok := known[key]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownRule, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.rules {
		if r.rules[i].Key == key {
			r.rules[i].Value = value
			return r.rules[i], nil
		}
	}

	rule := Rule{
		ID:          r.nextIDLocked(),
		Key:         key,
		Name:        info.name,
		Value:       value,
		Type:        info.typ,
		Description: info.description,
	}
	r.rules = append(r.rules, rule)
	return rule, nil
}

// SetByName resolves the rule by key or display name, then sets it.
func (r *Registry) SetByName(name, value string) (Rule, error) {
	key, err := ParseKey(name)
	if err != nil {
		return Rule{}, err
	}
	return r.Set(key, value)
}

func (r *Registry) nextIDLocked() int {
	highest := 0
	for _, rule := range r.rules {
		if rule.ID > highest {
			highest = rule.ID
		}
	}
	return highest + 1
}
