/*
Package sqlite persists the roster reference data.

PURPOSE:
  Employees, posts, rule edits and the holiday table survive restarts.
  Vacation requests and manual cell overrides are not persisted: the
  former belong to the external request store, the latter are
  discarded on every regeneration.

KEY TABLES:
  employees: roster entries, ordered by position (roster order matters)
  locations: posts, ordered by position
  rules:     one row per rule key, value kept as entered
  holidays:  exact-date holiday table, one holiday per date

HOLIDAY CALENDAR:
  Store implements calendar.HolidayCalendar, so the generator and the
  coverage verifier can read holidays straight from the database and
  pick up additions on the next regeneration.

MIGRATION:
  Versioned SQL files are embedded and applied with golang-migrate on
  New(). An in-memory database is pinned to one connection, since each
  new connection to ":memory:" opens an empty database.

USAGE:
  store, err := sqlite.New("./data/roster.db", logger)
  if err != nil {
      return err
  }
  defer store.Close()

  if _, err := store.SeedIfEmpty(ctx, data); err != nil { ... }

SEE ALSO:
  - migrations/: schema
  - seed/: reference data loaded into an empty database
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/rules"
	"github.com/warp/roster-engine/seed"
)

var ErrHolidayNotFound = errors.New("holiday not found")

// Store implements the reference-data persistence on SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	log     *zap.Logger
	version uint
}

var _ calendar.HolidayCalendar = (*Store)(nil)

// New opens the database at dbPath and migrates it.
// Use ":memory:" for an in-memory database. A nil logger logs nothing.
func New(dbPath string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	memory := dbPath == ":memory:"
	if memory {
		dsn = dbPath + "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	version, err := runMigrations(db, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db, log: log, version: version}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() uint { return s.version }

// Reset clears all data (for testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"employees", "locations", "rules", "holidays"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// SEEDING
// =============================================================================

// SeedIfEmpty loads seed data when the employee table is empty.
// It reports whether anything was loaded.
func (s *Store) SeedIfEmpty(ctx context.Context, data seed.Data) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees").Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count employees: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceEmployees(ctx, tx, data.Employees); err != nil {
		return false, err
	}
	if err := replaceLocations(ctx, tx, data.Locations); err != nil {
		return false, err
	}
	for _, r := range data.Rules {
		if err := upsertRule(ctx, tx, r); err != nil {
			return false, err
		}
	}
	for _, h := range data.Holidays {
		if _, err := upsertHoliday(ctx, tx, h); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seed: %w", err)
	}
	s.log.Info("database seeded",
		zap.Int("employees", len(data.Employees)),
		zap.Int("locations", len(data.Locations)),
		zap.Int("rules", len(data.Rules)),
		zap.Int("holidays", len(data.Holidays)),
	)
	return true, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SaveEmployees replaces the roster, keeping the given order.
func (s *Store) SaveEmployees(ctx context.Context, employees []roster.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceEmployees(ctx, tx, employees); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceEmployees(ctx context.Context, db execer, employees []roster.Employee) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM employees"); err != nil {
		return fmt.Errorf("failed to clear employees: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for i, e := range employees {
		_, err := db.ExecContext(ctx, `
			INSERT INTO employees (id, position, name, phone, role, armed, default_location, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, int(e.ID), i, e.Name, e.Phone, string(e.Role), e.Armed, nullString(e.DefaultLocation), now, now)
		if err != nil {
			return fmt.Errorf("failed to save employee %d: %w", e.ID, err)
		}
	}
	return nil
}

// ListEmployees returns the roster in roster order.
func (s *Store) ListEmployees(ctx context.Context) ([]roster.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, role, armed, default_location
		FROM employees ORDER BY position ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []roster.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// GetEmployee retrieves an employee by ID. Returns nil when absent.
func (s *Store) GetEmployee(ctx context.Context, id roster.EmployeeID) (*roster.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, role, armed, default_location
		FROM employees WHERE id = ?
	`, int(id))
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (roster.Employee, error) {
	var (
		e        roster.Employee
		id       int
		role     string
		location sql.NullString
	)
	if err := row.Scan(&id, &e.Name, &e.Phone, &role, &e.Armed, &location); err != nil {
		return roster.Employee{}, err
	}
	e.ID = roster.EmployeeID(id)
	e.Role = roster.Role(role)
	e.DefaultLocation = location.String
	return e, nil
}

// =============================================================================
// LOCATIONS
// =============================================================================

// SaveLocations replaces the post list, keeping the given order.
func (s *Store) SaveLocations(ctx context.Context, locations []roster.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceLocations(ctx, tx, locations); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceLocations(ctx context.Context, db execer, locations []roster.Location) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM locations"); err != nil {
		return fmt.Errorf("failed to clear locations: %w", err)
	}
	for i, l := range locations {
		_, err := db.ExecContext(ctx, `
			INSERT INTO locations (name, position, armed, supervisor_only) VALUES (?, ?, ?, ?)
		`, l.Name, i, l.Armed, l.SupervisorOnly)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("%w: %q", roster.ErrDuplicateLocation, l.Name)
			}
			return fmt.Errorf("failed to save location %q: %w", l.Name, err)
		}
	}
	return nil
}

// ListLocations returns posts in display order.
func (s *Store) ListLocations(ctx context.Context) ([]roster.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, armed, supervisor_only FROM locations ORDER BY position ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []roster.Location
	for rows.Next() {
		var l roster.Location
		if err := rows.Scan(&l.Name, &l.Armed, &l.SupervisorOnly); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// =============================================================================
// RULES
// =============================================================================

// SaveRule inserts or updates a rule by key.
func (s *Store) SaveRule(ctx context.Context, r rules.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertRule(ctx, s.db, r)
}

func upsertRule(ctx context.Context, db execer, r rules.Rule) error {
	key := r.Key
	if key == "" {
		k, err := rules.ParseKey(r.Name)
		if err != nil {
			return err
		}
		key = k
	}
	name := r.Name
	if name == "" {
		name = key.Name()
	}
	typ := r.Type
	if typ == "" {
		typ = rules.TypeNumber
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO rules (id, rule_key, name, value, type, description, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rule_key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, nullInt(r.ID), string(key), name, r.Value, string(typ), r.Description,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save rule %s: %w", key, err)
	}
	return nil
}

// ListRules returns rules ordered by ID.
func (s *Store) ListRules(ctx context.Context) ([]rules.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, rule_key, name, value, type, description FROM rules ORDER BY id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		var r rules.Rule
		var key, typ string
		if err := rows.Scan(&r.ID, &key, &r.Name, &r.Value, &typ, &r.Description); err != nil {
			return nil, err
		}
		r.Key = rules.Key(key)
		r.Type = rules.Type(typ)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// HOLIDAY CALENDAR IMPLEMENTATION
// =============================================================================

// HolidayRecord is a stored holiday with its ID.
type HolidayRecord struct {
	ID string
	calendar.Holiday
}

// SaveHoliday stores a holiday, renaming it if the date already has one.
// Returns the record ID.
func (s *Store) SaveHoliday(ctx context.Context, h calendar.Holiday) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertHoliday(ctx, s.db, h)
}

func upsertHoliday(ctx context.Context, db execer, h calendar.Holiday) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO holidays (id, date, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET name = excluded.name
		RETURNING id
	`, uuid.NewString(), h.Date.ISO(), strings.TrimSpace(h.Name), time.Now().UTC().Format(time.RFC3339)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save holiday %s: %w", h.Date.ISO(), err)
	}
	return id, nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHolidayNotFound
	}
	return nil
}

// ListHolidays returns every stored holiday by date.
func (s *Store) ListHolidays(ctx context.Context) ([]HolidayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, date, name FROM holidays ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var out []HolidayRecord
	for rows.Next() {
		var rec HolidayRecord
		var date string
		if err := rows.Scan(&rec.ID, &date, &rec.Name); err != nil {
			return nil, err
		}
		d, err := calendar.ParseISO(date)
		if err != nil {
			return nil, err
		}
		rec.Date = d
		out = append(out, rec)
	}
	return out, rows.Err()
}

// HolidayFor returns the holiday on d. Query failures read as "no holiday"
// and are logged.
func (s *Store) HolidayFor(d calendar.Date) (calendar.Holiday, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var name string
	err := s.db.QueryRow("SELECT name FROM holidays WHERE date = ?", d.ISO()).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return calendar.Holiday{}, false
	}
	if err != nil {
		s.log.Error("holiday lookup failed", zap.String("date", d.ISO()), zap.Error(err))
		return calendar.Holiday{}, false
	}
	return calendar.Holiday{Date: d, Name: name}, true
}

// HolidaysIn returns the holidays of a year by date.
func (s *Store) HolidaysIn(year int) []calendar.Holiday {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT date, name FROM holidays WHERE strftime('%Y', date) = ? ORDER BY date ASC",
		fmt.Sprintf("%04d", year),
	)
	if err != nil {
		s.log.Error("holiday listing failed", zap.Int("year", year), zap.Error(err))
		return nil
	}
	defer rows.Close()

	var out []calendar.Holiday
	for rows.Next() {
		var date, name string
		if err := rows.Scan(&date, &name); err != nil {
			continue
		}
		d, err := calendar.ParseISO(date)
		if err != nil {
			continue
		}
		out = append(out, calendar.Holiday{Date: d, Name: name})
	}
	return out
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
