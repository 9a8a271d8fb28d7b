// Package app assembles the engine from configuration: SQLite store,
// rule registry, vacation store and the displayed-week board.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/config"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/rules"
	"github.com/warp/roster-engine/schedule"
	"github.com/warp/roster-engine/seed"
	"github.com/warp/roster-engine/store/sqlite"
	"github.com/warp/roster-engine/vacation"
)

// App is the wired engine. Close releases the database.
type App struct {
	Store     *sqlite.Store
	Rules     *rules.Registry
	Vacations *vacation.Memory
	Board     *schedule.Board
	Issues    []roster.Issue

	unfollow func()
	log      *zap.Logger
}

// Build opens the database, seeds it when empty, loads the seed's vacation
// requests and shows the week containing anchor.
func Build(ctx context.Context, cfg *config.Config, anchor calendar.Date, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	data, err := LoadSeed(cfg.Roster.SeedFile)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(cfg.DB.Path, log.Named("sqlite"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a, err := assemble(ctx, store, data, anchor, log)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func assemble(ctx context.Context, store *sqlite.Store, data seed.Data, anchor calendar.Date, log *zap.Logger) (*App, error) {
	if _, err := store.SeedIfEmpty(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	employees, err := store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	rs, err := store.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	reg := rules.NewRegistry(rs)

	issues := roster.Validate(employees, locations)
	for _, is := range issues {
		log.Warn("roster issue", zap.Error(is))
	}

	vacations := vacation.NewMemory(
		vacation.WithCapacity(func() int { return reg.Int(rules.MaxVacationSameDay) }),
		vacation.WithDayPolicy(vacation.BookableDays(calendar.DefaultWeek(), store, calendar.Today)),
		vacation.WithLogger(log.Named("vacation")),
	)
	if _, err := vacations.Seed(ctx, data.Vacations, "seed"); err != nil {
		return nil, fmt.Errorf("failed to load vacation requests: %w", err)
	}

	board := schedule.NewBoard(schedule.BoardConfig{
		Generator: schedule.NewGenerator(store),
		Verifier:  schedule.NewVerifier(store),
		Employees: employees,
		Locations: locations,
		Rules:     reg,
		Logger:    log.Named("board"),
	}, anchor)

	a := &App{
		Store:     store,
		Rules:     reg,
		Vacations: vacations,
		Board:     board,
		Issues:    issues,
		log:       log,
	}
	a.unfollow = board.Follow(vacations)

	log.Info("engine ready",
		zap.Int("employees", len(employees)),
		zap.Int("locations", len(locations)),
		zap.String("week", board.Week().String()),
		zap.Uint("schema_version", store.SchemaVersion()),
	)
	return a, nil
}

// Close stops the board following the vacation store and closes the database.
func (a *App) Close() error {
	if a.unfollow != nil {
		a.unfollow()
	}
	return a.Store.Close()
}

// LoadSeed reads the seed file at path, or the embedded default when path
// is empty.
func LoadSeed(path string) (seed.Data, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.Load(path)
}
