package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/warp/roster-engine/api"
	"github.com/warp/roster-engine/app"
	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/config"
	"github.com/warp/roster-engine/insights"
	"github.com/warp/roster-engine/logger"
	"github.com/warp/roster-engine/rules"
	"github.com/warp/roster-engine/store/sqlite"
)

// Context is shared by every command.
type Context struct {
	Config *config.Config
	Log    *zap.Logger
	Out    io.Writer
}

func newContext(configPath, dbPath string, out io.Writer) (*Context, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DB.Path = dbPath
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &Context{Config: cfg, Log: log, Out: out}, nil
}

// anchorArg is the optional positional date most commands take.
type anchorArg struct {
	Anchor string `arg:"" optional:"" help:"Any date in the week (YYYY-MM-DD); defaults to roster.anchor, then today."`
}

func (a anchorArg) date(cfg *config.Config) (calendar.Date, error) {
	if a.Anchor == "" {
		return cfg.AnchorDate(), nil
	}
	d, err := calendar.ParseISO(a.Anchor)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func (c *Context) engine(a anchorArg) (*app.App, error) {
	anchor, err := a.date(c.Config)
	if err != nil {
		return nil, err
	}
	return app.Build(context.Background(), c.Config, anchor, c.Log)
}

func (c *Context) print(v any) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// COMMANDS
// =============================================================================

type WeekCmd struct {
	anchorArg
}

func (cmd *WeekCmd) Run(ctx *Context) error {
	engine, err := ctx.engine(cmd.anchorArg)
	if err != nil {
		return err
	}
	defer engine.Close()
	return ctx.print(api.NewWeekResponse(engine.Board))
}

type HoursCmd struct {
	anchorArg
}

func (cmd *HoursCmd) Run(ctx *Context) error {
	engine, err := ctx.engine(cmd.anchorArg)
	if err != nil {
		return err
	}
	defer engine.Close()
	return ctx.print(api.NewHoursResponse(engine.Board))
}

type CoverageCmd struct {
	anchorArg
	Gaps bool `help:"Only print posts and days with a warning."`
}

func (cmd *CoverageCmd) Run(ctx *Context) error {
	engine, err := ctx.engine(cmd.anchorArg)
	if err != nil {
		return err
	}
	defer engine.Close()
	return ctx.print(api.NewCoverageResponse(engine.Board, cmd.Gaps))
}

type InsightsCmd struct {
	anchorArg
}

func (cmd *InsightsCmd) Run(ctx *Context) error {
	engine, err := ctx.engine(cmd.anchorArg)
	if err != nil {
		return err
	}
	defer engine.Close()

	view := engine.Board.View()
	payload := insights.Build(view.Week.String(), view.Hours, engine.Rules.Number(rules.TargetWeeklyHours))
	prompt, err := payload.Prompt()
	if err != nil {
		return err
	}
	return ctx.print(api.InsightsPayloadResponse{Payload: payload, Prompt: prompt})
}

type ValidateCmd struct{}

func (cmd *ValidateCmd) Run(ctx *Context) error {
	engine, err := ctx.engine(anchorArg{})
	if err != nil {
		return err
	}
	defer engine.Close()

	out := api.NewIssuesResponse(engine.Issues)
	if err := ctx.print(out); err != nil {
		return err
	}
	if len(out) > 0 {
		return fmt.Errorf("%d roster issue(s)", len(out))
	}
	return nil
}

type MigrateCmd struct {
	Seed bool `help:"Load the seed data when the database is empty."`
}

type migrateResult struct {
	Database      string `json:"database"`
	SchemaVersion uint   `json:"schema_version"`
	Seeded        bool   `json:"seeded"`
}

func (cmd *MigrateCmd) Run(ctx *Context) error {
	store, err := sqlite.New(ctx.Config.DB.Path, ctx.Log.Named("sqlite"))
	if err != nil {
		return err
	}
	defer store.Close()

	res := migrateResult{Database: ctx.Config.DB.Path, SchemaVersion: store.SchemaVersion()}
	if cmd.Seed {
		data, err := app.LoadSeed(ctx.Config.Roster.SeedFile)
		if err != nil {
			return err
		}
		if res.Seeded, err = store.SeedIfEmpty(context.Background(), data); err != nil {
			return err
		}
	}
	return ctx.print(res)
}
