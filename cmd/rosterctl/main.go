// Command rosterctl prints the roster engine's weekly outputs as JSON for
// batch use: schedules, hours, coverage, analysis payloads and database
// maintenance.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

var CLI struct {
	Config string `help:"Config file path." type:"path"`
	DB     string `name:"db" help:"Override db.path."`

	Week     WeekCmd     `cmd:"" help:"Print the week: dates, schedule, hours and coverage."`
	Hours    HoursCmd    `cmd:"" help:"Print hours and overtime per employee."`
	Coverage CoverageCmd `cmd:"" help:"Print the coverage grid."`
	Insights InsightsCmd `cmd:"" help:"Print the narrative-analysis payload and prompt."`
	Validate ValidateCmd `cmd:"" help:"Report roster consistency problems."`
	Migrate  MigrateCmd  `cmd:"" help:"Apply schema migrations and optionally seed an empty database."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("rosterctl"),
		kong.Description("Weekly roster generation and coverage verification"),
		kong.UsageOnError(),
	)

	appCtx, err := newContext(CLI.Config, CLI.DB, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer appCtx.Log.Sync()

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
