/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the roster engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (flags > env > config file > defaults)
  2. Build the logger
  3. Open and migrate the SQLite store, seeding it when empty
  4. Load vacation requests, rules and the displayed week
  5. Configure HTTP router and the week rollover scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  --config   Config file path (default: ./config.yaml or ./config/config.yaml)
  --port     Override server.port
  --db       Override db.path; ":memory:" for an in-memory database
  --anchor   Override roster.anchor (YYYY-MM-DD)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the week scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server --db=":memory:" --anchor=2026-01-16
  ROSTER_LOG_FORMAT=console ./server --port=3000

ENVIRONMENT:
  Every config key maps to ROSTER_<SECTION>_<KEY>, e.g. ROSTER_DB_PATH.
  A .env file in the working directory is loaded first.

SEE ALSO:
  - api/server.go: Router configuration
  - app/app.go: Engine assembly
  - config/config.go: Configuration keys
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/api"
	"github.com/warp/roster-engine/app"
	"github.com/warp/roster-engine/config"
	"github.com/warp/roster-engine/logger"
)

type cli struct {
	Config string `help:"Config file path." type:"path"`
	Port   int    `help:"Override server.port."`
	DB     string `name:"db" help:"Override db.path."`
	Anchor string `help:"Override roster.anchor (YYYY-MM-DD)."`
}

func main() {
	var flags cli
	kong.Parse(&flags,
		kong.Name("server"),
		kong.Description("Weekly roster engine HTTP server."),
	)

	if err := run(flags); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(flags cli) error {
	cfg, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	if flags.Port != 0 {
		cfg.Server.Port = flags.Port
	}
	if flags.DB != "" {
		cfg.DB.Path = flags.DB
	}
	if flags.Anchor != "" {
		cfg.Roster.Anchor = flags.Anchor
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	engine, err := app.Build(context.Background(), cfg, cfg.AnchorDate(), log)
	if err != nil {
		return err
	}
	defer engine.Close()

	handler := api.NewHandler(engine.Store, engine.Board, engine.Vacations, engine.Rules, log.Named("api"))
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.Server.CORS.AllowOrigins,
		Logger:         log.Named("http"),
	})

	roller := api.NewWeekScheduler(engine.Board, log.Named("scheduler"))
	roller.CheckInterval = cfg.Roster.RollInterval
	// A pinned anchor means someone wants that week on screen.
	roller.Enabled = cfg.Roster.Anchor == ""
	roller.Start()
	defer roller.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.Int("port", cfg.Server.Port), zap.String("db", cfg.DB.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
