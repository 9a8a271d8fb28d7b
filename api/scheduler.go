/*
scheduler.go - Automated week rollover

PURPOSE:
  Keeps the displayed week current on a long-running server. When the
  calendar crosses into a new roster week, the board is moved to the
  week containing today and regenerated.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Only acts when today's week differs from the week it last rolled to,
    so manual navigation is left alone until the next week boundary
  - Each rollover discards manual overrides, like any regeneration

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  roller := NewWeekScheduler(board, logger)
  roller.Start()
  // ... later
  roller.Stop()

SEE ALSO:
  - schedule/board.go: SetWeek
*/
package api

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/schedule"
)

// WeekScheduler moves the board to the current week at each week boundary.
type WeekScheduler struct {
	Board         *schedule.Board
	Week          calendar.WeekConfig
	CheckInterval time.Duration
	Enabled       bool
	Log           *zap.Logger
	Now           func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// checkMu guards lastStart. It is separate from mu so Stop can wait
	// for a running Check.
	checkMu   sync.Mutex
	lastStart calendar.Date
}

// NewWeekScheduler creates a scheduler on the reference week layout.
func NewWeekScheduler(board *schedule.Board, log *zap.Logger) *WeekScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WeekScheduler{
		Board:         board,
		Week:          calendar.DefaultWeek(),
		CheckInterval: time.Hour,
		Enabled:       true,
		Log:           log,
		Now:           time.Now,
	}
}

// Start begins the scheduler. The week on display at start counts as
// already rolled to.
func (ws *WeekScheduler) Start() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.Enabled || ws.CheckInterval <= 0 {
		ws.Log.Info("week scheduler disabled")
		return
	}
	if ws.ticker != nil {
		return
	}

	ws.checkMu.Lock()
	ws.lastStart = ws.Board.Week().Start()
	ws.checkMu.Unlock()

	ws.ticker = time.NewTicker(ws.CheckInterval)
	ws.stop = make(chan struct{})
	ws.wg.Add(1)

	go ws.run(ws.ticker, ws.stop)

	ws.Log.Info("week scheduler started", zap.Duration("interval", ws.CheckInterval))
}

// Stop stops the scheduler and waits for the loop to exit.
func (ws *WeekScheduler) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.ticker == nil {
		return
	}
	ws.ticker.Stop()
	close(ws.stop)
	ws.wg.Wait()
	ws.ticker = nil
	ws.Log.Info("week scheduler stopped")
}

func (ws *WeekScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ws.wg.Done()

	for {
		select {
		case <-ticker.C:
			ws.Check()
		case <-stop:
			return
		}
	}
}

// Check rolls the board when today is in a week it has not rolled to yet.
// It reports whether the board moved.
func (ws *WeekScheduler) Check() bool {
	ws.checkMu.Lock()
	defer ws.checkMu.Unlock()

	today := calendar.FromTime(ws.Now())
	current := ws.Week.Window(today).Start()
	if current.Equal(ws.lastStart) {
		return false
	}

	previous := ws.lastStart
	ws.lastStart = current
	week := ws.Board.SetWeek(today)

	ws.Log.Info("week rolled over",
		zap.String("from", previous.ISO()),
		zap.String("to", week.String()),
	)
	return true
}
