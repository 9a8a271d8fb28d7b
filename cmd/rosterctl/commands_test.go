package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/api"
	"github.com/warp/roster-engine/config"
)

func testContext(t *testing.T, dbPath string) (*Context, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &Context{
		Config: &config.Config{
			DB:     config.DBConfig{Path: dbPath},
			Roster: config.RosterConfig{Anchor: "2026-01-16"},
		},
		Log: zap.NewNop(),
		Out: &out,
	}, &out
}

func TestWeekCmd_PrintsAnchorWeek(t *testing.T) {
	// GIVEN: A fresh in-memory database with the pinned reference anchor
	// WHEN: Running week with a date from the following week
	// THEN: The printed week starts on that week's Friday

	ctx, out := testContext(t, ":memory:")
	cmd := &WeekCmd{anchorArg{Anchor: "2026-01-25"}}
	require.NoError(t, cmd.Run(ctx))

	var week api.WeekResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &week))
	assert.Equal(t, "2026-01-23", week.Start)
	assert.Equal(t, "2026-01-29", week.End)
	assert.Len(t, week.Days, 7)
	assert.Len(t, week.Schedule, 8)
}

func TestWeekCmd_InvalidAnchor(t *testing.T) {
	ctx, _ := testContext(t, ":memory:")
	cmd := &WeekCmd{anchorArg{Anchor: "01/16/2026"}}
	assert.Error(t, cmd.Run(ctx))
}

func TestHoursCmd_DefaultsToConfiguredAnchor(t *testing.T) {
	ctx, out := testContext(t, ":memory:")
	require.NoError(t, (&HoursCmd{}).Run(ctx))

	var hours []api.HoursDTO
	require.NoError(t, json.Unmarshal(out.Bytes(), &hours))
	require.Len(t, hours, 8)
	for _, h := range hours {
		assert.GreaterOrEqual(t, h.Hours, 0.0, h.Name)
	}
}

func TestValidateCmd_CleanSeed(t *testing.T) {
	ctx, out := testContext(t, ":memory:")
	require.NoError(t, (&ValidateCmd{}).Run(ctx))
	assert.JSONEq(t, "[]", out.String())
}

func TestMigrateCmd_SeedsOnce(t *testing.T) {
	// GIVEN: A new database file
	// WHEN: Migrating with --seed twice
	// THEN: Only the first run loads the seed

	dbPath := filepath.Join(t.TempDir(), "roster.db")

	ctx, out := testContext(t, dbPath)
	require.NoError(t, (&MigrateCmd{Seed: true}).Run(ctx))
	var first migrateResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &first))
	assert.Equal(t, uint(1), first.SchemaVersion)
	assert.True(t, first.Seeded)

	ctx, out = testContext(t, dbPath)
	require.NoError(t, (&MigrateCmd{Seed: true}).Run(ctx))
	var second migrateResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &second))
	assert.False(t, second.Seeded)
}
