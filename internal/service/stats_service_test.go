package service_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studytimer/backend/internal/db"
	"studytimer/backend/internal/model"
	"studytimer/backend/internal/repository"
	"studytimer/backend/internal/service"
)

func setupStatsService(t *testing.T) (*service.StatsService, *repository.LedgerRepository, *repository.StreakRepository) {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	require.NoError(t, db.RunMigrations(database, migrationsDir))

	ledger := repository.NewLedgerRepository(database)
	streaks := repository.NewStreakRepository(database)
	return service.NewStatsService(ledger, streaks), ledger, streaks
}

func TestStatsDefaultsToZero(t *testing.T) {
	stats, _, _ := setupStatsService(t)

	got, apiErr := stats.Stats(context.Background(), "g1", "nobody")
	require.Nil(t, apiErr)
	require.Equal(t, int64(0), got.Ledger.TotalSeconds)
	require.Equal(t, 0, got.Streak.CurrentStreak)
	require.Equal(t, 0, got.Streak.BestStreak)
}

func TestLeaderboardValidatesRankingKey(t *testing.T) {
	stats, _, _ := setupStatsService(t)

	_, apiErr := stats.Leaderboard(context.Background(), "g1", "bogus", 5)
	require.NotNil(t, apiErr)
	require.Equal(t, "invalid_ranking_key", apiErr.Code)
}

func TestLeaderboardRanksAndNumbers(t *testing.T) {
	stats, ledger, _ := setupStatsService(t)
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, "g1", "alice", 3000, model.ModeA, model.PhaseWork, true))
	require.NoError(t, ledger.Credit(ctx, "g1", "bob", 6000, model.ModeA, model.PhaseWork, true))

	rows, apiErr := stats.Leaderboard(ctx, "g1", "", 0)
	require.Nil(t, apiErr)
	require.Len(t, rows, 2)
	require.Equal(t, 1, rows[0].Rank)
	require.Equal(t, "bob", rows[0].Entry.MemberID)
	require.Equal(t, 2, rows[1].Rank)
	require.Equal(t, "alice", rows[1].Entry.MemberID)
}

func TestTopStreaksAndClear(t *testing.T) {
	stats, ledger, streaks := setupStatsService(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	_, err := streaks.Touch(ctx, "g1", "alice", base)
	require.NoError(t, err)
	_, err = streaks.Touch(ctx, "g1", "alice", base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.NoError(t, ledger.Credit(ctx, "g1", "alice", 3000, model.ModeA, model.PhaseWork, true))

	top, apiErr := stats.TopStreaks(ctx, "g1", 5)
	require.Nil(t, apiErr)
	require.Len(t, top, 1)
	require.Equal(t, 2, top[0].CurrentStreak)

	require.Nil(t, stats.Clear(ctx, "g1"))

	got, apiErr := stats.Stats(ctx, "g1", "alice")
	require.Nil(t, apiErr)
	require.Equal(t, int64(0), got.Ledger.TotalSeconds)
	require.Equal(t, 0, got.Streak.CurrentStreak)
}
