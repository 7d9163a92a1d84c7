package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"studytimer/backend/internal/model"
	"studytimer/backend/internal/repository"
)

func TestCreditAccumulatesIntoBuckets(t *testing.T) {
	ledger := repository.NewLedgerRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, "g1", "alice", 3000, model.ModeA, model.PhaseWork, true))
	require.NoError(t, ledger.Credit(ctx, "g1", "alice", 1500, model.ModeB, model.PhaseWork, true))
	require.NoError(t, ledger.Credit(ctx, "g1", "alice", 600, model.ModeA, model.PhaseBreak, false))

	entry, err := ledger.Get(ctx, "g1", "alice")
	require.NoError(t, err)
	require.Equal(t, int64(5100), entry.TotalSeconds)
	require.Equal(t, int64(3000), entry.WorkSecondsA)
	require.Equal(t, int64(1500), entry.WorkSecondsB)
	require.Equal(t, int64(600), entry.BreakSecondsA)
	require.Equal(t, int64(0), entry.BreakSecondsB)
	require.Equal(t, int64(2), entry.SessionCount)
}

func TestCreditRejectsUnknownBucket(t *testing.T) {
	ledger := repository.NewLedgerRepository(openTestDB(t))
	require.Error(t, ledger.Credit(context.Background(), "g1", "alice", 60, "C", model.PhaseWork, false))
}

func TestTopNRankingAndTies(t *testing.T) {
	ledger := repository.NewLedgerRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, "g1", "alice", 3000, model.ModeA, model.PhaseWork, true))
	require.NoError(t, ledger.Credit(ctx, "g1", "bob", 6000, model.ModeA, model.PhaseWork, true))
	require.NoError(t, ledger.Credit(ctx, "g1", "carol", 3000, model.ModeB, model.PhaseWork, true))
	// Other community must not leak in.
	require.NoError(t, ledger.Credit(ctx, "g2", "mallory", 9000, model.ModeA, model.PhaseWork, true))

	top, err := ledger.TopN(ctx, "g1", model.RankOverall, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	require.Equal(t, "bob", top[0].MemberID)
	// alice and carol tie on total; insertion order breaks the tie.
	require.Equal(t, "alice", top[1].MemberID)
	require.Equal(t, "carol", top[2].MemberID)

	workA, err := ledger.TopN(ctx, "g1", model.RankWorkA, 2)
	require.NoError(t, err)
	require.Len(t, workA, 2)
	require.Equal(t, "bob", workA[0].MemberID)
	require.Equal(t, "alice", workA[1].MemberID)
}

func TestTopNAverageRequiresMinimumSessions(t *testing.T) {
	ledger := repository.NewLedgerRepository(openTestDB(t))
	ctx := context.Background()

	// alice: 10 sessions of 1500s; bob: one huge session.
	for i := 0; i < model.MinSessionsForAverage; i++ {
		require.NoError(t, ledger.Credit(ctx, "g1", "alice", 1500, model.ModeB, model.PhaseWork, true))
	}
	require.NoError(t, ledger.Credit(ctx, "g1", "bob", 90000, model.ModeA, model.PhaseWork, true))

	top, err := ledger.TopN(ctx, "g1", model.RankAverage, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, "alice", top[0].MemberID)
}

func TestClearRemovesOnlyTargetCommunity(t *testing.T) {
	ledger := repository.NewLedgerRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, "g1", "alice", 3000, model.ModeA, model.PhaseWork, true))
	require.NoError(t, ledger.Credit(ctx, "g2", "bob", 3000, model.ModeA, model.PhaseWork, true))

	require.NoError(t, ledger.Clear(ctx, "g1"))

	_, err := ledger.Get(ctx, "g1", "alice")
	require.ErrorIs(t, err, repository.ErrNotFound)

	entry, err := ledger.Get(ctx, "g2", "bob")
	require.NoError(t, err)
	require.Equal(t, int64(3000), entry.TotalSeconds)
}
