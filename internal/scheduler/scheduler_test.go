package scheduler_test

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"studytimer/backend/internal/db"
	"studytimer/backend/internal/model"
	"studytimer/backend/internal/repository"
	"studytimer/backend/internal/scheduler"
)

type captureAnnouncer struct {
	events chan model.TransitionEvent
}

func (a *captureAnnouncer) Announce(_ context.Context, event model.TransitionEvent) error {
	a.events <- event
	return nil
}

type fixture struct {
	database     *sql.DB
	participants *repository.ParticipantRepository
	ledger       *repository.LedgerRepository
	streaks      *repository.StreakRepository
	sched        *scheduler.Scheduler
	announcer    *captureAnnouncer
}

func newFixture(t *testing.T, creditBreaks bool) *fixture {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	require.NoError(t, db.RunMigrations(database, migrationsDir))

	participants := repository.NewParticipantRepository(database)
	ledger := repository.NewLedgerRepository(database)
	streaks := repository.NewStreakRepository(database)
	communities := repository.NewCommunityRepository(database)
	announcer := &captureAnnouncer{events: make(chan model.TransitionEvent, 16)}

	modes := []model.Mode{model.NewModeA(50, 10), model.NewModeB(25, 5)}
	sched := scheduler.New(
		participants,
		ledger,
		streaks,
		communities,
		announcer,
		log.New(io.Discard),
		modes,
		time.UTC,
		creditBreaks,
	)

	return &fixture{
		database:     database,
		participants: participants,
		ledger:       ledger,
		streaks:      streaks,
		sched:        sched,
		announcer:    announcer,
	}
}

func (f *fixture) join(t *testing.T, community, member, mode string, at time.Time) {
	t.Helper()
	require.NoError(t, f.participants.Insert(context.Background(), &model.Participant{
		CommunityID: community,
		MemberID:    member,
		Mode:        mode,
		JoinedAt:    at,
		CreditedAt:  at,
	}))
}

func (f *fixture) waitEvent(t *testing.T) model.TransitionEvent {
	t.Helper()
	select {
	case event := <-f.announcer.events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no transition event emitted")
		return model.TransitionEvent{}
	}
}

func (f *fixture) requireNoEvent(t *testing.T) {
	t.Helper()
	select {
	case event := <-f.announcer.events:
		t.Fatalf("unexpected transition event: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWorkBoundaryCreditsAllParticipants(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	joined := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	for _, member := range []string{"alice", "bob", "carol"} {
		f.join(t, "g1", member, model.ModeA, joined)
	}

	// First tick only starts tracking the current phase.
	f.sched.Tick(ctx, joined)
	f.requireNoEvent(t)

	boundary := time.Date(2025, 3, 10, 10, 50, 0, 0, time.UTC)
	f.sched.Tick(ctx, boundary)

	event := f.waitEvent(t)
	require.Equal(t, "g1", event.CommunityID)
	require.Equal(t, model.ModeA, event.Mode)
	require.Equal(t, model.PhaseBreak, event.NewPhase)
	require.Equal(t, 10, event.DurationMinutes)
	require.Len(t, event.Members, 3)
	f.requireNoEvent(t)

	for _, member := range []string{"alice", "bob", "carol"} {
		entry, err := f.ledger.Get(ctx, "g1", member)
		require.NoError(t, err, member)
		require.Equal(t, int64(3000), entry.WorkSecondsA, member)
		require.Equal(t, int64(1), entry.SessionCount, member)

		streak, err := f.streaks.Get(ctx, "g1", member)
		require.NoError(t, err, member)
		require.Equal(t, 1, streak.CurrentStreak, member)
		require.Equal(t, 1, streak.BestStreak, member)
	}
}

func TestBoundaryAdvancesCreditWatermark(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	joined := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	f.join(t, "g1", "alice", model.ModeA, joined)

	f.sched.Tick(ctx, joined)
	boundary := time.Date(2025, 3, 10, 10, 50, 0, 0, time.UTC)
	f.sched.Tick(ctx, boundary)
	f.waitEvent(t)

	stored, err := f.participants.Get(ctx, "g1", "alice")
	require.NoError(t, err)
	require.True(t, stored.CreditedAt.Equal(boundary))
}

func TestMemberWhoLeftIsNotCreditedAtBoundary(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	joined := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	f.join(t, "g1", "alice", model.ModeA, joined)
	f.join(t, "g1", "bob", model.ModeA, joined)

	f.sched.Tick(ctx, joined)

	// bob leaves one tick before the boundary.
	require.NoError(t, f.participants.Delete(ctx, "g1", "bob"))

	boundary := time.Date(2025, 3, 10, 10, 50, 0, 0, time.UTC)
	f.sched.Tick(ctx, boundary)

	event := f.waitEvent(t)
	require.Equal(t, []string{"alice"}, event.Members)

	_, err := f.ledger.Get(ctx, "g1", "bob")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBreakBoundaryCountsNoSessionByDefault(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	inBreak := time.Date(2025, 3, 10, 10, 55, 0, 0, time.UTC)
	f.join(t, "g1", "alice", model.ModeA, inBreak)

	f.sched.Tick(ctx, inBreak)
	f.sched.Tick(ctx, time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC))

	event := f.waitEvent(t)
	require.Equal(t, model.PhaseWork, event.NewPhase)
	require.Equal(t, 50, event.DurationMinutes)

	// Break time is not credited unless configured.
	_, err := f.ledger.Get(ctx, "g1", "alice")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBreakBoundaryCreditsWhenEnabled(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	inBreak := time.Date(2025, 3, 10, 10, 55, 0, 0, time.UTC)
	f.join(t, "g1", "alice", model.ModeA, inBreak)

	f.sched.Tick(ctx, inBreak)
	f.sched.Tick(ctx, time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC))
	f.waitEvent(t)

	entry, err := f.ledger.Get(ctx, "g1", "alice")
	require.NoError(t, err)
	require.Equal(t, int64(600), entry.BreakSecondsA)
	require.Equal(t, int64(0), entry.SessionCount)
}

func TestModeBCyclesWithinTheHour(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	joined := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	f.join(t, "g1", "alice", model.ModeB, joined)

	f.sched.Tick(ctx, joined)

	// 10:25 work→break, 10:30 break→work, 10:55 work→break.
	f.sched.Tick(ctx, time.Date(2025, 3, 10, 10, 25, 0, 0, time.UTC))
	first := f.waitEvent(t)
	require.Equal(t, model.PhaseBreak, first.NewPhase)
	require.Equal(t, 5, first.DurationMinutes)

	f.sched.Tick(ctx, time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC))
	second := f.waitEvent(t)
	require.Equal(t, model.PhaseWork, second.NewPhase)
	require.Equal(t, 25, second.DurationMinutes)

	f.sched.Tick(ctx, time.Date(2025, 3, 10, 10, 55, 0, 0, time.UTC))
	third := f.waitEvent(t)
	require.Equal(t, model.PhaseBreak, third.NewPhase)

	entry, err := f.ledger.Get(ctx, "g1", "alice")
	require.NoError(t, err)
	require.Equal(t, int64(3000), entry.WorkSecondsB)
	require.Equal(t, int64(2), entry.SessionCount)

	// Two closures on the same day keep the streak at 1.
	streak, err := f.streaks.Get(ctx, "g1", "alice")
	require.NoError(t, err)
	require.Equal(t, 1, streak.CurrentStreak)
}

func TestEmptyModeGoesIdleWithoutAnnouncement(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	joined := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	f.join(t, "g1", "alice", model.ModeA, joined)

	f.sched.Tick(ctx, joined)
	require.NoError(t, f.participants.Delete(ctx, "g1", "alice"))

	// Last participant left: the pair falls idle and the boundary passes
	// silently.
	f.sched.Tick(ctx, time.Date(2025, 3, 10, 10, 49, 0, 0, time.UTC))
	f.sched.Tick(ctx, time.Date(2025, 3, 10, 10, 50, 0, 0, time.UTC))
	f.requireNoEvent(t)
}

func TestMaintenanceCommunityIsSkipped(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	communities := repository.NewCommunityRepository(f.database)
	require.NoError(t, communities.SetMaintenance(ctx, "g1", true))

	joined := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	f.join(t, "g1", "alice", model.ModeA, joined)

	f.sched.Tick(ctx, joined)
	f.sched.Tick(ctx, time.Date(2025, 3, 10, 10, 50, 0, 0, time.UTC))
	f.requireNoEvent(t)

	_, err := f.ledger.Get(ctx, "g1", "alice")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRebuildResumesTrackingWithoutSpuriousCredit(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	joined := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	f.join(t, "g1", "alice", model.ModeA, joined)

	// Restart mid-work: rebuild then tick within the same segment.
	require.NoError(t, f.sched.Rebuild(ctx, time.Date(2025, 3, 10, 10, 20, 0, 0, time.UTC)))
	f.sched.Tick(ctx, time.Date(2025, 3, 10, 10, 21, 0, 0, time.UTC))
	f.requireNoEvent(t)

	f.sched.Tick(ctx, time.Date(2025, 3, 10, 10, 50, 0, 0, time.UTC))
	event := f.waitEvent(t)
	require.Equal(t, model.PhaseBreak, event.NewPhase)

	entry, err := f.ledger.Get(ctx, "g1", "alice")
	require.NoError(t, err)
	require.Equal(t, int64(3000), entry.WorkSecondsA)
}
