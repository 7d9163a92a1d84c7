// Package scheduler drives the study timer. A single cooperative loop fires
// once per wall-clock minute, walks every (community, mode) pair with active
// participants, detects segment boundaries, credits elapsed work into the
// ledger and streaks, and hands one transition event per boundary to the
// announcer.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron"

	"studytimer/backend/internal/announce"
	"studytimer/backend/internal/clock"
	"studytimer/backend/internal/model"
	"studytimer/backend/internal/repository"
)

type stateKey struct {
	communityID string
	mode        string
}

type Scheduler struct {
	participants *repository.ParticipantRepository
	ledger       *repository.LedgerRepository
	streaks      *repository.StreakRepository
	communities  *repository.CommunityRepository
	announcer    announce.Announcer
	logger       *log.Logger

	modes        map[string]model.Mode
	location     *time.Location
	creditBreaks bool

	mu     sync.Mutex
	phases map[stateKey]int

	cron *cron.Cron
}

func New(
	participants *repository.ParticipantRepository,
	ledger *repository.LedgerRepository,
	streaks *repository.StreakRepository,
	communities *repository.CommunityRepository,
	announcer announce.Announcer,
	logger *log.Logger,
	modes []model.Mode,
	location *time.Location,
	creditBreaks bool,
) *Scheduler {
	byName := make(map[string]model.Mode, len(modes))
	for _, mode := range modes {
		byName[mode.Name] = mode
	}
	return &Scheduler{
		participants: participants,
		ledger:       ledger,
		streaks:      streaks,
		communities:  communities,
		announcer:    announcer,
		logger:       logger,
		modes:        byName,
		location:     location,
		creditBreaks: creditBreaks,
		phases:       make(map[stateKey]int),
	}
}

// Rebuild seeds the in-memory phase state from persisted participants, so a
// restart resumes tracking open sessions without firing spurious
// transitions. Time lost while the process was down stays lost.
func (s *Scheduler) Rebuild(ctx context.Context, now time.Time) error {
	participants, err := s.participants.ListAll(ctx)
	if err != nil {
		return err
	}
	now = now.In(s.location)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range participants {
		mode, ok := s.modes[p.Mode]
		if !ok {
			continue
		}
		key := stateKey{communityID: p.CommunityID, mode: p.Mode}
		if _, seen := s.phases[key]; !seen {
			s.phases[key] = clock.At(mode, now).SegmentIndex
		}
	}
	return nil
}

// Start launches the once-per-minute cron loop, firing at second zero of
// every minute in the configured timezone.
func (s *Scheduler) Start() error {
	c := cron.New()
	if err := c.AddFunc("0 * * * * *", func() {
		s.Tick(context.Background(), time.Now())
	}); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Tick runs one pass over every active (community, mode) pair. Storage
// failures are logged per pair and never abort the pass; the next tick
// retries naturally.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	now = now.In(s.location)

	participants, err := s.participants.ListAll(ctx)
	if err != nil {
		s.logger.Error("tick: list participants", "err", err)
		return
	}

	groups := make(map[stateKey][]model.Participant)
	for _, p := range participants {
		if _, ok := s.modes[p.Mode]; !ok {
			continue
		}
		key := stateKey{communityID: p.CommunityID, mode: p.Mode}
		groups[key] = append(groups[key], p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, members := range groups {
		s.tickPair(ctx, key, members, now)
	}

	// Pairs whose last participant left fall back to idle; no announcement.
	for key := range s.phases {
		if _, live := groups[key]; !live {
			delete(s.phases, key)
		}
	}
}

func (s *Scheduler) tickPair(ctx context.Context, key stateKey, members []model.Participant, now time.Time) {
	maintenance, err := s.communities.IsMaintenance(ctx, key.communityID)
	if err != nil {
		s.logger.Error("tick: maintenance flag", "community", key.communityID, "err", err)
		return
	}
	if maintenance {
		return
	}

	mode := s.modes[key.mode]
	snap := clock.At(mode, now)

	prev, tracking := s.phases[key]
	s.phases[key] = snap.SegmentIndex
	if !tracking || prev == snap.SegmentIndex {
		// First sighting starts tracking from the current phase; no
		// boundary was crossed.
		return
	}

	ended := mode.Segments[prev]
	switch {
	case ended.Phase == model.PhaseWork:
		s.creditSegment(ctx, key, members, ended, true, now)
	case s.creditBreaks:
		s.creditSegment(ctx, key, members, ended, false, now)
	}

	if err := s.participants.MarkModeCredited(ctx, key.communityID, key.mode, now); err != nil {
		s.logger.Error("tick: advance credit watermark", "community", key.communityID, "mode", key.mode, "err", err)
	}

	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.MemberID)
	}

	event := model.TransitionEvent{
		CommunityID:     key.communityID,
		Mode:            mode.Name,
		ModeDisplayName: mode.DisplayName,
		NewPhase:        snap.Phase,
		DurationMinutes: mode.Segments[snap.SegmentIndex].Minutes,
		Members:         memberIDs,
		At:              now,
	}

	// Fire and forget: a slow or failing channel never stalls accounting.
	go func() {
		if err := s.announcer.Announce(context.Background(), event); err != nil {
			s.logger.Warn("announce transition", "community", event.CommunityID, "mode", event.Mode, "err", err)
		}
	}()
}

func (s *Scheduler) creditSegment(
	ctx context.Context,
	key stateKey,
	members []model.Participant,
	segment model.Segment,
	sessionClosed bool,
	now time.Time,
) {
	seconds := int64(segment.Minutes) * 60
	day := now

	for _, member := range members {
		if err := s.ledger.Credit(
			ctx,
			key.communityID,
			member.MemberID,
			seconds,
			key.mode,
			segment.Phase,
			sessionClosed,
		); err != nil {
			s.logger.Error("tick: credit member",
				"community", key.communityID,
				"member", member.MemberID,
				"err", err,
			)
			continue
		}

		if !sessionClosed {
			continue
		}
		if _, err := s.streaks.Touch(ctx, key.communityID, member.MemberID, day); err != nil {
			s.logger.Error("tick: update streak",
				"community", key.communityID,
				"member", member.MemberID,
				"err", err,
			)
		}
	}
}
