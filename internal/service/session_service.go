package service

import (
	"context"
	"time"

	"studytimer/backend/internal/clock"
	apperrors "studytimer/backend/internal/errors"
	"studytimer/backend/internal/model"
	"studytimer/backend/internal/repository"
)

// SessionService owns the participant lifecycle: joining a mode, leaving
// with partial credit, maintenance eviction, and phase display.
type SessionService struct {
	participants *repository.ParticipantRepository
	ledger       *repository.LedgerRepository
	communities  *repository.CommunityRepository
	modes        map[string]model.Mode
	location     *time.Location
}

type PhaseView struct {
	Mode             string `json:"mode"`
	DisplayName      string `json:"displayName"`
	Phase            string `json:"phase"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

type LeaveResult struct {
	Mode            string    `json:"mode"`
	JoinedAt        time.Time `json:"joinedAt"`
	MinutesCredited int       `json:"minutesCredited"`
}

type EvictedMember struct {
	MemberID        string    `json:"memberId"`
	Mode            string    `json:"mode"`
	JoinedAt        time.Time `json:"joinedAt"`
	MinutesCredited int       `json:"minutesCredited"`
}

func NewSessionService(
	participants *repository.ParticipantRepository,
	ledger *repository.LedgerRepository,
	communities *repository.CommunityRepository,
	modes []model.Mode,
	location *time.Location,
) *SessionService {
	byName := make(map[string]model.Mode, len(modes))
	for _, mode := range modes {
		byName[mode.Name] = mode
	}
	return &SessionService{
		participants: participants,
		ledger:       ledger,
		communities:  communities,
		modes:        byName,
		location:     location,
	}
}

func (s *SessionService) Join(ctx context.Context, communityID, memberID, modeName string) (*model.Participant, *apperrors.APIError) {
	if _, ok := s.modes[modeName]; !ok {
		return nil, apperrors.BadRequest("invalid_mode", "mode must be A or B")
	}

	if apiErr := s.ensureNotMaintenance(ctx, communityID); apiErr != nil {
		return nil, apiErr
	}

	existing, err := s.participants.Get(ctx, communityID, memberID)
	if err != nil && err != repository.ErrNotFound {
		return nil, apperrors.Unavailable("failed to read participant")
	}
	if existing != nil {
		return nil, apperrors.Conflict("already_joined", "member is already in a session", map[string]interface{}{
			"mode": existing.Mode,
		})
	}

	now := time.Now().UTC()
	participant := model.Participant{
		CommunityID: communityID,
		MemberID:    memberID,
		Mode:        modeName,
		JoinedAt:    now,
		CreditedAt:  now,
	}
	if err := s.participants.Insert(ctx, &participant); err != nil {
		if err == repository.ErrDuplicateParticipant {
			return nil, apperrors.Conflict("already_joined", "member is already in a session", nil)
		}
		return nil, apperrors.Unavailable("failed to persist participant")
	}

	return &participant, nil
}

// Leave closes the member's session and credits the span since the last
// scheduler credit, floored to whole minutes with a one-minute minimum.
func (s *SessionService) Leave(ctx context.Context, communityID, memberID string) (*LeaveResult, *apperrors.APIError) {
	if apiErr := s.ensureNotMaintenance(ctx, communityID); apiErr != nil {
		return nil, apiErr
	}

	participant, err := s.participants.Get(ctx, communityID, memberID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("not_joined", "member has no open session")
	}
	if err != nil {
		return nil, apperrors.Unavailable("failed to read participant")
	}

	now := time.Now().UTC()
	minutes := creditableMinutes(participant, now)
	if minutes < 1 {
		minutes = 1
	}

	if err := s.ledger.Credit(
		ctx,
		communityID,
		memberID,
		int64(minutes)*60,
		participant.Mode,
		model.PhaseWork,
		false,
	); err != nil {
		return nil, apperrors.Unavailable("failed to credit elapsed time")
	}

	if err := s.participants.Delete(ctx, communityID, memberID); err != nil && err != repository.ErrNotFound {
		return nil, apperrors.Unavailable("failed to remove participant")
	}

	return &LeaveResult{
		Mode:            participant.Mode,
		JoinedAt:        participant.JoinedAt,
		MinutesCredited: minutes,
	}, nil
}

func (s *SessionService) Active(ctx context.Context, communityID, modeName string) ([]string, *apperrors.APIError) {
	if _, ok := s.modes[modeName]; !ok {
		return nil, apperrors.BadRequest("invalid_mode", "mode must be A or B")
	}

	participants, err := s.participants.ListByMode(ctx, communityID, modeName)
	if err != nil {
		return nil, apperrors.Unavailable("failed to list participants")
	}

	members := make([]string, 0, len(participants))
	for _, p := range participants {
		members = append(members, p.MemberID)
	}
	return members, nil
}

// PhaseStatus reports, for every configured mode, the current phase and the
// seconds left until the next boundary.
func (s *SessionService) PhaseStatus(now time.Time) []PhaseView {
	now = now.In(s.location)

	views := make([]PhaseView, 0, len(s.modes))
	for _, name := range []string{model.ModeA, model.ModeB} {
		mode, ok := s.modes[name]
		if !ok {
			continue
		}
		snap := clock.At(mode, now)
		views = append(views, PhaseView{
			Mode:             mode.Name,
			DisplayName:      mode.DisplayName,
			Phase:            snap.Phase,
			RemainingSeconds: snap.RemainingSeconds,
		})
	}
	return views
}

// EvictAll force-closes every open session in the community, crediting each
// member the elapsed span (plain floor, no minimum).
func (s *SessionService) EvictAll(ctx context.Context, communityID string) ([]EvictedMember, *apperrors.APIError) {
	participants, err := s.participants.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, apperrors.Unavailable("failed to list participants")
	}

	now := time.Now().UTC()
	evicted := make([]EvictedMember, 0, len(participants))
	for _, p := range participants {
		minutes := creditableMinutes(&p, now)
		if minutes > 0 {
			if err := s.ledger.Credit(
				ctx,
				communityID,
				p.MemberID,
				int64(minutes)*60,
				p.Mode,
				model.PhaseWork,
				false,
			); err != nil {
				return evicted, apperrors.Unavailable("failed to credit evicted member")
			}
		}
		if err := s.participants.Delete(ctx, communityID, p.MemberID); err != nil && err != repository.ErrNotFound {
			return evicted, apperrors.Unavailable("failed to remove evicted member")
		}
		evicted = append(evicted, EvictedMember{
			MemberID:        p.MemberID,
			Mode:            p.Mode,
			JoinedAt:        p.JoinedAt,
			MinutesCredited: minutes,
		})
	}
	return evicted, nil
}

// ToggleMaintenance flips the community's maintenance flag. Turning it on
// evicts and credits every open session first, so no time is stranded.
func (s *SessionService) ToggleMaintenance(ctx context.Context, communityID string) (bool, []EvictedMember, *apperrors.APIError) {
	on, err := s.communities.IsMaintenance(ctx, communityID)
	if err != nil {
		return false, nil, apperrors.Unavailable("failed to read maintenance flag")
	}

	if on {
		if err := s.communities.SetMaintenance(ctx, communityID, false); err != nil {
			return true, nil, apperrors.Unavailable("failed to clear maintenance flag")
		}
		return false, nil, nil
	}

	evicted, apiErr := s.EvictAll(ctx, communityID)
	if apiErr != nil {
		return false, evicted, apiErr
	}
	if err := s.communities.SetMaintenance(ctx, communityID, true); err != nil {
		return false, evicted, apperrors.Unavailable("failed to set maintenance flag")
	}
	return true, evicted, nil
}

func (s *SessionService) ensureNotMaintenance(ctx context.Context, communityID string) *apperrors.APIError {
	on, err := s.communities.IsMaintenance(ctx, communityID)
	if err != nil {
		return apperrors.Unavailable("failed to read maintenance flag")
	}
	if on {
		return apperrors.Forbidden("maintenance_mode", "community is in maintenance mode")
	}
	return nil
}

// creditableMinutes floors the span since the member was last credited.
// CreditedAt trails the scheduler's boundary credits, so the same interval
// is never counted twice.
func creditableMinutes(p *model.Participant, now time.Time) int {
	since := p.CreditedAt
	if p.JoinedAt.After(since) {
		since = p.JoinedAt
	}
	elapsed := now.Sub(since)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}
