package service

import (
	"context"

	apperrors "studytimer/backend/internal/errors"
	"studytimer/backend/internal/model"
	"studytimer/backend/internal/repository"
)

// StatsService answers the read-side queries: leaderboards, per-member
// stats, streaks, plus the admin clear operation.
type StatsService struct {
	ledger  *repository.LedgerRepository
	streaks *repository.StreakRepository
}

type LeaderboardRow struct {
	Rank  int               `json:"rank"`
	Entry model.LedgerEntry `json:"entry"`
}

type MemberStats struct {
	Ledger model.LedgerEntry `json:"ledger"`
	Streak StreakView        `json:"streak"`
}

type StreakView struct {
	MemberID      string `json:"memberId"`
	CurrentStreak int    `json:"currentStreak"`
	BestStreak    int    `json:"bestStreak"`
}

const defaultLeaderboardSize = 10

func NewStatsService(ledger *repository.LedgerRepository, streaks *repository.StreakRepository) *StatsService {
	return &StatsService{ledger: ledger, streaks: streaks}
}

func (s *StatsService) Leaderboard(ctx context.Context, communityID, key string, n int) ([]LeaderboardRow, *apperrors.APIError) {
	if key == "" {
		key = model.RankOverall
	}
	if !model.IsValidRankingKey(key) {
		return nil, apperrors.BadRequest("invalid_ranking_key", "ranking key must be one of overall, work_a, work_b, sessions, average")
	}
	if n <= 0 || n > 100 {
		n = defaultLeaderboardSize
	}

	entries, err := s.ledger.TopN(ctx, communityID, key, n)
	if err != nil {
		return nil, apperrors.Unavailable("failed to query leaderboard")
	}

	rows := make([]LeaderboardRow, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, LeaderboardRow{Rank: i + 1, Entry: entry})
	}
	return rows, nil
}

// Stats returns a member's full ledger snapshot plus streaks, defaulting to
// zero values when the member has no history yet.
func (s *StatsService) Stats(ctx context.Context, communityID, memberID string) (*MemberStats, *apperrors.APIError) {
	entry, err := s.ledger.Get(ctx, communityID, memberID)
	if err == repository.ErrNotFound {
		entry = &model.LedgerEntry{CommunityID: communityID, MemberID: memberID}
	} else if err != nil {
		return nil, apperrors.Unavailable("failed to read ledger")
	}

	streak, apiErr := s.Streak(ctx, communityID, memberID)
	if apiErr != nil {
		return nil, apiErr
	}

	return &MemberStats{Ledger: *entry, Streak: *streak}, nil
}

func (s *StatsService) Streak(ctx context.Context, communityID, memberID string) (*StreakView, *apperrors.APIError) {
	entry, err := s.streaks.Get(ctx, communityID, memberID)
	if err == repository.ErrNotFound {
		return &StreakView{MemberID: memberID}, nil
	}
	if err != nil {
		return nil, apperrors.Unavailable("failed to read streak")
	}
	return &StreakView{
		MemberID:      memberID,
		CurrentStreak: entry.CurrentStreak,
		BestStreak:    entry.BestStreak,
	}, nil
}

func (s *StatsService) TopStreaks(ctx context.Context, communityID string, n int) ([]StreakView, *apperrors.APIError) {
	if n <= 0 || n > 100 {
		n = defaultLeaderboardSize
	}

	entries, err := s.streaks.TopN(ctx, communityID, n)
	if err != nil {
		return nil, apperrors.Unavailable("failed to query streaks")
	}

	views := make([]StreakView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, StreakView{
			MemberID:      entry.MemberID,
			CurrentStreak: entry.CurrentStreak,
			BestStreak:    entry.BestStreak,
		})
	}
	return views, nil
}

// Clear wipes all accumulated stats for the community. Irreversible.
func (s *StatsService) Clear(ctx context.Context, communityID string) *apperrors.APIError {
	if err := s.ledger.Clear(ctx, communityID); err != nil {
		return apperrors.Unavailable("failed to clear ledger")
	}
	if err := s.streaks.Clear(ctx, communityID); err != nil {
		return apperrors.Unavailable("failed to clear streaks")
	}
	return nil
}
