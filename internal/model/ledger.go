package model

import "time"

// Ranking keys accepted by leaderboard queries.
const (
	RankOverall  = "overall"
	RankWorkA    = "work_a"
	RankWorkB    = "work_b"
	RankSessions = "sessions"
	RankAverage  = "average"
)

// MinSessionsForAverage filters the average-per-session ranking to members
// with a meaningful sample.
const MinSessionsForAverage = 10

// LedgerEntry holds a member's accumulated credited time. All counters are
// monotonically non-decreasing until an admin clears the community.
type LedgerEntry struct {
	CommunityID   string    `json:"communityId"`
	MemberID      string    `json:"memberId"`
	TotalSeconds  int64     `json:"totalSeconds"`
	WorkSecondsA  int64     `json:"workSecondsA"`
	WorkSecondsB  int64     `json:"workSecondsB"`
	BreakSecondsA int64     `json:"breakSecondsA"`
	BreakSecondsB int64     `json:"breakSecondsB"`
	SessionCount  int64     `json:"sessionCount"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func IsValidRankingKey(key string) bool {
	switch key {
	case RankOverall, RankWorkA, RankWorkB, RankSessions, RankAverage:
		return true
	}
	return false
}
