package model

import "time"

// StreakEntry tracks consecutive calendar days with at least one closed work
// session. Invariant: CurrentStreak <= BestStreak.
type StreakEntry struct {
	CommunityID    string    `json:"communityId"`
	MemberID       string    `json:"memberId"`
	CurrentStreak  int       `json:"currentStreak"`
	BestStreak     int       `json:"bestStreak"`
	LastCreditDate time.Time `json:"lastCreditDate"`
}
