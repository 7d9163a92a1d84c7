package model

import "time"

// Participant is one member's open study session. At most one row exists per
// (community, member); CreditedAt is the watermark up to which elapsed time
// has already been written into the ledger.
type Participant struct {
	CommunityID string    `json:"communityId"`
	MemberID    string    `json:"memberId"`
	Mode        string    `json:"mode"`
	JoinedAt    time.Time `json:"joinedAt"`
	CreditedAt  time.Time `json:"creditedAt"`
}
