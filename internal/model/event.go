package model

import "time"

// TransitionEvent is emitted when a mode crosses a segment boundary with at
// least one active participant. It is ephemeral; the announcer consumes it
// and nothing persists it.
type TransitionEvent struct {
	CommunityID     string    `json:"communityId"`
	Mode            string    `json:"mode"`
	ModeDisplayName string    `json:"modeDisplayName"`
	NewPhase        string    `json:"newPhase"`
	DurationMinutes int       `json:"durationMinutes"`
	Members         []string  `json:"members"`
	At              time.Time `json:"at"`
}
