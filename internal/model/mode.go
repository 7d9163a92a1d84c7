package model

import "strconv"

const (
	PhaseWork  = "work"
	PhaseBreak = "break"

	ModeA = "A"
	ModeB = "B"
)

const (
	DefaultModeAWorkMinutes  = 50
	DefaultModeABreakMinutes = 10
	DefaultModeBWorkMinutes  = 25
	DefaultModeBBreakMinutes = 5
)

// Segment is one phase slice within a mode's hourly cycle.
type Segment struct {
	Phase   string `json:"phase"`
	Minutes int    `json:"minutes"`
}

// Mode is an immutable cadence definition. Modes are built once at startup
// and never mutated afterwards.
type Mode struct {
	Name         string    `json:"name"`
	DisplayName  string    `json:"displayName"`
	WorkMinutes  int       `json:"workMinutes"`
	BreakMinutes int       `json:"breakMinutes"`
	Segments     []Segment `json:"segments"`
}

// NewModeA builds the single work/break cadence (50-10 by default).
func NewModeA(workMinutes, breakMinutes int) Mode {
	return Mode{
		Name:         ModeA,
		DisplayName:  displayName(workMinutes, breakMinutes),
		WorkMinutes:  workMinutes,
		BreakMinutes: breakMinutes,
		Segments: []Segment{
			{Phase: PhaseWork, Minutes: workMinutes},
			{Phase: PhaseBreak, Minutes: breakMinutes},
		},
	}
}

// NewModeB builds the doubled cadence (25-5-25-5 by default), repeating
// twice within the hour.
func NewModeB(workMinutes, breakMinutes int) Mode {
	return Mode{
		Name:         ModeB,
		DisplayName:  displayName(workMinutes, breakMinutes),
		WorkMinutes:  workMinutes,
		BreakMinutes: breakMinutes,
		Segments: []Segment{
			{Phase: PhaseWork, Minutes: workMinutes},
			{Phase: PhaseBreak, Minutes: breakMinutes},
			{Phase: PhaseWork, Minutes: workMinutes},
			{Phase: PhaseBreak, Minutes: breakMinutes},
		},
	}
}

// CycleMinutes is the total length of one pass over the segment list.
func (m Mode) CycleMinutes() int {
	total := 0
	for _, seg := range m.Segments {
		total += seg.Minutes
	}
	return total
}

func displayName(workMinutes, breakMinutes int) string {
	return strconv.Itoa(workMinutes) + "-" + strconv.Itoa(breakMinutes)
}
