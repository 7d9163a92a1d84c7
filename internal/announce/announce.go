// Package announce delivers transition events to the study channel. The
// scheduler treats announcing as fire-and-forget: a failed announcement must
// never block or undo crediting.
package announce

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"studytimer/backend/internal/model"
)

type Announcer interface {
	Announce(ctx context.Context, event model.TransitionEvent) error
}

// LogAnnouncer writes transitions to the structured log. It is the default
// when no Discord credentials are configured.
type LogAnnouncer struct {
	logger *log.Logger
}

func NewLogAnnouncer(logger *log.Logger) *LogAnnouncer {
	return &LogAnnouncer{logger: logger}
}

func (a *LogAnnouncer) Announce(_ context.Context, event model.TransitionEvent) error {
	a.logger.Info("phase transition",
		"community", event.CommunityID,
		"mode", event.ModeDisplayName,
		"phase", event.NewPhase,
		"minutes", event.DurationMinutes,
		"participants", len(event.Members),
	)
	return nil
}

// FormatMessage renders the channel message for a transition, mirroring the
// bot's announcement format.
func FormatMessage(event model.TransitionEvent) string {
	label := "Break"
	if event.NewPhase == model.PhaseWork {
		label = "Work session"
	}

	mentions := make([]string, 0, len(event.Members))
	for _, member := range event.Members {
		mentions = append(mentions, fmt.Sprintf("<@%s>", member))
	}

	return fmt.Sprintf(
		"⏰ **%s %s** — %d minutes\n%s\n(%d participants)",
		label,
		event.ModeDisplayName,
		event.DurationMinutes,
		strings.Join(mentions, " "),
		len(event.Members),
	)
}
