package announce

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"studytimer/backend/internal/model"
)

// DiscordAnnouncer posts transition messages to a fixed channel. It only
// sends; command handling and role management stay outside this service.
type DiscordAnnouncer struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordAnnouncer(token, channelID string) (*DiscordAnnouncer, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordAnnouncer{
		session:   session,
		channelID: channelID,
	}, nil
}

func (a *DiscordAnnouncer) Announce(ctx context.Context, event model.TransitionEvent) error {
	_, err := a.session.ChannelMessageSend(
		a.channelID,
		FormatMessage(event),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("send transition message: %w", err)
	}
	return nil
}

func (a *DiscordAnnouncer) Close() error {
	return a.session.Close()
}
