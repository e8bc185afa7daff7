package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// onVoiceStateUpdate forwards the bot's own voice state to the player
// manager and recounts listeners when anyone else moves.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if e.GuildID == "" {
		return
	}

	ctx := context.Background()

	if s.State.User != nil && e.UserID == s.State.User.ID {
		b.manager.HandleVoiceStateUpdate(ctx, e.GuildID, e.ChannelID, e.SessionID)
		return
	}

	botChannel, ok := b.manager.BotChannelID(e.GuildID)
	if !ok {
		return
	}

	// Only joins/leaves touching the bot's channel can change the count.
	moved := e.ChannelID == botChannel ||
		(e.BeforeUpdate != nil && e.BeforeUpdate.ChannelID == botChannel)
	if !moved {
		return
	}

	b.manager.HandleChannelOccupancy(ctx, e.GuildID, b.countListeners(e.GuildID, botChannel))
}

func (b *Bot) onVoiceServerUpdate(s *discordgo.Session, e *discordgo.VoiceServerUpdate) {
	b.manager.HandleVoiceServerUpdate(context.Background(), e.GuildID, e.Token, e.Endpoint)
}

// countListeners counts non-bot members sitting in the given voice channel.
func (b *Bot) countListeners(guildID, channelID string) int {
	guild, err := b.session.State.Guild(guildID)
	if err != nil {
		return 0
	}

	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		if b.session.State.User != nil && vs.UserID == b.session.State.User.ID {
			continue
		}
		if member, err := b.session.State.Member(guildID, vs.UserID); err == nil && member.User != nil && member.User.Bot {
			continue
		}
		count++
	}
	return count
}
