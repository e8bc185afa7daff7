package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// voiceGateway hands the manager a way to leave a guild's voice channel.
// Leaving only sends the gateway op with an empty channel id; the audio
// socket itself belongs to the remote node, not this process.
type voiceGateway struct {
	session *discordgo.Session
}

func (g *voiceGateway) Leave(ctx context.Context, guildID string) error {
	return g.session.ChannelVoiceJoinManual(guildID, "", false, true)
}
