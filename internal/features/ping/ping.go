package ping

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

func Respond(s *discordgo.Session, i *discordgo.InteractionCreate) {
	latency := s.HeartbeatLatency().Round(time.Millisecond)

	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("Pong! Gateway latency: %s", latency),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
