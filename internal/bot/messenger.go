package bot

import (
	"fmt"

	"github.com/aeris-bot/aeris/internal/database"
	"github.com/aeris-bot/aeris/internal/player"
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const embedColor = 0x5865F2

// statusMessenger keeps one status message per guild up to date, editing
// in place when possible and reposting when the old message is gone. The
// message location is persisted so a restart reclaims it instead of
// posting a duplicate.
type statusMessenger struct {
	session *discordgo.Session
	repo    *database.MessageRepository
	logger  *logrus.Logger
}

func newStatusMessenger(session *discordgo.Session, repo *database.MessageRepository, logger *logrus.Logger) *statusMessenger {
	return &statusMessenger{
		session: session,
		repo:    repo,
		logger:  logger,
	}
}

func (m *statusMessenger) Publish(guildID string, state player.State, playing, thinking bool) (string, string) {
	channelID, messageID := state.ChannelID, state.MessageID

	if messageID == "" {
		if storedChannel, storedMessage, ok, err := m.repo.Get(guildID); err == nil && ok {
			if channelID == "" || storedChannel == channelID {
				channelID, messageID = storedChannel, storedMessage
			}
		}
	}
	if channelID == "" {
		return "", ""
	}

	embed := buildStatusEmbed(state, playing, thinking)

	if messageID != "" {
		if _, err := m.session.ChannelMessageEditEmbed(channelID, messageID, embed); err == nil {
			m.persist(guildID, channelID, messageID)
			return channelID, messageID
		}
	}

	msg, err := m.session.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		m.logger.WithField("guild_id", guildID).WithError(err).Warn("failed to post status message")
		return channelID, ""
	}

	m.persist(guildID, channelID, msg.ID)
	return channelID, msg.ID
}

func (m *statusMessenger) persist(guildID, channelID, messageID string) {
	if err := m.repo.Upsert(guildID, channelID, messageID); err != nil {
		m.logger.WithField("guild_id", guildID).WithError(err).Warn("failed to persist status message location")
	}
}

func (m *statusMessenger) Delete(guildID, channelID, messageID string) {
	if err := m.session.ChannelMessageDelete(channelID, messageID); err != nil {
		m.logger.WithField("guild_id", guildID).WithError(err).Debug("failed to delete status message")
	}
	if err := m.repo.Delete(guildID); err != nil {
		m.logger.WithField("guild_id", guildID).WithError(err).Warn("failed to forget status message location")
	}
}

func buildStatusEmbed(state player.State, playing, thinking bool) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{Color: embedColor}

	switch {
	case thinking:
		embed.Title = "Loading..."
	case state.Track == nil:
		embed.Title = "Nothing queued"
		embed.Description = "Use /play to queue a track."
	default:
		track := state.Track
		if playing && !state.Paused {
			embed.Title = "Now playing"
		} else {
			embed.Title = "Paused"
		}
		embed.Description = fmt.Sprintf("[%s](%s)\nby %s", track.Title, track.URL, track.Author)
		if track.ArtworkURL != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ArtworkURL}
		}
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Track %d of %d • Loop: %s • Requested by %s",
				state.Current+1, state.QueueLength, state.LoopMode, track.Requester),
		}
	}

	if state.HasDestroyTimer {
		embed.Description += "\n\nVoice channel is empty, leaving soon."
	}

	return embed
}
