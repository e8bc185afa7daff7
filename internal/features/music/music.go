package music

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/aeris-bot/aeris/internal/player"
)

// Handler implements the music slash commands on top of the player
// manager. Every reply is ephemeral; the persistent view of the player is
// the status message the manager maintains.
type Handler struct {
	manager *player.Manager
	logger  *logrus.Logger
}

func NewHandler(manager *player.Manager, logger *logrus.Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  logger,
	}
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

func commandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		options[opt.Name] = opt
	}
	return options
}

func (h *Handler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.WithError(err).Warn("failed to respond to interaction")
	}
}

func (h *Handler) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.WithError(err).Warn("failed to defer interaction")
		return false
	}
	return true
}

func (h *Handler) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		h.logger.WithError(err).Warn("failed to send follow-up")
	}
}

// callerVoiceChannel returns the voice channel the invoking user sits in.
func callerVoiceChannel(s *discordgo.Session, i *discordgo.InteractionCreate) (string, bool) {
	user := interactionUser(i)
	if user == nil {
		return "", false
	}
	vs, err := s.State.VoiceState(i.GuildID, user.ID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

// ensureVoice joins the caller's voice channel unless the bot is already
// in one for this guild.
func (h *Handler) ensureVoice(s *discordgo.Session, i *discordgo.InteractionCreate) (string, error) {
	channelID, ok := callerVoiceChannel(s, i)
	if !ok {
		return "", errors.New("caller not in a voice channel")
	}

	if _, joined := h.manager.BotChannelID(i.GuildID); !joined {
		if err := s.ChannelVoiceJoinManual(i.GuildID, channelID, false, true); err != nil {
			return "", err
		}
	}
	return channelID, nil
}

func (h *Handler) Play(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if _, err := h.ensureVoice(s, i); err != nil {
		h.respond(s, i, "Join a voice channel first.")
		return
	}

	if !h.deferResponse(s, i) {
		return
	}

	options := commandOptions(i)
	query := options["query"].StringValue()

	mode := player.AddToEnd
	if opt, ok := options["mode"]; ok {
		switch opt.StringValue() {
		case "next":
			mode = player.AddToNext
		case "now":
			mode = player.PlayNow
		}
	}

	result, err := h.manager.Play(context.Background(), player.PlayRequest{
		GuildID:       i.GuildID,
		Query:         query,
		Requester:     interactionUser(i).Username,
		TextChannelID: i.ChannelID,
		Locale:        string(i.Locale),
		Template:      player.TemplateDefault,
		Mode:          mode,
	})
	if err != nil {
		h.logger.WithField("guild_id", i.GuildID).WithError(err).Error("play command failed")
		h.followUp(s, i, "Something went wrong while loading that.")
		return
	}

	h.followUp(s, i, playSummary(result))
}

func playSummary(result player.PlayResult) string {
	switch {
	case result.Count == 0 && result.Truncated:
		return "The queue is full."
	case result.Count == 0:
		return "Nothing found for that query."
	}

	var summary string
	if result.Count == 1 && result.Track != nil {
		summary = fmt.Sprintf("Queued **%s** by %s.", result.Track.Title, result.Track.Author)
	} else {
		summary = fmt.Sprintf("Queued **%d** tracks.", result.Count)
	}

	if result.Playing {
		summary += " Playing now."
	}
	if result.Truncated {
		summary += " Some tracks were dropped, the queue is full."
	}
	return summary
}

func (h *Handler) Join(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channelID, ok := callerVoiceChannel(s, i)
	if !ok {
		h.respond(s, i, "Join a voice channel first.")
		return
	}

	if err := s.ChannelVoiceJoinManual(i.GuildID, channelID, false, true); err != nil {
		h.logger.WithField("guild_id", i.GuildID).WithError(err).Error("voice join failed")
		h.respond(s, i, "Could not join your channel.")
		return
	}

	if err := h.manager.Init(context.Background(), i.GuildID, i.ChannelID, string(i.Locale), player.TemplateDefault); err != nil && !errors.Is(err, player.ErrPlayerExists) {
		h.logger.WithField("guild_id", i.GuildID).WithError(err).Error("player init failed")
		h.respond(s, i, "No audio node is available right now.")
		return
	}

	h.respond(s, i, "Joined your channel.")
}

func (h *Handler) Skip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	track, err := h.manager.Skip(context.Background(), i.GuildID)
	if err != nil {
		h.respondManagerError(s, i, err)
		return
	}
	if track == nil {
		h.respond(s, i, "The queue is empty.")
		return
	}
	h.respond(s, i, fmt.Sprintf("Skipped to **%s**.", track.Title))
}

func (h *Handler) Previous(s *discordgo.Session, i *discordgo.InteractionCreate) {
	track, err := h.manager.Previous(context.Background(), i.GuildID)
	if err != nil {
		h.respondManagerError(s, i, err)
		return
	}
	if track == nil {
		h.respond(s, i, "The queue is empty.")
		return
	}
	h.respond(s, i, fmt.Sprintf("Went back to **%s**.", track.Title))
}

func (h *Handler) SetPause(s *discordgo.Session, i *discordgo.InteractionCreate, paused bool) {
	effective, err := h.manager.SetPause(context.Background(), i.GuildID, paused)
	if err != nil {
		h.respondManagerError(s, i, err)
		return
	}
	if effective {
		h.respond(s, i, "Paused.")
	} else {
		h.respond(s, i, "Playing.")
	}
}

func (h *Handler) Seek(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := commandOptions(i)
	seconds := options["seconds"].IntValue()
	if seconds < 0 {
		seconds = 0
	}

	result, err := h.manager.Seek(context.Background(), i.GuildID, time.Duration(seconds)*time.Second)
	if err != nil {
		h.respondManagerError(s, i, err)
		return
	}
	if result == nil {
		h.respond(s, i, "Nothing is playing.")
		return
	}

	h.respond(s, i, fmt.Sprintf("Position: %s / %s",
		formatDuration(result.Position), formatDuration(result.Total)))
}

func (h *Handler) Loop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID := i.GuildID

	var mode player.LoopMode
	if opt, ok := commandOptions(i)["mode"]; ok {
		mode = player.ParseLoopMode(opt.StringValue())
	} else {
		current, exists := h.manager.LoopMode(guildID)
		if !exists {
			h.respond(s, i, "Nothing is playing.")
			return
		}
		mode = current.Next()
	}

	if err := h.manager.SetLoopMode(context.Background(), guildID, mode); err != nil {
		h.respondManagerError(s, i, err)
		return
	}
	h.respond(s, i, fmt.Sprintf("Loop mode: **%s**.", mode))
}

func (h *Handler) Shuffle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := h.manager.Shuffle(i.GuildID); err != nil {
		h.respondManagerError(s, i, err)
		return
	}
	h.respond(s, i, "Queue shuffled.")
}

const queuePageSize = 10

func (h *Handler) Queue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	queue, current, ok := h.manager.Queue(i.GuildID)
	if !ok {
		h.respond(s, i, "Nothing is playing.")
		return
	}
	if len(queue) == 0 {
		h.respond(s, i, "The queue is empty.")
		return
	}

	start := current
	end := start + queuePageSize
	if end > len(queue) {
		end = len(queue)
	}

	content := fmt.Sprintf("**Queue** (%d tracks)\n", len(queue))
	for idx := start; idx < end; idx++ {
		track := queue[idx]
		marker := "  "
		if idx == current {
			marker = "▶ "
		}
		content += fmt.Sprintf("%s`%d.` %s (%s)\n", marker, idx+1, track.Title, formatDuration(track.Duration))
	}
	if end < len(queue) {
		content += fmt.Sprintf("...and %d more", len(queue)-end)
	}

	h.respond(s, i, content)
}

func (h *Handler) Stop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.manager.Contains(i.GuildID) {
		h.respond(s, i, "Nothing is playing.")
		return
	}

	if err := h.manager.Destroy(context.Background(), i.GuildID); err != nil {
		h.logger.WithField("guild_id", i.GuildID).WithError(err).Warn("destroy finished with errors")
	}
	h.respond(s, i, "Stopped and left the channel.")
}

func (h *Handler) respondManagerError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	if errors.Is(err, player.ErrPlayerNotFound) {
		h.respond(s, i, "Nothing is playing.")
		return
	}
	h.logger.WithField("guild_id", i.GuildID).WithError(err).Error("command failed")
	h.respond(s, i, "Something went wrong.")
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
