package commands

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/aeris-bot/aeris/internal/features/music"
	"github.com/aeris-bot/aeris/internal/features/ping"
	"github.com/aeris-bot/aeris/internal/player"
)

type Deps struct {
	Manager *player.Manager
	Logger  *logrus.Logger
}

// Handler routes slash command interactions to their feature handlers.
type Handler struct {
	music  *music.Handler
	logger *logrus.Logger
}

func New(deps Deps) *Handler {
	return &Handler{
		music:  music.NewHandler(deps.Manager, deps.Logger),
		logger: deps.Logger,
	}
}

var CommandList = []*discordgo.ApplicationCommand{
	{
		Name:        "ping",
		Description: "Check the bot's latency",
	},
	{
		Name:        "play",
		Description: "Queue a track, playlist or search result",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "URL or search terms",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "Where the tracks go",
				Required:    false,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Add to end", Value: "end"},
					{Name: "Play next", Value: "next"},
					{Name: "Play now", Value: "now"},
				},
			},
		},
	},
	{
		Name:        "join",
		Description: "Summon the bot to your voice channel",
	},
	{
		Name:        "skip",
		Description: "Skip to the next track",
	},
	{
		Name:        "previous",
		Description: "Go back to the previous track",
	},
	{
		Name:        "pause",
		Description: "Pause playback",
	},
	{
		Name:        "resume",
		Description: "Resume playback",
	},
	{
		Name:        "seek",
		Description: "Jump to a position in the current track",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "seconds",
				Description: "Position in seconds",
				Required:    true,
			},
		},
	},
	{
		Name:        "loop",
		Description: "Set or cycle the loop mode",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "Loop mode, omit to cycle",
				Required:    false,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Off", Value: "none"},
					{Name: "Track", Value: "single"},
					{Name: "Queue", Value: "all"},
					{Name: "Auto-pause", Value: "autopause"},
				},
			},
		},
	},
	{
		Name:        "shuffle",
		Description: "Shuffle the queue",
	},
	{
		Name:        "queue",
		Description: "Show the queue",
	},
	{
		Name:        "stop",
		Description: "Stop playback and leave the voice channel",
	},
}

var commandNames = func() map[string]struct{} {
	names := make(map[string]struct{}, len(CommandList))
	for _, c := range CommandList {
		names[c.Name] = struct{}{}
	}
	return names
}()

func (h *Handler) AddHandlers(s *discordgo.Session) {
	s.AddHandler(h.onInteraction)
}

func (h *Handler) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	if _, ok := commandNames[name]; !ok {
		return
	}

	switch name {
	case "ping":
		ping.Respond(s, i)
	case "play":
		h.music.Play(s, i)
	case "join":
		h.music.Join(s, i)
	case "skip":
		h.music.Skip(s, i)
	case "previous":
		h.music.Previous(s, i)
	case "pause":
		h.music.SetPause(s, i, true)
	case "resume":
		h.music.SetPause(s, i, false)
	case "seek":
		h.music.Seek(s, i)
	case "loop":
		h.music.Loop(s, i)
	case "shuffle":
		h.music.Shuffle(s, i)
	case "queue":
		h.music.Queue(s, i)
	case "stop":
		h.music.Stop(s, i)
	}
}

// RegisterCommands overwrites the application's command set. A non-empty
// guildID scopes the commands to that guild for instant availability
// during development.
func RegisterCommands(s *discordgo.Session, applicationID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	return s.ApplicationCommandBulkOverwrite(applicationID, guildID, CommandList)
}
