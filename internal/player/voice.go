package player

import (
	"context"
	"sync"

	"github.com/aeris-bot/aeris/internal/lavalink"
)

// voiceConnection is the per-guild voice handshake state assembled from the
// chat platform's voice state and voice server updates.
type voiceConnection struct {
	ChannelID string
	SessionID string
	Token     string
	Endpoint  string
}

func (c voiceConnection) complete() bool {
	return c.SessionID != "" && c.Token != "" && c.Endpoint != ""
}

// voiceRegistry holds one voiceConnection per guild.
type voiceRegistry struct {
	mu    sync.Mutex
	conns map[string]voiceConnection
}

func newVoiceRegistry() *voiceRegistry {
	return &voiceRegistry{conns: make(map[string]voiceConnection)}
}

func (r *voiceRegistry) update(guildID string, fn func(*voiceConnection)) voiceConnection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn := r.conns[guildID]
	fn(&conn)
	r.conns[guildID] = conn
	return conn
}

func (r *voiceRegistry) get(guildID string) (voiceConnection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[guildID]
	return conn, ok
}

func (r *voiceRegistry) remove(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, guildID)
}

// voiceState returns the guild's credentials in wire form, or nil when the
// handshake is still incomplete.
func (r *voiceRegistry) voiceState(guildID string) *lavalink.VoiceState {
	conn, ok := r.get(guildID)
	if !ok || !conn.complete() {
		return nil
	}
	return &lavalink.VoiceState{
		Token:     conn.Token,
		Endpoint:  conn.Endpoint,
		SessionID: conn.SessionID,
	}
}

// HandleVoiceStateUpdate processes the bot's own voice state changes. An
// empty channelID means the bot left (or was disconnected from) the
// guild's voice channel, which destroys the player.
func (m *Manager) HandleVoiceStateUpdate(ctx context.Context, guildID, channelID, sessionID string) {
	if channelID == "" {
		m.voices.remove(guildID)
		if err := m.Destroy(ctx, guildID); err != nil {
			m.logger.WithField("guild_id", guildID).WithError(err).Error("failed to destroy player after voice disconnect")
		}
		return
	}

	m.voices.update(guildID, func(c *voiceConnection) {
		c.ChannelID = channelID
		c.SessionID = sessionID
	})
	m.pushVoice(ctx, guildID)
}

// HandleVoiceServerUpdate stores the guild's voice server credentials and
// forwards them to the assigned node once the handshake is complete.
func (m *Manager) HandleVoiceServerUpdate(ctx context.Context, guildID, token, endpoint string) {
	m.voices.update(guildID, func(c *voiceConnection) {
		c.Token = token
		c.Endpoint = endpoint
	})
	m.pushVoice(ctx, guildID)
}

// pushVoice patches the guild's remote player with fresh voice
// credentials. noReplace keeps the patch from clobbering a playing track.
func (m *Manager) pushVoice(ctx context.Context, guildID string) {
	voice := m.voices.voiceState(guildID)
	if voice == nil {
		return
	}

	state, ok := m.players.Snapshot(guildID)
	if !ok {
		return
	}

	patch := lavalink.UpdatePlayer{Voice: voice}
	if _, err := m.cluster.Node(state.NodeID).UpdatePlayer(ctx, guildID, patch, true); err != nil {
		m.logger.WithField("guild_id", guildID).WithError(err).Error("failed to push voice credentials")
	}
}

// HandleChannelOccupancy reacts to listeners joining or leaving the voice
// channel the bot sits in: an empty channel schedules a timed destroy, the
// first listener back cancels it.
func (m *Manager) HandleChannelOccupancy(ctx context.Context, guildID string, listeners int) {
	state, ok := m.players.Snapshot(guildID)
	if !ok {
		return
	}

	if listeners == 0 {
		if !state.HasDestroyTimer {
			m.TimedDestroy(guildID, m.emptyTimeout)
			m.RefreshMessage(ctx, guildID)
		}
		return
	}

	if state.HasDestroyTimer {
		m.CancelDestroy(guildID)
		m.RefreshMessage(ctx, guildID)
	}
}

// BotChannelID returns the voice channel the bot occupies in the guild.
func (m *Manager) BotChannelID(guildID string) (string, bool) {
	conn, ok := m.voices.get(guildID)
	if !ok || conn.ChannelID == "" {
		return "", false
	}
	return conn.ChannelID, true
}
