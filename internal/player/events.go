package player

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aeris-bot/aeris/internal/lavalink"
)

// resumeTimeout is how long a node keeps a dropped session resumable.
const resumeTimeout = 60 * time.Second

// routeEvents drains the cluster's fan-in channel until it closes. Each
// message is handled on its own goroutine so a slow REST call while
// reacting to one event never backs up the readers.
func (m *Manager) routeEvents() {
	for msg := range m.cluster.Recv() {
		go m.handleClusterMessage(msg)
	}
}

func (m *Manager) handleClusterMessage(msg lavalink.ClusterMessage) {
	log := m.logger.WithField("node", msg.NodeID)

	if msg.Err != nil {
		log.WithError(msg.Err).Warn("dropped undecodable node message")
		return
	}

	if msg.Msg == nil {
		log.Error("node connection lost")
		ctx := context.Background()
		m.migrateNode(ctx, msg.NodeID)
		m.cluster.ScheduleReconnect(msg.NodeID)
		return
	}

	switch v := msg.Msg.(type) {
	case lavalink.Ready:
		log.WithField("resumed", v.Resumed).Info("node ready")
		m.configureResuming(msg.NodeID)
	case lavalink.Stats:
		log.WithFields(logrus.Fields{
			"players":         v.Players,
			"playing_players": v.PlayingPlayers,
		}).Debug("node stats")
	case lavalink.PlayerUpdate:
		log.WithFields(logrus.Fields{
			"guild_id":  v.GuildID,
			"connected": v.State.Connected,
			"ping":      v.State.Ping,
		}).Debug("player update")
	case lavalink.Event:
		m.handleEvent(log, v)
	}
}

// configureResuming asks the node to retain this session for a while after
// a connection drop, so a resume picks the players back up.
func (m *Manager) configureResuming(nodeID int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resuming := true
	timeout := int(resumeTimeout / time.Second)
	req := lavalink.UpdateSessionRequest{Resuming: &resuming, Timeout: &timeout}
	if _, err := m.cluster.Node(nodeID).UpdateSession(ctx, req); err != nil {
		m.logger.WithField("node", nodeID).WithError(err).Warn("failed to enable session resuming")
	}
}

func (m *Manager) handleEvent(log *logrus.Entry, ev lavalink.Event) {
	ctx := context.Background()
	guildID := ev.EventGuildID()
	log = log.WithField("guild_id", guildID)

	switch v := ev.(type) {
	case lavalink.TrackStartEvent:
		log.WithField("track", v.Track.Info.Title).Debug("track started")
		m.RefreshMessage(ctx, guildID)
	case lavalink.TrackEndEvent:
		log.WithFields(logrus.Fields{
			"track":  v.Track.Info.Title,
			"reason": v.Reason,
		}).Debug("track ended")
		if v.Reason.MayStartNext() {
			if err := m.NextTrack(ctx, guildID); err != nil {
				log.WithError(err).Error("failed to advance queue")
			}
		}
	case lavalink.TrackExceptionEvent:
		log.WithFields(logrus.Fields{
			"track":    v.Track.Info.Title,
			"severity": v.Exception.Severity,
			"cause":    v.Exception.Cause,
		}).Warn("track raised an exception")
	case lavalink.TrackStuckEvent:
		log.WithFields(logrus.Fields{
			"track":     v.Track.Info.Title,
			"threshold": v.ThresholdMs,
		}).Warn("track stuck")
	case lavalink.WebSocketClosedEvent:
		log.WithFields(logrus.Fields{
			"code":      v.Code,
			"reason":    v.Reason,
			"by_remote": v.ByRemote,
		}).Warn("discord voice websocket closed")
	}
}
