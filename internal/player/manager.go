package player

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aeris-bot/aeris/internal/lavalink"
	"github.com/aeris-bot/aeris/internal/settings"
)

var (
	ErrPlayerExists    = errors.New("player already exists for this guild")
	ErrPlayerNotFound  = errors.New("no player exists for this guild")
	ErrNoAvailableNode = errors.New("no connected audio node available")
)

// DefaultQueueLimit caps how many tracks a guild's queue may hold.
const DefaultQueueLimit = 1000

// DefaultEmptyTimeout is how long the bot stays in an empty voice channel
// before destroying the player.
const DefaultEmptyTimeout = 10 * time.Second

// defaultSearchPrefixes are tried in order when a bare query loads nothing.
var defaultSearchPrefixes = []string{"spsearch:", "ytsearch:", "dzsearch:", "scsearch:"}

// VoiceGateway is the voice-transport side the manager drives: it asks the
// chat platform to join or leave a guild's voice channel.
type VoiceGateway interface {
	Leave(ctx context.Context, guildID string) error
}

// Messenger maintains the per-guild status message. Both calls are
// best-effort; Publish returns the (possibly new) message location.
type Messenger interface {
	Publish(guildID string, state State, playing, thinking bool) (channelID, messageID string)
	Delete(guildID, channelID, messageID string)
}

// Config wires a Manager. Cluster is required; the rest may be nil or zero
// to use defaults.
type Config struct {
	Cluster        *lavalink.Cluster
	Gateway        VoiceGateway
	Messenger      Messenger
	Settings       *settings.Store
	Logger         *logrus.Logger
	QueueLimit     int
	SearchPrefixes []string
	EmptyTimeout   time.Duration
}

// Manager owns every guild's player and keeps it consistent with the
// assigned remote node, the voice transport and the queue. All state
// decisions happen inside the store's per-guild critical sections; network
// calls happen outside them.
type Manager struct {
	cluster   *lavalink.Cluster
	players   *Store
	voices    *voiceRegistry
	gateway   VoiceGateway
	messenger Messenger
	settings  *settings.Store
	logger    *logrus.Logger

	queueLimit     int
	searchPrefixes []string
	emptyTimeout   time.Duration
}

func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.QueueLimit <= 0 {
		cfg.QueueLimit = DefaultQueueLimit
	}
	if len(cfg.SearchPrefixes) == 0 {
		cfg.SearchPrefixes = defaultSearchPrefixes
	}
	if cfg.EmptyTimeout <= 0 {
		cfg.EmptyTimeout = DefaultEmptyTimeout
	}

	return &Manager{
		cluster:        cfg.Cluster,
		players:        NewStore(),
		voices:         newVoiceRegistry(),
		gateway:        cfg.Gateway,
		messenger:      cfg.Messenger,
		settings:       cfg.Settings,
		logger:         cfg.Logger,
		queueLimit:     cfg.QueueLimit,
		searchPrefixes: cfg.SearchPrefixes,
		emptyTimeout:   cfg.EmptyTimeout,
	}
}

// Start connects the cluster and begins routing its push messages.
func (m *Manager) Start(ctx context.Context) {
	m.cluster.ConnectAll(ctx)
	go m.routeEvents()
}

func (m *Manager) Close() {
	m.cluster.Close()
}

// Contains reports whether a player exists for the guild.
func (m *Manager) Contains(guildID string) bool {
	return m.players.Contains(guildID)
}

// PlayerCount returns the number of live players.
func (m *Manager) PlayerCount() int {
	return m.players.Len()
}

// Snapshot returns the guild's player state.
func (m *Manager) Snapshot(guildID string) (State, bool) {
	return m.players.Snapshot(guildID)
}

// Queue returns a copy of the guild's queue and the cursor position.
func (m *Manager) Queue(guildID string) ([]Track, int, bool) {
	var queue []Track
	var current int
	ok := m.players.View(guildID, func(p *Player) {
		queue = make([]Track, len(p.Queue))
		copy(queue, p.Queue)
		current = p.Current
	})
	return queue, current, ok
}

// CurrentTrack returns the track under the guild's cursor.
func (m *Manager) CurrentTrack(guildID string) *Track {
	var track *Track
	m.players.View(guildID, func(p *Player) {
		track = p.CurrentTrack()
	})
	return track
}

// Init creates a player for the guild from a template. It fails with
// ErrPlayerExists when one already exists.
func (m *Manager) Init(ctx context.Context, guildID, textChannelID, locale string, template Template) error {
	if m.players.Contains(guildID) {
		return ErrPlayerExists
	}
	if err := m.createPlayer(ctx, guildID, textChannelID, locale, template); err != nil {
		return err
	}
	m.publishMessage(guildID, false, true)
	return nil
}

func (m *Manager) createPlayer(ctx context.Context, guildID, textChannelID, locale string, template Template) error {
	nodeID, ok := m.cluster.SearchConnectedNode()
	if !ok {
		return ErrNoAvailableNode
	}

	p := &Player{
		LoopMode:  template.LoopMode(),
		Paused:    template.Paused(),
		NodeID:    nodeID,
		ChannelID: textChannelID,
		Locale:    locale,
	}

	if m.settings != nil {
		if pref, err := m.settings.Get(ctx, guildID); err == nil {
			if p.Locale == "" && pref.Locale != "" {
				p.Locale = pref.Locale
			}
			if template == TemplateDefault && pref.LoopMode != "" {
				p.LoopMode = ParseLoopMode(pref.LoopMode)
			}
		} else {
			m.logger.WithField("guild_id", guildID).WithError(err).Debug("failed to load guild preferences")
		}
	}

	if !m.players.InsertIfAbsent(guildID, p) {
		return ErrPlayerExists
	}
	return nil
}

func (m *Manager) initializePlayer(ctx context.Context, req PlayRequest) (State, error) {
	created := false
	if !m.players.Contains(req.GuildID) {
		if err := m.createPlayer(ctx, req.GuildID, req.TextChannelID, req.Locale, req.Template); err != nil {
			return State{}, err
		}
		created = true
	}

	state, ok := m.players.Snapshot(req.GuildID)
	if !ok {
		return State{}, ErrPlayerNotFound
	}

	if created {
		m.publishMessage(req.GuildID, false, true)
	}
	return state, nil
}

// search loads the query as-is and falls back through the configured
// provider prefixes until one returns a non-empty result.
func (m *Manager) search(ctx context.Context, rest *lavalink.Rest, query string) (lavalink.LoadResult, error) {
	result, err := rest.LoadTracks(ctx, query)
	if err != nil {
		return nil, err
	}

	if lavalink.IsEmptyResult(result) {
		for _, prefix := range m.searchPrefixes {
			prefixed, err := rest.LoadTracks(ctx, prefix+query)
			if err != nil {
				return nil, err
			}
			if !lavalink.IsEmptyResult(prefixed) {
				return prefixed, nil
			}
		}
	}

	return result, nil
}

func (m *Manager) fetch(ctx context.Context, query string, nodeID int) (*fetchResult, error) {
	result, err := m.search(ctx, m.cluster.Node(nodeID).Rest, query)
	if err != nil {
		return nil, err
	}

	switch r := result.(type) {
	case lavalink.SearchResult:
		if len(r.Tracks) == 0 {
			return nil, nil
		}
		return &fetchResult{tracks: r.Tracks[:1]}, nil
	case lavalink.LoadedPlaylist:
		fr := &fetchResult{tracks: r.Tracks}
		if r.Info.SelectedTrack >= 0 {
			selected := r.Info.SelectedTrack
			fr.selected = &selected
		}
		return fr, nil
	case lavalink.LoadedTrack:
		return &fetchResult{tracks: []lavalink.Track{r.Track}}, nil
	case lavalink.LoadError:
		m.logger.WithFields(logrus.Fields{
			"query":    query,
			"severity": r.Exception.Severity,
			"cause":    r.Exception.Cause,
		}).Warn("node failed to load track")
		return nil, nil
	}

	return nil, nil
}

type addOperation int

const (
	addToEndOp addOperation = iota
	addToNextOp
)

// addQueue inserts fetched tracks into the guild's queue, enforcing the
// queue ceiling and remapping a playlist's selected index to an absolute
// queue position.
func (m *Manager) addQueue(guildID string, fr fetchResult, requester string, op addOperation) (addQueueResult, error) {
	var res addQueueResult

	ok := m.players.Alter(guildID, func(p *Player) {
		oldSize := len(p.Queue)

		first := oldSize
		if op == addToNextOp && oldSize > 0 {
			first = p.Current + 1
		}
		if first > len(p.Queue) {
			first = len(p.Queue)
		}

		available := m.queueLimit - oldSize
		if available <= 0 {
			res = addQueueResult{firstTrackIndex: first, truncated: true}
			return
		}

		raw := fr.tracks
		truncated := len(raw) > available
		if truncated {
			raw = raw[:available]
		}

		tracks := make([]Track, 0, len(raw))
		for _, t := range raw {
			tracks = append(tracks, trackFromLavalink(t, requester))
		}

		if op == addToEndOp {
			p.Queue = append(p.Queue, tracks...)
		} else {
			p.Queue = append(p.Queue[:first:first], append(tracks, p.Queue[first:]...)...)
		}

		res = addQueueResult{
			firstTrackIndex: first,
			count:           len(tracks),
			truncated:       truncated,
		}

		if fr.selected != nil {
			index := first + *fr.selected
			if index < first || index >= len(p.Queue) {
				index = first
			}
			res.selected = &index
		}
	})
	if !ok {
		return addQueueResult{}, ErrPlayerNotFound
	}
	return res, nil
}

// Play resolves a query against the guild's node and queues the result,
// creating the player first if needed. PlayNow forces playback onto the
// resolved track; the other modes only start playback when the remote node
// reports nothing playing.
func (m *Manager) Play(ctx context.Context, req PlayRequest) (PlayResult, error) {
	state, err := m.initializePlayer(ctx, req)
	if err != nil {
		return PlayResult{}, err
	}

	fr, err := m.fetch(ctx, req.Query, state.NodeID)
	if err != nil {
		return PlayResult{}, err
	}
	if fr == nil {
		return PlayResult{}, nil
	}

	op := addToEndOp
	if req.Mode != AddToEnd {
		op = addToNextOp
	}

	added, err := m.addQueue(req.GuildID, *fr, req.Requester, op)
	if err != nil {
		return PlayResult{}, err
	}

	target := added.firstTrackIndex
	if added.selected != nil {
		target = *added.selected
	}

	var synced syncResult
	if req.Mode == PlayNow {
		synced, err = m.forcedSync(ctx, req.GuildID, target)
	} else {
		synced, err = m.checkedSync(ctx, req.GuildID, target)
	}
	if err != nil {
		return PlayResult{}, err
	}

	return PlayResult{
		Track:     synced.track,
		Count:     added.count,
		Playing:   synced.playing,
		Truncated: added.truncated,
	}, nil
}

// IsPlaying asks the remote node whether the guild's player has an active
// track.
func (m *Manager) IsPlaying(ctx context.Context, guildID string) (bool, error) {
	state, ok := m.players.Snapshot(guildID)
	if !ok {
		return false, ErrPlayerNotFound
	}
	return m.remotePlaying(ctx, guildID, state)
}

func (m *Manager) remotePlaying(ctx context.Context, guildID string, state State) (bool, error) {
	if state.Track == nil {
		return false, nil
	}

	remote, err := m.cluster.Node(state.NodeID).GetPlayer(ctx, guildID)
	if err != nil {
		return false, err
	}
	return remote != nil && remote.Track != nil, nil
}

// checkedSync moves the cursor and starts playback only if the remote node
// is idle. The remote check narrows, but does not close, the race against a
// track starting in between; losing it means the final patch overwrites
// that track, same as a forced start.
func (m *Manager) checkedSync(ctx context.Context, guildID string, index int) (syncResult, error) {
	state, ok := m.players.Snapshot(guildID)
	if !ok {
		return syncResult{}, ErrPlayerNotFound
	}

	playing, err := m.remotePlaying(ctx, guildID, state)
	if err != nil {
		return syncResult{}, err
	}

	safe := index >= 0 && index < state.QueueLength

	if !playing && safe {
		m.players.Alter(guildID, func(p *Player) {
			p.Current = index
		})

		started, err := m.sync(ctx, guildID)
		if err != nil {
			return syncResult{}, err
		}
		if started {
			return syncResult{track: m.CurrentTrack(guildID), playing: true}, nil
		}
	}

	return syncResult{track: m.trackAt(guildID, index)}, nil
}

// forcedSync moves the cursor and pushes the track regardless of what the
// remote node is doing.
func (m *Manager) forcedSync(ctx context.Context, guildID string, index int) (syncResult, error) {
	safe := false
	m.players.View(guildID, func(p *Player) {
		safe = index >= 0 && index < len(p.Queue)
	})

	if safe {
		m.players.Alter(guildID, func(p *Player) {
			p.Current = index
			p.Paused = false
		})

		started, err := m.sync(ctx, guildID)
		if err != nil {
			return syncResult{}, err
		}
		if started {
			return syncResult{track: m.CurrentTrack(guildID), playing: true}, nil
		}
	}

	return syncResult{track: m.trackAt(guildID, index)}, nil
}

func (m *Manager) trackAt(guildID string, index int) *Track {
	var track *Track
	m.players.View(guildID, func(p *Player) {
		if index >= 0 && index < len(p.Queue) {
			t := p.Queue[index]
			track = &t
		}
	})
	return track
}

// sync pushes the current track, pause flag and voice credentials to the
// assigned node. It reports false when the queue has no current track.
func (m *Manager) sync(ctx context.Context, guildID string) (bool, error) {
	var (
		encoded string
		paused  bool
		nodeID  int
		found   bool
	)
	m.players.View(guildID, func(p *Player) {
		if track := p.CurrentTrack(); track != nil {
			encoded = track.Encoded
			paused = p.Paused
			nodeID = p.NodeID
			found = true
		}
	})
	if !found {
		return false, nil
	}

	patch := lavalink.UpdatePlayer{
		Track:  &lavalink.UpdatePlayerTrack{Encoded: &encoded},
		Paused: &paused,
		Voice:  m.voices.voiceState(guildID),
	}

	if _, err := m.cluster.Node(nodeID).UpdatePlayer(ctx, guildID, patch, false); err != nil {
		return false, err
	}

	m.logger.WithField("guild_id", guildID).Debug("player synced")
	return true, nil
}

// Time reads the current position and length from the remote node.
func (m *Manager) Time(ctx context.Context, guildID string) (*SeekResult, error) {
	state, ok := m.players.Snapshot(guildID)
	if !ok {
		return nil, ErrPlayerNotFound
	}

	remote, err := m.cluster.Node(state.NodeID).GetPlayer(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if remote == nil || remote.Track == nil {
		return nil, nil
	}

	return &SeekResult{
		Position: time.Duration(remote.Track.Info.Position) * time.Millisecond,
		Total:    time.Duration(remote.Track.Info.Length) * time.Millisecond,
	}, nil
}

// Seek pushes an absolute position, clamped to the track's length in the
// reported result.
func (m *Manager) Seek(ctx context.Context, guildID string, position time.Duration) (*SeekResult, error) {
	state, ok := m.players.Snapshot(guildID)
	if !ok {
		return nil, ErrPlayerNotFound
	}

	millis := position.Milliseconds()
	patch := lavalink.UpdatePlayer{Position: &millis}

	remote, err := m.cluster.Node(state.NodeID).UpdatePlayer(ctx, guildID, patch, true)
	if err != nil {
		return nil, err
	}
	if remote.Track == nil {
		return nil, nil
	}

	total := time.Duration(remote.Track.Info.Length) * time.Millisecond
	if position > total {
		position = total
	}
	return &SeekResult{Position: position, Total: total}, nil
}

// Skip moves the cursor forward with wraparound and resyncs.
func (m *Manager) Skip(ctx context.Context, guildID string) (*Track, error) {
	return m.step(ctx, guildID, +1)
}

// Previous moves the cursor backward with wraparound and resyncs.
func (m *Manager) Previous(ctx context.Context, guildID string) (*Track, error) {
	return m.step(ctx, guildID, -1)
}

func (m *Manager) step(ctx context.Context, guildID string, delta int) (*Track, error) {
	var track *Track
	ok := m.players.Alter(guildID, func(p *Player) {
		if len(p.Queue) == 0 {
			return
		}
		p.Current = (p.Current + delta + len(p.Queue)) % len(p.Queue)
		track = p.CurrentTrack()
	})
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if track == nil {
		return nil, nil
	}

	if _, err := m.sync(ctx, guildID); err != nil {
		return nil, err
	}
	return track, nil
}

// Shuffle randomizes the queue while pinning the currently audible track to
// the front; the cursor resets with it, so what is playing does not change.
func (m *Manager) Shuffle(guildID string) error {
	ok := m.players.Alter(guildID, func(p *Player) {
		if len(p.Queue) == 0 {
			return
		}

		current := p.Queue[p.Current]
		p.Queue = append(p.Queue[:p.Current], p.Queue[p.Current+1:]...)

		rand.Shuffle(len(p.Queue), func(i, j int) {
			p.Queue[i], p.Queue[j] = p.Queue[j], p.Queue[i]
		})

		p.Queue = append([]Track{current}, p.Queue...)
		p.Current = 0
	})
	if !ok {
		return ErrPlayerNotFound
	}
	return nil
}

// LoopMode returns the guild's loop mode.
func (m *Manager) LoopMode(guildID string) (LoopMode, bool) {
	var mode LoopMode
	ok := m.players.View(guildID, func(p *Player) {
		mode = p.LoopMode
	})
	return mode, ok
}

// SetLoopMode updates the loop mode, persists it as the guild's preference
// and refreshes the status message.
func (m *Manager) SetLoopMode(ctx context.Context, guildID string, mode LoopMode) error {
	ok := m.players.Alter(guildID, func(p *Player) {
		p.LoopMode = mode
	})
	if !ok {
		return ErrPlayerNotFound
	}

	if m.settings != nil {
		if err := m.settings.SetLoopMode(ctx, guildID, mode.String()); err != nil {
			m.logger.WithField("guild_id", guildID).WithError(err).Warn("failed to persist loop mode")
		}
	}

	m.RefreshMessage(ctx, guildID)
	return nil
}

// Paused returns the guild's local pause flag.
func (m *Manager) Paused(guildID string) (bool, bool) {
	var paused bool
	ok := m.players.View(guildID, func(p *Player) {
		paused = p.Paused
	})
	return paused, ok
}

// SetPause pauses or resumes. When the remote node is not playing anything,
// a resume request triggers a resync instead, since there is nothing to
// un-pause remotely. The returned flag is the effective pause state.
func (m *Manager) SetPause(ctx context.Context, guildID string, paused bool) (bool, error) {
	playing, err := m.IsPlaying(ctx, guildID)
	if err != nil {
		return false, err
	}

	if playing {
		state, ok := m.players.Snapshot(guildID)
		if !ok {
			return false, ErrPlayerNotFound
		}

		patch := lavalink.UpdatePlayer{Paused: &paused}
		if _, err := m.cluster.Node(state.NodeID).UpdatePlayer(ctx, guildID, patch, true); err != nil {
			return false, err
		}

		m.players.Alter(guildID, func(p *Player) {
			p.Paused = paused
		})
		m.publishMessage(guildID, true, false)
		return paused, nil
	}

	m.players.Alter(guildID, func(p *Player) {
		p.Paused = false
	})
	if _, err := m.sync(ctx, guildID); err != nil {
		return false, err
	}
	return false, nil
}

// NextTrack applies the loop-mode policy after a track ends: None advances
// and stops at the last track, Single replays, All wraps, AutoPause
// advances paused and waits for a manual resume.
func (m *Manager) NextTrack(ctx context.Context, guildID string) error {
	var (
		needSync bool
		exists   bool
	)

	m.players.Alter(guildID, func(p *Player) {
		exists = true
		if len(p.Queue) == 0 {
			return
		}

		atEnd := p.Current+1 >= len(p.Queue)

		switch p.LoopMode {
		case LoopSingle:
			needSync = true
			p.Paused = false
		case LoopAll:
			p.Current = (p.Current + 1) % len(p.Queue)
			needSync = true
			p.Paused = false
		case LoopAutoPause:
			if !atEnd {
				p.Current++
			}
			p.Paused = true
		default:
			if !atEnd {
				p.Current++
				needSync = true
			}
			p.Paused = false
		}
	})
	if !exists {
		return nil
	}

	if needSync {
		if _, err := m.sync(ctx, guildID); err != nil {
			return err
		}
		return nil
	}

	m.RefreshMessage(ctx, guildID)
	return nil
}

// TimedDestroy schedules the player's destruction after the given delay.
// It is a no-op when a timer is already pending.
func (m *Manager) TimedDestroy(guildID string, delay time.Duration) {
	m.players.Alter(guildID, func(p *Player) {
		if p.destroyTimer != nil {
			return
		}
		p.destroyTimer = time.AfterFunc(delay, func() {
			if err := m.Destroy(context.Background(), guildID); err != nil {
				m.logger.WithField("guild_id", guildID).WithError(err).Error("timed destroy failed")
			}
		})
	})
}

// CancelDestroy stops a pending destroy timer; a no-op when none is
// pending. A timer that already fired runs into Destroy's idempotent
// removal and does nothing.
func (m *Manager) CancelDestroy(guildID string) {
	m.players.Alter(guildID, func(p *Player) {
		if p.destroyTimer != nil {
			p.destroyTimer.Stop()
			p.destroyTimer = nil
		}
	})
}

// Destroy removes the player and then runs the teardown side effects:
// leave the voice channel, discard the remote player, delete the status
// message, stop any pending timer. The removal happens first, so only one
// of several concurrent calls executes the sequence.
func (m *Manager) Destroy(ctx context.Context, guildID string) error {
	p, ok := m.players.Remove(guildID)
	if !ok {
		return nil
	}

	if p.destroyTimer != nil {
		p.destroyTimer.Stop()
	}
	m.voices.remove(guildID)

	var firstErr error

	if m.gateway != nil {
		if err := m.gateway.Leave(ctx, guildID); err != nil {
			firstErr = err
			m.logger.WithField("guild_id", guildID).WithError(err).Warn("failed to leave voice channel")
		}
	}

	if err := m.cluster.Node(p.NodeID).DestroyPlayer(ctx, guildID); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		m.logger.WithField("guild_id", guildID).WithError(err).Warn("failed to destroy remote player")
	}

	if m.messenger != nil && p.ChannelID != "" && p.MessageID != "" {
		m.messenger.Delete(guildID, p.ChannelID, p.MessageID)
	}

	return firstErr
}

// migrateNode reassigns every player on a downed node to another connected
// node and resyncs it; with no node left, those players are dropped
// entirely since their remote state is gone.
func (m *Manager) migrateNode(ctx context.Context, nodeID int) {
	var resync, doomed []string

	for _, guildID := range m.players.Keys() {
		m.players.Alter(guildID, func(p *Player) {
			if p.NodeID != nodeID {
				return
			}
			if newID, ok := m.cluster.SearchConnectedNode(); ok {
				m.logger.WithFields(logrus.Fields{
					"guild_id": guildID,
					"old_node": nodeID,
					"new_node": newID,
				}).Info("migrating player")
				p.NodeID = newID
				resync = append(resync, guildID)
			} else {
				doomed = append(doomed, guildID)
			}
		})
	}

	for _, guildID := range resync {
		if _, err := m.sync(ctx, guildID); err != nil {
			m.logger.WithField("guild_id", guildID).WithError(err).Error("failed to restart migrated player")
		}
	}

	if len(doomed) > 0 {
		m.logger.WithField("count", len(doomed)).Error("no node available to migrate players, dropping them")
		for _, guildID := range doomed {
			if p, ok := m.players.Remove(guildID); ok && p.destroyTimer != nil {
				p.destroyTimer.Stop()
			}
		}
	}
}

// RefreshMessage republishes the guild's status message.
func (m *Manager) RefreshMessage(ctx context.Context, guildID string) {
	state, ok := m.players.Snapshot(guildID)
	if !ok {
		return
	}

	playing, err := m.remotePlaying(ctx, guildID, state)
	if err != nil {
		playing = true
	}
	m.publishMessage(guildID, playing, false)
}

func (m *Manager) publishMessage(guildID string, playing, thinking bool) {
	if m.messenger == nil {
		return
	}

	state, ok := m.players.Snapshot(guildID)
	if !ok {
		return
	}

	channelID, messageID := m.messenger.Publish(guildID, state, playing, thinking)
	m.players.Alter(guildID, func(p *Player) {
		p.ChannelID = channelID
		p.MessageID = messageID
	})
}
