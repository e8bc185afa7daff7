package player

import (
	"sync"
	"time"
)

// Player is the aggregate playback state for one guild. It is only ever
// touched through Store, which serializes access per guild.
type Player struct {
	Queue    []Track
	Current  int
	LoopMode LoopMode
	Paused   bool
	NodeID   int

	// ChannelID and MessageID locate the posted status message, when any.
	ChannelID string
	MessageID string

	Locale string

	// destroyTimer is the pending auto-destroy task, nil when none is
	// scheduled. Tracked here so cancellation is inspectable.
	destroyTimer *time.Timer
}

// CurrentTrack returns the track under the cursor, or nil for an empty
// queue.
func (p *Player) CurrentTrack() *Track {
	if p.Current < 0 || p.Current >= len(p.Queue) {
		return nil
	}
	track := p.Queue[p.Current]
	return &track
}

// HasDestroyTimer reports whether an auto-destroy is pending.
func (p *Player) HasDestroyTimer() bool {
	return p.destroyTimer != nil
}

// State is an immutable snapshot of a Player, safe to use outside the
// store's locks.
type State struct {
	Paused          bool
	HasDestroyTimer bool
	ChannelID       string
	MessageID       string
	Locale          string
	Track           *Track
	NodeID          int
	LoopMode        LoopMode
	QueueLength     int
	Current         int
}

func snapshot(p *Player) State {
	return State{
		Paused:          p.Paused,
		HasDestroyTimer: p.destroyTimer != nil,
		ChannelID:       p.ChannelID,
		MessageID:       p.MessageID,
		Locale:          p.Locale,
		Track:           p.CurrentTrack(),
		NodeID:          p.NodeID,
		LoopMode:        p.LoopMode,
		QueueLength:     len(p.Queue),
		Current:         p.Current,
	}
}

// Store is a concurrent guild -> Player map. The outer mutex guards
// membership only; each entry carries its own mutex, so operations on
// different guilds never block each other while operations on the same
// guild serialize. Callers never see a lock: the store exposes only atomic
// View/Alter/InsertIfAbsent/Remove operations.
type Store struct {
	mu      sync.Mutex
	entries map[string]*storeEntry
}

type storeEntry struct {
	mu      sync.Mutex
	player  *Player
	removed bool
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*storeEntry)}
}

func (s *Store) lookup(guildID string) *storeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[guildID]
}

// Contains reports whether a player exists for the guild.
func (s *Store) Contains(guildID string) bool {
	return s.lookup(guildID) != nil
}

// Len returns the number of live players.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns a snapshot of all guild ids with a player.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// InsertIfAbsent adds a player for the guild unless one already exists.
func (s *Store) InsertIfAbsent(guildID string, p *Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[guildID]; ok {
		return false
	}
	s.entries[guildID] = &storeEntry{player: p}
	return true
}

// Alter runs fn with exclusive access to the guild's player. It returns
// false when no player exists. fn must not call back into the store for the
// same guild.
func (s *Store) Alter(guildID string, fn func(*Player)) bool {
	for {
		e := s.lookup(guildID)
		if e == nil {
			return false
		}

		e.mu.Lock()
		if e.removed {
			// Entry was removed while we waited; a fresh one may exist.
			e.mu.Unlock()
			continue
		}
		fn(e.player)
		e.mu.Unlock()
		return true
	}
}

// View runs fn with shared semantics; fn must not mutate the player.
func (s *Store) View(guildID string, fn func(*Player)) bool {
	return s.Alter(guildID, fn)
}

// Snapshot returns an immutable copy of the guild's player state.
func (s *Store) Snapshot(guildID string) (State, bool) {
	var state State
	ok := s.View(guildID, func(p *Player) {
		state = snapshot(p)
	})
	return state, ok
}

// Remove atomically takes the player out of the map and returns it. Only
// one of several concurrent Remove calls wins.
func (s *Store) Remove(guildID string) (*Player, bool) {
	s.mu.Lock()
	e := s.entries[guildID]
	if e == nil {
		s.mu.Unlock()
		return nil, false
	}
	delete(s.entries, guildID)
	s.mu.Unlock()

	e.mu.Lock()
	e.removed = true
	p := e.player
	e.player = nil
	e.mu.Unlock()
	return p, true
}
