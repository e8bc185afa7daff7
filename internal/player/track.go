package player

import (
	"time"

	"github.com/aeris-bot/aeris/internal/lavalink"
)

// Track is one queue entry. It is immutable once fetched; the encoded
// payload is its identity and the only form the remote node accepts back.
type Track struct {
	Encoded    string
	Title      string
	Author     string
	Duration   time.Duration
	URL        string
	ArtworkURL string
	Requester  string
}

func trackFromLavalink(t lavalink.Track, requester string) Track {
	track := Track{
		Encoded:   t.Encoded,
		Title:     t.Info.Title,
		Author:    t.Info.Author,
		Duration:  time.Duration(t.Info.Length) * time.Millisecond,
		Requester: requester,
	}
	if t.Info.URI != nil {
		track.URL = *t.Info.URI
	}
	if t.Info.ArtworkURL != nil {
		track.ArtworkURL = *t.Info.ArtworkURL
	}
	return track
}

// LoopMode controls what happens when a track ends.
type LoopMode int

const (
	// LoopNone advances until the queue runs out.
	LoopNone LoopMode = iota
	// LoopSingle replays the current track.
	LoopSingle
	// LoopAll advances with wraparound.
	LoopAll
	// LoopAutoPause advances but leaves the player paused, waiting for a
	// manual resume.
	LoopAutoPause
)

// Next cycles None -> Single -> All -> AutoPause -> None.
func (m LoopMode) Next() LoopMode {
	switch m {
	case LoopNone:
		return LoopSingle
	case LoopSingle:
		return LoopAll
	case LoopAll:
		return LoopAutoPause
	default:
		return LoopNone
	}
}

func (m LoopMode) String() string {
	switch m {
	case LoopSingle:
		return "single"
	case LoopAll:
		return "all"
	case LoopAutoPause:
		return "autopause"
	default:
		return "none"
	}
}

// ParseLoopMode maps a stored/user-supplied name back to a LoopMode,
// defaulting to LoopNone.
func ParseLoopMode(s string) LoopMode {
	switch s {
	case "single":
		return LoopSingle
	case "all":
		return LoopAll
	case "autopause":
		return LoopAutoPause
	default:
		return LoopNone
	}
}

// Template fixes a new player's initial loop mode and pause flag.
type Template int

const (
	// TemplateDefault starts unpaused with no loop.
	TemplateDefault Template = iota
	// TemplateMusic starts unpaused looping the current track.
	TemplateMusic
	// TemplateQueue starts unpaused looping the whole queue.
	TemplateQueue
	// TemplateManual starts paused with auto-pause looping.
	TemplateManual
	// TemplateRPG starts paused looping the current track.
	TemplateRPG
)

func (t Template) Paused() bool {
	return t == TemplateManual || t == TemplateRPG
}

func (t Template) LoopMode() LoopMode {
	switch t {
	case TemplateMusic, TemplateRPG:
		return LoopSingle
	case TemplateQueue:
		return LoopAll
	case TemplateManual:
		return LoopAutoPause
	default:
		return LoopNone
	}
}

// PlayMode controls where fetched tracks land and whether playback jumps.
type PlayMode int

const (
	// AddToEnd appends to the queue and only starts playback if the remote
	// node reports nothing playing.
	AddToEnd PlayMode = iota
	// AddToNext inserts right after the current track, same start rule.
	AddToNext
	// PlayNow inserts after the current track and forces playback to jump
	// to the first resolved track.
	PlayNow
)

// PlayRequest carries everything Play needs for one command.
type PlayRequest struct {
	GuildID   string
	Query     string
	Requester string
	// TextChannelID is where the status message lives if a player must be
	// created.
	TextChannelID string
	Locale        string
	Template      Template
	Mode          PlayMode
}

// PlayResult reports what a Play call did.
type PlayResult struct {
	// Track is the track selected to play, or the first queued one when
	// nothing started.
	Track *Track
	// Count is how many tracks were accepted into the queue.
	Count int
	// Playing reports whether this call started playback.
	Playing bool
	// Truncated reports that the queue ceiling dropped part of the batch.
	Truncated bool
}

// SeekResult reports a position after a seek or time query.
type SeekResult struct {
	Position time.Duration
	Total    time.Duration
}

type fetchResult struct {
	// selected is the playlist-relative index the provider pre-selected.
	selected *int
	tracks   []lavalink.Track
}

type addQueueResult struct {
	// selected is the absolute queue index remapped from the playlist's
	// selected track, when there was one.
	selected        *int
	firstTrackIndex int
	count           int
	truncated       bool
}

type syncResult struct {
	track   *Track
	playing bool
}
