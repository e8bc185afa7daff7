package lavalink

import (
	"encoding/json"
	"fmt"
)

// Message is a single inbound frame from a node's WebSocket, discriminated
// by its "op" field. Concrete types: Ready, PlayerUpdate, Stats and the
// event types behind Event.
type Message interface {
	op() string
}

type Ready struct {
	Resumed   bool   `json:"resumed"`
	SessionID string `json:"sessionId"`
}

func (Ready) op() string { return "ready" }

type PlayerUpdate struct {
	GuildID string      `json:"guildId"`
	State   PlayerState `json:"state"`
}

func (PlayerUpdate) op() string { return "playerUpdate" }

type PlayerState struct {
	Time      int64 `json:"time"`
	Position  int64 `json:"position"`
	Connected bool  `json:"connected"`
	Ping      int64 `json:"ping"`
}

type Stats struct {
	Players        int         `json:"players"`
	PlayingPlayers int         `json:"playingPlayers"`
	Uptime         int64       `json:"uptime"`
	Memory         Memory      `json:"memory"`
	CPU            CPU         `json:"cpu"`
	FrameStats     *FrameStats `json:"frameStats,omitempty"`
}

func (Stats) op() string { return "stats" }

type Memory struct {
	Free       int64 `json:"free"`
	Used       int64 `json:"used"`
	Allocated  int64 `json:"allocated"`
	Reservable int64 `json:"reservable"`
}

type CPU struct {
	Cores        int     `json:"cores"`
	SystemLoad   float64 `json:"systemLoad"`
	LavalinkLoad float64 `json:"lavalinkLoad"`
}

type FrameStats struct {
	Sent    int64 `json:"sent"`
	Nulled  int64 `json:"nulled"`
	Deficit int64 `json:"deficit"`
}

// Event is an inbound "event" frame, discriminated by its "type" field.
// Every event carries the guild id of the player it belongs to.
type Event interface {
	Message
	EventGuildID() string
}

type TrackStartEvent struct {
	GuildID string `json:"guildId"`
	Track   Track  `json:"track"`
}

func (TrackStartEvent) op() string { return "event" }
func (e TrackStartEvent) EventGuildID() string { return e.GuildID }

type TrackEndEvent struct {
	GuildID string         `json:"guildId"`
	Track   Track          `json:"track"`
	Reason  TrackEndReason `json:"reason"`
}

func (TrackEndEvent) op() string { return "event" }
func (e TrackEndEvent) EventGuildID() string { return e.GuildID }

type TrackExceptionEvent struct {
	GuildID   string    `json:"guildId"`
	Track     Track     `json:"track"`
	Exception Exception `json:"exception"`
}

func (TrackExceptionEvent) op() string { return "event" }
func (e TrackExceptionEvent) EventGuildID() string { return e.GuildID }

type TrackStuckEvent struct {
	GuildID     string `json:"guildId"`
	Track       Track  `json:"track"`
	ThresholdMs int64  `json:"thresholdMs"`
}

func (TrackStuckEvent) op() string { return "event" }
func (e TrackStuckEvent) EventGuildID() string { return e.GuildID }

type WebSocketClosedEvent struct {
	GuildID  string `json:"guildId"`
	Code     int    `json:"code"`
	Reason   string `json:"reason"`
	ByRemote bool   `json:"byRemote"`
}

func (WebSocketClosedEvent) op() string { return "event" }
func (e WebSocketClosedEvent) EventGuildID() string { return e.GuildID }

type TrackEndReason string

const (
	TrackEndFinished   TrackEndReason = "finished"
	TrackEndLoadFailed TrackEndReason = "loadFailed"
	TrackEndStopped    TrackEndReason = "stopped"
	TrackEndReplaced   TrackEndReason = "replaced"
	TrackEndCleanup    TrackEndReason = "cleanup"
)

// MayStartNext reports whether the player may advance to the next track.
// Stopped, replaced and cleanup ends are caused by a local action that is
// already handling the transition.
func (r TrackEndReason) MayStartNext() bool {
	return r == TrackEndFinished || r == TrackEndLoadFailed
}

type Exception struct {
	Message  *string `json:"message"`
	Severity string  `json:"severity"`
	Cause    string  `json:"cause"`
}

// DecodeMessage parses one WebSocket frame into its concrete Message type.
func DecodeMessage(data []byte) (Message, error) {
	var envelope struct {
		Op   string `json:"op"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	switch envelope.Op {
	case "ready":
		var msg Ready
		return msg, json.Unmarshal(data, &msg)
	case "playerUpdate":
		var msg PlayerUpdate
		return msg, json.Unmarshal(data, &msg)
	case "stats":
		var msg Stats
		return msg, json.Unmarshal(data, &msg)
	case "event":
		return decodeEvent(envelope.Type, data)
	}

	return nil, fmt.Errorf("unknown message op %q", envelope.Op)
}

func decodeEvent(eventType string, data []byte) (Message, error) {
	switch eventType {
	case "TrackStartEvent":
		var ev TrackStartEvent
		return ev, json.Unmarshal(data, &ev)
	case "TrackEndEvent":
		var ev TrackEndEvent
		return ev, json.Unmarshal(data, &ev)
	case "TrackExceptionEvent":
		var ev TrackExceptionEvent
		return ev, json.Unmarshal(data, &ev)
	case "TrackStuckEvent":
		var ev TrackStuckEvent
		return ev, json.Unmarshal(data, &ev)
	case "WebSocketClosedEvent":
		var ev WebSocketClosedEvent
		return ev, json.Unmarshal(data, &ev)
	}

	return nil, fmt.Errorf("unknown event type %q", eventType)
}

type Track struct {
	Encoded    string         `json:"encoded"`
	Info       TrackInfo      `json:"info"`
	PluginInfo map[string]any `json:"pluginInfo,omitempty"`
	UserData   map[string]any `json:"userData,omitempty"`
}

type TrackInfo struct {
	Identifier string  `json:"identifier"`
	IsSeekable bool    `json:"isSeekable"`
	Author     string  `json:"author"`
	Length     int64   `json:"length"`
	IsStream   bool    `json:"isStream"`
	Position   int64   `json:"position"`
	Title      string  `json:"title"`
	URI        *string `json:"uri"`
	ArtworkURL *string `json:"artworkUrl"`
	ISRC       *string `json:"isrc"`
	SourceName string  `json:"sourceName"`
}

// LoadResult is the outcome of a loadtracks call, discriminated by its
// "loadType" field. Concrete types: LoadedTrack, LoadedPlaylist,
// SearchResult, LoadEmpty and LoadError.
type LoadResult interface {
	loadType() string
}

type LoadedTrack struct {
	Track Track
}

func (LoadedTrack) loadType() string { return "track" }

type LoadedPlaylist struct {
	Info       PlaylistInfo   `json:"info"`
	PluginInfo map[string]any `json:"pluginInfo,omitempty"`
	Tracks     []Track        `json:"tracks"`
}

func (LoadedPlaylist) loadType() string { return "playlist" }

type PlaylistInfo struct {
	Name          string `json:"name"`
	SelectedTrack int    `json:"selectedTrack"`
}

type SearchResult struct {
	Tracks []Track
}

func (SearchResult) loadType() string { return "search" }

type LoadEmpty struct{}

func (LoadEmpty) loadType() string { return "empty" }

type LoadError struct {
	Exception Exception
}

func (LoadError) loadType() string { return "error" }

// IsEmptyResult reports whether a load result carries no usable tracks.
func IsEmptyResult(result LoadResult) bool {
	switch r := result.(type) {
	case LoadEmpty, LoadError:
		return true
	case SearchResult:
		return len(r.Tracks) == 0
	case LoadedPlaylist:
		return len(r.Tracks) == 0
	}
	return false
}

// DecodeLoadResult parses a loadtracks response body.
func DecodeLoadResult(data []byte) (LoadResult, error) {
	var envelope struct {
		LoadType string          `json:"loadType"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	switch envelope.LoadType {
	case "track":
		var track Track
		if err := json.Unmarshal(envelope.Data, &track); err != nil {
			return nil, err
		}
		return LoadedTrack{Track: track}, nil
	case "playlist":
		var playlist LoadedPlaylist
		return playlist, json.Unmarshal(envelope.Data, &playlist)
	case "search":
		var tracks []Track
		if err := json.Unmarshal(envelope.Data, &tracks); err != nil {
			return nil, err
		}
		return SearchResult{Tracks: tracks}, nil
	case "empty":
		return LoadEmpty{}, nil
	case "error":
		var exception Exception
		if err := json.Unmarshal(envelope.Data, &exception); err != nil {
			return nil, err
		}
		return LoadError{Exception: exception}, nil
	}

	return nil, fmt.Errorf("unknown load type %q", envelope.LoadType)
}

// Player is the remote node's view of one guild's player.
type Player struct {
	GuildID string      `json:"guildId"`
	Track   *Track      `json:"track"`
	Volume  int         `json:"volume"`
	Paused  bool        `json:"paused"`
	State   PlayerState `json:"state"`
	Voice   VoiceState  `json:"voice"`
	Filters *Filters    `json:"filters,omitempty"`
}

// VoiceState carries the Discord voice credentials a node needs to open the
// UDP audio socket for a guild.
type VoiceState struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

type Filters struct {
	Volume     *float64    `json:"volume,omitempty"`
	Equalizer  []Band      `json:"equalizer,omitempty"`
	Karaoke    *Karaoke    `json:"karaoke,omitempty"`
	Timescale  *Timescale  `json:"timescale,omitempty"`
	Tremolo    *Frequency  `json:"tremolo,omitempty"`
	Vibrato    *Frequency  `json:"vibrato,omitempty"`
	Rotation   *Rotation   `json:"rotation,omitempty"`
	LowPass    *LowPass    `json:"lowPass,omitempty"`
	ChannelMix *ChannelMix `json:"channelMix,omitempty"`
}

type Band struct {
	Band int     `json:"band"`
	Gain float64 `json:"gain"`
}

type Karaoke struct {
	Level       *float64 `json:"level,omitempty"`
	MonoLevel   *float64 `json:"monoLevel,omitempty"`
	FilterBand  *float64 `json:"filterBand,omitempty"`
	FilterWidth *float64 `json:"filterWidth,omitempty"`
}

type Timescale struct {
	Speed *float64 `json:"speed,omitempty"`
	Pitch *float64 `json:"pitch,omitempty"`
	Rate  *float64 `json:"rate,omitempty"`
}

type Frequency struct {
	Frequency *float64 `json:"frequency,omitempty"`
	Depth     *float64 `json:"depth,omitempty"`
}

type Rotation struct {
	RotationHz *float64 `json:"rotationHz,omitempty"`
}

type LowPass struct {
	Smoothing *float64 `json:"smoothing,omitempty"`
}

type ChannelMix struct {
	LeftToLeft   *float64 `json:"leftToLeft,omitempty"`
	LeftToRight  *float64 `json:"leftToRight,omitempty"`
	RightToLeft  *float64 `json:"rightToLeft,omitempty"`
	RightToRight *float64 `json:"rightToRight,omitempty"`
}

// UpdatePlayer is a partial player patch. Only set fields are sent; unset
// fields leave the remote state untouched.
type UpdatePlayer struct {
	Track *UpdatePlayerTrack
	// Position is an absolute position in milliseconds.
	Position *int64
	// EndTime stops playback at the given track time; ClearEndTime sends an
	// explicit null to remove a previously set end time.
	EndTime      *int64
	ClearEndTime bool
	Volume       *int
	Paused       *bool
	Filters      *Filters
	Voice        *VoiceState
}

func (u UpdatePlayer) MarshalJSON() ([]byte, error) {
	body := make(map[string]any)

	if u.Track != nil {
		body["track"] = u.Track
	}
	if u.Position != nil {
		body["position"] = *u.Position
	}
	if u.ClearEndTime {
		body["endTime"] = nil
	} else if u.EndTime != nil {
		body["endTime"] = *u.EndTime
	}
	if u.Volume != nil {
		body["volume"] = *u.Volume
	}
	if u.Paused != nil {
		body["paused"] = *u.Paused
	}
	if u.Filters != nil {
		body["filters"] = u.Filters
	}
	if u.Voice != nil {
		body["voice"] = u.Voice
	}

	return json.Marshal(body)
}

// UpdatePlayerTrack selects a replacement track: by encoded payload, by
// identifier, or Stop to send an explicit null and halt playback.
type UpdatePlayerTrack struct {
	Encoded    *string
	Identifier *string
	UserData   map[string]any
	Stop       bool
}

func (t UpdatePlayerTrack) MarshalJSON() ([]byte, error) {
	body := make(map[string]any)

	if t.Stop {
		body["encoded"] = nil
	} else if t.Encoded != nil {
		body["encoded"] = *t.Encoded
	}
	if t.Identifier != nil {
		body["identifier"] = *t.Identifier
	}
	if t.UserData != nil {
		body["userData"] = t.UserData
	}

	return json.Marshal(body)
}

type UpdateSessionRequest struct {
	Resuming *bool `json:"resuming,omitempty"`
	Timeout  *int  `json:"timeout,omitempty"`
}

type UpdateSessionResponse struct {
	Resuming bool `json:"resuming"`
	Timeout  int  `json:"timeout"`
}

type Info struct {
	Version        Version  `json:"version"`
	BuildTime      int64    `json:"buildTime"`
	Git            Git      `json:"git"`
	JVM            string   `json:"jvm"`
	Lavaplayer     string   `json:"lavaplayer"`
	SourceManagers []string `json:"sourceManagers"`
	Filters        []string `json:"filters"`
	Plugins        []Plugin `json:"plugins"`
}

type Version struct {
	Semver     string  `json:"semver"`
	Major      int     `json:"major"`
	Minor      int     `json:"minor"`
	Patch      int     `json:"patch"`
	PreRelease *string `json:"preRelease"`
	Build      *string `json:"build"`
}

type Git struct {
	Branch     string `json:"branch"`
	Commit     string `json:"commit"`
	CommitTime int64  `json:"commitTime"`
}

type Plugin struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// RoutePlanner describes the node's IP rotation setup; Class is nil when no
// route planner is configured.
type RoutePlanner struct {
	Class   *string             `json:"class"`
	Details *RoutePlannerDetail `json:"details"`
}

type RoutePlannerDetail struct {
	IPBlock             *IPBlock         `json:"ipBlock,omitempty"`
	FailingAddresses    []FailingAddress `json:"failingAddresses,omitempty"`
	RotateIndex         string           `json:"rotateIndex,omitempty"`
	IPIndex             string           `json:"ipIndex,omitempty"`
	CurrentAddress      string           `json:"currentAddress,omitempty"`
	CurrentAddressIndex string           `json:"currentAddressIndex,omitempty"`
	BlockIndex          string           `json:"blockIndex,omitempty"`
}

type IPBlock struct {
	Type string `json:"type"`
	Size string `json:"size"`
}

type FailingAddress struct {
	Address     string `json:"failingAddress"`
	Timestamp   int64  `json:"failingTimestamp"`
	FailingTime string `json:"failingTime"`
}

// APIError is the structured error envelope a node returns on non-2xx
// responses.
type APIError struct {
	Timestamp int64   `json:"timestamp"`
	Status    int     `json:"status"`
	ErrorName string  `json:"error"`
	Message   string  `json:"message"`
	Path      string  `json:"path"`
	Trace     *string `json:"trace,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lavalink: %d %s on %s: %s", e.Status, e.ErrorName, e.Path, e.Message)
}
