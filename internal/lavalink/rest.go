package lavalink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const clientName = "Aeris/1.0.0"

var (
	// ErrNoSessionID is returned when a session-scoped call is attempted
	// before the node has completed its handshake.
	ErrNoSessionID = errors.New("node has no session id")
	// ErrAlreadyConnected is returned when Connect is called on a node that
	// already holds a live connection.
	ErrAlreadyConnected = errors.New("node is already connected")
)

// Rest is the HTTP half of a node: one client with the node's shared secret
// as a default header. It is safe for concurrent use.
type Rest struct {
	HTTPClient *http.Client

	host     string
	tls      bool
	password string
}

func NewRest(host, password string, tls bool) *Rest {
	return &Rest{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		host:       host,
		tls:        tls,
		password:   password,
	}
}

func (r *Rest) Host() string     { return r.host }
func (r *Rest) TLS() bool        { return r.tls }
func (r *Rest) Password() string { return r.password }

func (r *Rest) baseURL() string {
	scheme := "http"
	if r.tls {
		scheme = "https"
	}
	return scheme + "://" + r.host
}

// WebSocketURL is the ws/wss endpoint for the node's push stream.
func (r *Rest) WebSocketURL() string {
	scheme := "ws"
	if r.tls {
		scheme = "wss"
	}
	return scheme + "://" + r.host + "/v4/websocket"
}

func (r *Rest) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", r.password)
	req.Header.Set("User-Agent", clientName)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, path, data)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.Unmarshal(data, out)
}

func decodeAPIError(status int, path string, data []byte) error {
	apiErr := &APIError{}
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Status == 0 {
		return fmt.Errorf("lavalink: unexpected status %d on %s", status, path)
	}
	return apiErr
}

// LoadTracks resolves an identifier (URL or search query) into tracks.
func (r *Rest) LoadTracks(ctx context.Context, identifier string) (LoadResult, error) {
	path := "/v4/loadtracks?identifier=" + url.QueryEscape(identifier)

	var raw json.RawMessage
	if err := r.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return DecodeLoadResult(raw)
}

// DecodeTrack converts a base64 encoded payload back into track info.
func (r *Rest) DecodeTrack(ctx context.Context, encoded string) (Track, error) {
	path := "/v4/decodetrack?encodedTrack=" + url.QueryEscape(encoded)

	var track Track
	err := r.do(ctx, http.MethodGet, path, nil, &track)
	return track, err
}

func (r *Rest) DecodeTracks(ctx context.Context, encoded []string) ([]Track, error) {
	var tracks []Track
	err := r.do(ctx, http.MethodPost, "/v4/decodetracks", encoded, &tracks)
	return tracks, err
}

func (r *Rest) GetPlayers(ctx context.Context, sessionID string) ([]Player, error) {
	if sessionID == "" {
		return nil, ErrNoSessionID
	}

	var players []Player
	err := r.do(ctx, http.MethodGet, "/v4/sessions/"+sessionID+"/players", nil, &players)
	return players, err
}

// GetPlayer fetches one guild's remote player; a 404 means the node has no
// player for the guild and is reported as (nil, nil).
func (r *Rest) GetPlayer(ctx context.Context, sessionID, guildID string) (*Player, error) {
	if sessionID == "" {
		return nil, ErrNoSessionID
	}

	var player Player
	err := r.do(ctx, http.MethodGet, "/v4/sessions/"+sessionID+"/players/"+guildID, nil, &player)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &player, nil
}

// UpdatePlayer applies a partial patch to a guild's remote player. With
// noReplace the node ignores the patch if a track is already playing.
func (r *Rest) UpdatePlayer(ctx context.Context, sessionID, guildID string, patch UpdatePlayer, noReplace bool) (Player, error) {
	if sessionID == "" {
		return Player{}, ErrNoSessionID
	}

	path := "/v4/sessions/" + sessionID + "/players/" + guildID +
		"?noReplace=" + strconv.FormatBool(noReplace)

	var player Player
	err := r.do(ctx, http.MethodPatch, path, patch, &player)
	return player, err
}

func (r *Rest) DestroyPlayer(ctx context.Context, sessionID, guildID string) error {
	if sessionID == "" {
		return ErrNoSessionID
	}
	return r.do(ctx, http.MethodDelete, "/v4/sessions/"+sessionID+"/players/"+guildID, nil, nil)
}

func (r *Rest) UpdateSession(ctx context.Context, sessionID string, req UpdateSessionRequest) (UpdateSessionResponse, error) {
	if sessionID == "" {
		return UpdateSessionResponse{}, ErrNoSessionID
	}

	var resp UpdateSessionResponse
	err := r.do(ctx, http.MethodPatch, "/v4/sessions/"+sessionID, req, &resp)
	return resp, err
}

func (r *Rest) Info(ctx context.Context) (Info, error) {
	var info Info
	err := r.do(ctx, http.MethodGet, "/v4/info", nil, &info)
	return info, err
}

func (r *Rest) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL()+"/version", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", r.password)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeAPIError(resp.StatusCode, "/version", data)
	}
	return string(data), nil
}

// RoutePlannerStatus returns nil when the node has no route planner
// configured (HTTP 204).
func (r *Rest) RoutePlannerStatus(ctx context.Context) (*RoutePlanner, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL()+"/v4/routeplanner/status", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", r.password)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, "/v4/routeplanner/status", data)
	}

	var planner RoutePlanner
	if err := json.Unmarshal(data, &planner); err != nil {
		return nil, err
	}
	return &planner, nil
}

func (r *Rest) RoutePlannerUnmark(ctx context.Context, address string) error {
	body := map[string]string{"address": address}
	return r.do(ctx, http.MethodPost, "/v4/routeplanner/free/address", body, nil)
}

func (r *Rest) RoutePlannerUnmarkAll(ctx context.Context) error {
	return r.do(ctx, http.MethodPost, "/v4/routeplanner/free/all", nil, nil)
}
