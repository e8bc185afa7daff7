package player

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/aeris-bot/aeris/internal/lavalink"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type recordedPatch struct {
	guildID   string
	noReplace bool
	body      map[string]json.RawMessage
}

// fakeLavalink emulates one audio node: the handshake endpoint plus the
// session-scoped player REST surface, with recorded writes.
type fakeLavalink struct {
	srv *httptest.Server

	mu      sync.Mutex
	players map[string]*lavalink.Player
	patches []recordedPatch
	deletes []string
	loads   map[string]string
}

func newFakeLavalink(t *testing.T) *fakeLavalink {
	t.Helper()
	f := &fakeLavalink{
		players: make(map[string]*lavalink.Player),
		loads:   make(map[string]string),
	}

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()

	mux.HandleFunc("/v4/websocket", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{"op": "ready", "resumed": false, "sessionId": "fake-sess"})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	mux.HandleFunc("/v4/loadtracks", func(w http.ResponseWriter, r *http.Request) {
		identifier := r.URL.Query().Get("identifier")
		f.mu.Lock()
		body, ok := f.loads[identifier]
		f.mu.Unlock()
		if !ok {
			body = `{"loadType":"empty","data":{}}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})

	mux.HandleFunc("/v4/sessions/fake-sess/players/", func(w http.ResponseWriter, r *http.Request) {
		guildID := strings.TrimPrefix(r.URL.Path, "/v4/sessions/fake-sess/players/")
		w.Header().Set("Content-Type", "application/json")

		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			p, ok := f.players[guildID]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = fmt.Fprintf(w, `{"timestamp":1,"status":404,"error":"Not Found","message":"player not found","path":%q}`, r.URL.Path)
				return
			}
			_ = json.NewEncoder(w).Encode(p)

		case http.MethodPatch:
			var body map[string]json.RawMessage
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.patches = append(f.patches, recordedPatch{
				guildID:   guildID,
				noReplace: r.URL.Query().Get("noReplace") == "true",
				body:      body,
			})

			p, ok := f.players[guildID]
			if !ok {
				p = &lavalink.Player{GuildID: guildID, Volume: 100}
				f.players[guildID] = p
			}
			if raw, ok := body["track"]; ok {
				var patch struct {
					Encoded *string `json:"encoded"`
				}
				_ = json.Unmarshal(raw, &patch)
				if patch.Encoded == nil {
					p.Track = nil
				} else {
					p.Track = &lavalink.Track{
						Encoded: *patch.Encoded,
						Info:    lavalink.TrackInfo{Title: *patch.Encoded, Length: 200000},
					}
				}
			}
			if raw, ok := body["paused"]; ok {
				_ = json.Unmarshal(raw, &p.Paused)
			}
			if raw, ok := body["position"]; ok && p.Track != nil {
				_ = json.Unmarshal(raw, &p.Track.Info.Position)
			}
			_ = json.NewEncoder(w).Encode(p)

		case http.MethodDelete:
			delete(f.players, guildID)
			f.deletes = append(f.deletes, guildID)
			w.WriteHeader(http.StatusNoContent)
		}
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeLavalink) host() string {
	return strings.TrimPrefix(f.srv.URL, "http://")
}

func (f *fakeLavalink) setLoad(identifier, body string) {
	f.mu.Lock()
	f.loads[identifier] = body
	f.mu.Unlock()
}

func (f *fakeLavalink) patchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.patches)
}

func (f *fakeLavalink) lastPatch() recordedPatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patches[len(f.patches)-1]
}

func (f *fakeLavalink) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletes)
}

func trackJSON(encoded string) string {
	return fmt.Sprintf(`{"encoded":%q,"info":{"identifier":"id","isSeekable":true,"author":"Artist","length":200000,"isStream":false,"position":0,"title":%q,"uri":"https://example.com/v","artworkUrl":null,"isrc":null,"sourceName":"test"}}`, encoded, encoded)
}

func searchBody(encoded ...string) string {
	tracks := make([]string, len(encoded))
	for i, e := range encoded {
		tracks[i] = trackJSON(e)
	}
	return `{"loadType":"search","data":[` + strings.Join(tracks, ",") + `]}`
}

func playlistBody(selected int, encoded ...string) string {
	tracks := make([]string, len(encoded))
	for i, e := range encoded {
		tracks[i] = trackJSON(e)
	}
	return fmt.Sprintf(`{"loadType":"playlist","data":{"info":{"name":"Mix","selectedTrack":%d},"tracks":[%s]}}`,
		selected, strings.Join(tracks, ","))
}

type fakeGateway struct {
	mu     sync.Mutex
	leaves []string
}

func (g *fakeGateway) Leave(ctx context.Context, guildID string) error {
	g.mu.Lock()
	g.leaves = append(g.leaves, guildID)
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) leaveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.leaves)
}

type fakeMessenger struct {
	mu        sync.Mutex
	published int
	deleted   int
}

func (m *fakeMessenger) Publish(guildID string, state State, playing, thinking bool) (string, string) {
	m.mu.Lock()
	m.published++
	m.mu.Unlock()
	return "chan-1", "msg-1"
}

func (m *fakeMessenger) Delete(guildID, channelID, messageID string) {
	m.mu.Lock()
	m.deleted++
	m.mu.Unlock()
}

func (m *fakeMessenger) deleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleted
}

type managerFixture struct {
	manager   *Manager
	fake      *fakeLavalink
	gateway   *fakeGateway
	messenger *fakeMessenger
}

func newManagerFixture(t *testing.T, queueLimit int) *managerFixture {
	t.Helper()

	fake := newFakeLavalink(t)
	node := lavalink.NewNode(lavalink.NewRest(fake.host(), "pw", false), "app-id", testLogger())
	cluster := lavalink.NewCluster([]*lavalink.Node{node}, testLogger())
	t.Cleanup(cluster.Close)
	cluster.ConnectAll(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for !node.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("node never completed its handshake")
		}
		time.Sleep(5 * time.Millisecond)
	}

	gateway := &fakeGateway{}
	messenger := &fakeMessenger{}

	manager := NewManager(Config{
		Cluster:    cluster,
		Gateway:    gateway,
		Messenger:  messenger,
		Logger:     testLogger(),
		QueueLimit: queueLimit,
	})

	return &managerFixture{
		manager:   manager,
		fake:      fake,
		gateway:   gateway,
		messenger: messenger,
	}
}

func playRequest(guildID, query string, mode PlayMode) PlayRequest {
	return PlayRequest{
		GuildID:       guildID,
		Query:         query,
		Requester:     "tester",
		TextChannelID: "chan-1",
		Mode:          mode,
	}
}

func TestPlayStartsWhenIdle(t *testing.T) {
	fx := newManagerFixture(t, 0)
	fx.fake.setLoad("hello", searchBody("T1"))

	result, err := fx.manager.Play(context.Background(), playRequest("g1", "hello", AddToEnd))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	if !result.Playing || result.Count != 1 || result.Truncated {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Track == nil || result.Track.Encoded != "T1" {
		t.Fatalf("track = %+v", result.Track)
	}

	patch := fx.fake.lastPatch()
	if patch.guildID != "g1" || patch.noReplace {
		t.Fatalf("unexpected patch: %+v", patch)
	}
	if _, ok := patch.body["track"]; !ok {
		t.Fatal("start patch carried no track")
	}

	queue, current, ok := fx.manager.Queue("g1")
	if !ok || len(queue) != 1 || current != 0 {
		t.Fatalf("queue = %v, current = %d", queue, current)
	}
}

func TestPlayEmptyResult(t *testing.T) {
	fx := newManagerFixture(t, 0)

	result, err := fx.manager.Play(context.Background(), playRequest("g1", "nothing", AddToEnd))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if result.Count != 0 || result.Playing || result.Track != nil {
		t.Fatalf("expected an empty result, got %+v", result)
	}
	// The player itself still exists; only the queue stayed empty.
	if !fx.manager.Contains("g1") {
		t.Fatal("player should have been created")
	}
}

func TestPlaySearchPrefixFallback(t *testing.T) {
	fx := newManagerFixture(t, 0)
	fx.fake.setLoad("spsearch:mysong", searchBody("T1"))

	result, err := fx.manager.Play(context.Background(), playRequest("g1", "mysong", AddToEnd))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if result.Count != 1 || result.Track == nil || result.Track.Encoded != "T1" {
		t.Fatalf("fallback did not resolve: %+v", result)
	}
}

func TestPlayQueuesWhilePlaying(t *testing.T) {
	fx := newManagerFixture(t, 0)
	fx.fake.setLoad("one", searchBody("T1"))
	fx.fake.setLoad("two", searchBody("T2"))

	if _, err := fx.manager.Play(context.Background(), playRequest("g1", "one", AddToEnd)); err != nil {
		t.Fatalf("first Play: %v", err)
	}
	patchesAfterFirst := fx.fake.patchCount()

	result, err := fx.manager.Play(context.Background(), playRequest("g1", "two", AddToEnd))
	if err != nil {
		t.Fatalf("second Play: %v", err)
	}

	if result.Playing {
		t.Fatal("second track should only queue while one is playing")
	}
	if result.Track == nil || result.Track.Encoded != "T2" {
		t.Fatalf("track = %+v", result.Track)
	}
	if fx.fake.patchCount() != patchesAfterFirst {
		t.Fatal("queuing while playing should not touch the node")
	}

	queue, current, _ := fx.manager.Queue("g1")
	if len(queue) != 2 || current != 0 {
		t.Fatalf("queue length = %d, current = %d", len(queue), current)
	}
}

func TestPlayNowForcesPlayback(t *testing.T) {
	fx := newManagerFixture(t, 0)
	fx.fake.setLoad("one", searchBody("T1"))
	fx.fake.setLoad("two", searchBody("T2"))

	if _, err := fx.manager.Play(context.Background(), playRequest("g1", "one", AddToEnd)); err != nil {
		t.Fatalf("first Play: %v", err)
	}

	result, err := fx.manager.Play(context.Background(), playRequest("g1", "two", PlayNow))
	if err != nil {
		t.Fatalf("PlayNow: %v", err)
	}

	if !result.Playing || result.Track == nil || result.Track.Encoded != "T2" {
		t.Fatalf("unexpected result: %+v", result)
	}

	patch := fx.fake.lastPatch()
	if patch.noReplace {
		t.Fatal("a forced start must not use noReplace")
	}

	_, current, _ := fx.manager.Queue("g1")
	if current != 1 {
		t.Fatalf("current = %d, want 1", current)
	}
}

func TestPlayQueueCeiling(t *testing.T) {
	fx := newManagerFixture(t, 3)
	fx.fake.setLoad("mix", playlistBody(-1, "T1", "T2", "T3", "T4", "T5"))

	result, err := fx.manager.Play(context.Background(), playRequest("g1", "mix", AddToEnd))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	if result.Count != 3 || !result.Truncated {
		t.Fatalf("unexpected result: %+v", result)
	}
	queue, _, _ := fx.manager.Queue("g1")
	if len(queue) != 3 {
		t.Fatalf("queue length = %d, want 3", len(queue))
	}
}

func TestPlayQueueFull(t *testing.T) {
	fx := newManagerFixture(t, 1)
	fx.fake.setLoad("one", searchBody("T1"))
	fx.fake.setLoad("two", searchBody("T2"))

	if _, err := fx.manager.Play(context.Background(), playRequest("g1", "one", AddToEnd)); err != nil {
		t.Fatalf("first Play: %v", err)
	}

	result, err := fx.manager.Play(context.Background(), playRequest("g1", "two", AddToEnd))
	if err != nil {
		t.Fatalf("second Play: %v", err)
	}
	if result.Count != 0 || !result.Truncated {
		t.Fatalf("expected a full-queue result, got %+v", result)
	}
}

func TestPlaylistSelectedTrackStartsThere(t *testing.T) {
	fx := newManagerFixture(t, 0)
	fx.fake.setLoad("mix", playlistBody(2, "T1", "T2", "T3"))

	result, err := fx.manager.Play(context.Background(), playRequest("g1", "mix", AddToEnd))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	if !result.Playing || result.Track == nil || result.Track.Encoded != "T3" {
		t.Fatalf("unexpected result: %+v", result)
	}
	_, current, _ := fx.manager.Queue("g1")
	if current != 2 {
		t.Fatalf("current = %d, want 2", current)
	}
}

func TestPlaylistSelectedTrackTruncatedFallsBack(t *testing.T) {
	fx := newManagerFixture(t, 2)
	fx.fake.setLoad("mix", playlistBody(2, "T1", "T2", "T3"))

	result, err := fx.manager.Play(context.Background(), playRequest("g1", "mix", AddToEnd))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	// The selected track was dropped by the ceiling, so playback falls back
	// to the first inserted track.
	if result.Track == nil || result.Track.Encoded != "T1" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func seedPlayer(t *testing.T, fx *managerFixture, guildID string, tracks []string, current int, mode LoopMode) {
	t.Helper()
	queue := make([]Track, len(tracks))
	for i, encoded := range tracks {
		queue[i] = Track{Encoded: encoded, Title: encoded}
	}
	ok := fx.manager.players.InsertIfAbsent(guildID, &Player{
		Queue:    queue,
		Current:  current,
		LoopMode: mode,
	})
	if !ok {
		t.Fatalf("player for %s already exists", guildID)
	}
}

func TestSkipAndPreviousWrapAround(t *testing.T) {
	fx := newManagerFixture(t, 0)
	seedPlayer(t, fx, "g1", []string{"T1", "T2", "T3"}, 2, LoopNone)

	track, err := fx.manager.Skip(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if track == nil || track.Encoded != "T1" {
		t.Fatalf("skip from the last track should wrap, got %+v", track)
	}

	track, err = fx.manager.Previous(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if track == nil || track.Encoded != "T3" {
		t.Fatalf("previous from the first track should wrap, got %+v", track)
	}
}

func TestSkipMissingPlayer(t *testing.T) {
	fx := newManagerFixture(t, 0)
	if _, err := fx.manager.Skip(context.Background(), "nope"); err != ErrPlayerNotFound {
		t.Fatalf("err = %v, want ErrPlayerNotFound", err)
	}
}

func TestShuffleKeepsCurrentFirst(t *testing.T) {
	fx := newManagerFixture(t, 0)
	tracks := []string{"T1", "T2", "T3", "T4", "T5", "T6", "T7", "T8"}
	seedPlayer(t, fx, "g1", tracks, 4, LoopNone)

	if err := fx.manager.Shuffle("g1"); err != nil {
		t.Fatalf("Shuffle: %v", err)
	}

	queue, current, _ := fx.manager.Queue("g1")
	if current != 0 {
		t.Fatalf("current = %d, want 0", current)
	}
	if queue[0].Encoded != "T5" {
		t.Fatalf("playing track moved to %q", queue[0].Encoded)
	}

	seen := make(map[string]bool)
	for _, track := range queue {
		seen[track.Encoded] = true
	}
	if len(queue) != len(tracks) || len(seen) != len(tracks) {
		t.Fatalf("shuffle lost or duplicated tracks: %v", queue)
	}
}

func TestNextTrackPolicies(t *testing.T) {
	cases := []struct {
		name        string
		mode        LoopMode
		current     int
		wantCurrent int
		wantPaused  bool
		wantSync    bool
	}{
		{"none advances", LoopNone, 0, 1, false, true},
		{"none stops at end", LoopNone, 1, 1, false, false},
		{"single replays", LoopSingle, 0, 0, false, true},
		{"all advances", LoopAll, 0, 1, false, true},
		{"all wraps", LoopAll, 1, 0, false, true},
		{"autopause advances paused", LoopAutoPause, 0, 1, true, false},
		{"autopause clamps at end", LoopAutoPause, 1, 1, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newManagerFixture(t, 0)
			seedPlayer(t, fx, "g1", []string{"T1", "T2"}, tc.current, tc.mode)
			before := fx.fake.patchCount()

			if err := fx.manager.NextTrack(context.Background(), "g1"); err != nil {
				t.Fatalf("NextTrack: %v", err)
			}

			state, _ := fx.manager.Snapshot("g1")
			if state.Current != tc.wantCurrent {
				t.Errorf("current = %d, want %d", state.Current, tc.wantCurrent)
			}
			if state.Paused != tc.wantPaused {
				t.Errorf("paused = %v, want %v", state.Paused, tc.wantPaused)
			}
			synced := fx.fake.patchCount() > before
			if synced != tc.wantSync {
				t.Errorf("synced = %v, want %v", synced, tc.wantSync)
			}
		})
	}
}

func TestNextTrackMissingPlayerIsNoop(t *testing.T) {
	fx := newManagerFixture(t, 0)
	if err := fx.manager.NextTrack(context.Background(), "nope"); err != nil {
		t.Fatalf("NextTrack on a missing player: %v", err)
	}
}

func TestSeekClampsToTrackLength(t *testing.T) {
	fx := newManagerFixture(t, 0)
	fx.fake.setLoad("one", searchBody("T1"))
	if _, err := fx.manager.Play(context.Background(), playRequest("g1", "one", AddToEnd)); err != nil {
		t.Fatalf("Play: %v", err)
	}

	// Track length in the fake node is 200s.
	result, err := fx.manager.Seek(context.Background(), "g1", 500*time.Second)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if result == nil {
		t.Fatal("expected a seek result")
	}
	if result.Position != result.Total {
		t.Fatalf("position = %s, want clamp to %s", result.Position, result.Total)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	fx := newManagerFixture(t, 0)
	fx.fake.setLoad("one", searchBody("T1"))
	if _, err := fx.manager.Play(context.Background(), playRequest("g1", "one", AddToEnd)); err != nil {
		t.Fatalf("Play: %v", err)
	}

	if err := fx.manager.Destroy(context.Background(), "g1"); err != nil {
		t.Fatalf("first Destroy: %v", err)
	}
	if err := fx.manager.Destroy(context.Background(), "g1"); err != nil {
		t.Fatalf("second Destroy: %v", err)
	}

	if fx.manager.Contains("g1") {
		t.Fatal("player still present")
	}
	if fx.gateway.leaveCount() != 1 {
		t.Fatalf("leave called %d times, want 1", fx.gateway.leaveCount())
	}
	if fx.fake.deleteCount() != 1 {
		t.Fatalf("remote destroy called %d times, want 1", fx.fake.deleteCount())
	}
	if fx.messenger.deleteCount() != 1 {
		t.Fatalf("message delete called %d times, want 1", fx.messenger.deleteCount())
	}
}

func TestTimedDestroyFires(t *testing.T) {
	fx := newManagerFixture(t, 0)
	seedPlayer(t, fx, "g1", nil, 0, LoopNone)

	fx.manager.TimedDestroy("g1", 20*time.Millisecond)

	state, _ := fx.manager.Snapshot("g1")
	if !state.HasDestroyTimer {
		t.Fatal("timer not tracked")
	}

	deadline := time.Now().Add(2 * time.Second)
	for fx.manager.Contains("g1") {
		if time.Now().After(deadline) {
			t.Fatal("timed destroy never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCancelDestroy(t *testing.T) {
	fx := newManagerFixture(t, 0)
	seedPlayer(t, fx, "g1", nil, 0, LoopNone)

	fx.manager.TimedDestroy("g1", 30*time.Millisecond)
	fx.manager.CancelDestroy("g1")

	time.Sleep(80 * time.Millisecond)
	if !fx.manager.Contains("g1") {
		t.Fatal("player was destroyed despite cancellation")
	}

	state, _ := fx.manager.Snapshot("g1")
	if state.HasDestroyTimer {
		t.Fatal("timer still tracked after cancellation")
	}
}

func TestTimedDestroyDoesNotStack(t *testing.T) {
	fx := newManagerFixture(t, 0)
	seedPlayer(t, fx, "g1", nil, 0, LoopNone)

	fx.manager.TimedDestroy("g1", time.Hour)
	fx.manager.TimedDestroy("g1", time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	if !fx.manager.Contains("g1") {
		t.Fatal("second schedule should have been a no-op")
	}
	fx.manager.CancelDestroy("g1")
}

func TestVoiceHandshakePushesCredentials(t *testing.T) {
	fx := newManagerFixture(t, 0)
	seedPlayer(t, fx, "g1", []string{"T1"}, 0, LoopNone)
	before := fx.fake.patchCount()

	ctx := context.Background()
	fx.manager.HandleVoiceStateUpdate(ctx, "g1", "voice-chan", "voice-sess")
	if fx.fake.patchCount() != before {
		t.Fatal("incomplete credentials should not be pushed")
	}

	fx.manager.HandleVoiceServerUpdate(ctx, "g1", "tok", "endpoint:443")

	patch := fx.fake.lastPatch()
	if !patch.noReplace {
		t.Fatal("voice patch must use noReplace")
	}
	if _, ok := patch.body["voice"]; !ok {
		t.Fatalf("voice missing from patch: %v", patch.body)
	}
}

func TestVoiceDisconnectDestroysPlayer(t *testing.T) {
	fx := newManagerFixture(t, 0)
	seedPlayer(t, fx, "g1", []string{"T1"}, 0, LoopNone)

	fx.manager.HandleVoiceStateUpdate(context.Background(), "g1", "", "")

	if fx.manager.Contains("g1") {
		t.Fatal("player should be destroyed when the bot leaves voice")
	}
}

func TestOccupancySchedulesAndCancels(t *testing.T) {
	fx := newManagerFixture(t, 0)
	seedPlayer(t, fx, "g1", []string{"T1"}, 0, LoopNone)
	ctx := context.Background()

	fx.manager.HandleChannelOccupancy(ctx, "g1", 0)
	state, _ := fx.manager.Snapshot("g1")
	if !state.HasDestroyTimer {
		t.Fatal("empty channel should schedule a destroy")
	}

	fx.manager.HandleChannelOccupancy(ctx, "g1", 2)
	state, _ = fx.manager.Snapshot("g1")
	if state.HasDestroyTimer {
		t.Fatal("a listener joining should cancel the destroy")
	}
}

func TestInitMusicTemplateThenPlayStarts(t *testing.T) {
	fx := newManagerFixture(t, 0)
	ctx := context.Background()

	if err := fx.manager.Init(ctx, "g1", "chan-1", "", TemplateMusic); err != nil {
		t.Fatalf("Init: %v", err)
	}

	state, _ := fx.manager.Snapshot("g1")
	if state.LoopMode != LoopSingle || state.Paused {
		t.Fatalf("music template not applied: %+v", state)
	}

	fx.fake.setLoad("track-x", searchBody("TX"))
	result, err := fx.manager.Play(ctx, playRequest("g1", "track-x", AddToEnd))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !result.Playing || result.Count != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestMigrateReassignsAndResyncs(t *testing.T) {
	fake := newFakeLavalink(t)
	dead := lavalink.NewNode(lavalink.NewRest("127.0.0.1:1", "pw", false), "app-id", testLogger())
	live := lavalink.NewNode(lavalink.NewRest(fake.host(), "pw", false), "app-id", testLogger())
	cluster := lavalink.NewCluster([]*lavalink.Node{dead, live}, testLogger())
	t.Cleanup(cluster.Close)

	if err := live.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := live.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}

	manager := NewManager(Config{Cluster: cluster, Logger: testLogger()})
	manager.players.InsertIfAbsent("g1", &Player{Queue: []Track{{Encoded: "T1"}}, NodeID: 0})
	manager.players.InsertIfAbsent("g2", &Player{Queue: []Track{{Encoded: "T2"}}, NodeID: 0})

	manager.migrateNode(context.Background(), 0)

	for _, guildID := range []string{"g1", "g2"} {
		state, ok := manager.Snapshot(guildID)
		if !ok {
			t.Fatalf("player %s dropped during migration", guildID)
		}
		if state.NodeID != 1 {
			t.Fatalf("player %s on node %d, want 1", guildID, state.NodeID)
		}
	}
	if fake.patchCount() != 2 {
		t.Fatalf("resynced %d players, want 2", fake.patchCount())
	}
}

func TestMigrateDropsPlayersWithoutNodes(t *testing.T) {
	// A cluster whose only node was never reachable has nowhere to migrate.
	node := lavalink.NewNode(lavalink.NewRest("127.0.0.1:1", "pw", false), "app-id", testLogger())
	cluster := lavalink.NewCluster([]*lavalink.Node{node}, testLogger())
	t.Cleanup(cluster.Close)

	manager := NewManager(Config{Cluster: cluster, Logger: testLogger()})
	manager.players.InsertIfAbsent("g1", &Player{Queue: []Track{{Encoded: "T1"}}})

	manager.migrateNode(context.Background(), 0)

	if manager.Contains("g1") {
		t.Fatal("player should be dropped when no node can take it")
	}
}

func TestInitRejectsDuplicate(t *testing.T) {
	fx := newManagerFixture(t, 0)
	ctx := context.Background()

	if err := fx.manager.Init(ctx, "g1", "chan-1", "en-US", TemplateDefault); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := fx.manager.Init(ctx, "g1", "chan-1", "en-US", TemplateDefault); err != ErrPlayerExists {
		t.Fatalf("err = %v, want ErrPlayerExists", err)
	}
}

func TestInitWithoutNodes(t *testing.T) {
	node := lavalink.NewNode(lavalink.NewRest("127.0.0.1:1", "pw", false), "app-id", testLogger())
	cluster := lavalink.NewCluster([]*lavalink.Node{node}, testLogger())
	t.Cleanup(cluster.Close)

	manager := NewManager(Config{Cluster: cluster, Logger: testLogger()})
	if err := manager.Init(context.Background(), "g1", "chan-1", "", TemplateDefault); err != ErrNoAvailableNode {
		t.Fatalf("err = %v, want ErrNoAvailableNode", err)
	}
}

func TestTemplateShapesNewPlayer(t *testing.T) {
	fx := newManagerFixture(t, 0)
	if err := fx.manager.Init(context.Background(), "g1", "chan-1", "", TemplateManual); err != nil {
		t.Fatalf("Init: %v", err)
	}

	state, _ := fx.manager.Snapshot("g1")
	if !state.Paused || state.LoopMode != LoopAutoPause {
		t.Fatalf("template not applied: %+v", state)
	}
}
