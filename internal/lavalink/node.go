package lavalink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ErrNodeDown wraps read failures that mean the node's connection is gone;
// callers distinguish it from decode errors on an otherwise live stream.
var ErrNodeDown = errors.New("node connection lost")

// Node is one remote audio node: a WebSocket push stream plus a REST handle.
// The REST handle may be used concurrently; the push stream has exactly one
// reader.
type Node struct {
	Rest *Rest

	userID string
	logger *logrus.Entry

	mu   sync.Mutex
	conn *websocket.Conn

	sessionMu sync.RWMutex
	sessionID string
}

func NewNode(rest *Rest, userID string, logger *logrus.Logger) *Node {
	return &Node{
		Rest:   rest,
		userID: userID,
		logger: logger.WithField("node", rest.Host()),
	}
}

// SessionID returns the id issued by the node's Ready frame, or "" before
// the handshake completes.
func (n *Node) SessionID() string {
	n.sessionMu.RLock()
	defer n.sessionMu.RUnlock()
	return n.sessionID
}

func (n *Node) setSessionID(id string) {
	n.sessionMu.Lock()
	n.sessionID = id
	n.sessionMu.Unlock()
}

// Connected reports whether the node holds a live connection with a
// completed handshake, i.e. whether it is addressable over REST.
func (n *Node) Connected() bool {
	n.mu.Lock()
	live := n.conn != nil
	n.mu.Unlock()
	return live && n.SessionID() != ""
}

// Connect opens the WebSocket. It fails with ErrAlreadyConnected if a live
// connection exists; that is a precondition violation, not a retry case.
func (n *Node) Connect(ctx context.Context) error {
	return n.dial(ctx, "")
}

// Resume opens the WebSocket supplying the previous session id so the node
// reattaches any retained server-side state.
func (n *Node) Resume(ctx context.Context) error {
	sessionID := n.SessionID()
	if sessionID == "" {
		return ErrNoSessionID
	}
	return n.dial(ctx, sessionID)
}

func (n *Node) dial(ctx context.Context, resumeSessionID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn != nil {
		return ErrAlreadyConnected
	}

	header := http.Header{}
	header.Set("Authorization", n.Rest.Password())
	header.Set("User-Id", n.userID)
	header.Set("Client-Name", clientName)
	if resumeSessionID != "" {
		header.Set("Session-Id", resumeSessionID)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, n.Rest.WebSocketURL(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: status %d: %w", n.Rest.Host(), resp.StatusCode, err)
		}
		return fmt.Errorf("dial %s: %w", n.Rest.Host(), err)
	}

	n.conn = conn
	return nil
}

// Next blocks until the node pushes a frame. A decode failure on a live
// stream is returned as a plain error; a transport failure tears the
// connection down and is reported as ErrNodeDown.
func (n *Node) Next() (Message, error) {
	n.mu.Lock()
	conn := n.conn
	n.mu.Unlock()

	if conn == nil {
		return nil, ErrNodeDown
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		n.teardown()
		return nil, fmt.Errorf("%w: %v", ErrNodeDown, err)
	}

	msg, err := DecodeMessage(data)
	if err != nil {
		return nil, err
	}

	if ready, ok := msg.(Ready); ok {
		n.setSessionID(ready.SessionID)
		n.logger.WithFields(logrus.Fields{
			"session_id": ready.SessionID,
			"resumed":    ready.Resumed,
		}).Info("node handshake complete")
	}

	return msg, nil
}

func (n *Node) teardown() {
	n.mu.Lock()
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
	n.mu.Unlock()
}

// Close shuts the connection; the pending Next call returns ErrNodeDown.
func (n *Node) Close() {
	n.teardown()
}

// GetPlayer is a session-scoped convenience over the REST handle.
func (n *Node) GetPlayer(ctx context.Context, guildID string) (*Player, error) {
	return n.Rest.GetPlayer(ctx, n.SessionID(), guildID)
}

func (n *Node) GetPlayers(ctx context.Context) ([]Player, error) {
	return n.Rest.GetPlayers(ctx, n.SessionID())
}

func (n *Node) UpdatePlayer(ctx context.Context, guildID string, patch UpdatePlayer, noReplace bool) (Player, error) {
	return n.Rest.UpdatePlayer(ctx, n.SessionID(), guildID, patch, noReplace)
}

func (n *Node) DestroyPlayer(ctx context.Context, guildID string) error {
	return n.Rest.DestroyPlayer(ctx, n.SessionID(), guildID)
}

func (n *Node) UpdateSession(ctx context.Context, req UpdateSessionRequest) (UpdateSessionResponse, error) {
	return n.Rest.UpdateSession(ctx, n.SessionID(), req)
}
