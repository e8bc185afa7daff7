package lavalink

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const messageBufferSize = 8

// DefaultReconnectDelay is the fixed interval between reconnection attempts.
const DefaultReconnectDelay = 5 * time.Second

// ClusterMessage is one entry in the fan-in stream. Msg == nil with Err ==
// nil is the "node just went down" sentinel; Err != nil is a decode failure
// on an otherwise live node.
type ClusterMessage struct {
	NodeID int
	Msg    Message
	Err    error
}

// Cluster owns a fixed list of nodes, multiplexes their push streams into
// one channel, and keeps them connected. The node list never changes after
// construction, so indices stay stable for the process lifetime.
type Cluster struct {
	nodes          []*Node
	messages       chan ClusterMessage
	index          atomic.Uint64
	reconnectDelay time.Duration
	logger         *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCluster(nodes []*Node, logger *logrus.Logger) *Cluster {
	ctx, cancel := context.WithCancel(context.Background())
	return &Cluster{
		nodes:          nodes,
		messages:       make(chan ClusterMessage, messageBufferSize),
		reconnectDelay: DefaultReconnectDelay,
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
	}
}

func (c *Cluster) Nodes() []*Node   { return c.nodes }
func (c *Cluster) Node(i int) *Node { return c.nodes[i] }

// ConnectAll attempts the initial connection to every node. A node that
// fails is handed to the reconnection loop instead of aborting the rest.
func (c *Cluster) ConnectAll(ctx context.Context) {
	for i, node := range c.nodes {
		if err := node.Connect(ctx); err != nil {
			c.logger.WithField("node_id", i).WithError(err).Error("failed to connect to node")
			c.scheduleReconnect(i)
			continue
		}
		c.logger.WithField("node_id", i).Info("connected to node")
		c.startReader(i)
	}
}

func (c *Cluster) startReader(nodeID int) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		node := c.nodes[nodeID]

		for {
			msg, err := node.Next()
			if err != nil {
				if errors.Is(err, ErrNodeDown) {
					c.send(ClusterMessage{NodeID: nodeID})
					return
				}
				c.send(ClusterMessage{NodeID: nodeID, Err: err})
				continue
			}
			c.send(ClusterMessage{NodeID: nodeID, Msg: msg})
		}
	}()
}

func (c *Cluster) send(msg ClusterMessage) {
	select {
	case c.messages <- msg:
	case <-c.ctx.Done():
	}
}

// Recv exposes the fan-in stream. Exactly one consumer should drain it.
func (c *Cluster) Recv() <-chan ClusterMessage {
	return c.messages
}

// nextIndex advances the shared round-robin cursor by one, wrapping modulo
// the node count, and returns the new position.
func (c *Cluster) nextIndex() int {
	for {
		old := c.index.Load()
		next := (old + 1) % uint64(len(c.nodes))
		if c.index.CompareAndSwap(old, next) {
			return int(next)
		}
	}
}

// SearchConnectedNode scans the node list round-robin, starting after the
// current cursor, and returns the first connected node's index. The second
// return is false when no node is connected at all.
func (c *Cluster) SearchConnectedNode() (int, bool) {
	for range c.nodes {
		i := c.nextIndex()
		if c.nodes[i].Connected() {
			return i, true
		}
	}
	return 0, false
}

// ScheduleReconnect starts the background retry loop for a node: wait the
// fixed delay, attempt to reconnect, repeat forever until Close.
func (c *Cluster) ScheduleReconnect(nodeID int) {
	c.scheduleReconnect(nodeID)
}

func (c *Cluster) scheduleReconnect(nodeID int) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		node := c.nodes[nodeID]
		log := c.logger.WithField("node_id", nodeID)

		for {
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(c.reconnectDelay):
			}

			err := c.reconnect(node)
			if err == nil {
				log.Info("reconnected to node")
				c.startReader(nodeID)
				return
			}
			log.WithError(err).Warn("failed to reconnect to node, retrying")
		}
	}()
}

func (c *Cluster) reconnect(node *Node) error {
	ctx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	defer cancel()

	if node.SessionID() != "" {
		return node.Resume(ctx)
	}
	return node.Connect(ctx)
}

// Close signals every reader and reconnection loop to stop and waits for
// them to exit.
func (c *Cluster) Close() {
	c.cancel()
	for _, node := range c.nodes {
		node.Close()
	}
	c.wg.Wait()
}
