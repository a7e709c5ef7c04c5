package ws

import (
	"sync"

	"golang.org/x/net/websocket"
)

// Client is one connected funding-events subscriber. Outbound messages go
// through a bounded buffer; a client that cannot keep up is disconnected
// rather than allowed to stall the hub. The out channel is never closed —
// done is the single teardown signal, so a publish racing a disconnect can
// never hit a closed channel.
type Client struct {
	conn      *websocket.Conn
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	topics map[string]struct{}
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:   conn,
		out:    make(chan []byte, 64),
		done:   make(chan struct{}),
		topics: map[string]struct{}{},
	}
}

func (c *Client) send(payload []byte) {
	select {
	case <-c.done:
	case c.out <- payload:
	default:
		c.disconnect()
	}
}

func (c *Client) disconnect() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) addTopic(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics[topic] = struct{}{}
}

func (c *Client) removeTopic(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.topics, topic)
}

func (c *Client) listTopics() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.topics))
	for t := range c.topics {
		out = append(out, t)
	}
	return out
}
