package ws

import "sync"

// Hub routes published events to the clients subscribed to each topic.
// Topics are the funding channels: "loan:funding:<id>" and "market:loans".
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{topics: map[string]map[*Client]struct{}{}}
}

func (h *Hub) Subscribe(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = map[*Client]struct{}{}
		h.topics[topic] = subs
	}
	subs[client] = struct{}{}
	client.addTopic(topic)
}

func (h *Hub) Unsubscribe(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(topic, client)
	client.removeTopic(topic)
}

func (h *Hub) UnsubscribeAll(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range client.listTopics() {
		h.removeLocked(topic, client)
	}
}

func (h *Hub) removeLocked(topic string, client *Client) {
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Publish delivers the payload to every current subscriber of the topic.
// The subscriber set is snapshotted so slow clients being disconnected
// concurrently cannot invalidate the iteration.
func (h *Hub) Publish(topic string, payload []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.topics[topic]))
	for c := range h.topics[topic] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.send(payload)
	}
}
