package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"pairchat-service/internal/observability"
)

const queryTimeout = 10 * time.Second

type subscription struct {
	client *Client
	id     string
	query  string
	chatID string
	topics []string

	// runs numbers query executions; delivered is the newest run pushed, guarded by Hub.mu.
	runs      atomic.Uint64
	delivered uint64
}

// Hub keeps query subscriptions per topic and pushes fresh snapshots when a topic changes.
type Hub struct {
	source  Source
	log     *zap.Logger
	mu      sync.RWMutex
	clients map[*Client]struct{}
	topics  map[string]map[*subscription]struct{}
}

// NewHub creates an empty hub answering queries from source.
func NewHub(source Source, log *zap.Logger) *Hub {
	return &Hub{
		source:  source,
		log:     log,
		clients: make(map[*Client]struct{}),
		topics:  make(map[string]map[*subscription]struct{}),
	}
}

// SetSource sets where queries are answered from. It must be called before clients connect.
func (h *Hub) SetSource(source Source) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source = source
}

// Register adds a connected client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister drops every subscription of the client and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(c)
}

func (h *Hub) unregisterLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	for _, sub := range c.subs {
		h.detachLocked(sub)
	}
	c.subs = make(map[string]*subscription)
	delete(h.clients, c)
	close(c.send)
}

// Subscribe registers the query and sends its initial snapshot.
// A subscription with the same id replaces the earlier one.
func (h *Hub) Subscribe(ctx context.Context, c *Client, frame ClientFrame) error {
	if frame.ID == "" {
		return errMissingID
	}
	topics, err := topicsFor(c.userID, frame.Query, frame.ChatID)
	if err != nil {
		return err
	}

	sub := &subscription{
		client: c,
		id:     frame.ID,
		query:  frame.Query,
		chatID: frame.ChatID,
		topics: topics,
	}

	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return nil
	}
	if prev, ok := c.subs[sub.id]; ok {
		h.detachLocked(prev)
	}
	c.subs[sub.id] = sub
	for _, topic := range sub.topics {
		if h.topics[topic] == nil {
			h.topics[topic] = make(map[*subscription]struct{})
		}
		h.topics[topic][sub] = struct{}{}
	}
	h.mu.Unlock()

	// Attached before the first query so no change between query and attach is missed.
	data, seq, err := h.run(ctx, sub)
	if err != nil {
		h.dropIfCurrent(sub)
		return err
	}
	h.deliver(sub, data, seq)
	return nil
}

// Unsubscribe removes one subscription of the client.
func (h *Hub) Unsubscribe(c *Client, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := c.subs[id]; ok {
		h.detachLocked(sub)
		delete(c.subs, id)
	}
}

// Notify re-runs every subscription on the given topics and pushes the full result sets.
func (h *Hub) Notify(ctx context.Context, topics ...string) {
	ctx = context.WithoutCancel(ctx)

	h.mu.RLock()
	seen := make(map[*subscription]struct{})
	var subs []*subscription
	for _, topic := range topics {
		for sub := range h.topics[topic] {
			if _, ok := seen[sub]; ok {
				continue
			}
			seen[sub] = struct{}{}
			subs = append(subs, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		data, seq, err := h.run(ctx, sub)
		if err != nil {
			h.log.Debug("subscription query failed",
				zap.String("conn_id", sub.client.info.ConnID),
				zap.String("query", sub.query),
				zap.Error(err),
			)
			if !h.dropIfCurrent(sub) {
				continue
			}
			h.send(sub.client, ServerFrame{Type: FrameError, ID: sub.id, Error: publicError(err)})
			continue
		}
		h.deliver(sub, data, seq)
	}
}

// Subscriptions reports how many subscriptions are attached to topic.
func (h *Hub) Subscriptions(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) run(ctx context.Context, sub *subscription) (any, uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	seq := sub.runs.Add(1)
	start := time.Now()
	data, err := runQuery(ctx, h.source, sub.client.userID, sub.query, sub.chatID)
	observability.ObserveSnapshotQuery(sub.query, time.Since(start))
	return data, seq, err
}

// deliver pushes the result of run seq unless a newer run was already pushed.
func (h *Hub) deliver(sub *subscription, data any, seq uint64) {
	payload, ok := h.encode(ServerFrame{Type: FrameSnapshot, ID: sub.id, Query: sub.query, Data: data})
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.client.subs[sub.id] != sub || seq <= sub.delivered {
		return
	}
	if h.sendLocked(sub.client, payload) {
		sub.delivered = seq
		observability.IncSnapshotPushed(sub.query)
	}
}

// send queues a frame for the client. A client whose queue is full is dropped.
func (h *Hub) send(c *Client, frame ServerFrame) bool {
	payload, ok := h.encode(frame)
	if !ok {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sendLocked(c, payload)
}

func (h *Hub) encode(frame ServerFrame) ([]byte, bool) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.log.Error("frame encode failed", zap.String("query", frame.Query), zap.Error(err))
		return nil, false
	}
	return payload, true
}

func (h *Hub) sendLocked(c *Client, payload []byte) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		h.log.Warn("dropping slow websocket client",
			zap.String("conn_id", c.info.ConnID),
			zap.String("user_id", c.userID),
		)
		observability.IncWSEvent("ws_slow_drop")
		h.unregisterLocked(c)
		return false
	}
}

func (h *Hub) dropIfCurrent(sub *subscription) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.client.subs[sub.id] != sub {
		return false
	}
	h.detachLocked(sub)
	delete(sub.client.subs, sub.id)
	return true
}

func (h *Hub) detachLocked(sub *subscription) {
	for _, topic := range sub.topics {
		subs := h.topics[topic]
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}
