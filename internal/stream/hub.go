package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans a tracked client's accepted updates out to any number of
// observers (dispatcher views, fleet maps). With redis configured the
// broadcast travels through pub/sub so observers on other nodes see it too;
// without redis delivery stays in-process.
type Hub struct {
	redis    *redis.Client
	watchers map[string]map[*Watcher]struct{}
	mu       sync.RWMutex
}

// Watcher is one observer subscription for a single tracked client.
type Watcher struct {
	ClientID string
	Send     chan []byte

	removed bool // guarded by Hub.mu
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:    redisClient,
		watchers: map[string]map[*Watcher]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Watch(clientID string) *Watcher {
	w := &Watcher{
		ClientID: clientID,
		Send:     make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[clientID] == nil {
		h.watchers[clientID] = map[*Watcher]struct{}{}
	}
	h.watchers[clientID][w] = struct{}{}
	return w
}

// Unwatch removes the subscription and closes its channel. Safe to call more
// than once.
func (h *Hub) Unwatch(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w.removed {
		return
	}
	w.removed = true

	if set, ok := h.watchers[w.ClientID]; ok {
		delete(set, w)
		if len(set) == 0 {
			delete(h.watchers, w.ClientID)
		}
	}
	close(w.Send)
}

// Broadcast delivers payload to every watcher of clientID. When redis is
// configured the payload goes through pub/sub only, so each node (this one
// included) delivers exactly once via its subscription.
func (h *Hub) Broadcast(clientID string, payload []byte) {
	if h.redis != nil {
		if err := h.redis.Publish(context.Background(), redisChannel(clientID), payload).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
		return
	}
	h.deliver(clientID, payload)
}

func (h *Hub) deliver(clientID string, payload []byte) {
	h.mu.RLock()
	set := h.watchers[clientID]
	h.mu.RUnlock()

	for w := range set {
		select {
		case w.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "track:*:updates")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(clientIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(clientID string) string {
	return "track:" + clientID + ":updates"
}

func clientIDFromChannel(ch string) string {
	// track:{client}:updates
	const prefix = "track:"
	const suffix = ":updates"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
