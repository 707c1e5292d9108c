package realtime

import (
	"errors"
	"log"
	"sync"
	"time"
)

var (
	ErrDuplicateClient = errors.New("client already registered")
	ErrSessionNotFound = errors.New("session not found")
)

const sendBuffer = 64

// Client is the outbound half of one connection. The websocket writer drains
// Send; the channel closes on unregistration, which is the writer's signal to
// close the connection.
type Client struct {
	ID   string
	Send chan []byte
}

type entry struct {
	mu      sync.Mutex
	session Session
	client  *Client
	closed  bool
}

// Registry owns every active tracking session. It is the single point of
// mutation for session state: per-client updates are serialized on the entry
// mutex while unrelated clients proceed concurrently. Sends never block.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]*entry{}}
}

// Register creates an empty session for clientID. Duplicate ids are refused.
func (r *Registry) Register(clientID string) (*Client, error) {
	client := &Client{
		ID:   clientID,
		Send: make(chan []byte, sendBuffer),
	}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[clientID]; ok {
		return nil, ErrDuplicateClient
	}
	r.entries[clientID] = &entry{
		session: Session{ClientID: clientID, LastUpdate: now, LastPong: now},
		client:  client,
	}
	return client, nil
}

// Unregister removes the session and closes its send channel. Unknown ids
// are a no-op.
func (r *Registry) Unregister(clientID string) {
	r.mu.Lock()
	e, ok := r.entries[clientID]
	delete(r.entries, clientID)
	r.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.client.Send)
	}
	e.mu.Unlock()
}

// Get returns a copy of the session, if present.
func (r *Registry) Get(clientID string) (Session, bool) {
	r.mu.RLock()
	e, ok := r.entries[clientID]
	r.mu.RUnlock()
	if !ok {
		return Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, true
}

// Update applies fn to the session under its lock and returns the resulting
// copy. fn must not do I/O.
func (r *Registry) Update(clientID string, fn func(*Session)) (Session, error) {
	r.mu.RLock()
	e, ok := r.entries[clientID]
	r.mu.RUnlock()
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.session)
	return e.session, nil
}

// ListActive returns the ids of all registered clients.
func (r *Registry) ListActive() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// Send enqueues an outbound payload without blocking. A missing or closed
// channel means the connection is already gone; the drop is logged and the
// health monitor will reap the session.
func (r *Registry) Send(clientID string, payload []byte) {
	r.mu.RLock()
	e, ok := r.entries[clientID]
	r.mu.RUnlock()
	if !ok {
		log.Printf("send to unknown client %s dropped", clientID)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		log.Printf("send to closed client %s dropped", clientID)
		return
	}
	select {
	case e.client.Send <- payload:
	default:
		log.Printf("send buffer full for client %s, message dropped", clientID)
	}
}
