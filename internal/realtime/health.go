package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultPongTimeout       = 5 * time.Second
)

// Monitor issues periodic pings to every registered client and evicts
// sessions that stop answering. It is the only component allowed to destroy
// a session without an explicit disconnect.
type Monitor struct {
	registry *Registry
	interval time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	lastPing time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(registry *Registry, interval, timeout time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	if timeout <= 0 {
		timeout = DefaultPongTimeout
	}
	return &Monitor{
		registry: registry,
		interval: interval,
		timeout:  timeout,
	}
}

// Start launches the ping producer and the timeout scanner. They run until
// Stop or context cancellation.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)

		pingTicker := time.NewTicker(m.interval)
		scanTicker := time.NewTicker(m.timeout)
		defer pingTicker.Stop()
		defer scanTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-pingTicker.C:
				m.PingAll()
			case <-scanTicker.C:
				m.EvictStale()
			}
		}
	}()
}

// Stop halts both loops and waits for them to finish.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// PingAll sends a heartbeat ping to every registered client and records the
// round so the scanner can judge the replies.
func (m *Monitor) PingAll() {
	msg := Message{Type: TypePing, Timestamp: now().UnixMilli()}
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("encode heartbeat ping: %v", err)
		return
	}

	m.mu.Lock()
	m.lastPing = now()
	m.mu.Unlock()

	for _, clientID := range m.registry.ListActive() {
		m.registry.Send(clientID, payload)
	}
}

// EvictStale unregisters every session whose last pong predates the last
// ping round once the pong timeout has elapsed. The evicted client is
// unreachable by definition, so no message is sent.
func (m *Monitor) EvictStale() {
	m.mu.Lock()
	lastPing := m.lastPing
	m.mu.Unlock()

	if lastPing.IsZero() || now().Sub(lastPing) < m.timeout {
		return
	}

	for _, clientID := range m.registry.ListActive() {
		sess, ok := m.registry.Get(clientID)
		if !ok {
			continue
		}
		if sess.LastPong.Before(lastPing) {
			log.Printf("client %s missed heartbeat, evicting", clientID)
			m.registry.Unregister(clientID)
		}
	}
}
