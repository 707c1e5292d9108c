package stream

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func TestStreamHandlersUpgradeRequired(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), NewHub(nil))

	req := httptest.NewRequest(http.MethodGet, "/stream/ws/c1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode == http.StatusOK {
		t.Fatalf("expected non-200 for non-websocket request")
	}
}

func TestStreamHandlersWebsocketBroadcast(t *testing.T) {
	hub := NewHub(nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()

	go func() {
		_ = app.Listener(ln)
	}()
	defer func() { _ = app.Shutdown() }()

	wsURL := "ws://" + ln.Addr().String() + "/stream/ws/c1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	// wait until the watcher is attached before broadcasting
	deadline := time.Now().Add(time.Second)
	for {
		hub.mu.RLock()
		attached := len(hub.watchers["c1"]) == 1
		hub.mu.RUnlock()
		if attached {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher never attached")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast("c1", []byte("hello"))
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(msg) != "hello" {
		t.Fatalf("unexpected message")
	}
}

func TestStreamHandlersDisconnectWithoutTraffic(t *testing.T) {
	hub := NewHub(nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()

	go func() {
		_ = app.Listener(ln)
	}()
	defer func() { _ = app.Shutdown() }()

	wsURL := "ws://" + ln.Addr().String() + "/stream/ws/idle"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		hub.mu.RLock()
		attached := len(hub.watchers["idle"]) == 1
		hub.mu.RUnlock()
		if attached {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher never attached")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// nothing is ever broadcast for this client; closing the observer must
	// still release its registration
	conn.Close()

	deadline = time.Now().Add(time.Second)
	for {
		hub.mu.RLock()
		attached := len(hub.watchers["idle"])
		hub.mu.RUnlock()
		if attached == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher still attached %d after disconnect", attached)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamHandlersWebsocketWriteError(t *testing.T) {
	hub := NewHub(nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()

	go func() {
		_ = app.Listener(ln)
	}()
	defer func() { _ = app.Shutdown() }()

	wsURL := "ws://" + ln.Addr().String() + "/stream/ws/c2"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	conn.Close()

	hub.Broadcast("c2", []byte("ping"))
	time.Sleep(20 * time.Millisecond)
}
