package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes exposes the observer websocket: connect to /ws/:clientID to
// follow one tracked client's accepted updates. Observers only read.
func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/ws/:clientID", websocket.New(func(c *websocket.Conn) {
		clientID := c.Params("clientID")
		watcher := hub.Watch(clientID)
		defer hub.Unwatch(watcher)

		done := make(chan struct{})
		go func() {
			for msg := range watcher.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			_ = c.Close()
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}

		// unwatch before waiting: closing Send is what unblocks the writer
		hub.Unwatch(watcher)
		<-done
	}))
}
