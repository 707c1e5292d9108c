package realtime

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// RegisterRoutes exposes the tracking websocket. The client id is taken from
// the client_id query parameter or assigned at connection time. Inbound
// messages are processed sequentially per connection.
func RegisterRoutes(r fiber.Router, registry *Registry, router *Router) {
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		clientID := c.Query("client_id")
		if clientID == "" {
			clientID = uuid.NewString()
		}

		client, err := registry.Register(clientID)
		if err != nil {
			reply := newMessage(TypeError, ErrorPayload{Message: err.Error()})
			if payload, merr := json.Marshal(reply); merr == nil {
				_ = c.WriteMessage(websocket.TextMessage, payload)
			}
			return
		}
		defer registry.Unregister(clientID)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for payload := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
					break
				}
			}
			// channel closed: unregistered locally or evicted by the
			// health monitor, close the connection from our side
			_ = c.Close()
		}()

		ctx := context.Background()
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var msg Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				reply := newMessage(TypeError, ErrorPayload{Message: "malformed message envelope"})
				if payload, merr := json.Marshal(reply); merr == nil {
					registry.Send(clientID, payload)
				}
				continue
			}
			msg.ClientID = clientID
			router.HandleMessage(ctx, clientID, msg)
		}

		registry.Unregister(clientID)
		<-done
	}))
}
