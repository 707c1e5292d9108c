package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/NikBulygin/Indrive-hackation-backend/internal/route"
	"github.com/NikBulygin/Indrive-hackation-backend/internal/shared/geo"
)

// Broadcaster fans accepted updates of a tracked client out to observers.
// The stream hub satisfies it; a nil broadcaster disables fan-out.
type Broadcaster interface {
	Broadcast(clientID string, payload []byte)
}

// Router decodes inbound messages and drives the per-session state machine.
// Every inbound message yields exactly one acknowledging or resulting
// outbound message (inbound pong excepted, it only refreshes liveness).
type Router struct {
	registry *Registry
	routes   *route.Coordinator
	hub      Broadcaster
}

func NewRouter(registry *Registry, routes *route.Coordinator, hub Broadcaster) *Router {
	return &Router{registry: registry, routes: routes, hub: hub}
}

// HandleMessage dispatches one decoded envelope for clientID. Errors never
// escape: every rejection is reported back as an error message.
func (rt *Router) HandleMessage(ctx context.Context, clientID string, msg Message) {
	switch msg.Type {
	case TypeLocationUpdate:
		var loc LocationUpdate
		if err := json.Unmarshal(msg.Data, &loc); err != nil {
			rt.sendError(clientID, msg.Type, "malformed location payload")
			return
		}
		rt.HandleLocationUpdate(ctx, clientID, loc)
	case TypeStartTracking:
		var payload StartTrackingPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			rt.sendError(clientID, msg.Type, "malformed start_tracking payload")
			return
		}
		rt.StartTracking(ctx, clientID, payload)
	case TypeStopTracking:
		rt.StopTracking(clientID)
	case TypeRouteRequest:
		var payload RouteRequestPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			rt.sendError(clientID, msg.Type, "malformed route_request payload")
			return
		}
		rt.HandleRouteRequest(ctx, clientID, payload)
	case TypePing:
		rt.HandlePing(clientID, msg.Timestamp)
	case TypePong:
		rt.HandlePong(clientID)
	default:
		rt.sendError(clientID, msg.Type, "unknown message type")
	}
}

// HandleLocationUpdate accepts a position sample in any tracking state. While
// tracking toward a destination it may kick off an asynchronous route
// recalculation; the sample itself is always acknowledged immediately.
func (rt *Router) HandleLocationUpdate(ctx context.Context, clientID string, loc LocationUpdate) {
	if err := loc.Validate(); err != nil {
		rt.sendError(clientID, TypeLocationUpdate, err.Error())
		return
	}

	sess, err := rt.registry.Update(clientID, func(s *Session) {
		s.CurrentLocation = &loc
		s.LastUpdate = now()
	})
	if err != nil {
		log.Printf("location update for unknown client %s ignored", clientID)
		return
	}

	rt.sendAndBroadcast(clientID, newMessage(TypeLocationUpdate, loc))

	if sess.IsTracking && sess.Destination != nil && rt.routes.ShouldRecalculate(sess.ActiveRoute, loc.Point) {
		profile := route.ProfileDriving
		if sess.ActiveRoute != nil && sess.ActiveRoute.Profile != "" {
			profile = sess.ActiveRoute.Profile
		}
		go rt.recalculate(clientID, loc.Point, *sess.Destination, profile)
	}
}

// StartTracking begins (or restarts) tracking at the given position. A
// repeated start while already tracking overwrites destination and route.
func (rt *Router) StartTracking(ctx context.Context, clientID string, payload StartTrackingPayload) {
	if err := payload.Location.Validate(); err != nil {
		rt.sendError(clientID, TypeStartTracking, err.Error())
		return
	}
	if payload.Destination != nil {
		if err := payload.Destination.Validate(); err != nil {
			rt.sendError(clientID, TypeStartTracking, err.Error())
			return
		}
	}

	_, err := rt.registry.Update(clientID, func(s *Session) {
		loc := payload.Location
		s.CurrentLocation = &loc
		s.IsTracking = true
		s.Destination = payload.Destination
		s.ActiveRoute = nil
		s.LastUpdate = now()
	})
	if err != nil {
		log.Printf("start_tracking for unknown client %s ignored", clientID)
		return
	}

	if payload.Destination == nil {
		rt.send(clientID, newMessage(TypeStartTracking, TrackingStatePayload{IsTracking: true}))
		return
	}
	rt.requestAndCommit(ctx, clientID, TypeStartTracking, payload.Location.Point, *payload.Destination, payload.Profile)
}

// StopTracking clears the tracking flag. Location and route stay behind as
// history.
func (rt *Router) StopTracking(clientID string) {
	_, err := rt.registry.Update(clientID, func(s *Session) {
		s.IsTracking = false
		s.LastUpdate = now()
	})
	if err != nil {
		log.Printf("stop_tracking for unknown client %s ignored", clientID)
		return
	}
	rt.send(clientID, newMessage(TypeStopTracking, TrackingStatePayload{IsTracking: false}))
}

// HandleRouteRequest fetches a fresh route from the current position,
// replacing destination and active route together. Without a known position
// the request is refused.
func (rt *Router) HandleRouteRequest(ctx context.Context, clientID string, payload RouteRequestPayload) {
	if err := payload.Destination.Validate(); err != nil {
		rt.sendError(clientID, TypeRouteRequest, err.Error())
		return
	}

	sess, ok := rt.registry.Get(clientID)
	if !ok {
		log.Printf("route_request for unknown client %s ignored", clientID)
		return
	}
	if sess.CurrentLocation == nil {
		rt.sendError(clientID, TypeRouteRequest, "no current location known, send a location_update first")
		return
	}

	rt.requestAndCommit(ctx, clientID, TypeRouteRequest, sess.CurrentLocation.Point, payload.Destination, payload.Profile)
}

// HandlePing answers immediately with a pong carrying the same timestamp and
// counts as proof of liveness.
func (rt *Router) HandlePing(clientID string, timestamp int64) {
	_, err := rt.registry.Update(clientID, func(s *Session) {
		s.LastPong = now()
		s.LastUpdate = now()
	})
	if err != nil {
		return
	}
	rt.send(clientID, Message{Type: TypePong, Timestamp: timestamp})
}

// HandlePong refreshes liveness for a client answering a server ping.
func (rt *Router) HandlePong(clientID string) {
	_, _ = rt.registry.Update(clientID, func(s *Session) {
		s.LastPong = now()
		s.LastUpdate = now()
	})
}

// requestAndCommit performs a synchronous route request for a direct client
// ask and commits destination and route atomically on success. A provider
// failure is reported without touching the previously good route.
func (rt *Router) requestAndCommit(ctx context.Context, clientID, inboundType string, start, destination geo.Point, profile string) {
	computed, err := rt.routes.RequestRoute(ctx, start, destination, profile)
	if err != nil {
		rt.sendError(clientID, inboundType, err.Error())
		return
	}

	dest := destination
	if _, err := rt.registry.Update(clientID, func(s *Session) {
		s.Destination = &dest
		s.ActiveRoute = &computed
	}); err != nil {
		// client disconnected while the provider was working
		return
	}
	rt.sendAndBroadcast(clientID, newMessage(TypeRouteResponse, computed))
}

// recalculate is the asynchronous deviation-triggered path. The session is
// re-validated before the result is applied: a vanished session, a stop, or a
// destination changed while the provider was working all discard the result
// silently.
func (rt *Router) recalculate(clientID string, start, destination geo.Point, profile string) {
	computed, err := rt.routes.RequestRoute(context.Background(), start, destination, profile)
	if err != nil {
		rt.sendError(clientID, TypeLocationUpdate, err.Error())
		return
	}

	committed := false
	if _, err := rt.registry.Update(clientID, func(s *Session) {
		if !s.IsTracking || s.Destination == nil || *s.Destination != destination {
			return
		}
		s.ActiveRoute = &computed
		committed = true
	}); err != nil {
		return
	}
	if !committed {
		return
	}
	rt.sendAndBroadcast(clientID, newMessage(TypeRouteResponse, computed))
}

func (rt *Router) send(clientID string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("encode %s message for %s: %v", msg.Type, clientID, err)
		return
	}
	rt.registry.Send(clientID, payload)
}

func (rt *Router) sendAndBroadcast(clientID string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("encode %s message for %s: %v", msg.Type, clientID, err)
		return
	}
	rt.registry.Send(clientID, payload)
	if rt.hub != nil {
		rt.hub.Broadcast(clientID, payload)
	}
}

func (rt *Router) sendError(clientID, inboundType, reason string) {
	rt.send(clientID, newMessage(TypeError, ErrorPayload{Message: reason, Type: inboundType}))
}
