package realtime

import (
	"encoding/json"
	"time"

	"github.com/NikBulygin/Indrive-hackation-backend/internal/route"
	"github.com/NikBulygin/Indrive-hackation-backend/internal/shared/geo"
)

// Message types exchanged over the tracking websocket. The set is closed:
// anything else is answered with an error message.
const (
	TypeLocationUpdate = "location_update"
	TypeStartTracking  = "start_tracking"
	TypeStopTracking   = "stop_tracking"
	TypeRouteRequest   = "route_request"
	TypeRouteResponse  = "route_response"
	TypePing           = "ping"
	TypePong           = "pong"
	TypeError          = "error"
)

// Message is the wire envelope. Data is decoded into the payload type
// matching Type at the dispatch boundary.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
	ClientID  string          `json:"clientId,omitempty"`
}

// LocationUpdate is one position sample. Everything beyond the coordinates
// is optional.
type LocationUpdate struct {
	geo.Point
	Altitude float64 `json:"alt,omitempty"`
	Speed    float64 `json:"spd,omitempty"`
	Heading  float64 `json:"azm,omitempty"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

// StartTrackingPayload starts a tracking session at a known position,
// optionally toward a destination.
type StartTrackingPayload struct {
	Location    LocationUpdate `json:"location"`
	Destination *geo.Point     `json:"destination,omitempty"`
	Profile     string         `json:"profile,omitempty"`
}

// RouteRequestPayload asks for a fresh route from the current position.
type RouteRequestPayload struct {
	Destination geo.Point `json:"destination"`
	Profile     string    `json:"profile,omitempty"`
}

// ErrorPayload echoes the offending message type alongside the reason.
type ErrorPayload struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// TrackingStatePayload acknowledges start/stop transitions.
type TrackingStatePayload struct {
	IsTracking bool `json:"isTracking"`
}

// Session is the live server-side state of one connected client. Sessions
// are owned by the Registry; other components only see copies.
type Session struct {
	ClientID        string
	CurrentLocation *LocationUpdate
	Destination     *geo.Point
	ActiveRoute     *route.Route
	IsTracking      bool
	LastUpdate      time.Time
	LastPong        time.Time
}

var now = time.Now

func newMessage(msgType string, data any) Message {
	msg := Message{Type: msgType, Timestamp: now().UnixMilli()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err == nil {
			msg.Data = raw
		}
	}
	return msg
}
