package track

import "time"

// GeoTrack is one persisted GPS sample from a device feed.
type GeoTrack struct {
	ID           string    `json:"id"`
	RandomizedID string    `json:"randomized_id"`
	Lat          float64   `json:"lat" validate:"min=-90,max=90"`
	Lng          float64   `json:"lng" validate:"min=-180,max=180"`
	Alt          float64   `json:"alt"`
	Spd          float64   `json:"spd"`
	Azm          float64   `json:"azm"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats aggregates the whole track store.
type Stats struct {
	TotalPoints int64   `json:"total_points"`
	Devices     int64   `json:"devices"`
	AvgSpeed    float64 `json:"avg_speed"`
	MaxSpeed    float64 `json:"max_speed"`
}
