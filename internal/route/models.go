package route

import (
	"time"

	"github.com/NikBulygin/Indrive-hackation-backend/internal/shared/geo"
)

const (
	ProfileDriving = "driving"
	ProfileWalking = "walking"
	ProfileCycling = "cycling"
)

// Route is one computed route. It is immutable once produced by the provider
// and replaced wholesale on recalculation.
type Route struct {
	Points       []geo.Point `json:"route"`
	DistanceM    float64     `json:"distance"`
	DurationSec  float64     `json:"duration"`
	Profile      string      `json:"profile"`
	Instructions []string    `json:"instructions,omitempty"`
	RequestedAt  time.Time   `json:"-"`
}

// Request describes one route computation.
type Request struct {
	Start   geo.Point `json:"startPoint"`
	End     geo.Point `json:"endPoint"`
	Profile string    `json:"profile" validate:"omitempty,oneof=driving walking cycling"`
}

func ValidProfile(profile string) bool {
	switch profile {
	case ProfileDriving, ProfileWalking, ProfileCycling:
		return true
	}
	return false
}
