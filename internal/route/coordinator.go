package route

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NikBulygin/Indrive-hackation-backend/internal/shared/geo"
)

const (
	DefaultDeviationThresholdM = 100
	DefaultMaxRouteAge         = 300 * time.Second
)

// Coordinator mediates between session state and the route provider. It never
// computes routes itself, only decides when a route is stale and must be
// replaced.
type Coordinator struct {
	provider            Provider
	deviationThresholdM float64
	maxRouteAge         time.Duration
	now                 func() time.Time
}

func NewCoordinator(provider Provider, deviationThresholdM float64, maxRouteAge time.Duration) *Coordinator {
	if deviationThresholdM <= 0 {
		deviationThresholdM = DefaultDeviationThresholdM
	}
	if maxRouteAge <= 0 {
		maxRouteAge = DefaultMaxRouteAge
	}
	return &Coordinator{
		provider:            provider,
		deviationThresholdM: deviationThresholdM,
		maxRouteAge:         maxRouteAge,
		now:                 time.Now,
	}
}

// RequestRoute delegates to the provider and stamps the result. Any provider
// failure surfaces as ErrRouteUnavailable.
func (c *Coordinator) RequestRoute(ctx context.Context, start, end geo.Point, profile string) (Route, error) {
	if profile == "" {
		profile = ProfileDriving
	}
	if !ValidProfile(profile) {
		return Route{}, fmt.Errorf("unknown profile %q", profile)
	}

	computed, err := c.provider.ComputeRoute(ctx, start, end, profile)
	if err != nil {
		if errors.Is(err, ErrRouteUnavailable) {
			return Route{}, err
		}
		return Route{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}
	computed.RequestedAt = c.now()
	return computed, nil
}

// ShouldRecalculate reports whether the active route no longer serves the
// client at newLocation. A missing or degenerate route (fewer than two
// points) always forces recalculation.
func (c *Coordinator) ShouldRecalculate(active *Route, newLocation geo.Point) bool {
	if active == nil || len(active.Points) < 2 {
		return true
	}
	if c.now().Sub(active.RequestedAt) > c.maxRouteAge {
		return true
	}
	return geo.DistanceToPathM(newLocation, active.Points) > c.deviationThresholdM
}
