package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NikBulygin/Indrive-hackation-backend/internal/shared/geo"
)

// ErrRouteUnavailable covers every provider failure: unreachable upstream,
// timeouts and "no route found". It is never fatal to a session.
var ErrRouteUnavailable = errors.New("route unavailable")

// Provider computes a route between two points for a travel profile.
type Provider interface {
	ComputeRoute(ctx context.Context, start, end geo.Point, profile string) (Route, error)
}

// osrmProfiles maps API profiles onto OSRM profile path segments.
var osrmProfiles = map[string]string{
	ProfileDriving: "driving",
	ProfileWalking: "foot",
	ProfileCycling: "cycling",
}

// OSRMProvider talks to an OSRM route/v1 endpoint.
type OSRMProvider struct {
	baseURL string
	client  *http.Client
}

func NewOSRMProvider(baseURL string, timeout time.Duration) *OSRMProvider {
	return &OSRMProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Steps []struct {
				Name     string `json:"name"`
				Maneuver struct {
					Type     string `json:"type"`
					Modifier string `json:"modifier"`
				} `json:"maneuver"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

func (p *OSRMProvider) ComputeRoute(ctx context.Context, start, end geo.Point, profile string) (Route, error) {
	osrmProfile, ok := osrmProfiles[profile]
	if !ok {
		osrmProfile = osrmProfiles[ProfileDriving]
		profile = ProfileDriving
	}

	url := fmt.Sprintf("%s/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson&steps=true",
		p.baseURL, osrmProfile, start.Lng, start.Lat, end.Lng, end.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Route{}, fmt.Errorf("%w: osrm returned %d", ErrRouteUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Route{}, fmt.Errorf("%w: decode failed: %v", ErrRouteUnavailable, err)
	}
	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		return Route{}, fmt.Errorf("%w: no route found", ErrRouteUnavailable)
	}

	best := parsed.Routes[0]
	result := Route{
		DistanceM:   best.Distance,
		DurationSec: best.Duration,
		Profile:     profile,
	}
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		result.Points = append(result.Points, geo.Point{Lat: pair[1], Lng: pair[0]})
	}
	for _, leg := range best.Legs {
		for _, step := range leg.Steps {
			result.Instructions = append(result.Instructions, stepInstruction(step.Maneuver.Type, step.Maneuver.Modifier, step.Name))
		}
	}
	return result, nil
}

func stepInstruction(maneuver, modifier, street string) string {
	parts := []string{maneuver}
	if modifier != "" {
		parts = append(parts, modifier)
	}
	text := strings.Join(parts, " ")
	if street != "" {
		text += " onto " + street
	}
	return text
}
