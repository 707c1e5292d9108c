package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// Validate rejects coordinates outside the valid WGS84 ranges.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90,90]", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180,180]", p.Lng)
	}
	return nil
}

// HaversineKm returns the great-circle distance between two coordinates in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// DistanceM returns the great-circle distance between two points in meters.
func DistanceM(a, b Point) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng) * 1000
}

// DistanceToSegmentM returns the distance in meters from p to the segment a-b.
// The foot of the perpendicular is found on an equirectangular projection
// (segments are short relative to the Earth's radius), the returned distance
// itself is great-circle. If the projection falls outside the segment the
// nearest endpoint is used.
func DistanceToSegmentM(p, a, b Point) float64 {
	latScale := math.Cos(toRad((a.Lat + b.Lat) / 2))

	ax, ay := a.Lng*latScale, a.Lat
	bx, by := b.Lng*latScale, b.Lat
	px, py := p.Lng*latScale, p.Lat

	dx, dy := bx-ax, by-ay
	segLen2 := dx*dx + dy*dy
	if segLen2 == 0 {
		return DistanceM(p, a)
	}

	t := ((px-ax)*dx + (py-ay)*dy) / segLen2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	nearest := Point{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lng: a.Lng + t*(b.Lng-a.Lng),
	}
	return DistanceM(p, nearest)
}

// DistanceToPathM returns the minimum distance in meters from p to a polyline.
// A single-point path degenerates to the point distance; an empty path has no
// finite distance.
func DistanceToPathM(p Point, path []Point) float64 {
	switch len(path) {
	case 0:
		return math.Inf(1)
	case 1:
		return DistanceM(p, path[0])
	}

	min := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		if d := DistanceToSegmentM(p, path[i], path[i+1]); d < min {
			min = d
		}
	}
	return min
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
