// Package geo provides geographic utility functions for route planning.
//
// All distance calculations use the Haversine formula on WGS-84
// coordinates. Road distances and durations come from the OSRM client;
// haversine is used only for candidate ordering and proximity filters.
package geo

import (
	"math"

	polyline "github.com/twpayne/go-polyline"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusKm is the mean radius of Earth in kilometers.
	EarthRadiusKm = 6371.0

	// EarthRadiusM is the mean radius of Earth in meters.
	EarthRadiusM = 6_371_000.0
)

// ─── Distance ───────────────────────────────────────────────

// HaversineKm returns the great-circle distance between two points in
// kilometers.
//
// Complexity: O(1)
func HaversineKm(a, b model.Location) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLng := degToRad(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLng*sinLng

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// HaversineM returns the great-circle distance between two points in meters.
func HaversineM(a, b model.Location) float64 {
	return HaversineKm(a, b) * 1000.0
}

// ─── Polylines ──────────────────────────────────────────────

// EncodePolyline encodes an ordered list of locations with the Google
// polyline algorithm (precision 5, same as OSRM geometries=polyline).
func EncodePolyline(points []model.Location) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline decodes an encoded polyline into locations. Returns an
// error for malformed input.
func DecodePolyline(encoded string) ([]model.Location, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	points := make([]model.Location, len(coords))
	for i, c := range coords {
		points[i] = model.Location{Lat: c[0], Lng: c[1]}
	}
	return points, nil
}

// ─── Polygons ───────────────────────────────────────────────

// PointInPolygon reports whether p lies inside the polygon using the
// ray-casting rule. The polygon may be open or closed; vertex order
// (CW/CCW) and starting vertex do not affect the result.
//
// Complexity: O(V) where V = number of vertices.
func PointInPolygon(p model.Location, polygon []model.Location) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		a, b := polygon[i], polygon[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// ─── Helpers ────────────────────────────────────────────────

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
