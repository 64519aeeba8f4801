package geo

import (
	"math"
	"testing"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

var (
	mgRoad     = model.Location{Lat: 12.9716, Lng: 77.5946}
	koramangala = model.Location{Lat: 12.9352, Lng: 77.6245}
)

func TestHaversineKm(t *testing.T) {
	// MG Road to Koramangala is roughly 5.2 km as the crow flies.
	d := HaversineKm(mgRoad, koramangala)
	if d < 4.5 || d > 6.0 {
		t.Errorf("HaversineKm = %.3f, want ~5.2", d)
	}

	if got := HaversineKm(mgRoad, mgRoad); got != 0 {
		t.Errorf("distance to self = %v, want 0", got)
	}

	// Symmetry.
	if ab, ba := HaversineKm(mgRoad, koramangala), HaversineKm(koramangala, mgRoad); ab != ba {
		t.Errorf("asymmetric: %v vs %v", ab, ba)
	}
}

func TestHaversineM(t *testing.T) {
	km := HaversineKm(mgRoad, koramangala)
	m := HaversineM(mgRoad, koramangala)
	if math.Abs(m-km*1000) > 1e-6 {
		t.Errorf("HaversineM = %v, want %v", m, km*1000)
	}
}

func TestPolylineRoundTrip(t *testing.T) {
	points := []model.Location{
		{Lat: 12.97160, Lng: 77.59460},
		{Lat: 12.95010, Lng: 77.60020},
		{Lat: 12.93520, Lng: 77.62450},
	}

	encoded := EncodePolyline(points)
	if encoded == "" {
		t.Fatal("empty encoding")
	}

	decoded, err := DecodePolyline(encoded)
	if err != nil {
		t.Fatalf("DecodePolyline: %v", err)
	}
	if len(decoded) != len(points) {
		t.Fatalf("decoded %d points, want %d", len(decoded), len(points))
	}
	for i := range points {
		// Precision 5 keeps ~1e-5 degrees.
		if math.Abs(decoded[i].Lat-points[i].Lat) > 1e-5 ||
			math.Abs(decoded[i].Lng-points[i].Lng) > 1e-5 {
			t.Errorf("point %d: got %+v, want %+v", i, decoded[i], points[i])
		}
	}
}

func TestDecodePolylineMalformed(t *testing.T) {
	if _, err := DecodePolyline("\x80"); err == nil {
		t.Error("expected error for malformed polyline")
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []model.Location{
		{Lat: 12.90, Lng: 77.50},
		{Lat: 12.90, Lng: 77.70},
		{Lat: 13.10, Lng: 77.70},
		{Lat: 13.10, Lng: 77.50},
	}

	inside := model.Location{Lat: 13.00, Lng: 77.60}
	outside := model.Location{Lat: 13.20, Lng: 77.60}

	if !PointInPolygon(inside, square) {
		t.Error("inside point reported outside")
	}
	if PointInPolygon(outside, square) {
		t.Error("outside point reported inside")
	}
}

func TestPointInPolygonRotationStable(t *testing.T) {
	ring := []model.Location{
		{Lat: 12.90, Lng: 77.50},
		{Lat: 12.90, Lng: 77.70},
		{Lat: 13.10, Lng: 77.70},
		{Lat: 13.10, Lng: 77.50},
	}
	p := model.Location{Lat: 12.95, Lng: 77.55}

	want := PointInPolygon(p, ring)
	for shift := 1; shift < len(ring); shift++ {
		rotated := append(append([]model.Location{}, ring[shift:]...), ring[:shift]...)
		if got := PointInPolygon(p, rotated); got != want {
			t.Errorf("rotation %d changed result: got %v, want %v", shift, got, want)
		}
	}
}

func TestPointInPolygonDegenerate(t *testing.T) {
	if PointInPolygon(model.Location{Lat: 13, Lng: 77}, []model.Location{{Lat: 13, Lng: 77}, {Lat: 14, Lng: 78}}) {
		t.Error("two-vertex polygon should contain nothing")
	}
}
