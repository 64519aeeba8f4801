package osrm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

var testCoords = []model.Location{
	{Lat: 12.9716, Lng: 77.5946},
	{Lat: 12.9352, Lng: 77.6245},
}

const routeOK = `{
	"code": "Ok",
	"routes": [{
		"distance": 5230.4,
		"duration": 912.7,
		"geometry": "mock",
		"legs": [{"distance": 5230.4, "duration": 912.7}]
	}],
	"waypoints": [
		{"waypoint_index": 0, "location": [77.5946, 12.9716], "name": "MG Road"},
		{"waypoint_index": 1, "location": [77.6245, 12.9352], "name": "Koramangala"}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, opts...)
}

func TestRouteOk(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(routeOK))
	})

	res, err := c.Route(context.Background(), testCoords, true)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if res.TotalDistance != 5230.4 || res.TotalDuration != 912.7 {
		t.Errorf("totals = %v/%v, want 5230.4/912.7", res.TotalDistance, res.TotalDuration)
	}
	if len(res.Legs) != 1 {
		t.Errorf("legs = %d, want 1", len(res.Legs))
	}
	if res.Geometry != "mock" {
		t.Errorf("geometry = %q", res.Geometry)
	}
	if len(res.Waypoints) != 2 || res.Waypoints[1].WaypointIndex != 1 {
		t.Errorf("waypoints not mapped: %+v", res.Waypoints)
	}

	// Coordinates travel as lng,lat.
	if !strings.Contains(gotPath, "77.594600,12.971600;77.624500,12.935200") {
		t.Errorf("path = %q, missing lng,lat pairs", gotPath)
	}
}

func TestRouteNonOkCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "NoRoute", "message": "Impossible route between points"}`))
	})

	_, err := c.Route(context.Background(), testCoords, false)
	if err == nil {
		t.Fatal("expected error for non-Ok code")
	}
	var oe *Error
	if !errors.As(err, &oe) || oe.Kind != KindBadResponse {
		t.Errorf("err = %v, want KindBadResponse", err)
	}
}

func TestRouteTooFewCoords(t *testing.T) {
	c := NewClient("http://unused")
	if _, err := c.Route(context.Background(), testCoords[:1], false); err == nil {
		t.Error("expected error for a single coordinate")
	}
}

func TestGetNoRetryOnHTTPError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "Too many coordinates", http.StatusBadRequest)
	})

	_, err := c.Route(context.Background(), testCoords, false)
	if err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("HTTP 400 was retried: %d calls", n)
	}
}

func TestTableSourcesDestinations(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{
			"code": "Ok",
			"distances": [[0, 1200.5]],
			"durations": [[0, 240.2]]
		}`))
	})

	res, err := c.Table(context.Background(), testCoords, []int{0}, []int{0, 1})
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if len(res.Distances) != 1 || res.Distances[0][1] != 1200.5 {
		t.Errorf("distances = %v", res.Distances)
	}
	if !strings.Contains(gotQuery, "sources=0") || !strings.Contains(gotQuery, "destinations=0;1") {
		t.Errorf("query = %q, missing sources/destinations", gotQuery)
	}
	if !strings.Contains(gotQuery, "annotations=distance,duration") {
		t.Errorf("query = %q, missing annotations", gotQuery)
	}
}

func TestCacheHitSkipsNetwork(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(routeOK))
	}, WithCache(16))

	for i := 0; i < 3; i++ {
		if _, err := c.Route(context.Background(), testCoords, true); err != nil {
			t.Fatalf("Route %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("identical request hit the network %d times, want 1", n)
	}
}

func TestIsAvailable(t *testing.T) {
	up := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(routeOK))
	})
	if !up.IsAvailable(context.Background()) {
		t.Error("healthy server reported unavailable")
	}

	down := NewClient("http://127.0.0.1:1") // nothing listens here
	if down.IsAvailable(context.Background()) {
		t.Error("dead server reported available")
	}
}

// roundTripperFunc adapts a function to http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestGetNonRetryableTransportError(t *testing.T) {
	var calls int32
	hc := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("unsupported protocol scheme")
	})}
	c := NewClient("http://example.invalid", WithHTTPClient(hc))

	_, err := c.Route(context.Background(), testCoords, false)
	if err == nil {
		t.Fatal("expected error")
	}
	var oe *Error
	if !errors.As(err, &oe) || oe.Kind != KindRequestFailed {
		t.Errorf("err = %v, want KindRequestFailed", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("non-retryable transport error was retried: %d calls", n)
	}
}
