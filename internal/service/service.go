// Package service contains the route generation engine: heuristic batch
// selection, deviation checking, guard handling, solver orchestration,
// polishing, timing, and the two-phase planning loop that ties them
// together.
package service

import (
	"context"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/osrm"
)

// RoadClient is the subset of the OSRM client the engine depends on.
// Tests substitute a fake; production wires *osrm.Client.
type RoadClient interface {
	IsAvailable(ctx context.Context) bool
	Route(ctx context.Context, coords []model.Location, withGeometry bool) (*osrm.RouteResult, error)
	Table(ctx context.Context, coords []model.Location, sources, destinations []int) (*osrm.TableResult, error)
}

// pickupCoords lays out route coordinates for a pickup trip: employees
// in stop order, facility last.
func pickupCoords(emps []model.Employee, facility model.Location) []model.Location {
	coords := make([]model.Location, 0, len(emps)+1)
	for _, e := range emps {
		coords = append(coords, e.Location)
	}
	return append(coords, facility)
}

// dropoffCoords lays out route coordinates for a dropoff trip: facility
// first, employees in stop order.
func dropoffCoords(emps []model.Employee, facility model.Location) []model.Location {
	coords := make([]model.Location, 0, len(emps)+1)
	coords = append(coords, facility)
	for _, e := range emps {
		coords = append(coords, e.Location)
	}
	return coords
}

// tripCoords dispatches on trip type. For PICKUP the facility is the
// last coordinate, for DROPOFF the first.
func tripCoords(trip model.TripType, emps []model.Employee, facility model.Location) []model.Location {
	if trip == model.TripDropoff {
		return dropoffCoords(emps, facility)
	}
	return pickupCoords(emps, facility)
}
