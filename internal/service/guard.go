package service

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/osrm"
)

// MaxSwapDistanceKm bounds the road distance between the critical-seat
// female and a male swap candidate.
const MaxSwapDistanceKm = 1.5

// GuardSwapper enforces the female-safety rule on the critical seat:
// the first stop for pickup, the last stop for dropoff. When the
// critical employee is a female it tries to swap a nearby male into
// that seat; failing that the route needs a guard.
type GuardSwapper struct {
	road RoadClient
}

// NewGuardSwapper creates a swapper backed by the road client.
func NewGuardSwapper(road RoadClient) *GuardSwapper {
	return &GuardSwapper{road: road}
}

// SwapResult is the outcome of applying the guard rule to a route.
type SwapResult struct {
	Employees   []model.Employee
	Details     *osrm.RouteResult
	Swapped     bool
	GuardNeeded bool
}

// criticalIndex is the seat subject to the guard rule.
func criticalIndex(trip model.TripType, n int) int {
	if trip == model.TripDropoff {
		return n - 1
	}
	return 0
}

// Apply enforces the guard rule on an ordered batch with its current
// road details. The batch must be non-empty.
//
// Outcomes:
//   - critical seat not female: unchanged, no guard.
//   - lone female: GuardNeeded=true, no swap possible.
//   - male within MaxSwapDistanceKm by road: swap, recompute details,
//     Swapped=true.
//   - recompute fails or no candidate: GuardNeeded=true with the
//     original details.
func (g *GuardSwapper) Apply(
	ctx context.Context,
	emps []model.Employee,
	trip model.TripType,
	facility model.Location,
	details *osrm.RouteResult,
) (*SwapResult, error) {
	ci := criticalIndex(trip, len(emps))
	critical := emps[ci]

	if critical.Gender != model.GenderFemale {
		return &SwapResult{Employees: emps, Details: details}, nil
	}

	if len(emps) == 1 {
		log.Printf("[guard] lone female %s, guard required", critical.EmpCode)
		return &SwapResult{Employees: emps, Details: details, GuardNeeded: true}, nil
	}

	maleIdx := g.nearestMale(ctx, emps, ci)
	if maleIdx < 0 {
		log.Printf("[guard] no male within %.1fkm of %s, guard required",
			MaxSwapDistanceKm, critical.EmpCode)
		return &SwapResult{Employees: emps, Details: details, GuardNeeded: true}, nil
	}

	// Swap the male into the critical seat and recompute the road route.
	swapped := append([]model.Employee{}, emps...)
	swapped[ci], swapped[maleIdx] = swapped[maleIdx], swapped[ci]

	newDetails, err := g.routeWithCriticalSeat(ctx, swapped, trip, facility, swapped[ci].EmpCode)
	if err != nil {
		log.Printf("[guard] swap recompute failed (%v), falling back to guard", err)
		return &SwapResult{Employees: emps, Details: details, GuardNeeded: true}, nil
	}

	log.Printf("[guard] swapped %s into critical seat for %s",
		swapped[ci].EmpCode, critical.EmpCode)
	return &SwapResult{Employees: swapped, Details: newDetails, Swapped: true}, nil
}

// nearestMale returns the index of the closest male to the critical
// employee by road distance within MaxSwapDistanceKm, or -1.
func (g *GuardSwapper) nearestMale(ctx context.Context, emps []model.Employee, ci int) int {
	coords := []model.Location{emps[ci].Location}
	maleIdx := make([]int, 0, len(emps))
	for i, e := range emps {
		if i == ci || e.Gender != model.GenderMale {
			continue
		}
		coords = append(coords, e.Location)
		maleIdx = append(maleIdx, i)
	}
	if len(maleIdx) == 0 {
		return -1
	}

	destinations := make([]int, len(maleIdx))
	for i := range maleIdx {
		destinations[i] = i + 1
	}
	table, err := g.road.Table(ctx, coords, []int{0}, destinations)
	if err != nil || len(table.Distances) == 0 {
		log.Printf("[guard] swap candidate table failed: %v", err)
		return -1
	}

	best := -1
	bestDist := math.MaxFloat64
	for i, d := range table.Distances[0] {
		if d <= MaxSwapDistanceKm*1000.0 && d < bestDist {
			bestDist = d
			best = maleIdx[i]
		}
	}
	return best
}

// routeWithCriticalSeat requests a full road route for the ordered
// employees and verifies the service kept wantCode at the critical
// seat. The service may reorder waypoints; a reorder that moves the
// seat fails the swap and the caller falls back to a guard.
func (g *GuardSwapper) routeWithCriticalSeat(
	ctx context.Context,
	emps []model.Employee,
	trip model.TripType,
	facility model.Location,
	wantCode string,
) (*osrm.RouteResult, error) {
	details, err := g.road.Route(ctx, tripCoords(trip, emps, facility), true)
	if err != nil {
		return nil, err
	}
	ci := criticalIndex(trip, len(emps))
	if seatOf(emps, ci, trip, details.Waypoints) != wantCode {
		return nil, fmt.Errorf("road service kept %s away from the critical seat", wantCode)
	}
	return details, nil
}

// seatOf returns the empCode the road service placed at employee seat
// want, mapping by waypoint index. The service may reorder waypoints;
// input order is never assumed. Falls back to input order when the
// waypoint set is incomplete.
func seatOf(emps []model.Employee, want int, trip model.TripType, waypoints []osrm.Waypoint) string {
	// Input layout: pickup = employees then facility; dropoff =
	// facility then employees.
	offset := 0
	if trip == model.TripDropoff {
		offset = 1
	}
	if len(waypoints) != len(emps)+1 {
		return emps[want].EmpCode
	}
	for i := range emps {
		if waypoints[i+offset].WaypointIndex == want+offset {
			return emps[i].EmpCode
		}
	}
	return emps[want].EmpCode
}
