package service

import (
	"context"
	"log"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/osrm"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/solver"
)

// Polisher re-optimizes a single committed route's stop order with a
// one-vehicle solver run, optionally pinning the critical seat after a
// guard swap. A polish that drops nodes, moves the pinned employee, or
// fails the post-gates is reverted.
type Polisher struct {
	road   RoadClient
	runner solver.Runner
}

// NewPolisher creates a polisher backed by the road client and solver.
func NewPolisher(road RoadClient, runner solver.Runner) *Polisher {
	return &Polisher{road: road, runner: runner}
}

// PolishInput carries one route's current state into a polish attempt.
type PolishInput struct {
	Employees   []model.Employee
	Details     *osrm.RouteResult
	Trip        model.TripType
	Facility    model.Location
	MaxDuration float64
	ServiceTime float64 // seconds per employee stop
	// PinnedEmpCode keeps an employee at the critical seat: first stop
	// for pickup, last stop for dropoff. Empty means no pin.
	PinnedEmpCode string
	Profile       *model.Profile
	FacilityType  model.FacilityType
}

// Polish attempts the re-optimization and returns the improved order
// and details, or the originals when the attempt is rejected.
func (p *Polisher) Polish(ctx context.Context, checker *DeviationChecker, in PolishInput) ([]model.Employee, *osrm.RouteResult, bool) {
	if len(in.Employees) < 2 {
		return in.Employees, in.Details, false
	}

	matrix, err := BuildMatrix(ctx, p.road, in.Facility, in.Employees)
	if err != nil {
		log.Printf("[polish] matrix build failed: %v", err)
		return in.Employees, in.Details, false
	}

	problem := &solver.Problem{
		DistanceMatrix:    matrix.Distances,
		DurationMatrix:    matrix.Durations,
		NumVehicles:       1,
		VehicleCapacities: []int{len(in.Employees)},
		Demands:           demandsFor(len(in.Employees)),
		DepotIndex:        0,
		MaxRouteDuration:  in.MaxDuration,
		ServiceTimes:      serviceTimesFor(len(in.Employees), in.ServiceTime),
		FacilityCoords:    []float64{in.Facility.Lng, in.Facility.Lat},
		TripType:          string(in.Trip),
	}
	if in.Profile != nil {
		problem.DirectionPenaltyWeight = in.Profile.DirectionPenaltyWeight
	}

	pinnedIdx := -1
	if in.PinnedEmpCode != "" {
		pinnedIdx = matrix.IndexOf(in.PinnedEmpCode)
	}
	if pinnedIdx > 0 {
		others := make([]int, 0, len(in.Employees)-1)
		for i := 1; i < len(matrix.PointMap); i++ {
			if i != pinnedIdx {
				others = append(others, i)
			}
		}
		if in.Trip == model.TripPickup {
			problem.FixedStartNodeIndexInMatrix = &pinnedIdx
		} else {
			problem.FixedEndNodeIndexInMatrix = &pinnedIdx
			problem.OtherCustomerNodeIndicesInMatrix = others
		}
	}

	sol, err := p.runner.Solve(ctx, problem)
	if err != nil {
		log.Printf("[polish] solver failed: %v", err)
		return in.Employees, in.Details, false
	}
	if len(sol.DroppedNodeIndices) > 0 || len(sol.Routes) != 1 {
		log.Printf("[polish] rejected: dropped=%d routes=%d",
			len(sol.DroppedNodeIndices), len(sol.Routes))
		return in.Employees, in.Details, false
	}

	ordered, ok := employeesFromNodes(matrix, sol.Routes[0].NodeIndices)
	if !ok || len(ordered) != len(in.Employees) {
		log.Printf("[polish] rejected: solution order incomplete")
		return in.Employees, in.Details, false
	}

	// The pinned employee must remain at the pinned seat.
	if pinnedIdx > 0 {
		ci := criticalIndex(in.Trip, len(ordered))
		if ordered[ci].EmpCode != in.PinnedEmpCode {
			log.Printf("[polish] rejected: pin %s moved off the critical seat", in.PinnedEmpCode)
			return in.Employees, in.Details, false
		}
	}

	details, err := p.road.Route(ctx, tripCoords(in.Trip, ordered, in.Facility), true)
	if err != nil {
		log.Printf("[polish] road recompute failed: %v", err)
		return in.Employees, in.Details, false
	}
	if details.TotalDuration > in.MaxDuration {
		log.Printf("[polish] rejected: duration regression %.0fs > %.0fs",
			details.TotalDuration, in.MaxDuration)
		return in.Employees, in.Details, false
	}
	if in.Profile != nil {
		ok, _, err := checker.Check(ctx, details.TotalDistance, ordered,
			model.Facility{Location: in.Facility, Type: in.FacilityType}, in.Profile)
		if err != nil || !ok {
			log.Printf("[polish] rejected: deviation gate (ok=%v err=%v)", ok, err)
			return in.Employees, in.Details, false
		}
	}

	log.Printf("[polish] accepted: %.0fm → %.0fm", in.Details.TotalDistance, details.TotalDistance)
	return ordered, details, true
}

// demandsFor is 0 for the depot and 1 per employee node.
func demandsFor(n int) []int {
	demands := make([]int, n+1)
	for i := 1; i <= n; i++ {
		demands[i] = 1
	}
	return demands
}

// serviceTimesFor is 0 for the depot and the per-employee service time
// for each employee node.
func serviceTimesFor(n int, serviceTime float64) []float64 {
	times := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		times[i] = serviceTime
	}
	return times
}

// employeesFromNodes maps solver node indices back onto employees via
// the point map, skipping the depot. Returns false when an index is out
// of range or refers to the depot unexpectedly.
func employeesFromNodes(matrix *Matrix, nodes []int) ([]model.Employee, bool) {
	out := make([]model.Employee, 0, len(nodes))
	for _, n := range nodes {
		if n == 0 {
			continue // depot
		}
		if n < 0 || n >= len(matrix.PointMap) || matrix.PointMap[n].Employee == nil {
			return nil, false
		}
		out = append(out, *matrix.PointMap[n].Employee)
	}
	return out, true
}
