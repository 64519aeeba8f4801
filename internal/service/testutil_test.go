package service

import (
	"context"
	"errors"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/geo"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/osrm"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/solver"
)

// fakeSpeedMPS is the synthetic road speed of the fake road client.
// Durations are derived purely from haversine distance at this speed.
const fakeSpeedMPS = 10.0

// fakeRoad is a deterministic in-memory RoadClient. Road distance equals
// haversine distance and waypoints keep input order, which makes
// expected values easy to derive by hand.
type fakeRoad struct {
	down       bool
	routeErr   error
	tableErr   error
	routeCalls int
	tableCalls int
}

func (f *fakeRoad) IsAvailable(ctx context.Context) bool {
	return !f.down
}

func (f *fakeRoad) Route(ctx context.Context, coords []model.Location, withGeometry bool) (*osrm.RouteResult, error) {
	f.routeCalls++
	if f.routeErr != nil {
		return nil, f.routeErr
	}
	if len(coords) < 2 {
		return nil, errors.New("fake: route needs 2+ coords")
	}

	res := &osrm.RouteResult{}
	for i := 0; i < len(coords)-1; i++ {
		d := geo.HaversineM(coords[i], coords[i+1])
		res.Legs = append(res.Legs, model.Leg{Distance: d, Duration: d / fakeSpeedMPS})
		res.TotalDistance += d
		res.TotalDuration += d / fakeSpeedMPS
	}
	for i, c := range coords {
		res.Waypoints = append(res.Waypoints, osrm.Waypoint{
			WaypointIndex: i,
			Location:      [2]float64{c.Lng, c.Lat},
		})
	}
	if withGeometry {
		res.Geometry = geo.EncodePolyline(coords)
	}
	return res, nil
}

func (f *fakeRoad) Table(ctx context.Context, coords []model.Location, sources, destinations []int) (*osrm.TableResult, error) {
	f.tableCalls++
	if f.tableErr != nil {
		return nil, f.tableErr
	}

	rows := sources
	if len(rows) == 0 {
		rows = allIndices(len(coords))
	}
	cols := destinations
	if len(cols) == 0 {
		cols = allIndices(len(coords))
	}

	res := &osrm.TableResult{}
	for _, r := range rows {
		distRow := make([]float64, 0, len(cols))
		durRow := make([]float64, 0, len(cols))
		for _, c := range cols {
			d := geo.HaversineM(coords[r], coords[c])
			distRow = append(distRow, d)
			durRow = append(durRow, d/fakeSpeedMPS)
		}
		res.Distances = append(res.Distances, distRow)
		res.Durations = append(res.Durations, durRow)
	}
	return res, nil
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// fakeRunner is an in-memory solver.Runner. With no fn set it returns
// the identity visit order depot → 1..N → depot.
type fakeRunner struct {
	fn    func(*solver.Problem) (*solver.Solution, error)
	calls int
}

func (f *fakeRunner) Solve(ctx context.Context, problem *solver.Problem) (*solver.Solution, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(problem)
	}
	n := len(problem.DistanceMatrix) - 1
	nodes := []int{0}
	for i := 1; i <= n; i++ {
		nodes = append(nodes, i)
	}
	nodes = append(nodes, 0)
	return &solver.Solution{
		Routes: []solver.VehicleRoute{{VehicleIndex: 0, NodeIndices: nodes}},
	}, nil
}

// ─── Shared fixtures ────────────────────────────────────────

// testFacility sits in central Bangalore; employees are laid out north
// of it so haversine distances are easy to reason about (0.01° of
// latitude ≈ 1.11 km).
var testFacility = model.Location{Lat: 12.9000, Lng: 77.6000}

func emp(code string, lat, lng float64, gender model.Gender) model.Employee {
	return model.Employee{
		EmpCode:  code,
		Location: model.Location{Lat: lat, Lng: lng},
		Gender:   gender,
	}
}

// lineEmployees returns n employees on the facility meridian, the first
// farthest away, spaced ~0.89 km apart.
func lineEmployees(n int) []model.Employee {
	emps := make([]model.Employee, 0, n)
	for i := 0; i < n; i++ {
		lat := 12.9000 + 0.008*float64(n-i) + 0.01
		emps = append(emps, emp(empCode(i), lat, 77.6000, model.GenderMale))
	}
	return emps
}

func empCode(i int) string {
	return string(rune('A'+i)) + "001"
}

func testProfile(maxDuration float64) model.Profile {
	return model.Profile{
		MaxDuration:  maxDuration,
		FacilityType: model.FacilityCDC,
	}
}
