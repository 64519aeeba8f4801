package service

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/geo"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/osrm"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/solver"
)

// ─── Errors ─────────────────────────────────────────────────

var (
	// ErrRoadServiceUnavailable fails the request fast when the initial
	// availability probe does not pass.
	ErrRoadServiceUnavailable = errors.New("road routing service unavailable")

	// ErrInvalidRequest covers semantic problems the boundary validator
	// cannot catch.
	ErrInvalidRequest = errors.New("invalid plan request")
)

// ─── Constants ──────────────────────────────────────────────

const (
	// MaxRoutingAttempts excludes an employee from selection after this
	// many failed batches in the profiled-fleet phase.
	MaxRoutingAttempts = 5

	// FallbackExtraAttempts widens the cap in the default-fallback phase.
	FallbackExtraAttempts = 2

	// DefaultVehicleType and DefaultVehicleCapacity describe the
	// synthetic vehicle used after the profiled fleet is exhausted.
	DefaultVehicleType     = "default"
	DefaultVehicleCapacity = 5
)

// ─── Planner ────────────────────────────────────────────────

// GuardPredicate decides whether the guard/swap rule is active for a
// request. The default predicate treats the request's guard flag alone
// as sufficient; the night-shift window check can be layered on via
// config.
type GuardPredicate func(req *model.PlanRequest, trip model.TripType, ft model.FacilityType) bool

// GuardFlagOnly activates the guard rule whenever the request asks for it.
func GuardFlagOnly(req *model.PlanRequest, _ model.TripType, _ model.FacilityType) bool {
	return req.Guard
}

// GuardWithNightWindow additionally requires the shift time to fall in
// the profile's night-shift guard window for the direction.
func GuardWithNightWindow(req *model.PlanRequest, trip model.TripType, ft model.FacilityType) bool {
	if !req.Guard {
		return false
	}
	w, ok := req.Profile.GuardWindowFor(ft, trip)
	if !ok {
		return true
	}
	return shiftInWindow(req.ShiftTime, w)
}

// shiftInWindow checks an HHMM shift against an HHMM window, handling
// windows that wrap midnight ("2000"–"0600").
func shiftInWindow(shift string, w model.GuardWindow) bool {
	if len(shift) != 4 || len(w.Start) != 4 || len(w.End) != 4 {
		return true
	}
	if w.Start <= w.End {
		return shift >= w.Start && shift <= w.End
	}
	return shift >= w.Start || shift <= w.End
}

// Planner is the route generation orchestrator. It owns the two-phase
// main loop, the attempt and fleet ledgers, and response shaping.
type Planner struct {
	road      RoadClient
	runner    solver.Runner
	selector  *Selector
	deviation *DeviationChecker
	guard     *GuardSwapper
	polisher  *Polisher
	guardPred GuardPredicate
}

// NewPlanner wires the engine components around shared road and solver
// clients.
func NewPlanner(road RoadClient, runner solver.Runner, guardPred GuardPredicate) *Planner {
	if guardPred == nil {
		guardPred = GuardFlagOnly
	}
	return &Planner{
		road:      road,
		runner:    runner,
		selector:  NewSelector(road),
		deviation: NewDeviationChecker(road),
		guard:     NewGuardSwapper(road),
		polisher:  NewPolisher(road, runner),
		guardPred: guardPred,
	}
}

// fleetState tracks remaining vehicles of one type.
type fleetState struct {
	vehicleType string
	capacity    int
	remaining   int
}

// planState is the per-request mutable state. The orchestrator is its
// sole writer; nothing crosses request boundaries.
type planState struct {
	trip          model.TripType
	facility      model.Facility
	profile       *model.Profile
	zones         []model.Zone
	serviceTime   float64
	shiftTime     string
	reportingTime float64
	guardActive   bool
	pool          []model.Employee
	routed        map[string]bool
	attempts      map[string]int
	fleet         []*fleetState
	routes        []model.Route
	routeNumber   int
	cancelled     bool
}

// Plan generates a fleet assignment for the request. Failures within a
// single batch never abort the run; they consume attempts. Only an
// unavailable road service aborts, and cancellation unwinds into a
// partial response.
func (p *Planner) Plan(ctx context.Context, req *model.PlanRequest) (*model.PlanResponse, error) {
	if !p.road.IsAvailable(ctx) {
		return nil, ErrRoadServiceUnavailable
	}

	trip, err := model.ParseTripType(req.TripType)
	if err != nil {
		return nil, errors.Join(ErrInvalidRequest, err)
	}

	st := &planState{
		trip: trip,
		facility: model.Facility{
			Location: model.Location{Lat: req.Facility.GeoY, Lng: req.Facility.GeoX},
			Type:     req.Profile.FacilityType,
		},
		profile:       &req.Profile,
		serviceTime:   req.PickupTimePerEmployee,
		shiftTime:     req.ShiftTime,
		reportingTime: req.ReportingTime,
		guardActive:   p.guardPred(req, trip, req.Profile.FacilityType),
		routed:        make(map[string]bool),
		attempts:      make(map[string]int),
	}
	for _, in := range req.Employees {
		st.pool = append(st.pool, in.ToEmployee())
	}
	for _, z := range req.Zones {
		st.zones = append(st.zones, z.ToZone())
	}
	for _, f := range req.Profile.Fleet {
		if f.Count > 0 && f.Capacity > 0 {
			st.fleet = append(st.fleet, &fleetState{
				vehicleType: f.Type, capacity: f.Capacity, remaining: f.Count,
			})
		}
	}

	log.Printf("[plan] %d employees, %d fleet types, trip=%s guard=%v",
		len(st.pool), len(st.fleet), trip, st.guardActive)

	p.runPhase(ctx, st, false)
	if !st.cancelled {
		p.runPhase(ctx, st, true)
	}

	// Attempt ledger is per-request; it dies with the state here.
	resp := p.shapeResponse(req, st)
	log.Printf("[plan] done: %d routes, %d/%d routed",
		resp.TotalRoutes, resp.TotalRoutedEmployees, resp.TotalEmployees)
	return resp, nil
}

// ─── Phases ─────────────────────────────────────────────────

// runPhase executes the main loop. Phase 1 (fallback=false) consumes
// the profiled fleet; phase 2 routes the remainder with the synthetic
// default vehicle and a widened attempt cap.
func (p *Planner) runPhase(ctx context.Context, st *planState, fallback bool) {
	attemptCap := MaxRoutingAttempts
	if fallback {
		attemptCap += FallbackExtraAttempts
	}

	for {
		if err := ctx.Err(); err != nil {
			log.Printf("[plan] cancelled, returning partial result: %v", err)
			st.cancelled = true
			return
		}

		pool := p.selectablePool(st, attemptCap)
		if len(pool) == 0 {
			return
		}

		var vehicleCapacity int
		if fallback {
			vehicleCapacity = DefaultVehicleCapacity
		} else {
			vehicleCapacity = largestAvailableCapacity(st.fleet)
			if vehicleCapacity == 0 {
				return // fleet exhausted
			}
		}

		before := attemptTotal(st)
		if !p.planOneRoute(ctx, st, pool, vehicleCapacity, fallback, attemptCap) {
			// A failed iteration must move the attempt ledger; otherwise
			// the same batch would fail the same way forever.
			if attemptTotal(st) == before {
				return
			}
		}
	}
}

// attemptTotal sums the attempt ledger. Phase progress is measured by
// ledger movement: any increment means a retry can play out differently,
// even when nobody crossed the cap yet.
func attemptTotal(st *planState) int {
	total := 0
	for _, n := range st.attempts {
		total += n
	}
	return total
}

// selectablePool is the unrouted pool minus employees at the attempt cap.
func (p *Planner) selectablePool(st *planState, attemptCap int) []model.Employee {
	out := make([]model.Employee, 0, len(st.pool))
	for _, e := range st.pool {
		if st.routed[e.EmpCode] || st.attempts[e.EmpCode] >= attemptCap {
			continue
		}
		out = append(out, e)
	}
	return out
}

// planOneRoute runs Select → PreGate → Solve → PostGate → Guard →
// Polish → Commit for one vehicle. Returns true when a route was
// committed. Each failed transition increments attempts for the
// involved employees and logs the reason.
func (p *Planner) planOneRoute(
	ctx context.Context,
	st *planState,
	pool []model.Employee,
	vehicleCapacity int,
	fallback bool,
	attemptCap int,
) bool {
	// ── Select ──────────────────────────────────────────
	batch, rejectedSeed, err := p.selector.SelectBatch(ctx, pool, vehicleCapacity,
		st.trip, st.profile.MaxDuration, st.facility.Location)
	if err != nil {
		if ctx.Err() != nil {
			st.cancelled = true
			return false
		}
		log.Printf("[plan] selection failed: %v", err)
		if rejectedSeed != nil {
			p.chargeAttempts(st, []model.Employee{*rejectedSeed})
		}
		return false
	}
	if len(batch) == 0 {
		// Charge the rejected seed, not the pool head: the selector sorts
		// by facility distance, so the seed is generally a different
		// employee. With no seed at all there is nothing to charge and
		// the phase ends.
		if rejectedSeed != nil {
			p.chargeAttempts(st, []model.Employee{*rejectedSeed})
		}
		return false
	}
	selected := batch

	// ── PreGate: deviation with trim-from-tail retries ──
	batch, err = p.preGate(ctx, st, batch)
	if err != nil {
		if ctx.Err() != nil {
			st.cancelled = true
			return false
		}
		log.Printf("[plan] pre-gate failed: %v", err)
		p.chargeAttempts(st, selected)
		return false
	}
	if len(batch) == 0 {
		// Every trimmed employee was already charged inside preGate.
		log.Printf("[plan] pre-gate emptied the batch")
		return false
	}

	// ── Vehicle choice ──────────────────────────────────
	var vt *fleetState
	if fallback {
		vt = &fleetState{vehicleType: DefaultVehicleType, capacity: DefaultVehicleCapacity, remaining: 1}
	} else {
		vt = chooseVehicle(st.fleet, len(batch))
		if vt == nil {
			log.Printf("[plan] no vehicle available for batch of %d", len(batch))
			p.chargeAttempts(st, batch)
			return false
		}
	}
	if len(batch) > vt.capacity {
		for _, e := range batch[vt.capacity:] {
			st.attempts[e.EmpCode]++
		}
		batch = batch[:vt.capacity]
	}

	// ── Solve ───────────────────────────────────────────
	ordered, err := p.solveBatch(ctx, st, batch)
	if err != nil {
		if ctx.Err() != nil {
			st.cancelled = true
			return false
		}
		log.Printf("[plan] solve failed: %v", err)
		p.chargeAttempts(st, batch)
		return false
	}

	// ── PostGate ────────────────────────────────────────
	details, farthestM, ok := p.postGate(ctx, st, ordered)
	if !ok {
		p.chargeAttempts(st, ordered)
		return false
	}

	route := model.Route{
		UniqueKey:                uuid.NewString(),
		Employees:                nil, // filled at commit
		VehicleType:              vt.vehicleType,
		VehicleCapacity:          vt.capacity,
		TripType:                 st.trip,
		AfterFleetExhaustion:     fallback,
		FarthestEmployeeDistance: farthestM,
	}

	// ── Guard ───────────────────────────────────────────
	if st.guardActive {
		res, err := p.guard.Apply(ctx, ordered, st.trip, st.facility.Location, details)
		if err != nil {
			log.Printf("[plan] guard step failed: %v", err)
			p.chargeAttempts(st, ordered)
			return false
		}
		ordered, details = res.Employees, res.Details
		route.Swapped, route.GuardNeeded = res.Swapped, res.GuardNeeded

		if res.GuardNeeded {
			if vt.capacity == 1 {
				log.Printf("[plan] guard needed but capacity is 1, route infeasible")
				p.chargeAttempts(st, ordered)
				return false
			}
			if len(ordered) > vt.capacity-1 {
				// The guard takes a seat; the last employee yields it.
				dropped := ordered[len(ordered)-1]
				ordered = ordered[:len(ordered)-1]
				st.attempts[dropped.EmpCode]++
				log.Printf("[plan] guard takes a seat, dropped %s", dropped.EmpCode)

				details, farthestM, ok = p.postGate(ctx, st, ordered)
				if !ok {
					p.chargeAttempts(st, ordered)
					return false
				}
				route.FarthestEmployeeDistance = farthestM
			}
		}
	}

	// ── Polish ──────────────────────────────────────────
	if len(ordered) > 1 {
		pinned := ""
		if route.Swapped {
			pinned = ordered[criticalIndex(st.trip, len(ordered))].EmpCode
		}
		ordered, details, _ = p.polisher.Polish(ctx, p.deviation, PolishInput{
			Employees:     ordered,
			Details:       details,
			Trip:          st.trip,
			Facility:      st.facility.Location,
			MaxDuration:   st.profile.MaxDuration,
			ServiceTime:   st.serviceTime,
			PinnedEmpCode: pinned,
			Profile:       st.profile,
			FacilityType:  st.facility.Type,
		})
	}

	// ── Commit ──────────────────────────────────────────
	st.routeNumber++
	route.RouteNumber = st.routeNumber
	route.Details = routeDetails(details)
	route.DurationExceeded = details.TotalDuration > st.profile.MaxDuration
	route.Zone = p.zoneFor(st, ordered)
	for i, e := range ordered {
		route.Employees = append(route.Employees, model.RouteEmployee{Employee: e, Order: i + 1})
		st.routed[e.EmpCode] = true
	}
	for _, e := range ordered {
		if e.SpecialNeeds() {
			route.IsSpecialNeedsRoute = true
			break
		}
	}
	if !fallback {
		vt.remaining--
	}

	ComputeTimings(&route, st.shiftTime, st.reportingTime, st.serviceTime)
	st.routes = append(st.routes, route)
	log.Printf("[plan] ✓ route %d committed: %d employees, vehicle %s, %.1fkm",
		route.RouteNumber, len(route.Employees), route.VehicleType,
		route.Details.TotalDistance/1000.0)
	return true
}

// preGate applies the deviation check to the heuristic batch before the
// solver, trimming the tail one employee at a time until it passes or
// the batch empties. Each trimmed employee is charged exactly one
// attempt; kept employees are not charged here.
func (p *Planner) preGate(ctx context.Context, st *planState, batch []model.Employee) ([]model.Employee, error) {
	for len(batch) > 0 {
		route, err := p.road.Route(ctx, tripCoords(st.trip, batch, st.facility.Location), false)
		if err != nil {
			return nil, err
		}
		ok, _, err := p.deviation.Check(ctx, route.TotalDistance, batch, st.facility, st.profile)
		if err != nil {
			return nil, err
		}
		if ok {
			return batch, nil
		}
		trimmed := batch[len(batch)-1]
		st.attempts[trimmed.EmpCode]++
		batch = batch[:len(batch)-1]
		log.Printf("[plan] pre-gate trimmed %s (batch now %d)", trimmed.EmpCode, len(batch))
	}
	return batch, nil
}

// solveBatch sequences a batch with a single-vehicle solver run and
// returns employees in visit order. The order must cover the full batch.
func (p *Planner) solveBatch(ctx context.Context, st *planState, batch []model.Employee) ([]model.Employee, error) {
	matrix, err := BuildMatrix(ctx, p.road, st.facility.Location, batch)
	if err != nil {
		return nil, err
	}

	problem := &solver.Problem{
		DistanceMatrix:         matrix.Distances,
		DurationMatrix:         matrix.Durations,
		NumVehicles:            1,
		VehicleCapacities:      []int{len(batch)},
		Demands:                demandsFor(len(batch)),
		DepotIndex:             0,
		MaxRouteDuration:       st.profile.MaxDuration,
		ServiceTimes:           serviceTimesFor(len(batch), st.serviceTime),
		AllowDroppingVisits:    st.profile.AllowDroppingVisits,
		DropVisitPenalty:       st.profile.DropPenalty,
		FacilityCoords:         []float64{st.facility.Location.Lng, st.facility.Location.Lat},
		TripType:               string(st.trip),
		DirectionPenaltyWeight: st.profile.DirectionPenaltyWeight,
	}

	sol, err := p.runner.Solve(ctx, problem)
	if err != nil {
		return nil, err
	}
	if len(sol.Routes) != 1 {
		return nil, errors.Join(solver.ErrSolverFailed,
			errors.New("expected exactly one vehicle route"))
	}
	ordered, ok := employeesFromNodes(matrix, sol.Routes[0].NodeIndices)
	if !ok || len(ordered) != len(batch) {
		return nil, errors.Join(solver.ErrSolverFailed,
			errors.New("solution does not cover all locations"))
	}
	return ordered, nil
}

// postGate recomputes the full road route for an ordered batch and
// applies the deviation and duration gates.
func (p *Planner) postGate(ctx context.Context, st *planState, ordered []model.Employee) (*osrm.RouteResult, float64, bool) {
	details, err := p.road.Route(ctx, tripCoords(st.trip, ordered, st.facility.Location), true)
	if err != nil {
		log.Printf("[plan] post-gate road route failed: %v", err)
		return nil, 0, false
	}
	ok, farthestM, err := p.deviation.Check(ctx, details.TotalDistance, ordered, st.facility, st.profile)
	if err != nil || !ok {
		log.Printf("[plan] post-gate deviation failed (ok=%v err=%v)", ok, err)
		return nil, 0, false
	}
	if details.TotalDuration > st.profile.MaxDuration {
		log.Printf("[plan] post-gate duration %.0fs > %.0fs",
			details.TotalDuration, st.profile.MaxDuration)
		return nil, 0, false
	}
	return details, farthestM, true
}

// chargeAttempts increments the attempt ledger for every employee in
// the failed batch.
func (p *Planner) chargeAttempts(st *planState, emps []model.Employee) {
	for _, e := range emps {
		st.attempts[e.EmpCode]++
	}
}

// zoneFor tags a route with the zone containing its first employee.
func (p *Planner) zoneFor(st *planState, ordered []model.Employee) string {
	if len(st.zones) == 0 || len(ordered) == 0 {
		return ""
	}
	for _, z := range st.zones {
		if geo.PointInPolygon(ordered[0].Location, z.Polygon) {
			return z.Name
		}
	}
	return ""
}

// ─── Fleet helpers ──────────────────────────────────────────

// largestAvailableCapacity is the biggest capacity with vehicles left.
func largestAvailableCapacity(fleet []*fleetState) int {
	best := 0
	for _, f := range fleet {
		if f.remaining > 0 && f.capacity > best {
			best = f.capacity
		}
	}
	return best
}

// chooseVehicle picks the smallest available type whose capacity fits
// the batch; when none fits, the largest available type is used.
func chooseVehicle(fleet []*fleetState, batchSize int) *fleetState {
	available := make([]*fleetState, 0, len(fleet))
	for _, f := range fleet {
		if f.remaining > 0 {
			available = append(available, f)
		}
	}
	if len(available) == 0 {
		return nil
	}
	sort.Slice(available, func(i, j int) bool {
		return available[i].capacity < available[j].capacity
	})
	for _, f := range available {
		if f.capacity >= batchSize {
			return f
		}
	}
	return available[len(available)-1]
}

// ─── Response shaping ───────────────────────────────────────

func routeDetails(res *osrm.RouteResult) model.RouteDetails {
	details := model.RouteDetails{
		TotalDistance:   res.TotalDistance,
		TotalDuration:   res.TotalDuration,
		Legs:            res.Legs,
		EncodedPolyline: res.Geometry,
	}
	if res.Geometry != "" {
		if pts, err := geo.DecodePolyline(res.Geometry); err == nil {
			details.Geometry = pts
		}
	}
	return details
}

func (p *Planner) shapeResponse(req *model.PlanRequest, st *planState) *model.PlanResponse {
	resp := &model.PlanResponse{
		UUID:           uuid.NewString(),
		Date:           req.Date,
		Shift:          req.ShiftTime,
		TripType:       st.trip.Short(),
		TotalEmployees: len(st.pool),
		Routes:         make([]model.RouteOutput, 0, len(st.routes)),
	}

	totalSeats := 0
	for _, r := range st.routes {
		out := model.RouteOutput{
			RouteNumber:            r.RouteNumber,
			Zone:                   r.Zone,
			VehicleCapacity:        r.VehicleCapacity,
			VehicleType:            r.VehicleType,
			Guard:                  r.GuardNeeded,
			Swapped:                r.Swapped,
			DurationExceeded:       r.DurationExceeded,
			UniqueKey:              r.UniqueKey,
			IsSpecialNeedsRoute:    r.IsSpecialNeedsRoute,
			AfterFleetExhaustion:   r.AfterFleetExhaustion,
			DistanceKm:             r.Details.TotalDistance / 1000.0,
			DurationSeconds:        r.Details.TotalDuration,
			Occupancy:              len(r.Employees),
			FarthestEmployeeDistKm: r.FarthestEmployeeDistance / 1000.0,
			EncodedPolyline:        r.Details.EncodedPolyline,
			FacilityTime:           r.FacilityTime,
		}
		for _, e := range r.Employees {
			out.IsMedicalRoute = out.IsMedicalRoute || e.IsMedical
			out.IsPWDRoute = out.IsPWDRoute || e.IsPWD
			out.IsNMTRoute = out.IsNMTRoute || e.IsNMT
			out.IsOOBRoute = out.IsOOBRoute || e.IsOOB
			out.Employees = append(out.Employees, model.RouteEmployeeOutput{
				EmpCode:   e.EmpCode,
				Gender:    string(e.Gender),
				IsMedical: e.IsMedical,
				IsPWD:     e.IsPWD,
				IsNMT:     e.IsNMT,
				IsOOB:     e.IsOOB,
				ETA:       e.ETA,
				Order:     e.Order,
				GeoX:      e.Location.Lng,
				GeoY:      e.Location.Lat,
			})
		}
		resp.Routes = append(resp.Routes, out)
		resp.TotalRoutedEmployees += len(r.Employees)
		resp.OverallRouteDetails.TotalDistanceKm += r.Details.TotalDistance / 1000.0
		resp.OverallRouteDetails.TotalDurationSeconds += r.Details.TotalDuration
		totalSeats += r.VehicleCapacity
		if r.Swapped {
			resp.TotalSwappedRoutes++
		}
		if r.GuardNeeded {
			resp.TotalGuardedRoutes++
		}
	}
	resp.TotalRoutes = len(st.routes)
	if resp.TotalRoutes > 0 {
		resp.AverageOccupancy = float64(resp.TotalRoutedEmployees) / float64(resp.TotalRoutes)
	}

	for _, e := range st.pool {
		if st.routed[e.EmpCode] {
			continue
		}
		resp.UnroutedEmployees = append(resp.UnroutedEmployees, model.UnroutedEmployeeOutput{
			EmpCode:   e.EmpCode,
			GeoX:      e.Location.Lng,
			GeoY:      e.Location.Lat,
			Gender:    string(e.Gender),
			IsMedical: e.IsMedical,
			IsPWD:     e.IsPWD,
			Location:  e.Location,
		})
	}
	if resp.UnroutedEmployees == nil {
		resp.UnroutedEmployees = []model.UnroutedEmployeeOutput{}
	}
	return resp
}
