package service

import (
	"context"
	"log"
	"math"
	"sync"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// tierEpsilon widens tier boundaries when matching the farthest
	// employee distance against a rule.
	tierEpsilon = 0.001

	// probeFanOut bounds concurrent facility→employee route probes.
	probeFanOut = 16
)

// ─── DeviationChecker ───────────────────────────────────────

// DeviationChecker verifies that a route's total road distance stays
// within the tier bound selected by its farthest employee.
//
// The check runs twice per route: as a pre-gate on the heuristic batch
// before the solver, and as a post-gate after every solver/polish step.
type DeviationChecker struct {
	road RoadClient
}

// NewDeviationChecker creates a checker backed by the road client.
func NewDeviationChecker(road RoadClient) *DeviationChecker {
	return &DeviationChecker{road: road}
}

// MaxFacilityDistance returns the maximum road distance in meters from
// the facility to any of the given employees. Probes are issued
// concurrently with bounded fan-out and gathered in input order.
func (d *DeviationChecker) MaxFacilityDistance(
	ctx context.Context,
	facility model.Location,
	emps []model.Employee,
) (float64, error) {
	if len(emps) == 0 {
		return 0, nil
	}

	distances := make([]float64, len(emps))
	errs := make([]error, len(emps))

	var wg sync.WaitGroup
	guard := make(chan struct{}, probeFanOut)
	for i := range emps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			guard <- struct{}{}
			defer func() { <-guard }()

			res, err := d.road.Route(ctx, []model.Location{facility, emps[i].Location}, false)
			if err != nil {
				errs[i] = err
				return
			}
			distances[i] = res.TotalDistance
		}(i)
	}
	wg.Wait()

	// Results are processed in input order; completion order of the
	// probes does not matter.
	maxDist := 0.0
	for i := range emps {
		if errs[i] != nil {
			return 0, errs[i]
		}
		if distances[i] > maxDist {
			maxDist = distances[i]
		}
	}
	return maxDist, nil
}

// applicableTier selects the rule tier for the given farthest-employee
// distance (km). When no tier contains the value, a value above the
// highest maxDistKm selects the last rule; otherwise the nearest rule
// by gap distance wins. The fallback is kept for compatibility with the
// upstream rule data.
func applicableTier(rules []model.RuleTier, farthestKm float64) model.RuleTier {
	for _, r := range rules {
		if farthestKm >= r.MinDistKm-tierEpsilon && farthestKm <= r.MaxDistKm+tierEpsilon {
			return r
		}
	}

	last := rules[len(rules)-1]
	highest := last.MaxDistKm
	for _, r := range rules {
		if r.MaxDistKm > highest {
			highest = r.MaxDistKm
		}
	}
	if farthestKm > highest {
		return last
	}

	best := rules[0]
	bestGap := math.MaxFloat64
	for _, r := range rules {
		gap := math.Min(
			math.Abs(farthestKm-r.MinDistKm),
			math.Abs(farthestKm-r.MaxDistKm),
		)
		if gap < bestGap {
			bestGap = gap
			best = r
		}
	}
	return best
}

// Check reports whether a route with the given total road distance
// (meters) over the given employees passes the deviation rules. It also
// returns the farthest facility→employee road distance in meters for
// response shaping.
//
// With no rules configured for the facility type the check is lenient
// and passes.
func (d *DeviationChecker) Check(
	ctx context.Context,
	totalDistanceM float64,
	emps []model.Employee,
	facility model.Facility,
	profile *model.Profile,
) (bool, float64, error) {
	rules := profile.RulesFor(facility.Type)
	if len(rules) == 0 {
		return true, 0, nil
	}

	farthestM, err := d.MaxFacilityDistance(ctx, facility.Location, emps)
	if err != nil {
		return false, 0, err
	}
	farthestKm := farthestM / 1000.0

	rule := applicableTier(rules, farthestKm)
	totalKm := totalDistanceM / 1000.0
	ok := totalKm <= rule.MaxTotalOneWayKm
	if !ok {
		log.Printf("[deviation] total %.2fkm exceeds tier [%g,%g]→%gkm (farthest %.2fkm)",
			totalKm, rule.MinDistKm, rule.MaxDistKm, rule.MaxTotalOneWayKm, farthestKm)
	}
	return ok, farthestM, nil
}
