package service

import (
	"context"
	"log"
	"sort"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/geo"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// MaxNextStopDistanceKm caps the haversine hop between consecutive
	// candidate stops during batch growth.
	MaxNextStopDistanceKm = 2.25

	// ProgressWeight and DistanceWeight balance the candidate score:
	// movement in the trip direction versus proximity to the tail.
	ProgressWeight = 0.6
	DistanceWeight = 0.4

	// SpecialNeedsCap is the batch size ceiling when the seed employee
	// is medical or PWD.
	SpecialNeedsCap = 2
)

// ─── Selector ───────────────────────────────────────────────

// Selector greedily composes the next candidate batch for a vehicle.
//
// Algorithm:
//  1. SORT the pool by haversine distance to the facility — farthest
//     first for pickup, closest first for dropoff.
//  2. SEED the batch with the top candidate, verifying its singleton
//     road route fits the duration budget.
//  3. GROW by scoring remaining candidates on progress + proximity and
//     verifying each addition against a tentative full road route.
type Selector struct {
	road RoadClient
}

// NewSelector creates a batch selector backed by the road client.
func NewSelector(road RoadClient) *Selector {
	return &Selector{road: road}
}

type scoredCandidate struct {
	emp       model.Employee
	score     float64
	proximity float64 // km to current tail
}

// SelectBatch returns the next batch for a vehicle of the given
// capacity. The returned employees are in pickup/dropoff visit order as
// grown; exact sequencing is the solver's job.
//
// When the seed fails its gate the batch is nil and the rejected seed
// is returned so the caller can charge that employee's attempt ledger:
// the seed is the sorted head, generally not the pool's first element.
func (s *Selector) SelectBatch(
	ctx context.Context,
	pool []model.Employee,
	capacity int,
	trip model.TripType,
	maxDuration float64,
	facility model.Location,
) ([]model.Employee, *model.Employee, error) {
	// ── Step 1: filter + sort ───────────────────────────
	candidates := make([]model.Employee, 0, len(pool))
	for _, e := range pool {
		if e.Location.Valid() {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		di := geo.HaversineKm(candidates[i].Location, facility)
		dj := geo.HaversineKm(candidates[j].Location, facility)
		if trip == model.TripDropoff {
			return di < dj // closest first
		}
		return di > dj // farthest first
	})

	// ── Step 2: seed ────────────────────────────────────
	seed := candidates[0]
	route, err := s.road.Route(ctx, tripCoords(trip, []model.Employee{seed}, facility), false)
	if err != nil {
		log.Printf("[select] seed %s road route failed: %v", seed.EmpCode, err)
		return nil, &seed, err
	}
	if route.TotalDuration > maxDuration {
		log.Printf("[select] seed %s exceeds duration budget (%.0fs > %.0fs)",
			seed.EmpCode, route.TotalDuration, maxDuration)
		return nil, &seed, nil
	}

	batch := []model.Employee{seed}
	remaining := candidates[1:]

	// Special-needs seeding is asymmetric: a special seed caps the batch
	// at SpecialNeedsCap and admits only special joiners; a regular seed
	// admits no special joiners.
	limit := capacity
	specialSeed := seed.SpecialNeeds()
	if specialSeed && SpecialNeedsCap < limit {
		limit = SpecialNeedsCap
	}

	// ── Step 3: grow ────────────────────────────────────
	for len(batch) < limit && len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		tail := batch[len(batch)-1]
		tailToFacility := geo.HaversineKm(tail.Location, facility)

		scored := make([]scoredCandidate, 0, len(remaining))
		for _, cand := range remaining {
			if specialSeed != cand.SpecialNeeds() {
				continue
			}
			proximity := geo.HaversineKm(tail.Location, cand.Location)
			if proximity > MaxNextStopDistanceKm {
				continue
			}

			// Progress is the change in distance-to-facility in the
			// direction consistent with the trip: pickup batches walk
			// toward the facility, dropoff batches walk away from it.
			candToFacility := geo.HaversineKm(cand.Location, facility)
			progress := tailToFacility - candToFacility
			if trip == model.TripDropoff {
				progress = -progress
			}

			score := ProgressWeight*progress +
				DistanceWeight*(1.0-proximity/MaxNextStopDistanceKm)
			scored = append(scored, scoredCandidate{emp: cand, score: score, proximity: proximity})
		}
		if len(scored) == 0 {
			break
		}

		sort.SliceStable(scored, func(i, j int) bool {
			if scored[i].score != scored[j].score {
				return scored[i].score > scored[j].score
			}
			return scored[i].proximity < scored[j].proximity
		})

		// Verify the top scored candidate against a tentative full road
		// route; on failure discard it and retry with the next.
		added := false
		for _, sc := range scored {
			tentative := append(append([]model.Employee{}, batch...), sc.emp)
			route, err := s.road.Route(ctx, tripCoords(trip, tentative, facility), false)
			if err != nil {
				log.Printf("[select] tentative route with %s failed: %v", sc.emp.EmpCode, err)
				remaining = removeEmployee(remaining, sc.emp.EmpCode)
				continue
			}
			if route.TotalDuration > maxDuration {
				remaining = removeEmployee(remaining, sc.emp.EmpCode)
				continue
			}
			batch = tentative
			remaining = removeEmployee(remaining, sc.emp.EmpCode)
			added = true
			break
		}
		if !added {
			break
		}
	}

	log.Printf("[select] batch of %d (capacity %d, trip %s, seed %s)",
		len(batch), capacity, trip, seed.EmpCode)
	return batch, nil, nil
}

// removeEmployee returns the slice without the employee with the given
// code, preserving order.
func removeEmployee(emps []model.Employee, empCode string) []model.Employee {
	out := make([]model.Employee, 0, len(emps))
	for _, e := range emps {
		if e.EmpCode != empCode {
			out = append(out, e)
		}
	}
	return out
}
