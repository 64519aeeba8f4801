package service

import (
	"context"
	"errors"
	"testing"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

func applyGuard(t *testing.T, road *fakeRoad, emps []model.Employee, trip model.TripType) *SwapResult {
	t.Helper()
	g := NewGuardSwapper(road)
	details, err := road.Route(context.Background(), tripCoords(trip, emps, testFacility), true)
	if err != nil {
		t.Fatalf("route setup: %v", err)
	}
	res, err := g.Apply(context.Background(), emps, trip, testFacility, details)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return res
}

func TestGuardMaleCriticalSeatNoOp(t *testing.T) {
	emps := []model.Employee{
		emp("M001", 12.9400, 77.6000, model.GenderMale),
		emp("F001", 12.9300, 77.6000, model.GenderFemale),
	}
	res := applyGuard(t, &fakeRoad{}, emps, model.TripPickup)

	if res.Swapped || res.GuardNeeded {
		t.Errorf("male critical seat changed the route: %+v", res)
	}
	if res.Employees[0].EmpCode != "M001" {
		t.Errorf("order changed: %s first", res.Employees[0].EmpCode)
	}
}

func TestGuardLoneFemale(t *testing.T) {
	emps := []model.Employee{emp("F001", 12.9400, 77.6000, model.GenderFemale)}
	res := applyGuard(t, &fakeRoad{}, emps, model.TripPickup)

	if !res.GuardNeeded || res.Swapped {
		t.Errorf("lone female: got %+v, want GuardNeeded", res)
	}
}

func TestGuardSwapsNearbyMale(t *testing.T) {
	// Male ~1.1 km from the female, inside the 1.5 km swap radius.
	emps := []model.Employee{
		emp("F001", 12.9400, 77.6000, model.GenderFemale),
		emp("M001", 12.9300, 77.6000, model.GenderMale),
	}
	res := applyGuard(t, &fakeRoad{}, emps, model.TripPickup)

	if !res.Swapped || res.GuardNeeded {
		t.Fatalf("got %+v, want a swap", res)
	}
	if res.Employees[0].EmpCode != "M001" {
		t.Errorf("critical seat = %s, want M001", res.Employees[0].EmpCode)
	}
	if res.Details == nil || len(res.Details.Legs) != 2 {
		t.Errorf("details not recomputed: %+v", res.Details)
	}
}

func TestGuardSwapDropoffCriticalSeatIsLast(t *testing.T) {
	emps := []model.Employee{
		emp("M001", 12.9300, 77.6000, model.GenderMale),
		emp("F001", 12.9400, 77.6000, model.GenderFemale),
	}
	res := applyGuard(t, &fakeRoad{}, emps, model.TripDropoff)

	if !res.Swapped {
		t.Fatalf("got %+v, want a swap", res)
	}
	last := res.Employees[len(res.Employees)-1]
	if last.EmpCode != "M001" {
		t.Errorf("last stop = %s, want M001", last.EmpCode)
	}
}

func TestGuardNoMaleInRange(t *testing.T) {
	// Male ~4.4 km away, outside the swap radius.
	emps := []model.Employee{
		emp("F001", 12.9800, 77.6000, model.GenderFemale),
		emp("M001", 12.9400, 77.6000, model.GenderMale),
	}
	res := applyGuard(t, &fakeRoad{}, emps, model.TripPickup)

	if res.Swapped || !res.GuardNeeded {
		t.Errorf("got %+v, want GuardNeeded without swap", res)
	}
	if res.Employees[0].EmpCode != "F001" {
		t.Error("order must stay unchanged when no swap happens")
	}
}

func TestGuardAllFemale(t *testing.T) {
	emps := []model.Employee{
		emp("F001", 12.9400, 77.6000, model.GenderFemale),
		emp("F002", 12.9300, 77.6000, model.GenderFemale),
	}
	res := applyGuard(t, &fakeRoad{}, emps, model.TripPickup)

	if res.Swapped || !res.GuardNeeded {
		t.Errorf("got %+v, want GuardNeeded for all-female route", res)
	}
}

func TestGuardTableFailureFallsBackToGuard(t *testing.T) {
	emps := []model.Employee{
		emp("F001", 12.9400, 77.6000, model.GenderFemale),
		emp("M001", 12.9300, 77.6000, model.GenderMale),
	}

	road := &fakeRoad{}
	g := NewGuardSwapper(road)
	details, err := road.Route(context.Background(), tripCoords(model.TripPickup, emps, testFacility), true)
	if err != nil {
		t.Fatalf("route setup: %v", err)
	}

	road.tableErr = errors.New("table down")
	res, err := g.Apply(context.Background(), emps, model.TripPickup, testFacility, details)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Swapped || !res.GuardNeeded {
		t.Errorf("got %+v, want guard fallback on table failure", res)
	}
	if res.Details != details {
		t.Error("details must be the originals on fallback")
	}
}
