package service

import (
	"context"
	"errors"
	"testing"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

var testTiers = []model.RuleTier{
	{MinDistKm: 0, MaxDistKm: 5, MaxTotalOneWayKm: 8},
	{MinDistKm: 5, MaxDistKm: 10, MaxTotalOneWayKm: 15},
	{MinDistKm: 10, MaxDistKm: 20, MaxTotalOneWayKm: 28},
}

func TestApplicableTier(t *testing.T) {
	tests := []struct {
		name       string
		farthestKm float64
		wantMax    float64
	}{
		{"inside first tier", 3.0, 8},
		{"inside middle tier", 7.5, 15},
		{"exact boundary", 5.0, 8}, // first containing tier wins
		{"epsilon above boundary", 10.0005, 15},
		{"above highest tier", 35.0, 28}, // falls back to the last rule
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applicableTier(testTiers, tt.farthestKm)
			if got.MaxTotalOneWayKm != tt.wantMax {
				t.Errorf("tier for %.4f km = %+v, want MaxTotalOneWayKm %.0f",
					tt.farthestKm, got, tt.wantMax)
			}
		})
	}
}

func TestApplicableTierGapFallback(t *testing.T) {
	// A hole between 5 and 9; 6.0 is nearest to the first tier's upper
	// edge, 8.5 to the second tier's lower edge.
	tiers := []model.RuleTier{
		{MinDistKm: 0, MaxDistKm: 5, MaxTotalOneWayKm: 8},
		{MinDistKm: 9, MaxDistKm: 20, MaxTotalOneWayKm: 28},
	}
	if got := applicableTier(tiers, 6.0); got.MaxTotalOneWayKm != 8 {
		t.Errorf("6.0 km matched %+v, want the 0–5 tier", got)
	}
	if got := applicableTier(tiers, 8.5); got.MaxTotalOneWayKm != 28 {
		t.Errorf("8.5 km matched %+v, want the 9–20 tier", got)
	}
}

func TestCheckLenientWithoutRules(t *testing.T) {
	d := NewDeviationChecker(&fakeRoad{})
	profile := testProfile(10000)

	ok, _, err := d.Check(context.Background(), 1e9, lineEmployees(2),
		model.Facility{Location: testFacility, Type: model.FacilityCDC}, &profile)
	if err != nil || !ok {
		t.Errorf("Check = (%v, %v), want lenient pass with no rules", ok, err)
	}
}

func TestCheckAgainstTier(t *testing.T) {
	d := NewDeviationChecker(&fakeRoad{})
	profile := testProfile(10000)
	profile.RouteDeviationRules = map[string][]model.RuleTier{
		string(model.FacilityCDC): testTiers,
	}
	facility := model.Facility{Location: testFacility, Type: model.FacilityCDC}
	emps := lineEmployees(3) // farthest ~3.8 km → first tier, 8 km bound

	ok, farthestM, err := d.Check(context.Background(), 6000, emps, facility, &profile)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !ok {
		t.Error("6 km total should pass the 8 km bound")
	}
	if farthestM < 3000 || farthestM > 4500 {
		t.Errorf("farthest = %.0f m, want ~3800", farthestM)
	}

	ok, _, err = d.Check(context.Background(), 9000, emps, facility, &profile)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if ok {
		t.Error("9 km total should fail the 8 km bound")
	}
}

func TestMaxFacilityDistance(t *testing.T) {
	d := NewDeviationChecker(&fakeRoad{})
	emps := lineEmployees(3)

	got, err := d.MaxFacilityDistance(context.Background(), testFacility, emps)
	if err != nil {
		t.Fatalf("MaxFacilityDistance: %v", err)
	}
	// pool[0] at ~3.78 km is the farthest.
	if got < 3500 || got > 4100 {
		t.Errorf("max distance = %.0f m, want ~3780", got)
	}

	if got, err := d.MaxFacilityDistance(context.Background(), testFacility, nil); err != nil || got != 0 {
		t.Errorf("empty batch = (%v, %v), want (0, nil)", got, err)
	}
}

func TestMaxFacilityDistanceProbeError(t *testing.T) {
	d := NewDeviationChecker(&fakeRoad{routeErr: errors.New("probe down")})
	if _, err := d.MaxFacilityDistance(context.Background(), testFacility, lineEmployees(2)); err == nil {
		t.Error("expected probe error to propagate")
	}
}
