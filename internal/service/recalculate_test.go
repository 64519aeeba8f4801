package service

import (
	"context"
	"errors"
	"testing"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

func TestRecalculateKeepsStopOrder(t *testing.T) {
	r := NewRecalculator(&fakeRoad{})
	emps := lineEmployees(3)

	req := &model.RecalculateRequest{
		Facility:              model.FacilityInput{GeoX: testFacility.Lng, GeoY: testFacility.Lat},
		ShiftTime:             "0900",
		TripType:              "P",
		PickupTimePerEmployee: 120,
		ReportingTime:         900,
	}
	for _, e := range emps {
		req.Employees = append(req.Employees, model.EmployeeInput{
			EmpCode: e.EmpCode,
			GeoX:    e.Location.Lng,
			GeoY:    e.Location.Lat,
			Gender:  string(e.Gender),
		})
	}

	resp, err := r.Recalculate(context.Background(), req)
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	if len(resp.Employees) != 3 {
		t.Fatalf("employees = %d, want 3", len(resp.Employees))
	}
	for i, e := range resp.Employees {
		// No re-sequencing: output keeps the request order.
		if e.EmpCode != emps[i].EmpCode || e.Order != i+1 {
			t.Errorf("stop %d = %s/%d, want %s/%d", i, e.EmpCode, e.Order, emps[i].EmpCode, i+1)
		}
		if e.ETA == "" || e.ETA == TimeErrorSentinel {
			t.Errorf("stop %d ETA = %q", i, e.ETA)
		}
	}
	if resp.DistanceKm <= 0 || resp.DurationSeconds <= 0 {
		t.Errorf("totals = %.2f km / %.0f s, want > 0", resp.DistanceKm, resp.DurationSeconds)
	}
	if resp.EncodedPolyline == "" {
		t.Error("missing polyline")
	}
	if resp.FacilityTime != "08:45 AM" {
		t.Errorf("facility time = %q, want 08:45 AM", resp.FacilityTime)
	}
}

func TestRecalculateRoadFailure(t *testing.T) {
	r := NewRecalculator(&fakeRoad{routeErr: errors.New("down")})
	req := &model.RecalculateRequest{
		Employees: []model.EmployeeInput{{EmpCode: "A001", GeoX: 77.6, GeoY: 12.94, Gender: "M"}},
		Facility:  model.FacilityInput{GeoX: testFacility.Lng, GeoY: testFacility.Lat},
		ShiftTime: "0900",
		TripType:  "P",
	}
	if _, err := r.Recalculate(context.Background(), req); err == nil {
		t.Error("expected road failure to propagate")
	}
}

func TestRecalculateInvalidTripType(t *testing.T) {
	r := NewRecalculator(&fakeRoad{})
	req := &model.RecalculateRequest{TripType: "Q"}
	if _, err := r.Recalculate(context.Background(), req); err == nil {
		t.Error("expected trip type error")
	}
}
