package service

import (
	"context"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

// Recalculator refreshes road details and timings for an already
// ordered route, e.g. after a manual stop edit. It shares the road
// client and timing rules with the planner but never re-sequences.
type Recalculator struct {
	road RoadClient
}

// NewRecalculator creates a recalculator backed by the road client.
func NewRecalculator(road RoadClient) *Recalculator {
	return &Recalculator{road: road}
}

// Recalculate computes a fresh road route over the given stop order and
// re-derives ETAs and the facility time.
func (r *Recalculator) Recalculate(ctx context.Context, req *model.RecalculateRequest) (*model.RecalculateResponse, error) {
	trip, err := model.ParseTripType(req.TripType)
	if err != nil {
		return nil, err
	}

	emps := make([]model.Employee, 0, len(req.Employees))
	for _, in := range req.Employees {
		emps = append(emps, in.ToEmployee())
	}
	facility := model.Location{Lat: req.Facility.GeoY, Lng: req.Facility.GeoX}

	details, err := r.road.Route(ctx, tripCoords(trip, emps, facility), true)
	if err != nil {
		return nil, err
	}

	route := model.Route{
		TripType: trip,
		Details:  routeDetails(details),
	}
	for i, e := range emps {
		route.Employees = append(route.Employees, model.RouteEmployee{Employee: e, Order: i + 1})
	}
	ComputeTimings(&route, req.ShiftTime, req.ReportingTime, req.PickupTimePerEmployee)

	resp := &model.RecalculateResponse{
		DistanceKm:      details.TotalDistance / 1000.0,
		DurationSeconds: details.TotalDuration,
		EncodedPolyline: details.Geometry,
		FacilityTime:    route.FacilityTime,
	}
	for _, e := range route.Employees {
		resp.Employees = append(resp.Employees, model.RouteEmployeeOutput{
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
	return resp, nil
}
