package model

import (
	"fmt"
	"strings"
)

// ─── Request DTOs ───────────────────────────────────────────

// EmployeeInput is one employee in the plan request body. geoX is
// longitude and geoY is latitude, matching the upstream transport API.
type EmployeeInput struct {
	EmpCode   string  `json:"empCode" validate:"required"`
	GeoX      float64 `json:"geoX" validate:"required"`
	GeoY      float64 `json:"geoY" validate:"required"`
	Gender    string  `json:"gender" validate:"required,oneof=M F"`
	IsMedical bool    `json:"isMedical"`
	IsPWD     bool    `json:"isPWD"`
	IsNMT     bool    `json:"isNMT"`
	IsOOB     bool    `json:"isOOB"`
}

// FacilityInput is the facility point in the plan request body.
type FacilityInput struct {
	GeoX float64 `json:"geoX" validate:"required"`
	GeoY float64 `json:"geoY" validate:"required"`
}

// ZoneInput is a named polygon supplied with the request. Ring points
// are [lat, lng] pairs.
type ZoneInput struct {
	Name    string       `json:"name"`
	Polygon [][2]float64 `json:"polygon"`
}

// PlanRequest is the body of POST /api/v1/routes/plan.
type PlanRequest struct {
	Employees             []EmployeeInput `json:"employees" validate:"required,min=1,dive"`
	Facility              FacilityInput   `json:"facility" validate:"required"`
	ShiftTime             string          `json:"shiftTime" validate:"required,len=4,numeric"`
	Date                  string          `json:"date" validate:"required"`
	Profile               Profile         `json:"profile" validate:"required"`
	PickupTimePerEmployee float64         `json:"pickupTimePerEmployee" validate:"required,gt=0"`
	ReportingTime         float64         `json:"reportingTime" validate:"gte=0"`
	TripType              string          `json:"tripType" validate:"required,oneof=P D PICKUP DROPOFF"`
	Guard                 bool            `json:"guard"`
	Zones                 []ZoneInput     `json:"zones"`
	SaveToDatabase        bool            `json:"saveToDatabase"`
}

// ParseTripType maps the accepted wire forms onto a TripType.
func ParseTripType(s string) (TripType, error) {
	switch strings.ToUpper(s) {
	case "P", "PICKUP":
		return TripPickup, nil
	case "D", "DROPOFF":
		return TripDropoff, nil
	}
	return "", fmt.Errorf("invalid trip type %q", s)
}

// ToEmployee converts the wire form to the domain record.
func (in *EmployeeInput) ToEmployee() Employee {
	return Employee{
		EmpCode:   in.EmpCode,
		Location:  Location{Lat: in.GeoY, Lng: in.GeoX},
		Gender:    Gender(strings.ToUpper(in.Gender)),
		IsMedical: in.IsMedical,
		IsPWD:     in.IsPWD,
		IsNMT:     in.IsNMT,
		IsOOB:     in.IsOOB,
	}
}

// ToZone converts the wire polygon to domain locations.
func (in *ZoneInput) ToZone() Zone {
	z := Zone{Name: in.Name, Polygon: make([]Location, 0, len(in.Polygon))}
	for _, p := range in.Polygon {
		z.Polygon = append(z.Polygon, Location{Lat: p[0], Lng: p[1]})
	}
	return z
}

// ─── Response DTOs ──────────────────────────────────────────

// RouteEmployeeOutput is one stop in a committed route.
type RouteEmployeeOutput struct {
	EmpCode   string  `json:"empCode"`
	Gender    string  `json:"gender"`
	IsMedical bool    `json:"isMedical"`
	IsPWD     bool    `json:"isPWD"`
	IsNMT     bool    `json:"isNMT"`
	IsOOB     bool    `json:"isOOB"`
	ETA       string  `json:"eta"`
	Order     int     `json:"order"`
	GeoX      float64 `json:"geoX"`
	GeoY      float64 `json:"geoY"`
}

// RouteOutput is one route in the plan response.
type RouteOutput struct {
	RouteNumber              int                   `json:"routeNumber"`
	Zone                     string                `json:"zone"`
	VehicleCapacity          int                   `json:"vehicleCapacity"`
	VehicleType              string                `json:"vehicleType"`
	Guard                    bool                  `json:"guard"`
	Swapped                  bool                  `json:"swapped"`
	DurationExceeded         bool                  `json:"durationExceeded"`
	UniqueKey                string                `json:"uniqueKey"`
	IsSpecialNeedsRoute      bool                  `json:"isSpecialNeedsRoute"`
	AfterFleetExhaustion     bool                  `json:"afterFleetExhaustion"`
	DistanceKm               float64               `json:"distance_km"`
	DurationSeconds          float64               `json:"duration_s"`
	Occupancy                int                   `json:"occupancy"`
	FarthestEmployeeDistKm   float64               `json:"farthestEmployeeDistance_km"`
	IsMedicalRoute           bool                  `json:"isMedicalRoute"`
	IsPWDRoute               bool                  `json:"isPWDRoute"`
	IsNMTRoute               bool                  `json:"isNMTRoute"`
	IsOOBRoute               bool                  `json:"isOOBRoute"`
	EncodedPolyline          string                `json:"encodedPolyline"`
	FacilityTime             string                `json:"facilityTime,omitempty"`
	Employees                []RouteEmployeeOutput `json:"employees"`
}

// UnroutedEmployeeOutput echoes an employee the planner could not place.
type UnroutedEmployeeOutput struct {
	EmpCode   string   `json:"empCode"`
	GeoX      float64  `json:"geoX"`
	GeoY      float64  `json:"geoY"`
	Gender    string   `json:"gender"`
	IsMedical bool     `json:"isMedical"`
	IsPWD     bool     `json:"isPWD"`
	Location  Location `json:"location"`
}

// OverallRouteDetails aggregates distance/duration across all routes.
type OverallRouteDetails struct {
	TotalDistanceKm      float64 `json:"totalDistance_km"`
	TotalDurationSeconds float64 `json:"totalDuration_s"`
}

// PlanResponse is the body returned by POST /api/v1/routes/plan.
type PlanResponse struct {
	UUID                 string                   `json:"uuid"`
	Date                 string                   `json:"date"`
	Shift                string                   `json:"shift"`
	TripType             string                   `json:"tripType"`
	TotalEmployees       int                      `json:"totalEmployees"`
	TotalRoutedEmployees int                      `json:"totalRoutedEmployees"`
	TotalRoutes          int                      `json:"totalRoutes"`
	AverageOccupancy     float64                  `json:"averageOccupancy"`
	OverallRouteDetails  OverallRouteDetails      `json:"overallRouteDetails"`
	TotalSwappedRoutes   int                      `json:"totalSwappedRoutes"`
	TotalGuardedRoutes   int                      `json:"totalGuardedRoutes"`
	Routes               []RouteOutput            `json:"routes"`
	UnroutedEmployees    []UnroutedEmployeeOutput `json:"unroutedEmployees"`
}

// ─── Recalculate DTOs ───────────────────────────────────────

// RecalculateRequest re-times an already ordered route. Employees must
// be listed in stop order.
type RecalculateRequest struct {
	Employees             []EmployeeInput `json:"employees" validate:"required,min=1,dive"`
	Facility              FacilityInput   `json:"facility" validate:"required"`
	ShiftTime             string          `json:"shiftTime" validate:"required,len=4,numeric"`
	TripType              string          `json:"tripType" validate:"required,oneof=P D PICKUP DROPOFF"`
	PickupTimePerEmployee float64         `json:"pickupTimePerEmployee" validate:"required,gt=0"`
	ReportingTime         float64         `json:"reportingTime" validate:"gte=0"`
}

// RecalculateResponse carries the refreshed road details and timings.
type RecalculateResponse struct {
	DistanceKm      float64               `json:"distance_km"`
	DurationSeconds float64               `json:"duration_s"`
	EncodedPolyline string                `json:"encodedPolyline"`
	FacilityTime    string                `json:"facilityTime"`
	Employees       []RouteEmployeeOutput `json:"employees"`
}
