// Package model contains domain models for the employee transport
// route planning system. The planner works on these explicit record
// types; JSON request/response DTOs live in dto.go.
package model

// ─── Enums ──────────────────────────────────────────────────

// TripType is the direction of a trip relative to the facility.
type TripType string

const (
	// TripPickup routes employees toward the facility.
	TripPickup TripType = "PICKUP"
	// TripDropoff routes employees away from the facility.
	TripDropoff TripType = "DROPOFF"
)

// Short returns the single-letter form used in API responses.
func (t TripType) Short() string {
	if t == TripDropoff {
		return "D"
	}
	return "P"
}

// FacilityType selects the deviation rule set that applies to a plan.
type FacilityType string

const (
	FacilityCDC FacilityType = "CDC"
	FacilityDDC FacilityType = "DDC"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// ─── Location ───────────────────────────────────────────────

// Location is a WGS-84 geographic point.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// India bounding box used for location sanity checks.
const (
	IndiaMinLat = 6.0
	IndiaMaxLat = 38.0
	IndiaMinLng = 68.0
	IndiaMaxLng = 98.0
)

// Valid reports whether the location falls inside the India bounds.
func (l Location) Valid() bool {
	return l.Lat >= IndiaMinLat && l.Lat <= IndiaMaxLat &&
		l.Lng >= IndiaMinLng && l.Lng <= IndiaMaxLng
}

// ─── Core entities ──────────────────────────────────────────

// Employee is a single rider in a plan request. Instances are read-only
// during planning; per-route copies are augmented with Order and ETA
// via RouteEmployee.
type Employee struct {
	EmpCode   string   `json:"empCode"`
	Location  Location `json:"location"`
	Gender    Gender   `json:"gender"`
	IsMedical bool     `json:"isMedical"`
	IsPWD     bool     `json:"isPWD"`
	IsNMT     bool     `json:"isNMT"`
	IsOOB     bool     `json:"isOOB"`
}

// SpecialNeeds reports whether the employee triggers the reduced-capacity
// seeding rule (medical or PWD).
func (e *Employee) SpecialNeeds() bool {
	return e.IsMedical || e.IsPWD
}

// Facility is the single origin/destination common to all trips.
type Facility struct {
	Location Location     `json:"location"`
	Type     FacilityType `json:"facilityType"`
}

// ─── Profile ────────────────────────────────────────────────

// RuleTier bounds a route's total one-way road distance given the road
// distance from the facility to its farthest employee.
type RuleTier struct {
	MinDistKm        float64 `json:"minDistKm"`
	MaxDistKm        float64 `json:"maxDistKm"`
	MaxTotalOneWayKm float64 `json:"maxTotalOneWayKm"`
}

// FleetEntry describes one vehicle type available to phase 1 of planning.
type FleetEntry struct {
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
	Count    int    `json:"count"`
}

// GuardWindow is an HHMM time window during which night-shift guard
// rules apply for a direction.
type GuardWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Profile is the planning configuration attached to a request.
type Profile struct {
	MaxDuration            float64                `json:"maxDuration"` // seconds
	Fleet                  []FleetEntry           `json:"fleet"`
	RouteDeviationRules    map[string][]RuleTier  `json:"routeDeviationRules"` // keyed by facility type
	NightShiftGuardTimings map[string]GuardWindow `json:"nightShiftGuardTimings"`
	CapacityTierZones      map[string][]string    `json:"capacityTierZones"`
	ZonePairingMatrix      map[string][]string    `json:"zonePairingMatrix"`
	FacilityType           FacilityType           `json:"facilityType"`
	DirectionPenaltyWeight float64                `json:"directionPenaltyWeight"`
	DropPenalty            int64                  `json:"dropPenalty"`
	AllowDroppingVisits    bool                   `json:"allowDroppingVisitsForProblematicZones"`
}

// RulesFor returns the deviation tiers for a facility type, or nil when
// the profile carries none (the deviation check is lenient in that case).
func (p *Profile) RulesFor(ft FacilityType) []RuleTier {
	if p.RouteDeviationRules == nil {
		return nil
	}
	return p.RouteDeviationRules[string(ft)]
}

// GuardWindowFor returns the night-shift guard window for a direction,
// preferring a facility-scoped entry ("DDC_PICKUP") over the plain
// direction key ("PICKUP").
func (p *Profile) GuardWindowFor(ft FacilityType, trip TripType) (GuardWindow, bool) {
	if p.NightShiftGuardTimings == nil {
		return GuardWindow{}, false
	}
	if w, ok := p.NightShiftGuardTimings[string(ft)+"_"+string(trip)]; ok {
		return w, true
	}
	w, ok := p.NightShiftGuardTimings[string(trip)]
	return w, ok
}

// ─── Routes ─────────────────────────────────────────────────

// Leg is one segment of a road route between consecutive stops.
type Leg struct {
	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds
}

// RouteDetails is the road-network view of a committed route.
type RouteDetails struct {
	TotalDistance   float64    `json:"totalDistance"` // meters
	TotalDuration   float64    `json:"totalDuration"` // seconds
	Legs            []Leg      `json:"legs"`
	EncodedPolyline string     `json:"encodedPolyline"`
	Geometry        []Location `json:"geometry,omitempty"`
}

// RouteEmployee is an employee placed on a route, with its stop order
// and computed ETA.
type RouteEmployee struct {
	Employee
	Order int    `json:"order"` // 1-based stop sequence
	ETA   string `json:"eta"`
}

// Route is one vehicle assignment produced by the planner.
//
// Invariants: len(Employees) <= VehicleCapacity - (1 if GuardNeeded);
// for PICKUP the facility is the last coordinate of the polyline, for
// DROPOFF the first.
type Route struct {
	RouteNumber          int             `json:"routeNumber"`
	UniqueKey            string          `json:"uniqueKey"`
	Zone                 string          `json:"zone"`
	Employees            []RouteEmployee `json:"employees"`
	VehicleType          string          `json:"vehicleType"`
	VehicleCapacity      int             `json:"vehicleCapacity"` // base capacity, before guard reduction
	TripType             TripType        `json:"tripType"`
	Details              RouteDetails    `json:"routeDetails"`
	Swapped              bool            `json:"swapped"`
	GuardNeeded          bool            `json:"guardNeeded"`
	DurationExceeded     bool            `json:"durationExceeded"`
	IsSpecialNeedsRoute  bool            `json:"isSpecialNeedsRoute"`
	AfterFleetExhaustion bool            `json:"afterFleetExhaustion"`
	// FarthestEmployeeDistance is the road distance in meters from the
	// facility to the farthest employee on the route.
	FarthestEmployeeDistance float64 `json:"farthestEmployeeDistance"`
	// FacilityTime is the facility arrival time (pickup) or departure
	// time (dropoff), formatted "hh:mm AM/PM".
	FacilityTime string `json:"facilityTime"`
}

// EffectiveCapacity is the seat count available to employees after
// reserving one for a guard when needed.
func (r *Route) EffectiveCapacity() int {
	if r.GuardNeeded {
		return r.VehicleCapacity - 1
	}
	return r.VehicleCapacity
}

// ─── Zones ──────────────────────────────────────────────────

// Zone is a named polygon used to tag committed routes.
type Zone struct {
	Name    string     `json:"name"`
	Polygon []Location `json:"polygon"`
}
