package service

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// TrafficBufferPercentage inflates every road leg duration to
	// absorb live traffic variance.
	TrafficBufferPercentage = 0.4

	// TimeErrorSentinel is written into every ETA when timing cannot be
	// derived. The route is still emitted.
	TimeErrorSentinel = "Error"

	// clockFormat renders times as "09:00 AM".
	clockFormat = "03:04 PM"
)

// ─── TimingCalculator ───────────────────────────────────────

// ComputeTimings assigns per-employee ETAs and the facility time on a
// route from its leg durations.
//
// PICKUP walks the legs in reverse from the facility arrival time
// (shift time minus reporting buffer), subtracting buffered leg
// duration plus service time per stop. DROPOFF walks forward from the
// facility departure time (shift time).
func ComputeTimings(route *model.Route, shiftTime string, reportingTime, serviceTime float64) {
	base, err := parseShiftTime(shiftTime)
	if err != nil || len(route.Details.Legs) != len(route.Employees) {
		if err == nil {
			err = fmt.Errorf("leg count %d does not match %d employees",
				len(route.Details.Legs), len(route.Employees))
		}
		log.Printf("[timing] route %d: %v", route.RouteNumber, err)
		markTimingError(route)
		return
	}

	if route.TripType == model.TripDropoff {
		// Facility departure = shift time; walk legs forward.
		depart := base
		route.FacilityTime = depart.Format(clockFormat)

		at := depart
		for i := range route.Employees {
			at = at.Add(bufferedLeg(route.Details.Legs[i].Duration, serviceTime))
			route.Employees[i].ETA = at.Format(clockFormat)
		}
		return
	}

	// Facility arrival = shift time − reporting buffer; walk legs in
	// reverse. Leg i runs from stop i to stop i+1 (the last leg ends at
	// the facility).
	arrive := base.Add(-time.Duration(reportingTime * float64(time.Second)))
	route.FacilityTime = arrive.Format(clockFormat)

	at := arrive
	for i := len(route.Employees) - 1; i >= 0; i-- {
		at = at.Add(-bufferedLeg(route.Details.Legs[i].Duration, serviceTime))
		route.Employees[i].ETA = at.Format(clockFormat)
	}
}

// bufferedLeg is the wall-clock cost of one leg: road duration scaled
// by the traffic buffer, plus the per-stop service time.
func bufferedLeg(legDuration, serviceTime float64) time.Duration {
	secs := legDuration*(1.0+TrafficBufferPercentage) + serviceTime
	return time.Duration(secs * float64(time.Second))
}

// parseShiftTime converts "HHMM" (0000–2359) into a clock time on an
// arbitrary reference day.
func parseShiftTime(shift string) (time.Time, error) {
	if len(shift) != 4 {
		return time.Time{}, fmt.Errorf("invalid shift time %q", shift)
	}
	hh, err := strconv.Atoi(shift[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid shift time %q", shift)
	}
	mm, err := strconv.Atoi(shift[2:])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid shift time %q", shift)
	}
	if hh > 23 || mm > 59 {
		return time.Time{}, fmt.Errorf("shift time %q out of range", shift)
	}
	return time.Date(2000, 1, 1, hh, mm, 0, 0, time.UTC), nil
}

// markTimingError writes the sentinel into every time field.
func markTimingError(route *model.Route) {
	route.FacilityTime = TimeErrorSentinel
	for i := range route.Employees {
		route.Employees[i].ETA = TimeErrorSentinel
	}
}
