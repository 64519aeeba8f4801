package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeneratePlanRejectsBadJSON(t *testing.T) {
	h := NewPlanHandler(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/routes/plan", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.GeneratePlan(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGeneratePlanRejectsMissingFields(t *testing.T) {
	h := NewPlanHandler(nil, nil)
	body := `{"employees": [], "shiftTime": "0900"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/routes/plan", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.GeneratePlan(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "validation_failed") {
		t.Errorf("body = %s, want validation_failed", rec.Body.String())
	}
}

func TestGeneratePlanRejectsBadTripType(t *testing.T) {
	h := NewPlanHandler(nil, nil)
	body := `{
		"employees": [{"empCode": "A001", "geoX": 77.6, "geoY": 12.94, "gender": "M"}],
		"facility": {"geoX": 77.6, "geoY": 12.9},
		"shiftTime": "0900",
		"date": "2025-03-01",
		"profile": {"maxDuration": 7200},
		"pickupTimePerEmployee": 120,
		"tripType": "X"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/routes/plan", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.GeneratePlan(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for tripType X", rec.Code)
	}
}

func TestRecalculateRejectsBadShiftTime(t *testing.T) {
	h := NewRecalculateHandler(nil)
	body := `{
		"employees": [{"empCode": "A001", "geoX": 77.6, "geoY": 12.94, "gender": "M"}],
		"facility": {"geoX": 77.6, "geoY": 12.9},
		"shiftTime": "9am",
		"tripType": "P",
		"pickupTimePerEmployee": 120
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/routes/recalculate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Recalculate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for shiftTime 9am", rec.Code)
	}
}
