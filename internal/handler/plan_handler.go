package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/repository"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/service"
)

// PlanHandler handles route plan generation and retrieval.
type PlanHandler struct {
	planner *service.Planner
	repo    *repository.PlanRepository
}

// NewPlanHandler creates a handler wired to the planner and repository.
// repo may be nil when persistence is disabled.
func NewPlanHandler(planner *service.Planner, repo *repository.PlanRepository) *PlanHandler {
	return &PlanHandler{planner: planner, repo: repo}
}

// GeneratePlan handles POST /api/v1/routes/plan
//
// Runs the full route generation pipeline for the request and returns
// the fleet assignment. With saveToDatabase=true the plan is persisted
// and later retrievable by uuid.
func (h *PlanHandler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON body",
		})
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "validation_failed",
			"message": validationMessage(err),
		})
		return
	}

	resp, err := h.planner.Plan(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoadServiceUnavailable):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error":   "road_service_unavailable",
				"message": "The road routing service did not answer the availability probe.",
			})
		case errors.Is(err, service.ErrInvalidRequest):
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "invalid_request",
				"message": err.Error(),
			})
		default:
			log.Printf("[handler] plan error: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "internal_error",
			})
		}
		return
	}

	if req.SaveToDatabase && h.repo != nil {
		if err := h.repo.SavePlan(r.Context(), resp); err != nil {
			// Persistence is best-effort; the plan itself succeeded.
			log.Printf("[handler] save plan %s failed: %v", resp.UUID, err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetPlan handles GET /api/v1/routes/plan/{uuid}
//
// Returns a previously persisted plan.
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	planUUID := mux.Vars(r)["uuid"]
	if h.repo == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "persistence disabled",
		})
		return
	}

	resp, err := h.repo.GetPlan(r.Context(), planUUID)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "not_found",
				"message": "No plan with that uuid.",
			})
			return
		}
		log.Printf("[handler] get plan error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal_error",
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
