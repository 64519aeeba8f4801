package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/service"
)

// RecalculateHandler refreshes road details and timings for an
// already ordered route.
type RecalculateHandler struct {
	recalc *service.Recalculator
}

// NewRecalculateHandler creates the handler.
func NewRecalculateHandler(recalc *service.Recalculator) *RecalculateHandler {
	return &RecalculateHandler{recalc: recalc}
}

// Recalculate handles POST /api/v1/routes/recalculate
//
// The employee list is taken as the final stop order; no re-sequencing
// happens here.
func (h *RecalculateHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	var req model.RecalculateRequest
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

	resp, err := h.recalc.Recalculate(r.Context(), &req)
	if err != nil {
		log.Printf("[handler] recalculate error: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "road_service_error",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
