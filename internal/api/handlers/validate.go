package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"trip-dispatch-service/internal/services"
)

// PolicyHandler exposes dispatch-eligibility evaluation.
type PolicyHandler struct {
	Validator *services.PolicyValidator
}

// Validate evaluates the booking's cohort against the current policy.
// Policy violations are a 200 with ok=false; only store failures are 5xx.
func (h *PolicyHandler) Validate(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")
	if bookingID == "" {
		writeError(w, r, http.StatusBadRequest, "booking id is required")
		return
	}

	result, err := h.Validator.Validate(r.Context(), bookingID)
	if err != nil {
		log.Error().Err(err).Str("booking_id", bookingID).Msg("policy validation failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}
