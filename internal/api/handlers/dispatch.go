package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"trip-dispatch-service/internal/api/dto"
	"trip-dispatch-service/internal/services"
)

// DispatchHandler exposes provider notification queueing.
type DispatchHandler struct {
	Queue *services.DispatchQueue
}

// Dispatch queues a notification for the booking's partner. The response
// never waits on delivery; outcomes land in the dispatch log.
func (h *DispatchHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")

	// Body is optional: a bare POST dispatches with defaults.
	var req dto.DispatchRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	result, err := h.Queue.Enqueue(r.Context(), bookingID, services.EnqueueOptions{
		Override: req.Override,
		SentBy:   req.SentBy,
	})
	if err != nil {
		log.Error().Err(err).Str("booking_id", bookingID).Msg("dispatch enqueue failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusOK
	if result.Queued {
		status = http.StatusAccepted
	}
	if !result.OK {
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, r, status, result)
}
