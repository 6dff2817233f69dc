package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"trip-dispatch-service/internal/api/dto"
	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/ports"
	"trip-dispatch-service/internal/services"
)

// ScheduleHandler exposes route schedule computation and reordering.
type ScheduleHandler struct {
	Scheduler *services.PickupScheduler
}

// Schedule computes per-stop ETAs and windows for a route.
func (h *ScheduleHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	routeID := r.PathValue("id")

	var req dto.ScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.StopIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "stop_ids must not be empty")
		return
	}

	var (
		stops []domain.ScheduledStop
		err   error
	)
	if req.Optimize {
		stops, err = h.Scheduler.Optimize(r.Context(), routeID, req.StopIDs)
	} else {
		stops, err = h.Scheduler.ComputeRoute(r.Context(), routeID, req.StopIDs)
	}
	if err != nil {
		writeScheduleError(w, r, routeID, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toScheduleResponse(routeID, stops))
}

// Reorder recomputes the route with an operator-specified stop order.
func (h *ScheduleHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	routeID := r.PathValue("id")

	var req dto.ReorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.StopIDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "stop_ids must not be empty")
		return
	}

	stops, err := h.Scheduler.Reorder(r.Context(), routeID, req.StopIDs)
	if err != nil {
		writeScheduleError(w, r, routeID, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toScheduleResponse(routeID, stops))
}

func writeScheduleError(w http.ResponseWriter, r *http.Request, routeID string, err error) {
	switch {
	case errors.Is(err, services.ErrRouteLocked):
		writeError(w, r, http.StatusConflict, "route_locked")
	case errors.Is(err, ports.ErrRouteNotFound):
		writeError(w, r, http.StatusNotFound, "route not found")
	case errors.Is(err, ports.ErrBookingNotFound):
		writeError(w, r, http.StatusNotFound, "booking not found")
	default:
		log.Error().Err(err).Str("route_id", routeID).Msg("schedule computation failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func toScheduleResponse(routeID string, stops []domain.ScheduledStop) dto.ScheduleResponse {
	res := dto.ScheduleResponse{
		RouteID: routeID,
		Stops:   make([]dto.StopResponse, 0, len(stops)),
	}
	for _, s := range stops {
		res.Stops = append(res.Stops, dto.StopResponse{
			BookingID:   s.BookingID,
			Order:       s.Order,
			ETA:         s.ETA,
			WindowStart: s.WindowStart,
			WindowEnd:   s.WindowEnd,
			Address:     s.Address,
		})
	}
	return res
}

// decodeBody decodes a single JSON object request body, rejecting unknown
// fields and trailing content.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}

	return true
}
