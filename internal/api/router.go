package api

import (
	"net/http"

	"trip-dispatch-service/internal/api/handlers"
	"trip-dispatch-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(
	validator *services.PolicyValidator,
	scheduler *services.PickupScheduler,
	queue *services.DispatchQueue,
) http.Handler {
	mux := http.NewServeMux()

	policyHandler := &handlers.PolicyHandler{Validator: validator}
	scheduleHandler := &handlers.ScheduleHandler{Scheduler: scheduler}
	dispatchHandler := &handlers.DispatchHandler{Queue: queue}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("POST /bookings/{id}/validate", policyHandler.Validate)
	mux.HandleFunc("POST /bookings/{id}/dispatch", dispatchHandler.Dispatch)
	mux.HandleFunc("POST /routes/{id}/schedule", scheduleHandler.Schedule)
	mux.HandleFunc("POST /routes/{id}/reorder", scheduleHandler.Reorder)

	return loggingMiddleware(mux)
}
