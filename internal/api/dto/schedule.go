package dto

import "time"

type ScheduleRequest struct {
	StopIDs  []string `json:"stop_ids"`
	Optimize bool     `json:"optimize"`
}

type ReorderRequest struct {
	StopIDs []string `json:"stop_ids"`
}

type StopResponse struct {
	BookingID   string    `json:"booking_id"`
	Order       int       `json:"order"`
	ETA         time.Time `json:"eta"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Address     string    `json:"address"`
}

type ScheduleResponse struct {
	RouteID string         `json:"route_id"`
	Stops   []StopResponse `json:"stops"`
}
