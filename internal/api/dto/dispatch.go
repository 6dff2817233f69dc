package dto

type DispatchRequest struct {
	Override bool   `json:"override"`
	SentBy   string `json:"sent_by"`
}
