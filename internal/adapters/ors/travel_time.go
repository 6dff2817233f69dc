package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/platform/obs"
)

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
}

type matrixResponse struct {
	Durations [][]*float64 `json:"durations"`
}

// TravelTimeProvider resolves pair travel durations via the ORS matrix
// endpoint. Errors propagate to the estimator, which falls back to its
// geometric estimate; they never reach the scheduler.
type TravelTimeProvider struct {
	client *Client
}

func NewTravelTimeProvider(client *Client) *TravelTimeProvider {
	return &TravelTimeProvider{client: client}
}

// TravelSeconds returns the driving duration between two points.
func (p *TravelTimeProvider) TravelSeconds(ctx context.Context, origin, destination domain.Coordinates) (_ int, err error) {
	defer obs.Time(ctx, "ors.TravelSeconds")(&err)

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", p.client.baseURL, p.client.profile)

	bodyObj := matrixRequest{
		Locations:    [][]float64{origin.CoordsToList(), destination.CoordsToList()},
		Destinations: []int{1},
		Metrics:      []string{"duration"},
		Sources:      []int{0},
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return 0, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := p.client.doWithRetry(ctx, func() (*http.Request, error) {
		return p.client.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return 0, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return 0, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Durations) != 1 || len(mr.Durations[0]) != 1 {
		return 0, errors.New("matrix response shape mismatch")
	}

	secondsPtr := mr.Durations[0][0]
	if secondsPtr == nil {
		return 0, errors.New("matrix returned no duration for pair")
	}

	return int(math.Round(*secondsPtr)), nil
}
