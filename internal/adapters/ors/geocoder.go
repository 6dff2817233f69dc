package ors

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/ports"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocoder resolves free-text addresses via ORS /geocode/search.
//
// Per the port contract, provider failures are swallowed: a nil result
// means "could not resolve", and the error return is always nil.
type Geocoder struct {
	client *Client
}

func NewGeocoder(client *Client) *Geocoder {
	return &Geocoder{client: client}
}

// normalize ensures consistent queries by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (g *Geocoder) Forward(ctx context.Context, address string) (*ports.GeocodeResult, error) {
	norm := normalize(address)
	if norm == "" {
		return nil, nil
	}

	endpoint := g.client.baseURL + "/geocode/search"

	resp, err := g.client.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.client.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		log.Debug().Err(err).Str("address", norm).Msg("geocode request failed")
		return nil, nil
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		log.Debug().Err(err).Str("address", norm).Msg("geocode response malformed")
		return nil, nil
	}

	if len(decoded.Features) == 0 {
		return nil, nil
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return nil, nil
	}

	return &ports.GeocodeResult{
		Coords:           domain.Coordinates{Lon: coords[0], Lat: coords[1]},
		FormattedAddress: decoded.Features[0].Properties.Label,
	}, nil
}
