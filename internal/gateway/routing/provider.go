// Package routing produces route estimates, degrading from the external
// provider to the local great-circle estimator.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
)

// ProviderClient calls the external routing HTTP API.
type ProviderClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewProviderClient creates a routing provider client. The http.Client's
// timeout is left to the caller's context deadline.
func NewProviderClient(baseURL, apiKey string, client *http.Client) *ProviderClient {
	if client == nil {
		client = &http.Client{}
	}
	return &ProviderClient{baseURL: baseURL, apiKey: apiKey, client: client}
}

type routeResponse struct {
	Route *struct {
		Length   float64 `json:"length"`   // meters
		Duration float64 `json:"duration"` // seconds
		Geometry []struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"geometry"`
	} `json:"route"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Route asks the provider for a driving route between two points.
func (c *ProviderClient) Route(ctx context.Context, from, to domain.GeoPoint, avoidTolls bool) (domain.RouteEstimate, error) {
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("mode", "driving")
	q.Set("origin", fmt.Sprintf("%f,%f", from.Latitude, from.Longitude))
	q.Set("destination", fmt.Sprintf("%f,%f", to.Latitude, to.Longitude))
	q.Set("format", "json")
	if avoidTolls {
		q.Set("avoid_tolls", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return domain.RouteEstimate{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.RouteEstimate{}, fmt.Errorf("%w: %w", apperr.ProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RouteEstimate{}, fmt.Errorf("%w: status %d", apperr.ProviderUnavailable, resp.StatusCode)
	}

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.RouteEstimate{}, fmt.Errorf("%w: decode: %w", apperr.ProviderUnavailable, err)
	}
	if body.Error != nil {
		return domain.RouteEstimate{}, fmt.Errorf("%w: %s", apperr.ProviderUnavailable, body.Error.Message)
	}
	if body.Route == nil || body.Route.Length <= 0 || body.Route.Duration <= 0 {
		return domain.RouteEstimate{}, fmt.Errorf("%w: malformed payload", apperr.ProviderUnavailable)
	}

	est := domain.RouteEstimate{
		DistanceMeters:  body.Route.Length,
		DurationSeconds: body.Route.Duration,
		Provenance:      domain.ProvenanceProvider,
	}
	for _, p := range body.Route.Geometry {
		est.Polyline = append(est.Polyline, domain.GeoPoint{Latitude: p.Lat, Longitude: p.Lon})
	}
	return est, nil
}
