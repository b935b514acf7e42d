// Package places reads restaurant coordinates from the catalog service. The
// tracking core only ever needs a pickup point per restaurant id; dropoff
// points arrive inline on the order.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
)

// HTTPGateway is a places gateway backed by the catalog services' HTTP API.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a places gateway.
func NewHTTPGateway(baseURL string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPGateway{baseURL: baseURL, client: client}
}

// StatusError is a non-2xx response from a places service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("places gateway: status %d", e.Code)
}

type pointResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RestaurantLocation returns the pickup point of a restaurant.
func (g *HTTPGateway) RestaurantLocation(ctx context.Context, restaurantID string) (domain.GeoPoint, error) {
	return g.point(ctx, "/v1/restaurants/"+restaurantID+"/location")
}

func (g *HTTPGateway) point(ctx context.Context, path string) (domain.GeoPoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return domain.GeoPoint{}, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("places gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.GeoPoint{}, apperr.NotFound
	}
	if resp.StatusCode != http.StatusOK {
		return domain.GeoPoint{}, &StatusError{Code: resp.StatusCode}
	}

	var body pointResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("places gateway: decode: %w", err)
	}
	if !domain.ValidCoordinates(body.Latitude, body.Longitude) {
		return domain.GeoPoint{}, fmt.Errorf("places gateway: invalid point %f,%f", body.Latitude, body.Longitude)
	}
	return domain.GeoPoint{Latitude: body.Latitude, Longitude: body.Longitude}, nil
}
