package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
	testlog "delivery-tracking/internal/testutil"
)

type stubLocationUsecase struct {
	reportFn func(ctx context.Context, courierID string, lat, lon float64, available bool) error
	getFn    func(ctx context.Context, courierID string) (*domain.CourierLocation, error)
	nearbyFn func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.NearbyCourier, error)
}

func (s *stubLocationUsecase) Report(ctx context.Context, courierID string, lat, lon float64, available bool) error {
	if s.reportFn == nil {
		panic("Report not expected in this test")
	}
	return s.reportFn(ctx, courierID, lat, lon, available)
}

func (s *stubLocationUsecase) Get(ctx context.Context, courierID string) (*domain.CourierLocation, error) {
	if s.getFn == nil {
		panic("Get not expected in this test")
	}
	return s.getFn(ctx, courierID)
}

func (s *stubLocationUsecase) FindNearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.NearbyCourier, error) {
	if s.nearbyFn == nil {
		panic("FindNearby not expected in this test")
	}
	return s.nearbyFn(ctx, lat, lon, radius, limit)
}

func withURLParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestLocationHandler_Report_OK(t *testing.T) {
	t.Parallel()

	body := `{"latitude":40.0,"longitude":-75.0,"available":true}`
	req := httptest.NewRequest(http.MethodPost, "/courier/c-1/location", strings.NewReader(body))
	req = withURLParam(req, "id", "c-1")
	rr := httptest.NewRecorder()

	uc := &stubLocationUsecase{
		reportFn: func(_ context.Context, courierID string, lat, lon float64, available bool) error {
			require.Equal(t, "c-1", courierID)
			require.Equal(t, 40.0, lat)
			require.Equal(t, -75.0, lon)
			require.True(t, available)
			return nil
		},
	}

	h := NewLocationHandler(testlog.New().Logger(), uc)
	h.Report(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestLocationHandler_Report_OutOfRange(t *testing.T) {
	t.Parallel()

	body := `{"latitude":91.0,"longitude":0.0,"available":true}`
	req := httptest.NewRequest(http.MethodPost, "/courier/c-1/location", strings.NewReader(body))
	req = withURLParam(req, "id", "c-1")
	rr := httptest.NewRecorder()

	uc := &stubLocationUsecase{
		reportFn: func(context.Context, string, float64, float64, bool) error {
			return apperr.OutOfRange
		},
	}

	h := NewLocationHandler(testlog.New().Logger(), uc)
	h.Report(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestLocationHandler_Report_MissingAvailable(t *testing.T) {
	t.Parallel()

	body := `{"latitude":40.0,"longitude":-75.0}`
	req := httptest.NewRequest(http.MethodPost, "/courier/c-1/location", strings.NewReader(body))
	req = withURLParam(req, "id", "c-1")
	rr := httptest.NewRecorder()

	h := NewLocationHandler(testlog.New().Logger(), &stubLocationUsecase{})
	h.Report(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLocationHandler_Report_BadJSON(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/courier/c-1/location", strings.NewReader("{"))
	req = withURLParam(req, "id", "c-1")
	rr := httptest.NewRecorder()

	h := NewLocationHandler(testlog.New().Logger(), &stubLocationUsecase{})
	h.Report(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLocationHandler_Get_OK(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/courier/c-1/location", nil)
	req = withURLParam(req, "id", "c-1")
	rr := httptest.NewRecorder()

	reported := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	uc := &stubLocationUsecase{
		getFn: func(_ context.Context, courierID string) (*domain.CourierLocation, error) {
			return &domain.CourierLocation{
				CourierID:  courierID,
				Latitude:   40.0,
				Longitude:  -75.0,
				Available:  true,
				ReportedAt: reported,
			}, nil
		},
	}

	h := NewLocationHandler(testlog.New().Logger(), uc)
	h.Get(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"courier_id": "c-1",
		"latitude": 40.0,
		"longitude": -75.0,
		"available": true,
		"reported_at": "2025-06-01T12:00:00Z"
	}`, rr.Body.String())
}

func TestLocationHandler_Get_NotFound(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/courier/ghost/location", nil)
	req = withURLParam(req, "id", "ghost")
	rr := httptest.NewRecorder()

	uc := &stubLocationUsecase{
		getFn: func(context.Context, string) (*domain.CourierLocation, error) {
			return nil, apperr.NotFound
		},
	}

	h := NewLocationHandler(testlog.New().Logger(), uc)
	h.Get(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLocationHandler_Nearby_OK(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/couriers/nearby?lat=40.0&lon=-75.0&radius=2000&limit=5", nil)
	rr := httptest.NewRecorder()

	uc := &stubLocationUsecase{
		nearbyFn: func(_ context.Context, lat, lon, radius float64, limit int) ([]domain.NearbyCourier, error) {
			require.Equal(t, 40.0, lat)
			require.Equal(t, -75.0, lon)
			require.Equal(t, 2000.0, radius)
			require.Equal(t, 5, limit)
			return []domain.NearbyCourier{
				{
					CourierLocation: domain.CourierLocation{CourierID: "c-1", Latitude: 40.001, Longitude: -75.001, Available: true},
					DistanceMeters:  140.5,
				},
			}, nil
		},
	}

	h := NewLocationHandler(testlog.New().Logger(), uc)
	h.Nearby(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"distance_meters":140.5`)
}

func TestLocationHandler_Nearby_EmptyListIsNotError(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/couriers/nearby?lat=40.0&lon=-75.0", nil)
	rr := httptest.NewRecorder()

	uc := &stubLocationUsecase{
		nearbyFn: func(context.Context, float64, float64, float64, int) ([]domain.NearbyCourier, error) {
			return nil, nil
		},
	}

	h := NewLocationHandler(testlog.New().Logger(), uc)
	h.Nearby(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestLocationHandler_Nearby_MissingLat(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/couriers/nearby?lon=-75.0", nil)
	rr := httptest.NewRecorder()

	h := NewLocationHandler(testlog.New().Logger(), &stubLocationUsecase{})
	h.Nearby(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
