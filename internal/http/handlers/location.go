package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/logx"
)

// LocationHandler serves the courier location endpoints.
type LocationHandler struct {
	uc     locationUsecase
	logger logx.Logger
}

// NewLocationHandler creates a LocationHandler.
func NewLocationHandler(logger logx.Logger, uc locationUsecase) *LocationHandler {
	return &LocationHandler{uc: uc, logger: logger}
}

// Report handles POST /courier/{id}/location.
func (h *LocationHandler) Report(w http.ResponseWriter, r *http.Request) {
	courierID, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid courier id")
		return
	}

	var req reportLocationRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if req.Available == nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "available is required")
		return
	}

	err := h.uc.Report(r.Context(), courierID, req.Latitude, req.Longitude, *req.Available)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, apperr.OutOfRange):
		writeError(h.logger, w, r, http.StatusUnprocessableEntity, "coordinates out of range")
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Get handles GET /courier/{id}/location.
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	courierID, ok := idFromURL(r, "id")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid courier id")
		return
	}

	loc, err := h.uc.Get(r.Context(), courierID)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, locationToResponse(loc))
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "location not found")
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Nearby handles GET /couriers/nearby.
func (h *LocationHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, ok := parseFloat(q.Get("lat"))
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid lat")
		return
	}
	lon, ok := parseFloat(q.Get("lon"))
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid lon")
		return
	}

	var radius float64
	if s := q.Get("radius"); s != "" {
		v, ok := parseFloat(s)
		if !ok || v < 0 {
			writeError(h.logger, w, r, http.StatusBadRequest, "invalid radius")
			return
		}
		radius = v
	}

	var limit int
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(h.logger, w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = v
	}

	list, err := h.uc.FindNearby(r.Context(), lat, lon, radius, limit)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, nearbyToResponse(list))
	case errors.Is(err, apperr.OutOfRange):
		writeError(h.logger, w, r, http.StatusUnprocessableEntity, "coordinates out of range")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
