package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/logx"
)

// TrackingHandler serves the customer-facing tracking endpoints.
type TrackingHandler struct {
	uc     trackingUsecase
	logger logx.Logger
}

// NewTrackingHandler creates a TrackingHandler.
func NewTrackingHandler(logger logx.Logger, uc trackingUsecase) *TrackingHandler {
	return &TrackingHandler{uc: uc, logger: logger}
}

// Snapshot handles GET /delivery/{orderID}/tracking.
func (h *TrackingHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idFromURL(r, "orderID")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	snap, err := h.uc.GetSnapshot(r.Context(), orderID)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, snapshotToResponse(snap))
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "order not found")
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// AppendPoint handles POST /delivery/{orderID}/location.
func (h *TrackingHandler) AppendPoint(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idFromURL(r, "orderID")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	var req appendPointRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	err := h.uc.AppendPoint(r.Context(), orderID, req.Latitude, req.Longitude)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, apperr.OutOfRange):
		writeError(h.logger, w, r, http.StatusUnprocessableEntity, "coordinates out of range")
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "active delivery not found")
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Path handles GET /delivery/{orderID}/path.
func (h *TrackingHandler) Path(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idFromURL(r, "orderID")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	var limit int
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(h.logger, w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = v
	}

	points, err := h.uc.PathHistory(r.Context(), orderID, limit)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, pathResponse{OrderID: orderID, Points: points})
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "order not found")
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Route handles GET /delivery/{orderID}/route.
func (h *TrackingHandler) Route(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idFromURL(r, "orderID")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	detail, err := h.uc.RouteDetail(r.Context(), orderID)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, detail)
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "route not available")
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
