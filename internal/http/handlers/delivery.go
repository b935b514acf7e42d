package handlers

import (
	"errors"
	"net/http"
	"strings"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/logx"
)

// DeliveryHandler serves the delivery status endpoints.
type DeliveryHandler struct {
	uc     deliveryUsecase
	logger logx.Logger
}

// NewDeliveryHandler creates a DeliveryHandler.
func NewDeliveryHandler(logger logx.Logger, uc deliveryUsecase) *DeliveryHandler {
	return &DeliveryHandler{uc: uc, logger: logger}
}

// Transition handles POST /delivery/{orderID}/status.
func (h *DeliveryHandler) Transition(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idFromURL(r, "orderID")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	var req transitionRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	actor := domain.Actor(strings.TrimSpace(req.Actor))
	if actor == "" {
		actor = domain.ActorCourier
	}

	ord, err := h.uc.Transition(r.Context(), orderID, domain.DeliveryStatus(strings.TrimSpace(req.Status)), actor, req.Notes)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(ord))
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "order not found")
	case errors.Is(err, apperr.InvalidTransition):
		writeError(h.logger, w, r, http.StatusConflict, "invalid status transition")
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// History handles GET /delivery/{orderID}/history.
func (h *DeliveryHandler) History(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idFromURL(r, "orderID")
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	history, err := h.uc.History(r.Context(), orderID)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, historyToResponse(history))
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
