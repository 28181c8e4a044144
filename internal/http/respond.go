package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/checkout-service/internal/delivery"
	"github.com/fjod/go_cart/checkout-service/internal/gateway"
	"github.com/fjod/go_cart/checkout-service/internal/orders"
	"github.com/fjod/go_cart/checkout-service/internal/service"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.GetOrCreateLoggerFromCtx(context.Background()).Warn(context.Background(),
			"failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps checkout errors to HTTP status codes.
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	var gatewayErr *gateway.GatewayError
	var serviceErr *service.ServiceError

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	case errors.Is(err, delivery.ErrManualEntryNotAllowed):
		respondError(w, http.StatusForbidden, "manual_entry_not_allowed", err.Error())
	case errors.Is(err, delivery.ErrUnknownRegion),
		errors.Is(err, delivery.ErrEmptyAddress),
		errors.Is(err, delivery.ErrNoAddress):
		respondError(w, http.StatusUnprocessableEntity, "invalid_delivery", err.Error())
	case errors.Is(err, service.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, "submission_in_flight", err.Error())
	case errors.Is(err, service.ErrNothingToResume):
		respondError(w, http.StatusNotFound, "nothing_to_resume", err.Error())
	case errors.Is(err, orders.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.As(err, &gatewayErr):
		respondError(w, http.StatusBadGateway, "payment_gateway_error", "payment could not be started, please try again")
	case errors.As(err, &serviceErr):
		code := "order_service_error"
		if serviceErr.Partial {
			code = "order_partially_saved"
		}
		respondError(w, http.StatusBadGateway, code, "order could not be completed")
	case errors.Is(err, service.ErrManagerClosed):
		respondError(w, http.StatusServiceUnavailable, "shutting_down", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.GetOrCreateLoggerFromCtx(ctx).Error(ctx, "unhandled checkout error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
