package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/internal/service"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"go.uber.org/zap"
)

// SessionProvider hands out the checkout of a session.
type SessionProvider interface {
	Session(ctx context.Context, sessionID string) (service.Session, error)
	Close(sessionID string)
}

type CheckoutHandler struct {
	sessions SessionProvider
	timeout  time.Duration
	// heartbeat keeps idle event streams open through proxies
	heartbeat time.Duration
}

func NewCheckoutHandler(sessions SessionProvider, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		sessions:  sessions,
		timeout:   timeout,
		heartbeat: 15 * time.Second,
	}
}

type SelectPaymentMethodRequestDTO struct {
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

// GET /api/v1/checkout
func (h *CheckoutHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.sessions.Session(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	summary, err := session.Summary(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// PUT /api/v1/checkout/payment-method
func (h *CheckoutHandler) SelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SelectPaymentMethodRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.PaymentMethod == domain.PaymentMethodNone {
		respondError(w, http.StatusBadRequest, "missing_payment_method", "payment_method is required")
		return
	}

	session, err := h.sessions.Session(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if err := session.SelectPaymentMethod(ctx, req.PaymentMethod); err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.Status())
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	session, err := h.sessions.Session(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	result, err := session.Submit(ctx, req)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	if result.State == domain.CheckoutStateAwaitingConfirmation {
		status = http.StatusAccepted
	}
	respondJSON(w, status, result)
}

// GET /api/v1/checkout/status
func (h *CheckoutHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.sessions.Session(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.Status())
}

// POST /api/v1/checkout/resume
func (h *CheckoutHandler) Resume(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.sessions.Session(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	result, err := session.Resume(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// DELETE /api/v1/checkout
func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	session, err := h.sessions.Session(ctx, sessionID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if err := session.Abandon(ctx); err != nil {
		handleError(ctx, w, err)
		return
	}
	h.sessions.Close(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/checkout/events streams summaries as server-sent events.
func (h *CheckoutHandler) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.sessions.Session(ctx, getSessionID(ctx))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	rc := http.NewResponseController(w)
	// the stream outlives the server write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming is not supported")
		return
	}

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case summary, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(summary)
			if err != nil {
				logger.GetOrCreateLoggerFromCtx(ctx).Warn(ctx, "failed to encode summary event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: summary\ndata: %s\n\n", data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
