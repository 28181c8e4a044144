package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/internal/gateway"
	"github.com/fjod/go_cart/checkout-service/internal/service"
)

// --- helpers ---

func withSession(r *http.Request, sessionID string) *http.Request {
	ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
	return r.WithContext(ctx)
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

// --- GetSummary ---

func TestGetSummary_Success(t *testing.T) {
	session := &mockSession{summary: &service.Summary{
		Items:    []domain.CartItem{{ProductID: "p1", ProductName: "Rice", UnitPrice: 10, Quantity: 2}},
		Subtotal: 20,
		Delivery: domain.DeliveryInfo{Address: "Osu (Accra)", Fee: 15},
		Total:    35,
		State:    domain.CheckoutStateIdle,
	}}
	provider := &mockProvider{session: session}
	handler := NewCheckoutHandler(provider, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/v1/checkout", nil), "s1")

	handler.GetSummary(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	var resp service.Summary
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 35 {
		t.Errorf("expected total 35, got %f", resp.Total)
	}
	if len(provider.opened) != 1 || provider.opened[0] != "s1" {
		t.Errorf("expected session s1 to be opened, got %v", provider.opened)
	}
}

func TestGetSummary_ManagerClosed(t *testing.T) {
	provider := &mockProvider{err: service.ErrManagerClosed}
	handler := NewCheckoutHandler(provider, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/v1/checkout", nil), "s1")

	handler.GetSummary(recorder, request)

	if recorder.Code != http.StatusServiceUnavailable {
		t.Errorf("expected %d, got %d", http.StatusServiceUnavailable, recorder.Code)
	}
}

// --- SelectPaymentMethod ---

func TestSelectPaymentMethod_Success(t *testing.T) {
	session := &mockSession{status: service.StatusView{
		State:          domain.CheckoutStateIdle,
		SelectedMethod: domain.PaymentMethodMobileMoney,
	}}
	handler := NewCheckoutHandler(&mockProvider{session: session}, 5*time.Second)

	recorder := httptest.NewRecorder()
	body := strings.NewReader(`{"payment_method":"mobile_money"}`)
	request := withSession(httptest.NewRequest("PUT", "/api/v1/checkout/payment-method", body), "s1")

	handler.SelectPaymentMethod(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	if session.selected != domain.PaymentMethodMobileMoney {
		t.Errorf("expected mobile money to be selected, got %v", session.selected)
	}
}

func TestSelectPaymentMethod_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "invalid json", body: `{`, code: "invalid_request"},
		{name: "unknown method", body: `{"payment_method":"barter"}`, code: "invalid_request"},
		{name: "missing method", body: `{}`, code: "missing_payment_method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{session: &mockSession{}}
			handler := NewCheckoutHandler(provider, 5*time.Second)

			recorder := httptest.NewRecorder()
			request := withSession(httptest.NewRequest("PUT", "/api/v1/checkout/payment-method", strings.NewReader(tt.body)), "s1")

			handler.SelectPaymentMethod(recorder, request)

			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
			}
			if resp := decodeError(t, recorder); resp.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, resp.Code)
			}
			if len(provider.opened) != 0 {
				t.Error("session must not be opened for a bad request")
			}
		})
	}
}

// --- Submit ---

func TestSubmit_DirectCompleted(t *testing.T) {
	session := &mockSession{result: &service.Result{
		State:      domain.CheckoutStateCompleted,
		OrderCode:  "ORD-1",
		Navigation: domain.Navigation{View: domain.NavigationOrderReceived, OrderID: "order-1"},
	}}
	handler := NewCheckoutHandler(&mockProvider{session: session}, 5*time.Second)

	recorder := httptest.NewRecorder()
	body := strings.NewReader(`{"payment_method":"cash_on_delivery","recipient_name":"Ama","recipient_contact_number":"0240000000"}`)
	request := withSession(httptest.NewRequest("POST", "/api/v1/checkout", body), "s1")

	handler.Submit(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected %d, got %d", http.StatusCreated, recorder.Code)
	}
	if len(session.submitted) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(session.submitted))
	}
	req := session.submitted[0]
	if req.PaymentMethod != domain.PaymentMethodCashOnDelivery {
		t.Errorf("expected cash on delivery, got %v", req.PaymentMethod)
	}
	if req.RecipientName != "Ama" {
		t.Errorf("expected recipient 'Ama', got %q", req.RecipientName)
	}

	var resp service.Result
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Navigation.View != domain.NavigationOrderReceived {
		t.Errorf("expected order_received navigation, got %q", resp.Navigation.View)
	}
}

func TestSubmit_GatewayAccepted(t *testing.T) {
	session := &mockSession{result: &service.Result{
		State:       domain.CheckoutStateAwaitingConfirmation,
		OrderCode:   "ORD-2",
		RedirectURL: "https://pay.example.com/checkout/abc",
	}}
	handler := NewCheckoutHandler(&mockProvider{session: session}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(`{}`)), "s1")

	handler.Submit(recorder, request)

	if recorder.Code != http.StatusAccepted {
		t.Fatalf("expected %d, got %d", http.StatusAccepted, recorder.Code)
	}
	var resp service.Result
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.RedirectURL != "https://pay.example.com/checkout/abc" {
		t.Errorf("unexpected redirect url %q", resp.RedirectURL)
	}
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "validation",
			err:    &service.ValidationError{Err: service.ErrEmptyCart},
			status: http.StatusUnprocessableEntity,
			code:   "validation_failed",
		},
		{
			name:   "in flight",
			err:    service.ErrSubmissionInFlight,
			status: http.StatusConflict,
			code:   "submission_in_flight",
		},
		{
			name:   "gateway",
			err:    &gateway.GatewayError{Op: "initiate", StatusCode: 500, Err: gateway.ErrUnsuccessfulStatus},
			status: http.StatusBadGateway,
			code:   "payment_gateway_error",
		},
		{
			name:   "partial order",
			err:    &service.ServiceError{Op: "update address", Partial: true, Err: errors.New("mongo down")},
			status: http.StatusBadGateway,
			code:   "order_partially_saved",
		},
		{
			name:   "order service",
			err:    &service.ServiceError{Op: "submit order", Err: errors.New("postgres down")},
			status: http.StatusBadGateway,
			code:   "order_service_error",
		},
		{
			name:   "timeout",
			err:    context.DeadlineExceeded,
			status: http.StatusGatewayTimeout,
			code:   "timeout",
		},
		{
			name:   "unknown",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &mockSession{err: tt.err}
			handler := NewCheckoutHandler(&mockProvider{session: session}, 5*time.Second)

			recorder := httptest.NewRecorder()
			request := withSession(httptest.NewRequest("POST", "/api/v1/checkout", strings.NewReader(`{}`)), "s1")

			handler.Submit(recorder, request)

			if recorder.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, recorder.Code)
			}
			if resp := decodeError(t, recorder); resp.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, resp.Code)
			}
		})
	}
}

// --- Status, Resume, Abandon ---

func TestGetStatus(t *testing.T) {
	session := &mockSession{status: service.StatusView{
		State:   domain.CheckoutStateAwaitingConfirmation,
		Payment: &domain.PaymentSession{OrderCode: "ORD-3"},
	}}
	handler := NewCheckoutHandler(&mockProvider{session: session}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/v1/checkout/status", nil), "s1")

	handler.GetStatus(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	var resp service.StatusView
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.State != domain.CheckoutStateAwaitingConfirmation {
		t.Errorf("expected awaiting state, got %q", resp.State)
	}
	if resp.Payment == nil || resp.Payment.OrderCode != "ORD-3" {
		t.Errorf("expected payment for ORD-3, got %+v", resp.Payment)
	}
}

func TestResume_NothingToResume(t *testing.T) {
	session := &mockSession{err: service.ErrNothingToResume}
	handler := NewCheckoutHandler(&mockProvider{session: session}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/v1/checkout/resume", nil), "s1")

	handler.Resume(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestAbandon_ClosesSession(t *testing.T) {
	session := &mockSession{}
	provider := &mockProvider{session: session}
	handler := NewCheckoutHandler(provider, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("DELETE", "/api/v1/checkout", nil), "s1")

	handler.Abandon(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if !session.abandoned {
		t.Error("expected session to be abandoned")
	}
	if len(provider.closed) != 1 || provider.closed[0] != "s1" {
		t.Errorf("expected session s1 to be closed, got %v", provider.closed)
	}
}

// --- Events ---

func TestEvents_StreamsUntilChannelCloses(t *testing.T) {
	updates := make(chan service.Summary, 2)
	updates <- service.Summary{Total: 42, State: domain.CheckoutStateIdle}
	close(updates)

	handler := NewCheckoutHandler(&mockProvider{session: &mockSession{updates: updates}}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/v1/checkout/events", nil), "s1")

	done := make(chan struct{})
	go func() {
		handler.Events(recorder, request)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not end after the channel closed")
	}

	if ct := recorder.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "event: summary\n") {
		t.Errorf("expected summary event, got %q", body)
	}
	if !strings.Contains(body, `"total":42`) {
		t.Errorf("expected summary payload, got %q", body)
	}
}

func TestEvents_StopsOnClientDisconnect(t *testing.T) {
	updates := make(chan service.Summary)
	handler := NewCheckoutHandler(&mockProvider{session: &mockSession{updates: updates}}, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/v1/checkout/events", nil).WithContext(ctx), "s1")

	done := make(chan struct{})
	go func() {
		handler.Events(recorder, request)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not end after the client went away")
	}
}
