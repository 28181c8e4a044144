package http

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/internal/orders"
	"github.com/fjod/go_cart/checkout-service/internal/service"
)

type mockSession struct {
	summary   *service.Summary
	result    *service.Result
	status    service.StatusView
	err       error
	updates   chan service.Summary
	submitted []service.SubmitRequest
	selected  domain.PaymentMethod
	abandoned bool
}

func (m *mockSession) Summary(context.Context) (*service.Summary, error) {
	return m.summary, m.err
}

func (m *mockSession) SelectPaymentMethod(_ context.Context, method domain.PaymentMethod) error {
	m.selected = method
	return m.err
}

func (m *mockSession) Submit(_ context.Context, req service.SubmitRequest) (*service.Result, error) {
	m.submitted = append(m.submitted, req)
	return m.result, m.err
}

func (m *mockSession) Resume(context.Context) (*service.Result, error) {
	return m.result, m.err
}

func (m *mockSession) Abandon(context.Context) error {
	m.abandoned = true
	return m.err
}

func (m *mockSession) Status() service.StatusView {
	return m.status
}

func (m *mockSession) Subscribe() (<-chan service.Summary, func()) {
	return m.updates, func() {}
}

type mockProvider struct {
	mu      sync.Mutex
	session *mockSession
	err     error
	opened  []string
	closed  []string
}

func (p *mockProvider) Session(_ context.Context, sessionID string) (service.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = append(p.opened, sessionID)
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

func (p *mockProvider) Close(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, sessionID)
}

type mockCustomers struct {
	customer *domain.Customer
	err      error
}

func (m mockCustomers) GetCustomer(context.Context, string) (*domain.Customer, error) {
	return m.customer, m.err
}

type mockDeliveryWriter struct {
	written []domain.DeliveryInfo
}

func (m *mockDeliveryWriter) SetDeliveryInfo(_ context.Context, _ string, info domain.DeliveryInfo) error {
	m.written = append(m.written, info)
	return nil
}

type mockOrderReader struct {
	view *orders.OrderView
	err  error
}

func (m mockOrderReader) GetOrderByCode(context.Context, string) (*orders.OrderView, error) {
	return m.view, m.err
}
