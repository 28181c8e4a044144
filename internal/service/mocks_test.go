package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/checkout-service/domain"
)

type initiateCall struct {
	TotalAmount float64
	Description string
	OrderCode   string
}

type mockGateway struct {
	mu          sync.Mutex
	redirectURL string
	initiateErr error
	// block, when set, holds Initiate until it is closed
	block     chan struct{}
	initiated []initiateCall

	codes       []string
	statusCalls int
}

func (m *mockGateway) Initiate(_ context.Context, totalAmount float64, description, orderCode string) (string, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initiated = append(m.initiated, initiateCall{totalAmount, description, orderCode})
	if m.initiateErr != nil {
		return "", m.initiateErr
	}
	return m.redirectURL, nil
}

func (m *mockGateway) Status(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if len(m.codes) == 0 {
		return "0001", nil
	}
	code := m.codes[0]
	if len(m.codes) > 1 {
		m.codes = m.codes[1:]
	}
	return code, nil
}

func (m *mockGateway) setCodes(codes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = codes
}

func (m *mockGateway) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

func (m *mockGateway) Initiated() []initiateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]initiateCall(nil), m.initiated...)
}

type mockOrders struct {
	mu         sync.Mutex
	details    []domain.CheckoutDetails
	addresses  []domain.AddressDetails
	submitErr  error
	addressErr error
	// entered is signalled and block waited on before SubmitOrder does anything
	entered chan struct{}
	block   chan struct{}
}

func (m *mockOrders) SubmitOrder(ctx context.Context, details domain.CheckoutDetails) (*domain.OrderRecord, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.details = append(m.details, details)
	return &domain.OrderRecord{
		ID:          fmt.Sprintf("order-%d", len(m.details)),
		OrderCode:   details.OrderCode,
		CustomerID:  details.CustomerID,
		TotalAmount: details.TotalAmount,
		PaymentMode: details.PaymentMode,
		Status:      domain.OrderStatusReceived,
	}, nil
}

func (m *mockOrders) UpdateDeliveryAddress(ctx context.Context, address domain.AddressDetails) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addressErr != nil {
		return m.addressErr
	}
	m.addresses = append(m.addresses, address)
	return nil
}

func (m *mockOrders) Submitted() []domain.CheckoutDetails {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CheckoutDetails(nil), m.details...)
}

func (m *mockOrders) Addresses() []domain.AddressDetails {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AddressDetails(nil), m.addresses...)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.CheckoutCompletedEvent
	err    error
}

func (m *mockPublisher) PublishCheckoutCompleted(_ context.Context, event domain.CheckoutCompletedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockPublisher) Events() []domain.CheckoutCompletedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CheckoutCompletedEvent(nil), m.events...)
}

type recordingObserver struct {
	mu          sync.Mutex
	transitions []string
	validation  []error
	ticks       map[domain.PaymentStatus]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{ticks: make(map[domain.PaymentStatus]int)}
}

func (o *recordingObserver) ObserveTransition(from, to domain.CheckoutState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, fmt.Sprintf("%s->%s", from, to))
}

func (o *recordingObserver) ObserveValidationFailure(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.validation = append(o.validation, err)
}

func (o *recordingObserver) ObservePollTick(status domain.PaymentStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ticks[status]++
}

func (o *recordingObserver) Transitions() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.transitions...)
}
