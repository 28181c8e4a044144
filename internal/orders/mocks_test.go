package orders

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/checkout-service/domain"
)

type mockOrderRepository struct {
	mu        sync.Mutex
	orders    map[string]*Order
	createErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[string]*Order)}
}

func (m *mockOrderRepository) CreateOrder(_ context.Context, order *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.orders[order.OrderCode]; ok {
		return ErrDuplicateOrder
	}
	stored := *order
	m.orders[order.OrderCode] = &stored
	return nil
}

func (m *mockOrderRepository) GetOrderByCode(_ context.Context, orderCode string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderCode]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) RunMigrations(*Credentials) error { return nil }
func (m *mockOrderRepository) Close() error                     { return nil }

type mockAddressRepository struct {
	mu        sync.Mutex
	addresses map[string]domain.AddressDetails
	upsertErr error
}

func newMockAddressRepository() *mockAddressRepository {
	return &mockAddressRepository{addresses: make(map[string]domain.AddressDetails)}
}

func (m *mockAddressRepository) UpsertAddress(_ context.Context, address domain.AddressDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.addresses[address.OrderCode] = address
	return nil
}

func (m *mockAddressRepository) GetAddressByCode(_ context.Context, orderCode string) (*domain.AddressDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	address, ok := m.addresses[orderCode]
	if !ok {
		return nil, ErrAddressNotFound
	}
	return &address, nil
}
