package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the order submission collaborator: orders go to Postgres,
// delivery addresses go to Mongo.
type Service struct {
	orders    OrderRepository
	addresses AddressRepository
	now       func() time.Time
}

func NewService(orders OrderRepository, addresses AddressRepository) *Service {
	return &Service{
		orders:    orders,
		addresses: addresses,
		now:       time.Now,
	}
}

func (s *Service) SubmitOrder(ctx context.Context, details domain.CheckoutDetails) (*domain.OrderRecord, error) {
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	method, err := domain.ParsePaymentMethod(details.PaymentMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	status := domain.OrderStatusReceived
	if method.IsGateway() {
		status = domain.OrderStatusPaid
	}

	orderDate := details.OrderDate
	if orderDate.IsZero() {
		orderDate = s.now()
	}

	order := &Order{
		ID:                     uuid.New(),
		OrderCode:              details.OrderCode,
		CartID:                 details.CartID,
		CustomerID:             details.CustomerID,
		CustomerAccountType:    details.CustomerAccountType,
		PaymentMode:            details.PaymentMode,
		PaymentAccountNumber:   details.PaymentAccountNumber,
		TotalAmount:            details.TotalAmount,
		RecipientName:          details.RecipientName,
		RecipientContactNumber: details.RecipientContactNumber,
		OrderNote:              details.OrderNote,
		Status:                 status,
		OrderDate:              orderDate,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order %s: %w", details.OrderCode, err)
	}

	logger.GetOrCreateLoggerFromCtx(ctx).Info(ctx, "order submitted",
		zap.String("order_id", order.ID.String()),
		zap.String("order_code", order.OrderCode),
		zap.String("status", string(order.Status)))

	return order.Record(), nil
}

func (s *Service) UpdateDeliveryAddress(ctx context.Context, address domain.AddressDetails) error {
	if address.OrderCode == "" {
		return fmt.Errorf("%w: missing order code", ErrInvalidOrder)
	}
	if strings.TrimSpace(address.Address) == "" {
		return fmt.Errorf("%w: missing address", ErrInvalidOrder)
	}

	if err := s.addresses.UpsertAddress(ctx, address); err != nil {
		return fmt.Errorf("update delivery address for %s: %w", address.OrderCode, err)
	}
	return nil
}

// OrderView is a stored order together with its delivery address, when one exists.
type OrderView struct {
	Order   *domain.OrderRecord    `json:"order"`
	Address *domain.AddressDetails `json:"address,omitempty"`
}

func (s *Service) GetOrderByCode(ctx context.Context, orderCode string) (*OrderView, error) {
	order, err := s.orders.GetOrderByCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}

	view := &OrderView{Order: order.Record()}
	address, err := s.addresses.GetAddressByCode(ctx, orderCode)
	switch {
	case err == nil:
		view.Address = address
	case errors.Is(err, ErrAddressNotFound):
		// order stored but the address write never landed
	default:
		return nil, err
	}
	return view, nil
}

func validateDetails(details domain.CheckoutDetails) error {
	switch {
	case details.OrderCode == "":
		return fmt.Errorf("%w: missing order code", ErrInvalidOrder)
	case details.CustomerID == "":
		return fmt.Errorf("%w: missing customer id", ErrInvalidOrder)
	case details.PaymentMode == "":
		return fmt.Errorf("%w: missing payment mode", ErrInvalidOrder)
	case details.TotalAmount < 0:
		return fmt.Errorf("%w: negative total", ErrInvalidOrder)
	}
	return nil
}
