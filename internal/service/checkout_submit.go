package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/internal/store"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"go.uber.org/zap"
)

// Submit runs one checkout attempt. Direct methods complete before it
// returns; gateway methods return the redirect URL and leave the checkout
// awaiting confirmation while the payment poll runs.
func (c *Checkout) Submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	c.touch()

	method, err := c.beginSubmission(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	snapshot, info, customer, err := c.readInputs(ctx)
	if err != nil {
		return nil, c.reject(err)
	}
	if err := validate(snapshot, info, customer, method); err != nil {
		c.deps.Observer.ObserveValidationFailure(err)
		return nil, c.reject(err)
	}

	if err := c.transition(domain.CheckoutStateBranching); err != nil {
		return nil, c.reject(err)
	}

	cartID, err := c.deps.Store.GetCartID(ctx, c.sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.GetOrCreateLoggerFromCtx(ctx).Warn(ctx, "cart id unavailable",
			zap.String("session_id", c.sessionID), zap.Error(err))
	}

	details, address := c.buildOrder(req, method, snapshot, info, customer, cartID)
	if method.IsGateway() {
		return c.submitGateway(ctx, details, address, snapshot)
	}
	return c.submitDirect(ctx, details, address, snapshot)
}

func (c *Checkout) beginSubmission(requested domain.PaymentMethod) (domain.PaymentMethod, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting || c.state == domain.CheckoutStateAwaitingConfirmation {
		return domain.PaymentMethodNone, ErrSubmissionInFlight
	}
	if c.state.IsTerminal() {
		if err := c.transitionLocked(domain.CheckoutStateIdle); err != nil {
			return domain.PaymentMethodNone, err
		}
		c.payment = nil
		c.navigation = domain.Navigation{}
	}
	if requested != domain.PaymentMethodNone {
		c.method = requested
	}
	if err := c.transitionLocked(domain.CheckoutStateValidating); err != nil {
		return domain.PaymentMethodNone, err
	}
	c.submitting = true
	c.lastErr = nil
	return c.method, nil
}

// reject ends an attempt that failed before branching: no side effects were made.
func (c *Checkout) reject(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	c.submitting = false
	_ = c.transitionLocked(domain.CheckoutStateValidationFailed)
	_ = c.transitionLocked(domain.CheckoutStateIdle)
	return err
}

func (c *Checkout) buildOrder(
	req SubmitRequest,
	method domain.PaymentMethod,
	snapshot domain.CartSnapshot,
	info domain.DeliveryInfo,
	customer *domain.Customer,
	cartID string) (domain.CheckoutDetails, domain.AddressDetails) {

	now := c.deps.Now()
	orderCode := c.deps.NewOrderCode(now)
	recipientName := firstNonEmpty(req.RecipientName, customer.Name)
	recipientContact := firstNonEmpty(req.RecipientContactNumber, customer.ContactNumber)
	note := strings.TrimSpace(req.OrderNote)

	details := domain.CheckoutDetails{
		CartID:                 cartID,
		CustomerID:             customer.ID,
		OrderCode:              orderCode,
		PaymentMode:            method.String(),
		PaymentAccountNumber:   strings.TrimSpace(req.PaymentAccountNumber),
		CustomerAccountType:    customer.AccountType,
		TotalAmount:            Total(snapshot, info),
		RecipientName:          recipientName,
		RecipientContactNumber: recipientContact,
		OrderNote:              note,
		OrderDate:              now,
	}
	address := domain.AddressDetails{
		OrderCode:              orderCode,
		Address:                info.Address,
		CustomerID:             customer.ID,
		RecipientName:          recipientName,
		RecipientContactNumber: recipientContact,
		OrderNote:              note,
		GeoLocation:            strings.TrimSpace(req.GeoLocation),
	}
	return details, address
}

func (c *Checkout) submitDirect(
	ctx context.Context,
	details domain.CheckoutDetails,
	address domain.AddressDetails,
	snapshot domain.CartSnapshot) (*Result, error) {

	if err := c.transition(domain.CheckoutStateDirectSubmission); err != nil {
		return nil, c.fail(domain.CheckoutStateFailed, err)
	}

	record, err := c.completeOrder(ctx, details, address, snapshot)
	if err != nil {
		logger.GetOrCreateLoggerFromCtx(ctx).Error(ctx, "direct order submission failed",
			zap.String("session_id", c.sessionID),
			zap.String("order_code", details.OrderCode),
			zap.Error(err))
		return nil, c.fail(domain.CheckoutStateFailed, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	c.payment = nil
	c.navigation = domain.Navigation{View: domain.NavigationOrderReceived, OrderID: record.ID}
	if err := c.transitionLocked(domain.CheckoutStateCompleted); err != nil {
		return nil, err
	}
	result := c.resultLocked()
	result.OrderCode = details.OrderCode
	return result, nil
}

// completeOrder stores the order and its address, then clears the cart and
// announces the completion. The record is returned even when only the
// address update failed, since the order exists by then.
func (c *Checkout) completeOrder(
	ctx context.Context,
	details domain.CheckoutDetails,
	address domain.AddressDetails,
	snapshot domain.CartSnapshot) (*domain.OrderRecord, error) {

	record, err := c.deps.Orders.SubmitOrder(ctx, details)
	if err != nil {
		return nil, &ServiceError{Op: "submit order", Err: err}
	}
	if err := c.deps.Orders.UpdateDeliveryAddress(ctx, address); err != nil {
		return record, &ServiceError{Op: "update delivery address", Partial: true, Err: err}
	}

	log := logger.GetOrCreateLoggerFromCtx(ctx)
	if err := c.deps.Store.ClearCart(ctx, c.sessionID); err != nil {
		log.Warn(ctx, "failed to clear cart after order",
			zap.String("session_id", c.sessionID), zap.Error(err))
	}

	if c.deps.Publisher != nil {
		event := domain.CheckoutCompletedEvent{
			OrderID:     record.ID,
			OrderCode:   details.OrderCode,
			CustomerID:  details.CustomerID,
			Items:       snapshot.Items,
			TotalAmount: details.TotalAmount,
			PaymentMode: details.PaymentMode,
			CompletedAt: c.deps.Now(),
		}
		if err := c.deps.Publisher.PublishCheckoutCompleted(ctx, event); err != nil {
			log.Warn(ctx, "failed to publish checkout completed",
				zap.String("order_code", details.OrderCode), zap.Error(err))
		}
	}

	log.Info(ctx, "checkout completed",
		zap.String("session_id", c.sessionID),
		zap.String("order_id", record.ID),
		zap.String("order_code", details.OrderCode),
		zap.String("payment_mode", details.PaymentMode))
	return record, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
