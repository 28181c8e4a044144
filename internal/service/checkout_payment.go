package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/internal/gateway"
	"github.com/fjod/go_cart/checkout-service/internal/poller"
	"github.com/fjod/go_cart/checkout-service/internal/store"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"go.uber.org/zap"
)

// submitGateway stages the order before calling the provider so a reload can
// pick the confirmation back up. The pending order code is only recorded once
// the provider has accepted the payment.
func (c *Checkout) submitGateway(
	ctx context.Context,
	details domain.CheckoutDetails,
	address domain.AddressDetails,
	snapshot domain.CartSnapshot) (*Result, error) {

	log := logger.GetOrCreateLoggerFromCtx(ctx)
	if err := c.transition(domain.CheckoutStateGatewayInitiation); err != nil {
		return nil, c.fail(domain.CheckoutStateFailed, err)
	}

	staged := &domain.StagedCheckout{Details: details, Address: address}
	if err := c.deps.Store.StageCheckout(ctx, c.sessionID, staged); err != nil {
		return nil, c.fail(domain.CheckoutStateIdle, fmt.Errorf("stage checkout: %w", err))
	}

	redirectURL, err := c.deps.Gateway.Initiate(ctx, details.TotalAmount, gateway.Describe(snapshot), details.OrderCode)
	if err != nil {
		log.Warn(ctx, "payment initiation failed",
			zap.String("session_id", c.sessionID),
			zap.String("order_code", details.OrderCode),
			zap.Error(err))
		return nil, c.fail(domain.CheckoutStateIdle, err)
	}

	if err := c.deps.Store.SetPendingOrderCode(ctx, c.sessionID, details.OrderCode, redirectURL); err != nil {
		return nil, c.fail(domain.CheckoutStateIdle, fmt.Errorf("record pending order: %w", err))
	}

	log.Info(ctx, "awaiting payment confirmation",
		zap.String("session_id", c.sessionID),
		zap.String("order_code", details.OrderCode))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	c.navigation = domain.Navigation{}
	c.payment = &domain.PaymentSession{
		OrderCode:          details.OrderCode,
		GatewayRedirectURL: redirectURL,
		Status:             domain.PaymentStatusPending,
	}
	if err := c.transitionLocked(domain.CheckoutStateAwaitingConfirmation); err != nil {
		return nil, err
	}
	c.startPollLocked(details.OrderCode)
	return c.resultLocked(), nil
}

// Resume re-enters AwaitingConfirmation for a payment staged by an earlier
// request, e.g. after the user came back from the hosted payment page.
func (c *Checkout) Resume(ctx context.Context) (*Result, error) {
	c.touch()

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if c.state == domain.CheckoutStateAwaitingConfirmation {
		result := c.resultLocked()
		c.mu.Unlock()
		return result, nil
	}
	c.submitting = true
	c.mu.Unlock()

	orderCode, staged, err := c.loadPending(ctx)
	if err != nil {
		c.release()
		return nil, err
	}
	method, err := domain.ParsePaymentMethod(staged.Details.PaymentMode)
	if err != nil || !method.IsGateway() {
		c.release()
		return nil, ErrNothingToResume
	}
	redirectURL, err := c.deps.Store.GetPendingRedirectURL(ctx, c.sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.GetOrCreateLoggerFromCtx(ctx).Warn(ctx, "payment redirect url unavailable",
			zap.String("session_id", c.sessionID), zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if c.state.IsTerminal() {
		if err := c.transitionLocked(domain.CheckoutStateIdle); err != nil {
			return nil, err
		}
	}
	c.method = method
	c.lastErr = nil
	c.navigation = domain.Navigation{}
	c.payment = &domain.PaymentSession{
		OrderCode:          orderCode,
		GatewayRedirectURL: redirectURL,
		Status:             domain.PaymentStatusPending,
	}
	if err := c.transitionLocked(domain.CheckoutStateAwaitingConfirmation); err != nil {
		return nil, err
	}
	c.startPollLocked(orderCode)

	logger.GetOrCreateLoggerFromCtx(ctx).Info(ctx, "payment confirmation resumed",
		zap.String("session_id", c.sessionID),
		zap.String("order_code", orderCode))
	return c.resultLocked(), nil
}

// Abandon stops the poll, drops the pending payment and returns to Idle.
func (c *Checkout) Abandon(ctx context.Context) error {
	c.touch()

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.stopPollLocked()
	c.submitting = true
	c.mu.Unlock()

	err := errors.Join(
		c.deps.Store.ClearPendingOrderCode(ctx, c.sessionID),
		c.deps.Store.ClearStagedCheckout(ctx, c.sessionID),
	)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	c.payment = nil
	c.navigation = domain.Navigation{}
	c.lastErr = nil
	if tErr := c.transitionLocked(domain.CheckoutStateIdle); tErr != nil {
		err = errors.Join(err, tErr)
	}
	return err
}

func (c *Checkout) loadPending(ctx context.Context) (string, *domain.StagedCheckout, error) {
	orderCode, err := c.deps.Store.GetPendingOrderCode(ctx, c.sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrNothingToResume
	}
	if err != nil {
		return "", nil, fmt.Errorf("read pending order: %w", err)
	}

	staged, err := c.deps.Store.GetStagedCheckout(ctx, c.sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrNothingToResume
	}
	if err != nil {
		return "", nil, fmt.Errorf("read staged checkout: %w", err)
	}
	if staged.Details.OrderCode != orderCode {
		return "", nil, ErrNothingToResume
	}
	return orderCode, staged, nil
}

func (c *Checkout) startPollLocked(orderCode string) {
	c.stopPollLocked()
	if c.ctx.Err() != nil {
		return
	}

	pollCtx, cancel := context.WithCancel(c.ctx)
	c.pollCancel = cancel
	p := poller.New(c.deps.Gateway, c.deps.StatusCodes, c.deps.PollInterval,
		poller.WithActive(c.pollActive),
		poller.WithTickObserver(c.deps.Observer.ObservePollTick))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		status, err := p.Run(pollCtx, orderCode)
		c.onPollDone(orderCode, status, err)
	}()
}

func (c *Checkout) stopPollLocked() {
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
}

func (c *Checkout) pollActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method.IsGateway()
}

func (c *Checkout) onPollDone(orderCode string, status domain.PaymentStatus, err error) {
	c.mu.Lock()
	current := c.state == domain.CheckoutStateAwaitingConfirmation &&
		c.payment != nil && c.payment.OrderCode == orderCode
	if !current || c.submitting {
		c.mu.Unlock()
		return
	}
	if err != nil {
		if errors.Is(err, poller.ErrInactive) {
			c.pollCancel = nil
			_ = c.transitionLocked(domain.CheckoutStateIdle)
		}
		c.mu.Unlock()
		return
	}
	// a terminal status is acted on even when the checkout is closing
	c.submitting = true
	c.pollCancel = nil
	c.payment.Status = status
	c.mu.Unlock()

	switch status {
	case domain.PaymentStatusSuccess:
		c.confirmPayment(orderCode)
	case domain.PaymentStatusCancelled:
		c.cancelPayment(orderCode)
	case domain.PaymentStatusPending:
		c.release()
	}
}

// confirmPayment finishes the order from the staged details once the
// provider reports success.
func (c *Checkout) confirmPayment(orderCode string) {
	ctx, cancel := c.completionContext()
	defer cancel()
	log := logger.GetOrCreateLoggerFromCtx(ctx)

	staged, err := c.deps.Store.GetStagedCheckout(ctx, c.sessionID)
	if err != nil {
		_ = c.fail(domain.CheckoutStateFailed, fmt.Errorf("load staged checkout: %w", err))
		return
	}
	if staged.Details.OrderCode != orderCode {
		_ = c.fail(domain.CheckoutStateFailed,
			fmt.Errorf("staged checkout %s does not match paid order %s", staged.Details.OrderCode, orderCode))
		return
	}

	snapshot, err := c.reader.Read(ctx, c.sessionID)
	if err != nil {
		log.Warn(ctx, "cart unavailable for completion event", zap.Error(err))
	}

	record, err := c.completeOrder(ctx, staged.Details, staged.Address, snapshot)
	if record != nil {
		// the order exists, resuming must not submit it twice
		if clearErr := errors.Join(
			c.deps.Store.ClearStagedCheckout(ctx, c.sessionID),
			c.deps.Store.ClearPendingOrderCode(ctx, c.sessionID),
		); clearErr != nil {
			log.Warn(ctx, "failed to clear pending payment", zap.Error(clearErr))
		}
	}
	if err != nil {
		log.Error(ctx, "order submission after payment failed",
			zap.String("session_id", c.sessionID),
			zap.String("order_code", orderCode),
			zap.Error(err))
		_ = c.fail(domain.CheckoutStateFailed, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	c.navigation = domain.Navigation{View: domain.NavigationSuccess, OrderID: record.ID}
	_ = c.transitionLocked(domain.CheckoutStateCompleted)
}

func (c *Checkout) cancelPayment(orderCode string) {
	ctx, cancel := c.completionContext()
	defer cancel()
	if err := errors.Join(
		c.deps.Store.ClearPendingOrderCode(ctx, c.sessionID),
		c.deps.Store.ClearStagedCheckout(ctx, c.sessionID),
	); err != nil {
		logger.GetOrCreateLoggerFromCtx(ctx).Warn(ctx, "failed to clear pending payment",
			zap.String("order_code", orderCode), zap.Error(err))
	}
	logger.GetOrCreateLoggerFromCtx(ctx).Info(ctx, "payment cancelled",
		zap.String("session_id", c.sessionID),
		zap.String("order_code", orderCode))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	c.navigation = domain.Navigation{View: domain.NavigationCancelled}
	_ = c.transitionLocked(domain.CheckoutStateCancelled)
}

// completionContext outlives the checkout: once the provider has taken the
// money the order is written even if the checkout is closing.
func (c *Checkout) completionContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.ctx), c.deps.CompletionTimeout)
}

func (c *Checkout) release() {
	c.mu.Lock()
	c.submitting = false
	c.mu.Unlock()
}
