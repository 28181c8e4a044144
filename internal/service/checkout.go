package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/internal/cart"
	"github.com/fjod/go_cart/checkout-service/internal/store"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"go.uber.org/zap"
)

// Checkout is the orchestrator for one session. Decisions always re-read the
// session store; the cached cart and delivery views only feed Subscribe.
type Checkout struct {
	sessionID string
	deps      *Dependencies
	reader    *cart.Reader

	// ctx lives as long as the checkout; timers and the poll run under it
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       domain.CheckoutState
	method      domain.PaymentMethod
	payment     *domain.PaymentSession
	navigation  domain.Navigation
	lastErr     error
	submitting  bool
	pollCancel  context.CancelFunc
	lastSeen    time.Time
	cartView    domain.CartSnapshot
	delivery    domain.DeliveryInfo
	accountType domain.AccountType
	subscribers map[chan Summary]struct{}
}

func newCheckout(parent context.Context, sessionID string, deps *Dependencies, reader *cart.Reader) *Checkout {
	ctx, cancel := context.WithCancel(parent)
	return &Checkout{
		sessionID:   sessionID,
		deps:        deps,
		reader:      reader,
		ctx:         ctx,
		cancel:      cancel,
		state:       domain.CheckoutStateIdle,
		accountType: domain.AccountTypeCustomer,
		lastSeen:    deps.Now(),
		subscribers: make(map[chan Summary]struct{}),
	}
}

// start launches the cart-sync timer and the delivery change subscription.
func (c *Checkout) start() error {
	updates, err := c.deps.Store.SubscribeDeliveryInfo(c.ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("subscribe delivery info: %w", err)
	}

	if info, err := c.deps.Store.GetDeliveryInfo(c.ctx, c.sessionID); err == nil {
		c.setDeliveryView(*info)
	}
	if customer, err := c.deps.Store.GetCustomer(c.ctx, c.sessionID); err == nil {
		c.mu.Lock()
		c.accountType = customer.AccountType
		c.mu.Unlock()
	}

	watcher := cart.NewWatcher(c.reader, c.sessionID, c.deps.CartSyncInterval, c.setCartView)
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		watcher.Run(c.ctx)
	}()
	go func() {
		defer c.wg.Done()
		for info := range updates {
			c.setDeliveryView(info)
		}
	}()
	return nil
}

// Close stops every timer, the delivery subscription and an active poll. A
// payment already confirmed by the provider is written before it returns.
func (c *Checkout) Close() {
	c.mu.Lock()
	c.stopPollLocked()
	c.cancel()
	c.mu.Unlock()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, ch)
	}
}

func (c *Checkout) SessionID() string {
	return c.sessionID
}

// Summary reads cart, delivery and customer fresh from the store.
func (c *Checkout) Summary(ctx context.Context) (*Summary, error) {
	c.touch()

	snapshot, info, customer, err := c.readInputs(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cartView = snapshot
	c.delivery = info
	if customer != nil {
		c.accountType = customer.AccountType
	}
	summary := c.summaryLocked()
	return &summary, nil
}

// SelectPaymentMethod records the selection. Leaving the gateway methods
// stops a running payment poll and returns the checkout to Idle.
func (c *Checkout) SelectPaymentMethod(ctx context.Context, method domain.PaymentMethod) error {
	c.touch()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrSubmissionInFlight
	}
	c.method = method
	if !method.IsGateway() && c.state == domain.CheckoutStateAwaitingConfirmation {
		c.stopPollLocked()
		if err := c.transitionLocked(domain.CheckoutStateIdle); err != nil {
			return err
		}
		logger.GetOrCreateLoggerFromCtx(ctx).Info(ctx, "payment poll stopped by method change",
			zap.String("session_id", c.sessionID),
			zap.String("payment_method", method.String()))
	}
	c.notifyLocked()
	return nil
}

func (c *Checkout) Status() StatusView {
	c.touch()

	c.mu.Lock()
	defer c.mu.Unlock()
	view := StatusView{
		State:          c.state,
		SelectedMethod: c.method,
		Navigation:     c.navigation,
	}
	if c.payment != nil {
		payment := *c.payment
		view.Payment = &payment
	}
	if c.lastErr != nil {
		view.LastError = c.lastErr.Error()
	}
	return view
}

// Subscribe streams summaries built from the cached views whenever the cart,
// the delivery info or the state changes. Slow readers only see the latest.
func (c *Checkout) Subscribe() (<-chan Summary, func()) {
	ch := make(chan Summary, 1)

	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	ch <- c.summaryLocked()
	c.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subscribers[ch]; ok {
				delete(c.subscribers, ch)
				close(ch)
			}
		})
	}
	return ch, unsubscribe
}

func (c *Checkout) readInputs(ctx context.Context) (domain.CartSnapshot, domain.DeliveryInfo, *domain.Customer, error) {
	snapshot, err := c.reader.Read(ctx, c.sessionID)
	if err != nil {
		return domain.CartSnapshot{}, domain.DeliveryInfo{}, nil, fmt.Errorf("read cart: %w", err)
	}

	var info domain.DeliveryInfo
	stored, err := c.deps.Store.GetDeliveryInfo(ctx, c.sessionID)
	switch {
	case err == nil:
		info = *stored
	case !errors.Is(err, store.ErrNotFound):
		return domain.CartSnapshot{}, domain.DeliveryInfo{}, nil, fmt.Errorf("read delivery info: %w", err)
	}

	customer, err := c.deps.Store.GetCustomer(ctx, c.sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.CartSnapshot{}, domain.DeliveryInfo{}, nil, fmt.Errorf("read customer: %w", err)
	}
	return snapshot, info, customer, nil
}

func (c *Checkout) setCartView(snapshot domain.CartSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cartView = snapshot
	c.notifyLocked()
}

func (c *Checkout) setDeliveryView(info domain.DeliveryInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivery = info
	c.notifyLocked()
}

func (c *Checkout) summaryLocked() Summary {
	return Summary{
		Items:            c.cartView.Items,
		Subtotal:         c.cartView.Subtotal(),
		Delivery:         c.delivery,
		Total:            Total(c.cartView, c.delivery),
		AccountType:      c.accountType,
		AvailableMethods: AvailableMethods(c.accountType, c.delivery.Fee),
		SelectedMethod:   c.method,
		State:            c.state,
		Navigation:       c.navigation,
	}
}

func (c *Checkout) notifyLocked() {
	if len(c.subscribers) == 0 {
		return
	}
	summary := c.summaryLocked()
	for ch := range c.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- summary
	}
}

func (c *Checkout) transitionLocked(to domain.CheckoutState) error {
	from := c.state
	if from == to {
		return nil
	}
	if !domain.CanTransitionTo(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	c.state = to
	c.deps.Observer.ObserveTransition(from, to)
	c.notifyLocked()
	return nil
}

func (c *Checkout) transition(to domain.CheckoutState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(to)
}

// fail records err, moves to state and clears the in-flight flag.
func (c *Checkout) fail(to domain.CheckoutState, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	c.submitting = false
	if tErr := c.transitionLocked(to); tErr != nil {
		return errors.Join(err, tErr)
	}
	return err
}

func (c *Checkout) touch() {
	now := c.deps.Now()
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *Checkout) idleSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	busy := c.submitting || c.state == domain.CheckoutStateAwaitingConfirmation
	return c.lastSeen, busy
}

func (c *Checkout) resultLocked() *Result {
	result := &Result{State: c.state, Navigation: c.navigation}
	if c.payment != nil {
		result.OrderCode = c.payment.OrderCode
		result.RedirectURL = c.payment.GatewayRedirectURL
	}
	return result
}
