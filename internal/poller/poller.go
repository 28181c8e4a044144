package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"go.uber.org/zap"
)

const DefaultInterval = 3 * time.Second

// ErrInactive is returned when the poll stopped because it no longer applies
// (the selected payment method is not a gateway method any more).
var ErrInactive = errors.New("payment status poll is no longer active")

// StatusQuerier looks up the provider status code for an order code.
type StatusQuerier interface {
	Status(ctx context.Context, orderCode string) (string, error)
}

// PollingError is a failed tick. It is transient and never ends the poll.
type PollingError struct {
	OrderCode string
	Err       error
}

func (e *PollingError) Error() string {
	return fmt.Sprintf("payment status poll for %s failed: %v", e.OrderCode, e.Err)
}

func (e *PollingError) Unwrap() error {
	return e.Err
}

// StatusCodes holds the two provider codes that end a poll.
type StatusCodes struct {
	Success   string
	Cancelled string
}

// Classify maps a provider code; everything that is not terminal is pending.
func (c StatusCodes) Classify(code string) domain.PaymentStatus {
	switch code {
	case c.Success:
		return domain.PaymentStatusSuccess
	case c.Cancelled:
		return domain.PaymentStatusCancelled
	default:
		return domain.PaymentStatusPending
	}
}

type Poller struct {
	interval time.Duration
	querier  StatusQuerier
	codes    StatusCodes
	// active is consulted before every tick; nil means always active
	active func() bool
	// onTick observes every classified tick, used for metrics
	onTick func(domain.PaymentStatus)
}

type Option func(*Poller)

func WithActive(active func() bool) Option {
	return func(p *Poller) { p.active = active }
}

func WithTickObserver(onTick func(domain.PaymentStatus)) Option {
	return func(p *Poller) { p.onTick = onTick }
}

func New(querier StatusQuerier, codes StatusCodes, interval time.Duration, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		interval: interval,
		querier:  querier,
		codes:    codes,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until a terminal status is seen, the poll becomes inactive or ctx
// is cancelled. There is no attempt limit and no backoff.
func (p *Poller) Run(ctx context.Context, orderCode string) (domain.PaymentStatus, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log := logger.GetOrCreateLoggerFromCtx(ctx)
	for {
		select {
		case <-ctx.Done():
			return domain.PaymentStatusPending, ctx.Err()
		case <-ticker.C:
			if p.active != nil && !p.active() {
				return domain.PaymentStatusPending, ErrInactive
			}

			code, err := p.querier.Status(ctx, orderCode)
			if err != nil {
				if ctx.Err() != nil {
					return domain.PaymentStatusPending, ctx.Err()
				}
				log.Warn(ctx, "payment status tick failed",
					zap.Error(&PollingError{OrderCode: orderCode, Err: err}))
				continue
			}

			status := p.codes.Classify(code)
			if p.onTick != nil {
				p.onTick(status)
			}
			if status.IsTerminal() {
				log.Info(ctx, "payment reached terminal status",
					zap.String("order_code", orderCode),
					zap.String("status", string(status)),
					zap.String("provider_code", code))
				return status, nil
			}
		}
	}
}
