package service

import (
	"context"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/internal/poller"
	"github.com/fjod/go_cart/checkout-service/internal/store"
)

const DefaultCompletionTimeout = 30 * time.Second

// PaymentGateway is the hosted payment provider.
type PaymentGateway interface {
	Initiate(ctx context.Context, totalAmount float64, description, orderCode string) (string, error)
	Status(ctx context.Context, orderCode string) (string, error)
}

// OrderSubmitter is the order submission service.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, details domain.CheckoutDetails) (*domain.OrderRecord, error)
	UpdateDeliveryAddress(ctx context.Context, address domain.AddressDetails) error
}

type EventPublisher interface {
	PublishCheckoutCompleted(ctx context.Context, event domain.CheckoutCompletedEvent) error
}

// Observer receives checkout lifecycle signals, used for metrics.
type Observer interface {
	ObserveTransition(from, to domain.CheckoutState)
	ObserveValidationFailure(err error)
	ObservePollTick(status domain.PaymentStatus)
}

type noopObserver struct{}

func (noopObserver) ObserveTransition(domain.CheckoutState, domain.CheckoutState) {}
func (noopObserver) ObserveValidationFailure(error)                              {}
func (noopObserver) ObservePollTick(domain.PaymentStatus)                        {}

type Dependencies struct {
	Store     store.SessionStore
	Gateway   PaymentGateway
	Orders    OrderSubmitter
	Publisher EventPublisher // optional
	Observer  Observer       // optional

	StatusCodes      poller.StatusCodes
	PollInterval     time.Duration
	CartSyncInterval time.Duration
	// IdleTimeout evicts sessions that saw no request for this long and are
	// not awaiting a payment. Zero disables eviction.
	IdleTimeout time.Duration
	// CompletionTimeout bounds finishing a confirmed payment. That work is
	// not cancelled by shutdown, Close waits for it instead.
	CompletionTimeout time.Duration

	NewOrderCode domain.OrderCodeGenerator
	Now          func() time.Time
}

func (d *Dependencies) setDefaults() {
	if d.Observer == nil {
		d.Observer = noopObserver{}
	}
	if d.PollInterval <= 0 {
		d.PollInterval = poller.DefaultInterval
	}
	if d.CompletionTimeout <= 0 {
		d.CompletionTimeout = DefaultCompletionTimeout
	}
	if d.NewOrderCode == nil {
		d.NewOrderCode = domain.NewOrderCode
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// Session is what transports see of a per-session checkout.
type Session interface {
	Summary(ctx context.Context) (*Summary, error)
	SelectPaymentMethod(ctx context.Context, method domain.PaymentMethod) error
	Submit(ctx context.Context, req SubmitRequest) (*Result, error)
	Resume(ctx context.Context) (*Result, error)
	Abandon(ctx context.Context) error
	Status() StatusView
	Subscribe() (<-chan Summary, func())
}

type SubmitRequest struct {
	// PaymentMethod overrides the current selection when set
	PaymentMethod          domain.PaymentMethod `json:"payment_method"`
	RecipientName          string               `json:"recipient_name"`
	RecipientContactNumber string               `json:"recipient_contact_number"`
	PaymentAccountNumber   string               `json:"payment_account_number"`
	OrderNote              string               `json:"order_note"`
	GeoLocation            string               `json:"geo_location"`
}

// Result is the outcome of Submit or Resume. RedirectURL is set while a
// gateway payment awaits confirmation.
type Result struct {
	State       domain.CheckoutState `json:"state"`
	OrderCode   string               `json:"order_code,omitempty"`
	RedirectURL string               `json:"redirect_url,omitempty"`
	Navigation  domain.Navigation    `json:"navigation"`
}

type Summary struct {
	Items            []domain.CartItem      `json:"items"`
	Subtotal         float64                `json:"subtotal"`
	Delivery         domain.DeliveryInfo    `json:"delivery"`
	Total            float64                `json:"total"`
	AccountType      domain.AccountType     `json:"account_type"`
	AvailableMethods []domain.PaymentMethod `json:"available_payment_methods"`
	SelectedMethod   domain.PaymentMethod   `json:"selected_payment_method"`
	State            domain.CheckoutState   `json:"state"`
	Navigation       domain.Navigation      `json:"navigation"`
}

type StatusView struct {
	State          domain.CheckoutState   `json:"state"`
	SelectedMethod domain.PaymentMethod   `json:"selected_payment_method"`
	Payment        *domain.PaymentSession `json:"payment,omitempty"`
	Navigation     domain.Navigation      `json:"navigation"`
	LastError      string                 `json:"last_error,omitempty"`
}
