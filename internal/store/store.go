package store

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/checkout-service/domain"
)

var ErrNotFound = errors.New("key not found in session store")

// Session keys. They are scoped per checkout session.
const (
	KeyCart                = "cart"
	KeyCartID              = "cartId"
	KeyDeliveryInfo        = "deliveryInfo"
	KeyCustomer            = "customer"
	KeyPendingOrderID      = "pendingOrderId"
	KeyGatewayRedirectURL  = "gatewayRedirectUrl"
	KeyCheckoutDetails     = "checkoutDetails"
	KeyOrderAddressDetails = "orderAddressDetails"
)

// SessionStore is the typed view over the persisted session key-value store.
// Writes are last-writer-wins, there is no locking between writers.
type SessionStore interface {
	GetCart(ctx context.Context, sessionID string) (*domain.CartSnapshot, error)
	SetCart(ctx context.Context, sessionID string, cart *domain.CartSnapshot) error
	GetCartID(ctx context.Context, sessionID string) (string, error)
	SetCartID(ctx context.Context, sessionID, cartID string) error
	// ClearCart removes both the cart and its id
	ClearCart(ctx context.Context, sessionID string) error

	GetDeliveryInfo(ctx context.Context, sessionID string) (*domain.DeliveryInfo, error)
	// SetDeliveryInfo overwrites the stored value and notifies subscribers
	SetDeliveryInfo(ctx context.Context, sessionID string, info domain.DeliveryInfo) error
	SubscribeDeliveryInfo(ctx context.Context, sessionID string) (<-chan domain.DeliveryInfo, error)

	GetCustomer(ctx context.Context, sessionID string) (*domain.Customer, error)
	SetCustomer(ctx context.Context, sessionID string, customer *domain.Customer) error

	GetPendingOrderCode(ctx context.Context, sessionID string) (string, error)
	// SetPendingOrderCode records the pending payment and the hosted page it
	// redirects to; ClearPendingOrderCode drops both.
	SetPendingOrderCode(ctx context.Context, sessionID, orderCode, redirectURL string) error
	GetPendingRedirectURL(ctx context.Context, sessionID string) (string, error)
	ClearPendingOrderCode(ctx context.Context, sessionID string) error

	StageCheckout(ctx context.Context, sessionID string, staged *domain.StagedCheckout) error
	GetStagedCheckout(ctx context.Context, sessionID string) (*domain.StagedCheckout, error)
	ClearStagedCheckout(ctx context.Context, sessionID string) error
}
