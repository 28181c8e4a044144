package orders

import (
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/google/uuid"
)

// Order is the stored row: the checkout details plus the id and status
// assigned on submission.
type Order struct {
	ID                     uuid.UUID
	OrderCode              string
	CartID                 string
	CustomerID             string
	CustomerAccountType    domain.AccountType
	PaymentMode            string
	PaymentAccountNumber   string
	TotalAmount            float64
	RecipientName          string
	RecipientContactNumber string
	OrderNote              string
	Status                 domain.OrderStatus
	OrderDate              time.Time
	CreatedAt              time.Time
}

func (o *Order) Record() *domain.OrderRecord {
	return &domain.OrderRecord{
		ID:          o.ID.String(),
		OrderCode:   o.OrderCode,
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount,
		PaymentMode: o.PaymentMode,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}
}
