package domain

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusCancelled
}

// PaymentSession tracks a hosted gateway payment for one order code.
type PaymentSession struct {
	OrderCode          string        `json:"order_code"`
	GatewayRedirectURL string        `json:"gateway_redirect_url"`
	Status             PaymentStatus `json:"status"`
}
