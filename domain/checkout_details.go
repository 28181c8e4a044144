package domain

import "time"

// CheckoutDetails is the order record built once per checkout attempt.
type CheckoutDetails struct {
	CartID                 string      `json:"cart_id"`
	CustomerID             string      `json:"customer_id"`
	OrderCode              string      `json:"order_code"`
	PaymentMode            string      `json:"payment_mode"`
	PaymentAccountNumber   string      `json:"payment_account_number"`
	CustomerAccountType    AccountType `json:"customer_account_type"`
	TotalAmount            float64     `json:"total_amount"`
	RecipientName          string      `json:"recipient_name"`
	RecipientContactNumber string      `json:"recipient_contact_number"`
	OrderNote              string      `json:"order_note"`
	OrderDate              time.Time   `json:"order_date"`
}

// AddressDetails is paired 1:1 with CheckoutDetails through OrderCode.
type AddressDetails struct {
	OrderCode              string `json:"order_code" bson:"order_code"`
	Address                string `json:"address" bson:"address"`
	CustomerID             string `json:"customer_id" bson:"customer_id"`
	RecipientName          string `json:"recipient_name" bson:"recipient_name"`
	RecipientContactNumber string `json:"recipient_contact_number" bson:"recipient_contact_number"`
	OrderNote              string `json:"order_note" bson:"order_note"`
	GeoLocation            string `json:"geo_location" bson:"geo_location"`
}

// StagedCheckout is what the gateway path keeps in the session store so a
// reload can resume confirmation.
type StagedCheckout struct {
	Details CheckoutDetails `json:"checkout_details"`
	Address AddressDetails  `json:"order_address_details"`
}

type OrderStatus string

const (
	OrderStatusReceived OrderStatus = "RECEIVED"
	OrderStatusPaid     OrderStatus = "PAID"
)

// OrderRecord is what the order submission service returns for a stored order.
type OrderRecord struct {
	ID          string      `json:"id"`
	OrderCode   string      `json:"order_code"`
	CustomerID  string      `json:"customer_id"`
	TotalAmount float64     `json:"total_amount"`
	PaymentMode string      `json:"payment_mode"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// CheckoutCompletedEvent is published once an order has been stored.
type CheckoutCompletedEvent struct {
	OrderID     string     `json:"order_id"`
	OrderCode   string     `json:"order_code"`
	CustomerID  string     `json:"customer_id"`
	Items       []CartItem `json:"items"`
	TotalAmount float64    `json:"total_amount"`
	PaymentMode string     `json:"payment_mode"`
	CompletedAt time.Time  `json:"completed_at"`
}
