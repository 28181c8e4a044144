package domain

import (
	"fmt"
	"strings"
)

type PaymentMethod int

const (
	PaymentMethodNone PaymentMethod = iota
	PaymentMethodCashOnDelivery
	PaymentMethodPickUp
	PaymentMethodPaidAlready
	PaymentMethodMobileMoney
	PaymentMethodCreditCard
)

// AllPaymentMethods lists the selectable methods in display order.
var AllPaymentMethods = []PaymentMethod{
	PaymentMethodCashOnDelivery,
	PaymentMethodPickUp,
	PaymentMethodPaidAlready,
	PaymentMethodMobileMoney,
	PaymentMethodCreditCard,
}

// IsGateway reports whether the method redirects to the hosted payment page.
func (m PaymentMethod) IsGateway() bool {
	switch m {
	case PaymentMethodMobileMoney, PaymentMethodCreditCard:
		return true
	case PaymentMethodNone, PaymentMethodCashOnDelivery, PaymentMethodPickUp, PaymentMethodPaidAlready:
		return false
	}
	return false
}

// String returns the display label, which is also what gets stored as payment mode.
func (m PaymentMethod) String() string {
	switch m {
	case PaymentMethodCashOnDelivery:
		return "Cash on Delivery"
	case PaymentMethodPickUp:
		return "Pick Up"
	case PaymentMethodPaidAlready:
		return "Paid Already"
	case PaymentMethodMobileMoney:
		return "Mobile Money"
	case PaymentMethodCreditCard:
		return "Credit Card"
	default:
		return ""
	}
}

// Key is the snake_case form used by the HTTP API.
func (m PaymentMethod) Key() string {
	return strings.ReplaceAll(strings.ToLower(m.String()), " ", "_")
}

func (m PaymentMethod) MarshalText() ([]byte, error) {
	return []byte(m.Key()), nil
}

func (m *PaymentMethod) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParsePaymentMethod accepts either the display label or the snake_case key.
// An empty string parses to PaymentMethodNone.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	if normalized == "" {
		return PaymentMethodNone, nil
	}
	for _, m := range AllPaymentMethods {
		if m.Key() == normalized {
			return m, nil
		}
	}
	return PaymentMethodNone, fmt.Errorf("unknown payment method %q", s)
}
