package service

import (
	"slices"

	"github.com/fjod/go_cart/checkout-service/domain"
)

// AvailableMethods returns the payment methods offered to an account for the
// given delivery fee.
func AvailableMethods(accountType domain.AccountType, fee float64) []domain.PaymentMethod {
	methods := make([]domain.PaymentMethod, 0, len(domain.AllPaymentMethods))
	for _, m := range domain.AllPaymentMethods {
		if offered(m, accountType, fee) {
			methods = append(methods, m)
		}
	}
	return methods
}

func offered(m domain.PaymentMethod, accountType domain.AccountType, fee float64) bool {
	switch m {
	case domain.PaymentMethodPickUp, domain.PaymentMethodPaidAlready:
		return accountType.IsAgent()
	case domain.PaymentMethodCashOnDelivery:
		return fee != 0 || accountType.IsAgent()
	case domain.PaymentMethodMobileMoney, domain.PaymentMethodCreditCard:
		return true
	case domain.PaymentMethodNone:
		return false
	}
	return false
}

// Total is the cart subtotal plus the delivery fee.
func Total(cart domain.CartSnapshot, delivery domain.DeliveryInfo) float64 {
	return cart.Subtotal() + delivery.Fee
}

func validate(cart domain.CartSnapshot, delivery domain.DeliveryInfo, customer *domain.Customer, method domain.PaymentMethod) error {
	var err error
	switch {
	case cart.IsEmpty():
		err = ErrEmptyCart
	case customer == nil:
		err = ErrNoCustomer
	case method == domain.PaymentMethodNone:
		err = ErrNoPaymentMethod
	case !delivery.IsResolved():
		err = ErrNoDeliveryAddress
	case method == domain.PaymentMethodCashOnDelivery && delivery.Fee == 0 && !customer.AccountType.IsAgent():
		err = ErrZeroFeeCashOnDelivery
	case !slices.Contains(AvailableMethods(customer.AccountType, delivery.Fee), method):
		err = ErrMethodNotOffered
	}
	if err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
