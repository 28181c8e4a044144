package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart             = errors.New("cart is empty, nothing to checkout")
	ErrNoPaymentMethod       = errors.New("no payment method selected")
	ErrNoDeliveryAddress     = errors.New("no delivery address selected")
	ErrZeroFeeCashOnDelivery = errors.New("cash on delivery needs a delivery fee")
	ErrMethodNotOffered      = errors.New("payment method is not offered to this account")
	ErrNoCustomer            = errors.New("no signed-in customer for this session")

	ErrIllegalTransition  = errors.New("illegal transition of checkout state")
	ErrSubmissionInFlight = errors.New("a checkout submission is already in progress")
	ErrNothingToResume    = errors.New("no pending payment to resume")
	ErrManagerClosed      = errors.New("checkout manager is shut down")
)

// ValidationError is a precondition failure caught before any side effect.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ServiceError is a failed call to the order submission service. Partial is
// set when the order was created but the address update failed; the order is
// not rolled back.
type ServiceError struct {
	Op      string
	Partial bool
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Partial {
		return fmt.Sprintf("order service %s failed after order creation: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("order service %s failed: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
