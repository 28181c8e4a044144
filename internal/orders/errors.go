package orders

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrAddressNotFound = errors.New("order address not found")
	ErrDuplicateOrder  = errors.New("order with this order code already exists")
	ErrInvalidOrder    = errors.New("invalid order")
)
