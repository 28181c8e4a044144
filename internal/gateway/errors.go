package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrUnsuccessfulStatus = errors.New("gateway returned a non-success status")
	ErrMissingCheckoutURL = errors.New("gateway response has no checkout url")
)

// GatewayError is returned for any failed call to the payment provider.
type GatewayError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment gateway %s failed with http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
