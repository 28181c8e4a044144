package cart

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/internal/store"
	"golang.org/x/sync/singleflight"
)

// CartSource is the part of the session store the reader needs.
type CartSource interface {
	GetCart(ctx context.Context, sessionID string) (*domain.CartSnapshot, error)
}

// Reader reads the current cart composition of a session.
type Reader struct {
	source CartSource
	sfg    singleflight.Group // collapses concurrent reads of the same session
}

func NewReader(source CartSource) *Reader {
	return &Reader{source: source}
}

// Read returns the session cart; a missing cart is an empty snapshot.
func (r *Reader) Read(ctx context.Context, sessionID string) (domain.CartSnapshot, error) {
	v, err, _ := r.sfg.Do(sessionID, func() (interface{}, error) {
		cart, err := r.source.GetCart(ctx, sessionID)
		if errors.Is(err, store.ErrNotFound) {
			return domain.CartSnapshot{}, nil
		}
		if err != nil {
			return nil, err
		}
		return *cart, nil
	})
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	return v.(domain.CartSnapshot), nil
}
