package orders

import (
	"context"

	"github.com/fjod/go_cart/checkout-service/domain"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByCode(ctx context.Context, orderCode string) (*Order, error)
	RunMigrations(*Credentials) error
	Close() error
}

type AddressRepository interface {
	UpsertAddress(ctx context.Context, address domain.AddressDetails) error
	GetAddressByCode(ctx context.Context, orderCode string) (*domain.AddressDetails, error)
}
