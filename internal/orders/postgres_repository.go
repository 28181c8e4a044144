package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(ctx context.Context, cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.PingContext(ctx); e2 != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "checkout_orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *Order) error {
	query := `INSERT INTO orders (id, order_code, cart_id, customer_id, customer_account_type, payment_mode,
	              payment_account_number, total_amount, recipient_name, recipient_contact_number, order_note,
	              status, order_date, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
	          RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		order.ID,
		order.OrderCode,
		order.CartID,
		order.CustomerID,
		string(order.CustomerAccountType),
		order.PaymentMode,
		order.PaymentAccountNumber,
		order.TotalAmount,
		order.RecipientName,
		order.RecipientContactNumber,
		order.OrderNote,
		string(order.Status),
		order.OrderDate,
	).Scan(&order.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetOrderByCode(ctx context.Context, orderCode string) (*Order, error) {
	query := `SELECT id, order_code, cart_id, customer_id, customer_account_type, payment_mode,
	              payment_account_number, total_amount, recipient_name, recipient_contact_number, order_note,
	              status, order_date, created_at
	          FROM orders WHERE order_code = $1`

	var order Order
	var accountType, status string
	err := r.db.QueryRowContext(ctx, query, orderCode).Scan(
		&order.ID,
		&order.OrderCode,
		&order.CartID,
		&order.CustomerID,
		&accountType,
		&order.PaymentMode,
		&order.PaymentAccountNumber,
		&order.TotalAmount,
		&order.RecipientName,
		&order.RecipientContactNumber,
		&order.OrderNote,
		&status,
		&order.OrderDate,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by code: %w", err)
	}

	order.CustomerAccountType = domain.AccountType(accountType)
	order.Status = domain.OrderStatus(status)
	return &order, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
