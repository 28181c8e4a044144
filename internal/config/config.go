package config

import (
	"fmt"
	"time"

	"github.com/fjod/go_cart/checkout-service/internal/gateway"
	"github.com/fjod/go_cart/checkout-service/internal/orders"
	"github.com/fjod/go_cart/checkout-service/internal/poller"
	"github.com/fjod/go_cart/checkout-service/pkg/circuitbreaker"
	"github.com/ilyakaznacheev/cleanenv"
)

type ServiceConfig struct {
	HTTPPort           string        `yaml:"http_port" env:"HTTP_PORT" env-default:"8080"`
	RequestTimeout     time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"30s"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size" env:"MAX_REQUEST_BODY_SIZE" env-default:"1048576"`
	SessionTTL         time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"24h"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout" env:"SESSION_IDLE_TIMEOUT" env-default:"30m"`
	CartSyncInterval   time.Duration `yaml:"cart_sync_interval" env:"CART_SYNC_INTERVAL" env-default:"2s"`
	CompletionTimeout  time.Duration `yaml:"completion_timeout" env:"COMPLETION_TIMEOUT" env-default:"30s"`
	FeeTablePath       string        `yaml:"fee_table_path" env:"FEE_TABLE_PATH"`
}

type GatewayConfig struct {
	BaseURL               string        `yaml:"base_url" env:"BASE_URL" env-required:"true"`
	APIID                 string        `yaml:"api_id" env:"API_ID" env-required:"true"`
	APIKey                string        `yaml:"api_key" env:"API_KEY" env-required:"true"`
	MerchantAccountNumber string        `yaml:"merchant_account_number" env:"MERCHANT_ACCOUNT_NUMBER"`
	CallbackURL           string        `yaml:"callback_url" env:"CALLBACK_URL"`
	ReturnURL             string        `yaml:"return_url" env:"RETURN_URL"`
	CancellationURL       string        `yaml:"cancellation_url" env:"CANCELLATION_URL"`
	Timeout               time.Duration `yaml:"timeout" env:"TIMEOUT" env-default:"10s"`
	PollInterval          time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL" env-default:"3s"`
	SuccessCode           string        `yaml:"success_code" env:"SUCCESS_CODE" env-default:"0000"`
	CancelledCode         string        `yaml:"cancelled_code" env:"CANCELLED_CODE" env-default:"2001"`
	BreakerFailures       uint32        `yaml:"breaker_failures" env:"BREAKER_FAILURES" env-default:"5"`
	BreakerOpenTimeout    time.Duration `yaml:"breaker_open_timeout" env:"BREAKER_OPEN_TIMEOUT" env-default:"30s"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB" env-default:"0"`
}

type PostgresConfig struct {
	Host          string `yaml:"host" env:"HOST" env-default:"localhost"`
	Port          int    `yaml:"port" env:"PORT" env-default:"5432"`
	User          string `yaml:"user" env:"USER" env-default:"postgres"`
	Password      string `yaml:"password" env:"PASSWORD" env-default:"postgres"`
	DBName        string `yaml:"db_name" env:"DB_NAME" env-default:"checkout"`
	MigrationsDir string `yaml:"migrations_dir" env:"MIGRATIONS_DIR" env-default:"internal/orders/migrations"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" env:"URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"DATABASE" env-default:"checkout"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" env:"ENABLED" env-default:"true"`
	Brokers []string `yaml:"brokers" env:"BROKERS" env-separator:"," env-default:"localhost:9092"`
	Topic   string   `yaml:"topic" env:"TOPIC" env-default:"checkout-outbox"`
}

type Config struct {
	Service  ServiceConfig  `yaml:"service" env-prefix:"CHECKOUT_"`
	Gateway  GatewayConfig  `yaml:"gateway" env-prefix:"GATEWAY_"`
	Redis    RedisConfig    `yaml:"redis" env-prefix:"REDIS_"`
	Postgres PostgresConfig `yaml:"postgres" env-prefix:"POSTGRES_"`
	Mongo    MongoConfig    `yaml:"mongo" env-prefix:"MONGO_"`
	Kafka    KafkaConfig    `yaml:"kafka" env-prefix:"KAFKA_"`
}

// TryRead reads the config from the environment, or from path when it is set
// (environment variables still win over the file).
func TryRead(path string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if cfg.Gateway.SuccessCode == cfg.Gateway.CancelledCode {
		return Config{}, fmt.Errorf("gateway success and cancelled codes must differ, both are %q", cfg.Gateway.SuccessCode)
	}
	return cfg, nil
}

func (c GatewayConfig) ClientConfig() gateway.Config {
	return gateway.Config{
		BaseURL:               c.BaseURL,
		APIID:                 c.APIID,
		APIKey:                c.APIKey,
		MerchantAccountNumber: c.MerchantAccountNumber,
		CallbackURL:           c.CallbackURL,
		ReturnURL:             c.ReturnURL,
		CancellationURL:       c.CancellationURL,
		Timeout:               c.Timeout,
		Breaker: circuitbreaker.Config{
			ConsecutiveFailures: c.BreakerFailures,
			OpenTimeout:         c.BreakerOpenTimeout,
			HalfOpenRequests:    1,
		},
	}
}

func (c GatewayConfig) StatusCodes() poller.StatusCodes {
	return poller.StatusCodes{Success: c.SuccessCode, Cancelled: c.CancelledCode}
}

func (c PostgresConfig) Credentials() *orders.Credentials {
	return &orders.Credentials{
		Host:              c.Host,
		Port:              c.Port,
		User:              c.User,
		Password:          c.Password,
		DBName:            c.DBName,
		MigrationsDirPath: c.MigrationsDir,
	}
}
