package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/checkout-service/internal/config"
	"github.com/fjod/go_cart/checkout-service/internal/delivery"
	"github.com/fjod/go_cart/checkout-service/internal/gateway"
	h "github.com/fjod/go_cart/checkout-service/internal/http"
	"github.com/fjod/go_cart/checkout-service/internal/metrics"
	"github.com/fjod/go_cart/checkout-service/internal/orders"
	"github.com/fjod/go_cart/checkout-service/internal/publisher"
	"github.com/fjod/go_cart/checkout-service/internal/service"
	"github.com/fjod/go_cart/checkout-service/internal/store"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = l.Sync() }()
	ctx = logger.WithLogger(ctx, l)

	cfg, err := config.TryRead(os.Getenv("CONFIG_PATH"))
	if err != nil {
		l.Fatal(ctx, "failed to load config", zap.Error(err))
	}
	l.Info(ctx, "checkout-service starting", zap.String("port", cfg.Service.HTTPPort))

	// Session store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		l.Fatal(ctx, "failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr))
	}
	sessionStore := store.NewRedisStore(redisClient, cfg.Service.SessionTTL)

	feeTable := delivery.DefaultFeeTable()
	if cfg.Service.FeeTablePath != "" {
		feeTable, err = delivery.LoadFeeTable(cfg.Service.FeeTablePath)
		if err != nil {
			l.Fatal(ctx, "failed to load fee table", zap.Error(err))
		}
	}

	// Order storage
	creds := cfg.Postgres.Credentials()
	orderRepo, err := orders.NewPostgresRepository(ctx, creds)
	if err != nil {
		l.Fatal(ctx, "failed to connect to postgres", zap.Error(err))
	}
	defer orderRepo.Close()
	if err := orderRepo.RunMigrations(creds); err != nil {
		l.Fatal(ctx, "failed to run migrations", zap.Error(err))
	}
	l.Info(ctx, "database migrations completed")

	mongoDB, err := orders.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		l.Fatal(ctx, "failed to connect to mongodb", zap.Error(err))
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoDB.Client().Disconnect(disconnectCtx)
	}()
	addressRepo := orders.NewMongoAddressRepository(mongoDB)
	if err := addressRepo.CreateIndexes(ctx); err != nil {
		l.Fatal(ctx, "failed to create address indexes", zap.Error(err))
	}
	orderService := orders.NewService(orderRepo, addressRepo)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := service.Dependencies{
		Store:             sessionStore,
		Gateway:           gateway.NewClient(ctx, cfg.Gateway.ClientConfig()),
		Orders:            orderService,
		Observer:          m,
		StatusCodes:       cfg.Gateway.StatusCodes(),
		PollInterval:      cfg.Gateway.PollInterval,
		CartSyncInterval:  cfg.Service.CartSyncInterval,
		IdleTimeout:       cfg.Service.SessionIdleTimeout,
		CompletionTimeout: cfg.Service.CompletionTimeout,
	}
	if cfg.Kafka.Enabled {
		pub := publisher.NewCheckoutPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		defer pub.Close()
		deps.Publisher = pub
		l.Info(ctx, "publishing checkout events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// checkouts outlive the signal so in-flight requests can finish first
	managerCtx, stopManager := context.WithCancel(logger.WithLogger(context.Background(), l))
	defer stopManager()
	manager := service.NewManager(managerCtx, deps)
	go manager.Run(managerCtx)

	router := h.NewRouter(
		h.RouterConfig{
			Logger:             l,
			Metrics:            m,
			RequestTimeout:     cfg.Service.RequestTimeout,
			MaxRequestBodySize: cfg.Service.MaxRequestBodySize,
		},
		h.NewCheckoutHandler(manager, cfg.Service.RequestTimeout),
		h.NewDeliveryHandler(feeTable, sessionStore, sessionStore, cfg.Service.RequestTimeout),
		h.NewOrdersHandler(orderService, sessionStore, cfg.Service.RequestTimeout),
	)

	srv := &http.Server{
		Addr:        ":" + cfg.Service.HTTPPort,
		Handler:     otelhttp.NewHandler(router, "checkout-service"),
		ReadTimeout: 10 * time.Second,
		// event streams clear their own write deadline
		WriteTimeout: cfg.Service.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info(ctx, "checkout-service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal(ctx, "server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	l.Info(context.Background(), "shutting down checkout-service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error(shutdownCtx, "server forced to shutdown", zap.Error(err))
	}
	manager.Shutdown()
	stopManager()

	l.Info(shutdownCtx, "checkout-service stopped")
}
