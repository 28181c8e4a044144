package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/checkout-service/internal/metrics"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Logger             *logger.Logger
	Metrics            *metrics.Metrics
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(cfg RouterConfig, checkout *CheckoutHandler, deliveryHandler *DeliveryHandler, ordersHandler *OrdersHandler) chi.Router {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware(cfg.Logger))
	r.Use(AccessLogMiddleware(cfg.Metrics))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	timeout := middleware.Timeout(cfg.RequestTimeout)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware)

		r.Route("/delivery", func(r chi.Router) {
			r.Use(timeout)
			r.Get("/regions", deliveryHandler.ListRegions)
			r.Post("/", deliveryHandler.Commit)
		})

		r.Route("/checkout", func(r chi.Router) {
			// long-lived, so it stays outside the timeout group
			r.Get("/events", checkout.Events)

			r.Group(func(r chi.Router) {
				r.Use(timeout)
				r.Get("/", checkout.GetSummary)
				r.Post("/", checkout.Submit)
				r.Delete("/", checkout.Abandon)
				r.Put("/payment-method", checkout.SelectPaymentMethod)
				r.Get("/status", checkout.GetStatus)
				r.Post("/resume", checkout.Resume)
			})
		})

		if ordersHandler != nil {
			r.With(timeout).Get("/orders/{order_code}", ordersHandler.GetOrder)
		}
	})

	return r
}
