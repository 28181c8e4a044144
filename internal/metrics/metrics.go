package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "checkout"

// Metrics collects HTTP and checkout lifecycle metrics. It satisfies
// service.Observer.
type Metrics struct {
	Requests    *prometheus.CounterVec
	LatencyMS   *prometheus.HistogramVec
	Transitions *prometheus.CounterVec
	Validation  *prometheus.CounterVec
	PollTicks   *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg; pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Checkout state machine transitions.",
		}, []string{"from", "to"}),
		Validation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Checkout submissions rejected by validation.",
		}, []string{"reason"}),
		PollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_poll_ticks_total",
			Help:      "Payment status poll ticks by classified status.",
		}, []string{"status"}),
		gatherer: reg,
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.Transitions, m.Validation, m.PollTicks)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTransition(from, to domain.CheckoutState) {
	m.Transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *Metrics) ObserveValidationFailure(err error) {
	m.Validation.WithLabelValues(validationReason(err)).Inc()
}

func (m *Metrics) ObservePollTick(status domain.PaymentStatus) {
	m.PollTicks.WithLabelValues(string(status)).Inc()
}

// ObserveRequest records one served request. route is the matched pattern,
// not the raw path.
func (m *Metrics) ObserveRequest(route, method string, status int, took time.Duration) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(float64(took.Milliseconds()))
}

// validationReason keeps the label set bounded to the innermost sentinel text.
func validationReason(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	if err == nil {
		return "unknown"
	}
	return err.Error()
}
