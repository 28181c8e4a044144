package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/checkout-service/internal/metrics"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	SessionHeader = "X-Session-ID"

	maxSessionIDLength = 128
)

type ctxKey string

const sessionIDKey ctxKey = "session_id"

// SessionMiddleware requires the checkout session id header on every request.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
		if sessionID == "" || len(sessionID) > maxSessionIDLength {
			respondError(w, http.StatusUnauthorized, "missing_session", "missing or invalid "+SessionHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

// RequestIDMiddleware puts the logger and the request id into the request
// context, reusing chi's request id when there is one.
func RequestIDMiddleware(l *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = middleware.GetReqID(r.Context())
			}
			if requestID == "" {
				requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
			}

			ctx := r.Context()
			if l != nil {
				ctx = logger.WithLogger(ctx, l)
			}
			ctx = logger.WithRequestID(ctx, requestID)
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLogMiddleware logs and measures every request by its route pattern.
func AccessLogMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			took := time.Since(start)

			if m != nil {
				m.ObserveRequest(route, r.Method, status, took)
			}
			logger.GetOrCreateLoggerFromCtx(r.Context()).Info(r.Context(), "http request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("took", took))
		})
	}
}
