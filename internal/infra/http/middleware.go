package http

import (
	"crypto/subtle"
	"net"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

// AdminKeyHeader carries the shared admin secret.
const AdminKeyHeader = "X-API-Key"

// RequestLogger writes one line per request.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			ev := logger.Info()
			if status >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev.Str("method", r.Method).
				Str("route", route).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http: request")
		})
	}
}

// AdminKeyMiddleware lets through requests carrying the configured key.
// An empty key disables the guarded routes.
func AdminKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	expected := []byte(apiKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(expected) == 0 {
				WriteError(w, http.StatusServiceUnavailable, "admin_disabled", "admin API is not configured")
				return
			}
			got := []byte(r.Header.Get(AdminKeyHeader))
			if subtle.ConstantTimeCompare(got, expected) != 1 {
				metrics.RequestsRejected.WithLabelValues("unauthorized").Inc()
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdmissionMiddleware applies per-client request admission. Backend errors
// let the request through.
func AdmissionMiddleware(adm domain.Admission, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if adm == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := adm.Allow(r.Context(), ClientIP(r))
			if err != nil {
				logger.Warn().Err(err).Msg("http: admission check failed")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				metrics.RequestsRejected.WithLabelValues("rate_limited").Inc()
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of RemoteAddr, which middleware.RealIP has
// already replaced with the forwarded address when present.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	return host
}
