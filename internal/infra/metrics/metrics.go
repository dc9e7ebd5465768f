package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	registerOnce sync.Once

	FeedbackSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedback_submitted_total",
		Help: "Feedback submissions stored.",
	})
	FeedbackModerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_moderated_total",
		Help: "Moderation actions by resulting status.",
	}, []string{"status"})
	CommentsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "comments_created_total",
		Help: "Comments stored.",
	})
	ThreadDetachedComments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "thread_detached_comments_total",
		Help: "Comments left out of a rebuilt thread, by orphan policy.",
	}, []string{"policy"})
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Moderation events published, by kind and status.",
	}, []string{"kind", "status"})
	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Moderator notifications, by event kind and status.",
	}, []string{"kind", "status"})
	RequestsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_rejected_total",
		Help: "Requests refused by admission control or auth.",
	}, []string{"reason"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Duration of outbound network calls.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"component", "operation", "target", "status"})
	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Outbound network calls.",
	}, []string{"component", "operation", "target", "status"})

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"component", "method", "path", "status"})
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "method", "path", "status"})
	httpRequestsInFlight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	}, []string{"component"})
)

// MustRegister registers the package collectors once.
func MustRegister(registerer prometheus.Registerer) {
	registerOnce.Do(func() {
		registerer.MustRegister(
			FeedbackSubmitted,
			FeedbackModerated,
			CommentsCreated,
			ThreadDetachedComments,
			EventsPublished,
			NotificationsSent,
			RequestsRejected,
			NetworkRequestDuration,
			NetworkRequestTotal,
			httpRequestsTotal,
			httpRequestDuration,
			httpRequestsInFlight,
		)
	})
}

// StartServer serves /metrics on addr until ctx is done.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// Middleware records count, duration and in-flight gauge of chi requests.
// The path label is the matched route pattern, not the raw URL.
func Middleware(component string) func(http.Handler) http.Handler {
	if component == "" {
		component = "default"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpRequestsInFlight.WithLabelValues(component).Inc()
			defer httpRequestsInFlight.WithLabelValues(component).Dec()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			labels := []string{component, r.Method, path, strconv.Itoa(status)}
			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(labels...).Inc()
		})
	}
}

// ObserveNetworkRequest records duration and outcome of an outbound call.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(time.Since(start).Seconds())
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// IncEventPublished counts a publish attempt.
func IncEventPublished(kind string, err error) {
	EventsPublished.WithLabelValues(kind, outcome(err)).Inc()
}

// IncNotification counts a notification attempt.
func IncNotification(kind string, err error) {
	NotificationsSent.WithLabelValues(kind, outcome(err)).Inc()
}
