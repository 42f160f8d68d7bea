// Package metrics exposes process counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/rosterbot/core/logger"
)

const namespace = "rosterbot"

// Registry holds every collector of this process.
var Registry = prometheus.NewRegistry()

var (
	// Updates counts handled updates by handler and outcome.
	Updates = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Handled Telegram updates.",
	}, []string{"handler", "outcome"})

	// Registrations counts registration flow outcomes.
	Registrations = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_outcomes_total",
		Help:      "Registration flow outcomes.",
	}, []string{"outcome"})

	// Reports counts generated group reports.
	Reports = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_total",
		Help:      "Generated group reports.",
	}, []string{"status"})

	// Replies counts messages sent or edited by handlers, by kind
	// (text, keyboard, document, edit).
	Replies = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replies_total",
		Help:      "Outbound replies by kind.",
	}, []string{"kind"})

	// Sends counts jobs run by the outbound dispatcher.
	Sends = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sends_total",
		Help:      "Outbound Bot API calls by action and error kind.",
	}, []string{"action", "result"})

	// RateLimited counts updates dropped by the per-user rate limit.
	RateLimited = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Updates dropped by the rate limiter.",
	}, []string{"kind"})

	// Panics counts handler panics caught by the recover middleware.
	Panics = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_panics_total",
		Help:      "Recovered handler panics.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr disables it.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "metrics", "metrics.listen", slog.String("listen", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error(ctx, "metrics", "metrics.listen",
			slog.String("listen", addr),
			slog.String("err", err.Error()),
		)
		return err
	}
	return nil
}
