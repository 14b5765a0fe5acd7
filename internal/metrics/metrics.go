// Package metrics defines the prometheus collectors of the ingestion pipeline and serves them over HTTP.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsagg_items_total",
			Help: "Feed items by terminal pipeline state.",
		},
		[]string{"state"},
	)
	FeedFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsagg_feed_fetch_total",
			Help: "Feed pulls by result.",
		},
		[]string{"result"},
	)
	OracleRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsagg_oracle_requests_total",
			Help: "Oracle calls labeled by prompt kind and result.",
		},
		[]string{"kind", "result"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsagg_run_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)
)

func init() {
	prometheus.MustRegister(ItemsTotal)
	prometheus.MustRegister(FeedFetchTotal)
	prometheus.MustRegister(OracleRequestsTotal)
	prometheus.MustRegister(RunDuration)
}

// Result labels an outcome as ok/error.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("exposing prometheus metrics", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
