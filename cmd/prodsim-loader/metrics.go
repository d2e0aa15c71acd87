package main

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// loaderMetrics holds the Prometheus metrics for one ingest run. The loader
// keeps its own registry so a run never collides with the API process.
type loaderMetrics struct {
	rowsLoaded    *prometheus.CounterVec
	rowsFailed    *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
}

func newLoaderMetrics(reg prometheus.Registerer) *loaderMetrics {
	m := &loaderMetrics{
		rowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prodsim_loader",
			Name:      "rows_loaded_total",
			Help:      "Total rows successfully upserted",
		}, []string{"kind"}),

		rowsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prodsim_loader",
			Name:      "rows_failed_total",
			Help:      "Total rows whose batch upsert failed",
		}, []string{"kind"}),

		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "prodsim_loader",
			Name:      "batch_duration_seconds",
			Help:      "Batch upsert duration",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
	}

	reg.MustRegister(m.rowsLoaded, m.rowsFailed, m.batchDuration)
	return m
}

// serveMetrics exposes the loader registry for Prometheus scrape.
func serveMetrics(port string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("metrics server on :%s/metrics", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	return srv
}
