package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	NOAARequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antecedent_noaa_requests_total",
			Help: "Total NOAA data requests",
		},
		[]string{"endpoint", "status"},
	)

	NOAARequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "antecedent_noaa_request_latency_seconds",
			Help:    "NOAA request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	RecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antecedent_records_processed_total",
			Help: "Total run records processed by outcome",
		},
		[]string{"parameter", "outcome"},
	)

	RecordProcessingSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "antecedent_record_processing_seconds",
			Help:    "Wall time spent processing one run record",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	PDFMergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "antecedent_pdf_merges_total",
			Help: "Total PDF merge operations",
		},
		[]string{"kind"}, // "partial" or "final"
	)
)

// Handler exposes the default registry for the optional scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
