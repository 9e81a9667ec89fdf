package transfer

import "github.com/prometheus/client_golang/prometheus"

var (
	transfersFinalized = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipebird_transfers_finalized_total",
		Help: "Transfers finalized, labeled by terminal status.",
	}, []string{"status"})

	rowsExtracted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipebird_rows_extracted_total",
		Help: "Rows pulled from source databases across all transfers.",
	})

	transferDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipebird_transfer_duration_seconds",
		Help:    "Wall time of transfer processing runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

func init() {
	prometheus.MustRegister(transfersFinalized, rowsExtracted, transferDuration)
}
