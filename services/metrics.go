package services

import "github.com/prometheus/client_golang/prometheus"

var (
	SyncBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_batches_total",
			Help: "Sync batches processed, by outcome",
		},
		[]string{"outcome"},
	)

	SyncItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_items_total",
			Help: "Synced records, by category and outcome",
		},
		[]string{"category", "outcome"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(SyncBatchesTotal, SyncItemsTotal)
}
