// Package metrics holds the Prometheus instruments for kvd.  All collectors
// are registered with the global registry, so cmd/kvd only needs to mount
// promhttp.Handler() to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Rejection reasons used as the "reason" label of Rejections.
const (
	ReasonTooLarge = "too_large"
	ReasonExists   = "exists"
	ReasonNotFound = "not_found"
)

var (
	Entries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kvd_entries",
			Help: "Number of entries currently held in the store.",
		})

	Bytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kvd_bytes",
			Help: "Summed key and value bytes of live entries.",
		})

	CapacityBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kvd_capacity_bytes",
			Help: "Configured byte capacity of the store.",
		})

	HitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kvd_hits_total",
			Help: "Cumulative number of reads that found their key.",
		})

	MissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kvd_misses_total",
			Help: "Cumulative number of reads for absent keys.",
		})

	EvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kvd_evictions_total",
			Help: "Cumulative number of entries evicted to reclaim capacity.",
		})

	Rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvd_rejections_total",
			Help: "Cumulative number of failed writes and deletes, by reason.",
		}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(
		Entries,
		Bytes,
		CapacityBytes,
		HitsTotal,
		MissesTotal,
		EvictionsTotal,
		Rejections,
	)
}
