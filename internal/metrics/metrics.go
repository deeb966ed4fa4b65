package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Catalog client metrics
var (
	CatalogRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total number of catalog API requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	SubtitleDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitle_downloads_total",
			Help: "Total number of subtitle downloads.",
		},
		[]string{"status"},
	)

	QuotaRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_quota_remaining",
			Help: "Server-reported remaining daily downloads. -1 when unknown.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		CatalogRequestsTotal,
		SubtitleDownloadsTotal,
		QuotaRemaining,
	)
	QuotaRemaining.Set(-1)
}
