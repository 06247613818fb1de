// services/metrics.go
package services

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kyipho/wikilynx/models"
)

var (
	// refreshRuns counts pipeline invocations by outcome: committed, noop, failed
	refreshRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikilynx_refresh_runs_total",
		Help: "Refresh runs by result",
	}, []string{"result"})

	refreshErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikilynx_refresh_errors_total",
		Help: "Failed refresh runs by error kind",
	}, []string{"kind"})

	tablesRefreshed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikilynx_tables_refreshed_total",
		Help: "Tables that reached CLEANED, by table (counted before commit)",
	}, []string{"table"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikilynx_refresh_duration_seconds",
		Help:    "Wall time of a refresh run",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68m
	})

	sourceDate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wikilynx_source_date_timestamp_seconds",
		Help: "Published dump date per table, as a unix timestamp",
	}, []string{"table"})

	registryDate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wikilynx_registry_date_timestamp_seconds",
		Help: "Recorded dump date per table, as a unix timestamp",
	}, []string{"table"})
)

func observeDates(gauge *prometheus.GaugeVec, dates map[string]models.RefreshDate) {
	for table, d := range dates {
		if d.IsZero() {
			continue
		}
		gauge.WithLabelValues(table).Set(float64(d.Time().Unix()))
	}
}

// kindLabel turns "registry update error" into "registry_update_error".
func kindLabel(err error) string {
	kind := models.ErrorKind(err)
	if kind == nil {
		return "unknown"
	}
	return strings.ReplaceAll(kind.Error(), " ", "_")
}
