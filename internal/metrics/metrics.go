package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zonesync_loads_total",
		Help: "Total feature collection loads by result",
	}, []string{"result"})
	LoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "zonesync_load_duration_ms",
		Help:    "Feature collection load duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	SavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zonesync_saves_total",
		Help: "Total save attempts by result (ok, no_changes, rejected, transport, error)",
	}, []string{"result"})
	SaveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "zonesync_save_duration_ms",
		Help:    "WFS-T transaction round trip in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	TransactionOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zonesync_transaction_operations_total",
		Help: "Operations sent in WFS-T transactions by kind",
	}, []string{"op"})
	PendingOperations = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zonesync_pending_operations",
		Help: "Operations waiting to be saved",
	})
)

func init() {
	prometheus.MustRegister(LoadsTotal)
	prometheus.MustRegister(LoadDurationMs)
	prometheus.MustRegister(SavesTotal)
	prometheus.MustRegister(SaveDurationMs)
	prometheus.MustRegister(TransactionOpsTotal)
	prometheus.MustRegister(PendingOperations)
}

// Handler serves the default registry for hosts that embed the library.
func Handler() http.Handler {
	return promhttp.Handler()
}
