package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics: nil-значение допустимо и ничего не пишет.
type Metrics struct {
	ScanDuration      *prometheus.HistogramVec
	ScanFailures      *prometheus.CounterVec
	AlertItems        *prometheus.GaugeVec
	AttributionWrites *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScanDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fleetops_alert_scan_duration_seconds",
			Help:    "Duration of expiration scans by domain",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"domain"}),

		ScanFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetops_alert_scan_failures_total",
			Help: "Expiration scans that failed and were reported as partial failures",
		}, []string{"domain"}),

		AlertItems: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleetops_alert_items",
			Help: "Items in the last aggregated alert feed by severity",
		}, []string{"severity"}),

		AttributionWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetops_attribution_writes_total",
			Help: "Attribution write attempts by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
}

func (m *Metrics) ObserveScan(domain string, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.ScanDuration.WithLabelValues(domain).Observe(d.Seconds())
	if failed {
		m.ScanFailures.WithLabelValues(domain).Inc()
	}
}

// SetAlertItems заменяет значения целиком: уровни, которых нет в counts, сбрасываются.
func (m *Metrics) SetAlertItems(counts map[string]int) {
	if m == nil {
		return
	}
	m.AlertItems.Reset()
	for severity, count := range counts {
		m.AlertItems.WithLabelValues(severity).Set(float64(count))
	}
}

func (m *Metrics) IncAttributionWrite(operation, outcome string) {
	if m == nil {
		return
	}
	m.AttributionWrites.WithLabelValues(operation, outcome).Inc()
}
