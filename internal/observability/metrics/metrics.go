package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "catalog_"

	resultSuccess  = "success"
	resultRejected = "rejected"
	resultError    = "error"
)

var (
	registerOnce sync.Once

	admitTotal   *prometheus.CounterVec
	admitLatency *prometheus.HistogramVec

	removeTotal  *prometheus.CounterVec
	replaceTotal *prometheus.CounterVec

	queryTotal   *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	violationsTotal *prometheus.CounterVec

	recordsGauge prometheus.GaugeFunc
)

// Init registers catalog metrics. recordCount feeds the records gauge and
// may be nil.
func Init(recordCount func() int) {
	registerOnce.Do(func() {
		admitTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "admit_total",
				Help: "Total admit operations by result",
			},
			[]string{"result"},
		)
		admitLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "admit_latency_seconds",
				Help:    "Admit latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		removeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "remove_total",
				Help: "Total remove operations by result",
			},
			[]string{"result"},
		)
		replaceTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "replace_total",
				Help: "Total replace operations by result",
			},
			[]string{"result"},
		)

		queryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_total",
				Help: "Total queries by result",
			},
			[]string{"result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "query_latency_seconds",
				Help:    "Query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		violationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "violations_total",
				Help: "Total validation and resolution findings by kind",
			},
			[]string{"kind"},
		)

		collectors := []prometheus.Collector{
			admitTotal,
			admitLatency,
			removeTotal,
			replaceTotal,
			queryTotal,
			queryLatency,
			exportTotal,
			exportLatency,
			violationsTotal,
		}
		if recordCount != nil {
			recordsGauge = prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: metricPrefix + "records",
					Help: "Records currently admitted",
				},
				func() float64 { return float64(recordCount()) },
			)
			collectors = append(collectors, recordsGauge)
		}
		prometheus.MustRegister(collectors...)
	})
}

// ObserveAdmit records admit duration and result.
func ObserveAdmit(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if admitTotal != nil {
		admitTotal.WithLabelValues(result).Inc()
	}
	if admitLatency != nil {
		admitLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncRemove increments the remove counter.
func IncRemove(result string) {
	if result == "" {
		result = resultSuccess
	}
	if removeTotal != nil {
		removeTotal.WithLabelValues(result).Inc()
	}
}

// IncReplace increments the replace counter.
func IncReplace(result string) {
	if result == "" {
		result = resultSuccess
	}
	if replaceTotal != nil {
		replaceTotal.WithLabelValues(result).Inc()
	}
}

// ObserveQuery records query duration and result.
func ObserveQuery(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if queryTotal != nil {
		queryTotal.WithLabelValues(result).Inc()
	}
	if queryLatency != nil {
		queryLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records export duration by format and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncViolation counts one finding by kind.
func IncViolation(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if violationsTotal != nil {
		violationsTotal.WithLabelValues(kind).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess  = resultSuccess
	ResultRejected = resultRejected
	ResultError    = resultError
)
