package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "delivery_eta"

// Metrics holds the Prometheus counters, histograms, and gauges for the estimator.
type Metrics struct {
	// Reference data.
	ReferenceLoaded *prometheus.GaugeVec // labels: file={snapshot,zip_lookup}
	ZipTableEntries prometheus.Gauge

	// Location resolution.
	ZipLookups *prometheus.CounterVec // labels: result={hit,miss}

	// Prediction.
	Predictions        *prometheus.CounterVec // labels: outcome={success,schema_mismatch,model_load,error}
	PredictionDuration prometheus.Histogram
	ModelServerLatency prometheus.Histogram

	// Sessions.
	ActiveSessions   prometheus.Gauge
	SessionEvictions prometheus.Counter

	// Event publishing.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all estimator metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReferenceLoaded,
		m.ZipTableEntries,
		m.ZipLookups,
		m.Predictions,
		m.PredictionDuration,
		m.ModelServerLatency,
		m.ActiveSessions,
		m.SessionEvictions,
		m.EventsPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReferenceLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_loaded",
			Help:      "1 when the reference file was loaded, 0 when absent or unreadable.",
		}, []string{"file"}),
		ZipTableEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "zip_table_entries",
			Help:      "Number of postal-code prefixes in the lookup table.",
		}),
		ZipLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zip_lookups_total",
			Help:      "Postal-code prefix lookups by result.",
		}, []string{"result"}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction attempts by outcome.",
		}, []string{"outcome"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Duration of a prediction including model load.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ModelServerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_server_request_duration_seconds",
			Help:      "Model server HTTP request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Form sessions currently held in memory.",
		}),
		SessionEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_evictions_total",
			Help:      "Sessions dropped because the store was full.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_events_published_total",
			Help:      "Prediction events written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_event_publish_errors_total",
			Help:      "Prediction events that failed to publish.",
		}),
	}
}
