// Package metrics instruments the perception engine and the screenshot
// source with Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"bomb-vision/internal/perception"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// outcomeOK labels a read that returned no error.
const outcomeOK = "ok"

// Manager owns the perception metrics. It implements perception.Observer.
type Manager struct {
	namespace       string
	subsystem       string
	durationBuckets []float64
	registry        *prometheus.Registry

	classifications *prometheus.CounterVec
	confidence      *prometheus.HistogramVec
	reads           *prometheus.CounterVec
	readDuration    *prometheus.HistogramVec
	blankFrames     prometheus.Counter
	skippedFrames   prometheus.Counter
}

var _ perception.Observer = (*Manager)(nil)

// NewManager creates a Manager on a private registry unless WithRegistry is
// given, so several managers can coexist in one process.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "bomb",
		subsystem:       "vision",
		durationBuckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		registry:        prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.classifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "classifications_total",
		Help:      "Module regions classified, by winning reader",
	}, []string{"reader"})

	m.confidence = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "classification_confidence",
		Help:      "Confidence of the winning reader",
		Buckets:   prometheus.LinearBuckets(0, 0.125, 9),
	}, []string{"reader"})

	m.reads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reads_total",
		Help:      "Reads by reader and outcome (ok or error kind)",
	}, []string{"reader", "outcome"})

	m.readDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "read_duration_seconds",
		Help:      "Time spent in a reader's Process",
		Buckets:   m.durationBuckets,
	}, []string{"reader"})

	m.blankFrames = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "blank_frames_total",
		Help:      "Module regions found empty",
	})

	m.skippedFrames = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "skipped_frames_total",
		Help:      "Screenshots dropped because they matched the previous one",
	})
}

// ObserveBlank counts an empty module slot.
func (m *Manager) ObserveBlank() {
	m.blankFrames.Inc()
}

// ObserveClassification records the winning reader and its confidence.
func (m *Manager) ObserveClassification(reader string, confidence float64) {
	m.classifications.WithLabelValues(reader).Inc()
	m.confidence.WithLabelValues(reader).Observe(confidence)
}

// ObserveRead records a finished Process call.
func (m *Manager) ObserveRead(reader string, elapsed time.Duration, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = perception.KindOf(err).String()
	}
	m.reads.WithLabelValues(reader, outcome).Inc()
	m.readDuration.WithLabelValues(reader).Observe(elapsed.Seconds())
}

// ObserveSkippedFrame counts a screenshot the capture source dropped.
func (m *Manager) ObserveSkippedFrame() {
	m.skippedFrames.Inc()
}

// Handler serves the manager's registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Collector accessors, mainly for tests.
func (m *Manager) BlankFrames() prometheus.Counter         { return m.blankFrames }
func (m *Manager) SkippedFrames() prometheus.Counter       { return m.skippedFrames }
func (m *Manager) Reads() *prometheus.CounterVec           { return m.reads }
func (m *Manager) Classifications() *prometheus.CounterVec { return m.classifications }
