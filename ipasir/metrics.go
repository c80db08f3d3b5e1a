package ipasir

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors updated by sessions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	solves   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	live     prometheus.Gauge
}

// NewMetrics creates the session collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		solves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incsat",
			Name:      "solve_total",
			Help:      "Number of solve calls, by engine and verdict.",
		}, []string{"engine", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "incsat",
			Name:      "solve_duration_seconds",
			Help:      "Time spent in solve calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"engine"}),
		live: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "incsat",
			Name:      "sessions_live",
			Help:      "Number of sessions created and not yet released.",
		}),
	}
}

func (m *Metrics) observeSolve(engine string, res Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.solves.WithLabelValues(engine, res.String()).Inc()
	m.duration.WithLabelValues(engine).Observe(elapsed.Seconds())
}

func (m *Metrics) sessionOpened() {
	if m != nil {
		m.live.Inc()
	}
}

func (m *Metrics) sessionClosed() {
	if m != nil {
		m.live.Dec()
	}
}
