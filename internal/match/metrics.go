package match

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the duel engine's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	queueSize      prometheus.Gauge
	activeDuels    prometheus.Gauge
	duelsEnded     *prometheus.CounterVec
	answers        *prometheus.CounterVec
	pairingAborted prometheus.Counter
	duelDuration   prometheus.Histogram
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		queueSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "duel_queue_size",
			Help: "Players currently waiting for an opponent",
		}),
		activeDuels: factory.NewGauge(prometheus.GaugeOpts{
			Name: "duel_active_sessions",
			Help: "Duels currently in progress",
		}),
		duelsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "duel_sessions_ended_total",
			Help: "Duels that reached a terminal state",
		}, []string{"status", "reason"}),
		answers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "duel_answers_total",
			Help: "Accepted answer submissions",
		}, []string{"correct"}),
		pairingAborted: factory.NewCounter(prometheus.CounterOpts{
			Name: "duel_pairing_aborted_total",
			Help: "Pairings abandoned before the duel started",
		}),
		duelDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "duel_duration_seconds",
			Help:    "Wall time from pairing to terminal state",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

func (m *Metrics) observeQueue(n int) {
	if m == nil {
		return
	}
	m.queueSize.Set(float64(n))
}

func (m *Metrics) observeActive(n int) {
	if m == nil {
		return
	}
	m.activeDuels.Set(float64(n))
}

func (m *Metrics) duelEnded(status, reason string, seconds float64) {
	if m == nil {
		return
	}
	m.duelsEnded.WithLabelValues(status, reason).Inc()
	m.duelDuration.Observe(seconds)
}

func (m *Metrics) answer(correct bool) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) aborted() {
	if m == nil {
		return
	}
	m.pairingAborted.Inc()
}
