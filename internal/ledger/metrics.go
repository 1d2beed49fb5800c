package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the fold. A nil *Metrics records nothing.
type Metrics struct {
	events       *prometheus.CounterVec
	unpriced     *prometheus.CounterVec
	applySeconds *prometheus.HistogramVec
}

// NewMetrics creates the ledger collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poolledger",
			Name:      "events_total",
			Help:      "Events processed by the ledger, by event name and outcome.",
		}, []string{"event", "outcome"}),
		unpriced: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poolledger",
			Name:      "unpriced_total",
			Help:      "USD figures that could not be priced, by kind.",
		}, []string{"kind"}),
		applySeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "poolledger",
			Name:      "apply_seconds",
			Help:      "Time spent applying one event.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"event"}),
	}
}

func (m *Metrics) observeEvent(event, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event, outcome).Inc()
	m.applySeconds.WithLabelValues(event).Observe(elapsed.Seconds())
}

func (m *Metrics) observeUnpriced(kind string) {
	if m == nil {
		return
	}
	m.unpriced.WithLabelValues(kind).Inc()
}
