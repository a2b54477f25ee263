// Package prometheus provides a tristate.MetricsProvider backed by
// Prometheus collectors.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zoobzio/tristate"
)

// Metrics records condition lifecycle events as Prometheus metrics. All
// metrics are labelled by condition name.
type Metrics struct {
	starts         *prometheus.CounterVec
	stops          *prometheus.CounterVec
	changes        *prometheus.CounterVec
	callbackPanics *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	active         *prometheus.GaugeVec
}

// New creates Metrics under the given namespace and registers the
// collectors with reg. Registration fails if the collectors already exist
// in reg.
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		starts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "condition",
			Name:      "starts_total",
			Help:      "Number of times monitoring started.",
		}, []string{"condition"}),
		stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "condition",
			Name:      "stops_total",
			Help:      "Number of times monitoring stopped.",
		}, []string{"condition"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "condition",
			Name:      "changes_total",
			Help:      "Number of state transitions by resulting state.",
		}, []string{"condition", "state"}),
		callbackPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "condition",
			Name:      "callback_panics_total",
			Help:      "Number of recovered callback panics.",
		}, []string{"condition"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "condition",
			Name:      "source_failures_total",
			Help:      "Number of source failures by stage.",
		}, []string{"condition", "stage"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "condition",
			Name:      "active",
			Help:      "Whether monitoring is currently running.",
		}, []string{"condition"}),
	}

	for _, c := range []prometheus.Collector{m.starts, m.stops, m.changes, m.callbackPanics, m.sourceFailures, m.active} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OnStart implements tristate.MetricsProvider.
func (m *Metrics) OnStart(name string) {
	m.starts.WithLabelValues(name).Inc()
	m.active.WithLabelValues(name).Set(1)
}

// OnStop implements tristate.MetricsProvider.
func (m *Metrics) OnStop(name string) {
	m.stops.WithLabelValues(name).Inc()
	m.active.WithLabelValues(name).Set(0)
}

// OnChange implements tristate.MetricsProvider.
func (m *Metrics) OnChange(name string, _, to tristate.TriState) {
	m.changes.WithLabelValues(name, to.String()).Inc()
}

// OnCallbackPanic implements tristate.MetricsProvider.
func (m *Metrics) OnCallbackPanic(name string) {
	m.callbackPanics.WithLabelValues(name).Inc()
}

// OnSourceFailure implements tristate.MetricsProvider.
func (m *Metrics) OnSourceFailure(name, stage string) {
	m.sourceFailures.WithLabelValues(name, stage).Inc()
}

var _ tristate.MetricsProvider = (*Metrics)(nil)
