package state

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts persistence outcomes per container key.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	loads    *prometheus.CounterVec
	saves    *prometheus.CounterVec
	mutation *prometheus.CounterVec
}

// Result label values.
const (
	resultOK      = "ok"
	resultAbsent  = "absent"
	resultError   = "error"
	resultCorrupt = "corrupt"
	resultSkipped = "skipped"
)

// NewMetrics creates the container collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid global registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "state",
			Name:      "loads_total",
			Help:      "Initial snapshot loads by key and result.",
		}, []string{"key", "result"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "state",
			Name:      "saves_total",
			Help:      "Write-through snapshot saves by key and result.",
		}, []string{"key", "result"}),
		mutation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "state",
			Name:      "mutations_total",
			Help:      "Effective in-memory mutations by key and lifecycle phase.",
		}, []string{"key", "phase"}),
	}
	if reg != nil {
		reg.MustRegister(m.loads, m.saves, m.mutation)
	}
	return m
}

func (m *Metrics) load(key, result string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(key, result).Inc()
}

func (m *Metrics) save(key, result string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(key, result).Inc()
}

func (m *Metrics) mutated(key string, phase Phase) {
	if m == nil {
		return
	}
	m.mutation.WithLabelValues(key, phase.String()).Inc()
}
