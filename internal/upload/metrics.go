package upload

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts gate decisions.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics registers the gate collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "svg_gate_decisions_total",
				Help: "Uploads seen by the SVG gate, by outcome and rejection reason.",
			},
			[]string{"outcome", "reason"},
		),
	}
	if err := reg.Register(m.decisions); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(d Decision) {
	if m == nil {
		return
	}
	reason := string(d.Reason)
	if reason == "" {
		reason = "none"
	}
	m.decisions.WithLabelValues(d.Label(), reason).Inc()
}
