package workflow

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// transition outcomes
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeFailed   = "failed"
)

// Metrics are engine counters
type Metrics struct {
	InstancesCreated prometheus.Counter
	Transitions      *prometheus.CounterVec
}

// NewMetrics creates engine counters and registers them if
// a registerer is given
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		InstancesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lowcode",
			Subsystem: "workflow",
			Name:      "instances_created_total",
			Help:      "Total number of created workflow instances",
		}),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lowcode",
				Subsystem: "workflow",
				Name:      "transitions_total",
				Help:      "Total number of attempted transitions by outcome",
			},
			[]string{"outcome"},
		),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{m.InstancesCreated, m.Transitions} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register workflow metrics")
		}
	}

	return m, nil
}

func (m *Metrics) instanceCreated() {
	if m != nil {
		m.InstancesCreated.Inc()
	}
}

func (m *Metrics) transition(outcome string) {
	if m != nil {
		m.Transitions.WithLabelValues(outcome).Inc()
	}
}
