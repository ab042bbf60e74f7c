package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for credential issuance.
type Metrics struct {
	Issued     prometheus.Counter
	Collisions prometheus.Counter
	Widenings  prometheus.Counter
}

// New creates a new Metrics instance with all issuer metrics registered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Issued: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestpass_credentials_issued_total",
			Help: "Total credentials issued",
		}),
		Collisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestpass_code_collisions_total",
			Help: "Total code generation collisions that forced a retry",
		}),
		Widenings: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestpass_code_keyspace_widenings_total",
			Help: "Times the code keyspace widened after exhausting retries at a width",
		}),
	}
}

// IncIssued records a successful issuance.
func (m *Metrics) IncIssued() {
	if m != nil {
		m.Issued.Inc()
	}
}

// IncCollision records a code collision retry.
func (m *Metrics) IncCollision() {
	if m != nil {
		m.Collisions.Inc()
	}
}

// IncWidening records a keyspace widening. A non-zero rate here means the
// configured starting width is close to saturation.
func (m *Metrics) IncWidening() {
	if m != nil {
		m.Widenings.Inc()
	}
}
