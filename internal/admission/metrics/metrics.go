package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts admission decisions. All methods are nil-safe so the
// service can run without a registry in tests.
type Metrics struct {
	granted  prometheus.Counter
	denied   *prometheus.CounterVec
	redeemed prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		granted: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestpass_admissions_granted_total",
			Help: "Scans that consumed an admission slot.",
		}),
		denied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guestpass_admissions_denied_total",
			Help: "Scans rejected, by reason.",
		}, []string{"reason"}),
		redeemed: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestpass_credentials_redeemed_total",
			Help: "Credentials that reached full capacity.",
		}),
	}
}

func (m *Metrics) IncGranted() {
	if m == nil {
		return
	}
	m.granted.Inc()
}

func (m *Metrics) IncDenied(reason string) {
	if m == nil {
		return
	}
	m.denied.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncRedeemed() {
	if m == nil {
		return
	}
	m.redeemed.Inc()
}
