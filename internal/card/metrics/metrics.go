package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for card rendering.
type Metrics struct {
	Renders       prometheus.Counter
	RenderFailed  *prometheus.CounterVec
	RenderLatency prometheus.Histogram
	ArtifactBytes prometheus.Histogram
}

// New creates a new Metrics instance with all compositor metrics registered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Renders: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestpass_cards_rendered_total",
			Help: "Total card artifacts rendered",
		}),
		RenderFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guestpass_card_render_failures_total",
			Help: "Card render failures by reason",
		}, []string{"reason"}), // reason: "template", "decode", "qr", "storage"
		RenderLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "guestpass_card_render_duration_seconds",
			Help:    "Duration of full card renders including artifact write",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ArtifactBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "guestpass_card_artifact_bytes",
			Help:    "Size of rendered card artifacts",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 8),
		}),
	}
}

// IncRendered records a successful render.
func (m *Metrics) IncRendered() {
	if m != nil {
		m.Renders.Inc()
	}
}

// IncFailed records a failed render by reason.
func (m *Metrics) IncFailed(reason string) {
	if m != nil {
		m.RenderFailed.WithLabelValues(reason).Inc()
	}
}

// ObserveRender records the duration of a full render.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m != nil {
		m.RenderLatency.Observe(d.Seconds())
	}
}

// ObserveArtifactSize records the byte size of a produced artifact.
func (m *Metrics) ObserveArtifactSize(n int64) {
	if m != nil {
		m.ArtifactBytes.Observe(float64(n))
	}
}
