package render

import "github.com/prometheus/client_golang/prometheus"

// Render outcomes.
const (
	RenderOK          = "ok"
	RenderRemediation = "remediation"
)

// Metrics bundles Prometheus collectors for the gallery.
type Metrics struct {
	Registry     *prometheus.Registry
	RendersTotal *prometheus.CounterVec
	Cards        prometheus.Gauge
}

// NewMetrics constructs and registers the gallery metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	renders := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_renders_total",
			Help: "Gallery pages rendered, by outcome.",
		},
		[]string{"outcome"},
	)
	cards := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_cards",
			Help: "Cards in the last successfully rendered gallery.",
		},
	)

	registry.MustRegister(renders, cards)

	return &Metrics{
		Registry:     registry,
		RendersTotal: renders,
		Cards:        cards,
	}
}

// IncRender counts one rendered page.
func (m *Metrics) IncRender(outcome string) {
	if m == nil {
		return
	}
	m.RendersTotal.WithLabelValues(outcome).Inc()
}

// SetCards records the card count of the last gallery.
func (m *Metrics) SetCards(n int) {
	if m == nil {
		return
	}
	m.Cards.Set(float64(n))
}
