package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the commerce engine.
type Metrics struct {
	// Link generation
	LinksGenerated *prometheus.CounterVec

	// Attribution decoding. Outcome is only "verified" or "rejected":
	// expired and tampered bags are indistinguishable everywhere, so a
	// scraper of /metrics learns nothing it could use as an oracle.
	AttributionDecodes *prometheus.CounterVec

	// Click-through tracking
	ClickEvents *prometheus.CounterVec

	// Orders and pricing
	Orders              *prometheus.CounterVec
	OrderTotal          prometheus.Histogram
	PricingComputations *prometheus.CounterVec

	// Rate limiting
	RateLimitHits *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		LinksGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "links_generated_total",
				Help:      "Total attribution links generated",
			},
			[]string{"channel"},
		),
		AttributionDecodes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attribution_decodes_total",
				Help:      "Attribution decode attempts by outcome",
			},
			[]string{"source", "outcome"},
		),
		ClickEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "click_events_total",
				Help:      "Click-through events recorded",
			},
			[]string{"country"},
		),
		Orders: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_total",
				Help:      "Orders recorded by commission tier",
			},
			[]string{"tier", "attributed"},
		),
		OrderTotal: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "order_total_dollars",
				Help:      "Final order totals in dollars",
				Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
			},
		),
		PricingComputations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pricing_computations_total",
				Help:      "Pricing engine computations by kind",
			},
			[]string{"kind"},
		),
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Rate limit rejections",
			},
			[]string{"endpoint"},
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordLink records a generated link.
func (m *Metrics) RecordLink(channel string) {
	m.LinksGenerated.WithLabelValues(channel).Inc()
}

// RecordDecode records an attribution decode outcome.
func (m *Metrics) RecordDecode(source string, verified bool) {
	outcome := "rejected"
	if verified {
		outcome = "verified"
	}
	m.AttributionDecodes.WithLabelValues(source, outcome).Inc()
}

// RecordClickEvent records a click-through event.
func (m *Metrics) RecordClickEvent(country string) {
	if country == "" {
		country = "unknown"
	}
	m.ClickEvents.WithLabelValues(country).Inc()
}

// RecordOrder records a completed order.
func (m *Metrics) RecordOrder(tier string, attributed bool, total float64) {
	label := "false"
	if attributed {
		label = "true"
	}
	m.Orders.WithLabelValues(tier, label).Inc()
	m.OrderTotal.Observe(total)
}

// RecordPricing records a pricing computation.
func (m *Metrics) RecordPricing(kind string) {
	m.PricingComputations.WithLabelValues(kind).Inc()
}

// RecordRateLimitHit records a rate limit rejection.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.RateLimitHits.WithLabelValues(endpoint).Inc()
}
