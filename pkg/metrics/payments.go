package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records checkout and payment-flow outcomes.
type PaymentMetrics struct {
	checkouts     *prometheus.CounterVec
	verifications *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	railLatency   *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout attempts by payment rail and outcome.",
	}, []string{"rail", "outcome"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verification_total",
		Help: "Client payment verifications by outcome.",
	}, []string{"outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Webhook events by provider and outcome.",
	}, []string{"provider", "outcome"})
	railLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_rail_request_seconds",
		Help:    "Latency of outbound payment provider calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"rail"})
	reg.MustRegister(checkouts, verifications, webhooks, railLatency)
	return &PaymentMetrics{
		checkouts:     checkouts,
		verifications: verifications,
		webhooks:      webhooks,
		railLatency:   railLatency,
	}
}

// IncCheckout counts one checkout attempt for the given rail.
func (m *PaymentMetrics) IncCheckout(rail, outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(rail), normalizeLabel(outcome)).Inc()
}

// IncVerification counts one verification attempt.
func (m *PaymentMetrics) IncVerification(outcome string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhookEvent counts one webhook delivery for the given provider.
func (m *PaymentMetrics) IncWebhookEvent(provider, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// ObserveRailLatency records the duration of one outbound provider call.
func (m *PaymentMetrics) ObserveRailLatency(rail string, duration time.Duration) {
	if m == nil || m.railLatency == nil {
		return
	}
	m.railLatency.WithLabelValues(normalizeLabel(rail)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
