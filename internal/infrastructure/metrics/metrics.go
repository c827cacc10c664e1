package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LifecycleMetrics holds the order lifecycle collectors
type LifecycleMetrics struct {
	// Committed transitions
	TransitionsTotal 	*prometheus.CounterVec
	OrdersCreatedTotal 	*prometheus.CounterVec

	// Rejected actions and concurrency
	RejectionsTotal 		*prometheus.CounterVec
	VersionConflictsTotal 	*prometheus.CounterVec
	RetriesExhaustedTotal 	*prometheus.CounterVec

	// Disputes
	DisputesOpenedTotal 	prometheus.Counter
	DisputesResolvedTotal 	*prometheus.CounterVec
	RefundAmountTotal 		*prometheus.CounterVec

	// Apply latency
	ApplyDuration *prometheus.HistogramVec

	// Outbox delivery
	OutboxPublishedTotal 	prometheus.Counter
	OutboxFailedTotal 		prometheus.Counter
}

// NewLifecycleMetrics registers the collectors on reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	f := promauto.With(reg)
	return &LifecycleMetrics{
		TransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_transitions_total",
				Help: "Committed order transitions",
			},
			[]string{"action", "from", "to"},
		),

		OrdersCreatedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_created_total",
				Help: "Orders created in pending status",
			},
			[]string{"currency"},
		),

		RejectionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_action_rejections_total",
				Help: "Actions rejected before commit, by error kind",
			},
			[]string{"action", "kind"},
		),

		VersionConflictsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_version_conflicts_total",
				Help: "Compare-and-swap attempts that lost to a concurrent writer",
			},
			[]string{"action"},
		),

		RetriesExhaustedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_retries_exhausted_total",
				Help: "Actions that surfaced a version conflict after the retry bound",
			},
			[]string{"action"},
		),

		DisputesOpenedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "disputes_opened_total",
				Help: "Dispute cases opened",
			},
		),

		DisputesResolvedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disputes_resolved_total",
				Help: "Dispute resolutions committed, by resolution action",
			},
			[]string{"resolution"},
		),

		RefundAmountTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispute_refund_amount_total",
				Help: "Refunded amount in minor units",
			},
			[]string{"currency"},
		),

		ApplyDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: 		"order_apply_duration_seconds",
				Help: 		"Latency of apply calls including retries",
				Buckets: 	prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms, 2ms, 4ms...
			},
			[]string{"action", "outcome"},
		),

		OutboxPublishedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "outbox_events_published_total",
				Help: "Outbox events delivered to the broker",
			},
		),

		OutboxFailedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "outbox_events_failed_total",
				Help: "Outbox publish attempts that failed and will be retried",
			},
		),
	}
}

// RecordTransition records a committed transition
func (m *LifecycleMetrics) RecordTransition(action, from, to string) {
	m.TransitionsTotal.WithLabelValues(action, from, to).Inc()
}

func (m *LifecycleMetrics) RecordOrderCreated(currency string) {
	m.OrdersCreatedTotal.WithLabelValues(currency).Inc()
}

// RecordRejection records an action refused with the given error kind
func (m *LifecycleMetrics) RecordRejection(action, kind string) {
	m.RejectionsTotal.WithLabelValues(action, kind).Inc()
}

func (m *LifecycleMetrics) RecordVersionConflict(action string) {
	m.VersionConflictsTotal.WithLabelValues(action).Inc()
}

func (m *LifecycleMetrics) RecordRetriesExhausted(action string) {
	m.RetriesExhaustedTotal.WithLabelValues(action).Inc()
}

func (m *LifecycleMetrics) RecordDisputeOpened() {
	m.DisputesOpenedTotal.Inc()
}

// RecordDisputeResolved records a resolution and, for refunds, the refunded amount
func (m *LifecycleMetrics) RecordDisputeResolved(resolution, currency string, refunded int64) {
	m.DisputesResolvedTotal.WithLabelValues(resolution).Inc()
	if refunded > 0 {
		m.RefundAmountTotal.WithLabelValues(currency).Add(float64(refunded))
	}
}

// RecordApplyDuration observes the time since start
func (m *LifecycleMetrics) RecordApplyDuration(action, outcome string, start time.Time) {
	m.ApplyDuration.WithLabelValues(action, outcome).Observe(time.Since(start).Seconds())
}

func (m *LifecycleMetrics) RecordOutboxPublished(n int) {
	m.OutboxPublishedTotal.Add(float64(n))
}

func (m *LifecycleMetrics) RecordOutboxFailed() {
	m.OutboxFailedTotal.Inc()
}
