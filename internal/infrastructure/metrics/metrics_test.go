package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLifecycleMetrics_Counters(t *testing.T) {
	m := NewLifecycleMetrics(prometheus.NewRegistry())

	m.RecordTransition("ship", "confirmed", "shipped")
	m.RecordTransition("ship", "confirmed", "shipped")
	m.RecordRejection("cancel", "illegal_transition")
	m.RecordDisputeResolved("refund_partial", "USD", 700)
	m.RecordDisputeResolved("close_no_action", "USD", 0)
	m.RecordOutboxPublished(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("ship", "confirmed", "shipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectionsTotal.WithLabelValues("cancel", "illegal_transition")))
	assert.Equal(t, 700.0, testutil.ToFloat64(m.RefundAmountTotal.WithLabelValues("USD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DisputesResolvedTotal.WithLabelValues("close_no_action")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OutboxPublishedTotal))
}

func TestLifecycleMetrics_Duration(t *testing.T) {
	m := NewLifecycleMetrics(prometheus.NewRegistry())

	m.RecordApplyDuration("confirm", "ok", time.Now().Add(-5*time.Millisecond))

	assert.Equal(t, 1, testutil.CollectAndCount(m.ApplyDuration))
}
