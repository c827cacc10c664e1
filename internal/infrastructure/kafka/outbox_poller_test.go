package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/LavaJover/marketplace-order-service/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type outboxRepoMock struct {
	mock.Mock
}

func (m *outboxRepoMock) FetchUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	events, _ := args.Get(0).([]*domain.OutboxEvent)
	return events, args.Error(1)
}

func (m *outboxRepoMock) MarkPublished(ctx context.Context, ids ...string) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *outboxRepoMock) MarkFailed(ctx context.Context, id string, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	return m.Called(ctx, topic, msgs).Error(0)
}

func event(id, orderID string) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID: 			id,
		AggregateID: 	orderID,
		EventType: 		domain.EventTypeOrderTransitioned,
		Payload: 		[]byte(`{"order_id":"` + orderID + `"}`),
		CreatedAt: 		time.Now(),
	}
}

func TestOutboxPoller_PublishesAndMarks(t *testing.T) {
	repo := &outboxRepoMock{}
	pub := &publisherMock{}
	m := metrics.NewLifecycleMetrics(prometheus.NewRegistry())
	poller := NewOutboxPoller(repo, pub, m, "order-lifecycle-events", 10, time.Second)

	repo.On("FetchUnpublished", mock.Anything, 10).Return([]*domain.OutboxEvent{event("e-1", "o-1"), event("e-2", "o-2")}, nil).Once()
	pub.On("Publish", mock.Anything, "order-lifecycle-events", mock.MatchedBy(func(msgs []domain.Message) bool {
		return len(msgs) == 1 && msgs[0].Headers[eventTypeHeader] == domain.EventTypeOrderTransitioned
	})).Return(nil).Twice()
	repo.On("MarkPublished", mock.Anything, []string{"e-1", "e-2"}).Return(nil).Once()

	n, err := poller.PublishPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxPublishedTotal))
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestOutboxPoller_FailureBlocksLaterEventsOfSameOrder(t *testing.T) {
	repo := &outboxRepoMock{}
	pub := &publisherMock{}
	poller := NewOutboxPoller(repo, pub, nil, "events", 10, time.Second)

	repo.On("FetchUnpublished", mock.Anything, 10).Return([]*domain.OutboxEvent{
		event("e-1", "o-1"),
		event("e-2", "o-1"),
		event("e-3", "o-2"),
	}, nil).Once()
	pub.On("Publish", mock.Anything, "events", mock.MatchedBy(func(msgs []domain.Message) bool {
		return string(msgs[0].Key) == "o-1"
	})).Return(errors.New("broker unavailable")).Once()
	pub.On("Publish", mock.Anything, "events", mock.MatchedBy(func(msgs []domain.Message) bool {
		return string(msgs[0].Key) == "o-2"
	})).Return(nil).Once()
	repo.On("MarkFailed", mock.Anything, "e-1", "broker unavailable").Return(nil).Once()
	repo.On("MarkPublished", mock.Anything, []string{"e-3"}).Return(nil).Once()

	n, err := poller.PublishPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestOutboxPoller_FetchError(t *testing.T) {
	repo := &outboxRepoMock{}
	poller := NewOutboxPoller(repo, &publisherMock{}, nil, "events", 0, 0)

	repo.On("FetchUnpublished", mock.Anything, 100).Return(nil, errors.New("db down")).Once()

	_, err := poller.PublishPending(context.Background())
	assert.Error(t, err)
}
