package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"delivery-tracking/internal/domain"
	testlog "delivery-tracking/internal/testutil"
)

type publisherStub struct {
	mu        sync.Mutex
	published []Envelope
	block     chan struct{}
	err       error
}

func (p *publisherStub) Publish(ctx context.Context, env Envelope) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, env)
	return p.err
}

func (p *publisherStub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type counterStub struct{ n int64 }

func (c *counterStub) Inc()         { atomic.AddInt64(&c.n, 1) }
func (c *counterStub) Count() int64 { return atomic.LoadInt64(&c.n) }

func TestDispatcher_PublishesEnqueued(t *testing.T) {
	t.Parallel()

	pub := &publisherStub{}
	d := NewDispatcher(pub, testlog.New().Logger(), nil, 8)

	loc := domain.CourierLocation{
		CourierID: "c-1",
		Latitude:  55.75,
		Longitude: 37.61,
		Available: true,
	}
	require.True(t, d.Enqueue(NewLocationUpdated(loc)))
	require.True(t, d.Enqueue(NewStatusChanged(domain.StatusChange{
		OrderID: "o-1",
		Status:  domain.StatusOutForDelivery,
		Actor:   domain.ActorCourier,
	})))

	d.Close()
	require.Equal(t, 2, pub.count())
	require.Equal(t, TypeLocationUpdated, pub.published[0].Type)
	require.Equal(t, TypeDeliveryStatusChanged, pub.published[1].Type)
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	pub := &publisherStub{block: make(chan struct{})}
	rec := testlog.New()
	dropped := &counterStub{}
	d := NewDispatcher(pub, rec.Logger(), dropped, 1)

	loc := domain.CourierLocation{CourierID: "c-1"}
	// first occupies the worker, second fills the buffer
	d.Enqueue(NewLocationUpdated(loc))
	d.Enqueue(NewLocationUpdated(loc))

	deadline := time.Now().Add(time.Second)
	for dropped.Count() == 0 && time.Now().Before(deadline) {
		d.Enqueue(NewLocationUpdated(loc))
	}
	require.GreaterOrEqual(t, dropped.Count(), int64(1))

	close(pub.block)
	d.Close()
}

func TestDispatcher_CloseDrains(t *testing.T) {
	t.Parallel()

	pub := &publisherStub{}
	d := NewDispatcher(pub, testlog.New().Logger(), nil, 16)

	for i := 0; i < 10; i++ {
		require.True(t, d.Enqueue(NewLocationUpdated(domain.CourierLocation{CourierID: "c-1"})))
	}
	d.Close()
	require.Equal(t, 10, pub.count())

	require.False(t, d.Enqueue(NewLocationUpdated(domain.CourierLocation{CourierID: "c-1"})))
}

func TestDispatcher_PublishErrorLogged(t *testing.T) {
	t.Parallel()

	pub := &publisherStub{err: errors.New("broker down")}
	rec := testlog.New()
	d := NewDispatcher(pub, rec.Logger(), nil, 4)

	d.Enqueue(NewLocationUpdated(domain.CourierLocation{CourierID: "c-1"}))
	d.Close()

	entries := rec.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "warn", entries[0].Level)
	require.Equal(t, "event publish failed", entries[0].Msg)
}

func TestEnvelopePayloads(t *testing.T) {
	t.Parallel()

	reported := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := NewLocationUpdated(domain.CourierLocation{
		CourierID:  "c-7",
		Latitude:   55.751,
		Longitude:  37.617,
		Available:  true,
		ReportedAt: reported,
	})
	require.NotEmpty(t, env.ID)
	require.Equal(t, reported, env.OccurredAt)

	var payload LocationUpdated
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, "c-7", payload.CourierID)
	require.True(t, payload.Available)

	env = NewStatusChanged(domain.StatusChange{
		OrderID:   "o-9",
		Status:    domain.StatusDelivered,
		Actor:     domain.ActorCourier,
		ChangedAt: reported,
	})
	var status StatusChanged
	require.NoError(t, json.Unmarshal(env.Payload, &status))
	require.Equal(t, "delivered", status.Status)
	require.Equal(t, "courier", status.Actor)
}
