package notify

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/stockmarket/internal/domain/stock"
	"github.com/wonny/stockmarket/internal/pkg/metrics"
)

func TestHub_NotifyFansOut(t *testing.T) {
	hub := NewHub(Config{ChannelSize: 4}, metrics.NewHub(prometheus.NewRegistry()))
	a := hub.Subscribe()
	b := hub.Subscribe()
	assert.NotEqual(t, a.ID, b.ID)

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	hub.Notify(context.Background(), stock.Change{Kind: stock.ChangeAdded, Code: "TSC", At: at})
	hub.Notify(context.Background(), stock.Change{Kind: stock.ChangeUpdated, Code: "TSC", At: at})

	for _, sub := range []*Subscription{a, b} {
		require.Len(t, sub.C, 2)
		assert.Equal(t, Message{Type: TypeStockAdded, Code: "TSC", Timestamp: at}, <-sub.C)
		assert.Equal(t, TypeStockUpdated, (<-sub.C).Type)
	}

	stats := hub.Stats()
	assert.Equal(t, 2, stats.Subscribers)
	assert.Equal(t, int64(2), stats.TotalPublished)
	assert.Equal(t, int64(4), stats.TotalDelivered)
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	hub := NewHub(Config{ChannelSize: 1}, nil)
	sub := hub.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			hub.Publish(Message{Type: TypeStockUpdated, Code: "TSC"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	assert.Len(t, sub.C, 1)
	assert.Equal(t, int64(4), hub.Stats().TotalDropped)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(Config{}, nil)
	sub := hub.Subscribe()

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	hub.Unsubscribe(nil)

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Stats().Subscribers)

	hub.Publish(Message{Type: TypeStockAdded, Code: "TSC"})
	assert.Equal(t, int64(0), hub.Stats().TotalDelivered)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(Config{}, nil)
	sub := hub.Subscribe()

	hub.Close()
	hub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)

	late := hub.Subscribe()
	_, ok = <-late.C
	assert.False(t, ok, "subscriptions after Close are already closed")

	hub.Publish(Message{Type: TypeStockAdded})
	assert.Equal(t, int64(0), hub.Stats().TotalPublished)
	assert.True(t, hub.Stats().Closed)
}

func TestHub_IgnoresUnknownKind(t *testing.T) {
	hub := NewHub(Config{}, nil)
	sub := hub.Subscribe()

	hub.Notify(context.Background(), stock.Change{Kind: "deleted", Code: "TSC"})
	assert.Len(t, sub.C, 0)
}
