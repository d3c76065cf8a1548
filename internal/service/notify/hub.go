package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wonny/stockmarket/internal/domain/stock"
	"github.com/wonny/stockmarket/internal/pkg/metrics"
)

// Message types pushed to subscribers
const (
	TypeStockAdded   = "StockAdded"
	TypeStockUpdated = "StockUpdated"
)

// Message is one change pushed to every subscriber
type Message struct {
	Type      string    `json:"type"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscription receives hub messages until it is unsubscribed
type Subscription struct {
	ID string
	C  chan Message
}

// Config holds hub configuration
type Config struct {
	ChannelSize int // buffer size for subscription channels (default: 100)
}

// Hub fans stock changes out to subscribers.
// Publish never blocks; a full subscriber channel drops the message.
type Hub struct {
	mu          sync.RWMutex
	subs        map[*Subscription]struct{}
	channelSize int
	metrics     *metrics.Hub
	closed      bool

	published int64
	delivered int64
	dropped   int64
}

// Stats holds hub statistics
type Stats struct {
	Subscribers    int   `json:"subscribers"`
	TotalPublished int64 `json:"total_published"`
	TotalDelivered int64 `json:"total_delivered"`
	TotalDropped   int64 `json:"total_dropped"`
	Closed         bool  `json:"closed"`
}

// NewHub creates a new hub; m may be nil
func NewHub(cfg Config, m *metrics.Hub) *Hub {
	if cfg.ChannelSize <= 0 {
		cfg.ChannelSize = 100
	}
	return &Hub{
		subs:        make(map[*Subscription]struct{}),
		channelSize: cfg.ChannelSize,
		metrics:     m,
	}
}

// Subscribe registers a new subscriber
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription{
		ID: uuid.NewString(),
		C:  make(chan Message, h.channelSize),
	}
	if h.closed {
		close(sub.C)
		return sub
	}

	h.subs[sub] = struct{}{}
	h.reportSubscribers()

	log.Debug().
		Str("subscriber", sub.ID).
		Int("total_subs", len(h.subs)).
		Msg("Hub: new subscription")

	return sub
}

// Unsubscribe removes a subscriber and closes its channel
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.C)
	h.reportSubscribers()

	log.Debug().
		Str("subscriber", sub.ID).
		Int("total_subs", len(h.subs)).
		Msg("Hub: unsubscribed")
}

// Publish sends msg to every subscriber without blocking
func (h *Hub) Publish(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.published++
	if h.metrics != nil {
		h.metrics.Published(msg.Type)
	}

	for sub := range h.subs {
		select {
		case sub.C <- msg:
			h.delivered++
		default:
			h.dropped++
			if h.metrics != nil {
				h.metrics.Dropped()
			}
			log.Warn().
				Str("subscriber", sub.ID).
				Str("code", msg.Code).
				Msg("Hub: subscriber too slow, message dropped")
		}
	}
}

// Notify turns a stock change into a hub message
func (h *Hub) Notify(_ context.Context, change stock.Change) {
	msg := Message{Code: change.Code, Timestamp: change.At}
	switch change.Kind {
	case stock.ChangeAdded:
		msg.Type = TypeStockAdded
	case stock.ChangeUpdated:
		msg.Type = TypeStockUpdated
	default:
		log.Warn().Str("kind", string(change.Kind)).Msg("Hub: unknown change kind")
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	h.Publish(msg)
}

// Stats returns hub statistics
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return Stats{
		Subscribers:    len(h.subs),
		TotalPublished: h.published,
		TotalDelivered: h.delivered,
		TotalDropped:   h.dropped,
		Closed:         h.closed,
	}
}

// Close closes every subscription; later publishes are ignored
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for sub := range h.subs {
		close(sub.C)
	}
	h.subs = make(map[*Subscription]struct{})
	h.reportSubscribers()

	log.Info().Msg("Hub closed")
}

func (h *Hub) reportSubscribers() {
	if h.metrics != nil {
		h.metrics.SetSubscribers(len(h.subs))
	}
}
