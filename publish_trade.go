package match

import (
	"context"
	"sync"
)

// PublishTrade receives the trades produced by a book.
//
// PublishTrades is called synchronously while the book is locked, once per
// AddOrder that produced trades, in execution order. Implementations must not
// call back into the same book.
type PublishTrade interface {
	PublishTrades(symbol string, trades ...Trade)
}

// TradeEvent is a trade tagged with the market it executed on.
type TradeEvent struct {
	Symbol string `json:"symbol"`
	Trade  Trade  `json:"trade"`
}

// MemoryPublishTrade stores trades in memory, useful for testing.
type MemoryPublishTrade struct {
	mu     sync.RWMutex
	Events []TradeEvent
}

// NewMemoryPublishTrade creates a new MemoryPublishTrade.
func NewMemoryPublishTrade() *MemoryPublishTrade {
	return &MemoryPublishTrade{
		Events: make([]TradeEvent, 0),
	}
}

// PublishTrades appends trades to the in-memory slice.
func (m *MemoryPublishTrade) PublishTrades(symbol string, trades ...Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, trade := range trades {
		m.Events = append(m.Events, TradeEvent{Symbol: symbol, Trade: trade})
	}
}

// Count returns the number of trades stored.
func (m *MemoryPublishTrade) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Events)
}

// Get returns the event at the specified index.
func (m *MemoryPublishTrade) Get(index int) TradeEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Events[index]
}

// DiscardPublishTrade discards all trades, useful for benchmarking.
type DiscardPublishTrade struct {
}

// NewDiscardPublishTrade creates a new DiscardPublishTrade.
func NewDiscardPublishTrade() *DiscardPublishTrade {
	return &DiscardPublishTrade{}
}

// PublishTrades does nothing.
func (p *DiscardPublishTrade) PublishTrades(symbol string, trades ...Trade) {

}

// RingPublishTrade hands trades to a consumer goroutine through a RingBuffer,
// so slow downstream handlers do not hold the book lock.
type RingPublishTrade struct {
	ring *RingBuffer[TradeEvent]
}

// NewRingPublishTrade creates a publisher backed by a ring of the given capacity (a power of 2).
func NewRingPublishTrade(capacity int64, handler EventHandler[TradeEvent]) *RingPublishTrade {
	return &RingPublishTrade{
		ring: NewRingBuffer[TradeEvent](capacity, handler),
	}
}

// Start launches the consumer goroutine.
func (p *RingPublishTrade) Start() {
	p.ring.Start()
}

// PublishTrades forwards each trade into the ring. Trades published after Shutdown are dropped.
func (p *RingPublishTrade) PublishTrades(symbol string, trades ...Trade) {
	for _, trade := range trades {
		if !p.ring.Publish(TradeEvent{Symbol: symbol, Trade: trade}) {
			logger.Warn("trade dropped, publisher is shut down", "symbol", symbol, "trade_id", trade.ID)
			return
		}
	}
}

// Shutdown stops the publisher after handling every trade already published.
func (p *RingPublishTrade) Shutdown(ctx context.Context) error {
	return p.ring.Shutdown(ctx)
}
