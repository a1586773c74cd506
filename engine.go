package match

import (
	"sort"
	"sync"
)

// market pairs a book with the lock that serializes every operation on it.
type market struct {
	mu   sync.Mutex
	book *OrderBook
}

// Exchange manages one order book per symbol.
//
// The routing map is guarded by a reader/writer lock that is held only for
// the lookup or the insert; each book has its own mutex, so operations on
// different symbols proceed in parallel and operations on the same symbol are
// serialized.
type Exchange struct {
	mu       sync.RWMutex
	markets  map[string]*market
	bookOpts []OrderBookOption
}

// NewExchange creates a new exchange. opts are applied to every book it creates.
func NewExchange(opts ...OrderBookOption) *Exchange {
	return &Exchange{
		markets:  make(map[string]*market),
		bookOpts: opts,
	}
}

// AddSymbol registers a new empty book for symbol.
// Returns ErrMarketExists and keeps the existing book if the symbol is already registered.
func (e *Exchange) AddSymbol(symbol string) error {
	if len(symbol) == 0 {
		return ErrInvalidParam
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.markets[symbol]; exists {
		logger.Warn("market already exists", "symbol", symbol)
		return ErrMarketExists
	}

	book := NewOrderBook(symbol, e.bookOpts...)
	e.markets[symbol] = &market{book: book}

	logger.Info("market created", "symbol", symbol, "book_id", book.ID(), "engine_version", EngineVersion)
	return nil
}

// AddOrder places a limit order on the book of symbol and returns the trades it produced.
// Returns ErrNotFound if the symbol is not registered.
func (e *Exchange) AddOrder(symbol string, cmd *PlaceOrderCommand) ([]Trade, error) {
	m, err := e.market(symbol)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.AddOrder(cmd)
}

// RemoveOrder cancels a resting order on the book of symbol.
// The bool is false if no live order with that id exists.
func (e *Exchange) RemoveOrder(symbol string, id OrderID) (bool, error) {
	m, err := e.market(symbol)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.RemoveOrder(id), nil
}

// ShowTrades returns the trade history of symbol in chronological order.
func (e *Exchange) ShowTrades(symbol string) ([]Trade, error) {
	m, err := e.market(symbol)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.ShowTrades(), nil
}

// Order returns a copy of a live order on the book of symbol.
func (e *Exchange) Order(symbol string, id OrderID) (Order, bool, error) {
	m, err := e.market(symbol)
	if err != nil {
		return Order{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.book.Order(id)
	return order, ok, nil
}

// Depth returns the aggregated depth of symbol up to limit levels per side.
func (e *Exchange) Depth(symbol string, limit uint32) (*Depth, error) {
	m, err := e.market(symbol)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.Depth(limit)
}

// Stats returns usage statistics for the book of symbol.
func (e *Exchange) Stats(symbol string) (*BookStats, error) {
	m, err := e.market(symbol)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.Stats(), nil
}

// Symbols returns the registered symbols in lexical order.
func (e *Exchange) Symbols() []string {
	e.mu.RLock()
	symbols := make([]string, 0, len(e.markets))
	for symbol := range e.markets {
		symbols = append(symbols, symbol)
	}
	e.mu.RUnlock()

	sort.Strings(symbols)
	return symbols
}

func (e *Exchange) market(symbol string) (*market, error) {
	e.mu.RLock()
	m, ok := e.markets[symbol]
	e.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}
