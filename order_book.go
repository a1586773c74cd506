package match

import (
	"log/slog"
	"time"

	"github.com/0x5487/lob/structure"
	"github.com/rs/xid"
)

// OrderBookOption configures an OrderBook.
type OrderBookOption func(*OrderBook)

// WithCompactionRatio sets the deleted/total ratio above which tombstones are purged.
// Values outside (0, 1] are ignored.
func WithCompactionRatio(ratio float64) OrderBookOption {
	return func(book *OrderBook) {
		if ratio <= 0 || ratio > 1 {
			book.log.Warn("compaction ratio out of range, keeping default", "ratio", ratio, "default", book.compactionRatio)
			return
		}
		book.compactionRatio = ratio
	}
}

// WithInitialCapacity pre-allocates order slots.
func WithInitialCapacity(n int32) OrderBookOption {
	return func(book *OrderBook) {
		if n > 0 {
			book.initialCapacity = n
		}
	}
}

// WithMaxOrders bounds the number of stored orders, tombstones included.
func WithMaxOrders(n int32) OrderBookOption {
	return func(book *OrderBook) {
		if n > 0 {
			book.maxOrders = n
		}
	}
}

// WithPublishTrade sets the downstream trade publisher.
func WithPublishTrade(p PublishTrade) OrderBookOption {
	return func(book *OrderBook) {
		if p != nil {
			book.publishTrade = p
		}
	}
}

// WithMetrics records book activity on m.
func WithMetrics(m *Metrics) OrderBookOption {
	return func(book *OrderBook) {
		book.metrics = m.forBook(book.symbol)
	}
}

// OrderBook is the matching engine of a single symbol.
//
// An OrderBook is not safe for concurrent use: the ledger and the
// cancellation index are mutated together by every call. Use an Exchange to
// share books between goroutines.
type OrderBook struct {
	id     string
	symbol string
	log    *slog.Logger

	bidQueue *queue
	askQueue *queue
	orders   *structure.Arena[Order]
	index    orderIndex
	trades   []Trade

	orderSeq uint64
	arrival  uint64
	tradeSeq uint64

	totalCount   int64 // Entries stored in the ledger, live and tombstoned
	deletedCount int64 // Tombstoned entries not yet purged
	compactions  int64

	compactionRatio float64
	initialCapacity int32
	maxOrders       int32
	publishTrade    PublishTrade
	metrics         *bookMetrics
}

// NewOrderBook creates a new order book instance.
func NewOrderBook(symbol string, opts ...OrderBookOption) *OrderBook {
	id := xid.New().String()
	book := &OrderBook{
		id:              id,
		symbol:          symbol,
		log:             bookLogger(symbol, id),
		bidQueue:        NewBuyerQueue(),
		askQueue:        NewSellerQueue(),
		compactionRatio: DefaultCompactionRatio,
		initialCapacity: DefaultInitialCapacity,
		publishTrade:    NewDiscardPublishTrade(),
	}

	for _, opt := range opts {
		opt(book)
	}

	capacity := book.initialCapacity
	if book.maxOrders > 0 && capacity > book.maxOrders {
		capacity = book.maxOrders
	}

	book.orders = structure.NewArenaWithOptions[Order](capacity, structure.ArenaOptions{
		MaxCapacity: book.maxOrders,
		OnGrow: func(oldCap, newCap int32) {
			book.log.Debug("order arena grew", "old_cap", oldCap, "new_cap", newCap)
		},
	})
	book.index = newOrderIndex(int(capacity))

	return book
}

// ID returns the unique id of this book instance.
func (book *OrderBook) ID() string {
	return book.id
}

// Symbol returns the symbol traded on this book.
func (book *OrderBook) Symbol() string {
	return book.symbol
}

// AddOrder admits a limit order, matches it against the opposite side and
// rests any residual quantity. It returns the trades in execution order.
func (book *OrderBook) AddOrder(cmd *PlaceOrderCommand) ([]Trade, error) {
	if err := cmd.validate(); err != nil {
		book.metrics.observeRejected()
		return nil, err
	}

	// The residual may need a slot; refuse up front rather than after matching.
	if book.orders.Full() {
		if book.deletedCount > 0 {
			book.compact()
		}
		if book.orders.Full() {
			book.metrics.observeRejected()
			return nil, ErrBookFull
		}
	}

	var start time.Time
	if book.metrics != nil {
		start = time.Now()
	}

	book.orderSeq++
	book.arrival++
	order := Order{
		ID:       OrderID(book.orderSeq),
		Side:     cmd.Side,
		Price:    cmd.Price,
		Quantity: cmd.Quantity,
		Sequence: book.arrival,
	}

	trades := book.match(&order)

	if order.Quantity > 0 {
		book.rest(order)
	}

	if len(trades) > 0 {
		book.publishTrade.PublishTrades(book.symbol, trades...)
	}

	book.metrics.observeAccepted(order.Side, start, trades)
	book.metrics.setResting(book.bidQueue.orderCount(), book.askQueue.orderCount())

	return trades, nil
}

// RemoveOrder cancels a resting order. It returns false if the id is unknown,
// already filled, or already cancelled.
func (book *OrderBook) RemoveOrder(id OrderID) bool {
	loc, ok := book.index.get(id)
	if !ok {
		book.metrics.observeCancel(false)
		return false
	}

	q := book.queueOf(loc.side)
	unit := q.level(loc.price)
	h := unit.slots[loc.slot]
	order := book.orders.Get(h)

	book.tombstone(q, unit, order)

	book.metrics.observeCancel(true)
	book.metrics.setResting(book.bidQueue.orderCount(), book.askQueue.orderCount())
	return true
}

// ShowTrades returns the full trade history in chronological order.
func (book *OrderBook) ShowTrades() []Trade {
	trades := make([]Trade, len(book.trades))
	copy(trades, book.trades)
	return trades
}

// Order returns a copy of the live order with the given id.
func (book *OrderBook) Order(id OrderID) (Order, bool) {
	loc, ok := book.index.get(id)
	if !ok {
		return Order{}, false
	}

	unit := book.queueOf(loc.side).level(loc.price)
	return *book.orders.Get(unit.slots[loc.slot]), true
}

// BestBid returns the highest live bid price.
func (book *OrderBook) BestBid() (Price, bool) {
	return bestPrice(book.bidQueue)
}

// BestAsk returns the lowest live ask price.
func (book *OrderBook) BestAsk() (Price, bool) {
	return bestPrice(book.askQueue)
}

func bestPrice(q *queue) (Price, bool) {
	unit := q.bestLevel()
	if unit == nil {
		return 0, false
	}
	return unit.price, true
}

// Depth returns the aggregated live size of the best price levels on each side.
func (book *OrderBook) Depth(limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, ErrInvalidParam
	}

	return &Depth{
		Asks: book.askQueue.depth(limit),
		Bids: book.bidQueue.depth(limit),
	}, nil
}

// Stats returns usage statistics for the order book.
func (book *OrderBook) Stats() *BookStats {
	return &BookStats{
		BidDepthCount: book.bidQueue.depthCount(),
		BidOrderCount: book.bidQueue.orderCount(),
		AskDepthCount: book.askQueue.depthCount(),
		AskOrderCount: book.askQueue.orderCount(),
		TotalCount:    book.totalCount,
		DeletedCount:  book.deletedCount,
		Compactions:   book.compactions,
		TradeCount:    int64(len(book.trades)),
	}
}

// Compact purges every tombstone now, regardless of the compaction ratio.
func (book *OrderBook) Compact() {
	book.compact()
}

func (book *OrderBook) queueOf(side Side) *queue {
	if side == Buy {
		return book.bidQueue
	}
	return book.askQueue
}

// match crosses the incoming order against the opposite side until it is
// exhausted or the best opposite price no longer crosses.
func (book *OrderBook) match(order *Order) []Trade {
	var targetQueue *queue
	if order.Side == Buy {
		targetQueue = book.askQueue
	} else {
		targetQueue = book.bidQueue
	}

	var trades []Trade

	for order.Quantity > 0 {
		unit := targetQueue.bestLevel()
		if unit == nil {
			break
		}

		if order.Side == Buy && order.Price < unit.price ||
			order.Side == Sell && order.Price > unit.price {
			break
		}

		tOrd := book.headOrder(unit)
		if tOrd == nil {
			book.dropLevel(targetQueue, unit)
			continue
		}

		qty := min(order.Quantity, tOrd.Quantity)
		order.Quantity -= qty
		tOrd.Quantity -= qty
		unit.totalSize -= qty

		book.tradeSeq++
		trade := Trade{
			ID:       TradeID(book.tradeSeq),
			Price:    unit.price,
			Quantity: qty,
		}
		if order.Side == Buy {
			trade.BuyOrderID = order.ID
			trade.SellOrderID = tOrd.ID
		} else {
			trade.BuyOrderID = tOrd.ID
			trade.SellOrderID = order.ID
		}

		book.trades = append(book.trades, trade)
		trades = append(trades, trade)

		if tOrd.Quantity == 0 {
			// May drop the level or compact; the next iteration looks it up again.
			book.tombstone(targetQueue, unit, tOrd)
		}
	}

	return trades
}

// headOrder returns the first live order of the level, advancing past the tombstoned prefix.
func (book *OrderBook) headOrder(unit *priceLevel) *Order {
	for unit.head < len(unit.slots) {
		o := book.orders.Get(unit.slots[unit.head])
		if o != nil && !o.deleted {
			return o
		}
		unit.head++
	}
	return nil
}

// rest appends the order to the tail of its price level and indexes it.
func (book *OrderBook) rest(order Order) {
	h, err := book.orders.Alloc(order)
	if err != nil {
		// AddOrder checked for a free slot before matching.
		panic(err)
	}

	q := book.queueOf(order.Side)
	unit := q.levelOrCreate(order.Price)
	unit.slots = append(unit.slots, h)
	unit.live++
	unit.totalSize += order.Quantity
	q.totalOrders++

	book.index.put(order.ID, orderLocation{
		side:  order.Side,
		price: order.Price,
		slot:  len(unit.slots) - 1,
	})
	book.totalCount++
}

// tombstone marks a resting order filled or cancelled in place.
// Both cancellation and matching fills go through here.
func (book *OrderBook) tombstone(q *queue, unit *priceLevel, order *Order) {
	order.deleted = true
	book.index.remove(order.ID)
	book.deletedCount++

	unit.live--
	unit.totalSize -= order.Quantity
	q.totalOrders--

	if unit.live == 0 {
		book.dropLevel(q, unit)
	}

	if book.totalCount > 0 && float64(book.deletedCount)/float64(book.totalCount) > book.compactionRatio {
		book.compact()
	}
}

// dropLevel removes a level whose entries are all tombstoned.
func (book *OrderBook) dropLevel(q *queue, unit *priceLevel) {
	for _, h := range unit.slots {
		book.orders.Free(h)
	}

	n := int64(len(unit.slots))
	book.totalCount -= n
	book.deletedCount -= n

	q.removeLevel(unit.price)
}

// compact purges tombstoned entries from every level, keeping survivors in
// arrival order and rewriting their slot in the index.
func (book *OrderBook) compact() {
	purged := 0

	for _, q := range []*queue{book.bidQueue, book.askQueue} {
		var empty []Price

		for _, unit := range q.levels() {
			survivors := unit.slots[:0]
			for _, h := range unit.slots {
				o := book.orders.Get(h)
				if o.deleted {
					book.orders.Free(h)
					purged++
					continue
				}
				book.index.setSlot(o.ID, len(survivors))
				survivors = append(survivors, h)
			}

			unit.slots = survivors
			unit.head = 0

			if len(survivors) == 0 {
				empty = append(empty, unit.price)
			}
		}

		for _, price := range empty {
			q.removeLevel(price)
		}
	}

	book.totalCount = book.bidQueue.orderCount() + book.askQueue.orderCount()
	book.deletedCount = 0
	book.compactions++
	book.metrics.observeCompaction()

	book.log.Debug("order book compacted", "purged", purged, "live", book.totalCount)
}
