package match

import (
	"github.com/0x5487/lob/structure"
	"github.com/huandu/skiplist"
)

// priceLevel is the FIFO queue of orders resting at one price.
// slots hold arena handles in arrival order; tombstoned entries stay in place
// until compaction, and slots[:head] are known to be tombstoned.
type priceLevel struct {
	price     Price
	slots     []structure.Handle
	head      int
	live      int
	totalSize uint64 // Sum of live quantities
}

type queue struct {
	side        Side
	totalOrders int64 // Live orders across all levels
	depths      int64
	depthList   *skiplist.SkipList
	priceList   map[Price]*skiplist.Element
}

// NewBuyerQueue creates a new queue for buy orders (bids).
// The levels are sorted by price in descending order (highest price first).
func NewBuyerQueue() *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(Price)
			p2, _ := rhs.(Price)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[Price]*skiplist.Element),
	}
}

// NewSellerQueue creates a new queue for sell orders (asks).
// The levels are sorted by price in ascending order (lowest price first).
func NewSellerQueue() *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(Price)
			p2, _ := rhs.(Price)

			if p1 > p2 {
				return 1
			} else if p1 < p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[Price]*skiplist.Element),
	}
}

// level finds the level at price, or nil.
func (q *queue) level(price Price) *priceLevel {
	el, ok := q.priceList[price]
	if !ok {
		return nil
	}
	unit, _ := el.Value.(*priceLevel)
	return unit
}

// levelOrCreate returns the level at price, inserting an empty one if needed.
func (q *queue) levelOrCreate(price Price) *priceLevel {
	if unit := q.level(price); unit != nil {
		return unit
	}

	unit := &priceLevel{price: price}
	el := q.depthList.Set(price, unit)
	q.priceList[price] = el
	q.depths++
	return unit
}

// bestLevel returns the level with the best price without removing it.
func (q *queue) bestLevel() *priceLevel {
	el := q.depthList.Front()
	if el == nil {
		return nil
	}

	unit, _ := el.Value.(*priceLevel)
	return unit
}

// removeLevel drops the level at price from the queue.
func (q *queue) removeLevel(price Price) {
	el, ok := q.priceList[price]
	if !ok {
		return
	}

	q.depthList.RemoveElement(el)
	delete(q.priceList, price)
	q.depths--
}

// levels returns every level in priority order.
func (q *queue) levels() []*priceLevel {
	result := make([]*priceLevel, 0, q.depths)
	for el := q.depthList.Front(); el != nil; el = el.Next() {
		unit, _ := el.Value.(*priceLevel)
		result = append(result, unit)
	}
	return result
}

// orderCount returns the number of live orders in the queue.
func (q *queue) orderCount() int64 {
	return q.totalOrders
}

// depthCount returns the number of price levels in the queue.
func (q *queue) depthCount() int64 {
	return q.depths
}

// depth returns the order book depth up to the specified limit.
func (q *queue) depth(limit uint32) []*DepthItem {
	result := make([]*DepthItem, 0, min(int64(limit), q.depths))

	el := q.depthList.Front()

	var i uint32 = 0
	for i < limit && el != nil {
		unit, _ := el.Value.(*priceLevel)
		result = append(result, &DepthItem{
			Price: unit.price,
			Size:  unit.totalSize,
		})

		el = el.Next()
		i++
	}

	return result
}
