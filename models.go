package match

import (
	"math"

	"github.com/shopspring/decimal"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

// String returns the lower-case label of the side.
func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// PriceScale is the number of implied decimal places carried by a Price.
const PriceScale = 2

// Price is a fixed-point price with two implied decimal places (10050 == 100.50).
// Negative prices are valid.
type Price int64

var (
	minPrice = decimal.NewFromInt(math.MinInt64)
	maxPrice = decimal.NewFromInt(math.MaxInt64)
)

// ParsePrice converts decimal text such as "100.5" or "-37.63" into a Price.
// Text carrying more precision than PriceScale is rejected rather than rounded.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidParam
	}

	scaled := d.Shift(PriceScale)
	if !scaled.IsInteger() || scaled.LessThan(minPrice) || scaled.GreaterThan(maxPrice) {
		return 0, ErrInvalidParam
	}

	return Price(scaled.IntPart()), nil
}

// MustParsePrice is like ParsePrice but panics on error.
func MustParsePrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Decimal returns the price as a decimal value.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -PriceScale)
}

func (p Price) String() string {
	return p.Decimal().StringFixed(PriceScale)
}

type OrderID uint64

type TradeID uint64

// PlaceOrderCommand is the caller-supplied part of a limit order.
// The book assigns the identifier and arrival sequence on admission.
type PlaceOrderCommand struct {
	Side     Side   `json:"side"`
	Price    Price  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

func (cmd *PlaceOrderCommand) validate() error {
	if cmd == nil || cmd.Quantity == 0 {
		return ErrInvalidParam
	}
	if cmd.Side != Buy && cmd.Side != Sell {
		return ErrInvalidParam
	}
	return nil
}

// Order represents the state of an order in the order book.
type Order struct {
	ID       OrderID `json:"id"`
	Side     Side    `json:"side"`
	Price    Price   `json:"price"`
	Quantity uint64  `json:"quantity"` // Remaining quantity
	Sequence uint64  `json:"sequence"` // Arrival sequence, only used for tie-breaking

	// deleted marks the order filled or cancelled until compaction purges it.
	deleted bool
}

// Trade is a completed fill. Price is always the resting order's price.
type Trade struct {
	ID          TradeID `json:"id"`
	Price       Price   `json:"price"`
	Quantity    uint64  `json:"quantity"`
	BuyOrderID  OrderID `json:"buy_order_id"`
	SellOrderID OrderID `json:"sell_order_id"`
}

// BookStats contains statistics about the order book queues.
type BookStats struct {
	BidDepthCount int64 `json:"bid_depth_count"`
	BidOrderCount int64 `json:"bid_order_count"`
	AskDepthCount int64 `json:"ask_depth_count"`
	AskOrderCount int64 `json:"ask_order_count"`
	TotalCount    int64 `json:"total_count"`   // Stored entries, live and tombstoned
	DeletedCount  int64 `json:"deleted_count"` // Tombstoned entries awaiting compaction
	Compactions   int64 `json:"compactions"`
	TradeCount    int64 `json:"trade_count"`
}

type DepthItem struct {
	Price Price  `json:"price"`
	Size  uint64 `json:"size"`
}

type Depth struct {
	Asks []*DepthItem `json:"asks"`
	Bids []*DepthItem `json:"bids"`
}
