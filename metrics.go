package match

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared by every book of an exchange.
// A nil *Metrics disables recording.
type Metrics struct {
	ordersAccepted *prometheus.CounterVec
	ordersRejected *prometheus.CounterVec
	trades         *prometheus.CounterVec
	tradedQuantity *prometheus.CounterVec
	cancels        *prometheus.CounterVec
	restingOrders  *prometheus.GaugeVec
	compactions    *prometheus.CounterVec
	matchLatency   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, ErrInvalidParam
	}

	m := &Metrics{
		ordersAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_accepted_total",
			Help:      "Total number of orders admitted to a book",
		}, []string{"symbol", "side"}),

		ordersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Total number of orders rejected before admission",
		}, []string{"symbol"}),

		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Total number of trades executed",
		}, []string{"symbol"}),

		tradedQuantity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traded_quantity_total",
			Help:      "Total quantity filled across all trades",
		}, []string{"symbol"}),

		cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancels_total",
			Help:      "Total number of cancellation requests by result",
		}, []string{"symbol", "result"}),

		restingOrders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resting_orders",
			Help:      "Current number of live resting orders by side",
		}, []string{"symbol", "side"}),

		compactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compactions_total",
			Help:      "Total number of tombstone compaction passes",
		}, []string{"symbol"}),

		matchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "add_order_latency_seconds",
			Help:      "Latency of AddOrder including matching",
			Buckets:   []float64{1e-7, 2.5e-7, 5e-7, 1e-6, 2.5e-6, 5e-6, 1e-5, 5e-5, 1e-4, 1e-3},
		}, []string{"symbol"}),
	}

	collectors := []prometheus.Collector{
		m.ordersAccepted,
		m.ordersRejected,
		m.trades,
		m.tradedQuantity,
		m.cancels,
		m.restingOrders,
		m.compactions,
		m.matchLatency,
	}

	var errs []error
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return m, nil
}

// bookMetrics caches the label children of one symbol so the hot path skips label lookups.
type bookMetrics struct {
	acceptedBuy    prometheus.Counter
	acceptedSell   prometheus.Counter
	rejected       prometheus.Counter
	trades         prometheus.Counter
	tradedQuantity prometheus.Counter
	cancelFound    prometheus.Counter
	cancelMissing  prometheus.Counter
	restingBid     prometheus.Gauge
	restingAsk     prometheus.Gauge
	compactions    prometheus.Counter
	latency        prometheus.Observer
}

func (m *Metrics) forBook(symbol string) *bookMetrics {
	if m == nil {
		return nil
	}

	return &bookMetrics{
		acceptedBuy:    m.ordersAccepted.WithLabelValues(symbol, Buy.String()),
		acceptedSell:   m.ordersAccepted.WithLabelValues(symbol, Sell.String()),
		rejected:       m.ordersRejected.WithLabelValues(symbol),
		trades:         m.trades.WithLabelValues(symbol),
		tradedQuantity: m.tradedQuantity.WithLabelValues(symbol),
		cancelFound:    m.cancels.WithLabelValues(symbol, "found"),
		cancelMissing:  m.cancels.WithLabelValues(symbol, "not_found"),
		restingBid:     m.restingOrders.WithLabelValues(symbol, Buy.String()),
		restingAsk:     m.restingOrders.WithLabelValues(symbol, Sell.String()),
		compactions:    m.compactions.WithLabelValues(symbol),
		latency:        m.matchLatency.WithLabelValues(symbol),
	}
}

func (bm *bookMetrics) observeAccepted(side Side, start time.Time, trades []Trade) {
	if bm == nil {
		return
	}

	if side == Buy {
		bm.acceptedBuy.Inc()
	} else {
		bm.acceptedSell.Inc()
	}

	if len(trades) > 0 {
		var qty uint64
		for i := range trades {
			qty += trades[i].Quantity
		}
		bm.trades.Add(float64(len(trades)))
		bm.tradedQuantity.Add(float64(qty))
	}

	bm.latency.Observe(time.Since(start).Seconds())
}

func (bm *bookMetrics) observeRejected() {
	if bm == nil {
		return
	}
	bm.rejected.Inc()
}

func (bm *bookMetrics) observeCancel(found bool) {
	if bm == nil {
		return
	}
	if found {
		bm.cancelFound.Inc()
	} else {
		bm.cancelMissing.Inc()
	}
}

func (bm *bookMetrics) observeCompaction() {
	if bm == nil {
		return
	}
	bm.compactions.Inc()
}

func (bm *bookMetrics) setResting(bids int64, asks int64) {
	if bm == nil {
		return
	}
	bm.restingBid.Set(float64(bids))
	bm.restingAsk.Set(float64(asks))
}
