package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prices(levels []*priceLevel) []Price {
	result := make([]Price, 0, len(levels))
	for _, unit := range levels {
		result = append(result, unit.price)
	}
	return result
}

func TestBuyerQueue(t *testing.T) {
	q := NewBuyerQueue()

	assert.Nil(t, q.bestLevel())

	for _, p := range []Price{1000, 3000, -500, 2000, 3000} {
		q.levelOrCreate(p)
	}

	assert.Equal(t, int64(4), q.depthCount())
	assert.Equal(t, []Price{3000, 2000, 1000, -500}, prices(q.levels()))
	assert.Equal(t, Price(3000), q.bestLevel().price)

	q.removeLevel(3000)
	assert.Equal(t, Price(2000), q.bestLevel().price)
	assert.Nil(t, q.level(3000))
	assert.Equal(t, int64(3), q.depthCount())

	// Removing a missing level is a no-op
	q.removeLevel(3000)
	assert.Equal(t, int64(3), q.depthCount())
}

func TestSellerQueue(t *testing.T) {
	q := NewSellerQueue()

	for _, p := range []Price{1000, 3000, -500, 2000} {
		q.levelOrCreate(p)
	}

	assert.Equal(t, []Price{-500, 1000, 2000, 3000}, prices(q.levels()))
	assert.Equal(t, Price(-500), q.bestLevel().price)

	q.removeLevel(-500)
	assert.Equal(t, Price(1000), q.bestLevel().price)
}

func TestQueueLevelOrCreate(t *testing.T) {
	q := NewSellerQueue()

	unit := q.levelOrCreate(100)
	unit.live = 2
	unit.totalSize = 7

	same := q.levelOrCreate(100)
	require.Same(t, unit, same)
	assert.Equal(t, 2, same.live)
	assert.Same(t, unit, q.level(100))
	assert.Equal(t, int64(1), q.depthCount())
}

func TestQueueDepth(t *testing.T) {
	q := NewBuyerQueue()

	for i, p := range []Price{100, 300, 200} {
		unit := q.levelOrCreate(p)
		unit.totalSize = uint64(i + 1)
	}

	depth := q.depth(2)
	require.Len(t, depth, 2)
	assert.Equal(t, &DepthItem{Price: 300, Size: 2}, depth[0])
	assert.Equal(t, &DepthItem{Price: 200, Size: 3}, depth[1])

	assert.Len(t, q.depth(10), 3)
	assert.Empty(t, NewSellerQueue().depth(10))
}
