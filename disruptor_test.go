package match

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const SchPerGo = 50

// TestEvent is a simple event type for testing.
type TestEvent struct {
	ID    int64
	Value int64
}

func TestRingBuffer_BasicOperations(t *testing.T) {
	var processed []int64
	var mu sync.Mutex

	rb := NewRingBuffer[TestEvent](16, EventHandlerFunc[TestEvent](func(e TestEvent) {
		mu.Lock()
		processed = append(processed, e.ID)
		mu.Unlock()
	}))
	rb.Start()

	// Publish more events than the ring holds to exercise wrap-around
	for i := int64(1); i <= 40; i++ {
		require.True(t, rb.Publish(TestEvent{ID: i}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, processed, 40)
	for i := int64(1); i <= 40; i++ {
		assert.Equal(t, i, processed[i-1])
	}
}

func TestRingBuffer_PublishAfterShutdown(t *testing.T) {
	var count atomic.Int64
	rb := NewRingBuffer[TestEvent](16, EventHandlerFunc[TestEvent](func(e TestEvent) {
		count.Add(1)
	}))
	rb.Start()

	require.NoError(t, rb.Shutdown(context.Background()))

	assert.False(t, rb.Publish(TestEvent{ID: 1}))
	assert.Equal(t, int64(0), count.Load())
	assert.Equal(t, int64(-1), rb.ProducerSequence())
}

func TestRingBuffer_GetPendingEvents(t *testing.T) {
	// Handler blocks until signaled
	blockCh := make(chan struct{})
	rb := NewRingBuffer[TestEvent](16, EventHandlerFunc[TestEvent](func(e TestEvent) {
		<-blockCh
	}))
	rb.Start()

	for i := 0; i < 5; i++ {
		rb.Publish(TestEvent{ID: int64(i)})
	}

	// The consumer holds at most one event
	assert.GreaterOrEqual(t, rb.GetPendingEvents(), int64(4))

	close(blockCh)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	assert.Equal(t, int64(0), rb.GetPendingEvents())
}

func TestRingBuffer_SequenceMonitoring(t *testing.T) {
	rb := NewRingBuffer[TestEvent](16, EventHandlerFunc[TestEvent](func(e TestEvent) {}))

	assert.Equal(t, int64(-1), rb.ProducerSequence())
	assert.Equal(t, int64(-1), rb.ConsumerSequence())

	rb.Start()

	for i := 0; i < 3; i++ {
		rb.Publish(TestEvent{ID: int64(i)})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	// 0-indexed
	assert.Equal(t, int64(2), rb.ProducerSequence())
	assert.Equal(t, int64(2), rb.ConsumerSequence())
}

func TestRingBuffer_ShutdownTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	rb := NewRingBuffer[TestEvent](16, EventHandlerFunc[TestEvent](func(e TestEvent) {
		<-release
	}))
	rb.Start()

	rb.Publish(TestEvent{ID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := rb.Shutdown(ctx)
	assert.ErrorIs(t, err, ErrDisruptorTimeout)
}

func TestRingBuffer_ConcurrentPublish(t *testing.T) {
	const numPublishers = 10
	const eventsPerPublisher = 100

	var mu sync.Mutex
	lastSeen := make(map[int64]int64)
	outOfOrder := 0

	rb := NewRingBuffer[TestEvent](64, EventHandlerFunc[TestEvent](func(e TestEvent) {
		mu.Lock()
		defer mu.Unlock()
		// Events from one producer keep their relative order
		if prev, ok := lastSeen[e.ID]; ok && e.Value <= prev {
			outOfOrder++
		}
		lastSeen[e.ID] = e.Value
	}))
	rb.Start()

	var wg sync.WaitGroup
	wg.Add(numPublishers)

	for i := 0; i < numPublishers; i++ {
		go func(id int64) {
			defer wg.Done()
			for j := int64(0); j < eventsPerPublisher; j++ {
				rb.Publish(TestEvent{ID: id, Value: j})
			}
		}(int64(i))
	}

	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, outOfOrder)
	assert.Len(t, lastSeen, numPublishers)
	for _, last := range lastSeen {
		assert.Equal(t, int64(eventsPerPublisher-1), last)
	}
	assert.Equal(t, int64(numPublishers*eventsPerPublisher-1), rb.ConsumerSequence())
}

func TestRingBuffer_PowerOf2Validation(t *testing.T) {
	handler := EventHandlerFunc[TestEvent](func(e TestEvent) {})

	assert.Panics(t, func() {
		NewRingBuffer[TestEvent](15, handler)
	})

	assert.Panics(t, func() {
		NewRingBuffer[TestEvent](0, handler)
	})

	assert.Panics(t, func() {
		NewRingBuffer[TestEvent](-1, handler)
	})

	assert.NotPanics(t, func() {
		NewRingBuffer[TestEvent](16, handler)
	})
}

func BenchmarkDisruptor(b *testing.B) {
	var count atomic.Int64

	rb := NewRingBuffer[TestEvent](1024*1024, EventHandlerFunc[TestEvent](func(e TestEvent) {
		count.Add(1)
	}))
	rb.Start()

	b.ResetTimer()

	var counter atomic.Int64
	var wg sync.WaitGroup
	wg.Add(b.N)
	for i := 0; i < b.N; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < SchPerGo; j++ {
				rb.Publish(TestEvent{ID: counter.Add(1)})
			}
		}()
	}

	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = rb.Shutdown(ctx)
}

func BenchmarkChannel(b *testing.B) {
	ch := make(chan TestEvent, 1024*1024)
	total := b.N * SchPerGo

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			<-ch
		}
	}()

	b.ResetTimer()

	var wg sync.WaitGroup
	wg.Add(b.N)
	for i := 0; i < b.N; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < SchPerGo; j++ {
				ch <- TestEvent{}
			}
		}()
	}
	wg.Wait()
	<-done
}
