package structure

import (
	"errors"
)

// Arena is a slot map with a free list.
// Values are addressed by Handle instead of pointer so that containers can
// keep referring to them while the backing slice grows.
//
// Design:
// - Slots are pre-allocated; freed slots are chained into a free list through their next field
// - When the free list is exhausted the arena grows by DefaultGrowthFactor
// - A pointer returned by Get stays valid only until the next Alloc

const (
	NullHandle          Handle = -1
	DefaultGrowthFactor        = 2
)

var (
	ErrMaxCapacityReached = errors.New("arena: max capacity reached")
)

// Handle identifies a slot in an Arena.
type Handle int32

// ArenaOptions configures the arena behavior.
type ArenaOptions struct {
	// MaxCapacity sets the maximum number of slots allowed.
	// If 0 (default), there is no limit and the arena will grow indefinitely.
	MaxCapacity int32

	// OnGrow is called when the arena expands.
	// Can be used for logging or metrics.
	OnGrow func(oldCap, newCap int32)
}

type slot[T any] struct {
	value T
	next  Handle // Free list link, only meaningful while unused
	used  bool
}

// Arena stores values of type T in a growable slice of slots.
type Arena[T any] struct {
	slots       []slot[T]
	freeHead    Handle
	count       int32
	maxCapacity int32
	onGrow      func(int32, int32)
}

// NewArena creates a new arena with pre-allocated capacity.
func NewArena[T any](capacity int32) *Arena[T] {
	return NewArenaWithOptions[T](capacity, ArenaOptions{})
}

// NewArenaWithOptions creates a new arena with custom options.
func NewArenaWithOptions[T any](capacity int32, opts ArenaOptions) *Arena[T] {
	if capacity < 1 {
		capacity = 1
	}
	if opts.MaxCapacity > 0 && capacity > opts.MaxCapacity {
		capacity = opts.MaxCapacity
	}

	a := &Arena[T]{
		slots:       make([]slot[T], capacity),
		freeHead:    0,
		maxCapacity: opts.MaxCapacity,
		onGrow:      opts.OnGrow,
	}

	for i := int32(0); i < capacity-1; i++ {
		a.slots[i].next = Handle(i + 1)
	}
	a.slots[capacity-1].next = NullHandle

	return a
}

// grow expands the arena capacity.
// Returns error if max capacity would be exceeded.
func (a *Arena[T]) grow() error {
	oldCap := int32(len(a.slots))
	newCap := oldCap * DefaultGrowthFactor

	if a.maxCapacity > 0 && newCap > a.maxCapacity {
		if oldCap >= a.maxCapacity {
			return ErrMaxCapacityReached
		}
		newCap = a.maxCapacity
	}

	if a.onGrow != nil {
		a.onGrow(oldCap, newCap)
	}

	newSlots := make([]slot[T], newCap)
	copy(newSlots, a.slots)

	for i := oldCap; i < newCap-1; i++ {
		newSlots[i].next = Handle(i + 1)
	}
	newSlots[newCap-1].next = a.freeHead
	a.freeHead = Handle(oldCap)

	a.slots = newSlots
	return nil
}

// Alloc stores v in a free slot, growing if necessary.
func (a *Arena[T]) Alloc(v T) (Handle, error) {
	if a.freeHead == NullHandle {
		if err := a.grow(); err != nil {
			return NullHandle, err
		}
	}

	h := a.freeHead
	s := &a.slots[h]
	a.freeHead = s.next

	s.value = v
	s.next = NullHandle
	s.used = true
	a.count++
	return h, nil
}

// Get returns a pointer to the value stored at h, or nil if h is not allocated.
func (a *Arena[T]) Get(h Handle) *T {
	if h < 0 || int(h) >= len(a.slots) || !a.slots[h].used {
		return nil
	}
	return &a.slots[h].value
}

// Free returns the slot to the free list. Freeing an unallocated handle is a no-op.
func (a *Arena[T]) Free(h Handle) {
	if h < 0 || int(h) >= len(a.slots) || !a.slots[h].used {
		return
	}

	var zero T
	s := &a.slots[h]
	s.value = zero
	s.used = false
	s.next = a.freeHead
	a.freeHead = h
	a.count--
}

// Len returns the number of allocated slots.
func (a *Arena[T]) Len() int32 {
	return a.count
}

// Capacity returns the current number of slots.
func (a *Arena[T]) Capacity() int32 {
	return int32(len(a.slots))
}

// Full reports whether the next Alloc would fail.
func (a *Arena[T]) Full() bool {
	return a.maxCapacity > 0 && a.count >= a.maxCapacity
}
