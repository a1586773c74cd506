package match

// orderLocation points at the slot currently holding a live order.
// It never carries a copy of the order's mutable state.
type orderLocation struct {
	side  Side
	price Price
	slot  int
}

// orderIndex maps live order ids to their ledger position.
type orderIndex map[OrderID]orderLocation

func newOrderIndex(capacity int) orderIndex {
	return make(orderIndex, capacity)
}

func (idx orderIndex) get(id OrderID) (orderLocation, bool) {
	loc, ok := idx[id]
	return loc, ok
}

func (idx orderIndex) put(id OrderID, loc orderLocation) {
	idx[id] = loc
}

func (idx orderIndex) remove(id OrderID) {
	delete(idx, id)
}

// setSlot rewrites the slot of an indexed order after its level was compacted.
func (idx orderIndex) setSlot(id OrderID, slot int) {
	if loc, ok := idx[id]; ok {
		loc.slot = slot
		idx[id] = loc
	}
}
