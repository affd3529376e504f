// internal/cache/order.go
//
// Recency order for LRU.
//
// Context
// -------
// Entries live in a slice-backed arena and are addressed by stable int32
// slots.  The MRU→LRU chain is threaded through the arena with prev/next
// slot indices, so relinking never moves an entry and never hands out a
// pointer that could outlive it.  Freed slots are recycled through a free
// list before the arena grows.
//
// Notes
// -----
//   - head is the most recently used entry, tail the least.
//   - A slot is live iff it is reachable from head.  Freed slots keep
//     prev/next set to nilSlot and their key/value cleared.
package cache

const nilSlot int32 = -1

// entry is one stored key/value pair plus its links in the recency chain.
type entry struct {
	key   string
	value []byte
	prev  int32
	next  int32
}

func (e *entry) weight() int { return len(e.key) + len(e.value) }

type order struct {
	slots []entry
	free  []int32
	head  int32
	tail  int32
	n     int
}

func newOrder() order {
	return order{head: nilSlot, tail: nilSlot}
}

// pushFront stores a new entry at the head and returns its slot.
func (o *order) pushFront(key string, value []byte) int32 {
	var s int32
	if n := len(o.free); n > 0 {
		s = o.free[n-1]
		o.free = o.free[:n-1]
	} else {
		o.slots = append(o.slots, entry{})
		s = int32(len(o.slots) - 1)
	}

	o.slots[s] = entry{key: key, value: value, prev: nilSlot, next: nilSlot}
	o.linkFront(s)
	o.n++
	return s
}

// moveToFront relinks s at the head.  No-op when s already is the head.
func (o *order) moveToFront(s int32) {
	if s == o.head {
		return
	}
	o.unlink(s)
	o.linkFront(s)
}

// remove detaches s from wherever it sits and recycles the slot.  The
// returned entry belongs to the caller.
func (o *order) remove(s int32) entry {
	o.unlink(s)
	e := o.slots[s]
	e.prev, e.next = nilSlot, nilSlot

	// Drop references so the arena does not pin evicted values.
	o.slots[s] = entry{prev: nilSlot, next: nilSlot}
	o.free = append(o.free, s)
	o.n--
	return e
}

// peekTail returns the coldest slot without removing it.
func (o *order) peekTail() (int32, bool) {
	return o.tail, o.tail != nilSlot
}

// prev returns the next-hotter neighbour of s, or nilSlot at the head.
func (o *order) prev(s int32) int32 { return o.slots[s].prev }

func (o *order) at(s int32) *entry { return &o.slots[s] }

func (o *order) len() int { return o.n }

// each walks MRU→LRU until fn returns false.
func (o *order) each(fn func(s int32, e *entry) bool) {
	for s := o.head; s != nilSlot; s = o.slots[s].next {
		if !fn(s, &o.slots[s]) {
			return
		}
	}
}

// reset drops every entry and the arena backing them.
func (o *order) reset() {
	*o = newOrder()
}

func (o *order) linkFront(s int32) {
	e := &o.slots[s]
	e.prev = nilSlot
	e.next = o.head
	if o.head != nilSlot {
		o.slots[o.head].prev = s
	}
	o.head = s
	if o.tail == nilSlot {
		o.tail = s
	}
}

func (o *order) unlink(s int32) {
	e := &o.slots[s]
	if e.prev != nilSlot {
		o.slots[e.prev].next = e.next
	} else {
		o.head = e.next
	}
	if e.next != nilSlot {
		o.slots[e.next].prev = e.prev
	} else {
		o.tail = e.prev
	}
	e.prev, e.next = nilSlot, nilSlot
}
