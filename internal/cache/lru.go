// internal/cache/lru.go
//
// Byte-bounded LRU key-value store.
//
// Context
// -------
// LRU composes three parts: an index (key → slot), a recency order (arena
// backed MRU→LRU chain, see order.go), and the capacity accounting that
// keeps the sum of entry weights within maxSize by evicting from the cold
// end.  Weight is len(key)+len(value).
//
// Concurrency
// -----------
// LRU performs no locking.  Every call must hold exclusive access for its
// whole duration; internal/kv.Store is the wrapper that provides it.  Values
// are copied on the way in and on the way out, so no caller ever aliases
// internal storage.
package cache

// LRU is a least-recently-used store bounded by total key+value bytes.
// The zero value is unusable; construct with New.
type LRU struct {
	maxSize int
	curSize int

	idx index
	ord order

	promoteOnRead bool
	onEvict       func(key string, value []byte)
}

// Option customises an LRU at construction.
type Option func(*LRU)

// WithPromoteOnRead selects whether a successful Get moves the entry to the
// most-recently-used position.  Off by default: only writes refresh recency.
func WithPromoteOnRead(on bool) Option {
	return func(c *LRU) { c.promoteOnRead = on }
}

// WithEvictCallback registers fn to run for every entry discarded by
// capacity reclamation.  Explicit Delete does not trigger it.  fn runs
// inside the caller's critical section and must not call back into the LRU.
func WithEvictCallback(fn func(key string, value []byte)) Option {
	return func(c *LRU) { c.onEvict = fn }
}

// New returns an empty LRU holding at most maxSize bytes.  Panics on
// maxSize < 1.
func New(maxSize int, opts ...Option) *LRU {
	if maxSize < 1 {
		panic("cache: maxSize must be ≥1")
	}
	c := &LRU{
		maxSize: maxSize,
		idx:     make(index),
		ord:     newOrder(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put stores value under key, updating in place when key is present.
func (c *LRU) Put(key string, value []byte) bool {
	if _, ok := c.idx.find(key); ok {
		return c.Set(key, value)
	}
	return c.PutIfAbsent(key, value)
}

// PutIfAbsent stores value only when key is not yet present.  It fails,
// leaving the store unchanged, when key exists or when the entry would not
// fit even in an empty store.
func (c *LRU) PutIfAbsent(key string, value []byte) bool {
	if _, ok := c.idx.find(key); ok {
		return false
	}

	w := len(key) + len(value)
	if !c.reclaim(w, nilSlot) {
		return false
	}

	s := c.ord.pushFront(key, cloneBytes(value))
	c.idx.insert(key, s)
	c.curSize += w
	return true
}

// Set replaces the value of an existing key and promotes it.  Growth may
// evict other entries but never the entry being updated.  On failure the
// old value is left intact.
func (c *LRU) Set(key string, value []byte) bool {
	s, ok := c.idx.find(key)
	if !ok {
		return false
	}

	e := c.ord.at(s)
	if delta := len(value) - len(e.value); delta > 0 {
		// Eviction frees slots but never grows the arena, so e stays valid.
		if !c.reclaim(delta, s) {
			return false
		}
	}

	c.curSize += len(value) - len(e.value)
	e.value = cloneBytes(value)
	c.ord.moveToFront(s)
	return true
}

// Get returns a copy of the value stored under key.
func (c *LRU) Get(key string) ([]byte, bool) {
	s, ok := c.idx.find(key)
	if !ok {
		return nil, false
	}
	if c.promoteOnRead {
		c.ord.moveToFront(s)
	}
	return cloneBytes(c.ord.at(s).value), true
}

// Peek is Get without any effect on recency, whatever the read policy.
func (c *LRU) Peek(key string) ([]byte, bool) {
	s, ok := c.idx.find(key)
	if !ok {
		return nil, false
	}
	return cloneBytes(c.ord.at(s).value), true
}

// Contains reports whether key is present without touching recency.
func (c *LRU) Contains(key string) bool {
	_, ok := c.idx.find(key)
	return ok
}

// Delete removes key wherever it sits in the recency order.
func (c *LRU) Delete(key string) bool {
	s, ok := c.idx.find(key)
	if !ok {
		return false
	}
	c.drop(s)
	return true
}

// Purge removes every entry.  The evict callback is not invoked.
func (c *LRU) Purge() {
	c.idx = make(index)
	c.ord.reset()
	c.curSize = 0
}

// Len reports the number of live entries.
func (c *LRU) Len() int { return c.ord.len() }

// Size reports the summed weight of live entries.
func (c *LRU) Size() int { return c.curSize }

// MaxSize reports the capacity fixed at construction.
func (c *LRU) MaxSize() int { return c.maxSize }

// PromotesOnRead reports the read policy chosen at construction.
func (c *LRU) PromotesOnRead() bool { return c.promoteOnRead }

// Keys returns keys in MRU→LRU order.
func (c *LRU) Keys() []string {
	out := make([]string, 0, c.ord.len())
	c.ord.each(func(_ int32, e *entry) bool {
		out = append(out, e.key)
		return true
	})
	return out
}

// reclaim evicts from the cold end until need more bytes fit.  protect names
// a slot that must survive (nilSlot for none); when it sits at the tail the
// next-coldest entry goes instead.  Nothing is evicted when the request can
// never be satisfied.
func (c *LRU) reclaim(need int, protect int32) bool {
	floor := need
	if protect != nilSlot {
		floor += c.ord.at(protect).weight()
	}
	if floor > c.maxSize {
		return false
	}

	for c.curSize+need > c.maxSize {
		victim, ok := c.ord.peekTail()
		if !ok {
			break
		}
		if victim == protect {
			if victim = c.ord.prev(victim); victim == nilSlot {
				break
			}
		}
		e := c.drop(victim)
		if c.onEvict != nil {
			c.onEvict(e.key, e.value)
		}
	}
	return c.curSize+need <= c.maxSize
}

// drop removes slot s from both the order and the index and settles the
// size accounting.
func (c *LRU) drop(s int32) entry {
	e := c.ord.remove(s)
	c.idx.erase(e.key)
	c.curSize -= e.weight()
	return e
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
