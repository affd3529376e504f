package cache

// index maps a key to the arena slot holding its entry.  It never owns the
// entry; erasing a key leaves the slot to the order.
type index map[string]int32

func (x index) find(key string) (int32, bool) {
	s, ok := x[key]
	return s, ok
}

func (x index) insert(key string, s int32) { x[key] = s }

func (x index) erase(key string) { delete(x, key) }
