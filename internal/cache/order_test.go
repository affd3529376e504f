package cache

import (
	"reflect"
	"testing"
)

func orderKeys(o *order) []string {
	var out []string
	o.each(func(_ int32, e *entry) bool {
		out = append(out, e.key)
		return true
	})
	return out
}

func TestOrderPushFrontAndMove(t *testing.T) {
	o := newOrder()
	a := o.pushFront("a", nil)
	o.pushFront("b", nil)
	c := o.pushFront("c", nil)

	if got, want := orderKeys(&o), []string{"c", "b", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if tail, _ := o.peekTail(); tail != a {
		t.Fatalf("tail = %d, want %d", tail, a)
	}

	o.moveToFront(a)
	if got, want := orderKeys(&o), []string{"a", "c", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("after move: order = %v, want %v", got, want)
	}

	// Already at head.
	o.moveToFront(a)
	if got, want := orderKeys(&o), []string{"a", "c", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("after no-op move: order = %v, want %v", got, want)
	}

	o.moveToFront(c)
	if got, want := orderKeys(&o), []string{"c", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("after interior move: order = %v, want %v", got, want)
	}
}

func TestOrderRemoveRepairsEndpoints(t *testing.T) {
	o := newOrder()
	a := o.pushFront("a", []byte("1"))
	b := o.pushFront("b", []byte("2"))
	c := o.pushFront("c", []byte("3"))
	d := o.pushFront("d", []byte("4"))

	// interior
	if e := o.remove(b); e.key != "b" || string(e.value) != "2" {
		t.Fatalf("remove(b) = %+v", e)
	}
	if got, want := orderKeys(&o), []string{"d", "c", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}

	// head
	o.remove(d)
	if o.head != c || o.slots[c].prev != nilSlot {
		t.Fatalf("head not repaired: head=%d prev=%d", o.head, o.slots[c].prev)
	}

	// tail
	o.remove(a)
	if o.tail != c || o.slots[c].next != nilSlot {
		t.Fatalf("tail not repaired: tail=%d next=%d", o.tail, o.slots[c].next)
	}

	// last one
	o.remove(c)
	if _, ok := o.peekTail(); ok {
		t.Fatal("peekTail on empty order reported an entry")
	}
	if o.head != nilSlot || o.len() != 0 {
		t.Fatalf("empty order: head=%d len=%d", o.head, o.len())
	}
}

func TestOrderReusesFreedSlots(t *testing.T) {
	o := newOrder()
	o.pushFront("a", nil)
	b := o.pushFront("b", nil)
	o.remove(b)

	if got := o.pushFront("c", nil); got != b {
		t.Fatalf("pushFront reused slot %d, want %d", got, b)
	}
	if len(o.slots) != 2 {
		t.Fatalf("arena grew to %d slots, want 2", len(o.slots))
	}
	if got := o.slots[b].key; got != "c" {
		t.Fatalf("recycled slot holds %q", got)
	}
}

func TestOrderReset(t *testing.T) {
	o := newOrder()
	o.pushFront("a", nil)
	o.pushFront("b", nil)
	o.reset()

	if o.len() != 0 || len(o.slots) != 0 || len(o.free) != 0 {
		t.Fatalf("reset left state behind: len=%d slots=%d free=%d",
			o.len(), len(o.slots), len(o.free))
	}
	if _, ok := o.peekTail(); ok {
		t.Fatal("peekTail after reset reported an entry")
	}
}
