package value

// listNode is one node of a List's doubly linked chain.
type listNode struct {
	v          *Value
	prev, next *listNode
}

// listData tracks a List's head/tail and current length (spec.md §3.2: "the
// head element carries the current length" — modelled here as a length
// field on the owning Value since Go has no spare header word on nodes).
type listData struct {
	head, tail *listNode
	length     int
}

// NewList allocates an empty List.
func NewList() *Value {
	v := newScalar(List)
	v.lst = &listData{}
	return v
}

// ListLength returns the number of elements in the list.
func (v *Value) ListLength() int {
	if v == nil || v.lst == nil {
		panic("value: ListLength on non-list value")
	}
	return v.lst.length
}

// ListPushBack appends elem (taking ownership) to the tail of the list.
func (v *Value) ListPushBack(elem *Value) {
	if v == nil || v.lst == nil {
		panic("value: ListPushBack on non-list value")
	}
	n := &listNode{v: elem, prev: v.lst.tail}
	if v.lst.tail != nil {
		v.lst.tail.next = n
	} else {
		v.lst.head = n
	}
	v.lst.tail = n
	v.lst.length++
	v.rehash = true
}

// ListPushFront prepends elem (taking ownership) to the head of the list.
func (v *Value) ListPushFront(elem *Value) {
	if v == nil || v.lst == nil {
		panic("value: ListPushFront on non-list value")
	}
	n := &listNode{v: elem, next: v.lst.head}
	if v.lst.head != nil {
		v.lst.head.prev = n
	} else {
		v.lst.tail = n
	}
	v.lst.head = n
	v.lst.length++
	v.rehash = true
}

// ListIterator walks a List's nodes, supporting Replace and Remove — the
// only mutations permitted mid-iteration (spec.md §4.1).
type ListIterator struct {
	lst     *Value
	current *listNode
	started bool
}

func (v *Value) ListIterator() *ListIterator {
	if v == nil || v.lst == nil {
		panic("value: ListIterator on non-list value")
	}
	return &ListIterator{lst: v}
}

func (it *ListIterator) HasNext() bool {
	if !it.started {
		return it.lst.lst.head != nil
	}
	return it.current != nil && it.current.next != nil
}

func (it *ListIterator) Next() (*Value, bool) {
	if !it.started {
		it.started = true
		it.current = it.lst.lst.head
	} else if it.current != nil {
		it.current = it.current.next
	}
	if it.current == nil {
		return nil, false
	}
	return it.current.v, true
}

func (it *ListIterator) Prev() (*Value, bool) {
	if it.current == nil {
		return nil, false
	}
	it.current = it.current.prev
	if it.current == nil {
		return nil, false
	}
	return it.current.v, true
}

// Replace swaps the current node's value, freeing the old one and
// invalidating the list's hash.
func (it *ListIterator) Replace(elem *Value) {
	if it.current == nil {
		return
	}
	if it.current.v != nil {
		it.current.v.Free()
	}
	it.current.v = elem
	it.lst.rehash = true
}

// Remove unlinks and frees the current node, leaving the iterator
// positioned on the previous node (or before the new head, when the head
// was removed) so a following Next resumes correctly.
func (it *ListIterator) Remove() {
	n := it.current
	if n == nil {
		return
	}
	l := it.lst.lst
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	l.length--
	if n.v != nil {
		n.v.Free()
	}
	it.current = n.prev
	if n.prev == nil {
		it.started = false
	}
	it.lst.rehash = true
}
