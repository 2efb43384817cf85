package value

import "iotcore/rbtree"

// mapData backs the Map variant: an ordered key/value store implemented as
// a red-black tree (spec.md §3.2, §4.2).
type mapData struct {
	keyType, valType Type
	tree             *rbtree.Tree
	hash             uint32
	rehash           bool
}

func mapKeyCompare(a, b interface{}) int {
	return Compare(a.(*Value), b.(*Value))
}

// NewMap allocates an empty ordered Map. keyType/valType may be Multi for
// unrestricted shape.
func NewMap(keyType, valType Type) *Value {
	v := newScalar(Map)
	v.mp = &mapData{keyType: keyType, valType: valType, tree: rbtree.New(mapKeyCompare)}
	return v
}

// MapSize returns the number of distinct keys.
func (v *Value) MapSize() int {
	if v == nil || v.mp == nil {
		panic("value: MapSize on non-map value")
	}
	return v.mp.tree.Size()
}

func freeTreeEntry(n *rbtree.Node) {
	if k, ok := n.Key.(*Value); ok {
		k.Free()
	}
	if val, ok := n.Value.(*Value); ok {
		val.Free()
	}
}

// MapGet returns a borrowed reference to the value stored at key, or nil
// (spec.md §4.1 "Map get/merge").
func (v *Value) MapGet(key *Value) *Value {
	if v == nil || v.mp == nil {
		panic("value: MapGet on non-map value")
	}
	if val, ok := v.mp.tree.Get(key); ok {
		return val.(*Value)
	}
	return nil
}

// MapGetTyped returns the value at key only if it matches type t.
func (v *Value) MapGetTyped(key *Value, t Type) *Value {
	r := v.MapGet(key)
	if r != nil && r.kind == t {
		return r
	}
	return nil
}

// StringMapGet builds a transient static string key to avoid allocation,
// following the original's string_map_* helpers (spec.md §4.1).
func (v *Value) StringMapGet(key string) *Value {
	k := NewStaticString(key)
	return v.MapGet(k)
}

// MapSet inserts key→val, taking ownership of both. If key is already
// present, the new key is freed and the existing node's value is replaced
// (the old value is freed), matching the original's insert contract
// (spec.md §4.2: "replaces existing value if key present ... taking
// ownership of new key only to free it, keeping the existing node").
func (v *Value) MapSet(key, val *Value) {
	if v == nil || v.mp == nil {
		panic("value: MapSet on non-map value")
	}
	old, inserted := v.mp.tree.Insert(key, val)
	if inserted {
		h := Hash(key)
		vh := Hash(val)
		if vh != h {
			h ^= vh
		}
		v.mp.hash ^= h
	} else {
		key.Free()
		if oldVal, ok := old.(*Value); ok && oldVal != val {
			oldVal.Free()
		}
		v.mp.rehash = true
	}
}

// MapAddUnused inserts key→val only if key is absent. If key is already
// present, it returns false and frees both key and val (spec.md §4.1
// "map_add_unused").
func (v *Value) MapAddUnused(key, val *Value) bool {
	if v.MapGet(key) != nil {
		key.Free()
		val.Free()
		return false
	}
	v.MapSet(key, val)
	return true
}

// MapRemove deletes key, freeing the stored key/value pair, and reports
// whether a node was deleted.
func (v *Value) MapRemove(key *Value) bool {
	if v == nil || v.mp == nil {
		panic("value: MapRemove on non-map value")
	}
	n := v.mp.tree.GetNode(key)
	if n == nil {
		return false
	}
	freeTreeEntry(n)
	v.mp.tree.Remove(key)
	v.mp.rehash = true
	return true
}

// Merge overwrites dst's keys with src's (spec.md §4.1 "merge"). Keys/values
// copied from src are add_ref'd so src remains independently freeable.
func Merge(dst, src *Value) {
	if dst == nil || src == nil || dst.mp == nil || src.mp == nil {
		panic("value: Merge on non-map value")
	}
	src.mp.tree.Walk(func(n *rbtree.Node) bool {
		k := n.Key.(*Value).AddRef()
		val := n.Value.(*Value).AddRef()
		dst.MapSet(k, val)
		return true
	})
}

// MapIterator walks a Map in ascending key order (spec.md §4.1 "Iterators":
// "Iteration order for Map is in-order traversal").
type MapIterator struct {
	it *rbtree.Iterator
}

func (v *Value) MapIterator() *MapIterator {
	if v == nil || v.mp == nil {
		panic("value: MapIterator on non-map value")
	}
	return &MapIterator{it: v.mp.tree.Iterator()}
}

func (it *MapIterator) Next() bool { return it.it.Next() }

func (it *MapIterator) Key() *Value { return it.it.Node().Key.(*Value) }

func (it *MapIterator) Value() *Value { return it.it.Node().Value.(*Value) }

// orderKeyMeta is the reserved metadata key under which a Map parsed from
// JSON in ordered mode stashes its appearance-order key Vector (spec.md
// §3.2.2).
var orderKeyMeta = NewStaticString("$order")

// SetKeyOrder attaches the ordering-metadata Vector of keys to m.
func SetKeyOrder(m *Value, order *Value) {
	meta := m.meta
	if meta == nil {
		meta = NewMap(String, Multi)
	}
	meta.MapSet(orderKeyMeta.AddRef(), order)
	m.SetMetadata(meta)
}

// KeyOrder returns the ordering-metadata Vector of keys, or nil if m was
// not parsed in ordered mode.
func KeyOrder(m *Value) *Value {
	if m.meta == nil {
		return nil
	}
	return m.meta.MapGet(orderKeyMeta)
}

// OrderedKeys returns m's keys in appearance order if ordering metadata is
// present, else in natural (ascending) tree order.
func OrderedKeys(m *Value) []*Value {
	if order := KeyOrder(m); order != nil {
		out := make([]*Value, 0, order.VectorLength())
		for i := 0; i < order.VectorLength(); i++ {
			out = append(out, order.VectorGet(i))
		}
		return out
	}
	var out []*Value
	it := m.MapIterator()
	for it.Next() {
		out = append(out, it.Key())
	}
	return out
}
