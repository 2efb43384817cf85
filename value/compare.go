package value

import "bytes"

func numericOf(v *Value) float64 {
	if v.kind == Float32 || v.kind == Float64 {
		return v.f64
	}
	if v.kind == UInt64 {
		return float64(uint64(v.i64))
	}
	return float64(v.i64)
}

// Compare orders a and b, returning negative/zero/positive (spec.md §3.4
// "iot_data_compare"). Distinct type tags compare by tag ordinal, matching
// the original's "v1->type < v2->type ? -1 : 1" — it does NOT coerce across
// numeric widths/signedness; that coercion belongs to CompareValue
// (spec.md §3.4's separate "compare_value"). Within a kind: natural value
// comparison for scalars, and for containers, length mismatch then hash
// mismatch then first differing element, exactly as the original library's
// array/vector/list/map compare short-circuits.
func Compare(a, b *Value) int {
	if a == b {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if a.kind != b.kind {
		return int(a.kind) - int(b.kind)
	}
	switch a.kind {
	case Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64, Float32, Float64:
		na, nb := numericOf(a), numericOf(b)
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	case Bool:
		return int(a.i64 - b.i64)
	case Null:
		return 0
	case String:
		return compareStrings(a.str, b.str)
	case Binary:
		return bytes.Compare(a.arr.raw, b.arr.raw)
	case Array:
		return compareArrays(a, b)
	case Vector:
		return compareVectors(a, b)
	case List:
		return compareLists(a, b)
	case Map:
		return compareMaps(a, b)
	case Pointer:
		if a.ptr == b.ptr {
			return 0
		}
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func hashOrder(a, b *Value) int {
	ha, hb := Hash(a), Hash(b)
	switch {
	case ha < hb:
		return -1
	case ha > hb:
		return 1
	default:
		return 0
	}
}

func compareArrays(a, b *Value) int {
	if c := a.ArrayLength() - b.ArrayLength(); c != 0 {
		return c
	}
	if c := hashOrder(a, b); c != 0 {
		return c
	}
	n := a.ArrayLength()
	for i := 0; i < n; i++ {
		ea, eb := a.ArrayGet(i), b.ArrayGet(i)
		if c := Compare(&ea, &eb); c != 0 {
			return c
		}
	}
	return 0
}

func compareVectors(a, b *Value) int {
	if c := a.VectorLength() - b.VectorLength(); c != 0 {
		return c
	}
	if c := hashOrder(a, b); c != 0 {
		return c
	}
	n := a.VectorLength()
	for i := 0; i < n; i++ {
		if c := Compare(a.VectorGet(i), b.VectorGet(i)); c != 0 {
			return c
		}
	}
	return 0
}

func compareLists(a, b *Value) int {
	if c := a.ListLength() - b.ListLength(); c != 0 {
		return c
	}
	if c := hashOrder(a, b); c != 0 {
		return c
	}
	ia, ib := a.ListIterator(), b.ListIterator()
	for {
		va, oka := ia.Next()
		vb, okb := ib.Next()
		if !oka && !okb {
			return 0
		}
		if c := Compare(va, vb); c != 0 {
			return c
		}
	}
}

func compareMaps(a, b *Value) int {
	if c := a.MapSize() - b.MapSize(); c != 0 {
		return c
	}
	if c := hashOrder(a, b); c != 0 {
		return c
	}
	ia, ib := a.MapIterator(), b.MapIterator()
	for ia.Next() {
		ib.Next()
		if c := Compare(ia.Key(), ib.Key()); c != 0 {
			return c
		}
		if c := Compare(ia.Value(), ib.Value()); c != 0 {
			return c
		}
	}
	return 0
}

// CompareValue compares a and b like Compare, but first attempts to coerce
// mismatched kinds (e.g. a numeric String against an Int32) via Cast before
// falling back to Compare's stable type ordering — the original's
// `compare_value` as distinct from its strict `compare` (spec.md §3.4).
func CompareValue(a, b *Value) int {
	if IsNull(a) || IsNull(b) || a.kind == b.kind {
		return Compare(a, b)
	}
	if casted, ok := Cast(a, b.kind); ok {
		return Compare(casted, b)
	}
	if casted, ok := Cast(b, a.kind); ok {
		return Compare(a, casted)
	}
	return Compare(a, b)
}

// Equal reports whether a and b are structurally equal (spec.md §3.4
// "iot_data_equal"): same type tag and equal recursive content. Numeric
// values of different widths/signedness are not equal under Equal/Compare;
// use CompareValue for coercing comparison.
func Equal(a, b *Value) bool { return Compare(a, b) == 0 }

// Hash returns v's structural hash (spec.md §3.4), lazily recomputing the
// cached hash for composed values whose content has changed since the hash
// was last computed.
func Hash(v *Value) uint32 {
	if v == nil {
		return 0
	}
	if v.kind == Map {
		if v.mp.rehash {
			v.mp.hash = computeMapHash(v)
			v.mp.rehash = false
		}
		return v.mp.hash
	}
	if v.rehash {
		v.hash = computeHash(v)
		v.rehash = false
	}
	return v.hash
}

func computeHash(v *Value) uint32 {
	switch v.kind {
	case Vector:
		var h uint32 = 538
		for _, e := range v.vec.elems {
			h ^= Hash(e)
		}
		return h
	case List:
		var h uint32 = 538
		it := v.ListIterator()
		for {
			e, ok := it.Next()
			if !ok {
				break
			}
			h ^= Hash(e)
		}
		return h
	default:
		return v.hash
	}
}

func computeMapHash(v *Value) uint32 {
	var h uint32
	it := v.MapIterator()
	for it.Next() {
		kh := Hash(it.Key())
		vh := Hash(it.Value())
		if vh != kh {
			kh ^= vh
		}
		h ^= kh
	}
	return h
}
