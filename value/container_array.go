package value

// arrayData backs both the Array and Binary variants, which are
// structurally identical (spec.md §3.2) and differ only in the Value's
// kind tag. UInt8-element arrays (including all Binaries) store a raw byte
// slice for codec efficiency; every other scalar element type stores a
// slice of inline scalar Values.
type arrayData struct {
	elemType Type
	raw      []byte
	elems    []Value
}

func (a *arrayData) length() int {
	if a.elemType == UInt8 {
		return len(a.raw)
	}
	return len(a.elems)
}

// NewBinary allocates a Binary value from b. ownership is accepted for API
// fidelity with spec.md §3.1.1; Go's GC makes Copy/Take/Ref behaviourally
// identical except that Copy defensively duplicates the slice so the
// caller may safely mutate its own buffer afterwards.
func NewBinary(b []byte, ownership Ownership) *Value {
	v := newScalar(Binary)
	buf := b
	if ownership == CopyBuf {
		buf = make([]byte, len(b))
		copy(buf, b)
	}
	v.arr = &arrayData{elemType: UInt8, raw: buf}
	v.hash = djb2Bytes(buf)
	return v
}

// NewArray allocates an Array of elemType from elems. elemType must be a
// non-container, non-String scalar type (spec.md §3.2).
func NewArray(elemType Type, elems []Value) *Value {
	v := newScalar(Array)
	if elemType == UInt8 {
		raw := make([]byte, len(elems))
		for i, e := range elems {
			raw[i] = byte(e.i64)
		}
		v.arr = &arrayData{elemType: elemType, raw: raw}
	} else {
		cp := make([]Value, len(elems))
		copy(cp, elems)
		v.arr = &arrayData{elemType: elemType, elems: cp}
	}
	return v
}

// AsBinary retags an Array of UInt8 as Binary in place, sharing the same
// backing buffer — the in-place type switch spec.md §3.2/§9 describes.
func (v *Value) AsBinary() *Value {
	if v != nil && v.kind == Array && v.arr.elemType == UInt8 {
		v.kind = Binary
	}
	return v
}

// AsArray retags a Binary as Array in place, sharing the same backing
// buffer.
func (v *Value) AsArray() *Value {
	if v != nil && v.kind == Binary {
		v.kind = Array
	}
	return v
}

// ArrayLength returns the number of elements. Panics if v is not an
// Array/Binary (precondition violation, per spec.md §7 policy).
func (v *Value) ArrayLength() int {
	if v == nil || v.arr == nil {
		panic("value: ArrayLength on non-array value")
	}
	return v.arr.length()
}

// ArrayElementType returns the array's declared element type.
func (v *Value) ArrayElementType() Type {
	if v == nil || v.arr == nil {
		panic("value: ArrayElementType on non-array value")
	}
	return v.arr.elemType
}

// BytesValue returns the raw bytes backing a Binary (or UInt8 Array) value.
func (v *Value) BytesValue() []byte {
	if v == nil || v.arr == nil || v.arr.elemType != UInt8 {
		panic("value: BytesValue on non-byte array/binary")
	}
	return v.arr.raw
}

// ArrayGet returns the element at index i as a scalar Value.
func (v *Value) ArrayGet(i int) Value {
	if v == nil || v.arr == nil {
		panic("value: ArrayGet on non-array value")
	}
	if v.arr.elemType == UInt8 {
		return *newIntValue(UInt8, int64(v.arr.raw[i]))
	}
	return v.arr.elems[i]
}

// ArrayIterator walks an Array/Binary from start to end.
type ArrayIterator struct {
	a     *arrayData
	index int
}

// ArrayIterator returns a forward iterator over v's elements.
func (v *Value) ArrayIterator() *ArrayIterator {
	if v == nil || v.arr == nil {
		panic("value: ArrayIterator on non-array value")
	}
	return &ArrayIterator{a: v.arr, index: -1}
}

func (it *ArrayIterator) HasNext() bool { return it.index+1 < it.a.length() }

func (it *ArrayIterator) Next() (Value, bool) {
	if !it.HasNext() {
		return Value{}, false
	}
	it.index++
	if it.a.elemType == UInt8 {
		return *newIntValue(UInt8, int64(it.a.raw[it.index])), true
	}
	return it.a.elems[it.index], true
}

func (it *ArrayIterator) Prev() (Value, bool) {
	if it.index <= 0 {
		return Value{}, false
	}
	it.index--
	if it.a.elemType == UInt8 {
		return *newIntValue(UInt8, int64(it.a.raw[it.index])), true
	}
	return it.a.elems[it.index], true
}

// ArrayTransform builds a new Array of type t containing every element of
// v that casts successfully to t; elements that fail to cast are skipped
// (spec.md §4.1 "Array/Vector transformations").
func ArrayTransform(v *Value, t Type) *Value {
	n := v.ArrayLength()
	out := make([]Value, 0, n)
	it := v.ArrayIterator()
	for it.HasNext() {
		e, _ := it.Next()
		if casted, ok := Cast(&e, t); ok {
			out = append(out, *casted)
		}
	}
	return NewArray(t, out)
}
