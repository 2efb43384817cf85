package value

import (
	"sync/atomic"

	"iotcore/rbtree"
)

// Ownership controls how a buffer-bearing allocator takes possession of the
// caller's backing storage, per spec.md §3.1.1.
type Ownership uint8

const (
	// CopyBuf duplicates the caller's buffer into owned storage.
	CopyBuf Ownership = iota
	// TakeBuf assumes ownership of the caller's buffer.
	TakeBuf
	// RefBuf borrows the caller's buffer; it is never freed.
	RefBuf
)

// flag bits, mirroring iot_data_t's flags field (spec.md §3.1).
const (
	flagRelease uint8 = 1 << iota
	flagReleaseBlock
	flagHeap
	flagConstant
	flagComposed
)

// Value is a single node of the tagged-union value model. Every Value is
// either a scalar, a borrowed/owned buffer (String/Binary/Pointer), or a
// composed container (Array/Vector/List/Map). Which fields are meaningful
// is determined entirely by kind — this is the Go translation of the
// original C library's enum-of-structs design (spec.md §9).
type Value struct {
	kind Type

	refcount int32 // accessed via sync/atomic; ignored when flagConstant is set
	hash     uint32
	rehash   bool
	flags    uint8
	tag1     uint8
	tag2     uint8

	meta *Value // optional metadata Map, owned by this Value

	// scalar payload
	i64 int64   // all integer kinds and Bool (0/1)
	f64 float64 // Float32 (truncated on read)/Float64

	str string // String

	ptr     interface{}          // Pointer
	deleter func(interface{})    // Pointer custom deleter, may be nil

	arr *arrayData  // Array / Binary
	vec *vectorData // Vector
	lst *listData   // List
	mp  *mapData    // Map
}

// Kind returns the Value's type tag.
func (v *Value) Kind() Type {
	if v == nil {
		return Invalid
	}
	return v.kind
}

// Typecode returns the structural typecode for v.
func (v *Value) Typecode() Typecode {
	if v == nil {
		return Typecode{Type: Invalid}
	}
	tc := Typecode{Type: v.kind}
	switch v.kind {
	case Array, Binary:
		tc.ElementType = v.arr.elemType
	case Vector:
		tc.ElementType = v.vec.elemType
	case List:
		tc.ElementType = Multi
	case Map:
		tc.ElementType = v.mp.valType
		tc.KeyType = v.mp.keyType
	}
	return tc
}

// Matches reports whether v's typecode equals tc (spec.md §3.5, §4.1 `matches`).
func (v *Value) Matches(tc Typecode) bool {
	if v == nil {
		return false
	}
	return v.Typecode().Equal(tc)
}

// Tags returns the two free-form user tags carried by v (spec.md §3.1,
// supplemented from original_source/include/iot/data.h's iot_data_tag_t).
func (v *Value) Tags() (uint8, uint8) {
	if v == nil {
		return 0, 0
	}
	return v.tag1, v.tag2
}

// SetTags sets the two free-form user tags carried by v.
func (v *Value) SetTags(t1, t2 uint8) {
	if v == nil {
		return
	}
	v.tag1, v.tag2 = t1, t2
}

// Metadata returns v's optional metadata map, or nil.
func (v *Value) Metadata() *Value {
	if v == nil {
		return nil
	}
	return v.meta
}

// SetMetadata attaches (and takes ownership of) a metadata Map on v,
// freeing any previously attached metadata.
func (v *Value) SetMetadata(m *Value) {
	if v == nil {
		return
	}
	if v.meta != nil {
		v.meta.Free()
	}
	v.meta = m
}

func (v *Value) isConstant() bool { return v.flags&flagConstant != 0 }

// AddRef atomically increments v's refcount and returns v, matching the
// original API's "return same pointer" contract. It is a no-op on static or
// constant values.
func (v *Value) AddRef() *Value {
	if v == nil || v.isConstant() {
		return v
	}
	atomic.AddInt32(&v.refcount, 1)
	return v
}

func (v *Value) refs() int32 {
	return atomic.LoadInt32(&v.refcount)
}

// Free atomically decrements v's refcount; at zero it releases owned
// children, runs a Pointer's deleter, and releases v itself. Static and
// constant values (shared Bool/Null singletons) are never freed.
func (v *Value) Free() {
	if v == nil || v.isConstant() {
		return
	}
	if atomic.AddInt32(&v.refcount, -1) > 0 {
		return
	}
	v.teardown()
}

func (v *Value) teardown() {
	if v.meta != nil {
		v.meta.Free()
		v.meta = nil
	}
	switch v.kind {
	case Pointer:
		if v.deleter != nil {
			v.deleter(v.ptr)
		}
	case Vector:
		for _, e := range v.vec.elems {
			if e != nil {
				e.Free()
			}
		}
	case List:
		for n := v.lst.head; n != nil; {
			next := n.next
			if n.v != nil {
				n.v.Free()
			}
			n = next
		}
	case Map:
		v.mp.tree.Walk(func(n *rbtree.Node) bool {
			freeTreeEntry(n)
			return true
		})
	}
}

// newScalar builds a freshly allocated, refcount=1 scalar value.
func newScalar(kind Type) *Value {
	return &Value{kind: kind, refcount: 1}
}

func newIntValue(kind Type, i int64) *Value {
	v := newScalar(kind)
	v.i64 = i
	v.hash = uint32(i)
	return v
}

func NewInt8(i int8) *Value     { return newIntValue(Int8, int64(i)) }
func NewUInt8(i uint8) *Value   { return newIntValue(UInt8, int64(i)) }
func NewInt16(i int16) *Value   { return newIntValue(Int16, int64(i)) }
func NewUInt16(i uint16) *Value { return newIntValue(UInt16, int64(i)) }
func NewInt32(i int32) *Value   { return newIntValue(Int32, int64(i)) }
func NewUInt32(i uint32) *Value { return newIntValue(UInt32, int64(i)) }
func NewInt64(i int64) *Value   { return newIntValue(Int64, i) }

// NewUInt64 stores a full-width unsigned value; IntValue reinterprets the
// stored bits, matching how the original C union stores uint64_t and
// int64_t in the same memory.
func NewUInt64(i uint64) *Value {
	v := newIntValue(UInt64, int64(i))
	v.hash = uint32(i)
	return v
}

func NewFloat32(f float32) *Value {
	v := newScalar(Float32)
	v.f64 = float64(f)
	v.hash = uint32(f)
	return v
}

func NewFloat64(f float64) *Value {
	v := newScalar(Float64)
	v.f64 = f
	v.hash = uint32(int64(f))
	return v
}

var (
	sharedTrue  = &Value{kind: Bool, i64: 1, flags: flagConstant, hash: 1}
	sharedFalse = &Value{kind: Bool, i64: 0, flags: flagConstant, hash: 0}
	sharedNull  = &Value{kind: Null, flags: flagConstant, hash: 0}
)

// NewBool returns the shared Bool singleton for b; equality-by-pointer
// holds and refcount is immaterial (spec.md §3.1).
func NewBool(b bool) *Value {
	if b {
		return sharedTrue
	}
	return sharedFalse
}

// NewNull returns the shared Null singleton.
func NewNull() *Value { return sharedNull }

// IsNull reports whether v is absent or the Null value.
func IsNull(v *Value) bool { return v == nil || v.kind == Null }

// IntValue returns v's value reinterpreted as int64. Meaningful only for
// numeric/Bool kinds.
func (v *Value) IntValue() int64 { return v.i64 }

// UintValue returns v's value reinterpreted as uint64.
func (v *Value) UintValue() uint64 { return uint64(v.i64) }

// Float32Value returns v's value as float32.
func (v *Value) Float32Value() float32 { return float32(v.f64) }

// Float64Value returns v's value as float64.
func (v *Value) Float64Value() float64 { return v.f64 }

// BoolValue returns v's boolean interpretation (any nonzero is true).
func (v *Value) BoolValue() bool { return v.i64 != 0 }

// NewString allocates a String value. ownership only affects Take/Ref
// semantics conceptually — Go strings are immutable so Copy/Take/Ref are
// all safe to implement identically; ownership is accepted to keep the
// call contract faithful to spec.md §3.1.1.
func NewString(s string, _ Ownership) *Value {
	v := newScalar(String)
	v.str = s
	v.hash = djb2(s)
	return v
}

// StringValue returns v's string contents.
func (v *Value) StringValue() string { return v.str }

// NewStaticString builds a constant String value sharing the idea (but not
// the BSS placement — Go has no equivalent) of spec.md §3.1.2's static
// construction: the returned value ignores refcount changes and must not
// be freed by the caller, making it cheap to use as a transient map key.
func NewStaticString(s string) *Value {
	return &Value{kind: String, str: s, hash: djb2(s), flags: flagConstant}
}

// NewPointer allocates a Pointer value wrapping an opaque payload and an
// optional custom deleter invoked on final Free.
func NewPointer(p interface{}, deleter func(interface{})) *Value {
	v := newScalar(Pointer)
	v.ptr = p
	v.deleter = deleter
	return v
}

// PointerValue returns v's opaque payload.
func (v *Value) PointerValue() interface{} { return v.ptr }

func djb2(s string) uint32 {
	var h uint32 = 538
	for i := 0; i < len(s); i++ {
		h = ((h << 5) + h) ^ uint32(s[i])
	}
	return h
}

func djb2Bytes(b []byte) uint32 {
	var h uint32 = 538
	for _, c := range b {
		h = ((h << 5) + h) ^ uint32(c)
	}
	return h
}
