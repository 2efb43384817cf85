package value

// vectorData is a fixed-size pointer table of owned Values; entries may be
// nil (spec.md §3.2).
type vectorData struct {
	elemType Type // Multi if unrestricted
	elems    []*Value
}

// NewVector allocates a Vector of the given size with an optional fixed
// element type (pass Multi for unrestricted). All entries start nil.
func NewVector(size int, elemType Type) *Value {
	v := newScalar(Vector)
	v.vec = &vectorData{elemType: elemType, elems: make([]*Value, size)}
	return v
}

// VectorLength returns the vector's slot count (including null entries).
func (v *Value) VectorLength() int {
	if v == nil || v.vec == nil {
		panic("value: VectorLength on non-vector value")
	}
	return len(v.vec.elems)
}

// VectorElementType returns the vector's declared element type (Multi if
// unrestricted).
func (v *Value) VectorElementType() Type {
	if v == nil || v.vec == nil {
		panic("value: VectorElementType on non-vector value")
	}
	return v.vec.elemType
}

// VectorGet returns the (possibly nil) element at index i.
func (v *Value) VectorGet(i int) *Value {
	if v == nil || v.vec == nil {
		panic("value: VectorGet on non-vector value")
	}
	return v.vec.elems[i]
}

// VectorSet stores elem (taking ownership of it) at index i, freeing
// whatever was previously there.
func (v *Value) VectorSet(i int, elem *Value) {
	if v == nil || v.vec == nil {
		panic("value: VectorSet on non-vector value")
	}
	if old := v.vec.elems[i]; old != nil {
		old.Free()
	}
	v.vec.elems[i] = elem
	v.rehash = true
}

// VectorResize grows or shrinks the vector in place, preserving existing
// entries and freeing any entries truncated away.
func (v *Value) VectorResize(n int) {
	if v == nil || v.vec == nil {
		panic("value: VectorResize on non-vector value")
	}
	cur := v.vec.elems
	if n < len(cur) {
		for _, e := range cur[n:] {
			if e != nil {
				e.Free()
			}
		}
		v.vec.elems = cur[:n]
		v.rehash = true
		return
	}
	grown := make([]*Value, n)
	copy(grown, cur)
	v.vec.elems = grown
}

// VectorCompact removes null entries, shrinking the vector in place.
func (v *Value) VectorCompact() {
	if v == nil || v.vec == nil {
		panic("value: VectorCompact on non-vector value")
	}
	out := v.vec.elems[:0]
	for _, e := range v.vec.elems {
		if e != nil {
			out = append(out, e)
		}
	}
	v.vec.elems = out
}

// VectorIterator walks a Vector's slots in order, exposing Replace for the
// one mutation permitted mid-iteration (spec.md §4.1 "Iterators").
type VectorIterator struct {
	vec   *Value
	index int
}

func (v *Value) VectorIterator() *VectorIterator {
	if v == nil || v.vec == nil {
		panic("value: VectorIterator on non-vector value")
	}
	return &VectorIterator{vec: v, index: -1}
}

func (it *VectorIterator) HasNext() bool { return it.index+1 < len(it.vec.vec.elems) }

func (it *VectorIterator) Next() (*Value, bool) {
	if !it.HasNext() {
		return nil, false
	}
	it.index++
	return it.vec.vec.elems[it.index], true
}

func (it *VectorIterator) Prev() (*Value, bool) {
	if it.index <= 0 {
		return nil, false
	}
	it.index--
	return it.vec.vec.elems[it.index], true
}

// Replace swaps the current position's element, freeing the old one and
// invalidating the vector's hash.
func (it *VectorIterator) Replace(elem *Value) {
	it.vec.VectorSet(it.index, elem)
}

// VectorToArray flattens vec into an Array of type t; recurse controls
// whether nested Vectors are flattened first (spec.md §4.1).
func VectorToArray(vec *Value, t Type, recurse bool) *Value {
	leaves := collectLeaves(vec, recurse)
	out := make([]Value, 0, len(leaves))
	for _, e := range leaves {
		if e == nil {
			continue
		}
		if casted, ok := Cast(e, t); ok {
			out = append(out, *casted)
		}
	}
	return NewArray(t, out)
}

// VectorToVector rebuilds vec as a flat Vector of type t.
func VectorToVector(vec *Value, t Type, recurse bool) *Value {
	leaves := collectLeaves(vec, recurse)
	out := NewVector(0, t)
	for _, e := range leaves {
		if e == nil {
			continue
		}
		if casted, ok := Cast(e, t); ok {
			out.vec.elems = append(out.vec.elems, casted.AddRef())
		}
	}
	out.rehash = true
	return out
}

func collectLeaves(vec *Value, recurse bool) []*Value {
	var out []*Value
	for _, e := range vec.vec.elems {
		if recurse && e != nil && e.kind == Vector {
			out = append(out, collectLeaves(e, recurse)...)
		} else {
			out = append(out, e)
		}
	}
	return out
}

// VectorDimensions returns the per-level widths and total leaf count,
// provided every nesting level has uniform width and every non-leaf
// contains only Vectors (spec.md §4.1). Otherwise it returns (nil, 0).
func VectorDimensions(vec *Value) (*Value, int) {
	dims, total, ok := vectorDims(vec)
	if !ok {
		return nil, 0
	}
	elems := make([]Value, len(dims))
	for i, d := range dims {
		elems[i] = *newIntValue(UInt32, int64(d))
	}
	return NewArray(UInt32, elems), total
}

func vectorDims(v *Value) ([]int, int, bool) {
	if v == nil || v.kind != Vector {
		return nil, 0, false
	}
	n := len(v.vec.elems)
	if n == 0 {
		return []int{0}, 0, true
	}
	allVectors, anyVector := true, false
	for _, e := range v.vec.elems {
		if e != nil && e.kind == Vector {
			anyVector = true
		} else {
			allVectors = false
		}
	}
	if !allVectors {
		if anyVector {
			return nil, 0, false
		}
		return []int{n}, n, true
	}
	var childDims []int
	total := 0
	for i, e := range v.vec.elems {
		d, t, ok := vectorDims(e)
		if !ok {
			return nil, 0, false
		}
		if i == 0 {
			childDims = d
		} else if !sameDims(childDims, d) {
			return nil, 0, false
		}
		total += t
	}
	return append([]int{n}, childDims...), total, true
}

func sameDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
