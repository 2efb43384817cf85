package value

// A path is a List whose entries are either Map-compatible keys or UInt32
// Vector indices (spec.md §4.1 "Path operations on nested Map/Vector").
// pathSteps flattens it into a slice for recursive descent.
func pathSteps(path *Value) []*Value {
	var out []*Value
	it := path.ListIterator()
	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, e)
	}
	return out
}

// GetAt navigates v along path, returning a borrowed reference to the leaf
// or nil if any step is absent or type-incompatible. An empty path returns
// v unchanged.
func GetAt(v *Value, path *Value) *Value {
	steps := pathSteps(path)
	cur := v
	for _, step := range steps {
		if cur == nil {
			return nil
		}
		switch cur.kind {
		case Map:
			cur = cur.MapGet(step)
		case Vector:
			idx, ok := stepIndex(step)
			if !ok || idx < 0 || idx >= cur.VectorLength() {
				return nil
			}
			cur = cur.VectorGet(idx)
		default:
			return nil
		}
	}
	return cur
}

func stepIndex(step *Value) (int, bool) {
	if !step.kind.IsNumeric() {
		return 0, false
	}
	return int(step.IntValue()), true
}

// shallowCopyContainer duplicates a Map/Vector's top-level structure only,
// add_ref'ing every child so the copy shares storage with the original
// until a path operation replaces one entry (spec.md: "intermediate
// containers are shallow-copied").
func shallowCopyContainer(v *Value) *Value {
	switch v.kind {
	case Map:
		cp := NewMap(v.mp.keyType, v.mp.valType)
		it := v.MapIterator()
		for it.Next() {
			cp.MapSet(it.Key().AddRef(), it.Value().AddRef())
		}
		return cp
	case Vector:
		cp := NewVector(v.VectorLength(), v.vec.elemType)
		for i := 0; i < v.VectorLength(); i++ {
			if e := v.VectorGet(i); e != nil {
				cp.VectorSet(i, e.AddRef())
			}
		}
		return cp
	default:
		return v.AddRef()
	}
}

// AddAt returns a new root with new stored at path, sharing unchanged
// subtrees with v via refcounting; intermediate containers along the path
// are shallow-copied so v itself is never mutated (spec.md "add_at"). An
// empty path frees v and returns newVal.
func AddAt(v *Value, path *Value, newVal *Value) *Value {
	steps := pathSteps(path)
	if len(steps) == 0 {
		v.Free()
		return newVal
	}
	return addAtSteps(v, steps, newVal)
}

// addAtSteps takes ownership of v: it shallow-copies v's top level into a
// fresh root (add_ref'ing every child) and frees v's own reference.
func addAtSteps(v *Value, steps []*Value, newVal *Value) *Value {
	root := shallowCopyContainer(v)
	v.Free()
	step := steps[0]
	if len(steps) == 1 {
		switch root.kind {
		case Map:
			root.MapSet(step.AddRef(), newVal)
		case Vector:
			idx, ok := stepIndex(step)
			if ok && idx >= 0 {
				if idx >= root.VectorLength() {
					root.VectorResize(idx + 1)
				}
				root.VectorSet(idx, newVal)
			} else {
				newVal.Free()
			}
		}
		return root
	}
	switch root.kind {
	case Map:
		child := root.MapGet(step)
		var newChild *Value
		if child != nil {
			newChild = addAtSteps(child.AddRef(), steps[1:], newVal)
		} else {
			newChild = addAtSteps(NewMap(Multi, Multi), steps[1:], newVal)
		}
		root.MapSet(step.AddRef(), newChild)
	case Vector:
		idx, ok := stepIndex(step)
		if !ok || idx < 0 {
			newVal.Free()
			return root
		}
		if idx >= root.VectorLength() {
			root.VectorResize(idx + 1)
		}
		child := root.VectorGet(idx)
		var newChild *Value
		if child != nil {
			newChild = addAtSteps(child.AddRef(), steps[1:], newVal)
		} else {
			newChild = addAtSteps(NewVector(0, Multi), steps[1:], newVal)
		}
		root.VectorSet(idx, newChild)
	default:
		newVal.Free()
	}
	return root
}

// RemoveAt returns a new root with the entry at path removed, sharing
// unchanged subtrees with v. Removing a Vector index sets it null then
// compacts the vector (spec.md "remove_at").
func RemoveAt(v *Value, path *Value) *Value {
	steps := pathSteps(path)
	if len(steps) == 0 {
		return v
	}
	return removeAtSteps(v, steps)
}

// removeAtSteps takes ownership of v, mirroring addAtSteps.
func removeAtSteps(v *Value, steps []*Value) *Value {
	root := shallowCopyContainer(v)
	v.Free()
	step := steps[0]
	if len(steps) == 1 {
		switch root.kind {
		case Map:
			root.MapRemove(step)
		case Vector:
			idx, ok := stepIndex(step)
			if ok && idx >= 0 && idx < root.VectorLength() {
				root.VectorSet(idx, nil)
				root.VectorCompact()
			}
		}
		return root
	}
	switch root.kind {
	case Map:
		child := root.MapGet(step)
		if child == nil {
			return root
		}
		newChild := removeAtSteps(child.AddRef(), steps[1:])
		root.MapSet(step.AddRef(), newChild)
	case Vector:
		idx, ok := stepIndex(step)
		if !ok || idx < 0 || idx >= root.VectorLength() {
			return root
		}
		child := root.VectorGet(idx)
		if child == nil {
			return root
		}
		newChild := removeAtSteps(child.AddRef(), steps[1:])
		root.VectorSet(idx, newChild)
	}
	return root
}

// UpdateAt calls fn with the existing leaf at path (nil if absent) and arg,
// storing fn's return as the new leaf (spec.md "update_at").
func UpdateAt(v *Value, path *Value, fn func(existing *Value, arg interface{}) *Value, arg interface{}) *Value {
	steps := pathSteps(path)
	if len(steps) == 0 {
		return fn(v, arg)
	}
	existing := GetAt(v, path)
	var borrowed *Value
	if existing != nil {
		borrowed = existing.AddRef()
	}
	replacement := fn(borrowed, arg)
	return AddAt(v, path, replacement)
}
