package value

import "iotcore/rbtree"

// Compress walks v's containers depth-first, interning structurally equal
// children onto a single shared instance (spec.md §4.1 "Compression"). The
// cache is a generic Multi-keyed Map; pass nil to use a throwaway one-shot
// cache. Compress does not mutate v in place: it returns a new root sharing
// interned leaves, and frees v's own reference.
func Compress(v *Value, cache *Value) *Value {
	if cache == nil {
		cache = NewMap(Multi, Multi)
		defer cache.Free()
	}
	return compress(v, cache)
}

func compress(v *Value, cache *Value) *Value {
	if v == nil {
		return nil
	}
	if !v.kind.IsContainer() {
		if existing := cache.MapGet(v); existing != nil {
			v.Free()
			return existing.AddRef()
		}
		cache.MapSet(v.AddRef(), v.AddRef())
		return v
	}

	switch v.kind {
	case Vector:
		out := NewVector(v.VectorLength(), v.vec.elemType)
		for i := 0; i < v.VectorLength(); i++ {
			if e := v.VectorGet(i); e != nil {
				out.VectorSet(i, compress(e.AddRef(), cache))
			}
		}
		v.Free()
		return internContainer(out, cache)
	case Map:
		out := NewMap(v.mp.keyType, v.mp.valType)
		it := v.MapIterator()
		for it.Next() {
			k := compress(it.Key().AddRef(), cache)
			val := compress(it.Value().AddRef(), cache)
			out.MapSet(k, val)
		}
		v.Free()
		return internContainer(out, cache)
	case List:
		out := NewList()
		it := v.ListIterator()
		for {
			e, ok := it.Next()
			if !ok {
				break
			}
			out.ListPushBack(compress(e.AddRef(), cache))
		}
		v.Free()
		return internContainer(out, cache)
	default:
		// Array/Binary already store leaves inline or are immutable byte
		// buffers; nothing nested to intern.
		if existing := cache.MapGet(v); existing != nil {
			v.Free()
			return existing.AddRef()
		}
		cache.MapSet(v.AddRef(), v.AddRef())
		return v
	}
}

func internContainer(v *Value, cache *Value) *Value {
	if existing := cache.MapGet(v); existing != nil && Equal(existing, v) {
		v.Free()
		return existing.AddRef()
	}
	cache.MapSet(v.AddRef(), v.AddRef())
	return v
}

// NewSharedStringCache returns an empty string-interning cache suitable for
// passing into a codec decoder.
func NewSharedStringCache() *rbtree.Tree {
	return rbtree.New(func(a, b interface{}) int {
		as, bs := a.(string), b.(string)
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	})
}

// InternString returns the cached *Value for s if present, else allocates
// and caches a new one.
func InternString(cache *rbtree.Tree, s string) *Value {
	if cache == nil {
		return NewString(s, CopyBuf)
	}
	if existing, ok := cache.Get(s); ok {
		return existing.(*Value).AddRef()
	}
	v := NewString(s, CopyBuf)
	cache.Insert(s, v)
	return v
}
