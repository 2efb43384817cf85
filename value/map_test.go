package value

import "testing"

func TestMapSetGetRemove(t *testing.T) {
	m := NewMap(String, Int32)
	m.MapSet(NewStaticString("a"), NewInt32(1))
	m.MapSet(NewStaticString("b"), NewInt32(2))

	if m.MapSize() != 2 {
		t.Fatalf("expected size 2, got %d", m.MapSize())
	}
	if got := m.StringMapGet("a"); got == nil || got.IntValue() != 1 {
		t.Fatalf("expected a=1, got %v", got)
	}
	if !m.MapRemove(NewStaticString("a")) {
		t.Fatalf("expected remove of present key to succeed")
	}
	if m.MapSize() != 1 {
		t.Fatalf("expected size 1 after remove, got %d", m.MapSize())
	}
	if got := m.StringMapGet("a"); got != nil {
		t.Fatalf("expected a to be absent after remove, got %v", got)
	}
}

func TestMapSetReplacesExistingValue(t *testing.T) {
	m := NewMap(String, Int32)
	m.MapSet(NewStaticString("a"), NewInt32(1))
	m.MapSet(NewStaticString("a"), NewInt32(99))
	if m.MapSize() != 1 {
		t.Fatalf("expected size to stay 1 on replace, got %d", m.MapSize())
	}
	if got := m.StringMapGet("a"); got == nil || got.IntValue() != 99 {
		t.Fatalf("expected a=99 after replace, got %v", got)
	}
}

func TestMapAddUnused(t *testing.T) {
	m := NewMap(String, Int32)
	if ok := m.MapAddUnused(NewStaticString("a"), NewInt32(1)); !ok {
		t.Fatalf("expected first add_unused to succeed")
	}
	if ok := m.MapAddUnused(NewStaticString("a"), NewInt32(2)); ok {
		t.Fatalf("expected second add_unused on existing key to fail")
	}
	if got := m.StringMapGet("a"); got.IntValue() != 1 {
		t.Fatalf("expected original value 1 preserved, got %d", got.IntValue())
	}
}

func TestMapIteratorAscendingOrder(t *testing.T) {
	m := NewMap(String, Int32)
	for _, k := range []string{"c", "a", "b"} {
		m.MapSet(NewStaticString(k), NewInt32(1))
	}
	var keys []string
	it := m.MapIterator()
	for it.Next() {
		keys = append(keys, it.Key().StringValue())
	}
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys out of order: got %v want %v", keys, want)
		}
	}
}

func TestMerge(t *testing.T) {
	dst := NewMap(String, Int32)
	dst.MapSet(NewStaticString("a"), NewInt32(1))
	src := NewMap(String, Int32)
	src.MapSet(NewStaticString("a"), NewInt32(2))
	src.MapSet(NewStaticString("b"), NewInt32(3))

	Merge(dst, src)

	if dst.MapSize() != 2 {
		t.Fatalf("expected merged size 2, got %d", dst.MapSize())
	}
	if got := dst.StringMapGet("a"); got.IntValue() != 2 {
		t.Fatalf("expected merge to overwrite a with 2, got %d", got.IntValue())
	}
	if got := dst.StringMapGet("b"); got.IntValue() != 3 {
		t.Fatalf("expected merge to add b=3, got %v", got)
	}
	src.Free()
}

func TestKeyOrderMetadata(t *testing.T) {
	m := NewMap(String, Int32)
	m.MapSet(NewStaticString("z"), NewInt32(1))
	m.MapSet(NewStaticString("a"), NewInt32(2))

	order := NewVector(2, String)
	order.VectorSet(0, NewStaticString("z").AddRef())
	order.VectorSet(1, NewStaticString("a").AddRef())
	SetKeyOrder(m, order)

	keys := OrderedKeys(m)
	if len(keys) != 2 || keys[0].StringValue() != "z" || keys[1].StringValue() != "a" {
		t.Fatalf("expected appearance order [z a], got %v", keys)
	}
}
