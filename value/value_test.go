package value

import "testing"

func TestScalarAllocatorsRoundTrip(t *testing.T) {
	i := NewInt32(-42)
	if i.Kind() != Int32 || i.IntValue() != -42 {
		t.Fatalf("NewInt32 roundtrip failed: kind=%v val=%d", i.Kind(), i.IntValue())
	}
	u := NewUInt64(18446744073709551615)
	if u.UintValue() != 18446744073709551615 {
		t.Fatalf("NewUInt64 roundtrip failed: %d", u.UintValue())
	}
	f := NewFloat64(3.5)
	if f.Float64Value() != 3.5 {
		t.Fatalf("NewFloat64 roundtrip failed: %v", f.Float64Value())
	}
	s := NewString("hello", CopyBuf)
	if s.StringValue() != "hello" {
		t.Fatalf("NewString roundtrip failed: %q", s.StringValue())
	}
}

func TestBoolAndNullAreSingletons(t *testing.T) {
	if NewBool(true) != NewBool(true) {
		t.Fatalf("NewBool(true) should return the shared singleton")
	}
	if NewBool(false) != NewBool(false) {
		t.Fatalf("NewBool(false) should return the shared singleton")
	}
	if !IsNull(NewNull()) {
		t.Fatalf("NewNull() should report IsNull")
	}
	if IsNull(NewInt8(0)) {
		t.Fatalf("a zero Int8 should not report IsNull")
	}
}

func TestRefCountingFreesOnZero(t *testing.T) {
	v := NewInt32(7)
	v.AddRef()
	v.Free()
	if v.refs() != 1 {
		t.Fatalf("expected refcount 1 after one Free, got %d", v.refs())
	}
	v.Free()
	if v.refs() != 0 {
		t.Fatalf("expected refcount 0 after the last Free, got %d", v.refs())
	}
}

func TestStaticStringIgnoresRefcounting(t *testing.T) {
	s := NewStaticString("key")
	s.AddRef()
	s.Free()
	s.Free()
	if s.StringValue() != "key" {
		t.Fatalf("static string survived refcount churn with wrong value: %q", s.StringValue())
	}
}

func TestTagsRoundTrip(t *testing.T) {
	v := NewInt32(1)
	v.SetTags(3, 9)
	t1, t2 := v.Tags()
	if t1 != 3 || t2 != 9 {
		t.Fatalf("Tags roundtrip failed: got (%d, %d)", t1, t2)
	}
}

func TestMatchesTypecode(t *testing.T) {
	arr := NewArray(Int32, []Value{*NewInt32(1), *NewInt32(2)})
	if !arr.Matches(Typecode{Type: Array, ElementType: Int32}) {
		t.Fatalf("expected array to match its own typecode")
	}
	if arr.Matches(Typecode{Type: Array, ElementType: UInt8}) {
		t.Fatalf("array should not match a mismatched element type")
	}
}
