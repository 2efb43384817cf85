package value

import "testing"

func TestArrayBinaryRetagShareStorage(t *testing.T) {
	b := NewBinary([]byte{1, 2, 3}, CopyBuf)
	arr := b.AsArray()
	if arr.Kind() != Array {
		t.Fatalf("expected AsArray to retag kind to Array")
	}
	if e := arr.ArrayGet(1); e.IntValue() != 2 {
		t.Fatalf("expected retagged array to share the same bytes")
	}
	back := arr.AsBinary()
	if back.Kind() != Binary || back.BytesValue()[2] != 3 {
		t.Fatalf("expected AsBinary round trip to preserve bytes")
	}
}

func TestArrayIteration(t *testing.T) {
	arr := NewArray(Int32, []Value{*NewInt32(1), *NewInt32(2), *NewInt32(3)})
	it := arr.ArrayIterator()
	var sum int64
	for it.HasNext() {
		e, _ := it.Next()
		sum += e.IntValue()
	}
	if sum != 6 {
		t.Fatalf("expected sum 6, got %d", sum)
	}
}

func TestNewArrayUInt8UsesRawBytes(t *testing.T) {
	arr := NewArray(UInt8, []Value{*NewUInt8(10), *NewUInt8(20)})
	if arr.ArrayLength() != 2 {
		t.Fatalf("expected length 2, got %d", arr.ArrayLength())
	}
	if arr.BytesValue()[1] != 20 {
		t.Fatalf("expected raw byte backing to hold 20, got %d", arr.BytesValue()[1])
	}
}
