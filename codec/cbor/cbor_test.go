package cbor

import (
	"testing"

	"iotcore/value"
)

func TestEncodeDecodeSmallUint(t *testing.T) {
	b := Encode(value.NewUInt8(5))
	if len(b) != 1 || b[0] != 5 {
		t.Fatalf("expected single-byte encoding of 5, got %v", b)
	}
	v, err := Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.UintValue() != 5 {
		t.Fatalf("expected 5, got %v", v.UintValue())
	}
}

func TestEncodeDecodeNegativeInt(t *testing.T) {
	b := Encode(value.NewInt32(-10))
	v, err := Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IntValue() != -10 {
		t.Fatalf("expected -10, got %v", v.IntValue())
	}
}

func TestEncodeInt16NegativeMatchesExactByteLayout(t *testing.T) {
	b := Encode(value.NewInt16(-501))
	want := []byte{0x39, 0x01, 0xF4}
	if len(b) != len(want) {
		t.Fatalf("expected %v, got %v", want, b)
	}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, b)
		}
	}
	v, err := Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value.Compare(v, value.NewInt16(-501)) != 0 && v.IntValue() != -501 {
		t.Fatalf("expected value equal to Int16(-501), got %v", v.IntValue())
	}
}

func TestEncodeDecodeStringRoundTrip(t *testing.T) {
	b := Encode(value.NewString("hello", value.CopyBuf))
	v, err := Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != value.String || v.StringValue() != "hello" {
		t.Fatalf("roundtrip mismatch: %v %q", v.Kind(), v.StringValue())
	}
}

func TestEncodeDecodeBinaryRoundTrip(t *testing.T) {
	b := Encode(value.NewBinary([]byte{1, 2, 3, 4}, value.CopyBuf))
	v, err := Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != value.Binary {
		t.Fatalf("expected Binary, got %v", v.Kind())
	}
	got := v.BytesValue()
	if len(got) != 4 || got[2] != 3 {
		t.Fatalf("unexpected bytes: %v", got)
	}
}

func TestEncodeDecodeFloat64RoundTrip(t *testing.T) {
	b := Encode(value.NewFloat64(3.25))
	v, err := Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != value.Float64 || v.Float64Value() != 3.25 {
		t.Fatalf("roundtrip mismatch: %v %v", v.Kind(), v.Float64Value())
	}
}

func TestEncodeDecodeBoolAndNull(t *testing.T) {
	b := Encode(value.NewBool(true))
	v, err := Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != value.Bool || !v.BoolValue() {
		t.Fatalf("expected true, got %v", v)
	}

	b = Encode(value.NewNull())
	v, err = Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !value.IsNull(v) {
		t.Fatalf("expected null, got %v", v.Kind())
	}
}

func TestEncodeDecodeVectorRoundTrip(t *testing.T) {
	vec := value.NewVector(3, value.Multi)
	vec.VectorSet(0, value.NewInt32(1))
	vec.VectorSet(1, value.NewInt32(2))
	vec.VectorSet(2, value.NewString("three", value.CopyBuf))

	b := Encode(vec)
	v, err := Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != value.Vector || v.VectorLength() != 3 {
		t.Fatalf("expected 3-element vector, got %v", v)
	}
	if v.VectorGet(2).StringValue() != "three" {
		t.Fatalf("unexpected third element: %v", v.VectorGet(2))
	}
}

func TestEncodeDecodeMapRoundTrip(t *testing.T) {
	m := value.NewMap(value.String, value.Multi)
	m.MapSet(value.NewStaticString("a").AddRef(), value.NewInt32(1))
	m.MapSet(value.NewStaticString("b").AddRef(), value.NewInt32(2))

	b := Encode(m)
	v, err := Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != value.Map || v.MapSize() != 2 {
		t.Fatalf("expected 2-entry map, got %v", v)
	}
	if v.StringMapGet("a").IntValue() != 1 {
		t.Fatalf("expected a=1, got %v", v.StringMapGet("a"))
	}
}

func TestBufferGrowthDoublesThenStepsByFixedIncrement(t *testing.T) {
	h := newHolder()
	if cap(h.data) != buffSize {
		t.Fatalf("expected initial capacity %d, got %d", buffSize, cap(h.data))
	}
	h.writeBytes(make([]byte, buffSize+1))
	if cap(h.data) <= buffSize {
		t.Fatalf("expected buffer to grow past initial size, got cap %d", cap(h.data))
	}
}

func TestDecodeTruncatedDocumentErrors(t *testing.T) {
	if _, err := Decode([]byte{0x1b, 0x01}); err == nil {
		t.Fatalf("expected truncated 64-bit uint to error")
	}
}

func TestDecodeUnwrapsTag(t *testing.T) {
	// Tag 0 (text date/time) wrapping the text string "x": 0xC0 0x61 0x78
	b := []byte{0xC0, 0x61, 0x78}
	v, err := Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != value.String || v.StringValue() != "x" {
		t.Fatalf("expected tag to unwrap transparently to string \"x\", got %v", v)
	}
}
