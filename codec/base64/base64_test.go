package base64

import (
	"testing"

	"iotcore/value"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []byte("hello, world")
	enc := Encode(in)
	out, err := Decode(enc)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if string(out) != string(in) {
		t.Fatalf("roundtrip mismatch: got %q want %q", out, in)
	}
}

func TestMapValueToArrayConvertsInPlace(t *testing.T) {
	m := value.NewMap(value.String, value.Multi)
	m.MapSet(value.NewStaticString("data").AddRef(), value.NewString(Encode([]byte{1, 2, 3}), value.CopyBuf))

	if !MapValueToArray(m, "data") {
		t.Fatalf("expected conversion to succeed")
	}
	got := m.StringMapGet("data")
	if got.Kind() != value.Binary {
		t.Fatalf("expected key to hold a Binary after conversion, got %v", got.Kind())
	}
	if got.BytesValue()[1] != 2 {
		t.Fatalf("expected decoded bytes to match original, got %v", got.BytesValue())
	}
}

func TestMapValueToArrayFailsOnMissingKey(t *testing.T) {
	m := value.NewMap(value.String, value.Multi)
	if MapValueToArray(m, "missing") {
		t.Fatalf("expected conversion of a missing key to fail")
	}
}
