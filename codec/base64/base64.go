// Package base64 implements spec.md §4.3.2/§6.3: the standard RFC 4648
// alphabet with '=' padding. Encode/Decode operate on raw buffers;
// MapValueToArray converts a String value at a known map key into a
// Binary in place, the helper the JSON codec relies on for Binary
// round-tripping (spec.md §4.3.1: "decode requires the explicit
// map_base64_to_array helper on a known key").
package base64

import (
	"encoding/base64"

	"iotcore/value"
)

// Encode returns the standard base64 (with padding) encoding of b.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Decode parses standard base64 (with padding) text back into bytes.
func Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// MapValueToArray replaces the String value at key in m with the Binary
// decoded from it, returning false (leaving m unchanged) if the key is
// absent, not a String, or not valid base64.
func MapValueToArray(m *value.Value, key string) bool {
	existing := m.StringMapGet(key)
	if existing == nil || existing.Kind() != value.String {
		return false
	}
	decoded, err := Decode(existing.StringValue())
	if err != nil {
		return false
	}
	m.MapSet(value.NewStaticString(key).AddRef(), value.NewBinary(decoded, value.TakeBuf))
	return true
}
