package json

import (
	"math"
	"strconv"
	"strings"

	"iotcore/codec/base64"
	"iotcore/value"
)

// Encode serializes v into a JSON document (spec.md §4.3.1's "to_json").
// Map keys are emitted in ordering-metadata order when present; non-String
// map keys are wrapped in quotes. Binaries are emitted as base64 strings —
// decoding that representation back into a Binary is not automatic; the
// caller must apply the explicit base64-to-array conversion at a known key
// (spec.md: "Binaries do not round-trip automatically").
func Encode(v *value.Value) (string, error) {
	var b strings.Builder
	if err := encodeValue(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encodeValue(b *strings.Builder, v *value.Value) error {
	if value.IsNull(v) {
		b.WriteString("null")
		return nil
	}
	switch v.Kind() {
	case value.Bool:
		if v.BoolValue() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case value.Int8, value.Int16, value.Int32, value.Int64:
		b.WriteString(strconv.FormatInt(v.IntValue(), 10))
	case value.UInt8, value.UInt16, value.UInt32:
		b.WriteString(strconv.FormatInt(v.IntValue(), 10))
	case value.UInt64:
		b.WriteString(strconv.FormatUint(v.UintValue(), 10))
	case value.Float32:
		encodeFloat(b, float64(v.Float32Value()), 8)
	case value.Float64:
		encodeFloat(b, v.Float64Value(), 16)
	case value.String:
		encodeString(b, v.StringValue())
	case value.Binary:
		encodeString(b, base64.Encode(v.BytesValue()))
	case value.Array:
		return encodeArray(b, v)
	case value.Vector:
		return encodeVector(b, v)
	case value.List:
		return encodeList(b, v)
	case value.Map:
		return encodeMap(b, v)
	default:
		b.WriteString("null")
	}
	return nil
}

// encodeFloat follows spec.md's "%.8e"/"%.16e" formatting, with the
// engineering convention of encoding +Inf as 1e400 and -Inf as -1e400.
func encodeFloat(b *strings.Builder, f float64, precision int) {
	if math.IsInf(f, 1) {
		b.WriteString("1e400")
		return
	}
	if math.IsInf(f, -1) {
		b.WriteString("-1e400")
		return
	}
	if math.IsNaN(f) {
		b.WriteString("null")
		return
	}
	b.WriteString(strconv.FormatFloat(f, 'e', precision, 64))
}

func encodeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}

func encodeArray(b *strings.Builder, v *value.Value) error {
	b.WriteByte('[')
	it := v.ArrayIterator()
	first := true
	for it.HasNext() {
		e, _ := it.Next()
		if !first {
			b.WriteByte(',')
		}
		first = false
		if err := encodeValue(b, &e); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

func encodeVector(b *strings.Builder, v *value.Value) error {
	b.WriteByte('[')
	for i := 0; i < v.VectorLength(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		e := v.VectorGet(i)
		if e == nil {
			b.WriteString("null")
			continue
		}
		if err := encodeValue(b, e); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

func encodeList(b *strings.Builder, v *value.Value) error {
	b.WriteByte('[')
	it := v.ListIterator()
	first := true
	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		if err := encodeValue(b, e); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

func encodeMap(b *strings.Builder, v *value.Value) error {
	b.WriteByte('{')
	keys := value.OrderedKeys(v)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		if k.Kind() == value.String {
			encodeString(b, k.StringValue())
		} else {
			var kb strings.Builder
			if err := encodeValue(&kb, k); err != nil {
				return err
			}
			encodeString(b, kb.String())
		}
		b.WriteByte(':')
		val := v.MapGet(k)
		if err := encodeValue(b, val); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}
