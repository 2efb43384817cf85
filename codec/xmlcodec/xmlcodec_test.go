package xmlcodec

import (
	"strings"
	"testing"

	"iotcore/value"
)

func TestDecodeSimpleElement(t *testing.T) {
	v, err := Decode(`<reading unit="C">21.5</reading>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.StringMapGet("name").StringValue() != "reading" {
		t.Fatalf("unexpected name: %v", v.StringMapGet("name"))
	}
	attrs := v.StringMapGet("attributes")
	if attrs.StringMapGet("unit").StringValue() != "C" {
		t.Fatalf("expected unit attribute, got %v", attrs)
	}
	if v.StringMapGet("content").StringValue() != "21.5" {
		t.Fatalf("expected content 21.5, got %v", v.StringMapGet("content"))
	}
}

func TestDecodeNestedChildren(t *testing.T) {
	v, err := Decode(`<device><sensor id="1"/><sensor id="2"/></device>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	children := v.StringMapGet("children")
	if children == nil || children.VectorLength() != 2 {
		t.Fatalf("expected 2 children, got %v", children)
	}
	first := children.VectorGet(0)
	if first.StringMapGet("attributes").StringMapGet("id").StringValue() != "1" {
		t.Fatalf("unexpected first child: %v", first)
	}
}

func TestDecodeMalformedReturnsError(t *testing.T) {
	if _, err := Decode(`<unclosed>`); err == nil {
		t.Fatalf("expected malformed XML to error")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	m := value.NewMap(value.String, value.Multi)
	m.MapSet(value.NewStaticString("name").AddRef(), value.NewString("reading", value.CopyBuf))
	attrs := value.NewMap(value.String, value.Multi)
	attrs.MapSet(value.NewString("unit", value.CopyBuf), value.NewString("C", value.CopyBuf))
	m.MapSet(value.NewStaticString("attributes").AddRef(), attrs)
	m.MapSet(value.NewStaticString("content").AddRef(), value.NewString("21.5", value.CopyBuf))

	out, err := Encode(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `unit="C"`) || !strings.Contains(out, ">21.5<") {
		t.Fatalf("unexpected encoding: %s", out)
	}

	decoded, err := Decode(out)
	if err != nil {
		t.Fatalf("unexpected decode error on re-parse: %v", err)
	}
	if decoded.StringMapGet("content").StringValue() != "21.5" {
		t.Fatalf("roundtrip mismatch: %v", decoded.StringMapGet("content"))
	}
}
