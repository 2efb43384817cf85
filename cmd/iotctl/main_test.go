package main

import (
	"strings"
	"testing"

	"iotcore/value"
)

func TestEncodeWithJSONRoundTripsThroughDecodeWith(t *testing.T) {
	v, err := value.Parse("-2222222", value.Int32)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := encodeWith("json", v)
	if err != nil {
		t.Fatalf("encodeWith: %v", err)
	}
	if out != "-2222222" {
		t.Fatalf("expected -2222222, got %s", out)
	}

	decoded, err := decodeWith("json", out)
	if err != nil {
		t.Fatalf("decodeWith: %v", err)
	}
	if decoded.Kind() != value.Int64 || decoded.IntValue() != -2222222 {
		t.Fatalf("expected widened Int64(-2222222), got %v %v", decoded.Kind(), decoded.IntValue())
	}
}

func TestEncodeWithUnknownCodecReturnsError(t *testing.T) {
	if _, err := encodeWith("protobuf", value.NewNull()); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}

func TestDecodeWithBase64RoundTrips(t *testing.T) {
	v, err := value.Parse("hello", value.String)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	encoded, err := encodeWith("base64", v)
	if err != nil {
		t.Fatalf("encodeWith: %v", err)
	}
	decoded, err := decodeWith("base64", encoded)
	if err != nil {
		t.Fatalf("decodeWith: %v", err)
	}
	if decoded.Kind() != value.Binary {
		t.Fatalf("expected Binary, got %v", decoded.Kind())
	}
}

func TestDescribeFormatsScalars(t *testing.T) {
	if got := describe(value.NewBool(true)); got != "true" {
		t.Fatalf("expected true, got %s", got)
	}
	if got := describe(value.NewString("hi", value.CopyBuf)); got != "hi" {
		t.Fatalf("expected hi, got %s", got)
	}
	if got := describe(value.NewInt32(7)); !strings.Contains(got, "7") {
		t.Fatalf("expected 7 in %s", got)
	}
}
