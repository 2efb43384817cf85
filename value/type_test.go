package value

import "testing"

func TestParseTypeRoundTripsTypeString(t *testing.T) {
	for _, ty := range []Type{Int8, UInt32, Float64, Bool, String, Binary, Array, Vector, List, Map, Multi} {
		got, ok := ParseType(ty.String())
		if !ok {
			t.Fatalf("ParseType(%q) reported unknown", ty.String())
		}
		if got != ty {
			t.Fatalf("ParseType(%q) = %v, want %v", ty.String(), got, ty)
		}
	}
}

func TestParseTypeRejectsUnknownName(t *testing.T) {
	if _, ok := ParseType("NotAType"); ok {
		t.Fatalf("expected ParseType to reject an unknown name")
	}
}
