package value

import (
	"math"
	"strconv"
)

// Cast converts v to a new Value of type t, reporting false (and nil) if the
// conversion is not defined (spec.md §4.1 "Numeric casting rules"). Integer→
// integer succeeds iff the source value lies within the target's range;
// any integer or float fits Float32/Float64 subject to range; Bool
// converts both ways with 0/1; String parses to/from numeric and Bool.
// Non-numeric sources (Null, Pointer, containers) always fail to cast to a
// different kind.
func Cast(v *Value, t Type) (*Value, bool) {
	if v == nil {
		return nil, false
	}
	if v.kind == t {
		return v, true
	}
	if v.kind == Bool && t.IsNumeric() {
		return castNumeric(&Value{kind: Int64, i64: v.i64}, t)
	}
	if v.kind.IsNumeric() && t == Bool {
		return NewBool(v.i64 != 0 || v.f64 != 0), true
	}
	if v.kind.IsNumeric() && t.IsNumeric() {
		return castNumeric(v, t)
	}
	if v.kind == String && t.IsNumeric() {
		return parseNumeric(v.str, t)
	}
	if v.kind.IsNumeric() && t == String {
		return NewString(formatNumeric(v), CopyBuf), true
	}
	if v.kind == Bool && t == String {
		if v.BoolValue() {
			return NewString("true", CopyBuf), true
		}
		return NewString("false", CopyBuf), true
	}
	if v.kind == String && t == Bool {
		switch v.str {
		case "true", "1":
			return NewBool(true), true
		case "false", "0":
			return NewBool(false), true
		default:
			return nil, false
		}
	}
	return nil, false
}

// intRange reports the representable [min, max] for integer type t as
// float64 (wide enough to hold int64/uint64 bounds exactly at the
// granularity this range check needs).
func intRange(t Type) (min, max float64, ok bool) {
	switch t {
	case Int8:
		return math.MinInt8, math.MaxInt8, true
	case UInt8:
		return 0, math.MaxUint8, true
	case Int16:
		return math.MinInt16, math.MaxInt16, true
	case UInt16:
		return 0, math.MaxUint16, true
	case Int32:
		return math.MinInt32, math.MaxInt32, true
	case UInt32:
		return 0, math.MaxUint32, true
	case Int64:
		return math.MinInt64, math.MaxInt64, true
	case UInt64:
		return 0, math.MaxUint64, true
	default:
		return 0, 0, false
	}
}

func castNumeric(v *Value, t Type) (*Value, bool) {
	if t == Float32 || t == Float64 {
		f := numericOf(v)
		if t == Float32 {
			if f > math.MaxFloat32 || f < -math.MaxFloat32 {
				return nil, false
			}
			return NewFloat32(float32(f)), true
		}
		return NewFloat64(f), true
	}

	min, max, _ := intRange(t)
	var f float64
	var i int64
	isFloatSrc := v.kind == Float32 || v.kind == Float64
	if isFloatSrc {
		f = v.f64
		if v.kind == Float32 {
			f = float64(v.Float32Value())
		}
		if f < min || f > max {
			return nil, false
		}
		i = int64(f)
	} else {
		if v.kind == UInt64 {
			u := v.UintValue()
			if float64(u) > max {
				return nil, false
			}
		} else {
			f = float64(v.i64)
			if f < min || f > max {
				return nil, false
			}
		}
		i = v.i64
	}

	switch t {
	case Int8:
		return NewInt8(int8(i)), true
	case UInt8:
		return NewUInt8(uint8(i)), true
	case Int16:
		return NewInt16(int16(i)), true
	case UInt16:
		return NewUInt16(uint16(i)), true
	case Int32:
		return NewInt32(int32(i)), true
	case UInt32:
		return NewUInt32(uint32(i)), true
	case Int64:
		return NewInt64(i), true
	case UInt64:
		if v.kind == UInt64 {
			return NewUInt64(v.UintValue()), true
		}
		return NewUInt64(uint64(i)), true
	default:
		return nil, false
	}
}

func formatNumeric(v *Value) string {
	switch v.kind {
	case Float32:
		return strconv.FormatFloat(float64(v.Float32Value()), 'g', -1, 32)
	case Float64:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case UInt64:
		return strconv.FormatUint(v.UintValue(), 10)
	default:
		return strconv.FormatInt(v.i64, 10)
	}
}

func parseNumeric(s string, t Type) (*Value, bool) {
	if t == Float32 || t == Float64 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		if t == Float32 {
			if f > math.MaxFloat32 || f < -math.MaxFloat32 {
				return nil, false
			}
			return NewFloat32(float32(f)), true
		}
		return NewFloat64(f), true
	}
	if t == UInt64 {
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, false
		}
		return NewUInt64(u), true
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return castNumeric(&Value{kind: Int64, i64: i}, t)
}

// Increment returns a new numeric Value one greater than v (spec.md §4.1
// "Increment/Decrement"). Non-numeric kinds return v unchanged.
func Increment(v *Value) *Value {
	if !v.kind.IsNumeric() {
		return v
	}
	if v.kind == Float32 {
		return NewFloat32(v.Float32Value() + 1)
	}
	if v.kind == Float64 {
		return NewFloat64(v.f64 + 1)
	}
	r, _ := castNumeric(&Value{kind: Int64, i64: v.i64 + 1}, v.kind)
	return r
}

// Decrement returns a new numeric Value one less than v.
func Decrement(v *Value) *Value {
	if !v.kind.IsNumeric() {
		return v
	}
	if v.kind == Float32 {
		return NewFloat32(v.Float32Value() - 1)
	}
	if v.kind == Float64 {
		return NewFloat64(v.f64 - 1)
	}
	r, _ := castNumeric(&Value{kind: Int64, i64: v.i64 - 1}, v.kind)
	return r
}
