package value

import "fmt"

// Parse converts a string into a Value of type t, mirroring the original's
// iot_data_from_string (spec.md §D.5): config and CLI layers receive
// everything as strings and need a typed-parse convenience rather than
// threading a Cast through a throwaway String value.
func Parse(s string, t Type) (*Value, error) {
	switch t {
	case String:
		return NewString(s, CopyBuf), nil
	case Bool:
		switch s {
		case "true", "1":
			return NewBool(true), nil
		case "false", "0":
			return NewBool(false), nil
		default:
			return nil, fmt.Errorf("value: cannot parse %q as Bool", s)
		}
	case Null:
		return NewNull(), nil
	case Binary:
		return NewBinary([]byte(s), CopyBuf), nil
	default:
		if !t.IsNumeric() {
			return nil, fmt.Errorf("value: Parse does not support %s", t)
		}
		v, ok := parseNumeric(s, t)
		if !ok {
			return nil, fmt.Errorf("value: cannot parse %q as %s", s, t)
		}
		return v, nil
	}
}
