// Package cbor implements the CBOR codec by hand, translating
// original_source/src/c/data-cbor.c's holder-based encoder and its
// libcbor-backed decoder directly into Go. spec.md §4.3.3/§6.3 calls for
// the exact buffer-growth strategy and tag-transparent decoding the C
// source implements; no pack library exposes that contract against our
// own Value tagged union (DESIGN.md has the full justification), so this
// codec walks Value trees and raw CBOR bytes itself rather than going
// through a struct-tag marshaler.
package cbor

import (
	"encoding/binary"
	"fmt"
	"math"

	"iotcore/value"
)

const (
	buffSize          = 512
	buffDoublingLimit = 4096
	buffIncrement     = 1024
)

// holder is the Go analogue of iot_cbor_holder_t: a growable byte buffer
// that doubles until it passes buffDoublingLimit, then grows by fixed
// buffIncrement steps.
type holder struct {
	data []byte
}

func newHolder() *holder {
	return &holder{data: make([]byte, 0, buffSize)}
}

func (h *holder) checkSize(required int) {
	total := len(h.data) + required
	cap0 := cap(h.data)
	if cap0 >= total {
		return
	}
	inc := cap0
	if cap0 > buffDoublingLimit {
		inc = buffIncrement
	}
	if cap0+inc < total {
		inc = required
	}
	grown := make([]byte, len(h.data), cap0+inc)
	copy(grown, h.data)
	h.data = grown
}

func (h *holder) writeBytes(b []byte) {
	h.checkSize(len(b))
	h.data = append(h.data, b...)
}

func (h *holder) writeByte(b byte) {
	h.checkSize(1)
	h.data = append(h.data, b)
}

// writeUint encodes value using the CBOR major-type/additional-info rules,
// with tag added to the initial byte to select the major type (0 for
// unsigned int, 0x20 for negative int, 0x40/0x60/0x80/0xA0 for byte
// string/text string/array/map lengths).
func (h *holder) writeUint(v uint64, tag byte) {
	switch {
	case v < 0x18:
		h.writeByte(byte(v) + tag)
	case v <= math.MaxUint8:
		h.writeByte(0x18 + tag)
		h.writeByte(byte(v))
	case v <= math.MaxUint16:
		h.writeByte(0x19 + tag)
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(v))
		h.writeBytes(buf[:])
	case v <= math.MaxUint32:
		h.writeByte(0x1a + tag)
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(v))
		h.writeBytes(buf[:])
	default:
		h.writeByte(0x1b + tag)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], v)
		h.writeBytes(buf[:])
	}
}

// writeInt encodes v using CBOR's major type 1 for negatives, whose
// argument encodes -1-v rather than -v (spec.md §8 scenario 4: Int16(-501)
// must serialize as argument 500, bytes 39 01 F4).
func (h *holder) writeInt(v int64) {
	if v < 0 {
		h.writeUint(uint64(-v-1), 0x20)
	} else {
		h.writeUint(uint64(v), 0)
	}
}

// Encode serializes v into a CBOR byte string (spec.md "to_cbor").
func Encode(v *value.Value) []byte {
	h := newHolder()
	dump(h, v)
	return h.data
}

func dump(h *holder, v *value.Value) {
	if value.IsNull(v) {
		h.writeByte(0xf6)
		return
	}
	switch v.Kind() {
	case value.UInt8, value.UInt16, value.UInt32:
		h.writeUint(v.UintValue(), 0)
	case value.UInt64:
		h.writeUint(v.UintValue(), 0)
	case value.Int8, value.Int16, value.Int32, value.Int64:
		h.writeInt(v.IntValue())
	case value.Float32:
		h.writeByte(0xfa)
		h.writeBytes(binary.BigEndian.AppendUint32(nil, math.Float32bits(v.Float32Value())))
	case value.Float64:
		h.writeByte(0xfb)
		h.writeBytes(binary.BigEndian.AppendUint64(nil, math.Float64bits(v.Float64Value())))
	case value.Bool:
		if v.BoolValue() {
			h.writeByte(0xf5)
		} else {
			h.writeByte(0xf4)
		}
	case value.Pointer:
		// no CBOR representation; matches the C source's silent skip
	case value.String:
		s := v.StringValue()
		h.writeUint(uint64(len(s)), 0x60)
		h.writeBytes([]byte(s))
	case value.Binary:
		b := v.BytesValue()
		h.writeUint(uint64(len(b)), 0x40)
		h.writeBytes(b)
	case value.Array:
		dumpArray(h, v)
	case value.Vector:
		dumpVector(h, v)
	case value.List:
		dumpList(h, v)
	case value.Map:
		dumpMap(h, v)
	}
}

func dumpArray(h *holder, v *value.Value) {
	h.writeUint(uint64(v.ArrayLength()), 0x80)
	et := v.ArrayElementType()
	it := v.ArrayIterator()
	for it.HasNext() {
		e, _ := it.Next()
		dumpScalarPtr(h, &e, et)
	}
}

// dumpScalarPtr mirrors iot_data_dump_cbor_ptr, writing a bare array
// element by its declared element type rather than redispatching on
// e.Kind() (an Array's elements carry no independent kind tag).
func dumpScalarPtr(h *holder, e *value.Value, elemType value.Type) {
	switch elemType {
	case value.Int8, value.Int16, value.Int32, value.Int64:
		h.writeInt(e.IntValue())
	case value.UInt8, value.UInt16, value.UInt32, value.UInt64:
		h.writeUint(e.UintValue(), 0)
	case value.Float32:
		h.writeByte(0xfa)
		h.writeBytes(binary.BigEndian.AppendUint32(nil, math.Float32bits(e.Float32Value())))
	case value.Float64:
		h.writeByte(0xfb)
		h.writeBytes(binary.BigEndian.AppendUint64(nil, math.Float64bits(e.Float64Value())))
	case value.Bool:
		if e.BoolValue() {
			h.writeByte(0xf5)
		} else {
			h.writeByte(0xf4)
		}
	default:
		h.writeByte(0xf6)
	}
}

func dumpVector(h *holder, v *value.Value) {
	h.writeUint(uint64(v.VectorLength()), 0x80)
	for i := 0; i < v.VectorLength(); i++ {
		e := v.VectorGet(i)
		if e == nil {
			h.writeByte(0xf6)
			continue
		}
		dump(h, e)
	}
}

func dumpList(h *holder, v *value.Value) {
	h.writeUint(uint64(v.ListLength()), 0x80)
	it := v.ListIterator()
	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		dump(h, e)
	}
}

func dumpMap(h *holder, v *value.Value) {
	h.writeUint(uint64(v.MapSize()), 0xA0)
	it := v.MapIterator()
	for it.Next() {
		dump(h, it.Key())
		val := it.Value()
		if val != nil {
			dump(h, val)
		} else {
			h.writeByte(0xf6)
		}
	}
}

// Decode errors report a malformed or truncated CBOR document.
type DecodeError struct {
	Offset int
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cbor: %s at offset %d", e.Msg, e.Offset)
}

type decoder struct {
	buf []byte
	pos int
}

// Decode parses a CBOR document into a Value tree (spec.md "from_cbor").
// Maps decode with String keys (cbor_map_to_iot_data always builds a
// string-keyed map); Arrays decode as Vectors of Multi element type since
// CBOR arrays carry no uniform element-type hint.
func Decode(b []byte) (*value.Value, error) {
	d := &decoder{buf: b}
	v, err := d.parseItem()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (d *decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return &DecodeError{Offset: d.pos, Msg: "truncated document"}
	}
	return nil
}

func (d *decoder) parseItem() (*value.Value, error) {
	if err := d.need(1); err != nil {
		return nil, err
	}
	ib := d.buf[d.pos]
	major := ib >> 5
	info := ib & 0x1f
	d.pos++

	switch major {
	case 0: // unsigned int
		u, err := d.readArg(info)
		if err != nil {
			return nil, err
		}
		return uintToValue(u), nil
	case 1: // negative int
		u, err := d.readArg(info)
		if err != nil {
			return nil, err
		}
		return negintToValue(u), nil
	case 2: // byte string
		return d.parseByteString(info)
	case 3: // text string
		return d.parseTextString(info)
	case 4: // array
		return d.parseArray(info)
	case 5: // map
		return d.parseMap(info)
	case 6: // tag — transparently unwrapped (spec.md: "tags are unwrapped")
		if _, err := d.readArg(info); err != nil {
			return nil, err
		}
		return d.parseItem()
	case 7: // floats and simple values
		return d.parseFloatCtrl(info)
	default:
		return nil, &DecodeError{Offset: d.pos, Msg: "invalid major type"}
	}
}

// readArg decodes the argument that follows the 5-bit additional-info
// field: a direct small value, or a following 1/2/4/8-byte big-endian
// integer.
func (d *decoder) readArg(info byte) (uint64, error) {
	switch {
	case info < 0x18:
		return uint64(info), nil
	case info == 0x18:
		if err := d.need(1); err != nil {
			return 0, err
		}
		v := uint64(d.buf[d.pos])
		d.pos++
		return v, nil
	case info == 0x19:
		if err := d.need(2); err != nil {
			return 0, err
		}
		v := uint64(binary.BigEndian.Uint16(d.buf[d.pos:]))
		d.pos += 2
		return v, nil
	case info == 0x1a:
		if err := d.need(4); err != nil {
			return 0, err
		}
		v := uint64(binary.BigEndian.Uint32(d.buf[d.pos:]))
		d.pos += 4
		return v, nil
	case info == 0x1b:
		if err := d.need(8); err != nil {
			return 0, err
		}
		v := binary.BigEndian.Uint64(d.buf[d.pos:])
		d.pos += 8
		return v, nil
	case info == 0x1f:
		// indefinite-length marker; caller handles chunked forms
		return 0, errIndefinite
	default:
		return 0, &DecodeError{Offset: d.pos, Msg: "reserved additional info"}
	}
}

var errIndefinite = fmt.Errorf("cbor: indefinite length")

// uintToValue mirrors cbor_uint_to_iot_data: the stored width selects the
// unsigned iot_data type width, inferred here from the minimal encoding
// libcbor would have chosen.
func uintToValue(u uint64) *value.Value {
	switch {
	case u <= math.MaxUint8:
		return value.NewUInt8(uint8(u))
	case u <= math.MaxUint16:
		return value.NewUInt16(uint16(u))
	case u <= math.MaxUint32:
		return value.NewUInt32(uint32(u))
	default:
		return value.NewUInt64(u)
	}
}

// negintToValue mirrors cbor_negint_to_iot_data: CBOR negative integers
// encode -(u+1), and the original widens by one signed step (ui8 -> i16,
// ui16 -> i32, ui32/ui64 -> i64) to avoid overflow when negating.
func negintToValue(u uint64) *value.Value {
	switch {
	case u <= math.MaxUint8:
		return value.NewInt16(-1 - int16(u))
	case u <= math.MaxUint16:
		return value.NewInt32(-1 - int32(u))
	default:
		return value.NewInt64(-1 - int64(u))
	}
}

func (d *decoder) parseByteString(info byte) (*value.Value, error) {
	if info == 0x1f {
		return d.parseIndefiniteChunks(2)
	}
	n, err := d.readArg(info)
	if err != nil {
		return nil, err
	}
	if err := d.need(int(n)); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, d.buf[d.pos:d.pos+int(n)])
	d.pos += int(n)
	return value.NewBinary(b, value.TakeBuf), nil
}

func (d *decoder) parseTextString(info byte) (*value.Value, error) {
	if info == 0x1f {
		v, err := d.parseIndefiniteChunks(3)
		if err != nil {
			return nil, err
		}
		return value.NewString(string(v.BytesValue()), value.TakeBuf), nil
	}
	n, err := d.readArg(info)
	if err != nil {
		return nil, err
	}
	if err := d.need(int(n)); err != nil {
		return nil, err
	}
	s := string(d.buf[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return value.NewString(s, value.CopyBuf), nil
}

// parseIndefiniteChunks concatenates a run of definite-length chunks
// (major must match wantMajor) terminated by the 0xff break byte,
// matching cbor_indefinite_{byte,}string_to_iot_data's accumulation.
func (d *decoder) parseIndefiniteChunks(wantMajor byte) (*value.Value, error) {
	var out []byte
	for {
		if err := d.need(1); err != nil {
			return nil, err
		}
		if d.buf[d.pos] == 0xff {
			d.pos++
			break
		}
		ib := d.buf[d.pos]
		if ib>>5 != wantMajor {
			return nil, &DecodeError{Offset: d.pos, Msg: "mismatched indefinite chunk type"}
		}
		info := ib & 0x1f
		d.pos++
		n, err := d.readArg(info)
		if err != nil {
			return nil, err
		}
		if err := d.need(int(n)); err != nil {
			return nil, err
		}
		out = append(out, d.buf[d.pos:d.pos+int(n)]...)
		d.pos += int(n)
	}
	return value.NewBinary(out, value.TakeBuf), nil
}

func (d *decoder) parseArray(info byte) (*value.Value, error) {
	if info == 0x1f {
		var elems []*value.Value
		for {
			if err := d.need(1); err != nil {
				return nil, err
			}
			if d.buf[d.pos] == 0xff {
				d.pos++
				break
			}
			e, err := d.parseItem()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return buildVector(elems), nil
	}
	n, err := d.readArg(info)
	if err != nil {
		return nil, err
	}
	elems := make([]*value.Value, 0, n)
	for i := uint64(0); i < n; i++ {
		e, err := d.parseItem()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return buildVector(elems), nil
}

func buildVector(elems []*value.Value) *value.Value {
	vec := value.NewVector(len(elems), value.Multi)
	for i, e := range elems {
		vec.VectorSet(i, e)
	}
	return vec
}

func (d *decoder) parseMap(info byte) (*value.Value, error) {
	m := value.NewMap(value.String, value.Multi)
	if info == 0x1f {
		for {
			if err := d.need(1); err != nil {
				return nil, err
			}
			if d.buf[d.pos] == 0xff {
				d.pos++
				break
			}
			k, err := d.parseItem()
			if err != nil {
				return nil, err
			}
			v, err := d.parseItem()
			if err != nil {
				return nil, err
			}
			m.MapSet(k, v)
		}
		return m, nil
	}
	n, err := d.readArg(info)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		k, err := d.parseItem()
		if err != nil {
			return nil, err
		}
		v, err := d.parseItem()
		if err != nil {
			return nil, err
		}
		m.MapSet(k, v)
	}
	return m, nil
}

// parseFloatCtrl handles major type 7: simple values (false/true/null) and
// half/single/double-precision floats, mirroring
// cbor_float_ctrl_to_iot_data.
func (d *decoder) parseFloatCtrl(info byte) (*value.Value, error) {
	switch info {
	case 20:
		return value.NewBool(false), nil
	case 21:
		return value.NewBool(true), nil
	case 22:
		return value.NewNull(), nil
	case 25:
		if err := d.need(2); err != nil {
			return nil, err
		}
		bits := binary.BigEndian.Uint16(d.buf[d.pos:])
		d.pos += 2
		return value.NewFloat32(float16ToFloat32(bits)), nil
	case 26:
		if err := d.need(4); err != nil {
			return nil, err
		}
		bits := binary.BigEndian.Uint32(d.buf[d.pos:])
		d.pos += 4
		return value.NewFloat32(math.Float32frombits(bits)), nil
	case 27:
		if err := d.need(8); err != nil {
			return nil, err
		}
		bits := binary.BigEndian.Uint64(d.buf[d.pos:])
		d.pos += 8
		return value.NewFloat64(math.Float64frombits(bits)), nil
	default:
		return nil, &DecodeError{Offset: d.pos, Msg: "unsupported simple value"}
	}
}

// float16ToFloat32 expands an IEEE-754 binary16 into binary32, needed
// because the Value model has no 16-bit float kind (spec.md never adds
// one); cbor_float_get_float2 widens the same way in the original.
func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	var bits uint32
	switch {
	case exp == 0:
		if frac == 0 {
			bits = sign << 31
		} else {
			for frac&0x400 == 0 {
				frac <<= 1
				exp--
			}
			exp++
			frac &= 0x3ff
			bits = (sign << 31) | ((exp + (127 - 15)) << 23) | (frac << 13)
		}
	case exp == 0x1f:
		bits = (sign << 31) | (0xff << 23) | (frac << 13)
	default:
		bits = (sign << 31) | ((exp + (127 - 15)) << 23) | (frac << 13)
	}
	return math.Float32frombits(bits)
}
