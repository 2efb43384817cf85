// Package xmlcodec translates an XML document into the nested
// Map{name, attributes, children?, content?} shape built by
// original_source/src/c/data-xml.c's yxml-driven recursive descent.
// Decoding drives the standard library's encoding/xml token stream
// (Decoder.Token) rather than its struct-tag Unmarshal API, since the
// target shape is a generic Value tree, not a fixed Go struct.
package xmlcodec

import (
	"encoding/xml"
	"fmt"
	"strings"

	"iotcore/value"
)

// DecodeError reports a malformed XML document.
type DecodeError struct {
	Msg string
}

func (e *DecodeError) Error() string { return fmt.Sprintf("xmlcodec: %s", e.Msg) }

// Decode parses the root element of s into a Map{name, attributes,
// children?, content?} tree (spec.md "from_xml"). Only the first element
// encountered is returned, mirroring the original's "root" parameter.
func Decode(s string) (*value.Value, error) {
	dec := xml.NewDecoder(strings.NewReader(s))
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, &DecodeError{Msg: err.Error()}
		}
		if start, ok := tok.(xml.StartElement); ok {
			return decodeElement(dec, start)
		}
	}
}

// decodeElement builds one Map from start through its matching EndElement,
// recursing into child elements and accumulating character data into
// "content" the way YXML_CONTENT/YXML_ATTRVAL tokens do in the original.
func decodeElement(dec *xml.Decoder, start xml.StartElement) (*value.Value, error) {
	elem := value.NewMap(value.String, value.Multi)
	elem.MapSet(value.NewStaticString("name").AddRef(), value.NewString(start.Name.Local, value.CopyBuf))

	attrs := value.NewMap(value.String, value.Multi)
	for _, a := range start.Attr {
		attrs.MapSet(value.NewString(a.Name.Local, value.CopyBuf), value.NewString(a.Value, value.CopyBuf))
	}
	elem.MapSet(value.NewStaticString("attributes").AddRef(), attrs)

	var children []*value.Value
	var content strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			elem.Free()
			return nil, &DecodeError{Msg: err.Error()}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				elem.Free()
				return nil, err
			}
			children = append(children, child)
		case xml.CharData:
			content.Write(t)
		case xml.EndElement:
			if len(children) > 0 {
				vec := value.NewVector(len(children), value.Multi)
				for i, c := range children {
					vec.VectorSet(i, c)
				}
				elem.MapSet(value.NewStaticString("children").AddRef(), vec)
			}
			if text := strings.TrimSpace(content.String()); text != "" {
				elem.MapSet(value.NewStaticString("content").AddRef(), value.NewString(text, value.CopyBuf))
			}
			return elem, nil
		}
	}
}

// Encode renders a Map built as Decode would produce it back into an XML
// element (spec.md "to_xml"'s structural inverse).
func Encode(v *value.Value) (string, error) {
	var b strings.Builder
	if err := encodeElement(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encodeElement(b *strings.Builder, v *value.Value) error {
	if v == nil || v.Kind() != value.Map {
		return &DecodeError{Msg: "element must be a Map{name, attributes, ...}"}
	}
	name := v.StringMapGet("name")
	if name == nil {
		return &DecodeError{Msg: "element missing \"name\""}
	}
	b.WriteByte('<')
	b.WriteString(name.StringValue())

	if attrs := v.StringMapGet("attributes"); attrs != nil {
		it := attrs.MapIterator()
		for it.Next() {
			fmt.Fprintf(b, ` %s="%s"`, it.Key().StringValue(), xmlEscape(it.Value().StringValue()))
		}
	}
	b.WriteByte('>')

	if children := v.StringMapGet("children"); children != nil {
		for i := 0; i < children.VectorLength(); i++ {
			if err := encodeElement(b, children.VectorGet(i)); err != nil {
				return err
			}
		}
	}
	if content := v.StringMapGet("content"); content != nil {
		b.WriteString(xmlEscape(content.StringValue()))
	}

	b.WriteString("</")
	b.WriteString(name.StringValue())
	b.WriteByte('>')
	return nil
}

func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
