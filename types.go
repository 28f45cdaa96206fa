package iso8583

import (
	"bytes"
	"encoding/hex"
	"log/slog"
	"strings"
)

// Kind identifies which member of a Value is set.
type Kind int

const (
	KindNone Kind = iota
	KindText
	KindBinary
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindComposite:
		return "composite"
	default:
		return "none"
	}
}

// Value is the logical content of one field: text, raw bytes or a nested
// field set. The zero Value is absent.
type Value struct {
	kind Kind
	text string
	raw  []byte
	set  *FieldSet
}

// Text makes a text value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Binary makes a binary value. The slice is not copied.
func Binary(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{kind: KindBinary, raw: b}
}

// Composite makes a value holding a nested field set.
func Composite(fs *FieldSet) Value {
	return Value{kind: KindComposite, set: fs}
}

func (v Value) Kind() Kind {
	return v.kind
}

// IsZero reports whether the value is absent.
func (v Value) IsZero() bool {
	return v.kind == KindNone
}

// String returns text values verbatim, binary values as upper-case hex and
// composites as a bracketed dump.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindBinary:
		return strings.ToUpper(hex.EncodeToString(v.raw))
	case KindComposite:
		if v.set == nil {
			return "[]"
		}
		return v.set.String()
	}
	return ""
}

// Bytes returns binary values as is and text values as their bytes.
// Composite values return nil.
func (v Value) Bytes() []byte {
	switch v.kind {
	case KindBinary:
		return v.raw
	case KindText:
		return []byte(v.text)
	}
	return nil
}

// FieldSet returns the nested set of a composite value, nil otherwise.
func (v Value) FieldSet() *FieldSet {
	if v.kind != KindComposite {
		return nil
	}
	return v.set
}

// Equal compares kind and content, recursing into composites.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindBinary:
		return bytes.Equal(v.raw, o.raw)
	case KindComposite:
		return v.set.Equal(o.set)
	}
	return true
}

func (v Value) clone() Value {
	switch v.kind {
	case KindBinary:
		return Binary(append([]byte{}, v.raw...))
	case KindComposite:
		return Composite(v.set.Clone())
	}
	return v
}

// LogValue implements the slog.LogValuer interface.
func (v Value) LogValue() slog.Value {
	if v.kind == KindComposite && v.set != nil {
		return v.set.LogValue()
	}
	return slog.StringValue(v.String())
}
