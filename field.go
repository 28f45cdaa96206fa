package iso8583

import (
	"bytes"
	"fmt"
)

// FieldCodec packs and unpacks one field. Implementations are immutable and
// safe for concurrent use.
type FieldCodec interface {
	Pack(v Value) ([]byte, error)
	// Unpack decodes one value at src[offset:] and reports the bytes consumed.
	Unpack(src []byte, offset int) (Value, int, error)
	// MaxPackedLength bounds the bytes a packed value can occupy.
	MaxPackedLength() int
	// Length is the declared maximum (or fixed) length in data units.
	Length() int
	Description() string
}

// StringCodec is a text field: padder, interpreter and prefixer composed
// under a declared length. A nil Padder or Prefixer means none. The padder
// only applies to fixed fields.
// A StringCodec must not be modified once in use.
type StringCodec struct {
	Type        string
	MaxLength   int
	Desc        string
	Padder      Padder
	Interpreter Interpreter
	Prefixer    Prefixer
}

func (c *StringCodec) Length() int         { return c.MaxLength }
func (c *StringCodec) Description() string { return c.Desc }

func (c *StringCodec) prefixer() Prefixer {
	if c.Prefixer == nil {
		return NullPrefixer{}
	}
	return c.Prefixer
}

func (c *StringCodec) padder() Padder {
	if c.Padder == nil {
		return NullPadder{}
	}
	return c.Padder
}

func (c *StringCodec) MaxPackedLength() int {
	return c.prefixer().PackedLength() + c.Interpreter.PackedLength(c.MaxLength)
}

func (c *StringCodec) Pack(v Value) ([]byte, error) {
	s, err := textOf(v)
	if err != nil {
		return nil, err
	}
	prefixer := c.prefixer()
	if isFixed(prefixer) {
		if s, err = c.padder().Pad(s, c.MaxLength); err != nil {
			return nil, err
		}
		if len(s) != c.MaxLength {
			return nil, fmt.Errorf("%w: fixed length %d, value length %d", ErrLengthExceeded, c.MaxLength, len(s))
		}
	} else if c.MaxLength > 0 && len(s) > c.MaxLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrLengthExceeded, len(s), c.MaxLength)
	}

	plen := prefixer.PackedLength()
	out := make([]byte, plen+c.Interpreter.PackedLength(len(s)))
	if err := prefixer.EncodeLength(len(s), out); err != nil {
		return nil, err
	}
	if err := c.Interpreter.Interpret(out[plen:], s); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StringCodec) Unpack(src []byte, offset int) (Value, int, error) {
	prefixer := c.prefixer()
	n, plen, err := decodeLength(prefixer, c.MaxLength, src, offset, c.Interpreter.PackedLength)
	if err != nil {
		return Value{}, 0, err
	}
	size := c.Interpreter.PackedLength(n)
	if err := available(src, offset+plen, size); err != nil {
		return Value{}, 0, err
	}
	s, err := c.Interpreter.Uninterpret(src[offset+plen:], n)
	if err != nil {
		return Value{}, 0, err
	}
	if isFixed(prefixer) {
		s = c.padder().Unpad(s)
	}
	return Text(s), plen + size, nil
}

// BinaryCodec is a byte field: interpreter and prefixer under a declared
// length. Fixed fields shorter than the length are filled with 0x00 on the
// right.
type BinaryCodec struct {
	Type        string
	MaxLength   int
	Desc        string
	Interpreter BinaryInterpreter
	Prefixer    Prefixer
}

func (c *BinaryCodec) Length() int         { return c.MaxLength }
func (c *BinaryCodec) Description() string { return c.Desc }

func (c *BinaryCodec) prefixer() Prefixer {
	if c.Prefixer == nil {
		return NullPrefixer{}
	}
	return c.Prefixer
}

func (c *BinaryCodec) MaxPackedLength() int {
	return c.prefixer().PackedLength() + c.Interpreter.PackedLength(c.MaxLength)
}

func (c *BinaryCodec) Pack(v Value) ([]byte, error) {
	b := v.Bytes()
	if v.Kind() != KindBinary && v.Kind() != KindText {
		return nil, fmt.Errorf("%w: %s value in binary field", ErrInvalidValue, v.Kind())
	}
	if c.MaxLength > 0 && len(b) > c.MaxLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrLengthExceeded, len(b), c.MaxLength)
	}
	prefixer := c.prefixer()
	if isFixed(prefixer) && len(b) < c.MaxLength {
		filled := make([]byte, c.MaxLength)
		copy(filled, b)
		b = filled
	}

	plen := prefixer.PackedLength()
	out := make([]byte, plen+c.Interpreter.PackedLength(len(b)))
	if err := prefixer.EncodeLength(len(b), out); err != nil {
		return nil, err
	}
	if err := c.Interpreter.Interpret(out[plen:], b); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BinaryCodec) Unpack(src []byte, offset int) (Value, int, error) {
	n, plen, err := decodeLength(c.prefixer(), c.MaxLength, src, offset, c.Interpreter.PackedLength)
	if err != nil {
		return Value{}, 0, err
	}
	size := c.Interpreter.PackedLength(n)
	if err := available(src, offset+plen, size); err != nil {
		return Value{}, 0, err
	}
	b, err := c.Interpreter.Uninterpret(src[offset+plen:], n)
	if err != nil {
		return Value{}, 0, err
	}
	return Binary(b), plen + size, nil
}

// TerminatedCodec is a text field ended by a terminator byte instead of a
// length prefix, at most MaxLength characters. The interpreter must map one
// character to one byte.
type TerminatedCodec struct {
	Type        string
	MaxLength   int
	Desc        string
	Terminator  byte
	Interpreter Interpreter
}

// FieldSeparator is the usual terminator of delimited fields.
const FieldSeparator = 0x1C

func (c *TerminatedCodec) Length() int          { return c.MaxLength }
func (c *TerminatedCodec) Description() string  { return c.Desc }
func (c *TerminatedCodec) MaxPackedLength() int { return c.MaxLength + 1 }

func (c *TerminatedCodec) Pack(v Value) ([]byte, error) {
	s, err := textOf(v)
	if err != nil {
		return nil, err
	}
	if len(s) > c.MaxLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrLengthExceeded, len(s), c.MaxLength)
	}
	out := make([]byte, len(s)+1)
	if err := c.Interpreter.Interpret(out, s); err != nil {
		return nil, err
	}
	if i := bytes.IndexByte(out[:len(s)], c.Terminator); i >= 0 {
		return nil, fmt.Errorf("%w: terminator %02X at position %d", ErrInvalidValue, c.Terminator, i)
	}
	out[len(s)] = c.Terminator
	return out, nil
}

func (c *TerminatedCodec) Unpack(src []byte, offset int) (Value, int, error) {
	limit := offset + c.MaxLength + 1
	if limit > len(src) {
		limit = len(src)
	}
	for i := offset; i < limit; i++ {
		if src[i] != c.Terminator {
			continue
		}
		s, err := c.Interpreter.Uninterpret(src[offset:i], i-offset)
		if err != nil {
			return Value{}, 0, err
		}
		return Text(s), i - offset + 1, nil
	}
	return Value{}, 0, fmt.Errorf("%w: no %02X within %d bytes at offset %d", ErrMissingTerminator, c.Terminator, c.MaxLength+1, offset)
}

// BitmapCodec carries the presence bitmap of a message packager.
type BitmapCodec struct {
	Type     string
	Desc     string
	Encoding BitmapEncoding
}

func (c *BitmapCodec) Length() int         { return BitmapSize + SecondaryBitmapSize }
func (c *BitmapCodec) Description() string { return c.Desc }

func (c *BitmapCodec) MaxPackedLength() int {
	bm := Bitmap{hasSecondary: true}
	return bm.PackedSize(c.Encoding)
}

// PackBitmap encodes bm.
func (c *BitmapCodec) PackBitmap(bm *Bitmap) ([]byte, error) {
	out := make([]byte, bm.PackedSize(c.Encoding))
	if _, err := bm.PackBitmap(out, c.Encoding); err != nil {
		return nil, err
	}
	return out, nil
}

// UnpackBitmap decodes a bitmap at src[offset:].
func (c *BitmapCodec) UnpackBitmap(src []byte, offset int) (*Bitmap, int, error) {
	if offset > len(src) {
		return nil, 0, fmt.Errorf("%w: offset %d beyond %d bytes", ErrInsufficientData, offset, len(src))
	}
	bm := &Bitmap{}
	n, err := bm.UnpackBitmap(src[offset:], c.Encoding)
	if err != nil {
		return nil, 0, err
	}
	return bm, n, nil
}

// Pack encodes a binary value holding 8 or 16 raw bitmap bytes.
func (c *BitmapCodec) Pack(v Value) ([]byte, error) {
	raw := v.Bytes()
	if len(raw) != BitmapSize && len(raw) != BitmapSize+SecondaryBitmapSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidBitmap, len(raw))
	}
	bm := &Bitmap{}
	if _, err := bm.UnpackBitmap(raw, BitmapEncodingBinary); err != nil {
		return nil, err
	}
	return c.PackBitmap(bm)
}

func (c *BitmapCodec) Unpack(src []byte, offset int) (Value, int, error) {
	bm, n, err := c.UnpackBitmap(src, offset)
	if err != nil {
		return Value{}, 0, err
	}
	return Binary(bm.Bytes()), n, nil
}

func textOf(v Value) (string, error) {
	switch v.Kind() {
	case KindText, KindBinary:
		return string(v.Bytes()), nil
	}
	return "", fmt.Errorf("%w: %s value in text field", ErrInvalidValue, v.Kind())
}

func isFixed(p Prefixer) bool {
	_, ok := p.(NullPrefixer)
	return ok
}

// decodeLength resolves the data unit count of a field and the prefix width.
func decodeLength(p Prefixer, max int, src []byte, offset int, packed func(int) int) (n, plen int, err error) {
	if offset > len(src) {
		return 0, 0, fmt.Errorf("%w: offset %d beyond %d bytes", ErrInsufficientData, offset, len(src))
	}
	n, err = p.DecodeLength(src, offset)
	if err != nil {
		return 0, 0, err
	}
	plen = p.PackedLength()
	switch n {
	case LengthFixed:
		n = max
	case LengthRemainder:
		n = unitsFor(len(src)-offset-plen, packed)
		if max > 0 && n > max {
			return 0, 0, fmt.Errorf("%w: %d remaining > %d", ErrLengthExceeded, n, max)
		}
	default:
		if max > 0 && n > max {
			return 0, 0, fmt.Errorf("%w: prefix says %d, max %d", ErrLengthExceeded, n, max)
		}
	}
	return n, plen, nil
}

// unitsFor returns the largest data unit count whose packed size fits in
// size bytes.
func unitsFor(size int, packed func(int) int) int {
	n := size
	for packed(n+1) <= size {
		n++
	}
	for n > 0 && packed(n) > size {
		n--
	}
	return n
}

func available(src []byte, offset, size int) error {
	if len(src) < offset+size {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrInsufficientData, size, offset, len(src)-offset)
	}
	return nil
}
