package iso8583

import "fmt"

const (
	// LengthFixed is returned by DecodeLength when the field has no prefix
	// and its declared length applies.
	LengthFixed = -1
	// LengthRemainder is returned by DecodeLength when the field takes every
	// remaining byte of the buffer.
	LengthRemainder = -2
)

// Prefixer encodes a field's length in front of its value.
type Prefixer interface {
	// EncodeLength writes n into dst, which holds PackedLength() bytes.
	EncodeLength(n int, dst []byte) error
	// DecodeLength reads the length at src[offset:].
	DecodeLength(src []byte, offset int) (int, error)
	// PackedLength is the prefix width in bytes.
	PackedLength() int
}

// NullPrefixer is the prefixer of fixed-length fields.
type NullPrefixer struct{}

func (NullPrefixer) EncodeLength(int, []byte) error { return nil }

func (NullPrefixer) DecodeLength([]byte, int) (int, error) { return LengthFixed, nil }

func (NullPrefixer) PackedLength() int { return 0 }

// RemainderPrefixer has no width and makes the field consume the rest of
// the buffer. Only meaningful for the last field of a message.
type RemainderPrefixer struct{}

func (RemainderPrefixer) EncodeLength(int, []byte) error { return nil }

func (RemainderPrefixer) DecodeLength([]byte, int) (int, error) { return LengthRemainder, nil }

func (RemainderPrefixer) PackedLength() int { return 0 }

// ASCIIPrefixer writes the length as Digits decimal ASCII characters
// ("LL", "LLL", ...).
type ASCIIPrefixer struct {
	Digits int
}

var (
	LL   = ASCIIPrefixer{Digits: 2}
	LLL  = ASCIIPrefixer{Digits: 3}
	LLLL = ASCIIPrefixer{Digits: 4}
)

func (p ASCIIPrefixer) EncodeLength(n int, dst []byte) error {
	if n < 0 || n >= pow10(p.Digits) {
		return fmt.Errorf("%w: length %d does not fit %d digits", ErrLengthExceeded, n, p.Digits)
	}
	for i := p.Digits - 1; i >= 0; i-- {
		dst[i] = byte('0' + n%10)
		n /= 10
	}
	return nil
}

func (p ASCIIPrefixer) DecodeLength(src []byte, offset int) (int, error) {
	if len(src) < offset+p.Digits {
		return 0, fmt.Errorf("%w: length prefix needs %d bytes, have %d", ErrInsufficientData, p.Digits, len(src)-offset)
	}
	n := 0
	for i := 0; i < p.Digits; i++ {
		c := src[offset+i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: non-digit %q in length prefix", ErrInvalidEncoding, c)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func (p ASCIIPrefixer) PackedLength() int { return p.Digits }

// EBCDICPrefixer writes the length as Digits decimal EBCDIC characters.
type EBCDICPrefixer struct {
	Digits int
}

func (p EBCDICPrefixer) EncodeLength(n int, dst []byte) error {
	if err := (ASCIIPrefixer{Digits: p.Digits}).EncodeLength(n, dst); err != nil {
		return err
	}
	return asciiToEBCDIC(dst[:p.Digits], dst[:p.Digits])
}

func (p EBCDICPrefixer) DecodeLength(src []byte, offset int) (int, error) {
	if len(src) < offset+p.Digits {
		return 0, fmt.Errorf("%w: length prefix needs %d bytes, have %d", ErrInsufficientData, p.Digits, len(src)-offset)
	}
	ascii := make([]byte, p.Digits)
	if err := ebcdicToASCII(ascii, src[offset:offset+p.Digits]); err != nil {
		return 0, err
	}
	return ASCIIPrefixer{Digits: p.Digits}.DecodeLength(ascii, 0)
}

func (p EBCDICPrefixer) PackedLength() int { return p.Digits }

// BCDPrefixer writes the length as Digits packed decimal digits, left
// padded with a zero nibble when Digits is odd.
type BCDPrefixer struct {
	Digits int
}

func (p BCDPrefixer) EncodeLength(n int, dst []byte) error {
	if n < 0 || n >= pow10(p.Digits) {
		return fmt.Errorf("%w: length %d does not fit %d digits", ErrLengthExceeded, n, p.Digits)
	}
	for i := p.PackedLength() - 1; i >= 0; i-- {
		lo := n % 10
		n /= 10
		hi := n % 10
		n /= 10
		dst[i] = byte(hi<<4 | lo)
	}
	return nil
}

func (p BCDPrefixer) DecodeLength(src []byte, offset int) (int, error) {
	w := p.PackedLength()
	if len(src) < offset+w {
		return 0, fmt.Errorf("%w: length prefix needs %d bytes, have %d", ErrInsufficientData, w, len(src)-offset)
	}
	n := 0
	for i := 0; i < w; i++ {
		b := src[offset+i]
		hi, lo := int(b>>4), int(b&0x0F)
		if hi > 9 || lo > 9 {
			return 0, fmt.Errorf("%w: byte %02X in BCD length prefix", ErrInvalidEncoding, b)
		}
		n = n*100 + hi*10 + lo
	}
	return n, nil
}

func (p BCDPrefixer) PackedLength() int { return (p.Digits + 1) / 2 }

// BinaryPrefixer writes the length as a big-endian unsigned integer of
// Bytes bytes.
type BinaryPrefixer struct {
	Bytes int
}

func (p BinaryPrefixer) EncodeLength(n int, dst []byte) error {
	if n < 0 || (p.Bytes < 8 && n >= 1<<(8*p.Bytes)) {
		return fmt.Errorf("%w: length %d does not fit %d bytes", ErrLengthExceeded, n, p.Bytes)
	}
	for i := p.Bytes - 1; i >= 0; i-- {
		dst[i] = byte(n)
		n >>= 8
	}
	return nil
}

func (p BinaryPrefixer) DecodeLength(src []byte, offset int) (int, error) {
	if len(src) < offset+p.Bytes {
		return 0, fmt.Errorf("%w: length prefix needs %d bytes, have %d", ErrInsufficientData, p.Bytes, len(src)-offset)
	}
	n := 0
	for i := 0; i < p.Bytes; i++ {
		n = n<<8 | int(src[offset+i])
	}
	return n, nil
}

func (p BinaryPrefixer) PackedLength() int { return p.Bytes }

// HexPrefixer writes the length as Digits upper-case ASCII hex characters.
type HexPrefixer struct {
	Digits int
}

func (p HexPrefixer) EncodeLength(n int, dst []byte) error {
	if n < 0 || (p.Digits < 16 && n >= 1<<(4*p.Digits)) {
		return fmt.Errorf("%w: length %d does not fit %d hex digits", ErrLengthExceeded, n, p.Digits)
	}
	for i := p.Digits - 1; i >= 0; i-- {
		dst[i] = hexTableUpper[n&0x0F]
		n >>= 4
	}
	return nil
}

func (p HexPrefixer) DecodeLength(src []byte, offset int) (int, error) {
	if len(src) < offset+p.Digits {
		return 0, fmt.Errorf("%w: length prefix needs %d bytes, have %d", ErrInsufficientData, p.Digits, len(src)-offset)
	}
	n := 0
	for i := 0; i < p.Digits; i++ {
		nib, ok := hexNibble(src[offset+i])
		if !ok {
			return 0, fmt.Errorf("%w: non-hex %q in length prefix", ErrInvalidEncoding, src[offset+i])
		}
		n = n<<4 | int(nib)
	}
	return n, nil
}

func (p HexPrefixer) PackedLength() int { return p.Digits }
