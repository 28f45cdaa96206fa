package iso8583

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// Interpreter converts a text value to and from its raw encoding.
// n counts data units (characters or digits), not bytes.
type Interpreter interface {
	// Interpret writes value into dst, which holds PackedLength(len(value)) bytes.
	Interpret(dst []byte, value string) error
	// Uninterpret decodes n data units from the start of src.
	Uninterpret(src []byte, n int) (string, error)
	// PackedLength returns the raw size of n data units.
	PackedLength(n int) int
}

// BinaryInterpreter converts a binary value to and from its raw encoding.
type BinaryInterpreter interface {
	Interpret(dst []byte, value []byte) error
	Uninterpret(src []byte, n int) ([]byte, error)
	PackedLength(n int) int
}

// ASCIIInterpreter copies characters verbatim, one byte each.
type ASCIIInterpreter struct{}

func (ASCIIInterpreter) Interpret(dst []byte, value string) error {
	copy(dst, value)
	return nil
}

func (ASCIIInterpreter) Uninterpret(src []byte, n int) (string, error) {
	return string(src[:n]), nil
}

func (ASCIIInterpreter) PackedLength(n int) int {
	return n
}

// EBCDICInterpreter translates characters through code page 037.
type EBCDICInterpreter struct{}

func (EBCDICInterpreter) Interpret(dst []byte, value string) error {
	return asciiToEBCDIC(dst, []byte(value))
}

func (EBCDICInterpreter) Uninterpret(src []byte, n int) (string, error) {
	out := make([]byte, n)
	if err := ebcdicToASCII(out, src[:n]); err != nil {
		return "", err
	}
	return string(out), nil
}

func (EBCDICInterpreter) PackedLength(n int) int {
	return n
}

// BCDInterpreter packs decimal digits two per byte. An odd digit count gets
// one pad nibble, on the left when LeftPadded is set and on the right
// otherwise. 'D' (or '=') is accepted as the track 2 separator nibble.
type BCDInterpreter struct {
	LeftPadded bool
	PadNibble  byte // 0x0 or 0xF
}

var (
	BCDLeftPadded   = BCDInterpreter{LeftPadded: true}
	BCDRightPadded  = BCDInterpreter{}
	BCDLeftPaddedF  = BCDInterpreter{LeftPadded: true, PadNibble: 0xF}
	BCDRightPaddedF = BCDInterpreter{PadNibble: 0xF}
)

func (bi BCDInterpreter) Interpret(dst []byte, value string) error {
	for i := range dst {
		dst[i] = 0
	}
	pos := 0
	if len(value)%2 == 1 {
		if bi.LeftPadded {
			dst[0] = bi.PadNibble << 4
			pos = 1
		} else {
			dst[len(dst)-1] = bi.PadNibble
		}
	}
	for i := 0; i < len(value); i++ {
		nib, ok := bcdNibble(value[i])
		if !ok {
			return fmt.Errorf("%w: non-digit %q at position %d", ErrInvalidEncoding, value[i], i)
		}
		if pos%2 == 0 {
			dst[pos/2] |= nib << 4
		} else {
			dst[pos/2] |= nib
		}
		pos++
	}
	return nil
}

func (bi BCDInterpreter) Uninterpret(src []byte, n int) (string, error) {
	out := make([]byte, n)
	start := 0
	if n%2 == 1 && bi.LeftPadded {
		start = 1
	}
	for i := 0; i < n; i++ {
		pos := start + i
		b := src[pos/2]
		var nib byte
		if pos%2 == 0 {
			nib = b >> 4
		} else {
			nib = b & 0x0F
		}
		switch {
		case nib <= 9:
			out[i] = '0' + nib
		case nib == 0xD:
			out[i] = 'D'
		default:
			return "", fmt.Errorf("%w: invalid BCD nibble %X at digit %d", ErrInvalidEncoding, nib, i)
		}
	}
	return string(out), nil
}

func (BCDInterpreter) PackedLength(n int) int {
	return (n + 1) / 2
}

func bcdNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c == 'D' || c == 'd' || c == '=':
		return 0xD, true
	}
	return 0, false
}

// LiteralBinaryInterpreter copies bytes verbatim.
type LiteralBinaryInterpreter struct{}

func (LiteralBinaryInterpreter) Interpret(dst []byte, value []byte) error {
	copy(dst, value)
	return nil
}

func (LiteralBinaryInterpreter) Uninterpret(src []byte, n int) ([]byte, error) {
	out := make([]byte, n)
	copy(out, src[:n])
	return out, nil
}

func (LiteralBinaryInterpreter) PackedLength(n int) int {
	return n
}

// HexBinaryInterpreter writes each byte as two upper-case ASCII hex chars.
type HexBinaryInterpreter struct{}

func (HexBinaryInterpreter) Interpret(dst []byte, value []byte) error {
	encodeHexUpper(dst, value)
	return nil
}

func (HexBinaryInterpreter) Uninterpret(src []byte, n int) ([]byte, error) {
	out := make([]byte, n)
	if err := decodeHex(out, src[:n*2]); err != nil {
		return nil, err
	}
	return out, nil
}

func (HexBinaryInterpreter) PackedLength(n int) int {
	return n * 2
}

// EBCDICHexBinaryInterpreter writes each byte as two EBCDIC hex chars.
type EBCDICHexBinaryInterpreter struct{}

func (EBCDICHexBinaryInterpreter) Interpret(dst []byte, value []byte) error {
	encodeHexUpper(dst, value)
	return asciiToEBCDIC(dst, dst)
}

func (EBCDICHexBinaryInterpreter) Uninterpret(src []byte, n int) ([]byte, error) {
	ascii := make([]byte, n*2)
	if err := ebcdicToASCII(ascii, src[:n*2]); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if err := decodeHex(out, ascii); err != nil {
		return nil, err
	}
	return out, nil
}

func (EBCDICHexBinaryInterpreter) PackedLength(n int) int {
	return n * 2
}

// ebcdicTables holds the ASCII<->EBCDIC translation for the printable range
// plus control characters, derived once from code page 037.
var ebcdicTables = func() (t struct {
	toEBCDIC [256]byte
	toASCII  [256]byte
	encOK    [256]bool
	decOK    [256]bool
}) {
	cp := charmap.CodePage037
	for c := 0; c < 256; c++ {
		if b, ok := cp.EncodeRune(rune(c)); ok {
			t.toEBCDIC[c] = b
			t.encOK[c] = true
		}
		r := cp.DecodeByte(byte(c))
		if r < 256 {
			t.toASCII[c] = byte(r)
			t.decOK[c] = true
		}
	}
	return t
}()

func asciiToEBCDIC(dst, src []byte) error {
	for i, c := range src {
		if !ebcdicTables.encOK[c] {
			return fmt.Errorf("%w: byte %02X has no EBCDIC mapping", ErrInvalidEncoding, c)
		}
		dst[i] = ebcdicTables.toEBCDIC[c]
	}
	return nil
}

func ebcdicToASCII(dst, src []byte) error {
	for i, c := range src {
		if !ebcdicTables.decOK[c] {
			return fmt.Errorf("%w: EBCDIC byte %02X has no mapping", ErrInvalidEncoding, c)
		}
		dst[i] = ebcdicTables.toASCII[c]
	}
	return nil
}
