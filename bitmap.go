package iso8583

import (
	"encoding/hex"
	"fmt"
)

const (
	BitmapSize          = 8
	SecondaryBitmapSize = 8
	MaxFieldNumber      = 128
)

// BitmapEncoding selects how a Bitmap is laid out on the wire.
type BitmapEncoding int

const (
	BitmapEncodingBinary BitmapEncoding = iota // 8 or 16 raw bytes
	BitmapEncodingHex                          // 16 or 32 ASCII hex chars
	BitmapEncodingEBCDIC                       // 16 or 32 EBCDIC hex chars
)

func (e BitmapEncoding) String() string {
	switch e {
	case BitmapEncodingHex:
		return "hex"
	case BitmapEncodingEBCDIC:
		return "ebcdic"
	default:
		return "binary"
	}
}

// Bitmap is the ISO8583 presence bitmap: a 64-bit primary word and an
// optional 64-bit secondary word, bits numbered from 1, MSB first.
// Bit 1 of the primary word announces the secondary word.
type Bitmap struct {
	primary      [BitmapSize]byte
	secondary    [SecondaryBitmapSize]byte
	hasSecondary bool
}

// Set sets the bit for fieldNum (1-128). Any field above 64 also sets bit 1.
func (bm *Bitmap) Set(fieldNum int) error {
	if fieldNum < 1 || fieldNum > MaxFieldNumber {
		return fmt.Errorf("%w: field number %d out of range", ErrInvalidBitmap, fieldNum)
	}
	if fieldNum <= 64 {
		bm.primary[(fieldNum-1)/8] |= 0x80 >> ((fieldNum - 1) % 8)
		return nil
	}
	bm.hasSecondary = true
	bm.primary[0] |= 0x80
	adjusted := fieldNum - 65
	bm.secondary[adjusted/8] |= 0x80 >> (adjusted % 8)
	return nil
}

// IsSet reports whether the bit for fieldNum is set.
func (bm *Bitmap) IsSet(fieldNum int) bool {
	if fieldNum < 1 || fieldNum > MaxFieldNumber {
		return false
	}
	if fieldNum <= 64 {
		return bm.primary[(fieldNum-1)/8]&(0x80>>((fieldNum-1)%8)) != 0
	}
	if !bm.hasSecondary {
		return false
	}
	adjusted := fieldNum - 65
	return bm.secondary[adjusted/8]&(0x80>>(adjusted%8)) != 0
}

// Clear clears the bit for fieldNum. Clearing the last secondary bit also
// clears bit 1.
func (bm *Bitmap) Clear(fieldNum int) {
	if fieldNum < 1 || fieldNum > MaxFieldNumber {
		return
	}
	if fieldNum <= 64 {
		bm.primary[(fieldNum-1)/8] &^= 0x80 >> ((fieldNum - 1) % 8)
		return
	}
	adjusted := fieldNum - 65
	bm.secondary[adjusted/8] &^= 0x80 >> (adjusted % 8)
	for _, b := range bm.secondary {
		if b != 0 {
			return
		}
	}
	bm.hasSecondary = false
	bm.primary[0] &^= 0x80
}

// HasSecondary reports whether the secondary word is present.
func (bm *Bitmap) HasSecondary() bool {
	return bm.hasSecondary
}

// MaxField returns the highest field number the bitmap can announce.
func (bm *Bitmap) MaxField() int {
	if bm.hasSecondary {
		return 128
	}
	return 64
}

// Size returns the binary size in bytes, 8 or 16.
func (bm *Bitmap) Size() int {
	if bm.hasSecondary {
		return BitmapSize + SecondaryBitmapSize
	}
	return BitmapSize
}

// Bytes returns the binary form.
func (bm *Bitmap) Bytes() []byte {
	out := make([]byte, 0, bm.Size())
	out = append(out, bm.primary[:]...)
	if bm.hasSecondary {
		out = append(out, bm.secondary[:]...)
	}
	return out
}

// Fields returns the field numbers whose bits are set, starting at 2.
func (bm *Bitmap) Fields() []int {
	fields := make([]int, 0, 16)
	for n := 2; n <= bm.MaxField(); n++ {
		if bm.IsSet(n) {
			fields = append(fields, n)
		}
	}
	return fields
}

// PackedSize returns the wire size for the given encoding.
func (bm *Bitmap) PackedSize(encoding BitmapEncoding) int {
	if encoding == BitmapEncodingBinary {
		return bm.Size()
	}
	return bm.Size() * 2
}

// PackBitmap writes the bitmap into buf and returns the bytes written.
func (bm *Bitmap) PackBitmap(buf []byte, encoding BitmapEncoding) (int, error) {
	n := bm.PackedSize(encoding)
	if len(buf) < n {
		return 0, fmt.Errorf("%w: bitmap needs %d bytes, have %d", ErrInsufficientData, n, len(buf))
	}
	raw := bm.Bytes()
	switch encoding {
	case BitmapEncodingBinary:
		copy(buf, raw)
	case BitmapEncodingHex:
		encodeHexUpper(buf, raw)
	case BitmapEncodingEBCDIC:
		encodeHexUpper(buf, raw)
		if err := asciiToEBCDIC(buf[:n], buf[:n]); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// UnpackBitmap reads a bitmap from data and returns the bytes consumed.
func (bm *Bitmap) UnpackBitmap(data []byte, encoding BitmapEncoding) (int, error) {
	*bm = Bitmap{}
	unit := 1
	if encoding != BitmapEncodingBinary {
		unit = 2
	}

	word, err := readBitmapWord(data, 0, unit, encoding)
	if err != nil {
		return 0, err
	}
	copy(bm.primary[:], word)
	offset := BitmapSize * unit

	bm.hasSecondary = bm.primary[0]&0x80 != 0
	if bm.hasSecondary {
		word, err = readBitmapWord(data, offset, unit, encoding)
		if err != nil {
			return 0, err
		}
		copy(bm.secondary[:], word)
		offset += SecondaryBitmapSize * unit
	}
	return offset, nil
}

func readBitmapWord(data []byte, offset, unit int, encoding BitmapEncoding) ([]byte, error) {
	n := BitmapSize * unit
	if len(data) < offset+n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrInvalidBitmap, n, offset, len(data)-offset)
	}
	src := data[offset : offset+n]
	if encoding == BitmapEncodingBinary {
		return src, nil
	}
	if encoding == BitmapEncodingEBCDIC {
		conv := make([]byte, n)
		if err := ebcdicToASCII(conv, src); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBitmap, err)
		}
		src = conv
	}
	word := make([]byte, BitmapSize)
	if _, err := hex.Decode(word, src); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBitmap, err)
	}
	return word, nil
}
