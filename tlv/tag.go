// Package tlv implements BER-TLV lists as found in EMV ICC data, and the
// fixed-width tag/length maps used in private data elements.
package tlv

import "fmt"

// MaxTagBytes is the longest BER tag accepted.
const MaxTagBytes = 3

// TagSize returns the encoded size of a tag, or 0 if tag is not a well formed
// BER tag of at most MaxTagBytes bytes. The size follows the magnitude of
// tag: a multi-byte tag needs 0x1F in the low bits of its first byte and the
// high bit clear in its last byte.
func TagSize(tag int) int {
	switch {
	case tag <= 0:
		return 0
	case tag <= 0xFF:
		if tag&0x1F == 0x1F {
			return 0
		}
		return 1
	case tag <= 0xFFFF:
		b0, b1 := byte(tag>>8), byte(tag)
		if b0&0x1F != 0x1F || b1&0x80 != 0 {
			return 0
		}
		return 2
	case tag <= 0xFFFFFF:
		// The middle byte is not checked for the continuation bit, so
		// tags such as BF5F37 keep their three bytes.
		b0, b2 := byte(tag>>16), byte(tag)
		if b0&0x1F != 0x1F || b2&0x80 != 0 {
			return 0
		}
		return 3
	}
	return 0
}

// AppendTag appends the BER encoding of tag to dst.
func AppendTag(dst []byte, tag int) ([]byte, error) {
	n := TagSize(tag)
	if n == 0 {
		return dst, fmt.Errorf("%w: %X is not a BER tag", ErrInvalidTag, tag)
	}
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(tag>>(8*i)))
	}
	return dst, nil
}

// ReadTag decodes a BER tag at data[offset:] and returns it with its size.
// A first byte announcing continuation must be followed by the continuation
// bytes; a tag may span at most MaxTagBytes bytes.
func ReadTag(data []byte, offset int) (tag, n int, err error) {
	if offset >= len(data) {
		return 0, 0, fmt.Errorf("%w: no tag at offset %d", ErrTruncated, offset)
	}
	b := data[offset]
	tag = int(b)
	n = 1
	if b&0x1F != 0x1F {
		return tag, n, nil
	}
	for {
		if n == MaxTagBytes {
			return 0, 0, fmt.Errorf("%w: tag %X at offset %d is longer than %d bytes", ErrInvalidTag, tag, offset, MaxTagBytes)
		}
		if offset+n >= len(data) {
			return 0, 0, fmt.Errorf("%w: tag %X at offset %d has no continuation byte", ErrInvalidTag, tag, offset)
		}
		b = data[offset+n]
		tag = tag<<8 | int(b)
		n++
		if b&0x80 == 0 {
			return tag, n, nil
		}
	}
}

// LengthSize returns the BER encoded size of a length.
func LengthSize(length int) int {
	if length < 0x80 {
		return 1
	}
	n := 1
	for l := length; l > 0; l >>= 8 {
		n++
	}
	return n
}

// AppendLength appends the BER encoding of length to dst: one byte below
// 128, otherwise 0x80|k followed by k big-endian bytes.
func AppendLength(dst []byte, length int) []byte {
	if length < 0x80 {
		return append(dst, byte(length))
	}
	k := LengthSize(length) - 1
	dst = append(dst, byte(0x80|k))
	for i := k - 1; i >= 0; i-- {
		dst = append(dst, byte(length>>(8*i)))
	}
	return dst
}

// ReadLength decodes a BER length at data[offset:] and returns it with its
// size. Long forms of more than 4 bytes and the indefinite form are
// rejected.
func ReadLength(data []byte, offset int) (length, n int, err error) {
	if offset >= len(data) {
		return 0, 0, fmt.Errorf("%w: no length at offset %d", ErrTruncated, offset)
	}
	b := data[offset]
	if b&0x80 == 0 {
		return int(b), 1, nil
	}
	k := int(b & 0x7F)
	if k == 0 || k > 4 {
		return 0, 0, fmt.Errorf("%w: length form %02X at offset %d", ErrInvalidLength, b, offset)
	}
	if offset+1+k > len(data) {
		return 0, 0, fmt.Errorf("%w: %d length bytes at offset %d", ErrTruncated, k, offset)
	}
	for i := 1; i <= k; i++ {
		length = length<<8 | int(data[offset+i])
	}
	return length, 1 + k, nil
}

// readFixed reads a size-byte big-endian unsigned integer.
func readFixed(data []byte, offset, size int) (int, error) {
	if offset+size > len(data) {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, size, offset)
	}
	v := 0
	for i := 0; i < size; i++ {
		v = v<<8 | int(data[offset+i])
	}
	return v, nil
}

// appendFixed appends v as a size-byte big-endian unsigned integer.
func appendFixed(dst []byte, v, size int) ([]byte, error) {
	if v < 0 || (size < 8 && v >= 1<<(8*size)) {
		return dst, fmt.Errorf("%w: %d does not fit %d bytes", ErrLengthExceeded, v, size)
	}
	for i := size - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(8*i)))
	}
	return dst, nil
}
