package iso8583

import "fmt"

const hexTableUpper = "0123456789ABCDEF"

// encodeHexUpper converts src to uppercase hex and writes it to dst.
func encodeHexUpper(dst, src []byte) {
	for i, v := range src {
		dst[i*2] = hexTableUpper[v>>4]
		dst[i*2+1] = hexTableUpper[v&0x0f]
	}
}

// decodeHex accepts either case and reports the offending position.
func decodeHex(dst, src []byte) error {
	for i := 0; i < len(dst); i++ {
		hi, ok1 := hexNibble(src[i*2])
		lo, ok2 := hexNibble(src[i*2+1])
		if !ok1 || !ok2 {
			return fmt.Errorf("%w: non-hex character at position %d", ErrInvalidEncoding, i*2)
		}
		dst[i] = hi<<4 | lo
	}
	return nil
}

func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}

// pow10 returns 10^n for small n.
func pow10(n int) int {
	res := 1
	for i := 0; i < n; i++ {
		res *= 10
	}
	return res
}
