package tlv

import (
	"fmt"
	"strings"
)

var (
	ErrInvalidTag     = fmt.Errorf("invalid tag")
	ErrInvalidLength  = fmt.Errorf("invalid length")
	ErrTruncated      = fmt.Errorf("truncated data")
	ErrLengthExceeded = fmt.Errorf("length exceeded")
	ErrInvalidSize    = fmt.Errorf("invalid size")
	ErrNoPriorMatch   = fmt.Errorf("no prior match")
)

// LookupError is returned by lookups that cannot be answered, such as
// FindNextTLV before any successful Find.
type LookupError struct {
	Tag int
	Err error
}

func (le *LookupError) Error() string {
	if le.Tag == 0 {
		return fmt.Sprintf("tlv: %v", le.Err)
	}
	return fmt.Sprintf("tlv: tag %X: %v", le.Tag, le.Err)
}

func (le *LookupError) Unwrap() error {
	return le.Err
}

// FormatError reports an entry that cannot be packed or unpacked. Tag is the
// hex form of a BER or fixed tag, or the token of a tag map entry, and is
// empty when the tag itself could not be read. Offset is the entry's
// position in the input and is -1 on pack.
type FormatError struct {
	Op     string
	Tag    string
	Offset int
	Err    error
}

func (fe *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("tlv: ")
	b.WriteString(fe.Op)
	if fe.Tag != "" {
		fmt.Fprintf(&b, " tag %s", fe.Tag)
	}
	if fe.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", fe.Offset)
	}
	fmt.Fprintf(&b, ": %v", fe.Err)
	return b.String()
}

func (fe *FormatError) Unwrap() error {
	return fe.Err
}

func tagHex(tag int) string {
	return fmt.Sprintf("%X", tag)
}
