package iso8583

import (
	"fmt"

	"github.com/mkadit/go-iso8583/tlv"
)

// FieldICCData is the data element carrying EMV chip data.
const FieldICCData = 55

// ICCData decodes the BER-TLV list held in a binary field, usually
// FieldICCData. It reports false when the field is absent.
func ICCData(fs *FieldSet, index int) (*tlv.List, bool, error) {
	v, ok := fs.Get(index)
	if !ok {
		return nil, false, nil
	}
	if v.Kind() != KindBinary {
		return nil, true, fmt.Errorf("%w: field %d holds a %s value", ErrInvalidValue, index, v.Kind())
	}
	l := tlv.NewList()
	if err := l.Unpack(v.Bytes()); err != nil {
		return l, true, &FormatError{Op: "unpack", Field: index, Err: err}
	}
	return l, true, nil
}

// SetICCData packs l into a binary field.
func SetICCData(fs *FieldSet, index int, l *tlv.List) error {
	b, err := l.Pack()
	if err != nil {
		return &FormatError{Op: "pack", Field: index, Err: err}
	}
	return fs.SetBinary(index, b)
}
