package iso8583

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLengthExceeded    = fmt.Errorf("length exceeded")
	ErrInsufficientData  = fmt.Errorf("insufficient data")
	ErrMissingTerminator = fmt.Errorf("missing terminator")
	ErrInvalidEncoding   = fmt.Errorf("invalid encoding")
	ErrInvalidBitmap     = fmt.Errorf("invalid bitmap")
	ErrInvalidValue      = fmt.Errorf("invalid value kind")
	ErrNoCodec           = fmt.Errorf("no codec configured")
	ErrMissingField      = fmt.Errorf("missing field")
	ErrAddressing        = fmt.Errorf("field set addressing mismatch")

	ErrUnknownType     = fmt.Errorf("unknown field type")
	ErrMalformedSchema = fmt.Errorf("malformed schema")
)

// FormatError reports a length, terminator or encoding violation while
// packing or unpacking a single field. Either Field or Tag identifies it.
type FormatError struct {
	Op    string // "pack" or "unpack"
	Field int
	Tag   string
	Err   error
}

func (fe *FormatError) Error() string {
	if fe.Tag != "" {
		return fmt.Sprintf("%s tag %q: %v", fe.Op, fe.Tag, fe.Err)
	}
	return fmt.Sprintf("%s field %d: %v", fe.Op, fe.Field, fe.Err)
}

func (fe *FormatError) Unwrap() error {
	return fe.Err
}

// SchemaError reports a malformed or unresolvable format configuration.
// It is only returned while building packagers.
type SchemaError struct {
	Path  string // nesting path, e.g. "field[48]/field[2]"
	Field int    // NoIndex when the problem is not tied to a field
	Type  string
	Err   error
}

func (se *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema")
	if se.Path != "" {
		b.WriteString(" " + se.Path)
	}
	if se.Field != NoIndex {
		fmt.Fprintf(&b, " field %d", se.Field)
	}
	if se.Type != "" {
		fmt.Fprintf(&b, " (%s)", se.Type)
	}
	fmt.Fprintf(&b, ": %v", se.Err)
	return b.String()
}

func (se *SchemaError) Unwrap() error {
	return se.Err
}

// LookupError is returned when no codec is registered for a tag and no
// default codec is configured.
type LookupError struct {
	Tag string
}

func (le *LookupError) Error() string {
	return fmt.Sprintf("no codec for tag %q", le.Tag)
}

func packError(field int, err error) error {
	return wrapFormat("pack", field, "", err)
}

func unpackError(field int, err error) error {
	return wrapFormat("unpack", field, "", err)
}

// wrapFormat keeps the innermost FormatError so nested composites report the
// field that actually failed.
func wrapFormat(op string, field int, tag string, err error) error {
	var fe *FormatError
	if errors.As(err, &fe) {
		return err
	}
	var le *LookupError
	if errors.As(err, &le) {
		return err
	}
	return &FormatError{Op: op, Field: field, Tag: tag, Err: err}
}
