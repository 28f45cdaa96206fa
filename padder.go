package iso8583

import (
	"fmt"
	"strings"
)

// Padder aligns a text value to a fixed width.
type Padder interface {
	// Pad fails if value is already longer than width.
	Pad(value string, width int) (string, error)
	Unpad(value string) string
}

// NullPadder leaves values untouched; Pad still enforces the width.
type NullPadder struct{}

func (NullPadder) Pad(value string, width int) (string, error) {
	if len(value) > width {
		return "", fmt.Errorf("%w: %d > %d", ErrLengthExceeded, len(value), width)
	}
	return value, nil
}

func (NullPadder) Unpad(value string) string {
	return value
}

// LeftPadder fills on the left, typically with zeros for numerics.
type LeftPadder struct {
	Char byte
}

// RightPadder fills on the right, typically with spaces for text.
type RightPadder struct {
	Char byte
}

var (
	ZeroPadder  = LeftPadder{Char: '0'}
	SpacePadder = RightPadder{Char: ' '}
)

func (p LeftPadder) Pad(value string, width int) (string, error) {
	if len(value) > width {
		return "", fmt.Errorf("%w: %d > %d", ErrLengthExceeded, len(value), width)
	}
	return strings.Repeat(string([]byte{p.Char}), width-len(value)) + value, nil
}

// Unpad strips leading pad characters but keeps one when the value is made
// only of them, so a zero amount stays "0".
func (p LeftPadder) Unpad(value string) string {
	out := strings.TrimLeft(value, string([]byte{p.Char}))
	if out == "" && value != "" {
		return string([]byte{p.Char})
	}
	return out
}

func (p RightPadder) Pad(value string, width int) (string, error) {
	if len(value) > width {
		return "", fmt.Errorf("%w: %d > %d", ErrLengthExceeded, len(value), width)
	}
	return value + strings.Repeat(string([]byte{p.Char}), width-len(value)), nil
}

func (p RightPadder) Unpad(value string) string {
	return strings.TrimRight(value, string([]byte{p.Char}))
}
