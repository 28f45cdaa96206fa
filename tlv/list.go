package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Entry is one tag/value pair.
type Entry struct {
	Tag   int
	Value []byte
}

// Hex returns the value as upper-case hex.
func (e Entry) Hex() string {
	return strings.ToUpper(hex.EncodeToString(e.Value))
}

func (e Entry) String() string {
	return fmt.Sprintf("%X=%s", e.Tag, e.Hex())
}

// Option configures a List.
type Option func(*List)

// WithTagSize switches tags to exactly n bytes (1..4) instead of BER tags.
func WithTagSize(n int) Option {
	return func(l *List) {
		l.tagSize = n
	}
}

// WithLengthSize switches lengths to exactly n big-endian bytes (1..4)
// instead of BER lengths.
func WithLengthSize(n int) Option {
	return func(l *List) {
		l.lengthSize = n
	}
}

// List is an ordered list of TLV entries. Tags and lengths follow BER rules
// unless a fixed size is configured; in BER mode a 0x00 byte where a tag is
// expected is padding and is skipped.
//
// The list remembers the position of its last successful Find or FindIndex
// so FindNextTLV can continue from there. A List is not safe for concurrent
// use.
type List struct {
	tagSize    int
	lengthSize int
	entries    []Entry

	findTag  int
	findLast int // -1 when there is no prior match
}

// NewList creates an empty list.
func NewList(opts ...Option) *List {
	l := &List{findLast: -1}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *List) check() error {
	if l.tagSize < 0 || l.tagSize > 4 {
		return fmt.Errorf("%w: tag size %d", ErrInvalidSize, l.tagSize)
	}
	if l.lengthSize < 0 || l.lengthSize > 4 {
		return fmt.Errorf("%w: length size %d", ErrInvalidSize, l.lengthSize)
	}
	return nil
}

func (l *List) checkTag(tag int) error {
	if l.tagSize == 0 {
		if TagSize(tag) == 0 {
			return fmt.Errorf("%w: %X is not a BER tag", ErrInvalidTag, tag)
		}
		return nil
	}
	if tag < 0 || (l.tagSize < 4 && tag >= 1<<(8*l.tagSize)) {
		return fmt.Errorf("%w: %X does not fit %d bytes", ErrInvalidTag, tag, l.tagSize)
	}
	return nil
}

func (l *List) resetFind() {
	l.findTag = 0
	l.findLast = -1
}

// Append adds an entry at the end.
func (l *List) Append(tag int, value []byte) error {
	return l.AppendEntry(Entry{Tag: tag, Value: value})
}

// AppendEntry adds e at the end.
func (l *List) AppendEntry(e Entry) error {
	if err := l.check(); err != nil {
		return err
	}
	if err := l.checkTag(e.Tag); err != nil {
		return err
	}
	l.entries = append(l.entries, e)
	l.resetFind()
	return nil
}

func (l *List) packedSize(e Entry) int {
	size := l.tagSize
	if size == 0 {
		size = TagSize(e.Tag)
	}
	if l.lengthSize == 0 {
		size += LengthSize(len(e.Value))
	} else {
		size += l.lengthSize
	}
	return size + len(e.Value)
}

// Pack encodes every entry in order.
func (l *List) Pack() ([]byte, error) {
	if err := l.check(); err != nil {
		return nil, err
	}
	total := 0
	for _, e := range l.entries {
		total += l.packedSize(e)
	}
	out := make([]byte, 0, total)
	for _, e := range l.entries {
		var err error
		if l.tagSize == 0 {
			out, err = AppendTag(out, e.Tag)
		} else {
			out, err = appendFixed(out, e.Tag, l.tagSize)
		}
		if err != nil {
			return nil, &FormatError{Op: "pack", Tag: tagHex(e.Tag), Offset: -1, Err: err}
		}
		if l.lengthSize == 0 {
			out = AppendLength(out, len(e.Value))
		} else if out, err = appendFixed(out, len(e.Value), l.lengthSize); err != nil {
			return nil, &FormatError{Op: "pack", Tag: tagHex(e.Tag), Offset: -1, Err: err}
		}
		out = append(out, e.Value...)
	}
	return out, nil
}

// Unpack replaces the entries with those decoded from data.
func (l *List) Unpack(data []byte) error {
	l.entries = l.entries[:0]
	l.resetFind()
	return l.UnpackFrom(data, 0)
}

// UnpackFrom decodes entries from data[offset:] and appends them. On error
// the entries decoded so far are kept.
func (l *List) UnpackFrom(data []byte, offset int) error {
	if err := l.check(); err != nil {
		return err
	}
	l.resetFind()
	for offset < len(data) {
		if l.tagSize == 0 && data[offset] == 0x00 {
			offset++
			continue
		}
		e, n, err := l.readEntry(data, offset)
		if err != nil {
			return err
		}
		l.entries = append(l.entries, e)
		offset += n
	}
	return nil
}

func (l *List) readEntry(data []byte, offset int) (Entry, int, error) {
	var tag, tn int
	var err error
	if l.tagSize == 0 {
		tag, tn, err = ReadTag(data, offset)
	} else {
		tag, err = readFixed(data, offset, l.tagSize)
		tn = l.tagSize
	}
	if err != nil {
		return Entry{}, 0, &FormatError{Op: "unpack", Offset: offset, Err: err}
	}

	pos := offset + tn
	if pos >= len(data) {
		return Entry{}, 0, &FormatError{Op: "unpack", Tag: tagHex(tag), Offset: offset, Err: fmt.Errorf("%w: no length", ErrTruncated)}
	}
	var length, ln int
	if l.lengthSize == 0 {
		length, ln, err = ReadLength(data, pos)
	} else {
		length, err = readFixed(data, pos, l.lengthSize)
		ln = l.lengthSize
	}
	if err != nil {
		return Entry{}, 0, &FormatError{Op: "unpack", Tag: tagHex(tag), Offset: offset, Err: err}
	}

	pos += ln
	if remaining := len(data) - pos; length > remaining {
		return Entry{}, 0, &FormatError{Op: "unpack", Tag: tagHex(tag), Offset: offset, Err: fmt.Errorf("%w: declared length %d, %d bytes remain", ErrTruncated, length, remaining)}
	}
	value := make([]byte, length)
	copy(value, data[pos:pos+length])
	return Entry{Tag: tag, Value: value}, tn + ln + length, nil
}

// Find returns the first entry with tag and remembers its position.
func (l *List) Find(tag int) (Entry, bool) {
	i := l.FindIndex(tag)
	if i < 0 {
		return Entry{}, false
	}
	return l.entries[i], true
}

// FindIndex returns the position of the first entry with tag, or -1, and
// remembers it.
func (l *List) FindIndex(tag int) int {
	for i, e := range l.entries {
		if e.Tag == tag {
			l.findTag = tag
			l.findLast = i
			return i
		}
	}
	l.resetFind()
	return -1
}

// FindNextTLV returns the next entry carrying the tag of the last
// successful Find or FindIndex, advancing past it. It reports false when no
// further entry carries that tag. Without a prior match it fails with a
// *LookupError wrapping ErrNoPriorMatch.
func (l *List) FindNextTLV() (Entry, bool, error) {
	if l.findLast < 0 {
		return Entry{}, false, &LookupError{Err: ErrNoPriorMatch}
	}
	for i := l.findLast + 1; i < len(l.entries); i++ {
		if l.entries[i].Tag == l.findTag {
			l.findLast = i
			return l.entries[i], true, nil
		}
	}
	return Entry{}, false, nil
}

// Index returns the entry at position i.
func (l *List) Index(i int) (Entry, bool) {
	if i < 0 || i >= len(l.entries) {
		return Entry{}, false
	}
	return l.entries[i], true
}

// HasTag reports whether an entry with tag exists.
func (l *List) HasTag(tag int) bool {
	for _, e := range l.entries {
		if e.Tag == tag {
			return true
		}
	}
	return false
}

// String returns the value of the first entry with tag as upper-case hex,
// or "" if there is none.
func (l *List) String(tag int) string {
	for _, e := range l.entries {
		if e.Tag == tag {
			return e.Hex()
		}
	}
	return ""
}

// DeleteByIndex removes the entry at position i.
func (l *List) DeleteByIndex(i int) error {
	if i < 0 || i >= len(l.entries) {
		return &LookupError{Err: fmt.Errorf("index %d out of range [0,%d)", i, len(l.entries))}
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	l.resetFind()
	return nil
}

// DeleteByTag removes every entry with tag and returns how many were removed.
func (l *List) DeleteByTag(tag int) int {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.Tag != tag {
			kept = append(kept, e)
		}
	}
	n := len(l.entries) - len(kept)
	l.entries = kept
	l.resetFind()
	return n
}

// Entries returns a copy of the entries in order.
func (l *List) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}
