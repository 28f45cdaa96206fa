package tlv

import "fmt"

// Default TagMap widths.
const (
	DefaultTagWidth    = 2
	DefaultLengthWidth = 3
)

// MapEntry is one tag/value pair of a TagMap.
type MapEntry struct {
	Tag   string
	Value string
}

// TagMapOption configures a TagMap.
type TagMapOption func(*TagMap)

// WithTagWidth sets the tag width in characters, 1..4.
func WithTagWidth(n int) TagMapOption {
	return func(m *TagMap) {
		m.tagWidth = n
	}
}

// WithLengthWidth sets the decimal length width in characters, 1..5.
func WithLengthWidth(n int) TagMapOption {
	return func(m *TagMap) {
		m.lengthWidth = n
	}
}

// WithSwap puts the length before the tag.
func WithSwap(swap bool) TagMapOption {
	return func(m *TagMap) {
		m.swap = swap
	}
}

// TagMap is a sequence of tag(T chars) + length(L decimal chars) + value
// entries, as carried in private use data elements. No BER rules apply.
// A TagMap is not safe for concurrent use.
type TagMap struct {
	tagWidth    int
	lengthWidth int
	swap        bool
	entries     []MapEntry
}

// NewTagMap creates an empty map. Widths outside their range fail with
// ErrInvalidSize.
func NewTagMap(opts ...TagMapOption) (*TagMap, error) {
	m := &TagMap{tagWidth: DefaultTagWidth, lengthWidth: DefaultLengthWidth}
	for _, opt := range opts {
		opt(m)
	}
	if m.tagWidth < 1 || m.tagWidth > 4 {
		return nil, fmt.Errorf("%w: tag width %d not in 1..4", ErrInvalidSize, m.tagWidth)
	}
	if m.lengthWidth < 1 || m.lengthWidth > 5 {
		return nil, fmt.Errorf("%w: length width %d not in 1..5", ErrInvalidSize, m.lengthWidth)
	}
	return m, nil
}

// Set replaces the value of the first entry with tag, or appends one.
func (m *TagMap) Set(tag, value string) error {
	if len(tag) != m.tagWidth {
		return fmt.Errorf("%w: %q is not %d characters", ErrInvalidTag, tag, m.tagWidth)
	}
	for i := range m.entries {
		if m.entries[i].Tag == tag {
			m.entries[i].Value = value
			return nil
		}
	}
	m.entries = append(m.entries, MapEntry{Tag: tag, Value: value})
	return nil
}

// Get returns the value of the first entry with tag.
func (m *TagMap) Get(tag string) (string, bool) {
	for _, e := range m.entries {
		if e.Tag == tag {
			return e.Value, true
		}
	}
	return "", false
}

// Delete removes the first entry with tag.
func (m *TagMap) Delete(tag string) bool {
	for i, e := range m.entries {
		if e.Tag == tag {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Entries returns a copy of the entries in order.
func (m *TagMap) Entries() []MapEntry {
	out := make([]MapEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries.
func (m *TagMap) Len() int {
	return len(m.entries)
}

// Pack concatenates the entries.
func (m *TagMap) Pack() ([]byte, error) {
	maxLen := 1
	for i := 0; i < m.lengthWidth; i++ {
		maxLen *= 10
	}
	total := 0
	for _, e := range m.entries {
		total += m.tagWidth + m.lengthWidth + len(e.Value)
	}
	out := make([]byte, 0, total)
	for _, e := range m.entries {
		if len(e.Value) >= maxLen {
			return nil, &FormatError{Op: "pack", Tag: e.Tag, Offset: -1, Err: fmt.Errorf("%w: value length %d does not fit %d digits", ErrLengthExceeded, len(e.Value), m.lengthWidth)}
		}
		length := fmt.Sprintf("%0*d", m.lengthWidth, len(e.Value))
		if m.swap {
			out = append(out, length...)
			out = append(out, e.Tag...)
		} else {
			out = append(out, e.Tag...)
			out = append(out, length...)
		}
		out = append(out, e.Value...)
	}
	return out, nil
}

// Unpack replaces the entries with those decoded from data. On error the
// entries decoded so far are kept.
func (m *TagMap) Unpack(data []byte) error {
	m.entries = m.entries[:0]
	head := m.tagWidth + m.lengthWidth
	for offset := 0; offset < len(data); {
		if offset+head > len(data) {
			return &FormatError{Op: "unpack", Offset: offset, Err: fmt.Errorf("%w: %d bytes left, entry header needs %d", ErrTruncated, len(data)-offset, head)}
		}
		tagAt, lengthAt := offset, offset+m.tagWidth
		if m.swap {
			tagAt, lengthAt = offset+m.lengthWidth, offset
		}
		tag := string(data[tagAt : tagAt+m.tagWidth])
		digits := string(data[lengthAt : lengthAt+m.lengthWidth])
		length, ok := parseDecimal(digits)
		if !ok {
			return &FormatError{Op: "unpack", Tag: tag, Offset: offset, Err: fmt.Errorf("%w: %q", ErrInvalidLength, digits)}
		}
		if offset+head+length > len(data) {
			return &FormatError{Op: "unpack", Tag: tag, Offset: offset, Err: fmt.Errorf("%w: declared length %d, %d bytes remain", ErrTruncated, length, len(data)-offset-head)}
		}
		offset += head
		m.entries = append(m.entries, MapEntry{Tag: tag, Value: string(data[offset : offset+length])})
		offset += length
	}
	return nil
}

func parseDecimal(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
