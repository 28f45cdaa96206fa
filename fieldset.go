package iso8583

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// NoIndex marks tagged entries whose tag carries no numeric index.
const NoIndex = -1

// Entry is one field of a tag-addressed set.
type Entry struct {
	Index int
	Tag   string
	Value Value
}

// FieldSet is the per-message collection of field values. It is either
// index-addressed (bitmap messages, canonical order is ascending index) or
// tag-addressed (tagged sequences, order is encounter order), fixed at
// construction. A FieldSet is not safe for concurrent use.
type FieldSet struct {
	tagged  bool
	fields  map[int]Value
	entries []Entry

	// reserved slots, never part of field iteration
	bitmap *Bitmap
	header []byte
}

// NewFieldSet creates an index-addressed set.
func NewFieldSet() *FieldSet {
	return &FieldSet{fields: make(map[int]Value)}
}

// NewTaggedFieldSet creates a tag-addressed set.
func NewTaggedFieldSet() *FieldSet {
	return &FieldSet{tagged: true}
}

// Tagged reports whether the set is tag-addressed.
func (fs *FieldSet) Tagged() bool {
	return fs.tagged
}

// Set stores v at index. Index-addressed sets only.
func (fs *FieldSet) Set(index int, v Value) error {
	if fs.tagged {
		return fmt.Errorf("%w: set index %d on tagged field set", ErrAddressing, index)
	}
	if index < 0 {
		return fmt.Errorf("field index %d out of range", index)
	}
	if v.IsZero() {
		delete(fs.fields, index)
		return nil
	}
	fs.fields[index] = v
	return nil
}

func (fs *FieldSet) SetText(index int, s string) error {
	return fs.Set(index, Text(s))
}

func (fs *FieldSet) SetBinary(index int, b []byte) error {
	return fs.Set(index, Binary(b))
}

// Get returns the value at index. For tagged sets the index is the numeric
// value of the tag, available when the packager runs in numeric-tag mode.
func (fs *FieldSet) Get(index int) (Value, bool) {
	if fs.tagged {
		for _, e := range fs.entries {
			if e.Index == index && index != NoIndex {
				return e.Value, true
			}
		}
		return Value{}, false
	}
	v, ok := fs.fields[index]
	return v, ok
}

// GetText returns the string form of the value at index, or "" if absent.
func (fs *FieldSet) GetText(index int) string {
	v, _ := fs.Get(index)
	return v.String()
}

// Has reports whether a value is present at index.
func (fs *FieldSet) Has(index int) bool {
	_, ok := fs.Get(index)
	return ok
}

// Unset removes the value at index.
func (fs *FieldSet) Unset(index int) {
	if !fs.tagged {
		delete(fs.fields, index)
		return
	}
	for i, e := range fs.entries {
		if e.Index == index && index != NoIndex {
			fs.entries = append(fs.entries[:i], fs.entries[i+1:]...)
			return
		}
	}
}

// SetTag replaces the first entry with the given tag, or appends one.
func (fs *FieldSet) SetTag(tag string, v Value) error {
	if !fs.tagged {
		return fmt.Errorf("%w: set tag %q on indexed field set", ErrAddressing, tag)
	}
	for i := range fs.entries {
		if fs.entries[i].Tag == tag {
			fs.entries[i].Value = v
			return nil
		}
	}
	return fs.AppendTag(tag, v)
}

// AppendTag appends an entry, keeping any earlier entry with the same tag.
func (fs *FieldSet) AppendTag(tag string, v Value) error {
	if !fs.tagged {
		return fmt.Errorf("%w: append tag %q on indexed field set", ErrAddressing, tag)
	}
	fs.entries = append(fs.entries, Entry{Index: NoIndex, Tag: tag, Value: v})
	return nil
}

func (fs *FieldSet) appendEntry(e Entry) {
	fs.entries = append(fs.entries, e)
}

// GetTag returns the first entry value carrying tag.
func (fs *FieldSet) GetTag(tag string) (Value, bool) {
	for _, e := range fs.entries {
		if e.Tag == tag {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Entries returns the tagged entries in wire order.
func (fs *FieldSet) Entries() []Entry {
	out := make([]Entry, len(fs.entries))
	copy(out, fs.entries)
	return out
}

// Indexes returns present field indexes: ascending for indexed sets,
// encounter order for tagged sets (entries without an index are skipped).
func (fs *FieldSet) Indexes() []int {
	if fs.tagged {
		out := make([]int, 0, len(fs.entries))
		for _, e := range fs.entries {
			if e.Index != NoIndex {
				out = append(out, e.Index)
			}
		}
		return out
	}
	out := make([]int, 0, len(fs.fields))
	for i := range fs.fields {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// MaxIndex returns the highest present index, or -1 for an empty set.
func (fs *FieldSet) MaxIndex() int {
	max := -1
	for _, i := range fs.Indexes() {
		if i > max {
			max = i
		}
	}
	return max
}

// Len returns the number of fields, not counting reserved slots.
func (fs *FieldSet) Len() int {
	if fs.tagged {
		return len(fs.entries)
	}
	return len(fs.fields)
}

// Bitmap returns the presence bitmap seen by the last unpack, if any.
func (fs *FieldSet) Bitmap() *Bitmap {
	return fs.bitmap
}

// Header returns the fixed message header.
func (fs *FieldSet) Header() []byte {
	return fs.header
}

// SetHeader sets the fixed message header emitted before field 0.
func (fs *FieldSet) SetHeader(h []byte) {
	fs.header = h
}

// Clone makes a deep copy, reserved slots included.
func (fs *FieldSet) Clone() *FieldSet {
	if fs == nil {
		return nil
	}
	c := &FieldSet{tagged: fs.tagged}
	if fs.header != nil {
		c.header = append([]byte{}, fs.header...)
	}
	if fs.bitmap != nil {
		bm := *fs.bitmap
		c.bitmap = &bm
	}
	if fs.tagged {
		c.entries = make([]Entry, len(fs.entries))
		for i, e := range fs.entries {
			e.Value = e.Value.clone()
			c.entries[i] = e
		}
		return c
	}
	c.fields = make(map[int]Value, len(fs.fields))
	for i, v := range fs.fields {
		c.fields[i] = v.clone()
	}
	return c
}

// Equal compares field content. Reserved slots and the numeric index of
// tagged entries, which is derived from the tag, are ignored.
func (fs *FieldSet) Equal(o *FieldSet) bool {
	if fs == nil || o == nil {
		return fs == o
	}
	if fs.tagged != o.tagged || fs.Len() != o.Len() {
		return false
	}
	if fs.tagged {
		for i, e := range fs.entries {
			oe := o.entries[i]
			if e.Tag != oe.Tag || !e.Value.Equal(oe.Value) {
				return false
			}
		}
		return true
	}
	for i, v := range fs.fields {
		ov, ok := o.fields[i]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (fs *FieldSet) String() string {
	var b strings.Builder
	b.WriteByte('[')
	fs.each(func(i int, label string, v Value) {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%s", label, v.String())
	})
	b.WriteByte(']')
	return b.String()
}

// Dump writes one line per field, indenting nested sets.
func (fs *FieldSet) Dump(w io.Writer, indent string) {
	if len(fs.header) > 0 {
		fmt.Fprintf(w, "%s<header %X>\n", indent, fs.header)
	}
	if fs.bitmap != nil {
		fmt.Fprintf(w, "%s<bitmap %X>\n", indent, fs.bitmap.Bytes())
	}
	fs.each(func(_ int, label string, v Value) {
		if v.Kind() == KindComposite {
			fmt.Fprintf(w, "%s%s:\n", indent, label)
			v.FieldSet().Dump(w, indent+"  ")
			return
		}
		fmt.Fprintf(w, "%s%s: %s\n", indent, label, v.String())
	})
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (fs *FieldSet) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, fs.Len())
	fs.each(func(_ int, label string, v Value) {
		attrs = append(attrs, slog.Any(label, v))
	})
	return slog.GroupValue(attrs...)
}

func (fs *FieldSet) each(fn func(i int, label string, v Value)) {
	if fs.tagged {
		for i, e := range fs.entries {
			fn(i, e.Tag, e.Value)
		}
		return
	}
	for i, idx := range fs.Indexes() {
		fn(i, strconv.Itoa(idx), fs.fields[idx])
	}
}

// tagIndex returns the numeric value of an all-digit tag, NoIndex otherwise.
func tagIndex(tag string) int {
	if tag == "" {
		return NoIndex
	}
	n, err := strconv.Atoi(tag)
	if err != nil || n < 0 {
		return NoIndex
	}
	return n
}
