package iso8583

import (
	"fmt"
	"sort"
)

// TaggedPackager packs sequences of [tag token][value] where each field is
// identified by a fixed-width tag instead of a bitmap position, as in
// private-use tag runs. It is immutable and safe for concurrent use; the
// resumable cursor lives in PackCursor.
type TaggedPackager struct {
	tagWidth       int
	codecs         map[string]FieldCodec
	defaultCodec   FieldCodec
	maxLength      int
	numericTags    bool
	tagInterpreter Interpreter
	tracer         Tracer
}

// NewTaggedPackager creates a packager for tags of tagWidth characters.
func NewTaggedPackager(tagWidth int, codecs map[string]FieldCodec, opts ...PackagerOption) (*TaggedPackager, error) {
	cfg := defaultPackagerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if tagWidth <= 0 {
		return nil, &SchemaError{Field: NoIndex, Err: fmt.Errorf("%w: tag width %d", ErrMalformedSchema, tagWidth)}
	}
	p := &TaggedPackager{
		tagWidth:       tagWidth,
		codecs:         make(map[string]FieldCodec, len(codecs)),
		defaultCodec:   cfg.defaultCodec,
		maxLength:      cfg.maxLength,
		numericTags:    cfg.numericTags,
		tagInterpreter: cfg.tagInterpreter,
		tracer:         cfg.tracer,
	}
	for tag, c := range codecs {
		if len(tag) != tagWidth {
			return nil, &SchemaError{Field: tagIndex(tag), Err: fmt.Errorf("%w: tag %q is not %d characters", ErrMalformedSchema, tag, tagWidth)}
		}
		p.codecs[tag] = c
	}
	return p, nil
}

// TagWidth returns the tag token width in characters.
func (p *TaggedPackager) TagWidth() int {
	return p.tagWidth
}

// MaxLength returns the packed size budget, 0 when unbounded.
func (p *TaggedPackager) MaxLength() int {
	return p.maxLength
}

// Tags returns the tags with a dedicated codec, sorted.
func (p *TaggedPackager) Tags() []string {
	tags := make([]string, 0, len(p.codecs))
	for t := range p.codecs {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Codec resolves the codec for tag, falling back to the default codec.
func (p *TaggedPackager) Codec(tag string) (FieldCodec, error) {
	if c, ok := p.codecs[tag]; ok {
		return c, nil
	}
	if p.defaultCodec != nil {
		return p.defaultCodec, nil
	}
	return nil, &LookupError{Tag: tag}
}

func (p *TaggedPackager) NewFieldSet() *FieldSet {
	return NewTaggedFieldSet()
}

// Pack packs every entry that fits the length budget.
//
// Once the next entry would push the packed size past MaxLength, packing
// stops without an error and the remaining entries are left out. Use
// PackFrom or a PackCursor to emit them in further calls.
func (p *TaggedPackager) Pack(fs *FieldSet) ([]byte, error) {
	b, _, err := p.PackFrom(fs, 0)
	return b, err
}

// PackFrom packs entries starting at position start and returns the
// position of the first entry left out, equal to the entry count when
// everything was packed.
func (p *TaggedPackager) PackFrom(fs *FieldSet, start int) ([]byte, int, error) {
	if fs == nil || !fs.Tagged() {
		return nil, start, fmt.Errorf("%w: tagged packager needs a tagged field set", ErrAddressing)
	}
	pieces := make([][]byte, 0, len(fs.entries))
	total := 0
	next := start
	for ; next < len(fs.entries); next++ {
		e := fs.entries[next]
		b, err := p.packEntry(e)
		if err != nil {
			return nil, next, err
		}
		if p.maxLength > 0 && total+len(b) > p.maxLength {
			break
		}
		p.tracer.Trace(TraceEvent{Op: "pack", Field: e.Index, Tag: e.Tag, Codec: p.codecNameFor(e.Tag), Offset: total, Length: len(b), Value: e.Value})
		pieces = append(pieces, b)
		total += len(b)
	}

	out := make([]byte, 0, total)
	for _, b := range pieces {
		out = append(out, b...)
	}
	return out, next, nil
}

func (p *TaggedPackager) packEntry(e Entry) ([]byte, error) {
	if len(e.Tag) != p.tagWidth {
		return nil, &FormatError{Op: "pack", Field: e.Index, Tag: e.Tag, Err: fmt.Errorf("%w: tag is %d characters, want %d", ErrLengthExceeded, len(e.Tag), p.tagWidth)}
	}
	codec, err := p.Codec(e.Tag)
	if err != nil {
		return nil, err
	}
	value, err := codec.Pack(e.Value)
	if err != nil {
		return nil, wrapFormat("pack", e.Index, e.Tag, err)
	}
	tlen := p.tagInterpreter.PackedLength(p.tagWidth)
	out := make([]byte, tlen+len(value))
	if err := p.tagInterpreter.Interpret(out, e.Tag); err != nil {
		return nil, &FormatError{Op: "pack", Field: e.Index, Tag: e.Tag, Err: err}
	}
	copy(out[tlen:], value)
	return out, nil
}

func (p *TaggedPackager) Unpack(fs *FieldSet, src []byte) (int, error) {
	if fs == nil || !fs.Tagged() {
		return 0, fmt.Errorf("%w: tagged packager needs a tagged field set", ErrAddressing)
	}
	tlen := p.tagInterpreter.PackedLength(p.tagWidth)
	offset := 0
	for offset < len(src) {
		if err := available(src, offset, tlen); err != nil {
			return offset, &FormatError{Op: "unpack", Field: NoIndex, Err: fmt.Errorf("truncated tag: %w", err)}
		}
		tag, err := p.tagInterpreter.Uninterpret(src[offset:], p.tagWidth)
		if err != nil {
			return offset, &FormatError{Op: "unpack", Field: NoIndex, Err: err}
		}
		codec, err := p.Codec(tag)
		if err != nil {
			return offset, err
		}
		index := NoIndex
		if p.numericTags {
			if index = tagIndex(tag); index == NoIndex {
				return offset, &FormatError{Op: "unpack", Field: NoIndex, Tag: tag, Err: fmt.Errorf("%w: tag is not numeric", ErrInvalidEncoding)}
			}
		}
		v, n, err := codec.Unpack(src, offset+tlen)
		if !v.IsZero() {
			fs.appendEntry(Entry{Index: index, Tag: tag, Value: v})
		}
		if err != nil {
			return offset, wrapFormat("unpack", index, tag, err)
		}
		p.tracer.Trace(TraceEvent{Op: "unpack", Field: index, Tag: tag, Codec: codecName(codec), Offset: offset, Length: tlen + n, Value: v})
		offset += tlen + n
	}
	return offset, nil
}

func (p *TaggedPackager) codecNameFor(tag string) string {
	c, err := p.Codec(tag)
	if err != nil {
		return ""
	}
	return codecName(c)
}

// PackCursor splits one tagged sequence across several packed chunks, each
// call resuming after the last entry packed. A cursor is not safe for
// concurrent use.
type PackCursor struct {
	packager *TaggedPackager
	offset   int
}

// NewCursor returns a cursor positioned at the first entry.
func (p *TaggedPackager) NewCursor() *PackCursor {
	return &PackCursor{packager: p}
}

// Pack emits the next chunk. It fails with ErrLengthExceeded when a single
// entry is larger than the length budget, since no chunk could hold it.
func (c *PackCursor) Pack(fs *FieldSet) ([]byte, error) {
	b, next, err := c.packager.PackFrom(fs, c.offset)
	if err != nil {
		return nil, err
	}
	if next == c.offset && next < fs.Len() {
		e := fs.entries[next]
		return nil, &FormatError{Op: "pack", Field: e.Index, Tag: e.Tag, Err: fmt.Errorf("%w: entry larger than max length %d", ErrLengthExceeded, c.packager.maxLength)}
	}
	c.offset = next
	return b, nil
}

// Offset returns the position of the next entry to pack.
func (c *PackCursor) Offset() int {
	return c.offset
}

// Done reports whether every entry of fs has been packed.
func (c *PackCursor) Done(fs *FieldSet) bool {
	return c.offset >= fs.Len()
}

// Reset rewinds the cursor.
func (c *PackCursor) Reset() {
	c.offset = 0
}
