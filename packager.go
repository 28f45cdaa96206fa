package iso8583

import "fmt"

// Packager packs a FieldSet into wire bytes and back.
type Packager interface {
	Pack(fs *FieldSet) ([]byte, error)
	// Unpack fills fs from src and returns the bytes consumed. On failure
	// the fields decoded so far stay in fs.
	Unpack(fs *FieldSet, src []byte) (int, error)
	// NewFieldSet returns an empty set addressed the way this packager expects.
	NewFieldSet() *FieldSet
}

// MessagePackager is the bitmap-driven packager of ISO8583 messages and
// sub-messages. It holds one FieldCodec per field index and is immutable
// and safe for concurrent use.
//
// Wire layout: [header][fields below the bitmap field][bitmap][present
// fields ascending], with no delimiters between fields.
type MessagePackager struct {
	fields       []FieldCodec
	emitBitmap   bool
	bitmapField  int
	headerLength int
	tracer       Tracer
}

// NewMessagePackager creates a packager from codecs indexed by field number;
// nil entries are unconfigured fields. The highest index is the max valid
// field.
func NewMessagePackager(fields []FieldCodec, opts ...PackagerOption) (*MessagePackager, error) {
	cfg := defaultPackagerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &MessagePackager{
		fields:       append([]FieldCodec(nil), fields...),
		emitBitmap:   cfg.emitBitmap,
		bitmapField:  cfg.bitmapField,
		headerLength: cfg.headerLength,
		tracer:       cfg.tracer,
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *MessagePackager) check() error {
	if p.headerLength < 0 {
		return &SchemaError{Field: NoIndex, Err: fmt.Errorf("%w: header length %d", ErrMalformedSchema, p.headerLength)}
	}
	if !p.emitBitmap {
		return nil
	}
	if p.bitmapField < 0 || p.bitmapField >= len(p.fields) {
		return &SchemaError{Field: p.bitmapField, Err: fmt.Errorf("%w: bitmap field not configured", ErrMissingField)}
	}
	if _, ok := p.fields[p.bitmapField].(*BitmapCodec); !ok {
		return &SchemaError{Field: p.bitmapField, Err: fmt.Errorf("%w: bitmap field has no bitmap codec", ErrMissingField)}
	}
	if p.MaxValidField() > MaxFieldNumber {
		return &SchemaError{Field: p.MaxValidField(), Err: fmt.Errorf("%w: bitmap covers at most %d fields", ErrMalformedSchema, MaxFieldNumber)}
	}
	if p.bitmapField != 1 && len(p.fields) > 1 && p.fields[1] != nil {
		return &SchemaError{Field: 1, Err: fmt.Errorf("%w: bit 1 announces the secondary bitmap", ErrMalformedSchema)}
	}
	return nil
}

// MaxValidField returns the highest configurable field index.
func (p *MessagePackager) MaxValidField() int {
	return len(p.fields) - 1
}

// EmitBitmap reports whether a presence bitmap is packed.
func (p *MessagePackager) EmitBitmap() bool {
	return p.emitBitmap
}

// BitmapField returns the index of the bitmap field.
func (p *MessagePackager) BitmapField() int {
	return p.bitmapField
}

// FieldCodec returns the codec of a field, nil if unconfigured.
func (p *MessagePackager) FieldCodec(index int) FieldCodec {
	if index < 0 || index >= len(p.fields) {
		return nil
	}
	return p.fields[index]
}

func (p *MessagePackager) NewFieldSet() *FieldSet {
	return NewFieldSet()
}

func (p *MessagePackager) Pack(fs *FieldSet) ([]byte, error) {
	if fs == nil || fs.Tagged() {
		return nil, fmt.Errorf("%w: message packager needs an indexed field set", ErrAddressing)
	}

	pieces := make([][]byte, 0, fs.Len()+2)
	total := 0
	emit := func(b []byte) {
		pieces = append(pieces, b)
		total += len(b)
	}

	if p.headerLength > 0 {
		h := fs.Header()
		if len(h) != p.headerLength {
			return nil, &FormatError{Op: "pack", Tag: "header", Err: fmt.Errorf("%w: header length %d, want %d", ErrLengthExceeded, len(h), p.headerLength)}
		}
		emit(h)
	}

	indexes := fs.Indexes()
	if !p.emitBitmap {
		if err := p.checkContiguous(fs, indexes); err != nil {
			return nil, err
		}
	}

	var bm Bitmap
	bitmapDone := !p.emitBitmap
	for _, i := range indexes {
		if p.emitBitmap && i == p.bitmapField {
			continue
		}
		if p.emitBitmap && i > p.bitmapField {
			if err := bm.Set(i); err != nil {
				return nil, packError(i, err)
			}
		}
	}

	for _, i := range indexes {
		if p.emitBitmap && i == p.bitmapField {
			continue
		}
		if !bitmapDone && i > p.bitmapField {
			b, err := p.packBitmap(&bm, total)
			if err != nil {
				return nil, err
			}
			emit(b)
			bitmapDone = true
		}
		codec := p.FieldCodec(i)
		if codec == nil {
			return nil, packError(i, ErrNoCodec)
		}
		v, _ := fs.Get(i)
		b, err := codec.Pack(v)
		if err != nil {
			return nil, packError(i, err)
		}
		p.tracer.Trace(TraceEvent{Op: "pack", Field: i, Codec: codecName(codec), Offset: total, Length: len(b), Value: v})
		emit(b)
	}
	if !bitmapDone {
		b, err := p.packBitmap(&bm, total)
		if err != nil {
			return nil, err
		}
		emit(b)
	}

	out := make([]byte, 0, total)
	for _, b := range pieces {
		out = append(out, b...)
	}
	return out, nil
}

func (p *MessagePackager) packBitmap(bm *Bitmap, offset int) ([]byte, error) {
	codec := p.fields[p.bitmapField].(*BitmapCodec)
	b, err := codec.PackBitmap(bm)
	if err != nil {
		return nil, packError(p.bitmapField, err)
	}
	p.tracer.Trace(TraceEvent{Op: "pack", Field: p.bitmapField, Codec: codecName(codec), Offset: offset, Length: len(b), Value: Binary(bm.Bytes())})
	return b, nil
}

// checkContiguous rejects sets that leave a configured field empty before a
// present one, which a bitmap-less message cannot express.
func (p *MessagePackager) checkContiguous(fs *FieldSet, indexes []int) error {
	if len(indexes) == 0 {
		return nil
	}
	last := indexes[len(indexes)-1]
	for i := 0; i <= last && i < len(p.fields); i++ {
		if p.fields[i] != nil && !fs.Has(i) {
			return packError(i, fmt.Errorf("%w: field %d absent before field %d", ErrMissingField, i, last))
		}
	}
	return nil
}

func (p *MessagePackager) Unpack(fs *FieldSet, src []byte) (int, error) {
	if fs == nil || fs.Tagged() {
		return 0, fmt.Errorf("%w: message packager needs an indexed field set", ErrAddressing)
	}
	offset := 0
	if p.headerLength > 0 {
		if err := available(src, 0, p.headerLength); err != nil {
			return 0, &FormatError{Op: "unpack", Tag: "header", Err: err}
		}
		fs.header = append([]byte(nil), src[:p.headerLength]...)
		offset = p.headerLength
	}

	if !p.emitBitmap {
		for i := 0; i < len(p.fields) && offset < len(src); i++ {
			n, err := p.unpackField(fs, i, src, offset)
			if err != nil {
				return offset, err
			}
			offset += n
		}
		return offset, nil
	}

	for i := 0; i < p.bitmapField; i++ {
		n, err := p.unpackField(fs, i, src, offset)
		if err != nil {
			return offset, err
		}
		offset += n
	}

	codec := p.fields[p.bitmapField].(*BitmapCodec)
	bm, n, err := codec.UnpackBitmap(src, offset)
	if err != nil {
		return offset, unpackError(p.bitmapField, err)
	}
	p.tracer.Trace(TraceEvent{Op: "unpack", Field: p.bitmapField, Codec: codecName(codec), Offset: offset, Length: n, Value: Binary(bm.Bytes())})
	fs.bitmap = bm
	offset += n

	for i := p.bitmapField + 1; i <= bm.MaxField(); i++ {
		if i == 1 || !bm.IsSet(i) {
			continue
		}
		if p.FieldCodec(i) == nil {
			return offset, unpackError(i, ErrNoCodec)
		}
		n, err := p.unpackField(fs, i, src, offset)
		if err != nil {
			return offset, err
		}
		offset += n
	}
	return offset, nil
}

func (p *MessagePackager) unpackField(fs *FieldSet, i int, src []byte, offset int) (int, error) {
	codec := p.fields[i]
	if codec == nil {
		return 0, nil
	}
	v, n, err := codec.Unpack(src, offset)
	if !v.IsZero() {
		fs.fields[i] = v
	}
	if err != nil {
		return 0, unpackError(i, err)
	}
	p.tracer.Trace(TraceEvent{Op: "unpack", Field: i, Codec: codecName(codec), Offset: offset, Length: n, Value: v})
	return n, nil
}
