package iso8583

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

const maxSchemaDepth = 8

// Builder assembles packager trees from schema documents. A nil Registry
// means DefaultRegistry. The Tracer, if any, is installed on every packager
// of the tree.
type Builder struct {
	Registry *Registry
	Tracer   Tracer
}

// NewBuilder creates a builder resolving field types through reg.
func NewBuilder(reg *Registry) *Builder {
	return &Builder{Registry: reg}
}

// Build parses s depth-first. Every problem found in the document is
// reported, combined with multierr; each one is a *SchemaError.
func (b *Builder) Build(s *Schema) (Packager, error) {
	reg := b.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	st := &buildState{reg: reg, tracer: b.Tracer}
	if s == nil {
		return nil, &SchemaError{Field: NoIndex, Err: fmt.Errorf("%w: empty document", ErrMalformedSchema)}
	}
	p := st.packager(s.Name, s, 0)
	if st.errs != nil {
		return nil, st.errs
	}
	return p, nil
}

// MustBuild is like Build but panics on error. It is meant for schemas
// compiled into the program.
func (b *Builder) MustBuild(s *Schema) Packager {
	p, err := b.Build(s)
	if err != nil {
		panic(err)
	}
	return p
}

type buildState struct {
	reg    *Registry
	tracer Tracer
	errs   error
}

func (st *buildState) fail(path string, field int, typ string, err error) {
	var se *SchemaError
	if errors.As(err, &se) {
		cp := *se
		if cp.Path == "" {
			cp.Path = path
		}
		st.errs = multierr.Append(st.errs, &cp)
		return
	}
	st.errs = multierr.Append(st.errs, &SchemaError{Path: path, Field: field, Type: typ, Err: err})
}

func (st *buildState) packager(path string, s *Schema, depth int) Packager {
	if depth > maxSchemaDepth {
		st.fail(path, NoIndex, "", fmt.Errorf("%w: nesting deeper than %d levels", ErrMalformedSchema, maxSchemaDepth))
		return nil
	}
	switch s.kind() {
	case KindBitmap:
		return st.messagePackager(path, s, depth)
	case KindTagged:
		return st.taggedPackager(path, s, depth)
	}
	st.fail(path, NoIndex, "", fmt.Errorf("%w: unknown kind %q", ErrMalformedSchema, s.Kind))
	return nil
}

func (st *buildState) field(path string, index int, f FieldSchema, depth int) FieldCodec {
	codec, err := st.reg.New(f.spec())
	if err != nil {
		st.fail(path, index, f.Type, err)
		return nil
	}
	if f.Packager == nil {
		return codec
	}
	inner := st.packager(joinPath(path, f.label()), f.Packager, depth+1)
	if inner == nil {
		return nil
	}
	return &CompositeCodec{Envelope: codec, Inner: inner}
}

func (st *buildState) messagePackager(path string, s *Schema, depth int) Packager {
	highest := s.MaxValidField
	for _, f := range s.Fields {
		if f.ID != nil && *f.ID > highest {
			highest = *f.ID
		}
	}
	if s.MaxValidField > 0 && highest > s.MaxValidField {
		st.fail(path, highest, "", fmt.Errorf("%w: field beyond max valid field %d", ErrMalformedSchema, s.MaxValidField))
		return nil
	}
	if highest > MaxFieldNumber {
		st.fail(path, highest, "", fmt.Errorf("%w: field numbers stop at %d", ErrMalformedSchema, MaxFieldNumber))
		return nil
	}

	ok := true
	fields := make([]FieldCodec, highest+1)
	for _, f := range s.Fields {
		if f.ID == nil {
			st.fail(path, NoIndex, f.Type, fmt.Errorf("%w: %s has no id", ErrMalformedSchema, f.label()))
			ok = false
			continue
		}
		id := *f.ID
		if id < 0 {
			st.fail(path, id, f.Type, fmt.Errorf("%w: negative id", ErrMalformedSchema))
			ok = false
			continue
		}
		if fields[id] != nil {
			st.fail(path, id, f.Type, fmt.Errorf("%w: duplicate id", ErrMalformedSchema))
			ok = false
			continue
		}
		codec := st.field(path, id, f, depth)
		if codec == nil {
			ok = false
			continue
		}
		fields[id] = codec
	}
	if !ok {
		return nil
	}

	p, err := NewMessagePackager(fields,
		WithEmitBitmap(s.emitBitmap()),
		WithBitmapField(s.bitmapField()),
		WithHeaderLength(s.HeaderLength),
		WithTracer(st.tracer),
	)
	if err != nil {
		st.fail(path, NoIndex, "", err)
		return nil
	}
	return p
}

func (st *buildState) taggedPackager(path string, s *Schema, depth int) Packager {
	if s.TagWidth <= 0 {
		st.fail(path, NoIndex, "", fmt.Errorf("%w: tagged schema needs tag_width", ErrMalformedSchema))
		return nil
	}

	ok := true
	codecs := make(map[string]FieldCodec, len(s.Fields))
	var defaultCodec FieldCodec
	for _, f := range s.Fields {
		index := tagIndex(f.Tag)
		switch {
		case f.Tag == "" && !f.Default:
			st.fail(path, NoIndex, f.Type, fmt.Errorf("%w: tagged field has no tag", ErrMalformedSchema))
			ok = false
			continue
		case f.Tag != "" && len(f.Tag) != s.TagWidth:
			st.fail(path, index, f.Type, fmt.Errorf("%w: tag %q is not %d characters", ErrMalformedSchema, f.Tag, s.TagWidth))
			ok = false
			continue
		case f.Tag != "" && s.NumericTags && index == NoIndex:
			st.fail(path, NoIndex, f.Type, fmt.Errorf("%w: tag %q is not numeric", ErrMalformedSchema, f.Tag))
			ok = false
			continue
		case f.Tag != "" && codecs[f.Tag] != nil:
			st.fail(path, index, f.Type, fmt.Errorf("%w: duplicate tag %q", ErrMalformedSchema, f.Tag))
			ok = false
			continue
		case f.Default && defaultCodec != nil:
			st.fail(path, index, f.Type, fmt.Errorf("%w: more than one default field", ErrMalformedSchema))
			ok = false
			continue
		}

		codec := st.field(path, index, f, depth)
		if codec == nil {
			ok = false
			continue
		}
		if f.Tag != "" {
			codecs[f.Tag] = codec
		}
		if f.Default {
			defaultCodec = codec
		}
	}
	if !ok {
		return nil
	}

	p, err := NewTaggedPackager(s.TagWidth, codecs,
		WithDefaultCodec(defaultCodec),
		WithMaxLength(s.MaxLength),
		WithNumericTags(s.NumericTags),
		WithTracer(st.tracer),
	)
	if err != nil {
		st.fail(path, NoIndex, "", err)
		return nil
	}
	return p
}

func joinPath(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "/" + elem
}
