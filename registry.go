package iso8583

import (
	"fmt"
	"sort"
	"strings"
)

// Pad directions accepted in FieldSpec.Pad. The pad character follows the
// field type: '0' for numeric types and ' ' for character types. For BCD
// types the direction also selects the nibble alignment of odd lengths.
const (
	PadDefault = ""
	PadNone    = "none"
	PadLeft    = "left"
	PadRight   = "right"
)

// FieldSpec is what a FieldFactory receives from a schema field.
type FieldSpec struct {
	Type        string
	Length      int
	Description string
	Pad         string
}

// FieldFactory builds a codec for one field declaration.
type FieldFactory func(spec FieldSpec) (FieldCodec, error)

// Registry maps field type identifiers to factories. A Registry is plain
// configuration: build it once, then share it read-only.
type Registry struct {
	factories map[string]FieldFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FieldFactory)}
}

// DefaultRegistry returns a new registry holding the built-in field types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for name, f := range builtinTypes() {
		r.factories[name] = f
	}
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f FieldFactory) {
	r.factories[name] = f
}

// Lookup returns the factory registered for name.
func (r *Registry) Lookup(name string) (FieldFactory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Names lists the registered type identifiers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the codec described by spec.
func (r *Registry) New(spec FieldSpec) (FieldCodec, error) {
	f, ok := r.factories[spec.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, spec.Type)
	}
	if spec.Length < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrMalformedSchema, spec.Length)
	}
	return f(spec)
}

type textType struct {
	interpreter Interpreter
	prefixer    Prefixer
	padChar     byte
}

type binaryType struct {
	interpreter BinaryInterpreter
	prefixer    Prefixer
}

func builtinTypes() map[string]FieldFactory {
	types := make(map[string]FieldFactory)

	for name, t := range map[string]textType{
		"char":             {ASCIIInterpreter{}, NullPrefixer{}, ' '},
		"numeric":          {ASCIIInterpreter{}, NullPrefixer{}, '0'},
		"llchar":           {ASCIIInterpreter{}, LL, ' '},
		"lllchar":          {ASCIIInterpreter{}, LLL, ' '},
		"llllchar":         {ASCIIInterpreter{}, LLLL, ' '},
		"llnum":            {ASCIIInterpreter{}, LL, '0'},
		"lllnum":           {ASCIIInterpreter{}, LLL, '0'},
		"ebcdic-char":      {EBCDICInterpreter{}, NullPrefixer{}, ' '},
		"ebcdic-numeric":   {EBCDICInterpreter{}, NullPrefixer{}, '0'},
		"ebcdic-llchar":    {EBCDICInterpreter{}, EBCDICPrefixer{Digits: 2}, ' '},
		"ebcdic-lllchar":   {EBCDICInterpreter{}, EBCDICPrefixer{Digits: 3}, ' '},
		"ebcdic-llnum":     {EBCDICInterpreter{}, EBCDICPrefixer{Digits: 2}, '0'},
		"ebcdic-lllnum":    {EBCDICInterpreter{}, EBCDICPrefixer{Digits: 3}, '0'},
		"bcd-llchar":       {ASCIIInterpreter{}, BCDPrefixer{Digits: 2}, ' '},
		"bcd-lllchar":      {ASCIIInterpreter{}, BCDPrefixer{Digits: 3}, ' '},
		"binary-llchar":    {ASCIIInterpreter{}, BinaryPrefixer{Bytes: 1}, ' '},
		"binary-lllchar":   {ASCIIInterpreter{}, BinaryPrefixer{Bytes: 2}, ' '},
		"hexlen-llchar":    {ASCIIInterpreter{}, HexPrefixer{Digits: 2}, ' '},
		"hexlen-lllchar":   {ASCIIInterpreter{}, HexPrefixer{Digits: 3}, ' '},
		"rest-char":        {ASCIIInterpreter{}, RemainderPrefixer{}, ' '},
		"ebcdic-rest-char": {EBCDICInterpreter{}, RemainderPrefixer{}, ' '},
	} {
		types[name] = textFactory(name, t)
	}

	for name, prefixer := range map[string]Prefixer{
		"bcd-numeric": NullPrefixer{},
		"bcd-llnum":   BCDPrefixer{Digits: 2},
		"bcd-lllnum":  BCDPrefixer{Digits: 3},
	} {
		types[name] = bcdFactory(name, prefixer)
	}

	for name, t := range map[string]binaryType{
		"binary":           {LiteralBinaryInterpreter{}, NullPrefixer{}},
		"llbinary":         {LiteralBinaryInterpreter{}, LL},
		"lllbinary":        {LiteralBinaryInterpreter{}, LLL},
		"bcd-llbinary":     {LiteralBinaryInterpreter{}, BCDPrefixer{Digits: 2}},
		"bcd-lllbinary":    {LiteralBinaryInterpreter{}, BCDPrefixer{Digits: 3}},
		"binary-llbinary":  {LiteralBinaryInterpreter{}, BinaryPrefixer{Bytes: 1}},
		"binary-lllbinary": {LiteralBinaryInterpreter{}, BinaryPrefixer{Bytes: 2}},
		"hex-binary":       {HexBinaryInterpreter{}, NullPrefixer{}},
		"hex-llbinary":     {HexBinaryInterpreter{}, LL},
		"hex-lllbinary":    {HexBinaryInterpreter{}, LLL},
		"ebcdic-binary":    {EBCDICHexBinaryInterpreter{}, NullPrefixer{}},
		"ebcdic-llbinary":  {EBCDICHexBinaryInterpreter{}, EBCDICPrefixer{Digits: 2}},
		"rest-binary":      {LiteralBinaryInterpreter{}, RemainderPrefixer{}},
	} {
		types[name] = binaryFactory(name, t)
	}

	for name, enc := range map[string]BitmapEncoding{
		"bitmap":        BitmapEncodingBinary,
		"hex-bitmap":    BitmapEncodingHex,
		"ebcdic-bitmap": BitmapEncodingEBCDIC,
	} {
		name, enc := name, enc
		types[name] = func(spec FieldSpec) (FieldCodec, error) {
			return &BitmapCodec{Type: name, Desc: spec.Description, Encoding: enc}, nil
		}
	}

	types["fs-char"] = func(spec FieldSpec) (FieldCodec, error) {
		return &TerminatedCodec{Type: "fs-char", MaxLength: spec.Length, Desc: spec.Description, Terminator: FieldSeparator, Interpreter: ASCIIInterpreter{}}, nil
	}
	return types
}

func textFactory(name string, t textType) FieldFactory {
	return func(spec FieldSpec) (FieldCodec, error) {
		padder, err := textPadder(spec.Pad, t.padChar, isFixed(t.prefixer))
		if err != nil {
			return nil, err
		}
		return &StringCodec{
			Type:        name,
			MaxLength:   spec.Length,
			Desc:        spec.Description,
			Padder:      padder,
			Interpreter: t.interpreter,
			Prefixer:    t.prefixer,
		}, nil
	}
}

// textPadder resolves a pad direction. Fixed fields pad by default in the
// natural direction of their pad character; variable fields do not pad.
func textPadder(pad string, char byte, fixed bool) (Padder, error) {
	switch strings.ToLower(pad) {
	case PadDefault:
		if !fixed {
			return NullPadder{}, nil
		}
		if char == '0' {
			return LeftPadder{Char: char}, nil
		}
		return RightPadder{Char: char}, nil
	case PadNone:
		return NullPadder{}, nil
	case PadLeft:
		return LeftPadder{Char: char}, nil
	case PadRight:
		return RightPadder{Char: char}, nil
	}
	return nil, fmt.Errorf("%w: pad %q", ErrMalformedSchema, pad)
}

func bcdFactory(name string, prefixer Prefixer) FieldFactory {
	return func(spec FieldSpec) (FieldCodec, error) {
		interp := BCDLeftPadded
		var padder Padder = NullPadder{}
		switch strings.ToLower(spec.Pad) {
		case PadDefault:
			if isFixed(prefixer) {
				padder = ZeroPadder
			}
		case PadLeft:
			if isFixed(prefixer) {
				padder = ZeroPadder
			}
		case PadRight:
			interp = BCDRightPadded
		case PadNone:
		default:
			return nil, fmt.Errorf("%w: pad %q", ErrMalformedSchema, spec.Pad)
		}
		return &StringCodec{
			Type:        name,
			MaxLength:   spec.Length,
			Desc:        spec.Description,
			Padder:      padder,
			Interpreter: interp,
			Prefixer:    prefixer,
		}, nil
	}
}

func binaryFactory(name string, t binaryType) FieldFactory {
	return func(spec FieldSpec) (FieldCodec, error) {
		if spec.Pad != PadDefault && !strings.EqualFold(spec.Pad, PadNone) {
			return nil, fmt.Errorf("%w: binary type %s takes no pad", ErrMalformedSchema, name)
		}
		return &BinaryCodec{
			Type:        name,
			MaxLength:   spec.Length,
			Desc:        spec.Description,
			Interpreter: t.interpreter,
			Prefixer:    t.prefixer,
		}, nil
	}
}
