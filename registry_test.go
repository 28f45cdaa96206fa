package iso8583_test

import (
	"testing"

	"github.com/mkadit/go-iso8583"
)

func TestRegistryBuiltins(t *testing.T) {
	assert, _ := makeAR(t)

	names := iso8583.DefaultRegistry().Names()
	for _, name := range []string{"numeric", "char", "llnum", "lllchar", "bcd-numeric", "bcd-lllbinary", "hex-bitmap", "ebcdic-llchar", "fs-char", "rest-binary"} {
		assert.Contains(names, name)
	}
	assert.IsIncreasing(names)
}

func TestRegistryTextTypes(t *testing.T) {
	assert, require := makeAR(t)
	reg := iso8583.DefaultRegistry()

	tests := []struct {
		spec   iso8583.FieldSpec
		value  string
		wire   []byte
		unpack string
	}{
		{iso8583.FieldSpec{Type: "numeric", Length: 6}, "42", []byte("000042"), "42"},
		{iso8583.FieldSpec{Type: "numeric", Length: 4, Pad: iso8583.PadRight}, "42", []byte("4200"), "42"},
		{iso8583.FieldSpec{Type: "char", Length: 5}, "AB", []byte("AB   "), "AB"},
		{iso8583.FieldSpec{Type: "char", Length: 5, Pad: iso8583.PadLeft}, "AB", []byte("   AB"), "AB"},
		{iso8583.FieldSpec{Type: "llnum", Length: 19}, "0042", []byte("040042"), "0042"},
		{iso8583.FieldSpec{Type: "lllchar", Length: 999}, "HI", []byte("002HI"), "HI"},
		{iso8583.FieldSpec{Type: "bcd-numeric", Length: 3}, "7", bytesFromHex("0007"), "7"},
		{iso8583.FieldSpec{Type: "bcd-numeric", Length: 4, Pad: iso8583.PadNone}, "1234", bytesFromHex("1234"), "1234"},
		{iso8583.FieldSpec{Type: "bcd-llnum", Length: 19, Pad: iso8583.PadRight}, "123", bytesFromHex("03 1230"), "123"},
		{iso8583.FieldSpec{Type: "bcd-llchar", Length: 99}, "AB", bytesFromHex("02 4142"), "AB"},
		{iso8583.FieldSpec{Type: "binary-llchar", Length: 99}, "AB", bytesFromHex("02 4142"), "AB"},
		{iso8583.FieldSpec{Type: "hexlen-llchar", Length: 255}, "ABCDEFGHIJKLMNOPQRSTUVWXYZ", []byte("1AABCDEFGHIJKLMNOPQRSTUVWXYZ"), "ABCDEFGHIJKLMNOPQRSTUVWXYZ"},
		{iso8583.FieldSpec{Type: "ebcdic-numeric", Length: 3}, "5", bytesFromHex("F0F0F5"), "5"},
		{iso8583.FieldSpec{Type: "fs-char", Length: 10}, "AB", []byte("AB\x1c"), "AB"},
	}
	for _, tt := range tests {
		codec, e := reg.New(tt.spec)
		require.NoError(e, tt.spec.Type)
		wire, e := codec.Pack(iso8583.Text(tt.value))
		require.NoError(e, tt.spec.Type)
		assert.Equal(tt.wire, wire, tt.spec.Type)

		v, n, e := codec.Unpack(wire, 0)
		require.NoError(e, tt.spec.Type)
		assert.Equal(len(wire), n, tt.spec.Type)
		assert.Equal(tt.unpack, v.String(), tt.spec.Type)
	}
}

func TestRegistryBinaryTypes(t *testing.T) {
	assert, require := makeAR(t)
	reg := iso8583.DefaultRegistry()

	tests := []struct {
		spec iso8583.FieldSpec
		wire []byte
	}{
		{iso8583.FieldSpec{Type: "binary", Length: 3}, bytesFromHex("9F0200")},
		{iso8583.FieldSpec{Type: "llbinary", Length: 99}, append([]byte("02"), 0x9F, 0x02)},
		{iso8583.FieldSpec{Type: "bcd-lllbinary", Length: 999}, bytesFromHex("0002 9F02")},
		{iso8583.FieldSpec{Type: "binary-lllbinary", Length: 999}, bytesFromHex("0002 9F02")},
		{iso8583.FieldSpec{Type: "hex-llbinary", Length: 99}, []byte("029F02")},
		{iso8583.FieldSpec{Type: "rest-binary"}, bytesFromHex("9F02")},
	}
	for _, tt := range tests {
		codec, e := reg.New(tt.spec)
		require.NoError(e, tt.spec.Type)
		wire, e := codec.Pack(iso8583.Binary([]byte{0x9F, 0x02}))
		require.NoError(e, tt.spec.Type)
		assert.Equal(tt.wire, wire, tt.spec.Type)
	}
}

func TestRegistryErrors(t *testing.T) {
	assert, require := makeAR(t)
	reg := iso8583.DefaultRegistry()

	_, e := reg.New(iso8583.FieldSpec{Type: "nope"})
	assert.ErrorIs(e, iso8583.ErrUnknownType)

	_, e = reg.New(iso8583.FieldSpec{Type: "char", Length: -1})
	assert.ErrorIs(e, iso8583.ErrMalformedSchema)

	_, e = reg.New(iso8583.FieldSpec{Type: "binary", Length: 8, Pad: iso8583.PadLeft})
	assert.ErrorIs(e, iso8583.ErrMalformedSchema)

	_, e = reg.New(iso8583.FieldSpec{Type: "char", Length: 8, Pad: "middle"})
	assert.ErrorIs(e, iso8583.ErrMalformedSchema)

	codec, e := reg.New(iso8583.FieldSpec{Type: "numeric", Length: 4, Pad: iso8583.PadNone})
	require.NoError(e)
	_, e = codec.Pack(iso8583.Text("42"))
	assert.ErrorIs(e, iso8583.ErrLengthExceeded)
}

func TestRegistryCustom(t *testing.T) {
	assert, require := makeAR(t)

	reg := iso8583.NewRegistry()
	_, ok := reg.Lookup("upper")
	assert.False(ok)
	reg.Register("upper", func(spec iso8583.FieldSpec) (iso8583.FieldCodec, error) {
		return &iso8583.StringCodec{Type: "upper", MaxLength: spec.Length, Desc: spec.Description, Interpreter: iso8583.ASCIIInterpreter{}, Prefixer: iso8583.LL}, nil
	})
	assert.Equal([]string{"upper"}, reg.Names())

	codec, e := reg.New(iso8583.FieldSpec{Type: "upper", Length: 10, Description: "Custom"})
	require.NoError(e)
	assert.Equal("Custom", codec.Description())
	assert.Equal(10, codec.Length())

	_, e = reg.New(iso8583.FieldSpec{Type: "numeric", Length: 4})
	assert.ErrorIs(e, iso8583.ErrUnknownType)
}
