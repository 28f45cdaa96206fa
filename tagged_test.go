package iso8583_test

import (
	"errors"
	"testing"

	"github.com/mkadit/go-iso8583"
)

func makeTaggedPackager(t *testing.T, opts ...iso8583.PackagerOption) *iso8583.TaggedPackager {
	p, e := iso8583.NewTaggedPackager(2, map[string]iso8583.FieldCodec{
		"01": llCodec(20),
		"02": charCodec(3),
	}, opts...)
	if e != nil {
		t.Fatal(e)
	}
	return p
}

func makeTaggedSet(require interface{ NoError(error, ...interface{}) }) *iso8583.FieldSet {
	fs := iso8583.NewTaggedFieldSet()
	require.NoError(fs.AppendTag("01", iso8583.Text("HELLO")))
	require.NoError(fs.AppendTag("02", iso8583.Text("ABC")))
	return fs
}

func TestTaggedRoundTrip(t *testing.T) {
	assert, require := makeAR(t)
	p := makeTaggedPackager(t)
	assert.Equal([]string{"01", "02"}, p.Tags())

	fs := makeTaggedSet(require)
	wire, e := p.Pack(fs)
	require.NoError(e)
	assert.Equal("0105HELLO02ABC", string(wire))

	decoded := p.NewFieldSet()
	n, e := p.Unpack(decoded, wire)
	require.NoError(e)
	assert.Equal(len(wire), n)
	assert.True(fs.Equal(decoded))
	assert.Empty(decoded.Indexes())

	decoded = p.NewFieldSet()
	_, e = p.Unpack(decoded, []byte("02XYZ0103ONE02ABC"))
	require.NoError(e)
	entries := decoded.Entries()
	require.Len(entries, 3)
	assert.Equal("02", entries[0].Tag)
	assert.Equal("ONE", entries[1].Value.String())
	assert.Equal("ABC", entries[2].Value.String())
}

func TestTaggedNumericTags(t *testing.T) {
	assert, require := makeAR(t)
	p := makeTaggedPackager(t, iso8583.WithNumericTags(true), iso8583.WithDefaultCodec(llCodec(20)))

	decoded := p.NewFieldSet()
	_, e := p.Unpack(decoded, []byte("0105HELLO02ABC"))
	require.NoError(e)
	assert.Equal([]int{1, 2}, decoded.Indexes())
	assert.Equal("HELLO", decoded.GetText(1))
	assert.Equal("ABC", decoded.GetText(2))

	_, e = p.Unpack(p.NewFieldSet(), []byte("AB03XYZ"))
	assert.ErrorIs(e, iso8583.ErrInvalidEncoding)
}

func TestTaggedLookup(t *testing.T) {
	assert, require := makeAR(t)

	p := makeTaggedPackager(t)
	_, e := p.Codec("03")
	var le *iso8583.LookupError
	require.True(errors.As(e, &le))
	assert.Equal("03", le.Tag)

	decoded := p.NewFieldSet()
	_, e = p.Unpack(decoded, []byte("02ABC0303XYZ"))
	require.True(errors.As(e, &le))
	assert.Equal(1, decoded.Len())

	withDefault := makeTaggedPackager(t, iso8583.WithDefaultCodec(llCodec(20)))
	decoded = withDefault.NewFieldSet()
	_, e = withDefault.Unpack(decoded, []byte("0303XYZ"))
	require.NoError(e)
	v, ok := decoded.GetTag("03")
	assert.True(ok)
	assert.Equal("XYZ", v.String())

	fs := iso8583.NewTaggedFieldSet()
	require.NoError(fs.AppendTag("09", iso8583.Text("ABC")))
	_, e = p.Pack(fs)
	assert.True(errors.As(e, &le))
}

func TestTaggedTruncation(t *testing.T) {
	assert, require := makeAR(t)
	p := makeTaggedPackager(t, iso8583.WithMaxLength(10))
	assert.Equal(10, p.MaxLength())

	fs := makeTaggedSet(require)
	wire, e := p.Pack(fs)
	require.NoError(e)
	assert.Equal("0105HELLO", string(wire))

	wire, next, e := p.PackFrom(fs, 1)
	require.NoError(e)
	assert.Equal("02ABC", string(wire))
	assert.Equal(2, next)
}

func TestTaggedCursor(t *testing.T) {
	assert, require := makeAR(t)
	p := makeTaggedPackager(t, iso8583.WithMaxLength(10))

	fs := makeTaggedSet(require)
	require.NoError(fs.AppendTag("02", iso8583.Text("DEF")))
	cur := p.NewCursor()

	wire, e := cur.Pack(fs)
	require.NoError(e)
	assert.Equal("0105HELLO", string(wire))
	assert.Equal(1, cur.Offset())
	assert.False(cur.Done(fs))

	wire, e = cur.Pack(fs)
	require.NoError(e)
	assert.Equal("02ABC02DEF", string(wire))
	assert.True(cur.Done(fs))

	wire, e = cur.Pack(fs)
	require.NoError(e)
	assert.Empty(wire)

	cur.Reset()
	assert.Equal(0, cur.Offset())

	small := makeTaggedPackager(t, iso8583.WithMaxLength(4))
	_, e = small.NewCursor().Pack(fs)
	assert.ErrorIs(e, iso8583.ErrLengthExceeded)
}

func TestTaggedErrors(t *testing.T) {
	assert, require := makeAR(t)
	p := makeTaggedPackager(t)

	fs := iso8583.NewTaggedFieldSet()
	require.NoError(fs.AppendTag("1", iso8583.Text("ABC")))
	_, e := p.Pack(fs)
	assert.ErrorIs(e, iso8583.ErrLengthExceeded)

	decoded := p.NewFieldSet()
	_, e = p.Unpack(decoded, []byte("0105HELLO0"))
	var fe *iso8583.FormatError
	require.True(errors.As(e, &fe))
	assert.ErrorIs(e, iso8583.ErrInsufficientData)
	assert.Equal(1, decoded.Len())

	_, e = p.Unpack(p.NewFieldSet(), []byte("0199HELLO"))
	require.True(errors.As(e, &fe))
	assert.Equal("01", fe.Tag)

	_, e = p.Pack(iso8583.NewFieldSet())
	assert.ErrorIs(e, iso8583.ErrAddressing)
	_, e = p.Unpack(iso8583.NewFieldSet(), nil)
	assert.ErrorIs(e, iso8583.ErrAddressing)

	_, e = iso8583.NewTaggedPackager(2, map[string]iso8583.FieldCodec{"1": charCodec(3)})
	var se *iso8583.SchemaError
	assert.True(errors.As(e, &se))
	_, e = iso8583.NewTaggedPackager(0, nil)
	assert.ErrorIs(e, iso8583.ErrMalformedSchema)
}

func TestTaggedTagInterpreter(t *testing.T) {
	assert, require := makeAR(t)
	p := makeTaggedPackager(t, iso8583.WithTagInterpreter(iso8583.EBCDICInterpreter{}))

	wire, e := p.Pack(makeTaggedSet(require))
	require.NoError(e)
	assert.Equal(append(append(bytesFromHex("F0F1"), "05HELLO"...), append(bytesFromHex("F0F2"), "ABC"...)...), wire)

	decoded := p.NewFieldSet()
	_, e = p.Unpack(decoded, wire)
	require.NoError(e)
	assert.Equal(2, decoded.Len())
	v, _ := decoded.GetTag("02")
	assert.Equal("ABC", v.String())
}
