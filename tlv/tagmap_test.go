package tlv_test

import (
	"errors"
	"testing"

	"github.com/mkadit/go-iso8583/tlv"
)

func TestTagMapPack(t *testing.T) {
	assert, require := makeAR(t)

	m, e := tlv.NewTagMap()
	require.NoError(e)
	require.NoError(m.Set("02", "ValueXyZ"))
	require.NoError(m.Set("01", ""))
	wire, e := m.Pack()
	require.NoError(e)
	assert.Equal("02008ValueXyZ"+"01000", string(wire))

	require.NoError(m.Set("02", "Other"))
	assert.Equal(2, m.Len())
	v, ok := m.Get("02")
	assert.True(ok)
	assert.Equal("Other", v)

	assert.True(m.Delete("01"))
	assert.False(m.Delete("01"))
	_, ok = m.Get("01")
	assert.False(ok)
	assert.Equal([]tlv.MapEntry{{Tag: "02", Value: "Other"}}, m.Entries())

	assert.ErrorIs(m.Set("123", "X"), tlv.ErrInvalidTag)
}

func TestTagMapSwap(t *testing.T) {
	assert, require := makeAR(t)

	m, e := tlv.NewTagMap(tlv.WithSwap(true))
	require.NoError(e)
	require.NoError(m.Set("02", "ValueXyZ"))
	wire, e := m.Pack()
	require.NoError(e)
	assert.Equal("00802ValueXyZ", string(wire))

	decoded, _ := tlv.NewTagMap(tlv.WithSwap(true))
	require.NoError(decoded.Unpack(wire))
	assert.Equal(m.Entries(), decoded.Entries())
}

func TestTagMapUnpack(t *testing.T) {
	assert, require := makeAR(t)

	m, e := tlv.NewTagMap(tlv.WithTagWidth(3), tlv.WithLengthWidth(2))
	require.NoError(e)
	require.NoError(m.Unpack([]byte("A0103ABCB0200C0105HELLO")))
	assert.Equal([]tlv.MapEntry{
		{Tag: "A01", Value: "ABC"},
		{Tag: "B02", Value: ""},
		{Tag: "C01", Value: "HELLO"},
	}, m.Entries())

	e = m.Unpack([]byte("A0103ABCB02"))
	assert.ErrorIs(e, tlv.ErrTruncated)
	assert.Equal(1, m.Len())

	e = m.Unpack([]byte("A0109ABC"))
	assert.ErrorIs(e, tlv.ErrTruncated)
	assert.Equal(0, m.Len())

	e = m.Unpack([]byte("A01X3ABC"))
	assert.ErrorIs(e, tlv.ErrInvalidLength)

	e = m.Unpack([]byte("A0103ABCB0209X"))
	var fe *tlv.FormatError
	require.True(errors.As(e, &fe))
	assert.Equal("B02", fe.Tag)
	assert.Equal(8, fe.Offset)
	assert.ErrorIs(e, tlv.ErrTruncated)

	require.NoError(m.Unpack(nil))
	assert.Equal(0, m.Len())
}

func TestTagMapLimits(t *testing.T) {
	assert, require := makeAR(t)

	for _, opts := range [][]tlv.TagMapOption{
		{tlv.WithTagWidth(0)},
		{tlv.WithTagWidth(5)},
		{tlv.WithLengthWidth(0)},
		{tlv.WithLengthWidth(6)},
	} {
		_, e := tlv.NewTagMap(opts...)
		assert.ErrorIs(e, tlv.ErrInvalidSize)
	}

	m, e := tlv.NewTagMap(tlv.WithTagWidth(1), tlv.WithLengthWidth(1))
	require.NoError(e)
	require.NoError(m.Set("A", "123456789"))
	_, e = m.Pack()
	assert.NoError(e)
	require.NoError(m.Set("A", "1234567890"))
	_, e = m.Pack()
	assert.ErrorIs(e, tlv.ErrLengthExceeded)
}
