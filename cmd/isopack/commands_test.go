package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/mkadit/go-iso8583"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetField(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	schemaName = "iso87a"
	p, e := loadPackager()
	require.NoError(e)

	fs := p.NewFieldSet()
	require.NoError(setField(p, fs, "0=0200"))
	require.NoError(setField(p, fs, "11=123456"))
	require.NoError(setField(p, fs, "55=9F020100"))
	assert.Equal("123456", fs.GetText(11))
	v, _ := fs.Get(55)
	assert.Equal(iso8583.KindBinary, v.Kind())

	assert.Error(setField(p, fs, "11"))
	assert.Error(setField(p, fs, "x=1"))
	assert.Error(setField(p, fs, "55=ZZ"))
	assert.ErrorIs(setField(p, fs, "200=1"), iso8583.ErrNoCodec)

	b, e := p.Pack(fs)
	require.NoError(e)
	assert.Equal("0200", string(b[:4]))
}

func TestSetFieldTagged(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	p, e := iso8583.NewBuilder(nil).Build(&iso8583.Schema{
		Kind:     iso8583.KindTagged,
		TagWidth: 2,
		Fields:   []iso8583.FieldSchema{{Tag: "01", Type: "llchar", Length: 20}},
	})
	require.NoError(e)

	fs := p.NewFieldSet()
	require.NoError(setField(p, fs, "01=HELLO"))
	assert.Error(setField(p, fs, "02=X"))
	b, e := p.Pack(fs)
	require.NoError(e)
	assert.Equal("0105HELLO", string(b))
}

func TestParseLevel(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(zapcore.WarnLevel, parseLevel(""))
	assert.Equal(zapcore.DebugLevel, parseLevel("D"))
	assert.Equal(zapcore.DebugLevel, parseLevel("V"))
	assert.Equal(zapcore.InfoLevel, parseLevel("INFO"))
	assert.Equal(zapcore.ErrorLevel, parseLevel("E"))
	assert.Equal(zapcore.WarnLevel, parseLevel("?"))
}

func TestWriteFieldSet(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	sub := iso8583.NewTaggedFieldSet()
	require.NoError(sub.AppendTag("01", iso8583.Text("HI")))
	fs := iso8583.NewFieldSet()
	require.NoError(fs.SetText(0, "0100"))
	require.NoError(fs.Set(48, iso8583.Composite(sub)))
	require.NoError(fs.SetBinary(52, []byte{0xAB, 0xCD}))

	var buf bytes.Buffer
	require.NoError(writeFieldSet(&buf, fs, "text"))
	assert.Equal("0: 0100\n48:\n  01: HI\n52: ABCD\n", buf.String())

	buf.Reset()
	require.NoError(writeFieldSet(&buf, fs, "json"))
	var decoded []map[string]interface{}
	require.NoError(json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(decoded, 3)
	assert.Equal("48", decoded[1]["field"])
	assert.Equal("ABCD", decoded[2]["value"])

	buf.Reset()
	require.NoError(writeFieldSet(&buf, fs, "cbor"))
	var fields []outField
	require.NoError(cbor.Unmarshal(buf.Bytes(), &fields))
	require.Len(fields, 3)
	assert.Equal("0100", fields[0].Value)
	assert.Equal([]byte{0xAB, 0xCD}, fields[2].Value)

	assert.Error(writeFieldSet(&buf, fs, "xml"))
}
