package iso8583_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/mkadit/go-iso8583"
)

func numericCodec(length int) iso8583.FieldCodec {
	return &iso8583.StringCodec{Type: "numeric", MaxLength: length, Padder: iso8583.ZeroPadder, Interpreter: iso8583.ASCIIInterpreter{}}
}

func charCodec(length int) iso8583.FieldCodec {
	return &iso8583.StringCodec{Type: "char", MaxLength: length, Padder: iso8583.SpacePadder, Interpreter: iso8583.ASCIIInterpreter{}}
}

func llCodec(length int) iso8583.FieldCodec {
	return &iso8583.StringCodec{Type: "llchar", MaxLength: length, Interpreter: iso8583.ASCIIInterpreter{}, Prefixer: iso8583.LL}
}

func makeMessagePackager(t *testing.T, opts ...iso8583.PackagerOption) *iso8583.MessagePackager {
	fields := make([]iso8583.FieldCodec, 71)
	fields[0] = &iso8583.StringCodec{MaxLength: 4, Interpreter: iso8583.ASCIIInterpreter{}}
	fields[1] = &iso8583.BitmapCodec{Encoding: iso8583.BitmapEncodingHex}
	fields[2] = llCodec(19)
	fields[3] = numericCodec(6)
	fields[4] = numericCodec(12)
	fields[11] = numericCodec(6)
	fields[41] = charCodec(8)
	fields[48] = &iso8583.CompositeCodec{
		Envelope: &iso8583.StringCodec{MaxLength: 999, Interpreter: iso8583.ASCIIInterpreter{}, Prefixer: iso8583.LLL},
		Inner:    makeSubPackager(t),
	}
	fields[70] = numericCodec(3)
	p, e := iso8583.NewMessagePackager(fields, opts...)
	if e != nil {
		t.Fatal(e)
	}
	return p
}

// makeSubPackager returns a bitmap-less packager of a fixed field and an
// LLVAR field.
func makeSubPackager(t *testing.T) *iso8583.MessagePackager {
	p, e := iso8583.NewMessagePackager([]iso8583.FieldCodec{charCodec(2), llCodec(20)}, iso8583.WithEmitBitmap(false))
	if e != nil {
		t.Fatal(e)
	}
	return p
}

func makeRequest(require interface{ NoError(error, ...interface{}) }) *iso8583.FieldSet {
	fs := iso8583.NewFieldSet()
	require.NoError(fs.SetText(0, "0200"))
	require.NoError(fs.SetText(2, "4111111111111111"))
	require.NoError(fs.SetText(3, "310000"))
	require.NoError(fs.SetText(4, "1000"))
	require.NoError(fs.SetText(11, "123456"))
	require.NoError(fs.SetText(41, "TERM0001"))
	return fs
}

func TestMessagePackagerRoundTrip(t *testing.T) {
	assert, require := makeAR(t)
	p := makeMessagePackager(t)

	fs := makeRequest(require)
	wire, e := p.Pack(fs)
	require.NoError(e)
	assert.Equal("0200"+"7020000000800000"+"164111111111111111"+"310000"+"000000001000"+"123456"+"TERM0001", string(wire))

	decoded := p.NewFieldSet()
	n, e := p.Unpack(decoded, wire)
	require.NoError(e)
	assert.Equal(len(wire), n)
	assert.True(fs.Equal(decoded), "%s != %s", fs, decoded)
	assert.Equal([]int{2, 3, 4, 11, 41}, decoded.Bitmap().Fields())

	again, e := p.Pack(decoded)
	require.NoError(e)
	assert.Equal(wire, again)
}

func TestMessagePackagerSecondaryBitmap(t *testing.T) {
	assert, require := makeAR(t)
	p := makeMessagePackager(t)

	fs := makeRequest(require)
	require.NoError(fs.SetText(70, "301"))
	wire, e := p.Pack(fs)
	require.NoError(e)
	assert.Equal("F0200000008000000400000000000000", string(wire[4:36]))
	assert.Equal("301", string(wire[len(wire)-3:]))

	decoded := p.NewFieldSet()
	_, e = p.Unpack(decoded, wire)
	require.NoError(e)
	assert.True(decoded.Bitmap().HasSecondary())
	assert.Equal("301", decoded.GetText(70))
	assert.False(decoded.Has(1))
}

func TestMessagePackagerComposite(t *testing.T) {
	assert, require := makeAR(t)
	p := makeMessagePackager(t)

	sub := iso8583.NewFieldSet()
	require.NoError(sub.SetText(0, "AB"))
	require.NoError(sub.SetText(1, "XYZ"))
	fs := iso8583.NewFieldSet()
	require.NoError(fs.SetText(0, "0100"))
	require.NoError(fs.Set(48, iso8583.Composite(sub)))

	wire, e := p.Pack(fs)
	require.NoError(e)
	assert.Equal("0100"+"0000000000010000"+"007AB03XYZ", string(wire))

	decoded := p.NewFieldSet()
	_, e = p.Unpack(decoded, wire)
	require.NoError(e)
	v, ok := decoded.Get(48)
	require.True(ok)
	require.Equal(iso8583.KindComposite, v.Kind())
	assert.Equal("XYZ", v.FieldSet().GetText(1))
	assert.True(fs.Equal(decoded))

	_, e = p.Pack(func() *iso8583.FieldSet {
		bad := iso8583.NewFieldSet()
		bad.SetText(0, "0100")
		bad.SetText(48, "flat")
		return bad
	}())
	assert.ErrorIs(e, iso8583.ErrInvalidValue)
}

func TestMessagePackagerCompositePartial(t *testing.T) {
	assert, require := makeAR(t)
	p := makeMessagePackager(t)

	wire := []byte("0100" + "0000000000010000" + "005AB99X")
	decoded := p.NewFieldSet()
	_, e := p.Unpack(decoded, wire)
	require.Error(e)

	var fe *iso8583.FormatError
	require.True(errors.As(e, &fe))
	assert.Equal(1, fe.Field)
	assert.ErrorIs(e, iso8583.ErrLengthExceeded)

	v, ok := decoded.Get(48)
	require.True(ok)
	assert.Equal("AB", v.FieldSet().GetText(0))
	assert.False(v.FieldSet().Has(1))
}

func TestMessagePackagerPartialUnpack(t *testing.T) {
	assert, require := makeAR(t)
	p := makeMessagePackager(t)

	wire, e := p.Pack(makeRequest(require))
	require.NoError(e)

	decoded := p.NewFieldSet()
	_, e = p.Unpack(decoded, wire[:len(wire)-5])
	require.Error(e)
	assert.ErrorIs(e, iso8583.ErrInsufficientData)

	var fe *iso8583.FormatError
	require.True(errors.As(e, &fe))
	assert.Equal("unpack", fe.Op)
	assert.Equal(41, fe.Field)
	assert.Equal([]int{0, 2, 3, 4, 11}, decoded.Indexes())
}

func TestMessagePackagerErrors(t *testing.T) {
	assert, require := makeAR(t)
	p := makeMessagePackager(t)

	fs := makeRequest(require)
	require.NoError(fs.SetText(5, "1"))
	_, e := p.Pack(fs)
	assert.ErrorIs(e, iso8583.ErrNoCodec)
	var fe *iso8583.FormatError
	require.True(errors.As(e, &fe))
	assert.Equal(5, fe.Field)

	_, e = p.Unpack(p.NewFieldSet(), []byte("0200"+"0800000000000000"))
	assert.ErrorIs(e, iso8583.ErrNoCodec)

	_, e = p.Unpack(p.NewFieldSet(), []byte("0200"+"70"))
	assert.ErrorIs(e, iso8583.ErrInvalidBitmap)

	_, e = p.Pack(iso8583.NewTaggedFieldSet())
	assert.ErrorIs(e, iso8583.ErrAddressing)

	fs.Unset(5)
	require.NoError(fs.SetText(41, "TERMINAL-X"))
	_, e = p.Pack(fs)
	assert.ErrorIs(e, iso8583.ErrLengthExceeded)
}

func TestMessagePackagerWithoutBitmap(t *testing.T) {
	assert, require := makeAR(t)

	p, e := iso8583.NewMessagePackager([]iso8583.FieldCodec{numericCodec(4), charCodec(3), llCodec(10)}, iso8583.WithEmitBitmap(false))
	require.NoError(e)

	fs := iso8583.NewFieldSet()
	require.NoError(fs.SetText(0, "0800"))
	require.NoError(fs.SetText(1, "ABC"))
	require.NoError(fs.SetText(2, "HELLO"))
	wire, e := p.Pack(fs)
	require.NoError(e)
	assert.Equal("0800ABC05HELLO", string(wire))

	decoded := p.NewFieldSet()
	n, e := p.Unpack(decoded, []byte("0800ABC"))
	require.NoError(e)
	assert.Equal(7, n)
	assert.Equal([]int{0, 1}, decoded.Indexes())

	fs.Unset(1)
	_, e = p.Pack(fs)
	assert.ErrorIs(e, iso8583.ErrMissingField)
}

func TestMessagePackagerHeader(t *testing.T) {
	assert, require := makeAR(t)
	p := makeMessagePackager(t, iso8583.WithHeaderLength(2))

	fs := makeRequest(require)
	fs.SetHeader([]byte("H1"))
	wire, e := p.Pack(fs)
	require.NoError(e)
	assert.Equal("H10200", string(wire[:6]))

	decoded := p.NewFieldSet()
	_, e = p.Unpack(decoded, wire)
	require.NoError(e)
	assert.Equal([]byte("H1"), decoded.Header())
	assert.Equal("0200", decoded.GetText(0))

	fs.SetHeader([]byte("H"))
	_, e = p.Pack(fs)
	assert.ErrorIs(e, iso8583.ErrLengthExceeded)
}

func TestNewMessagePackagerChecks(t *testing.T) {
	assert, _ := makeAR(t)

	_, e := iso8583.NewMessagePackager([]iso8583.FieldCodec{numericCodec(4), charCodec(3)})
	var se *iso8583.SchemaError
	assert.True(errors.As(e, &se))
	assert.ErrorIs(e, iso8583.ErrMissingField)
	assert.Equal(1, se.Field)

	_, e = iso8583.NewMessagePackager([]iso8583.FieldCodec{numericCodec(4)})
	assert.ErrorIs(e, iso8583.ErrMissingField)

	_, e = iso8583.NewMessagePackager(nil, iso8583.WithEmitBitmap(false), iso8583.WithHeaderLength(-1))
	assert.ErrorIs(e, iso8583.ErrMalformedSchema)
}

func TestMessagePackagerTracer(t *testing.T) {
	assert, require := makeAR(t)

	var events []iso8583.TraceEvent
	p := makeMessagePackager(t, iso8583.WithTracer(iso8583.TracerFunc(func(ev iso8583.TraceEvent) {
		events = append(events, ev)
	})))
	wire, e := p.Pack(makeRequest(require))
	require.NoError(e)
	require.Len(events, 7)
	assert.Equal(1, events[1].Field)
	assert.Equal("llchar", events[2].Codec)
	assert.Equal(4+16, events[2].Offset)

	events = nil
	_, e = p.Unpack(p.NewFieldSet(), wire)
	require.NoError(e)
	assert.Len(events, 7)
	assert.Equal("unpack", events[0].Op)
}

func TestMessagePackagerConcurrent(t *testing.T) {
	assert, require := makeAR(t)
	p := makeMessagePackager(t)

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fs := iso8583.NewFieldSet()
			fs.SetText(0, "0200")
			fs.SetText(11, fmt.Sprintf("%d", 100000+i))
			wire, e := p.Pack(fs)
			if e != nil {
				errs[i] = e
				return
			}
			decoded := p.NewFieldSet()
			if _, e = p.Unpack(decoded, wire); e != nil {
				errs[i] = e
				return
			}
			if !fs.Equal(decoded) {
				errs[i] = fmt.Errorf("%s != %s", fs, decoded)
			}
		}(i)
	}
	wg.Wait()
	for _, e := range errs {
		assert.NoError(e)
	}
	require.Equal(70, p.MaxValidField())
}
