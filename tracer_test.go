package iso8583_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/mkadit/go-iso8583"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapTracer(t *testing.T) {
	assert, require := makeAR(t)

	core, logs := observer.New(zapcore.DebugLevel)
	p := makeMessagePackager(t, iso8583.WithTracer(iso8583.ZapTracer(zap.New(core))))
	_, e := p.Pack(makeRequest(require))
	require.NoError(e)

	entries := logs.All()
	require.Len(entries, 7)
	assert.Equal("pack", entries[0].Message)
	ctx := entries[2].ContextMap()
	assert.Equal(int64(2), ctx["field"])
	assert.Equal("llchar", ctx["codec"])
	assert.Equal("4111111111111111", ctx["value"])

	quiet, logs := observer.New(zapcore.InfoLevel)
	p = makeMessagePackager(t, iso8583.WithTracer(iso8583.ZapTracer(zap.New(quiet))))
	_, e = p.Pack(makeRequest(require))
	require.NoError(e)
	assert.Equal(0, logs.Len())
}

func TestSlogTracer(t *testing.T) {
	assert, require := makeAR(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := makeMessagePackager(t, iso8583.WithTracer(iso8583.SlogTracer(logger)))
	wire, e := p.Pack(makeRequest(require))
	require.NoError(e)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(lines, 7)
	assert.Contains(lines[0], `"msg":"pack"`)
	assert.Contains(lines[6], `"field":41`)
	assert.Contains(lines[6], `"value":"TERM0001"`)

	buf.Reset()
	quiet := slog.New(slog.NewJSONHandler(&buf, nil))
	p = makeMessagePackager(t, iso8583.WithTracer(iso8583.SlogTracer(quiet)))
	_, e = p.Unpack(p.NewFieldSet(), wire)
	require.NoError(e)
	assert.Zero(buf.Len())
}

func TestFieldSetLogValue(t *testing.T) {
	assert, require := makeAR(t)

	sub := iso8583.NewTaggedFieldSet()
	require.NoError(sub.AppendTag("01", iso8583.Text("HELLO")))
	fs := iso8583.NewFieldSet()
	require.NoError(fs.SetText(0, "0100"))
	require.NoError(fs.SetBinary(52, []byte{0xAB, 0xCD}))
	require.NoError(fs.Set(48, iso8583.Composite(sub)))

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("message", "fs", fs)
	assert.Contains(buf.String(), `"fs":{"0":"0100","48":{"01":"HELLO"},"52":"ABCD"}`)
}
