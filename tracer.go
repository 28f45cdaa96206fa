package iso8583

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/zap"
)

// TraceEvent describes one field packed or unpacked.
type TraceEvent struct {
	Op     string // "pack" or "unpack"
	Field  int
	Tag    string
	Codec  string
	Offset int
	Length int
	Value  Value
}

// Tracer receives a TraceEvent per field. Tracing never changes results.
type Tracer interface {
	Trace(ev TraceEvent)
}

// NopTracer discards events.
type NopTracer struct{}

func (NopTracer) Trace(TraceEvent) {}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(ev TraceEvent)

func (f TracerFunc) Trace(ev TraceEvent) { f(ev) }

type slogTracer struct {
	logger *slog.Logger
}

// SlogTracer logs events at debug level.
func SlogTracer(logger *slog.Logger) Tracer {
	return slogTracer{logger: logger}
}

func (t slogTracer) Trace(ev TraceEvent) {
	if !t.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	t.logger.Debug(ev.Op,
		slog.Int("field", ev.Field),
		slog.String("tag", ev.Tag),
		slog.String("codec", ev.Codec),
		slog.Int("offset", ev.Offset),
		slog.Int("length", ev.Length),
		slog.Any("value", ev.Value),
	)
}

type zapTracer struct {
	logger *zap.Logger
}

// ZapTracer logs events at debug level.
func ZapTracer(logger *zap.Logger) Tracer {
	return zapTracer{logger: logger}
}

func (t zapTracer) Trace(ev TraceEvent) {
	if ce := t.logger.Check(zap.DebugLevel, ev.Op); ce != nil {
		ce.Write(
			zap.Int("field", ev.Field),
			zap.String("tag", ev.Tag),
			zap.String("codec", ev.Codec),
			zap.Int("offset", ev.Offset),
			zap.Int("length", ev.Length),
			zap.Stringer("value", ev.Value),
		)
	}
}

// codecName returns the registry type of a codec, falling back to its Go type.
func codecName(c FieldCodec) string {
	switch c := c.(type) {
	case *StringCodec:
		if c.Type != "" {
			return c.Type
		}
	case *BinaryCodec:
		if c.Type != "" {
			return c.Type
		}
	case *TerminatedCodec:
		if c.Type != "" {
			return c.Type
		}
	case *BitmapCodec:
		if c.Type != "" {
			return c.Type
		}
	case *CompositeCodec:
		return "composite(" + codecName(c.Envelope) + ")"
	}
	return fmt.Sprintf("%T", c)
}
