package iso8583

// packagerConfig collects the settings shared by MessagePackager and
// TaggedPackager. Each packager reads the ones that apply to it.
type packagerConfig struct {
	emitBitmap   bool
	bitmapField  int
	headerLength int
	tracer       Tracer

	defaultCodec   FieldCodec
	maxLength      int
	numericTags    bool
	tagInterpreter Interpreter
}

func defaultPackagerConfig() packagerConfig {
	return packagerConfig{
		emitBitmap:     true,
		bitmapField:    1,
		tracer:         NopTracer{},
		tagInterpreter: ASCIIInterpreter{},
	}
}

// PackagerOption represents a functional option for packager configuration.
type PackagerOption func(*packagerConfig)

// WithEmitBitmap turns presence bitmap emission on or off. Default on.
func WithEmitBitmap(emit bool) PackagerOption {
	return func(pc *packagerConfig) {
		pc.emitBitmap = emit
	}
}

// WithBitmapField sets the index of the field carrying the bitmap. Default 1.
func WithBitmapField(index int) PackagerOption {
	return func(pc *packagerConfig) {
		pc.bitmapField = index
	}
}

// WithHeaderLength reserves a fixed-size header in front of field 0.
func WithHeaderLength(n int) PackagerOption {
	return func(pc *packagerConfig) {
		pc.headerLength = n
	}
}

// WithTracer installs a diagnostic sink. A nil tracer disables tracing.
func WithTracer(t Tracer) PackagerOption {
	return func(pc *packagerConfig) {
		if t == nil {
			t = NopTracer{}
		}
		pc.tracer = t
	}
}

// WithDefaultCodec sets the codec used for tags without their own codec.
func WithDefaultCodec(c FieldCodec) PackagerOption {
	return func(pc *packagerConfig) {
		pc.defaultCodec = c
	}
}

// WithMaxLength bounds the packed size of a tagged sequence. 0 means no bound.
func WithMaxLength(n int) PackagerOption {
	return func(pc *packagerConfig) {
		pc.maxLength = n
	}
}

// WithNumericTags exposes the integer value of each tag as the entry index.
func WithNumericTags(numeric bool) PackagerOption {
	return func(pc *packagerConfig) {
		pc.numericTags = numeric
	}
}

// WithTagInterpreter sets how tag tokens are encoded. Default ASCII.
func WithTagInterpreter(i Interpreter) PackagerOption {
	return func(pc *packagerConfig) {
		pc.tagInterpreter = i
	}
}
