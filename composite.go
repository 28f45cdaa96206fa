package iso8583

import "fmt"

// CompositeCodec is a field whose value is a nested sub-message. The inner
// packager produces the sub-message bytes and the envelope codec packs them
// as one opaque field, usually with a length prefix. The composite owns its
// inner packager.
type CompositeCodec struct {
	Envelope FieldCodec
	Inner    Packager
}

func (c *CompositeCodec) Length() int          { return c.Envelope.Length() }
func (c *CompositeCodec) Description() string  { return c.Envelope.Description() }
func (c *CompositeCodec) MaxPackedLength() int { return c.Envelope.MaxPackedLength() }

func (c *CompositeCodec) Pack(v Value) ([]byte, error) {
	fs := v.FieldSet()
	if fs == nil {
		return nil, fmt.Errorf("%w: %s value in composite field", ErrInvalidValue, v.Kind())
	}
	raw, err := c.Inner.Pack(fs)
	if err != nil {
		return nil, err
	}
	return c.Envelope.Pack(Binary(raw))
}

// Unpack returns the partially decoded nested set together with the error
// when the inner packager fails.
func (c *CompositeCodec) Unpack(src []byte, offset int) (Value, int, error) {
	env, n, err := c.Envelope.Unpack(src, offset)
	if err != nil {
		return Value{}, 0, err
	}
	fs := c.Inner.NewFieldSet()
	if _, err := c.Inner.Unpack(fs, env.Bytes()); err != nil {
		return Composite(fs), n, err
	}
	return Composite(fs), n, nil
}
