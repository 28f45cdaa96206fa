package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/mkadit/go-iso8583"
)

// outField is one field of an exported message. Value is a string, a byte
// slice (CBOR only) or a nested []outField.
type outField struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// fieldTree flattens fs in wire order. Binary values stay raw when rawBinary
// is set and become upper-case hex otherwise.
func fieldTree(fs *iso8583.FieldSet, rawBinary bool) []outField {
	convert := func(v iso8583.Value) interface{} {
		switch v.Kind() {
		case iso8583.KindComposite:
			return fieldTree(v.FieldSet(), rawBinary)
		case iso8583.KindBinary:
			if rawBinary {
				return v.Bytes()
			}
		}
		return v.String()
	}

	var out []outField
	if fs.Tagged() {
		for _, e := range fs.Entries() {
			out = append(out, outField{Field: e.Tag, Value: convert(e.Value)})
		}
		return out
	}
	for _, i := range fs.Indexes() {
		v, _ := fs.Get(i)
		out = append(out, outField{Field: strconv.Itoa(i), Value: convert(v)})
	}
	return out
}

var cborEncMode cbor.EncMode

func init() {
	var e error
	if cborEncMode, e = cbor.CoreDetEncOptions().EncMode(); e != nil {
		panic(e)
	}
}

// writeFieldSet prints fs as text, JSON or deterministic CBOR.
func writeFieldSet(w io.Writer, fs *iso8583.FieldSet, format string) error {
	switch format {
	case "", "text":
		fs.Dump(w, "")
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(fieldTree(fs, false))
	case "cbor":
		b, e := cborEncMode.Marshal(fieldTree(fs, true))
		if e != nil {
			return e
		}
		_, e = w.Write(b)
		return e
	}
	return fmt.Errorf("unknown output format %q", format)
}
