package iso8583

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Format identifies a schema document syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatXML  Format = "xml"
)

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".xml":
		return FormatXML, nil
	}
	return "", &SchemaError{Path: path, Field: NoIndex, Err: fmt.Errorf("%w: unknown schema file extension", ErrMalformedSchema)}
}

//go:embed schema.json
var schemaDocument []byte

var (
	documentSchemaOnce sync.Once
	documentSchema     *gojsonschema.Schema
	documentSchemaErr  error
)

func compiledDocumentSchema() (*gojsonschema.Schema, error) {
	documentSchemaOnce.Do(func() {
		documentSchema, documentSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaDocument))
	})
	return documentSchema, documentSchemaErr
}

// validateDocument checks a decoded document against the embedded JSON
// Schema and reports every violation.
func validateDocument(input gojsonschema.JSONLoader) error {
	schema, err := compiledDocumentSchema()
	if err != nil {
		return err
	}
	result, err := schema.Validate(input)
	if err != nil {
		return &SchemaError{Field: NoIndex, Err: fmt.Errorf("%w: %v", ErrMalformedSchema, err)}
	}
	if result.Valid() {
		return nil
	}
	var errs error
	for _, desc := range result.Errors() {
		errs = multierr.Append(errs, &SchemaError{Path: desc.Field(), Field: NoIndex, Err: fmt.Errorf("%w: %s", ErrMalformedSchema, desc.Description())})
	}
	return errs
}

// ParseSchema decodes a schema document. JSON, YAML and TOML documents are
// checked against the document schema before decoding. JSON may contain
// comments and trailing commas.
func ParseSchema(data []byte, format Format) (*Schema, error) {
	var s Schema
	switch format {
	case FormatJSON:
		data = jsonc.ToJSON(data)
		if err := validateDocument(gojsonschema.NewBytesLoader(data)); err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, &SchemaError{Field: NoIndex, Err: fmt.Errorf("%w: %v", ErrMalformedSchema, err)}
		}

	case FormatYAML:
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &SchemaError{Field: NoIndex, Err: fmt.Errorf("%w: %v", ErrMalformedSchema, err)}
		}
		if err := validateDocument(gojsonschema.NewGoLoader(doc)); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, &SchemaError{Field: NoIndex, Err: fmt.Errorf("%w: %v", ErrMalformedSchema, err)}
		}

	case FormatTOML:
		var doc map[string]interface{}
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, &SchemaError{Field: NoIndex, Err: fmt.Errorf("%w: %v", ErrMalformedSchema, err)}
		}
		if err := validateDocument(gojsonschema.NewGoLoader(doc)); err != nil {
			return nil, err
		}
		if err := toml.Unmarshal(data, &s); err != nil {
			return nil, &SchemaError{Field: NoIndex, Err: fmt.Errorf("%w: %v", ErrMalformedSchema, err)}
		}

	case FormatXML:
		if err := xml.Unmarshal(data, &s); err != nil {
			return nil, &SchemaError{Field: NoIndex, Err: fmt.Errorf("%w: %v", ErrMalformedSchema, err)}
		}

	default:
		return nil, &SchemaError{Field: NoIndex, Err: fmt.Errorf("%w: unknown format %q", ErrMalformedSchema, format)}
	}
	return &s, nil
}

// LoadSchema reads a schema document from a file, picking the format from
// its extension.
func LoadSchema(path string) (*Schema, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseSchema(data, format)
	if err != nil {
		return nil, withPath(err, path)
	}
	return s, nil
}

// withPath prefixes the path of every SchemaError in err.
func withPath(err error, path string) error {
	var out error
	for _, e := range multierr.Errors(err) {
		if se, ok := e.(*SchemaError); ok {
			cp := *se
			if cp.Path == "" || cp.Path == "(root)" {
				cp.Path = path
			} else {
				cp.Path = path + ":" + cp.Path
			}
			e = &cp
		}
		out = multierr.Append(out, e)
	}
	return out
}
