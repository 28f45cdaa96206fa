package iso8583

import (
	"encoding/xml"
	"fmt"
)

// Schema kinds.
const (
	KindBitmap = "bitmap"
	KindTagged = "tagged"
)

// Schema declares one packager: its top-level parameters and its fields.
// A field carrying a nested Schema becomes a composite field.
type Schema struct {
	XMLName xml.Name `json:"-" yaml:"-" toml:"-" xml:"packager"`

	Name          string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty" xml:"name,attr,omitempty"`
	Kind          string `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty" xml:"kind,attr,omitempty"`
	MaxValidField int    `json:"max_valid_field,omitempty" yaml:"max_valid_field,omitempty" toml:"max_valid_field,omitempty" xml:"max-valid-field,attr,omitempty"`
	EmitBitmap    *bool  `json:"emit_bitmap,omitempty" yaml:"emit_bitmap,omitempty" toml:"emit_bitmap,omitempty" xml:"emit-bitmap,attr,omitempty"`
	BitmapField   *int   `json:"bitmap_field,omitempty" yaml:"bitmap_field,omitempty" toml:"bitmap_field,omitempty" xml:"bitmap-field,attr,omitempty"`
	HeaderLength  int    `json:"header_length,omitempty" yaml:"header_length,omitempty" toml:"header_length,omitempty" xml:"header-length,attr,omitempty"`

	TagWidth    int  `json:"tag_width,omitempty" yaml:"tag_width,omitempty" toml:"tag_width,omitempty" xml:"tag-width,attr,omitempty"`
	NumericTags bool `json:"numeric_tags,omitempty" yaml:"numeric_tags,omitempty" toml:"numeric_tags,omitempty" xml:"numeric-tags,attr,omitempty"`
	MaxLength   int  `json:"max_length,omitempty" yaml:"max_length,omitempty" toml:"max_length,omitempty" xml:"max-length,attr,omitempty"`

	Fields []FieldSchema `json:"fields" yaml:"fields" toml:"fields" xml:"field"`
}

// FieldSchema declares one field. Bitmap packagers address fields by ID,
// tagged packagers by Tag. In a tagged schema the field marked Default
// serves every tag without a field of its own.
type FieldSchema struct {
	ID       *int    `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty" xml:"id,attr,omitempty"`
	Tag      string  `json:"tag,omitempty" yaml:"tag,omitempty" toml:"tag,omitempty" xml:"tag,attr,omitempty"`
	Type     string  `json:"type" yaml:"type" toml:"type" xml:"type,attr"`
	Length   int     `json:"length,omitempty" yaml:"length,omitempty" toml:"length,omitempty" xml:"length,attr,omitempty"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty" xml:"name,attr,omitempty"`
	Pad      string  `json:"pad,omitempty" yaml:"pad,omitempty" toml:"pad,omitempty" xml:"pad,attr,omitempty"`
	Default  bool    `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty" xml:"default,attr,omitempty"`
	Packager *Schema `json:"packager,omitempty" yaml:"packager,omitempty" toml:"packager,omitempty" xml:"packager,omitempty"`
}

// label names a field in error paths.
func (f FieldSchema) label() string {
	switch {
	case f.ID != nil:
		return fmt.Sprintf("field[%d]", *f.ID)
	case f.Tag != "":
		return fmt.Sprintf("field[%s]", f.Tag)
	case f.Default:
		return "field[default]"
	}
	return "field[?]"
}

func (f FieldSchema) spec() FieldSpec {
	return FieldSpec{Type: f.Type, Length: f.Length, Description: f.Name, Pad: f.Pad}
}

func (s *Schema) kind() string {
	if s.Kind == "" {
		return KindBitmap
	}
	return s.Kind
}

func (s *Schema) emitBitmap() bool {
	return s.EmitBitmap == nil || *s.EmitBitmap
}

func (s *Schema) bitmapField() int {
	if s.BitmapField == nil {
		return 1
	}
	return *s.BitmapField
}

// Bool and Int return pointers for the optional schema parameters.
func Bool(b bool) *bool { return &b }
func Int(i int) *int    { return &i }
