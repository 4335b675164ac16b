package dirq

import (
	"fmt"
	"strings"

	"github.com/cern-mig/dirq-go/dirq/dirqerrors"
)

// FieldKind is a schema field's declared storage kind, per the
// grammar in spec.md §6.
type FieldKind int

const (
	// FieldString declares a textual, percent-escape-free field (the
	// typed queue stores it verbatim in its own file rather than
	// through the wire codec's escaping).
	FieldString FieldKind = iota
	// FieldBinary declares a field holding arbitrary bytes, stored in
	// a "<name>.bin" file.
	FieldBinary
	// FieldTable declares a field holding an ordered list of strings.
	FieldTable
)

func (k FieldKind) String() string {
	switch k {
	case FieldString:
		return "string"
	case FieldBinary:
		return "binary"
	case FieldTable:
		return "table"
	default:
		return "unknown"
	}
}

// Field describes one schema-declared field.
type Field struct {
	Name string
	Kind FieldKind
	// Optional marks the field as not required for Add to succeed.
	Optional bool
	// Reference marks the field with the schema grammar's '*'
	// marker. Accepted for compatibility with sibling
	// implementations; per spec.md §9's open question it carries no
	// behavioral difference from by-value storage.
	Reference bool
}

// Schema is a parsed typed-queue field declaration, e.g.
// "body:string header:string?".
type Schema struct {
	fields []Field
	byName map[string]Field
}

// ParseSchema parses the grammar from spec.md §6:
//
//	schema := field (WS field)*
//	field  := name ":" kind opt? ref?
//	kind   := "string" | "binary" | "table"
//	opt    := "?"
//	ref    := "*"
func ParseSchema(s string) (*Schema, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty schema", dirqerrors.ErrInvalidConfiguration)
	}

	schema := &Schema{byName: make(map[string]Field, len(parts))}
	for _, part := range parts {
		field, err := parseField(part)
		if err != nil {
			return nil, err
		}
		if _, dup := schema.byName[field.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", dirqerrors.ErrInvalidConfiguration, field.Name)
		}
		schema.fields = append(schema.fields, field)
		schema.byName[field.Name] = field
	}
	return schema, nil
}

func parseField(part string) (Field, error) {
	colon := strings.IndexByte(part, ':')
	if colon < 0 {
		return Field{}, fmt.Errorf("%w: field %q missing ':'", dirqerrors.ErrInvalidConfiguration, part)
	}
	name := part[:colon]
	if name == "" {
		return Field{}, fmt.Errorf("%w: field %q has empty name", dirqerrors.ErrInvalidConfiguration, part)
	}

	rest := part[colon+1:]
	f := Field{Name: name}

	switch {
	case strings.HasPrefix(rest, "string"):
		f.Kind = FieldString
		rest = rest[len("string"):]
	case strings.HasPrefix(rest, "binary"):
		f.Kind = FieldBinary
		rest = rest[len("binary"):]
	case strings.HasPrefix(rest, "table"):
		f.Kind = FieldTable
		rest = rest[len("table"):]
	default:
		return Field{}, fmt.Errorf("%w: field %q has unknown kind", dirqerrors.ErrInvalidConfiguration, part)
	}

	if strings.HasPrefix(rest, "?") {
		f.Optional = true
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, "*") {
		f.Reference = true
		rest = rest[1:]
	}
	if rest != "" {
		return Field{}, fmt.Errorf("%w: field %q has trailing garbage %q", dirqerrors.ErrInvalidConfiguration, part, rest)
	}
	return f, nil
}

// Fields returns the schema's fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// fileName returns the on-disk filename for a field, stripping the
// schema-level optional/reference markers and applying the ".bin"
// suffix only for binary fields (spec.md §3).
func (f Field) fileName() string {
	if f.Kind == FieldBinary {
		return f.Name + ".bin"
	}
	return f.Name
}

// Validate checks r against the schema per spec.md §4.4: every
// required field present, no unknown fields, value kind matches
// declared kind, string values are valid Unicode.
func (s *Schema) Validate(r Record) error {
	for name := range r {
		if _, ok := s.byName[name]; !ok {
			return fmt.Errorf("%w: unknown field %q", dirqerrors.ErrInvalidConfiguration, name)
		}
	}
	for _, f := range s.fields {
		v, present := r[f.Name]
		if !present {
			if f.Optional {
				continue
			}
			return fmt.Errorf("%w: missing required field %q", dirqerrors.ErrInvalidConfiguration, f.Name)
		}
		if err := f.validateValue(v); err != nil {
			return err
		}
	}
	return nil
}

func (f Field) validateValue(v Value) error {
	switch f.Kind {
	case FieldBinary:
		if v.Kind != KindBinary {
			return fmt.Errorf("%w: field %q must be binary", dirqerrors.ErrInvalidConfiguration, f.Name)
		}
	case FieldTable:
		if v.Kind != KindTable {
			return fmt.Errorf("%w: field %q must be a table", dirqerrors.ErrInvalidConfiguration, f.Name)
		}
	case FieldString:
		if v.Kind != KindString {
			return fmt.Errorf("%w: field %q must be a string", dirqerrors.ErrInvalidConfiguration, f.Name)
		}
		if !validUnicode(v.Str) {
			return fmt.Errorf("%w: field %q is not valid Unicode", dirqerrors.ErrInvalidConfiguration, f.Name)
		}
	}
	return nil
}
