package schema

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is one member of a field's permitted type union.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
)

// Spec is the record-level schema a batch is validated against.
type Spec struct {
	Name    string
	Version int

	// Fields keeps declaration order so validation reports the first violation
	// deterministically.
	Fields []*Field
}

// Field defines a single record field.
//
// Fields support two declaration styles:
//
//	Shorthand (scalar): ts: string!
//	Long form (mapping): ms_played:
//	                        type: integer!
//	                        min: 0
//
// Types are joined with "|" to form a union (string|null). Append "!" to mark
// a field as required.
type Field struct {
	Name     string   `yaml:"-"`
	Types    []Kind   `yaml:"-"`
	Required bool     `yaml:"required,omitempty"`
	Min      *float64 `yaml:"min,omitempty"`

	// Type is the raw declaration, only read in long form.
	Type string `yaml:"type"`
}

// UnmarshalYAML supports both shorthand and long-form field declarations.
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return f.parseTypeString(value.Value)
	}

	// Decode via alias to avoid recursing into this method.
	type fieldAlias Field
	var alias fieldAlias
	if err := value.Decode(&alias); err != nil {
		return err
	}
	*f = Field(alias)

	if f.Type == "" {
		return fmt.Errorf("field missing 'type'")
	}
	return f.parseTypeString(f.Type)
}

// parseTypeString parses "string|null!" into Types and Required.
func (f *Field) parseTypeString(s string) error {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "!") {
		f.Required = true
		s = strings.TrimSuffix(s, "!")
	}

	f.Types = f.Types[:0]
	for _, part := range strings.Split(s, "|") {
		k := Kind(strings.TrimSpace(part))
		switch k {
		case KindString, KindInteger, KindNumber, KindBoolean, KindNull:
			f.Types = append(f.Types, k)
		case "bool":
			f.Types = append(f.Types, KindBoolean)
		default:
			return fmt.Errorf("unsupported type %q (must be: string, integer, number, boolean, null)", part)
		}
	}
	f.Type = s
	return nil
}

// Allows reports whether k is a member of the field's union.
func (f *Field) Allows(k Kind) bool {
	for _, t := range f.Types {
		if t == k {
			return true
		}
	}
	return false
}

// Expected renders the union for error messages, e.g. "string|null".
func (f *Field) Expected() string {
	parts := make([]string, len(f.Types))
	for i, t := range f.Types {
		parts[i] = string(t)
	}
	return strings.Join(parts, "|")
}

func (f *Field) numeric() bool {
	return f.Allows(KindInteger) || f.Allows(KindNumber)
}

// specDocument is the on-disk YAML shape.
type specDocument struct {
	Name    string    `yaml:"name"`
	Version int       `yaml:"version"`
	Fields  yaml.Node `yaml:"fields"`
}

// Parse decodes a YAML field spec.
func Parse(data []byte) (*Spec, error) {
	var doc specDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse field spec: %w", err)
	}
	if doc.Fields.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse field spec: 'fields' must be a mapping")
	}

	spec := &Spec{Name: doc.Name, Version: doc.Version}

	// Mapping node content alternates key, value.
	for i := 0; i+1 < len(doc.Fields.Content); i += 2 {
		name := doc.Fields.Content[i].Value
		field := &Field{}
		if err := doc.Fields.Content[i+1].Decode(field); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		field.Name = name
		spec.Fields = append(spec.Fields, field)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Validate checks if the spec is structurally valid.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("spec name is required")
	}
	if s.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("spec must define at least one field")
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if seen[f.Name] {
			return fmt.Errorf("field %q declared twice", f.Name)
		}
		seen[f.Name] = true

		if len(f.Types) == 0 {
			return fmt.Errorf("field %q: type cannot be empty", f.Name)
		}
		if f.Min != nil && !f.numeric() {
			return fmt.Errorf("field %q: min requires an integer or number type", f.Name)
		}
	}
	return nil
}

// Required returns the names of all required fields in declaration order.
func (s *Spec) Required() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Describe returns a JSON-friendly view of the spec: field name to declaration.
func (s *Spec) Describe() map[string]interface{} {
	fields := make(map[string]interface{}, len(s.Fields))
	for _, f := range s.Fields {
		d := map[string]interface{}{
			"type":     f.Expected(),
			"required": f.Required,
		}
		if f.Min != nil {
			d["min"] = *f.Min
		}
		fields[f.Name] = d
	}

	required := s.Required()
	sort.Strings(required)

	return map[string]interface{}{
		"name":     s.Name,
		"version":  s.Version,
		"fields":   fields,
		"required": required,
	}
}
