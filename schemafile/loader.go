package schemafile

import (
	"fmt"
	"os"
	"regexp"

	"github.com/hengadev/mapx"
	"gopkg.in/yaml.v3"
)

// LoadFile loads and parses a YAML schema file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schema YAML: %w", err)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}
	for i := range f.Schemas {
		for j := range f.Schemas[i].Fields {
			defaultFieldType(&f.Schemas[i].Fields[j])
		}
	}
}

func defaultFieldType(spec *FieldSpec) {
	if spec.Type == "" {
		spec.Type = "string"
	}
	if spec.Of != nil {
		defaultFieldType(spec.Of)
	}
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// LoadInto loads the file at path, builds its schemas in r and checks that
// every nested reference resolves.
func LoadInto(r *mapx.Registry, path string) ([]*mapx.Schema, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	schemas, err := Build(f, r)
	if err != nil {
		return nil, err
	}
	if err := r.Verify(); err != nil {
		unregister(r, schemas)
		return nil, err
	}
	return schemas, nil
}

func unregister(r *mapx.Registry, schemas []*mapx.Schema) {
	for _, s := range schemas {
		r.Unregister(s.Name())
	}
}

// Build registers every schema of f in r, in file order. A schema may extend
// a schema declared anywhere in the file or already registered in r. Objects
// of file schemas are map[string]any. On error no schema of f stays registered.
func Build(f *File, r *mapx.Registry) ([]*mapx.Schema, error) {
	b := &builder{
		registry: r,
		specs:    make(map[string]*SchemaSpec, len(f.Schemas)),
		built:    make(map[string]*mapx.Schema, len(f.Schemas)),
		visiting: make(map[string]bool),
	}
	for i := range f.Schemas {
		spec := &f.Schemas[i]
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: schema %d has no name", mapx.ErrDefinition, i)
		}
		if _, dup := b.specs[spec.Name]; dup {
			return nil, mapx.NewDuplicateSchemaError(spec.Name)
		}
		b.specs[spec.Name] = spec
	}

	schemas := make([]*mapx.Schema, 0, len(f.Schemas))
	for _, spec := range f.Schemas {
		s, err := b.build(spec.Name)
		if err != nil {
			for _, built := range b.built {
				r.Unregister(built.Name())
			}
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

type builder struct {
	registry *mapx.Registry
	specs    map[string]*SchemaSpec
	built    map[string]*mapx.Schema
	visiting map[string]bool
}

func newObject() any { return map[string]any{} }

func (b *builder) build(name string) (*mapx.Schema, error) {
	if s, ok := b.built[name]; ok {
		return s, nil
	}
	if b.visiting[name] {
		return nil, fmt.Errorf("%w: schema %s extends itself", mapx.ErrDefinition, name)
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	spec := b.specs[name]
	sb := b.registry.Define(name).Type(newObject)

	if spec.Extends != "" {
		parent, err := b.parent(spec.Extends)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		sb.Extends(parent)
	}

	for _, fs := range spec.Fields {
		if fs.Name == "" {
			return nil, fmt.Errorf("%w: schema %s declares a field without a name", mapx.ErrDefinition, name)
		}
		field, err := buildField(fs)
		if err != nil {
			return nil, fmt.Errorf("schema %s field %s: %w", name, fs.Name, err)
		}
		sb.Field(fs.Name, field)
	}

	for roleName, rs := range spec.Roles {
		mode, err := mapx.ParseRoleMode(rs.Mode)
		if err != nil {
			return nil, fmt.Errorf("schema %s role %s: %w", name, roleName, err)
		}
		sb.Role(roleName, mapx.NewRole(mode, rs.Members...))
	}

	if spec.PolymorphicOn != "" {
		sb.PolymorphicOn(spec.PolymorphicOn)
	}
	if spec.PolymorphicName != "" {
		sb.PolymorphicName(spec.PolymorphicName)
	}
	if spec.AllowPolymorphicMarshal != nil {
		sb.AllowPolymorphicMarshal(*spec.AllowPolymorphicMarshal)
	}

	s, err := sb.Build()
	if err != nil {
		return nil, err
	}
	b.built[name] = s
	return s, nil
}

func (b *builder) parent(name string) (*mapx.Schema, error) {
	if _, inFile := b.specs[name]; inFile {
		return b.build(name)
	}
	s, err := b.registry.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown parent schema '%s'", mapx.ErrDefinition, name)
	}
	return s, nil
}

func buildField(spec FieldSpec) (*mapx.Field, error) {
	var opts []mapx.FieldOption
	if spec.Required {
		opts = append(opts, mapx.Required())
	}
	if spec.ReadOnly {
		opts = append(opts, mapx.ReadOnly())
	}
	if spec.Default != nil {
		opts = append(opts, mapx.Default(spec.Default))
	}
	if spec.Source != "" {
		opts = append(opts, mapx.Source(spec.Source))
	}
	if len(spec.Choices) > 0 {
		opts = append(opts, mapx.Choices(spec.Choices...))
	}

	switch spec.Type {
	case "string":
		return mapx.String(opts...), nil
	case "integer":
		return mapx.Integer(opts...), nil
	case "float":
		return mapx.Float(opts...), nil
	case "boolean":
		return mapx.Boolean(opts...), nil
	case "date":
		return mapx.Date(opts...), nil
	case "datetime":
		return mapx.DateTime(opts...), nil
	case "email":
		return mapx.Email(opts...), nil
	case "uuid":
		return mapx.UUID(opts...), nil
	case "regexp":
		if spec.Pattern == "" {
			return nil, fmt.Errorf("%w: regexp field requires a pattern", mapx.ErrDefinition)
		}
		pattern, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid pattern: %w", mapx.ErrDefinition, err)
		}
		return mapx.Regexp(pattern, opts...), nil
	case "collection":
		if spec.Of == nil {
			return nil, fmt.Errorf("%w: collection field requires 'of'", mapx.ErrDefinition)
		}
		inner, err := buildField(*spec.Of)
		if err != nil {
			return nil, fmt.Errorf("collection element: %w", err)
		}
		return mapx.Collection(inner, opts...), nil
	case "nested":
		if spec.Schema == "" {
			return nil, fmt.Errorf("%w: nested field requires 'schema'", mapx.ErrDefinition)
		}
		if spec.Role != "" {
			opts = append(opts, mapx.NestedRole(mapx.RoleNamed(spec.Role)))
		}
		return mapx.NestedNamed(spec.Schema, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown field type '%s'", mapx.ErrDefinition, spec.Type)
	}
}
