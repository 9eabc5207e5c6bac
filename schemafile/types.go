package schemafile

import (
	"errors"
)

// File is the root of a schema file.
type File struct {
	Version string       `yaml:"version"`
	Schemas []SchemaSpec `yaml:"schemas"`
}

// SchemaSpec declares one schema.
type SchemaSpec struct {
	Name                    string              `yaml:"name"`
	Extends                 string              `yaml:"extends,omitempty"`
	Fields                  []FieldSpec         `yaml:"fields"`
	Roles                   map[string]RoleSpec `yaml:"roles,omitempty"`
	PolymorphicOn           string              `yaml:"polymorphic_on,omitempty"`
	PolymorphicName         string              `yaml:"polymorphic_name,omitempty"`
	AllowPolymorphicMarshal *bool               `yaml:"allow_polymorphic_marshal,omitempty"`
}

// FieldSpec declares one field. Of and Pattern apply to collection and
// regexp fields, Schema and Role to nested fields.
type FieldSpec struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	Required bool       `yaml:"required,omitempty"`
	ReadOnly bool       `yaml:"read_only,omitempty"`
	Default  any        `yaml:"default,omitempty"`
	Source   string     `yaml:"source,omitempty"`
	Choices  []any      `yaml:"choices,omitempty"`
	Pattern  string     `yaml:"pattern,omitempty"`
	Of       *FieldSpec `yaml:"of,omitempty"`
	Schema   string     `yaml:"schema,omitempty"`
	Role     string     `yaml:"role,omitempty"`
}

// RoleSpec is either a list of field names or an explicit mode and members.
type RoleSpec struct {
	Mode    string   `yaml:"mode,omitempty"`
	Members []string `yaml:"members"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RoleSpec) UnmarshalYAML(unmarshal func(any) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*r = RoleSpec{Mode: "whitelist", Members: list}
		return nil
	}

	var explicit struct {
		Mode    string   `yaml:"mode"`
		Members []string `yaml:"members"`
	}
	if err := unmarshal(&explicit); err == nil {
		*r = RoleSpec{Mode: explicit.Mode, Members: explicit.Members}
		return nil
	}

	return errors.New("role must be a list of field names or a mapping with mode and members")
}
