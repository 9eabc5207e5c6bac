package mapx

import (
	"fmt"
	"sync"
)

type fieldDecl struct {
	attr  string
	field *Field
}

type roleDecl struct {
	name string
	decl any
}

// declaration is what a single schema contributes to its descendants.
type declaration struct {
	name   string
	fields []fieldDecl
	roles  []roleDecl
}

// SchemaBuilder declares a schema. Build resolves it against its ancestors
// and registers it.
type SchemaBuilder struct {
	registry        *Registry
	decl            declaration
	parent          *Schema
	target          func() any
	polymorphicOn   string
	polymorphicName string
	allowMarshal    *bool
	err             error
}

// Define starts a schema declaration in the default registry.
func Define(name string) *SchemaBuilder {
	return DefaultRegistry.Define(name)
}

// Extends makes the schema inherit the fields and roles of parent.
func (b *SchemaBuilder) Extends(parent *Schema) *SchemaBuilder {
	if parent == nil {
		b.fail(fmt.Errorf("%w: %s extends a nil schema", ErrDefinition, b.decl.name))
	}
	b.parent = parent
	return b
}

// Type sets the constructor used when marshal has no object to update.
func (b *SchemaBuilder) Type(fn func() any) *SchemaBuilder {
	b.target = fn
	return b
}

// Field declares a field under attr. An unnamed field takes attr as its name.
func (b *SchemaBuilder) Field(attr string, f *Field) *SchemaBuilder {
	switch {
	case attr == "":
		b.fail(fmt.Errorf("%w: %s declares a field without a name", ErrDefinition, b.decl.name))
	case f == nil:
		b.fail(fmt.Errorf("%w: field '%s' on %s is nil", ErrDefinition, attr, b.decl.name))
	default:
		b.decl.fields = append(b.decl.fields, fieldDecl{attr: attr, field: f})
	}
	return b
}

// Role declares a role. decl must be a []string, a Role or a *Role.
func (b *SchemaBuilder) Role(name string, decl any) *SchemaBuilder {
	b.decl.roles = append(b.decl.roles, roleDecl{name: name, decl: decl})
	return b
}

// PolymorphicOn marks attr as the discriminator of this schema and its descendants.
func (b *SchemaBuilder) PolymorphicOn(attr string) *SchemaBuilder {
	b.polymorphicOn = attr
	return b
}

// PolymorphicName sets the discriminator value selecting this schema.
func (b *SchemaBuilder) PolymorphicName(value string) *SchemaBuilder {
	b.polymorphicName = value
	return b
}

// AllowPolymorphicMarshal enables discriminator dispatch when marshaling.
func (b *SchemaBuilder) AllowPolymorphicMarshal(allow bool) *SchemaBuilder {
	b.allowMarshal = &allow
	return b
}

func (b *SchemaBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build resolves the schema and registers it.
func (b *SchemaBuilder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.decl.name == "" {
		return nil, fmt.Errorf("%w: schema name is required", ErrDefinition)
	}

	s := &Schema{
		name:     b.decl.name,
		parent:   b.parent,
		decl:     b.decl,
		target:   b.target,
		registry: b.registry,
	}
	if s.target == nil && s.parent != nil {
		s.target = s.parent.target
	}

	fields, order, roles, err := resolve(s.lineage())
	if err != nil {
		return nil, err
	}
	s.fields = fields
	s.order = order
	s.roles = roles

	if err := b.resolvePolymorphism(s); err != nil {
		return nil, err
	}
	if err := b.registry.register(s); err != nil {
		return nil, err
	}
	return s, nil
}

// MustBuild is like Build but panics on error. It suits package level
// schema declarations.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func (b *SchemaBuilder) resolvePolymorphism(s *Schema) error {
	if s.parent != nil {
		s.polyRoot = s.parent.polyRoot
	}

	if b.polymorphicOn != "" {
		if s.polyRoot != nil {
			return NewPolymorphismError(s.name,
				fmt.Sprintf("already polymorphic on '%s' through %s", s.polyRoot.discriminator, s.polyRoot.name))
		}
		if _, ok := s.fields[b.polymorphicOn]; !ok {
			return NewPolymorphismError(s.name,
				fmt.Sprintf("discriminator '%s' is not a field", b.polymorphicOn))
		}
		s.polyRoot = s
		s.discriminator = b.polymorphicOn
		s.subtypes = make(map[string]*Schema)
		if b.allowMarshal != nil {
			s.allowMarshal = *b.allowMarshal
		}
	} else if b.allowMarshal != nil {
		return NewPolymorphismError(s.name, "allow polymorphic marshal requires a discriminator")
	}

	if b.polymorphicName != "" {
		if s.polyRoot == nil {
			return NewPolymorphismError(s.name,
				fmt.Sprintf("polymorphic name '%s' declared without a discriminator", b.polymorphicName))
		}
		s.polymorphicName = b.polymorphicName
	}
	return nil
}

// Schema is a resolved, registered schema definition. It is immutable once
// built apart from the subtype table of polymorphic roots.
type Schema struct {
	name     string
	parent   *Schema
	decl     declaration
	target   func() any
	registry *Registry

	fields map[string]*Field
	order  []string
	roles  map[string]Role

	polyRoot        *Schema
	discriminator   string
	polymorphicName string
	allowMarshal    bool

	mu       sync.RWMutex
	subtypes map[string]*Schema
}

func (s *Schema) Name() string       { return s.name }
func (s *Schema) Parent() *Schema    { return s.parent }
func (s *Schema) Registry() *Registry { return s.registry }

// FieldNames lists the field names in resolution order.
func (s *Schema) FieldNames() []string {
	return append([]string(nil), s.order...)
}

// Fields lists the fields in resolution order.
func (s *Schema) Fields() []*Field {
	out := make([]*Field, len(s.order))
	for i, name := range s.order {
		out[i] = s.fields[name]
	}
	return out
}

// Field returns the named field.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Roles returns a copy of the role table.
func (s *Schema) Roles() map[string]Role {
	out := make(map[string]Role, len(s.roles))
	for k, v := range s.roles {
		out[k] = v
	}
	return out
}

// Role returns the named role.
func (s *Schema) Role(name string) (Role, bool) {
	r, ok := s.roles[name]
	return r, ok
}

// HasTarget reports whether marshal can construct objects for this schema.
func (s *Schema) HasTarget() bool { return s.target != nil }

// IsPolymorphic reports whether the schema belongs to a discriminated hierarchy.
func (s *Schema) IsPolymorphic() bool { return s.polyRoot != nil }

// Discriminator returns the discriminator field name of the hierarchy.
func (s *Schema) Discriminator() string {
	if s.polyRoot == nil {
		return ""
	}
	return s.polyRoot.discriminator
}

// PolymorphicName returns the discriminator value selecting this schema.
func (s *Schema) PolymorphicName() string { return s.polymorphicName }

// Subtypes returns the discriminator value table of the hierarchy.
func (s *Schema) Subtypes() map[string]*Schema {
	root := s.polyRoot
	if root == nil {
		return nil
	}
	root.mu.RLock()
	defer root.mu.RUnlock()
	out := make(map[string]*Schema, len(root.subtypes))
	for k, v := range root.subtypes {
		out[k] = v
	}
	return out
}

// lineage returns the ancestor chain from the most base schema to s.
func (s *Schema) lineage() []*Schema {
	var chain []*Schema
	for cur := s; cur != nil; cur = cur.parent {
		chain = append([]*Schema{cur}, chain...)
	}
	return chain
}

// descendsFrom reports whether s is ancestor or one of its descendants.
func (s *Schema) descendsFrom(ancestor *Schema) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

func (s *Schema) newObject() (any, error) {
	if s.target == nil {
		return nil, NewMissingTargetError(s.name)
	}
	return s.target(), nil
}

// resolveRole turns a reference into a Role of this schema.
func (s *Schema) resolveRole(ref RoleRef) (Role, error) {
	if ref.role != nil {
		return *ref.role, nil
	}
	name := ref.name
	if name == "" {
		name = DefaultRole
	}
	r, ok := s.roles[name]
	if !ok {
		return Role{}, NewRoleNotFoundError(name, s.name)
	}
	return r, nil
}

// selectFields returns the fields of role in schema order.
func (s *Schema) selectFields(role Role) []*Field {
	var out []*Field
	for _, name := range s.order {
		if role.Contains(name) {
			out = append(out, s.fields[name])
		}
	}
	return out
}

func (s *Schema) subtype(value string) (*Schema, bool) {
	root := s.polyRoot
	if root == nil {
		return nil, false
	}
	root.mu.RLock()
	defer root.mu.RUnlock()
	sub, ok := root.subtypes[value]
	return sub, ok
}

func (s *Schema) String() string {
	return fmt.Sprintf("Schema(%s)", s.name)
}
