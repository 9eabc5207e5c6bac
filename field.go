package mapx

import (
	"sync/atomic"
)

// creationCounter orders fields by construction. Schemas sort their fields on
// it so declaration order survives map iteration.
var creationCounter atomic.Uint64

// FieldType supplies the per direction pipeline for a kind of field.
type FieldType interface {
	Pipeline(d Direction) Pipeline
}

// FieldOptions holds the direction flags shared by every field type.
type FieldOptions struct {
	Required   bool
	ReadOnly   bool
	Default    any
	HasDefault bool
	// Source is the key used in external data. Defaults to the field name.
	Source  string
	Choices []any
	// NestedRole restricts the fields used by nested field types.
	NestedRole RoleRef
}

// FieldOption configures a Field at construction time.
type FieldOption func(*FieldOptions)

// Required makes a missing value an invalid value error.
func Required() FieldOption {
	return func(o *FieldOptions) { o.Required = true }
}

// ReadOnly excludes the field from marshaling. It is still serialized.
func ReadOnly() FieldOption {
	return func(o *FieldOptions) { o.ReadOnly = true }
}

// Default sets the value used when the field is absent. The value enters the
// pipeline in place of the missing input, so it must be in input form.
func Default(value any) FieldOption {
	return func(o *FieldOptions) {
		o.Default = value
		o.HasDefault = true
	}
}

// Source sets the external data key for the field.
func Source(key string) FieldOption {
	return func(o *FieldOptions) { o.Source = key }
}

// Choices restricts the field to the given values.
func Choices(values ...any) FieldOption {
	return func(o *FieldOptions) { o.Choices = append([]any(nil), values...) }
}

// NestedRole restricts a nested field to a role of its target schema.
func NestedRole(ref RoleRef) FieldOption {
	return func(o *FieldOptions) { o.NestedRole = ref }
}

// Field is a named schema leaf with a bidirectional pipeline.
type Field struct {
	name     string
	nameRead atomic.Bool
	order    uint64
	typ      FieldType
	opts     FieldOptions
}

// NewField creates a field of the given type.
func NewField(typ FieldType, opts ...FieldOption) *Field {
	f := &Field{
		order: creationCounter.Add(1),
		typ:   typ,
	}
	for _, opt := range opts {
		opt(&f.opts)
	}
	return f
}

// Named sets an explicit name on a freshly created field and returns it.
func (f *Field) Named(name string) *Field {
	// a fresh field name has not been read yet
	_ = f.SetName(name)
	return f
}

// Name returns the field name. Once read the name can no longer change.
func (f *Field) Name() string {
	if f.name != "" && !f.nameRead.Load() {
		f.nameRead.Store(true)
	}
	return f.name
}

// freeze marks the name as read. Resolved schemas freeze every field so
// that mapping calls only read it.
func (f *Field) freeze() {
	f.nameRead.Store(true)
}

// SetName assigns the field name. Renaming a field whose name was already read
// fails with a definition error.
func (f *Field) SetName(name string) error {
	if f.nameRead.Load() && f.name != name {
		return NewNameFrozenError(f.name, name)
	}
	f.name = name
	if b, ok := f.typ.(nameBinder); ok {
		b.bindName(name)
	}
	return nil
}

// Source returns the external data key.
func (f *Field) Source() string {
	if f.opts.Source != "" {
		return f.opts.Source
	}
	return f.Name()
}

func (f *Field) Options() FieldOptions { return f.opts }
func (f *Field) Type() FieldType       { return f.typ }
func (f *Field) CreationOrder() uint64 { return f.order }

// Invalid builds the invalid value error reported for this field.
func (f *Field) Invalid(reason string) error {
	return &FieldError{Field: f.name, Reason: reason}
}

// Pipeline returns the stages run for this field in direction d, including
// the choices check shared by every type.
func (f *Field) Pipeline(d Direction) Pipeline {
	p := f.typ.Pipeline(d)
	if len(f.opts.Choices) > 0 {
		p.Validation = append(append([]Stage(nil), p.Validation...), choicesStage)
	}
	return p
}

// nameBinder is implemented by field types wrapping another field that must
// share the outer field name.
type nameBinder interface {
	bindName(name string)
}
