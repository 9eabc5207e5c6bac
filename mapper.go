package mapx

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hengadev/errsx"
)

// Mapper binds a schema to one object and/or one data mapping.
//
// A Mapper may be reused for several calls against the same bound values but
// must not be shared between goroutines.
type Mapper struct {
	schema *Schema
	object any
	data   map[string]any
	env    *env
}

// New binds s to object and data. At least one of them is required.
func New(s *Schema, object any, data map[string]any, opts ...MapperOption) (*Mapper, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: schema cannot be nil", ErrConfiguration)
	}
	if isNil(object) {
		object = nil
	}
	if object == nil && data == nil {
		return nil, NewConstructionError(s.name)
	}

	m := &Mapper{
		schema: s,
		object: object,
		data:   data,
		env: &env{
			registry: s.registry,
			logger:   discardLogger,
			hook:     &NoOpObservabilityHook{},
		},
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewMapper looks up the named schema in r and binds it.
func (r *Registry) NewMapper(name string, object any, data map[string]any, opts ...MapperOption) (*Mapper, error) {
	s, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return New(s, object, data, append([]MapperOption{WithRegistry(r)}, opts...)...)
}

func (m *Mapper) Schema() *Schema { return m.schema }

// Serialize converts the bound object using the default role.
func (m *Mapper) Serialize() (map[string]any, error) {
	return m.SerializeRole(RoleRef{})
}

// SerializeRole converts the bound object into a new mapping holding the
// fields selected by ref. The object is never modified. When no object is
// bound a new target object is serialized.
func (m *Mapper) SerializeRole(ref RoleRef) (map[string]any, error) {
	start := time.Now()
	m.env.hook.OnMapStart(DirectionSerialize.String(), m.schema.name)
	out, err := m.serialize(ref)
	m.complete(DirectionSerialize, start, err)
	return out, err
}

// Marshal converts the bound data using the default role.
func (m *Mapper) Marshal() (any, error) {
	return m.MarshalRole(RoleRef{})
}

// MarshalRole writes the fields selected by ref from the bound data into the
// bound object, or into a new target object when none is bound, and returns
// it. Every selected field is attempted; when any of them fails the call
// returns an errsx.Map of field paths and leaves the object untouched.
func (m *Mapper) MarshalRole(ref RoleRef) (any, error) {
	start := time.Now()
	m.env.hook.OnMapStart(DirectionMarshal.String(), m.schema.name)
	obj, err := m.marshal(ref, true)
	m.complete(DirectionMarshal, start, err)
	return obj, err
}

func (m *Mapper) complete(d Direction, start time.Time, err error) {
	if errs, ok := FieldErrors(err); ok {
		for path, ferr := range errs {
			m.env.hook.OnFieldError(d.String(), m.schema.name, path, ferr)
			m.env.logger.Warn("field failed",
				slog.String("schema", m.schema.name),
				slog.String("direction", d.String()),
				slog.String("field", path),
				slog.Any("error", ferr))
		}
	}
	m.env.hook.OnMapComplete(d.String(), m.schema.name, time.Since(start), err)
}

func (m *Mapper) marshal(ref RoleRef, dispatch bool) (any, error) {
	schema := m.schema
	if dispatch {
		concrete, err := m.dispatch()
		if err != nil {
			return nil, err
		}
		schema = concrete
	}

	role, err := m.role(schema, ref)
	if err != nil {
		return nil, err
	}
	obj := m.object
	if obj == nil {
		if obj, err = schema.newObject(); err != nil {
			return nil, err
		}
	}
	if err := checkWritable(obj); err != nil {
		return nil, err
	}

	data := m.data
	if data == nil {
		data = map[string]any{}
	}
	writer := newStagedWriter(obj)

	var errs errsx.Map
	for _, f := range schema.selectFields(role) {
		if f.opts.ReadOnly {
			continue
		}
		s := &Session{Field: f, Direction: DirectionMarshal, data: data, writer: writer, env: m.env}
		if err := f.Pipeline(DirectionMarshal).Run(s); err != nil {
			if !isAggregatable(err) {
				return nil, err
			}
			mergeFieldErrors(&errs, f.Name(), err)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if err := writer.Commit(); err != nil {
		return nil, fmt.Errorf("%w: apply marshaled values to %s: %w", ErrConfiguration, schema.name, err)
	}
	return obj, nil
}

func (m *Mapper) serialize(ref RoleRef) (map[string]any, error) {
	schema := m.schema
	role, err := m.role(schema, ref)
	if err != nil {
		return nil, err
	}
	obj := m.object
	if obj == nil {
		if obj, err = schema.newObject(); err != nil {
			return nil, err
		}
	}

	out := make(map[string]any)
	var errs errsx.Map
	for _, f := range schema.serializedFields(role) {
		s := &Session{Field: f, Direction: DirectionSerialize, object: obj, data: out, env: m.env}
		if err := f.Pipeline(DirectionSerialize).Run(s); err != nil {
			if !isAggregatable(err) {
				return nil, err
			}
			mergeFieldErrors(&errs, f.Name(), err)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	schema.fillDiscriminator(out)
	return out, nil
}

func (m *Mapper) role(schema *Schema, ref RoleRef) (Role, error) {
	role, err := schema.resolveRole(ref)
	if err != nil {
		return Role{}, err
	}
	m.env.logger.Debug("role resolved",
		slog.String("schema", schema.name),
		slog.String("role", ref.String()),
		slog.String("mode", role.Mode().String()))
	return role, nil
}
