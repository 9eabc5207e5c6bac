package mapx

// Nested processes its value with another schema.
func Nested(target *Schema, opts ...FieldOption) *Field {
	return NewField(&nestedType{target: target}, opts...)
}

// NestedNamed references the target schema by name. The name is resolved
// against the mapper's registry on first use, which permits forward and
// recursive references.
func NestedNamed(name string, opts ...FieldOption) *Field {
	return NewField(&nestedType{name: name}, opts...)
}

type nestedType struct {
	target *Schema
	name   string
}

// verifier is implemented by field types that reference other schemas.
type verifier interface {
	verify(r *Registry) error
}

func (n *nestedType) Pipeline(d Direction) Pipeline {
	if d == DirectionMarshal {
		return marshalPipeline(
			[]Stage{NewStage("is_valid_mapping", isMapping)},
			[]Stage{NewStage("marshal_nested", n.marshal)},
		)
	}
	return serializePipeline(nil, []Stage{NewStage("serialize_nested", n.serialize)})
}

func (n *nestedType) schema(r *Registry) (*Schema, error) {
	if n.target != nil {
		return n.target, nil
	}
	s, err := r.Lookup(n.name)
	if err != nil {
		return nil, NewUnresolvedSchemaError(n.name)
	}
	return s, nil
}

func (n *nestedType) verify(r *Registry) error {
	_, err := n.schema(r)
	return err
}

func isMapping(s *Session) error {
	if _, ok := s.Value.(map[string]any); !ok {
		return s.Invalid("invalid type, expected an object")
	}
	return nil
}

func (n *nestedType) marshal(s *Session) error {
	target, err := n.schema(s.Registry())
	if err != nil {
		return err
	}
	m := &Mapper{schema: target, data: s.Value.(map[string]any), env: s.env}
	obj, err := m.marshal(s.Field.opts.NestedRole, true)
	if err != nil {
		return err
	}
	s.Value = obj
	return nil
}

func (n *nestedType) serialize(s *Session) error {
	target, err := n.schema(s.Registry())
	if err != nil {
		return err
	}
	m := &Mapper{schema: target, object: s.Value, env: s.env}
	out, err := m.serialize(s.Field.opts.NestedRole)
	if err != nil {
		return err
	}
	s.Value = out
	return nil
}
