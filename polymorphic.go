package mapx

import (
	"fmt"
	"log/slog"

	"github.com/hengadev/errsx"
)

// dispatch selects the schema marshaling the bound data. For hierarchies
// that allow polymorphic marshal, the discriminator value in the data picks a
// registered subtype; absent values keep the mapper's own schema. An unknown
// value is reported under the discriminator field.
func (m *Mapper) dispatch() (*Schema, error) {
	root := m.schema.polyRoot
	if root == nil || !root.allowMarshal {
		return m.schema, nil
	}

	disc := root.fields[root.discriminator]
	raw, ok := m.data[disc.Source()]
	if !ok || raw == nil {
		return m.schema, nil
	}

	concrete, found := m.schema.subtype(fmt.Sprint(raw))
	if !found || !concrete.descendsFrom(m.schema) {
		var errs errsx.Map
		errs.Set(disc.Name(), NewUnknownDiscriminatorError(m.schema.name, raw))
		return nil, errs
	}
	if concrete != m.schema {
		m.env.logger.Debug("polymorphic dispatch",
			slog.String("schema", m.schema.name),
			slog.String("concrete", concrete.name),
			slog.Any("discriminator", raw))
	}
	return concrete, nil
}

// serializedFields returns the fields of role, plus the discriminator for
// polymorphic schemas, in schema order.
func (s *Schema) serializedFields(role Role) []*Field {
	disc := s.Discriminator()
	if disc == "" || role.Contains(disc) {
		return s.selectFields(role)
	}
	var out []*Field
	for _, name := range s.order {
		if name == disc || role.Contains(name) {
			out = append(out, s.fields[name])
		}
	}
	return out
}

// fillDiscriminator writes the schema's own discriminator value when the
// object left the discriminator empty.
func (s *Schema) fillDiscriminator(out map[string]any) {
	if s.polyRoot == nil || s.polymorphicName == "" {
		return
	}
	key := s.fields[s.polyRoot.discriminator].Source()
	if v, ok := out[key]; !ok || v == nil || v == "" {
		out[key] = s.polymorphicName
	}
}
