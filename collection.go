package mapx

import (
	"fmt"
	"reflect"

	"github.com/hengadev/errsx"
)

// Collection wraps an inner field and applies it to every element of a
// sequence. The inner field shares the collection's name.
func Collection(inner *Field, opts ...FieldOption) *Field {
	return NewField(&collectionType{inner: inner}, opts...)
}

type collectionType struct {
	inner *Field
}

var isListStage = NewStage("is_list", isList)

func (c *collectionType) Pipeline(d Direction) Pipeline {
	if d == DirectionMarshal {
		return marshalPipeline(
			[]Stage{isListStage},
			[]Stage{NewStage("marshal_collection", c.marshalEach)},
		)
	}
	return serializePipeline(
		[]Stage{isListStage},
		[]Stage{NewStage("serialize_collection", c.serializeEach)},
	)
}

func (c *collectionType) bindName(name string) {
	if c.inner.name == "" {
		_ = c.inner.SetName(name)
	}
}

func (c *collectionType) verify(r *Registry) error {
	if v, ok := c.inner.typ.(verifier); ok {
		return v.verify(r)
	}
	return nil
}

// isList replaces any slice or array value with a []any.
func isList(s *Session) error {
	if items, ok := s.Value.([]any); ok {
		s.Value = items
		return nil
	}
	v := reflect.ValueOf(s.Value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return s.Invalid("invalid type")
	}
	items := make([]any, v.Len())
	for i := range items {
		items[i] = v.Index(i).Interface()
	}
	s.Value = items
	return nil
}

// marshalEach runs the inner marshal pipeline once per element, each time
// through a single key carrier so the inner field reads and writes by name
// as usual.
func (c *collectionType) marshalEach(s *Session) error {
	items := s.Value.([]any)
	pipeline := c.inner.Pipeline(DirectionMarshal)
	out := make([]any, 0, len(items))

	var errs errsx.Map
	for i, item := range items {
		carrier := mapWriter{}
		sub := s.child(c.inner)
		sub.data = map[string]any{c.inner.Source(): item}
		sub.writer = carrier
		if err := pipeline.Run(sub); err != nil {
			if !isAggregatable(err) {
				return err
			}
			mergeFieldErrors(&errs, fmt.Sprintf("[%d]", i), err)
			continue
		}
		out = append(out, carrier[c.inner.Name()])
	}
	if len(errs) > 0 {
		return errs
	}
	s.Value = out
	return nil
}

// serializeEach mirrors marshalEach for the serialize direction.
func (c *collectionType) serializeEach(s *Session) error {
	items := s.Value.([]any)
	pipeline := c.inner.Pipeline(DirectionSerialize)
	out := make([]any, 0, len(items))

	var errs errsx.Map
	for i, item := range items {
		carrier := map[string]any{}
		sub := s.child(c.inner)
		sub.object = map[string]any{c.inner.Name(): item}
		sub.data = carrier
		if err := pipeline.Run(sub); err != nil {
			if !isAggregatable(err) {
				return err
			}
			mergeFieldErrors(&errs, fmt.Sprintf("[%d]", i), err)
			continue
		}
		out = append(out, carrier[c.inner.Source()])
	}
	if len(errs) > 0 {
		return errs
	}
	s.Value = out
	return nil
}
