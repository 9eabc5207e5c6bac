package mapx

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Standard stages shared by every field type.
var (
	marshalInputStage    = NewStage("get_data_from_source", marshalInput)
	serializeInputStage  = NewStage("get_data_from_object", serializeInput)
	marshalOutputStage   = NewStage("update_output_object", marshalOutput)
	serializeOutputStage = NewStage("update_output_data", serializeOutput)
	choicesStage         = NewStage("is_valid_choice", isValidChoice)
)

// marshalPipeline wraps type specific stages with the standard marshal input
// and output stages.
func marshalPipeline(validation []Stage, process []Stage) Pipeline {
	return Pipeline{
		Input:      []Stage{marshalInputStage},
		Validation: validation,
		Process:    process,
		Output:     []Stage{marshalOutputStage},
	}
}

// serializePipeline wraps type specific stages with the standard serialize
// input and output stages.
func serializePipeline(validation []Stage, process []Stage) Pipeline {
	return Pipeline{
		Input:      []Stage{serializeInputStage},
		Validation: validation,
		Process:    process,
		Output:     []Stage{serializeOutputStage},
	}
}

func marshalInput(s *Session) error {
	value, ok := s.data[s.Field.Source()]
	return resolveInput(s, value, ok && value != nil)
}

func serializeInput(s *Session) error {
	value, ok, err := getAttribute(s.object, s.Field.Name())
	if err != nil {
		return err
	}
	return resolveInput(s, value, ok && !isNil(value))
}

// resolveInput applies default and required handling to a raw value.
func resolveInput(s *Session, value any, present bool) error {
	opts := s.Field.opts
	switch {
	case present:
		s.Value = value
	case opts.HasDefault:
		s.Value = opts.Default
	case opts.Required:
		return s.Invalid("this is a required field")
	default:
		s.logger().Debug("field absent, skipping",
			slog.String("field", s.Field.Name()), slog.String("direction", s.Direction.String()))
		s.Skip()
	}
	return nil
}

func marshalOutput(s *Session) error {
	if s.Field.opts.ReadOnly {
		return nil
	}
	if err := s.writer.Set(s.Field.Name(), s.Value); err != nil {
		return s.Invalid(err.Error())
	}
	return nil
}

func serializeOutput(s *Session) error {
	s.data[s.Field.Source()] = s.Value
	return nil
}

func isValidChoice(s *Session) error {
	for _, choice := range s.Field.opts.Choices {
		if valuesEqual(choice, s.Value) {
			return nil
		}
	}
	return s.Invalid(fmt.Sprintf("%v is not a valid choice", s.Value))
}

// valuesEqual compares choices loosely so that an int choice matches the
// float64 produced by a JSON decoder.
func valuesEqual(a, b any) bool {
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if isNumberKind(av.Kind()) && isNumberKind(bv.Kind()) {
		return toFloat(av) == toFloat(bv)
	}
	return reflect.DeepEqual(a, b)
}
