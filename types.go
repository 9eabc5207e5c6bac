package mapx

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Layouts used by the date field types.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = time.RFC3339
)

// emailPattern is deliberately loose: one @ and a dot in the domain.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// TypeFunc adapts a function to FieldType.
type TypeFunc func(d Direction) Pipeline

func (fn TypeFunc) Pipeline(d Direction) Pipeline { return fn(d) }

// String accepts string values only.
func String(opts ...FieldOption) *Field {
	return NewField(stringType{}, opts...)
}

type stringType struct{}

var isStringStage = NewStage("is_valid_string", isValidString)

func (stringType) Pipeline(d Direction) Pipeline {
	if d == DirectionMarshal {
		return marshalPipeline([]Stage{isStringStage}, nil)
	}
	return serializePipeline(nil, nil)
}

func isValidString(s *Session) error {
	if _, ok := s.Value.(string); !ok {
		return s.Invalid("invalid type")
	}
	return nil
}

// Integer coerces numbers and numeric strings to int.
func Integer(opts ...FieldOption) *Field {
	return NewField(integerType{}, opts...)
}

type integerType struct{}

func (integerType) Pipeline(d Direction) Pipeline {
	if d == DirectionMarshal {
		return marshalPipeline([]Stage{NewStage("is_valid_integer", isValidInteger)}, nil)
	}
	return serializePipeline(nil, nil)
}

func isValidInteger(s *Session) error {
	n, ok := coerceInteger(s.Value)
	if !ok {
		return s.Invalid("field is not a valid integer")
	}
	s.Value = n
	return nil
}

func coerceInteger(value any) (int, bool) {
	switch v := value.(type) {
	case bool:
		return 0, false
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		return int(n), n >= math.MinInt && n <= math.MaxInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := rv.Uint()
		return int(n), n <= math.MaxInt
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt || f > math.MaxInt {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

// Float coerces numbers and numeric strings to float64.
func Float(opts ...FieldOption) *Field {
	return NewField(floatType{}, opts...)
}

type floatType struct{}

func (floatType) Pipeline(d Direction) Pipeline {
	if d == DirectionMarshal {
		return marshalPipeline([]Stage{NewStage("is_valid_float", isValidFloat)}, nil)
	}
	return serializePipeline(nil, nil)
}

func isValidFloat(s *Session) error {
	switch v := s.Value.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return s.Invalid("field is not a valid float")
		}
		s.Value = f
		return nil
	case bool:
		return s.Invalid("field is not a valid float")
	}
	rv := reflect.ValueOf(s.Value)
	if !isNumberKind(rv.Kind()) {
		return s.Invalid("field is not a valid float")
	}
	s.Value = toFloat(rv)
	return nil
}

// Boolean accepts booleans and the strings "true" and "false".
func Boolean(opts ...FieldOption) *Field {
	return NewField(booleanType{}, opts...)
}

type booleanType struct{}

func (booleanType) Pipeline(d Direction) Pipeline {
	if d == DirectionMarshal {
		return marshalPipeline([]Stage{NewStage("is_valid_boolean", isValidBoolean)}, nil)
	}
	return serializePipeline(nil, nil)
}

func isValidBoolean(s *Session) error {
	switch v := s.Value.(type) {
	case bool:
		return nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return s.Invalid("field is not a valid boolean")
		}
		s.Value = b
		return nil
	}
	return s.Invalid("field is not a valid boolean")
}

// Date parses and formats calendar dates in DateLayout.
func Date(opts ...FieldOption) *Field {
	return NewField(timeType{layout: DateLayout, kind: "date"}, opts...)
}

// DateTime parses and formats timestamps in DateTimeLayout.
func DateTime(opts ...FieldOption) *Field {
	return NewField(timeType{layout: DateTimeLayout, kind: "datetime"}, opts...)
}

type timeType struct {
	layout string
	kind   string
}

func (t timeType) Pipeline(d Direction) Pipeline {
	if d == DirectionMarshal {
		return marshalPipeline(
			[]Stage{isStringStage},
			[]Stage{NewStage("parse_"+t.kind, t.parse)},
		)
	}
	return serializePipeline(
		[]Stage{NewStage("is_valid_"+t.kind, isValidTime)},
		[]Stage{NewStage("format_"+t.kind, t.format)},
	)
}

func (t timeType) parse(s *Session) error {
	parsed, err := time.Parse(t.layout, s.Value.(string))
	if err != nil {
		return s.Invalid(fmt.Sprintf("field is not a valid %s", t.kind))
	}
	s.Value = parsed
	return nil
}

func isValidTime(s *Session) error {
	switch v := s.Value.(type) {
	case time.Time:
		return nil
	case *time.Time:
		s.Value = *v
		return nil
	}
	return s.Invalid("invalid type")
}

func (t timeType) format(s *Session) error {
	s.Value = s.Value.(time.Time).Format(t.layout)
	return nil
}

// Regexp accepts strings matching pattern.
func Regexp(pattern *regexp.Regexp, opts ...FieldOption) *Field {
	return NewField(regexpType{pattern: pattern, reason: "does not match pattern"}, opts...)
}

// Email accepts strings shaped like an email address.
func Email(opts ...FieldOption) *Field {
	return NewField(regexpType{pattern: emailPattern, reason: "not a valid email address"}, opts...)
}

type regexpType struct {
	pattern *regexp.Regexp
	reason  string
}

func (r regexpType) Pipeline(d Direction) Pipeline {
	stages := []Stage{isStringStage, NewStage("is_valid_pattern", r.match)}
	if d == DirectionMarshal {
		return marshalPipeline(stages, nil)
	}
	return serializePipeline(stages, nil)
}

func (r regexpType) match(s *Session) error {
	if !r.pattern.MatchString(s.Value.(string)) {
		return s.Invalid(r.reason)
	}
	return nil
}

// UUID parses strings into uuid.UUID and formats them back.
func UUID(opts ...FieldOption) *Field {
	return NewField(uuidType{}, opts...)
}

type uuidType struct{}

func (uuidType) Pipeline(d Direction) Pipeline {
	if d == DirectionMarshal {
		return marshalPipeline(nil, []Stage{NewStage("parse_uuid", parseUUID)})
	}
	return serializePipeline(nil, []Stage{NewStage("format_uuid", formatUUID)})
}

func parseUUID(s *Session) error {
	switch v := s.Value.(type) {
	case uuid.UUID:
		return nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return s.Invalid("field is not a valid uuid")
		}
		s.Value = id
		return nil
	}
	return s.Invalid("invalid type")
}

func formatUUID(s *Session) error {
	switch v := s.Value.(type) {
	case uuid.UUID:
		s.Value = v.String()
	case *uuid.UUID:
		s.Value = v.String()
	case string:
	default:
		return s.Invalid("invalid type")
	}
	return nil
}
