package mapx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hengadev/errsx"
)

var (
	// Error kinds
	ErrDefinition    = errors.New("schema definition error")
	ErrConfiguration = errors.New("mapper configuration error")
	ErrInvalidValue  = errors.New("invalid value")
	ErrConstruction  = errors.New("mapper construction error")

	// Definition errors
	ErrDuplicateSchema  = errors.New("schema already registered")
	ErrMalformedRole    = errors.New("malformed role")
	ErrNameFrozen       = errors.New("field name already in use")
	ErrPolymorphism     = errors.New("invalid polymorphic configuration")
	ErrUnresolvedSchema = errors.New("unresolved nested schema")

	// Configuration errors
	ErrSchemaNotFound = errors.New("schema not found")
	ErrRoleNotFound   = errors.New("role not found")
	ErrMissingTarget  = errors.New("schema has no target type")

	// Value errors
	ErrUnknownDiscriminator = errors.New("unknown discriminator")
)

func NewDuplicateSchemaError(name string) error {
	return fmt.Errorf("%w: %w: '%s'", ErrDefinition, ErrDuplicateSchema, name)
}

func NewMalformedRoleError(role, schema string, got any) error {
	return fmt.Errorf("%w: %w: role '%s' on %s must be []string or Role, got %T",
		ErrDefinition, ErrMalformedRole, role, schema, got)
}

func NewNameFrozenError(current, requested string) error {
	return fmt.Errorf("%w: %w: cannot rename field '%s' to '%s' after it was read",
		ErrDefinition, ErrNameFrozen, current, requested)
}

func NewPolymorphismError(schema, details string) error {
	return fmt.Errorf("%w: %w: %s: %s", ErrDefinition, ErrPolymorphism, schema, details)
}

func NewUnresolvedSchemaError(name string) error {
	return fmt.Errorf("%w: %w: '%s' is not registered", ErrDefinition, ErrUnresolvedSchema, name)
}

func NewSchemaNotFoundError(name string) error {
	return fmt.Errorf("%w: %w: '%s'", ErrConfiguration, ErrSchemaNotFound, name)
}

func NewRoleNotFoundError(role, schema string) error {
	return fmt.Errorf("%w: %w: role '%s' not found on %s", ErrConfiguration, ErrRoleNotFound, role, schema)
}

func NewMissingTargetError(schema string) error {
	return fmt.Errorf("%w: %w: %s must define a target type", ErrConfiguration, ErrMissingTarget, schema)
}

func NewUnknownDiscriminatorError(schema string, value any) error {
	return fmt.Errorf("%w: %w: %v is not a registered subtype of %s",
		ErrInvalidValue, ErrUnknownDiscriminator, value, schema)
}

func NewConstructionError(schema string) error {
	return fmt.Errorf("%w: at least one of object or data must be passed to the %s mapper", ErrConstruction, schema)
}

// FieldError is the failure of a single field pipeline. Its Reason is the
// human readable message reported in aggregate errors.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Reason
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidValue
}

// IsDefinitionError returns true if the error was raised while declaring a schema.
func IsDefinitionError(err error) bool {
	return errors.Is(err, ErrDefinition)
}

// IsConfigurationError returns true if a mapper was asked for something its schema cannot do.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsInvalidValueError returns true for field level failures, aggregated or not.
func IsInvalidValueError(err error) bool {
	if errors.Is(err, ErrInvalidValue) {
		return true
	}
	var errs errsx.Map
	return errors.As(err, &errs)
}

// IsConstructionError returns true if a mapper was built without object and data.
func IsConstructionError(err error) bool {
	return errors.Is(err, ErrConstruction)
}

// FieldErrors extracts the aggregate field error map from err.
func FieldErrors(err error) (errsx.Map, bool) {
	var errs errsx.Map
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

// mergeFieldErrors copies the failures of a nested call into errs under prefix.
// Non aggregate errors are stored under prefix itself.
func mergeFieldErrors(errs *errsx.Map, prefix string, err error) {
	inner, ok := FieldErrors(err)
	if !ok {
		errs.Set(prefix, err)
		return
	}
	for key, value := range inner {
		errs.Set(joinPath(prefix, key), value)
	}
}

func joinPath(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	case strings.HasPrefix(key, "["):
		return prefix + key
	default:
		return prefix + "." + key
	}
}

// isAggregatable reports whether err belongs in the per-call error map rather
// than aborting the call.
func isAggregatable(err error) bool {
	return IsInvalidValueError(err)
}
