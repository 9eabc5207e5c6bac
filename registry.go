package mapx

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/hengadev/errsx"
)

// DefaultRegistry is the process wide registry used by Define. It is meant to
// be populated once at startup and cleared explicitly, typically between tests.
var DefaultRegistry = NewRegistry()

// Registry maps schema names to schemas. Names are unique within a registry.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger logs registrations to logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		schemas: make(map[string]*Schema),
		logger:  discardLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Define starts a schema declaration registered in r.
func (r *Registry) Define(name string) *SchemaBuilder {
	return &SchemaBuilder{registry: r, decl: declaration{name: name}}
}

// register inserts s and, for polymorphic subtypes, its discriminator value.
func (r *Registry) register(s *Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[s.name]; exists {
		return NewDuplicateSchemaError(s.name)
	}

	if s.polymorphicName != "" {
		root := s.polyRoot
		root.mu.Lock()
		if other, taken := root.subtypes[s.polymorphicName]; taken {
			root.mu.Unlock()
			return NewPolymorphismError(s.name,
				fmt.Sprintf("polymorphic name '%s' already used by %s", s.polymorphicName, other.name))
		}
		root.subtypes[s.polymorphicName] = s
		root.mu.Unlock()
	}

	r.schemas[s.name] = s
	r.logger.Debug("schema registered",
		slog.String("schema", s.name),
		slog.Int("fields", len(s.order)),
		slog.Int("roles", len(s.roles)))
	return nil
}

// Lookup returns the named schema.
func (r *Registry) Lookup(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	if !ok {
		return nil, NewSchemaNotFoundError(name)
	}
	return s, nil
}

// IsDefined reports whether name is registered.
func (r *Registry) IsDefined(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[name]
	return ok
}

// Names lists registered schema names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes the named schema, and its discriminator value when it is
// a polymorphic subtype. It reports whether the schema was registered.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schemas[name]
	if !ok {
		return false
	}
	delete(r.schemas, name)
	detachSubtype(s)
	r.logger.Debug("schema unregistered", slog.String("schema", name))
	return true
}

// Reset removes every schema along with its discriminator value.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schemas {
		detachSubtype(s)
	}
	r.schemas = make(map[string]*Schema)
}

// detachSubtype removes s from the subtype table of its polymorphic root.
func detachSubtype(s *Schema) {
	if s.polymorphicName == "" || s.polyRoot == nil {
		return
	}
	root := s.polyRoot
	root.mu.Lock()
	if root.subtypes[s.polymorphicName] == s {
		delete(root.subtypes, s.polymorphicName)
	}
	root.mu.Unlock()
}

// Verify checks that every schema referenced by name from a nested field is
// registered. Failures are reported per "schema.field".
func (r *Registry) Verify() error {
	r.mu.RLock()
	schemas := make([]*Schema, 0, len(r.schemas))
	for _, s := range r.schemas {
		schemas = append(schemas, s)
	}
	r.mu.RUnlock()

	var errs errsx.Map
	for _, s := range schemas {
		for _, name := range s.order {
			v, ok := s.fields[name].typ.(verifier)
			if !ok {
				continue
			}
			if err := v.verify(r); err != nil {
				errs.Set(s.name+"."+name, err)
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, 0, len(errs))
	for key, err := range errs {
		lines = append(lines, key+": "+err.Error())
	}
	sort.Strings(lines)
	return fmt.Errorf("%w: %s", ErrDefinition, strings.Join(lines, "; "))
}
