// Package mapx converts external data into domain objects and back, driven by
// declarative schemas.
//
// A schema is a named, ordered set of typed fields plus optional roles. Each
// field runs a small pipeline of input, validation, process and output stages;
// marshal reads a data mapping and writes an object, serialize reads an object
// and produces a new mapping.
//
// # Key Features
//
//   - Schema inheritance with deterministic field and role overrides
//   - Roles (whitelist or blacklist) selecting a subset of fields
//   - Nested schemas and homogeneous collections, with flattened error paths
//   - Polymorphic schema dispatch keyed on a discriminator field
//   - Aggregated field errors as an errsx.Map
//   - YAML schema files through the schemafile package
//
// # Quick Start
//
//	type Person struct {
//	    Name  string
//	    Email string
//	}
//
//	person := mapx.Define("Person").
//	    Type(mapx.TypeOf[Person]()).
//	    Field("name", mapx.String(mapx.Required())).
//	    Field("email", mapx.Email()).
//	    Role("public", []string{"name"}).
//	    MustBuild()
//
//	m, err := mapx.New(person, nil, map[string]any{"name": "Ada", "email": "ada@example.com"})
//	if err != nil {
//	    return err
//	}
//	obj, err := m.Marshal()
//	// obj is a *Person
//
//	out, err := mapx.New(person, obj, nil)
//	data, err := out.SerializeRole(mapx.RoleNamed("public"))
//	// data is map[string]any{"name": "Ada"}
//
// # Domain Objects
//
// Objects may be map[string]any, implement AttributeGetter and
// AttributeSetter, or be pointers to structs. Struct fields match a schema
// field by `mapx:"name"` tag, then by Go field name, then ignoring case and
// underscores, so object_type binds ObjectType.
//
// # Errors
//
// Errors fall into four kinds, tested with IsDefinitionError,
// IsConfigurationError, IsInvalidValueError and IsConstructionError. Field
// failures of one call are collected in an errsx.Map keyed by path:
//
//	obj, err := m.Marshal()
//	if errs, ok := mapx.FieldErrors(err); ok {
//	    for path, ferr := range errs {
//	        fmt.Println(path, ferr) // "owner.email", "scores[1]"
//	    }
//	}
//
// A failed marshal never modifies a bound map or struct. AttributeSetter
// objects should implement AttributeChecker to get the same guarantee.
//
// # Polymorphism
//
//	base := mapx.Define("Schedulable").
//	    Field("name", mapx.String()).
//	    Field("object_type", mapx.String()).
//	    PolymorphicOn("object_type").
//	    AllowPolymorphicMarshal(true).
//	    MustBuild()
//	mapx.Define("Task").Extends(base).
//	    Type(mapx.TypeOf[Task]()).
//	    Field("status", mapx.String()).
//	    PolymorphicName("task").
//	    MustBuild()
//
// Marshaling {"object_type": "task", ...} through base yields a *Task.
//
// # Thread Safety
//
// Schemas and registries are safe for concurrent use once built. A Mapper
// holds per call state and must not be shared between goroutines.
package mapx
