package schemafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hengadev/mapx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scheduleYAML = `
version: "2"
schemas:
  - name: Task
    extends: Schedulable
    fields:
      - name: status
        choices: [open, done]
      - name: priority
        type: integer
        default: 3
    polymorphic_name: task
  - name: Schedulable
    fields:
      - name: id
        type: integer
      - name: name
        required: true
      - name: object_type
        source: objectType
    roles:
      summary: [name]
      hidden:
        mode: blacklist
        members: [id]
    polymorphic_on: object_type
    allow_polymorphic_marshal: true
  - name: Person
    fields:
      - name: email
        type: email
      - name: code
        type: regexp
        pattern: "^[A-Z]{3}$"
      - name: tags
        type: collection
        of:
          type: string
    roles:
      contact: [email]
  - name: Team
    fields:
      - name: owner
        type: nested
        schema: Person
        role: contact
      - name: members
        type: collection
        of:
          type: nested
          schema: Person
`

func writeSchemaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse_AppliesDefaults(t *testing.T) {
	f, err := Parse([]byte(`
schemas:
  - name: Tags
    fields:
      - name: label
      - name: values
        type: collection
        of: {}
`))
	require.NoError(t, err)

	assert.Equal(t, "1", f.Version)
	require.Len(t, f.Schemas, 1)
	fields := f.Schemas[0].Fields
	assert.Equal(t, "string", fields[0].Type)
	assert.Equal(t, "collection", fields[1].Type)
	require.NotNil(t, fields[1].Of)
	assert.Equal(t, "string", fields[1].Of.Type)
}

func TestParse_Roles(t *testing.T) {
	f, err := Parse([]byte(scheduleYAML))
	require.NoError(t, err)

	roles := f.Schemas[1].Roles
	assert.Equal(t, RoleSpec{Mode: "whitelist", Members: []string{"name"}}, roles["summary"])
	assert.Equal(t, RoleSpec{Mode: "blacklist", Members: []string{"id"}}, roles["hidden"])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			content: "schemas: [",
			wantErr: "failed to parse schema YAML",
		},
		{
			name: "scalar role",
			content: `
schemas:
  - name: A
    roles:
      broken: 5
`,
			wantErr: "role must be a list of field names",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	f, err := Parse([]byte(scheduleYAML))
	require.NoError(t, err)

	data, err := Marshal(f)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, f, again)
}

func TestLoadInto(t *testing.T) {
	r := mapx.NewRegistry()
	schemas, err := LoadInto(r, writeSchemaFile(t, scheduleYAML))
	require.NoError(t, err)

	names := make([]string, len(schemas))
	for i, s := range schemas {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{"Task", "Schedulable", "Person", "Team"}, names)
	assert.Equal(t, []string{"Person", "Schedulable", "Task", "Team"}, r.Names())

	task, err := r.Lookup("Task")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "object_type", "status", "priority"}, task.FieldNames())
	assert.Equal(t, "object_type", task.Discriminator())
	assert.Equal(t, "task", task.PolymorphicName())

	base, err := r.Lookup("Schedulable")
	require.NoError(t, err)
	hidden, ok := base.Role("hidden")
	require.True(t, ok)
	assert.Equal(t, mapx.ModeBlacklist, hidden.Mode())
	assert.Equal(t, []string{"id"}, hidden.Members())
	_, ok = task.Role("summary")
	assert.True(t, ok)
}

func TestLoadInto_PolymorphicMarshal(t *testing.T) {
	r := mapx.NewRegistry()
	_, err := LoadInto(r, writeSchemaFile(t, scheduleYAML))
	require.NoError(t, err)

	m, err := r.NewMapper("Schedulable", nil, map[string]any{
		"name":       "standup",
		"objectType": "task",
		"status":     "open",
	})
	require.NoError(t, err)
	obj, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":        "standup",
		"object_type": "task",
		"status":      "open",
		"priority":    3,
	}, obj)

	m, err = r.NewMapper("Schedulable", nil, map[string]any{"name": "x", "objectType": "task", "status": "closed"})
	require.NoError(t, err)
	_, err = m.Marshal()
	errs, ok := mapx.FieldErrors(err)
	require.True(t, ok)
	assert.EqualError(t, errs["status"], "closed is not a valid choice")
}

func TestLoadInto_Nested(t *testing.T) {
	r := mapx.NewRegistry()
	_, err := LoadInto(r, writeSchemaFile(t, scheduleYAML))
	require.NoError(t, err)

	m, err := r.NewMapper("Team", nil, map[string]any{
		"owner": map[string]any{"email": "ada@example.com", "code": "nope"},
		"members": []any{
			map[string]any{"email": "bob@example.com", "code": "BOB", "tags": []any{"a"}},
		},
	})
	require.NoError(t, err)
	obj, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"owner": map[string]any{"email": "ada@example.com"},
		"members": []any{
			map[string]any{"email": "bob@example.com", "code": "BOB", "tags": []any{"a"}},
		},
	}, obj)

	m, err = r.NewMapper("Team", nil, map[string]any{
		"members": []any{map[string]any{"code": "abc"}},
	})
	require.NoError(t, err)
	_, err = m.Marshal()
	errs, ok := mapx.FieldErrors(err)
	require.True(t, ok)
	assert.EqualError(t, errs["members[0].code"], "does not match pattern")
}

func TestLoadInto_UnresolvedNested(t *testing.T) {
	r := mapx.NewRegistry()
	_, err := LoadInto(r, writeSchemaFile(t, `
schemas:
  - name: Team
    fields:
      - name: owner
        type: nested
        schema: Ghost
`))
	require.Error(t, err)
	assert.True(t, mapx.IsDefinitionError(err))
	assert.Contains(t, err.Error(), "Team.owner")
}

func TestLoadInto_MissingFile(t *testing.T) {
	_, err := LoadInto(mapx.NewRegistry(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read schema file")
}

func TestBuild_ExtendsRegisteredSchema(t *testing.T) {
	r := mapx.NewRegistry()
	r.Define("Base").Field("id", mapx.Integer()).MustBuild()

	f, err := Parse([]byte(`
schemas:
  - name: Child
    extends: Base
    fields:
      - name: label
`))
	require.NoError(t, err)
	schemas, err := Build(f, r)
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Equal(t, []string{"id", "label"}, schemas[0].FieldNames())
	assert.True(t, schemas[0].HasTarget())
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
		wantErr string
	}{
		{
			name: "unknown type",
			content: `
schemas:
  - name: A
    fields:
      - name: price
        type: money
`,
			target:  mapx.ErrDefinition,
			wantErr: "unknown field type 'money'",
		},
		{
			name: "unknown parent",
			content: `
schemas:
  - name: A
    extends: Missing
`,
			target:  mapx.ErrDefinition,
			wantErr: "unknown parent schema 'Missing'",
		},
		{
			name: "extends cycle",
			content: `
schemas:
  - name: A
    extends: B
  - name: B
    extends: A
`,
			target:  mapx.ErrDefinition,
			wantErr: "extends itself",
		},
		{
			name: "duplicate schema",
			content: `
schemas:
  - name: A
  - name: A
`,
			target:  mapx.ErrDuplicateSchema,
			wantErr: "'A'",
		},
		{
			name: "schema without name",
			content: `
schemas:
  - fields:
      - name: a
`,
			target:  mapx.ErrDefinition,
			wantErr: "has no name",
		},
		{
			name: "field without name",
			content: `
schemas:
  - name: A
    fields:
      - type: integer
`,
			target:  mapx.ErrDefinition,
			wantErr: "field without a name",
		},
		{
			name: "regexp without pattern",
			content: `
schemas:
  - name: A
    fields:
      - name: code
        type: regexp
`,
			target:  mapx.ErrDefinition,
			wantErr: "requires a pattern",
		},
		{
			name: "invalid pattern",
			content: `
schemas:
  - name: A
    fields:
      - name: code
        type: regexp
        pattern: "("
`,
			target:  mapx.ErrDefinition,
			wantErr: "invalid pattern",
		},
		{
			name: "collection without element",
			content: `
schemas:
  - name: A
    fields:
      - name: tags
        type: collection
`,
			target:  mapx.ErrDefinition,
			wantErr: "requires 'of'",
		},
		{
			name: "nested without schema",
			content: `
schemas:
  - name: A
    fields:
      - name: owner
        type: nested
`,
			target:  mapx.ErrDefinition,
			wantErr: "requires 'schema'",
		},
		{
			name: "unknown role mode",
			content: `
schemas:
  - name: A
    fields:
      - name: id
    roles:
      odd:
        mode: greylist
        members: [id]
`,
			target:  mapx.ErrMalformedRole,
			wantErr: "greylist",
		},
		{
			name: "discriminator not a field",
			content: `
schemas:
  - name: A
    polymorphic_on: kind
`,
			target:  mapx.ErrPolymorphism,
			wantErr: "kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.content))
			require.NoError(t, err)

			_, err = Build(f, mapx.NewRegistry())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuild_FailureRegistersNothing(t *testing.T) {
	r := mapx.NewRegistry()
	r.Define("Existing").Field("id", mapx.Integer()).MustBuild()

	broken, err := Parse([]byte(`
schemas:
  - name: Person
    fields:
      - name: name
  - name: Child
    extends: Person
    fields:
      - name: label
  - name: Broken
    fields:
      - name: price
        type: money
`))
	require.NoError(t, err)
	_, err = Build(broken, r)
	require.Error(t, err)
	assert.Equal(t, []string{"Existing"}, r.Names())

	broken.Schemas = broken.Schemas[:2]
	schemas, err := Build(broken, r)
	require.NoError(t, err)
	assert.Len(t, schemas, 2)
	assert.Equal(t, []string{"Child", "Existing", "Person"}, r.Names())
}

func TestLoadInto_VerifyFailureRegistersNothing(t *testing.T) {
	r := mapx.NewRegistry()
	path := writeSchemaFile(t, `
schemas:
  - name: Team
    fields:
      - name: owner
        type: nested
        schema: Ghost
`)
	_, err := LoadInto(r, path)
	require.Error(t, err)
	assert.Empty(t, r.Names())

	r.Define("Ghost").Field("id", mapx.Integer()).MustBuild()
	_, err = LoadInto(r, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ghost", "Team"}, r.Names())
}
