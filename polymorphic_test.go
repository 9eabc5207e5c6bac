package mapx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolymorphic_MarshalDispatchesToSubtype(t *testing.T) {
	r := NewRegistry()
	base, _, _ := schedulableSchemas(r, true)

	data := map[string]any{"name": "standup", "object_type": "task", "status": "open"}
	obj, err := mustMapper(t, base, nil, data).Marshal()
	require.NoError(t, err)

	task, ok := obj.(*Task)
	require.True(t, ok, "expected *Task, got %T", obj)
	assert.Equal(t, "open", task.Status)
	assert.Equal(t, "standup", task.Name)
	assert.Equal(t, "task", task.ObjectType)
}

func TestPolymorphic_UnknownDiscriminator(t *testing.T) {
	r := NewRegistry()
	base, _, _ := schedulableSchemas(r, true)

	_, err := mustMapper(t, base, nil, map[string]any{"name": "x", "object_type": "unknown"}).Marshal()
	require.Error(t, err)
	assert.True(t, IsInvalidValueError(err))

	errs, ok := FieldErrors(err)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs["object_type"], ErrUnknownDiscriminator)
}

func TestPolymorphic_MissingDiscriminatorUsesBase(t *testing.T) {
	r := NewRegistry()
	base, _, _ := schedulableSchemas(r, true)

	obj, err := mustMapper(t, base, nil, map[string]any{"name": "plain"}).Marshal()
	require.NoError(t, err)
	assert.Equal(t, &Schedulable{Name: "plain"}, obj)
}

func TestPolymorphic_DisabledMarshalIgnoresDiscriminator(t *testing.T) {
	r := NewRegistry()
	base, _, _ := schedulableSchemas(r, false)

	data := map[string]any{"name": "x", "object_type": "unknown", "status": "open"}
	obj, err := mustMapper(t, base, nil, data).Marshal()
	require.NoError(t, err)
	assert.Equal(t, &Schedulable{Name: "x", ObjectType: "unknown"}, obj)
}

func TestPolymorphic_SubtypeFieldsValidated(t *testing.T) {
	r := NewRegistry()
	base, _, _ := schedulableSchemas(r, true)

	data := map[string]any{"name": "x", "object_type": "task", "status": "closed"}
	_, err := mustMapper(t, base, nil, data).Marshal()
	errs, ok := FieldErrors(err)
	require.True(t, ok)
	assert.EqualError(t, errs["status"], "closed is not a valid choice")
}

func TestPolymorphic_SiblingDiscriminatorRejected(t *testing.T) {
	r := NewRegistry()
	_, event, _ := schedulableSchemas(r, true)

	// a Task value cannot be marshaled through Event
	_, err := mustMapper(t, event, nil, map[string]any{"object_type": "task"}).Marshal()
	errs, ok := FieldErrors(err)
	require.True(t, ok)
	assert.ErrorIs(t, errs["object_type"], ErrUnknownDiscriminator)

	obj, err := mustMapper(t, event, nil, map[string]any{"object_type": "event", "location": "room 1"}).Marshal()
	require.NoError(t, err)
	assert.Equal(t, "room 1", obj.(*Event).Location)
}

func TestPolymorphic_ComposesWithRoles(t *testing.T) {
	r := NewRegistry()
	base, _, _ := schedulableSchemas(r, true)

	data := map[string]any{"name": "standup", "object_type": "task", "status": "open", "id": "3"}
	obj, err := mustMapper(t, base, nil, data).MarshalRole(RoleNamed("summary"))
	require.NoError(t, err)

	task := obj.(*Task)
	assert.Equal(t, "standup", task.Name)
	assert.Empty(t, task.Status)
	assert.Zero(t, task.ID)
}

func TestPolymorphic_SerializeIncludesDiscriminator(t *testing.T) {
	r := NewRegistry()
	_, _, task := schedulableSchemas(r, true)

	obj := &Task{Schedulable: Schedulable{ID: 1, Name: "standup", ObjectType: "task"}, Status: "open"}
	out, err := mustMapper(t, task, obj, nil).SerializeRole(RoleNamed("summary"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "standup", "object_type": "task"}, out)
}

func TestPolymorphic_SerializeFillsEmptyDiscriminator(t *testing.T) {
	r := NewRegistry()
	_, event, _ := schedulableSchemas(r, true)

	obj := &Event{Schedulable: Schedulable{ID: 2, Name: "launch"}, Location: "hall"}
	out, err := mustMapper(t, event, obj, nil).Serialize()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":          2,
		"name":        "launch",
		"object_type": "event",
		"location":    "hall",
	}, out)
}

func TestPolymorphic_NestedDispatch(t *testing.T) {
	r := NewRegistry()
	base, _, _ := schedulableSchemas(r, true)
	agenda := r.Define("Agenda").
		Type(newMapTarget).
		Field("items", Collection(Nested(base))).
		MustBuild()

	data := map[string]any{"items": []any{
		map[string]any{"name": "a", "object_type": "event", "location": "here"},
		map[string]any{"name": "b", "object_type": "task", "status": "done"},
		map[string]any{"name": "c", "object_type": "meeting"},
	}}
	_, err := mustMapper(t, agenda, nil, data).Marshal()
	errs, ok := FieldErrors(err)
	require.True(t, ok)
	assert.Len(t, errs, 1)
	assert.ErrorIs(t, errs["items[2].object_type"], ErrUnknownDiscriminator)

	data["items"] = data["items"].([]any)[:2]
	obj, err := mustMapper(t, agenda, nil, data).Marshal()
	require.NoError(t, err)
	items := obj.(map[string]any)["items"].([]any)
	require.Len(t, items, 2)
	assert.IsType(t, &Event{}, items[0])
	assert.IsType(t, &Task{}, items[1])
}

func TestPolymorphic_DiscriminatorValueStringified(t *testing.T) {
	r := NewRegistry()
	base := r.Define("Shape").
		Type(newMapTarget).
		Field("sides", Integer()).
		PolymorphicOn("sides").
		AllowPolymorphicMarshal(true).
		MustBuild()
	r.Define("Triangle").
		Extends(base).
		Field("label", String(Default("triangle"))).
		PolymorphicName("3").
		MustBuild()

	obj, err := mustMapper(t, base, nil, map[string]any{"sides": 3}).Marshal()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sides": 3, "label": "triangle"}, obj)
}
