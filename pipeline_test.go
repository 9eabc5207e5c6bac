package mapx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingType builds pipelines whose stages append their names to calls.
func recordingType(calls *[]string, failAt string) FieldType {
	stage := func(name string) Stage {
		return NewStage(name, func(s *Session) error {
			*calls = append(*calls, name)
			if name == failAt {
				return s.Invalid("failed at " + name)
			}
			return nil
		})
	}
	return TypeFunc(func(d Direction) Pipeline {
		return Pipeline{
			Input:      []Stage{stage("in"), marshalInputStage},
			Validation: []Stage{stage("v1"), stage("v2")},
			Process:    []Stage{stage("p")},
			Output:     []Stage{stage("out"), marshalOutputStage},
		}
	})
}

func TestPipeline_RunsPhasesInOrder(t *testing.T) {
	var calls []string
	f := NewField(recordingType(&calls, "")).Named("x")

	writer := mapWriter{}
	s := &Session{Field: f, Direction: DirectionMarshal, data: map[string]any{"x": 1}, writer: writer}
	require.NoError(t, f.Pipeline(DirectionMarshal).Run(s))

	assert.Equal(t, []string{"in", "v1", "v2", "p", "out"}, calls)
	assert.Equal(t, 1, writer["x"])
}

func TestPipeline_FirstErrorAborts(t *testing.T) {
	var calls []string
	f := NewField(recordingType(&calls, "v1")).Named("x")

	writer := mapWriter{}
	s := &Session{Field: f, Direction: DirectionMarshal, data: map[string]any{"x": 1}, writer: writer}
	err := f.Pipeline(DirectionMarshal).Run(s)

	require.Error(t, err)
	assert.EqualError(t, err, "failed at v1")
	assert.Equal(t, []string{"in", "v1"}, calls)
	assert.Empty(t, writer)
}

func TestPipeline_SkipEndsSuccessfully(t *testing.T) {
	var calls []string
	f := NewField(recordingType(&calls, "")).Named("x")

	writer := mapWriter{}
	s := &Session{Field: f, Direction: DirectionMarshal, data: map[string]any{}, writer: writer}
	require.NoError(t, f.Pipeline(DirectionMarshal).Run(s))

	assert.True(t, s.Skipped())
	assert.Equal(t, []string{"in"}, calls)
	assert.Empty(t, writer)
}

func TestPipeline_Stages(t *testing.T) {
	p := Pipeline{
		Input:   []Stage{NewStage("a", nil)},
		Process: []Stage{NewStage("b", nil)},
	}
	assert.Equal(t, []StageRef{{PhaseInput, "a"}, {PhaseProcess, "b"}}, p.Stages())
}

func TestPipeline_CustomFieldType(t *testing.T) {
	upper := TypeFunc(func(d Direction) Pipeline {
		if d == DirectionMarshal {
			return marshalPipeline([]Stage{isStringStage}, []Stage{NewStage("shout", func(s *Session) error {
				s.Value = s.Value.(string) + "!"
				return nil
			})})
		}
		return serializePipeline(nil, nil)
	})

	r := NewRegistry()
	schema := r.Define("Greeting").
		Type(func() any { return map[string]any{} }).
		Field("word", NewField(upper)).
		MustBuild()

	m, err := New(schema, nil, map[string]any{"word": "hello"})
	require.NoError(t, err)
	obj, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"word": "hello!"}, obj)
}

func TestSession_NonAggregatableErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	failing := TypeFunc(func(d Direction) Pipeline {
		return Pipeline{Input: []Stage{NewStage("explode", func(*Session) error { return boom })}}
	})

	r := NewRegistry()
	schema := r.Define("Broken").
		Type(func() any { return map[string]any{} }).
		Field("x", NewField(failing)).
		Field("y", String(Required())).
		MustBuild()

	m, err := New(schema, nil, map[string]any{})
	require.NoError(t, err)
	_, err = m.Marshal()
	assert.ErrorIs(t, err, boom)
	_, ok := FieldErrors(err)
	assert.False(t, ok)
}

func TestDirectionAndPhase_String(t *testing.T) {
	assert.Equal(t, "marshal", DirectionMarshal.String())
	assert.Equal(t, "serialize", DirectionSerialize.String())
	assert.Equal(t, "validation", PhaseValidation.String())
	assert.Equal(t, "output", PhaseOutput.String())
}
