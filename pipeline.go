package mapx

import (
	"log/slog"
)

// Direction selects which of a field's pipelines runs.
type Direction int8

const (
	// DirectionMarshal converts external data into a domain object.
	DirectionMarshal Direction = iota
	// DirectionSerialize converts a domain object into external data.
	DirectionSerialize
)

func (d Direction) String() string {
	switch d {
	case DirectionMarshal:
		return "marshal"
	case DirectionSerialize:
		return "serialize"
	default:
		return "unknown"
	}
}

// Phase groups stages. Phases always run in declaration order.
type Phase int8

const (
	PhaseInput Phase = iota
	PhaseValidation
	PhaseProcess
	PhaseOutput
)

var phases = [...]Phase{PhaseInput, PhaseValidation, PhaseProcess, PhaseOutput}

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseValidation:
		return "validation"
	case PhaseProcess:
		return "process"
	case PhaseOutput:
		return "output"
	default:
		return "unknown"
	}
}

// StageFunc transforms s.Value or moves it in or out of the session.
type StageFunc func(s *Session) error

// Stage is a named step of a pipeline.
type Stage struct {
	Name string
	Run  StageFunc
}

// NewStage names fn.
func NewStage(name string, fn StageFunc) Stage {
	return Stage{Name: name, Run: fn}
}

// Pipeline is the ordered list of stages run for one field in one direction.
type Pipeline struct {
	Input      []Stage
	Validation []Stage
	Process    []Stage
	Output     []Stage
}

// StageRef locates a stage inside a pipeline.
type StageRef struct {
	Phase Phase
	Name  string
}

// Stages lists the stages in execution order.
func (p Pipeline) Stages() []StageRef {
	var refs []StageRef
	for _, phase := range phases {
		for _, st := range p.phase(phase) {
			refs = append(refs, StageRef{Phase: phase, Name: st.Name})
		}
	}
	return refs
}

func (p Pipeline) phase(ph Phase) []Stage {
	switch ph {
	case PhaseInput:
		return p.Input
	case PhaseValidation:
		return p.Validation
	case PhaseProcess:
		return p.Process
	case PhaseOutput:
		return p.Output
	default:
		return nil
	}
}

// Run executes every stage against s. The first failing stage aborts the
// pipeline; a stage calling s.Skip ends it successfully.
func (p Pipeline) Run(s *Session) error {
	for _, phase := range phases {
		for _, st := range p.phase(phase) {
			if err := st.Run(s); err != nil {
				return err
			}
			if s.skipped {
				return nil
			}
		}
	}
	return nil
}

// attributeWriter receives the values produced by marshal pipelines.
type attributeWriter interface {
	Set(name string, value any) error
}

// env is shared by every session of one mapper call, nested calls included.
type env struct {
	registry *Registry
	logger   *slog.Logger
	hook     ObservabilityHook
}

// Session carries one field's value through a pipeline.
type Session struct {
	Field     *Field
	Direction Direction
	// Value is the value flowing between stages.
	Value any

	// data is the input mapping when marshaling and the output mapping when
	// serializing.
	data map[string]any
	// object is read when serializing.
	object any
	// writer receives marshaled values.
	writer attributeWriter

	env     *env
	skipped bool
}

// Skip ends the pipeline without output.
func (s *Session) Skip() { s.skipped = true }

// Skipped reports whether a stage skipped the field.
func (s *Session) Skipped() bool { return s.skipped }

// Invalid reports an invalid value for the session's field.
func (s *Session) Invalid(reason string) error {
	return s.Field.Invalid(reason)
}

// Registry returns the registry used to resolve schemas referenced by name.
func (s *Session) Registry() *Registry {
	if s.env == nil || s.env.registry == nil {
		return DefaultRegistry
	}
	return s.env.registry
}

func (s *Session) logger() *slog.Logger {
	if s.env == nil || s.env.logger == nil {
		return discardLogger
	}
	return s.env.logger
}

// child creates the session of a wrapped field sharing this session's env.
func (s *Session) child(f *Field) *Session {
	return &Session{Field: f, Direction: s.Direction, env: s.env}
}
