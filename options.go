package mapx

import (
	"fmt"
	"io"
	"log/slog"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// MapperOption configures a Mapper.
type MapperOption func(m *Mapper) error

// WithRegistry sets the registry used to resolve nested schemas referenced by
// name. It defaults to the registry the schema was built in.
func WithRegistry(r *Registry) MapperOption {
	return func(m *Mapper) error {
		if r == nil {
			return fmt.Errorf("%w: registry cannot be nil", ErrConfiguration)
		}
		m.env.registry = r
		return nil
	}
}

// WithLogger sets the logger receiving field and dispatch events.
func WithLogger(logger *slog.Logger) MapperOption {
	return func(m *Mapper) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrConfiguration)
		}
		m.env.logger = logger
		return nil
	}
}

// WithObservabilityHook sets the hook notified around each mapping call.
func WithObservabilityHook(hook ObservabilityHook) MapperOption {
	return func(m *Mapper) error {
		if hook == nil {
			return fmt.Errorf("%w: observability hook cannot be nil", ErrConfiguration)
		}
		m.env.hook = hook
		return nil
	}
}
