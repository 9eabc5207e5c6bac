package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/hengadev/mapx"
	"github.com/hengadev/mapx/internal/codec"
	"github.com/hengadev/mapx/internal/logging"
	"github.com/hengadev/mapx/schemafile"
)

// flagOverrides holds command line values taking precedence over the
// environment.
type flagOverrides struct {
	SchemaFile string
	DataFormat string
	Role       string
}

// resolveConfig merges the environment and flags into a validated config.
func resolveConfig(flags flagOverrides, getenv func(string) string) (mapx.Config, error) {
	cfg := mapx.Config{
		SchemaFile: getenv(mapx.EnvSchemaFile),
		DataFormat: getenv(mapx.EnvDataFormat),
		Role:       getenv(mapx.EnvRole),
		LogLevel:   getenv(mapx.EnvLogLevel),
		LogFormat:  getenv(mapx.EnvLogFormat),
	}
	if flags.SchemaFile != "" {
		cfg.SchemaFile = flags.SchemaFile
	}
	if flags.DataFormat != "" {
		cfg.DataFormat = flags.DataFormat
	}
	if flags.Role != "" {
		cfg.Role = flags.Role
	}

	if err := cfg.Validate(); err != nil {
		return mapx.Config{}, err
	}
	return cfg, nil
}

type app struct {
	cfg      mapx.Config
	codec    codec.Codec
	logger   *slog.Logger
	registry *mapx.Registry
	schemas  []*mapx.Schema
	metrics  *mapx.InMemoryMetricsCollector
}

func newApp(flags flagOverrides, getenv func(string) string) (*app, error) {
	cfg, err := resolveConfig(flags, getenv)
	if err != nil {
		return nil, err
	}
	return newAppFromConfig(cfg, os.Stderr)
}

func newAppFromConfig(cfg mapx.Config, logOutput io.Writer) (*app, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	c, err := codec.ForFormat(cfg.DataFormat)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.LoggerConfig{
		Level:     level,
		Format:    format,
		Output:    logOutput,
		Component: "cli",
		Version:   mapx.Version,
	})
	registry := mapx.NewRegistry(mapx.WithRegistryLogger(logger))
	schemas, err := schemafile.LoadInto(registry, cfg.SchemaFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("schema file loaded",
		slog.String("path", cfg.SchemaFile),
		slog.Int("schemas", len(schemas)))

	return &app{
		cfg:      cfg,
		codec:    c,
		logger:   logger,
		registry: registry,
		schemas:  schemas,
		metrics:  mapx.NewInMemoryMetricsCollector(),
	}, nil
}

// readDocument decodes the named file, or stdin when path is empty or "-".
func (a *app) readDocument(path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeDocument(a.codec, data)
}

func (a *app) mapper(name string, object any, data map[string]any) (*mapx.Mapper, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: -name is required", mapx.ErrConfiguration)
	}
	return a.registry.NewMapper(name, object, data,
		mapx.WithLogger(a.logger),
		mapx.WithObservabilityHook(mapx.NewStandardObservabilityHook(a.metrics)))
}

func (a *app) marshal(out io.Writer, name string, doc map[string]any, dump bool) error {
	m, err := a.mapper(name, nil, doc)
	if err != nil {
		return err
	}
	obj, err := m.MarshalRole(a.cfg.RoleRef())
	if err != nil {
		return err
	}
	if dump {
		spew.Fdump(out, obj)
		return nil
	}
	return a.write(out, obj)
}

func (a *app) serialize(out io.Writer, name string, doc map[string]any) error {
	m, err := a.mapper(name, doc, nil)
	if err != nil {
		return err
	}
	data, err := m.SerializeRole(a.cfg.RoleRef())
	if err != nil {
		return err
	}
	return a.write(out, data)
}

func (a *app) write(out io.Writer, v any) error {
	encoded, err := a.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if _, err := out.Write(encoded); err != nil {
		return err
	}
	if len(encoded) > 0 && encoded[len(encoded)-1] != '\n' {
		_, err = io.WriteString(out, "\n")
	}
	return err
}

// reportMetrics logs every mapping counter collected during the run.
func (a *app) reportMetrics() {
	for _, key := range a.metrics.GetAllCounterKeys() {
		a.logger.Debug("mapping metric",
			slog.String("metric", key),
			slog.Int64("value", a.metrics.GetCounterValueByKey(key)))
	}
}

// describe prints the loaded schemas.
func (a *app) describe(out io.Writer, verbose bool) {
	fmt.Fprintf(out, "Schema file %s is valid: %d schemas\n", a.cfg.SchemaFile, len(a.schemas))
	for _, s := range a.schemas {
		fmt.Fprintf(out, "  %s\n", s.Name())
		if !verbose {
			continue
		}
		for _, field := range s.FieldNames() {
			fmt.Fprintf(out, "    field %s\n", field)
		}
		roles := s.Roles()
		names := make([]string, 0, len(roles))
		for role := range roles {
			names = append(names, role)
		}
		sort.Strings(names)
		for _, role := range names {
			r := roles[role]
			fmt.Fprintf(out, "    role %s (%s) %v\n", role, r.Mode(), r.Members())
		}
		if d := s.Discriminator(); d != "" {
			fmt.Fprintf(out, "    polymorphic on %s\n", d)
		}
	}
}

// fieldErrorLines renders an aggregate error as sorted "path: reason" lines.
func fieldErrorLines(err error) []string {
	errs, ok := mapx.FieldErrors(err)
	if !ok {
		return nil
	}
	lines := make([]string, 0, len(errs))
	for path, ferr := range errs {
		lines = append(lines, fmt.Sprintf("%s: %v", path, ferr))
	}
	sort.Strings(lines)
	return lines
}
