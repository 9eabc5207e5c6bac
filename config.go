package mapx

import (
	"fmt"
	"strings"
)

// Config holds the settings of a mapping run driven from outside Go code,
// such as the mapx command.
//
// This struct contains only data, no behavior. Configuration can be loaded from
// any source (environment variables, files, flags) and validated before use.
//
// Optional fields (defaults are applied if empty):
//   - DataFormat: json or yaml (default: json)
//   - Role: role name (default: __default__)
//   - LogLevel: debug, info, warn or error (default: warn)
//   - LogFormat: json or text (default: text)
//
// Example usage:
//
//	cfg := mapx.Config{
//	    SchemaFile: "schemas.yaml",
//	    DataFormat: "yaml",
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// SchemaFile is the path of the YAML schema file.
	//
	// Required field.
	SchemaFile string

	// DataFormat is the encoding of the data documents.
	DataFormat string

	// Role is the role used when mapping.
	Role string

	// LogLevel is the minimum level logged.
	LogLevel string

	// LogFormat selects the log handler.
	LogFormat string
}

// Validate checks that the configuration is valid and applies defaults to optional fields.
func (c *Config) Validate() error {
	if c.SchemaFile == "" {
		return fmt.Errorf("%w: SchemaFile is required", ErrConfiguration)
	}

	if c.DataFormat == "" {
		c.DataFormat = DefaultDataFormat
	}
	c.DataFormat = strings.ToLower(c.DataFormat)
	switch c.DataFormat {
	case "json", "yaml":
	default:
		return fmt.Errorf("%w: DataFormat must be json or yaml, got '%s'", ErrConfiguration, c.DataFormat)
	}

	if c.Role == "" {
		c.Role = DefaultRole
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: LogLevel must be debug, info, warn or error, got '%s'", ErrConfiguration, c.LogLevel)
	}

	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	c.LogFormat = strings.ToLower(c.LogFormat)
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: LogFormat must be json or text, got '%s'", ErrConfiguration, c.LogFormat)
	}

	return nil
}

// RoleRef returns the configured role as a reference.
func (c Config) RoleRef() RoleRef {
	if c.Role == "" || c.Role == DefaultRole {
		return RoleRef{}
	}
	return RoleNamed(c.Role)
}
