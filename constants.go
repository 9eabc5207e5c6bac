package mapx

// Environment variable names
const (
	// EnvSchemaFile is the environment variable name for the YAML schema file.
	EnvSchemaFile = "MAPX_SCHEMA_FILE"

	// EnvDataFormat is the environment variable name for the data document format.
	// Accepted values: json, yaml. Default: json
	EnvDataFormat = "MAPX_DATA_FORMAT"

	// EnvRole is the environment variable name for the role applied when none is passed.
	// Default: __default__
	EnvRole = "MAPX_ROLE"

	// EnvLogLevel is the environment variable name for the log level.
	// Accepted values: debug, info, warn, error. Default: warn
	EnvLogLevel = "MAPX_LOG_LEVEL"

	// EnvLogFormat is the environment variable name for the log format.
	// Accepted values: json, text. Default: text
	EnvLogFormat = "MAPX_LOG_FORMAT"
)

// Default values
const (
	DefaultDataFormat = "json"
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = "text"
)
