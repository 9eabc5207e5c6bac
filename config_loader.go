package mapx

import (
	"fmt"
	"os"
)

// LoadConfigFromEnvironment loads configuration from environment variables.
//
// Required environment variables:
//   - MAPX_SCHEMA_FILE: path of the YAML schema file
//
// Optional environment variables (defaults are applied if not set):
//   - MAPX_DATA_FORMAT: json or yaml (default: json)
//   - MAPX_ROLE: role name (default: __default__)
//   - MAPX_LOG_LEVEL: debug, info, warn or error (default: warn)
//   - MAPX_LOG_FORMAT: json or text (default: text)
func LoadConfigFromEnvironment() (Config, error) {
	schemaFile := os.Getenv(EnvSchemaFile)
	if schemaFile == "" {
		return Config{}, fmt.Errorf("%w: %s environment variable is required", ErrConfiguration, EnvSchemaFile)
	}

	cfg := Config{
		SchemaFile: schemaFile,
		DataFormat: getEnvOrDefault(EnvDataFormat, DefaultDataFormat),
		Role:       getEnvOrDefault(EnvRole, DefaultRole),
		LogLevel:   getEnvOrDefault(EnvLogLevel, DefaultLogLevel),
		LogFormat:  getEnvOrDefault(EnvLogFormat, DefaultLogFormat),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// getEnvOrDefault returns the value of an environment variable, or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
