// Package config loads ambient settings from environment variables with
// sensible defaults and validates them before any input is read.
//
// Per-run behavior (delimiters, output mode, column subsets) comes from
// command line flags; this package only covers knobs that are usually set
// once per environment.
package config

// Config holds all environment-driven settings.
type Config struct {
	Logging LoggingConfig
	Input   InputConfig
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: warn)
	Level string `env:"DSV_LOG_LEVEL" default:"warn"`

	// Format is the log format: text or json (default: text)
	Format string `env:"DSV_LOG_FORMAT" default:"text"`
}

// InputConfig holds input handling settings.
type InputConfig struct {
	// BigFileLimit is the size in bytes above which a file is read twice
	// instead of being held in memory (default: 100MiB)
	BigFileLimit int64 `env:"DSV_BIG_FILE_LIMIT" default:"104857600"`
}
