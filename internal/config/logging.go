package config

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Verbose switches the level to debug.
	Verbose bool `json:"verbose,omitempty"`
}

// DefaultLoggingConfig returns the logging defaults.
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{}
}
