package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

var (
	calendarModes = []string{"duedate", "timespan"}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Calendar: CalendarConfig{
			Mode: "duedate",
		},
		Server: ServerConfig{
			Addr: "localhost:8080",
		},
	}
}

// Validate rejects values the application cannot use
func (c *Config) Validate() error {
	if !slices.Contains(calendarModes, c.Calendar.Mode) {
		return fmt.Errorf("invalid calendar.mode %q: must be one of %v", c.Calendar.Mode, calendarModes)
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("invalid log.level %q: must be one of %v", c.Log.Level, logLevels)
	}
	return nil
}

// WriteDefault writes the default configuration to path, creating its directory
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	header := "# plan configuration\n# database.path empty means $XDG_DATA_HOME/plan/plan.db\n"
	return os.WriteFile(path, append([]byte(header), data...), 0644)
}
