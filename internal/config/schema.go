package config

// Config represents the full plan configuration
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	User     UserConfig     `yaml:"user" mapstructure:"user"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
}

// DatabaseConfig locates the sqlite document store
type DatabaseConfig struct {
	// Path of the database file; empty means the XDG data directory
	Path string `yaml:"path" mapstructure:"path"`
}

// UserConfig identifies who is signed in
type UserConfig struct {
	Email string `yaml:"email" mapstructure:"email"`
}

// LogConfig configures the log file
type LogConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Level string `yaml:"level" mapstructure:"level"`
}

// CalendarConfig sets calendar defaults
type CalendarConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// ServerConfig configures `plan serve`
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}
