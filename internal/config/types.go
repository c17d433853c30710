package config

import "github.com/phuonglab/marionette-firmware/internal/msg"

// Config represents the complete marionette daemon configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	API     APIConfig     `yaml:"api,omitempty"`
	Log     LogConfig     `yaml:"log"`
	Audit   AuditConfig   `yaml:"audit"`
	Output  OutputConfig  `yaml:"output"`
	Session SessionConfig `yaml:"session"`
	Modules ModulesConfig `yaml:"modules"`
}

// ServiceConfig defines core daemon settings.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Listen  string `yaml:"listen"`
	PIDFile string `yaml:"pid_file,omitempty"`
}

// APIConfig defines the HTTP status API settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LogConfig defines logging settings. An empty File keeps logs on stderr.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
}

// AuditConfig defines command audit storage settings.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// OutputConfig defines how the shared output channel is serialized.
// GateScope "line" keeps individual emissions atomic; "transaction" holds
// the gate across a whole BEGIN/END block.
type OutputConfig struct {
	GateScope msg.Scope `yaml:"gate_scope"`
}

// SessionConfig defines command session settings.
type SessionConfig struct {
	Prompt        bool `yaml:"prompt"`
	MaxLineLength int  `yaml:"max_line_length"`
}

// ModulesConfig enables or disables the peripheral command modules.
type ModulesConfig struct {
	GPIO ModuleConfig `yaml:"gpio"`
	DAC  ModuleConfig `yaml:"dac"`
}

// ModuleConfig is the per-module switch.
type ModuleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:   "marionette",
			Listen: ":7788",
		},
		API: APIConfig{
			Enabled: true,
			Listen:  "127.0.0.1:7780",
		},
		Log: LogConfig{
			Level: "INFO",
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    "data/audit.db",
		},
		Output: OutputConfig{
			GateScope: msg.ScopeLine,
		},
		Session: SessionConfig{
			Prompt:        true,
			MaxLineLength: 1024,
		},
		Modules: ModulesConfig{
			GPIO: ModuleConfig{Enabled: true},
			DAC:  ModuleConfig{Enabled: true},
		},
	}
}
