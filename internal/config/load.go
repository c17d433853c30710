package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file, applying defaults for
// anything the file leaves unset. Values may reference environment
// variables with ${VAR} syntax.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", absPath, err)
	}
	return cfg, nil
}

// expandEnvVars substitutes ${VAR} references; unset variables expand to
// the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// Validate checks internal consistency. It is called by Load and again by
// callers that assemble a Config programmatically.
func (c *Config) Validate() error {
	if c.Service.Listen == "" {
		return fmt.Errorf("service.listen is empty")
	}
	if c.API.Enabled && c.API.Listen == "" {
		return fmt.Errorf("api.listen is empty while api is enabled")
	}
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("log.level %q is not one of DEBUG, INFO, WARN, ERROR", c.Log.Level)
	}
	if !c.Output.GateScope.Valid() {
		return fmt.Errorf("output.gate_scope %q is not %q or %q", c.Output.GateScope, "line", "transaction")
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is empty while audit is enabled")
	}
	if c.Session.MaxLineLength <= 0 {
		return fmt.Errorf("session.max_line_length must be positive")
	}
	return nil
}
