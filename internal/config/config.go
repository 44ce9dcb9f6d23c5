// Package config resolves server configuration from the environment and an
// optional YAML file at ~/.mcp-aws-pricing/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings holds user-tunable configuration.
type Settings struct {
	// WorkingDirectory is where generated result files land when the
	// caller does not supply a path.
	WorkingDirectory string `yaml:"working_directory"`

	// FilterAliases extends the builtin friendly-filter-name table. Keys
	// are the names callers use, values are Price List attribute names.
	FilterAliases map[string]string `yaml:"filter_aliases"`
}

var (
	settings     *Settings
	settingsOnce sync.Once
)

// Load returns the process-wide settings, reading the config file on first
// use. A missing or malformed file yields defaults; configuration is never a
// reason to refuse to start.
func Load() *Settings {
	settingsOnce.Do(func() {
		loaded, err := LoadFrom(configPath())
		if err != nil {
			loaded = &Settings{}
		}
		settings = loaded
		settings.applyDefaults()
	})
	return settings
}

// LoadFrom reads settings from an explicit path.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return s, nil
}

// ResultFileDirectory returns the directory for generated result files,
// creating it if needed. Resolution order: MCP_AWS_PRICING_WORKING_DIR,
// config file, ~/.mcp-aws-pricing/results, then the OS temp dir.
func (s *Settings) ResultFileDirectory() (string, error) {
	dir := os.Getenv("MCP_AWS_PRICING_WORKING_DIR")
	if dir == "" {
		dir = s.WorkingDirectory
	}
	if dir == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(homeDir, ".mcp-aws-pricing", "results")
		} else {
			dir = filepath.Join(os.TempDir(), "mcp-aws-pricing")
		}
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create working directory: %w", err)
	}
	return dir, nil
}

func (s *Settings) applyDefaults() {
	if s.FilterAliases == nil {
		s.FilterAliases = map[string]string{}
	}
}

// configPath honours MCP_AWS_PRICING_CONFIG before falling back to the
// default location under the home directory.
func configPath() string {
	if custom := os.Getenv("MCP_AWS_PRICING_CONFIG"); custom != "" {
		return custom
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".mcp-aws-pricing", "config.yaml")
}
