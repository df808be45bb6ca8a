// ABOUTME: Configuration management for ppiembed with YAML config loading.
// ABOUTME: Handles FAIRSCAPE credentials, node2vec tool settings, .env overrides, and ~ expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults for the external node2vec tool.
const (
	DefaultNode2VecCommand = "node2vec"
	DefaultNode2VecDialect = "smore"
)

// Environment variables that override values from the config file.
const (
	EnvFairscapeURL      = "PPIEMBED_FAIRSCAPE_URL"
	EnvFairscapeUsername = "PPIEMBED_FAIRSCAPE_USERNAME"
	EnvFairscapeToken    = "PPIEMBED_FAIRSCAPE_TOKEN"
	EnvNode2VecCommand   = "PPIEMBED_NODE2VEC_COMMAND"
	EnvNode2VecDialect   = "PPIEMBED_NODE2VEC_DIALECT"
)

// Config stores ppiembed configuration loaded from ~/.config/ppiembed/config.yaml.
type Config struct {
	Fairscape FairscapeConfig `yaml:"fairscape"`
	Node2Vec  Node2VecConfig  `yaml:"node2vec"`
}

// FairscapeConfig holds remote provenance registration settings.
type FairscapeConfig struct {
	APIURL   string `yaml:"api_url"`
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
}

// Node2VecConfig selects the external node2vec executable and its flag dialect.
type Node2VecConfig struct {
	Command string `yaml:"command"`
	Dialect string `yaml:"dialect"` // "smore" or "snap"
}

// HasRemote returns true if remote FAIRSCAPE registration is configured.
func (c *Config) HasRemote() bool {
	return c.Fairscape.APIURL != "" && c.Fairscape.Token != ""
}

// GetNode2VecCommand returns the node2vec executable with ~ expanded.
func (c *Config) GetNode2VecCommand() (string, error) {
	if c.Node2Vec.Command == "" {
		return DefaultNode2VecCommand, nil
	}
	return ExpandPath(c.Node2Vec.Command)
}

// GetNode2VecDialect returns the configured dialect, defaulting to smore.
func (c *Config) GetNode2VecDialect() string {
	if c.Node2Vec.Dialect == "" {
		return DefaultNode2VecDialect
	}
	return c.Node2Vec.Dialect
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "ppiembed", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// LoadEnv loads a .env file from the working directory when present.
// Variables already set in the environment win.
func LoadEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// LoadFile reads config from disk without environment overrides.
// Returns default config if the file doesn't exist.
func LoadFile() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads config from disk and applies .env and environment overrides.
func Load() (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvFairscapeURL, &c.Fairscape.APIURL},
		{EnvFairscapeUsername, &c.Fairscape.Username},
		{EnvFairscapeToken, &c.Fairscape.Token},
		{EnvNode2VecCommand, &c.Node2Vec.Command},
		{EnvNode2VecDialect, &c.Node2Vec.Dialect},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.target = v
		}
	}
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
