// ABOUTME: YAML logging configuration loaded from the --logconf file.
// ABOUTME: Selects level, output formatter, prefix, and timestamp reporting for the console.
package logger

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Config is the console logging configuration file format.
//
//	level: debug
//	formatter: json
//	timestamps: true
//	prefix: ppiembed
type Config struct {
	Level      string `yaml:"level"`
	Formatter  string `yaml:"formatter"`
	Timestamps bool   `yaml:"timestamps"`
	Prefix     string `yaml:"prefix"`

	level     log.Level
	formatter log.Formatter
}

// LoadConfig reads and validates a logging configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read log config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse log config: %w", err)
	}

	cfg.level = log.ErrorLevel
	if cfg.Level != "" {
		lvl, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		cfg.level = lvl
	}

	switch cfg.Formatter {
	case "", "text":
		cfg.formatter = log.TextFormatter
	case "json":
		cfg.formatter = log.JSONFormatter
	case "logfmt":
		cfg.formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log formatter %q (want text, json, or logfmt)", cfg.Formatter)
	}

	return &cfg, nil
}

func (c *Config) options() log.Options {
	return log.Options{
		Level:           c.level,
		Formatter:       c.formatter,
		ReportTimestamp: c.Timestamps,
		Prefix:          c.Prefix,
	}
}
