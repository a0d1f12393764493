package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors the analyze command's flags, for callers that prefer a
// checked-in configuration file over long invocations.
type Config struct {
	Format       string        `yaml:"format"`
	Export       string        `yaml:"export"`
	Output       string        `yaml:"output"`
	Workers      int           `yaml:"workers"`
	MinFrameTime time.Duration `yaml:"min_frame_time"`
	LogLevel     string        `yaml:"log_level"`
}

func (c *Config) fillDefault() {
	if c.Format == "" {
		c.Format = "auto"
	}
	if c.Export == "" {
		c.Export = "report"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func ParseConfig(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("can't open config file: %w", err)
	}
	defer file.Close()

	var conf Config

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil {
		return nil, fmt.Errorf("can't parse config %s: %w", configPath, err)
	}

	conf.fillDefault()

	if conf.Workers < 0 {
		return nil, fmt.Errorf("workers must be non-negative, got %d", conf.Workers)
	}
	if conf.MinFrameTime < 0 {
		return nil, fmt.Errorf("min_frame_time must be non-negative, got %s", conf.MinFrameTime)
	}

	return &conf, nil
}
