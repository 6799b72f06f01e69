package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/vdiff/engine"
	"github.com/gogpu/vdiff/metrics"
)

// Config holds defaults shared by the subcommands. Flags override it.
// Threshold and MaxFailPercent are pointers so that an explicit 0 in the
// file is kept.
type Config struct {
	Mode           string       `yaml:"mode"`
	Threshold      *float64     `yaml:"threshold"`
	Stride         int          `yaml:"stride"`
	MaxFailPercent *float64     `yaml:"max_fail_percent"`
	Format         string       `yaml:"format"`
	Language       string       `yaml:"language"`
	ROI            *metrics.ROI `yaml:"roi"`
	Render         RenderConfig `yaml:"render"`
}

// RenderConfig controls the headless render subcommand.
type RenderConfig struct {
	Width         int      `yaml:"width"`
	Height        int      `yaml:"height"`
	Amplification float64  `yaml:"amplification"`
	Opacity       *float64 `yaml:"opacity"`
	BlockSize     float64  `yaml:"block_size"`
}

func (c *Config) defaults() {
	if c.Mode == "" {
		c.Mode = "difference"
	}
	if c.Threshold == nil || *c.Threshold < 0 {
		c.Threshold = engine.Float(10)
	}
	if c.Stride <= 0 {
		c.Stride = metrics.DefaultStride
	}
	if c.MaxFailPercent == nil || *c.MaxFailPercent < 0 {
		c.MaxFailPercent = engine.Float(1)
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Render.Width <= 0 {
		c.Render.Width = 800
	}
	if c.Render.Height <= 0 {
		c.Render.Height = 600
	}
}

// loadConfig reads a YAML config file. An empty path returns the defaults.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	cfg.defaults()
	return cfg, nil
}
