// Package config provides configuration loading for the CLI: YAML runtime
// configuration and JSON project (timeline) descriptions.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/playcore/pkg/settings"
)

// SphericalConfig tags rendered output as spherical video.
type SphericalConfig struct {
	Projection string  `yaml:"projection"`
	Yaw        float32 `yaml:"yaw"`
	Pitch      float32 `yaml:"pitch"`
	Roll       float32 `yaml:"roll"`
}

// Config represents the full configuration for playcore.
type Config struct {
	// Output
	OutputPath string `yaml:"output"`
	Quality    int    `yaml:"quality"`

	// Playback cache
	CacheMegabytes int64 `yaml:"cache_megabytes"`

	// Spherical output tagging
	Spherical SphericalConfig `yaml:"spherical"`

	// Engine + effect settings
	Settings *settings.Settings `yaml:"settings"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Quality:        90,
		CacheMegabytes: 512,
		Settings:       settings.Default(),
		DebugDir:       "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Settings == nil {
		cfg.Settings = settings.Default()
	}

	return cfg, nil
}
