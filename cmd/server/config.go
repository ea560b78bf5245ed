package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server configuration, loadable from a YAML file
// and overridable by flags.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	DBPath         string   `yaml:"db_path"`
	OutputDir      string   `yaml:"output_dir"`
	MaxImageBytes  int64    `yaml:"max_image_bytes"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultServerConfig returns the configuration used when no file or
// flags are given.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		DBPath:         "img2wav.sqlite3",
		OutputDir:      "renders",
		MaxImageBytes:  32 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// LoadServerConfig reads a YAML config file over the defaults.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// parseOrigins splits a comma-separated origins flag.
func parseOrigins(s string) []string {
	if s == "*" || s == "" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
