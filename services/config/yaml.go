//go:build !tinygo

package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse overlays a YAML document on Default and validates the result.
// Unknown keys are rejected; durations use Go syntax ("250ms", "2s").
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Marshal renders cfg as YAML, e.g. to seed a config file.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
