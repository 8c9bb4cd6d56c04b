package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in unset fields that have sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = TransportStdio
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.Transport.IsValid() {
		errs = append(errs, fmt.Errorf("server.transport %q is invalid; valid values: stdio, streamable-http", cfg.Server.Transport))
	}
	if cfg.Server.Transport == TransportStreamableHTTP && cfg.Server.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("server.listen_addr is required when transport is streamable-http"))
	}
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	switch {
	case cfg.Dataset.Path == "" && cfg.Dataset.PostgresDSN == "":
		errs = append(errs, fmt.Errorf("dataset: either path or postgres_dsn must be set"))
	case cfg.Dataset.Path != "" && cfg.Dataset.PostgresDSN != "":
		errs = append(errs, fmt.Errorf("dataset: path and postgres_dsn are mutually exclusive"))
	}

	return errors.Join(errs...)
}
