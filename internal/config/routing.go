package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"message-dispatcher/internal/common/errors"
	"message-dispatcher/internal/routing"
)

// LoadRoutingConfig reads and validates the YAML routing table. Any problem
// is a configuration error: startup must halt rather than serve traffic with
// a broken routing table.
func LoadRoutingConfig(path string) (*routing.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError("failed to read routing config").WithContext("path", path)
	}

	var cfg routing.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.ConfigError("failed to parse routing config: " + err.Error()).
			WithContext("path", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
