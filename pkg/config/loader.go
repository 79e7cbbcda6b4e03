package config

import (
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/Mobinergy/database-kit/pkg/errors"
)

// Load reads a configuration file, applies defaults, and validates it.
// The format is chosen by extension: .yaml/.yml or .json.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "read config file")
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "parse yaml config")
		}
	case ".json":
		if err := gojson.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "parse json config")
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported config format %q", filepath.Ext(path))
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
