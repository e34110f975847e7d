package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Environment conventions.
const (
	EnvPrefix     = "RETAIL_ETL_"
	EnvConfigPath = "RETAIL_ETL_CONFIG"
)

// DefaultPath is the config file looked up when none is given explicitly.
const DefaultPath = "config.yaml"

// Load builds a Config by layering defaults, an optional YAML file and
// environment variables, then validates it.
//
// The file is path when non-empty, otherwise RETAIL_ETL_CONFIG, otherwise
// DefaultPath. A missing DefaultPath is not an error; a missing file that was
// asked for explicitly is.
//
// Environment variables use "__" as the nesting separator:
//
//	RETAIL_ETL_LOG_LEVEL=debug            -> log_level
//	RETAIL_ETL_DATABASE__PASSWORD=secret  -> database.password
//	RETAIL_ETL_LOAD__CHUNK_SIZE=500       -> load.chunk_size
func Load(path string) (*Config, error) {
	base := New()
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		if p := os.Getenv(EnvConfigPath); p != "" {
			path, explicit = p, true
		} else {
			path = DefaultPath
		}
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := *base
	// A mapping given in the file replaces the default table instead of
	// being merged into it element by element.
	if k.Exists("mapping") {
		cfg.Mapping = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Dump renders the configuration as YAML with secrets masked.
func Dump(c *Config) ([]byte, error) {
	masked := *c
	if masked.Database.Password != "" {
		masked.Database.Password = "********"
	}
	if masked.Database.DSN != "" {
		masked.Database.DSN = "********"
	}
	out, err := yamlv3.Marshal(&masked)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return out, nil
}
