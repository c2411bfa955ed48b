package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = 9000
)

// LoadServerConfig builds the server configuration from environment
// variables (HOST, PORT, DEBUG) with explicit flag values taking precedence.
func LoadServerConfig(flags *pflag.FlagSet) (*ServerConfig, error) {
	v := viper.New()
	v.SetDefault("host", defaultHost)
	v.SetDefault("port", defaultPort)
	v.SetDefault("debug", false)
	v.SetDefault("run-rate-limit", 0.0)

	for _, key := range []string{"host", "port", "debug"} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg := &ServerConfig{
		Host:         v.GetString("host"),
		Port:         v.GetInt("port"),
		Debug:        v.GetBool("debug"),
		RunRateLimit: v.GetFloat64("run-rate-limit"),
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.RunRateLimit < 0 {
		return nil, fmt.Errorf("run-rate-limit must not be negative, got %g", cfg.RunRateLimit)
	}

	return cfg, nil
}

// LoadRunSpecFile reads a RunSpec from a YAML or JSON file, chosen by
// extension, and applies defaults. Validation is left to the caller.
func LoadRunSpecFile(path string) (*RunSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run spec: %w", err)
	}

	spec := &RunSpec{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, spec); err != nil {
			return nil, fmt.Errorf("parse run spec %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, spec); err != nil {
			return nil, fmt.Errorf("parse run spec %s: %w", path, err)
		}
	}

	spec.ApplyDefaults()
	return spec, nil
}
