// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	fnderr "github.com/foundation-hq/foundation/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level Foundation configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Embedder EmbedderConfig `mapstructure:"embedder"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig controls how the gateway listens for connections.
type ServerConfig struct {
	Listen       string        `mapstructure:"listen"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StorageConfig selects the storage backend and its location.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
}

// EmbedderConfig holds the embedding endpoint and the process-wide vector
// dimension agreed with the storage schema.
type EmbedderConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// AuthConfig controls credential bootstrap. MasterKey, when set, seeds the
// master credential on first start; it is read from config or the
// FOUNDATION_AUTH_MASTER_KEY environment variable and never logged.
type AuthConfig struct {
	MasterKey string `mapstructure:"master_key"`
}

// SetDefaults registers the default value for every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", "127.0.0.1:8420")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("embedder.endpoint", "http://127.0.0.1:11434")
	v.SetDefault("embedder.model", "granite-embedding:278m")
	v.SetDefault("embedder.dimensions", 1024)
	v.SetDefault("auth.master_key", "")
}

// SetupEnv binds environment variables with the FOUNDATION_ prefix
// (e.g. FOUNDATION_SERVER_LISTEN, FOUNDATION_AUTH_MASTER_KEY).
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("FOUNDATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fnderr.Errorf(fnderr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
		WarnInsecurePermissions(path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fnderr.Errorf(fnderr.CodeConfigLoadReadFailure, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns all
// validation errors found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateEmbedder()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
	} else {
		_, portStr, err := net.SplitHostPort(c.Server.Listen)
		if err != nil {
			errs = append(errs, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue,
				"config: server.listen must be a valid host:port address, got %q: %w",
				c.Server.Listen, err,
			))
		} else {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				errs = append(errs, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue,
					"config: server.listen port must be a number, got %q", portStr))
			} else if port < 1 || port > 65535 {
				errs = append(errs, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue,
					"config: server.listen port must be between 1 and 65535, got %d", port))
			}
		}
	}

	if c.Server.ReadTimeout < 0 {
		errs = append(errs, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue,
			"config: server.read_timeout must not be negative, got %s", c.Server.ReadTimeout))
	}
	if c.Server.WriteTimeout < 0 {
		errs = append(errs, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue,
			"config: server.write_timeout must not be negative, got %s", c.Server.WriteTimeout))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"sqlite": true, "memory": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite, memory], got %q", c.Storage.Backend))
	}

	if c.Storage.Backend == "sqlite" && c.Storage.DataDir == "" {
		errs = append(errs, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue,
			"config: storage.data_dir must not be empty for the sqlite backend"))
	}

	return errs
}

func (c *Config) validateEmbedder() []error {
	var errs []error

	if c.Embedder.Endpoint == "" {
		errs = append(errs, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue, "config: embedder.endpoint must not be empty"))
	}
	if c.Embedder.Model == "" {
		errs = append(errs, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue, "config: embedder.model must not be empty"))
	}
	if c.Embedder.Dimensions <= 0 {
		errs = append(errs, fnderr.Errorf(fnderr.CodeConfigValidateInvalidValue,
			"config: embedder.dimensions must be greater than 0, got %d", c.Embedder.Dimensions))
	}

	return errs
}
