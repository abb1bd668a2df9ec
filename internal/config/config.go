package config

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const Version = "v1alpha1"

// EnvPrefix is the prefix of environment variables that override
// values from configuration files.
const EnvPrefix = "WORKSHOP_"

// Config is the configuration of the workshop tool.
type Config struct {
	Version string `yaml:"version" validate:"required,eq=v1alpha1"`

	Rewrite ConfigRewrite `yaml:"rewrite"`
	Env     ConfigEnv     `yaml:"env"`
	Filters []*Filter     `yaml:"filters" validate:"dive"`
	Log     ConfigLog     `yaml:"log"`
}

type ConfigRewrite struct {
	Provider string `yaml:"provider" validate:"omitempty,oneof=gemini openai"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv   string        `yaml:"api_key_env" validate:"required"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
	Concurrency int           `yaml:"concurrency" validate:"gte=1,lte=64"`
	CacheSize   int           `yaml:"cache_size" validate:"gte=0"`
	Trace       bool          `yaml:"trace"`
}

type ConfigEnv struct {
	UseSystemEnv bool     `yaml:"use_system_env"`
	Sources      []string `yaml:"sources"`
}

type ConfigLog struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Verbose bool   `yaml:"verbose"`
}

func Default() *Config {
	c := defaults
	c.Env.Sources = append([]string(nil), defaults.Env.Sources...)
	return &c
}

// ParseYAML parses one or more configuration layers. Later layers
// override fields set by earlier ones, and all of them are applied
// on top of the defaults.
func ParseYAML(data ...[]byte) (*Config, error) {
	cfg, err := parseYAML(data...)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseYAML(data ...[]byte) (*Config, error) {
	cfg := Default()

	for _, layer := range data {
		version, err := parseVersionFromYAML(layer)
		if err != nil {
			return nil, err
		}
		if version != Version {
			return nil, errors.Errorf("unknown version: %q", version)
		}

		decoder := yaml.NewDecoder(bytes.NewReader(layer))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s config", version)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type versionOnly struct {
	Version string `yaml:"version"`
}

func parseVersionFromYAML(data []byte) (string, error) {
	var result versionOnly

	if err := yaml.Unmarshal(data, &result); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal version")
	}

	return result.Version, nil
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return errors.Wrapf(err, "failed to validate %s config", c.Version)
	}

	for _, f := range c.Filters {
		if _, err := f.compile(); err != nil {
			return errors.Wrapf(err, "invalid filter %q", f.Condition)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values with WORKSHOP_* variables
// returned by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, target *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*target = strings.TrimSpace(v)
		}
	}
	boolean := func(name string, target *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s%s", EnvPrefix, name)
		}
		*target = b
		return nil
	}

	str("PROVIDER", &c.Rewrite.Provider)
	str("MODEL", &c.Rewrite.Model)
	str("BASE_URL", &c.Rewrite.BaseURL)
	str("API_KEY_ENV", &c.Rewrite.APIKeyEnv)
	str("LOG_PATH", &c.Log.Path)

	if v, ok := lookup(EnvPrefix + "CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %sCONCURRENCY", EnvPrefix)
		}
		c.Rewrite.Concurrency = n
	}

	if err := boolean("TRACE", &c.Rewrite.Trace); err != nil {
		return err
	}
	if err := boolean("LOG_ENABLED", &c.Log.Enabled); err != nil {
		return err
	}
	if err := boolean("LOG_VERBOSE", &c.Log.Verbose); err != nil {
		return err
	}

	return c.Validate()
}
