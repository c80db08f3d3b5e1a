package ipasir

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultEngine is the engine used when Config.Engine is empty.
	DefaultEngine = "gophersat"
	// DefaultMaxVariable is the highest variable accepted when Config.MaxVariable is 0.
	DefaultMaxVariable = 1<<30 - 1

	// EnvEngine is the environment variable ConfigFromEnv reads the engine name from.
	EnvEngine = "INCSAT_ENGINE"
	// EnvConfig is the environment variable ConfigFromEnv reads the engine options from.
	EnvConfig = "INCSAT_CONFIG"
)

// Config describes how a Session is built.
// The zero value is usable.
type Config struct {
	// Engine is the name of a registered engine.
	Engine string `yaml:"engine"`
	// Options is given as is to the engine factory.
	Options string `yaml:"options"`
	// MaxVariable bounds the magnitude of accepted literals.
	MaxVariable int `yaml:"max-variable"`
	// Variables is an optional capacity hint given to the engine at creation.
	Variables int `yaml:"variables"`

	Logger  logrus.FieldLogger `yaml:"-"`
	Metrics *Metrics           `yaml:"-"`
}

func (c Config) withDefaults() Config {
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	if c.MaxVariable == 0 {
		c.MaxVariable = DefaultMaxVariable
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return c
}

func (c Config) validate() error {
	if c.MaxVariable < 0 {
		return errors.Errorf("negative max variable %d", c.MaxVariable)
	}
	if c.Variables < 0 || c.Variables > c.MaxVariable {
		return errors.Errorf("variable hint %d out of range [0, %d]", c.Variables, c.MaxVariable)
	}
	return nil
}

// ConfigFromEnv returns base, with its engine and options overridden by the
// INCSAT_ENGINE and INCSAT_CONFIG environment variables when they are set.
// New never reads the environment itself.
func ConfigFromEnv(base Config) Config {
	if name, ok := os.LookupEnv(EnvEngine); ok && name != "" {
		base.Engine = name
	}
	if opts, ok := os.LookupEnv(EnvConfig); ok {
		base.Options = opts
	}
	return base
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "could not read config %q", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "could not parse config %q", path)
	}
	return cfg, nil
}
