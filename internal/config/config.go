package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/partsim/memory"
	"github.com/vkngwrapper/partsim/memutils"
	"github.com/vkngwrapper/partsim/memutils/metadata"
	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable description of a simulation run. The zero value is not valid; start
// from DefaultConfig.
type Config struct {
	TotalMemory int    `yaml:"totalMemory"`
	Strategy    string `yaml:"strategy"`
	TracePath   string `yaml:"tracePath"`
	MaxTicks    int    `yaml:"maxTicks"`
	LogLevel    string `yaml:"logLevel"`
}

func DefaultConfig() *Config {
	return &Config{
		TotalMemory: memory.DefaultTotalMemory,
		Strategy:    metadata.AllocationStrategyBestFit.String(),
		TracePath:   "output.txt",
		MaxTicks:    0,
		LogLevel:    "info",
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config %s", path)
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}

	return config, nil
}

// Validate returns the first invalid setting, or nil
func (c *Config) Validate() error {
	if err := memutils.CheckPositive(c.TotalMemory, "totalMemory"); err != nil {
		return err
	}
	if err := memutils.CheckNonNegative(c.MaxTicks, "maxTicks"); err != nil {
		return err
	}
	if _, err := c.AllocationStrategy(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.TracePath == "" {
		return errors.New("tracePath must not be empty")
	}
	return nil
}

func (c *Config) AllocationStrategy() (metadata.AllocationStrategy, error) {
	return metadata.ParseAllocationStrategy(c.Strategy)
}

// Level converts LogLevel into a slog level
func (c *Config) Level() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}

	return slog.LevelInfo, errors.Newf("unknown log level %q", c.LogLevel)
}
