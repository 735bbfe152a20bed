package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Location struct {
	Name      string  `yaml:"name" validate:"required"`
	Latitude  float64 `yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `yaml:"longitude" validate:"gte=-180,lte=180"`
}

// Config is the file-based part of the configuration. Credentials and
// endpoints come from the environment, see GetDatabaseDSN and GetRedisConfig.
type Config struct {
	Check struct {
		Interval     time.Duration `yaml:"interval" validate:"gte=1m"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" validate:"gt=0"`
		Concurrency  int           `yaml:"concurrency" validate:"gte=1,lte=32"`
	} `yaml:"check"`
	DefaultLocation Location `yaml:"default_location"`
	Server          struct {
		Addr string `yaml:"addr" validate:"required"`
	} `yaml:"server"`
	Notifications struct {
		Backend string `yaml:"backend" validate:"oneof=redis log"`
	} `yaml:"notifications"`
	Debug bool `yaml:"debug"`
}

// Default returns the configuration used for any key the file leaves out
func Default() *Config {
	cfg := &Config{}
	cfg.Check.Interval = 30 * time.Minute
	cfg.Check.FetchTimeout = 15 * time.Second
	cfg.Check.Concurrency = 4
	cfg.DefaultLocation = Location{Name: "Denver", Latitude: 39.7392, Longitude: -104.9903}
	cfg.Server.Addr = ":8080"
	cfg.Notifications.Backend = "redis"
	return cfg
}

func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = validator.New()

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
