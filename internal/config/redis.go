package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Stream   string `envconfig:"REDIS_STREAM" default:"snow_alerts"`
}

func GetRedisConfig() (RedisConfig, error) {
	var cfg RedisConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return RedisConfig{}, fmt.Errorf("failed to read redis settings: %w", err)
	}
	return cfg, nil
}
