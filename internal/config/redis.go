package config

import (
	"sync"
	"time"
)

// RedisConfig is optional. An empty address disables the redis redemption claim.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	ClaimTTL time.Duration `env:"REDIS_CLAIM_TTL" envDefault:"48h"`
}

func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

var (
	redisConfig *RedisConfig
	redisOnce   sync.Once
)

func LoadRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		redisConfig = &RedisConfig{}
		mustParse(redisConfig)
	})
	return redisConfig
}
