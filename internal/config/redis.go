package config

import "time"

// Redis is optional: an empty address disables price broadcasting.
type Redis struct {
	Address        string `env:"REDIS_ADDRESS"`
	Username       string `env:"REDIS_USERNAME"`
	Password       string `env:"REDIS_PASSWORD" json:"-"`
	DatabaseNumber int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize       int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// LatestTTL expires the latest snapshot key. Zero keeps it forever.
	LatestTTL time.Duration `env:"REDIS_LATEST_TTL" envDefault:"0s" validate:"gte=0"`
}

func (r Redis) Enabled() bool {
	return r.Address != ""
}
