package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      App
	Log      Log
	HTTP     HTTP
	Probe    Probe
	Metrics  Metrics
	Storage  Storage
	Postgres Postgres
	SQLite   SQLite
	Redis    Redis
	Price    Price
}

type App struct {
	Name    string `env:"APP_NAME" envDefault:"price-simulator" validate:"required"`
	Version string `env:"APP_VERSION" envDefault:"dev"`
}

type Log struct {
	Level string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

type Probe struct {
	ListenAddress string `env:"PROBE_LISTEN_ADDRESS" envDefault:":8081" validate:"required"`
}

type Metrics struct {
	ListenAddress string `env:"METRICS_LISTEN_ADDRESS" envDefault:":9090" validate:"required"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	return Parse()
}

// Parse builds the configuration from the process environment only.
func Parse() (Config, error) {
	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	config.Price.normalize()

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("config.Validate: %w", err)
	}

	return config, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Storage.Driver == StoragePostgres && c.Postgres.DSN == "" {
		return errors.New("PG_DSN is required for postgres storage")
	}

	return c.Price.validate()
}
