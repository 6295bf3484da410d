package config

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

type Storage struct {
	Driver string `env:"STORAGE" envDefault:"postgres" validate:"oneof=postgres sqlite memory"`
}

type SQLite struct {
	Path string `env:"SQLITE_PATH" envDefault:"prices.db"`
}
