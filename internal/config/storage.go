package config

import (
	"fmt"
)

const (
	StorageDriverMongoDB  = "mongodb"
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type StorageConfig struct {
	Driver        string `yaml:"driver"`
	RunMigrations bool   `yaml:"run_migrations"`
}

func loadStorageConfig() *StorageConfig {
	return &StorageConfig{
		Driver:        getEnv("STORAGE_DRIVER", StorageDriverMongoDB),
		RunMigrations: getEnvAsBool("STORAGE_RUN_MIGRATIONS", true),
	}
}

func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case StorageDriverMongoDB, StorageDriverPostgres, StorageDriverMemory:
		return nil
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Driver)
	}
}
