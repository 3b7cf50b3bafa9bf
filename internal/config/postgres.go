package config

import (
	"fmt"
	"time"
)

type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	LogQueries      bool          `yaml:"log_queries"`
}

func loadPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		DSN:             getEnv("DATABASE_URL", ""),
		Host:            getEnv("POSTGRES_HOST", "localhost"),
		Port:            getEnvAsInt("POSTGRES_PORT", 5432),
		User:            getEnv("POSTGRES_USER", "postgres"),
		Password:        getEnv("POSTGRES_PASSWORD", ""),
		Database:        getEnv("POSTGRES_DB", "supportmatch"),
		SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
		LogQueries:      getEnvAsBool("POSTGRES_LOG_QUERIES", false),
	}
}

// ConnectionString prefers DATABASE_URL and falls back to the discrete settings.
func (c *PostgresConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}
