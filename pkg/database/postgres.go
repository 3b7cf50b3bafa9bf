package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogQueries      bool
}

type Postgres struct {
	DB     *gorm.DB
	Config *PostgresConfig
}

// NewPostgres opens a GORM connection with driver error translation enabled so
// unique violations surface as gorm.ErrDuplicatedKey.
func NewPostgres(config *PostgresConfig) (*Postgres, error) {
	logLevel := gormlogger.Silent
	if config.LogQueries {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(config.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	return &Postgres{DB: db, Config: config}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (p *Postgres) Close() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the given tables and then applies raw statements
// GORM tags cannot express, such as partial unique indexes.
func (p *Postgres) Migrate(ctx context.Context, models []interface{}, statements []string) error {
	db := p.DB.WithContext(ctx)
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration statement failed: %w", err)
		}
	}
	return nil
}
