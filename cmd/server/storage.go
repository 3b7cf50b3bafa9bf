package main

import (
	"context"
	"fmt"
	"time"

	"supportmatch/internal/config"
	handlers "supportmatch/internal/handlers/shared"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/repositories/memory"
	"supportmatch/internal/repositories/mongodb"
	"supportmatch/internal/repositories/postgres"
	"supportmatch/pkg/database"
	"supportmatch/pkg/logger"
)

// repositories is the storage backend selected by STORAGE_DRIVER.
type repositories struct {
	reports      interfaces.ReportRepository
	services     interfaces.SupportServiceRepository
	matches      interfaces.MatchRepository
	appointments interfaces.AppointmentRepository
	tx           interfaces.TransactionManager
	health       map[string]handlers.Pinger
	close        func() error
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repositories, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMongoDB:
		return openMongo(ctx, cfg, log)
	case config.StorageDriverPostgres:
		return openPostgres(ctx, cfg, log)
	default:
		log.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			reports:      memory.NewReportRepository(store),
			services:     memory.NewSupportServiceRepository(store),
			matches:      memory.NewMatchRepository(store),
			appointments: memory.NewAppointmentRepository(store),
			tx:           store,
			health:       map[string]handlers.Pinger{},
			close:        func() error { return nil },
		}, nil
	}
}

func openMongo(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repositories, error) {
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if cfg.Storage.RunMigrations {
		migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := database.NewMigrator(db.Database, log).Up(migrateCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run mongodb migrations: %w", err)
		}
	}

	log.WithField("database", cfg.Database.Database).Info("Connected to MongoDB")
	return &repositories{
		reports:      mongodb.NewReportRepository(db),
		services:     mongodb.NewSupportServiceRepository(db),
		matches:      mongodb.NewMatchRepository(db),
		appointments: mongodb.NewAppointmentRepository(db),
		tx:           mongodb.NewTransactionManager(db),
		health:       map[string]handlers.Pinger{"mongodb": db},
		close:        db.Close,
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repositories, error) {
	pg, err := database.NewPostgres(&database.PostgresConfig{
		DSN:             cfg.Postgres.ConnectionString(),
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		LogQueries:      cfg.Postgres.LogQueries,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Storage.RunMigrations {
		migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := postgres.AutoMigrate(migrateCtx, pg); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
	}

	log.WithField("database", cfg.Postgres.Database).Info("Connected to PostgreSQL")
	return &repositories{
		reports:      postgres.NewReportRepository(pg.DB),
		services:     postgres.NewSupportServiceRepository(pg.DB),
		matches:      postgres.NewMatchRepository(pg.DB),
		appointments: postgres.NewAppointmentRepository(pg.DB),
		tx:           postgres.NewTransactionManager(pg.DB),
		health:       map[string]handlers.Pinger{"postgres": pg},
		close:        pg.Close,
	}, nil
}
