package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supportmatch/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
	Down        func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logger     *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
		logger:     log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	if err := m.createMigrationsCollection(ctx); err != nil {
		return err
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.logger.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.logger.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}

		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection(ctx context.Context) error {
	names, err := m.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: CollectionMigrations}})
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}
	return m.db.CreateCollection(ctx, CollectionMigrations)
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(CollectionMigrations).FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(CollectionMigrations).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now().UTC()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func dropCollection(name string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		return db.Collection(name).Drop(ctx)
	}
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create reports collection with indexes",
			Up:          createReportsIndexes,
			Down:        dropCollection(CollectionReports),
		},
		{
			Version:     2,
			Description: "Create support_services collection with indexes",
			Up:          createSupportServicesIndexes,
			Down:        dropCollection(CollectionSupportServices),
		},
		{
			Version:     3,
			Description: "Create matched_services collection with indexes",
			Up:          createMatchesIndexes,
			Down:        dropCollection(CollectionMatches),
		},
		{
			Version:     4,
			Description: "Create appointments collection with indexes",
			Up:          createAppointmentsIndexes,
			Down:        dropCollection(CollectionAppointments),
		},
	}
}

func createReportsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "match_status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := db.Collection(CollectionReports).Indexes().CreateMany(ctx, indexes)
	return err
}

func createSupportServicesIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "service_types", Value: 1}},
		},
		{
			// 2dsphere indexes skip documents without the field.
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
	}

	_, err := db.Collection(CollectionSupportServices).Indexes().CreateMany(ctx, indexes)
	return err
}

func createMatchesIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			// At most one pending match per report/service pair.
			Keys: bson.D{{Key: "report_id", Value: 1}, {Key: "service_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_report_service").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "match_status_type", Value: "pending"}}),
		},
		{
			Keys: bson.D{{Key: "service_id", Value: 1}, {Key: "match_status_type", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "report_id", Value: 1}, {Key: "match_score", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "match_status_type", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}

	_, err := db.Collection(CollectionMatches).Indexes().CreateMany(ctx, indexes)
	return err
}

func createAppointmentsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "match_id", Value: 1}},
			Options: options.Index().SetName("uniq_appointment_match").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "professional_id", Value: 1}, {Key: "appointment_date", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "survivor_id", Value: 1}, {Key: "appointment_date", Value: -1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := db.Collection(CollectionAppointments).Indexes().CreateMany(ctx, indexes)
	return err
}
