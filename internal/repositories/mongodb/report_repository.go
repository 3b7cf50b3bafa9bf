package mongodb

import (
	"context"
	"fmt"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"
	"supportmatch/pkg/database"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type reportRepository struct {
	collection *mongo.Collection
}

func NewReportRepository(db *database.MongoDB) interfaces.ReportRepository {
	return &reportRepository{
		collection: db.Collection(database.CollectionReports),
	}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, report); err != nil {
		return translateError("failed to create report", err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&report); err != nil {
		return nil, translateError("failed to get report", err)
	}
	return &report, nil
}

func (r *reportRepository) GetByUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Report, int64, error) {
	if params == nil {
		params = utils.DefaultPagination()
	}
	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find reports: %w", err)
	}

	reports, err := decodeAll[models.Report](ctx, cursor)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, total, nil
}

func (r *reportRepository) UpdateMatchState(ctx context.Context, id string, expectedVersion int64, isMatched bool, status models.ReportMatchStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "match_version": expectedVersion},
		bson.M{
			"$set": bson.M{
				"ismatched":    isMatched,
				"match_status": status,
				"updated_at":   time.Now().UTC(),
			},
			"$inc": bson.M{"match_version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update report match state: %w", err)
	}
	if result.MatchedCount == 0 {
		return conflictOrNotFound(ctx, r.collection, id)
	}
	return nil
}
