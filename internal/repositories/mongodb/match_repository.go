package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"
	"supportmatch/pkg/database"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type matchRepository struct {
	collection *mongo.Collection
}

func NewMatchRepository(db *database.MongoDB) interfaces.MatchRepository {
	return &matchRepository{
		collection: db.Collection(database.CollectionMatches),
	}
}

// CreateMany relies on the partial unique index over pending (report_id, service_id)
// pairs. Use it inside a transaction to make the batch atomic.
func (r *matchRepository) CreateMany(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(matches))
	for _, m := range matches {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.MatchStatusType == "" {
			m.MatchStatusType = models.MatchStatusPending
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
		docs = append(docs, m)
	}

	if _, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return translateError("failed to create matches", err)
	}
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&match); err != nil {
		return nil, translateError("failed to get match", err)
	}
	return &match, nil
}

func (r *matchRepository) GetByReport(ctx context.Context, reportID string) ([]*models.Match, error) {
	opts := options.Find().SetSort(bson.D{{Key: "match_score", Value: -1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"report_id": reportID}, opts)
}

func (r *matchRepository) List(ctx context.Context, filter interfaces.MatchFilter, params *utils.PaginationParams) ([]*models.Match, int64, error) {
	if params == nil {
		params = utils.DefaultPagination()
	}

	query := bson.M{"service_id": bson.M{"$in": filter.ServiceIDs}}
	if filter.Status != "" {
		query["match_status_type"] = filter.Status
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
	}

	matches, err := r.find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, err
	}
	return matches, total, nil
}

func (r *matchRepository) ExpireActiveByReport(ctx context.Context, reportID string, at time.Time) ([]*models.Match, error) {
	pending, err := r.find(ctx, bson.M{
		"report_id":         reportID,
		"match_status_type": models.MatchStatusPending,
	}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return pending, nil
	}

	ids := make([]string, 0, len(pending))
	for _, m := range pending {
		ids = append(ids, m.ID)
	}

	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{"_id": bson.M{"$in": ids}, "match_status_type": models.MatchStatusPending},
		bson.M{"$set": bson.M{"match_status_type": models.MatchStatusExpired, "updated_at": at}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to expire matches: %w", err)
	}
	if result.ModifiedCount != int64(len(ids)) {
		return nil, fmt.Errorf("expired %d of %d matches: %w", result.ModifiedCount, len(ids), interfaces.ErrConflict)
	}

	for _, m := range pending {
		m.MatchStatusType = models.MatchStatusExpired
		m.UpdatedAt = at
	}
	return pending, nil
}

func (r *matchRepository) TransitionStatus(ctx context.Context, id string, from, to models.MatchStatusType, at time.Time) (*models.Match, error) {
	set := bson.M{"match_status_type": to, "updated_at": at}
	if to == models.MatchStatusAccepted || to == models.MatchStatusDeclined {
		set["responded_at"] = at
	}

	var updated models.Match
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "match_status_type": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, conflictOrNotFound(ctx, r.collection, id)
		}
		return nil, fmt.Errorf("failed to transition match: %w", err)
	}
	return &updated, nil
}

func (r *matchRepository) GetStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.Match, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{
		"match_status_type": models.MatchStatusPending,
		"created_at":        bson.M{"$lt": cutoff},
	}, opts)
}

func (r *matchRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Match, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find matches: %w", err)
	}

	matches, err := decodeAll[models.Match](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode matches: %w", err)
	}
	return matches, nil
}
