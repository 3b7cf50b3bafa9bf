package mongodb

import (
	"context"
	"fmt"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/pkg/database"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type supportServiceRepository struct {
	collection *mongo.Collection
}

func NewSupportServiceRepository(db *database.MongoDB) interfaces.SupportServiceRepository {
	return &supportServiceRepository{
		collection: db.Collection(database.CollectionSupportServices),
	}
}

func (r *supportServiceRepository) Create(ctx context.Context, service *models.SupportService) error {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	service.CreatedAt = now
	service.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, service); err != nil {
		return translateError("failed to create support service", err)
	}
	return nil
}

func (r *supportServiceRepository) GetByID(ctx context.Context, id string) (*models.SupportService, error) {
	var service models.SupportService
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&service); err != nil {
		return nil, translateError("failed to get support service", err)
	}
	return &service, nil
}

func (r *supportServiceRepository) GetByOwner(ctx context.Context, userID string) ([]*models.SupportService, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// FindByServiceTypes applies no geographic filter; proximity is scored, not filtered.
func (r *supportServiceRepository) FindByServiceTypes(ctx context.Context, serviceTypes []string) ([]*models.SupportService, error) {
	if len(serviceTypes) == 0 {
		return []*models.SupportService{}, nil
	}
	return r.find(ctx, bson.M{"service_types": bson.M{"$in": serviceTypes}})
}

func (r *supportServiceRepository) find(ctx context.Context, filter bson.M) ([]*models.SupportService, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find support services: %w", err)
	}

	services, err := decodeAll[models.SupportService](ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode support services: %w", err)
	}
	return services, nil
}
