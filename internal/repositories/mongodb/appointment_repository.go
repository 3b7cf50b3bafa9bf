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

type appointmentRepository struct {
	collection *mongo.Collection
}

func NewAppointmentRepository(db *database.MongoDB) interfaces.AppointmentRepository {
	return &appointmentRepository{
		collection: db.Collection(database.CollectionAppointments),
	}
}

// Create relies on the unique match_id index for the one-appointment-per-match rule.
func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, appointment); err != nil {
		return translateError("failed to create appointment", err)
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *appointmentRepository) GetByMatchID(ctx context.Context, matchID string) (*models.Appointment, error) {
	return r.findOne(ctx, bson.M{"match_id": matchID})
}

func (r *appointmentRepository) GetByParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Appointment, int64, error) {
	if params == nil {
		params = utils.DefaultPagination()
	}
	filter := bson.M{"$or": []bson.M{
		{"professional_id": userID},
		{"survivor_id": userID},
	}}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find appointments: %w", err)
	}

	appointments, err := decodeAll[models.Appointment](ctx, cursor)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, total, nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id string, from, to models.AppointmentStatus, at time.Time) (*models.Appointment, error) {
	var updated models.Appointment
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, conflictOrNotFound(ctx, r.collection, id)
		}
		return nil, fmt.Errorf("failed to transition appointment: %w", err)
	}
	return &updated, nil
}

func (r *appointmentRepository) findOne(ctx context.Context, filter bson.M) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.collection.FindOne(ctx, filter).Decode(&appointment); err != nil {
		return nil, translateError("failed to get appointment", err)
	}
	return &appointment, nil
}
