package postgres

import (
	"context"
	"fmt"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) interfaces.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	rec := newAppointmentRecord(appointment)
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(rec).Error; err != nil {
		return translateError("failed to create appointment", err)
	}
	appointment.CreatedAt = rec.CreatedAt
	appointment.UpdatedAt = rec.UpdatedAt
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	return r.first(conn(ctx, r.db).Where("id = ?", id))
}

func (r *appointmentRepository) GetByMatchID(ctx context.Context, matchID string) (*models.Appointment, error) {
	return r.first(conn(ctx, r.db).Where("match_id = ?", matchID))
}

func (r *appointmentRepository) GetByParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Appointment, int64, error) {
	if params == nil {
		params = utils.DefaultPagination()
	}
	query := conn(ctx, r.db).Model(&appointmentRecord{}).
		Where("professional_id = ? OR survivor_id = ?", userID, userID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	var recs []appointmentRecord
	err := query.Order(orderBy(params, "created_at", "updated_at", "appointment_date")).Order("id").
		Offset(params.GetSkip()).Limit(params.GetLimit()).
		Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find appointments: %w", err)
	}

	appointments := make([]*models.Appointment, 0, len(recs))
	for i := range recs {
		appointments = append(appointments, recs[i].toModel())
	}
	return appointments, total, nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id string, from, to models.AppointmentStatus, at time.Time) (*models.Appointment, error) {
	db := conn(ctx, r.db)
	var recs []appointmentRecord
	result := db.Model(&recs).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{"status": string(to), "updated_at": at})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to transition appointment: %w", result.Error)
	}
	if result.RowsAffected == 0 || len(recs) == 0 {
		return nil, conflictOrNotFound(db, &appointmentRecord{}, id)
	}
	return recs[0].toModel(), nil
}

func (r *appointmentRepository) first(query *gorm.DB) (*models.Appointment, error) {
	var rec appointmentRecord
	if err := query.First(&rec).Error; err != nil {
		return nil, translateError("failed to get appointment", err)
	}
	return rec.toModel(), nil
}
