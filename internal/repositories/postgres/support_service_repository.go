package postgres

import (
	"context"
	"fmt"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type supportServiceRepository struct {
	db *gorm.DB
}

func NewSupportServiceRepository(db *gorm.DB) interfaces.SupportServiceRepository {
	return &supportServiceRepository{db: db}
}

func (r *supportServiceRepository) Create(ctx context.Context, service *models.SupportService) error {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	rec := newSupportServiceRecord(service)
	if err := conn(ctx, r.db).Create(rec).Error; err != nil {
		return translateError("failed to create support service", err)
	}
	service.CreatedAt = rec.CreatedAt
	service.UpdatedAt = rec.UpdatedAt
	return nil
}

func (r *supportServiceRepository) GetByID(ctx context.Context, id string) (*models.SupportService, error) {
	var rec supportServiceRecord
	if err := conn(ctx, r.db).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translateError("failed to get support service", err)
	}
	return rec.toModel(), nil
}

func (r *supportServiceRepository) GetByOwner(ctx context.Context, userID string) ([]*models.SupportService, error) {
	return r.find(conn(ctx, r.db).Where("user_id = ?", userID))
}

func (r *supportServiceRepository) FindByServiceTypes(ctx context.Context, serviceTypes []string) ([]*models.SupportService, error) {
	if len(serviceTypes) == 0 {
		return []*models.SupportService{}, nil
	}
	query := conn(ctx, r.db).Where(
		"EXISTS (SELECT 1 FROM jsonb_array_elements_text(service_types) AS t(tag) WHERE t.tag IN ?)",
		serviceTypes,
	)
	return r.find(query)
}

func (r *supportServiceRepository) find(query *gorm.DB) ([]*models.SupportService, error) {
	var recs []supportServiceRecord
	if err := query.Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to find support services: %w", err)
	}

	services := make([]*models.SupportService, 0, len(recs))
	for i := range recs {
		services = append(services, recs[i].toModel())
	}
	return services, nil
}
