package interfaces

import (
	"context"

	"supportmatch/internal/models"
)

type SupportServiceRepository interface {
	Create(ctx context.Context, service *models.SupportService) error
	GetByID(ctx context.Context, id string) (*models.SupportService, error)
	GetByOwner(ctx context.Context, userID string) ([]*models.SupportService, error)

	// FindByServiceTypes returns every service offering at least one of the given tags.
	FindByServiceTypes(ctx context.Context, serviceTypes []string) ([]*models.SupportService, error)
}
