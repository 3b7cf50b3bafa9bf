package services

import (
	"context"
	"fmt"

	"supportmatch/internal/matching"
	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
)

// CatalogService returns candidate services for a set of required tags.
// Geography never filters here; proximity is part of scoring.
type CatalogService interface {
	FindCandidates(ctx context.Context, requiredServices []string, location *models.GeoPoint) ([]*models.SupportService, error)
}

type catalogService struct {
	serviceRepo interfaces.SupportServiceRepository
}

func NewCatalogService(serviceRepo interfaces.SupportServiceRepository) CatalogService {
	return &catalogService{serviceRepo: serviceRepo}
}

func (s *catalogService) FindCandidates(ctx context.Context, requiredServices []string, _ *models.GeoPoint) ([]*models.SupportService, error) {
	tags := matching.NormalizeTags(requiredServices)
	if len(tags) == 0 {
		return []*models.SupportService{}, nil
	}

	candidates, err := s.serviceRepo.FindByServiceTypes(ctx, tags)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return candidates, nil
}
