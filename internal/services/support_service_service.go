package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"supportmatch/internal/matching"
	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/validators"
	"supportmatch/pkg/logger"
)

// SupportServiceService registers and lists the services providers offer.
type SupportServiceService interface {
	Register(ctx context.Context, ownerID string, req *models.SupportServiceRequest) (*models.SupportService, error)
	GetService(ctx context.Context, serviceID string) (*models.SupportService, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.SupportService, error)
}

type supportServiceService struct {
	serviceRepo interfaces.SupportServiceRepository
	logger      *logger.Logger
}

func NewSupportServiceService(serviceRepo interfaces.SupportServiceRepository, log *logger.Logger) SupportServiceService {
	return &supportServiceService{serviceRepo: serviceRepo, logger: log}
}

func (s *supportServiceService) Register(ctx context.Context, ownerID string, req *models.SupportServiceRequest) (*models.SupportService, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}
	if err := validators.ValidateSupportServiceRequest(req).Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	availability := models.Availability(req.Availability)
	if availability == "" {
		availability = models.AvailabilityAvailable
	}

	now := time.Now().UTC()
	service := &models.SupportService{
		UserID:             ownerID,
		Name:               strings.TrimSpace(req.Name),
		ServiceTypes:       matching.NormalizeTags(req.ServiceTypes),
		CoverageAreaRadius: req.CoverageAreaRadius,
		Availability:       availability,
		Helpline:           req.Helpline,
		Email:              req.Email,
		PhoneNumber:        req.PhoneNumber,
		Website:            req.Website,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.Latitude != nil && req.Longitude != nil {
		service.Location = models.NewGeoPoint(*req.Latitude, *req.Longitude)
	}

	if err := s.serviceRepo.Create(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to create support service: %w", err)
	}

	s.logger.LogAudit("service_registered", "support_service", service.ID, ownerID, map[string]interface{}{
		"service_types": service.ServiceTypes,
	})
	return service, nil
}

func (s *supportServiceService) GetService(ctx context.Context, serviceID string) (*models.SupportService, error) {
	service, err := s.serviceRepo.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to load support service: %w", err)
	}
	return service, nil
}

func (s *supportServiceService) ListByOwner(ctx context.Context, ownerID string) ([]*models.SupportService, error) {
	return s.serviceRepo.GetByOwner(ctx, ownerID)
}
