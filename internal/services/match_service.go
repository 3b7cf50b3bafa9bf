package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"
	"supportmatch/pkg/logger"

	"github.com/samber/lo"
)

type MatchService interface {
	// Accept moves a pending match to accepted and provisions its appointment
	// in the same transaction. Either both happen or neither does.
	Accept(ctx context.Context, matchID, providerID string, req *models.AcceptMatchRequest) (*models.Match, *models.Appointment, error)
	Decline(ctx context.Context, matchID, providerID string) (*models.Match, error)

	GetMatch(ctx context.Context, matchID, userID string) (*models.Match, error)
	ListForProvider(ctx context.Context, providerID string, status models.MatchStatusType, params *utils.PaginationParams) ([]*models.Match, int64, error)
}

type matchService struct {
	reportRepo  interfaces.ReportRepository
	serviceRepo interfaces.SupportServiceRepository
	matchRepo   interfaces.MatchRepository
	txManager   interfaces.TransactionManager
	provisioner AppointmentProvisioner
	publisher   EventPublisher
	logger      *logger.Logger
	now         func() time.Time
}

func NewMatchService(
	reportRepo interfaces.ReportRepository,
	serviceRepo interfaces.SupportServiceRepository,
	matchRepo interfaces.MatchRepository,
	txManager interfaces.TransactionManager,
	provisioner AppointmentProvisioner,
	publisher EventPublisher,
	log *logger.Logger,
) MatchService {
	if publisher == nil {
		publisher = NopPublisher()
	}
	return &matchService{
		reportRepo:  reportRepo,
		serviceRepo: serviceRepo,
		matchRepo:   matchRepo,
		txManager:   txManager,
		provisioner: provisioner,
		publisher:   publisher,
		logger:      log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *matchService) Accept(ctx context.Context, matchID, providerID string, req *models.AcceptMatchRequest) (*models.Match, *models.Appointment, error) {
	if req == nil {
		req = &models.AcceptMatchRequest{}
	}

	var (
		match       *models.Match
		appointment *models.Appointment
	)
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		match, err = s.transition(ctx, matchID, providerID, models.MatchStatusAccepted)
		if err != nil {
			return err
		}

		appointment, err = s.provisioner.Provision(ctx, match.ID, ProvisionOptions{
			AppointmentDate: req.AppointmentDate,
			Notes:           req.Notes,
		})
		if err != nil {
			return err
		}
		return s.syncReport(ctx, match.ReportID)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.LogMatchEvent(match.ID, utils.EventMatchAccepted, map[string]interface{}{
		"provider_id":    providerID,
		"appointment_id": appointment.ID,
	})
	s.logger.LogMatchEvent(match.ID, utils.EventAppointmentCreated, map[string]interface{}{
		"appointment_id":   appointment.ID,
		"appointment_date": appointment.AppointmentDate,
	})
	publishAll(ctx, s.publisher, s.logger, []*models.MatchEvent{models.NewMatchEvent(models.MatchEventUpdated, match)})
	return match, appointment, nil
}

func (s *matchService) Decline(ctx context.Context, matchID, providerID string) (*models.Match, error) {
	var match *models.Match
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		match, err = s.transition(ctx, matchID, providerID, models.MatchStatusDeclined)
		if err != nil {
			return err
		}
		return s.syncReport(ctx, match.ReportID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogMatchEvent(match.ID, utils.EventMatchDeclined, map[string]interface{}{"provider_id": providerID})
	publishAll(ctx, s.publisher, s.logger, []*models.MatchEvent{models.NewMatchEvent(models.MatchEventUpdated, match)})
	return match, nil
}

// syncReport refreshes the report's matched flag after a provider answer. The
// version bump makes an in-flight rematch of the same report retry.
func (s *matchService) syncReport(ctx context.Context, reportID string) error {
	err := syncReportState(ctx, s.reportRepo, s.matchRepo, reportID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, interfaces.ErrConflict):
		return fmt.Errorf("%w: report changed concurrently: %w", ErrInvalidTransition, err)
	case errors.Is(err, interfaces.ErrNotFound):
		return ErrReportNotFound
	}
	return fmt.Errorf("failed to update report state: %w", err)
}

// transition checks ownership before state so non-owners learn nothing about
// the match, then relies on the storage compare-and-set to pick one winner.
func (s *matchService) transition(ctx context.Context, matchID, providerID string, to models.MatchStatusType) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}

	owns, err := s.ownsService(ctx, match.ServiceID, providerID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, ErrForbidden
	}

	if match.MatchStatusType != models.MatchStatusPending {
		return nil, fmt.Errorf("%w: match is %s", ErrInvalidTransition, match.MatchStatusType)
	}

	updated, err := s.matchRepo.TransitionStatus(ctx, matchID, models.MatchStatusPending, to, s.now())
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrConflict):
			return nil, fmt.Errorf("%w: match is no longer pending", ErrInvalidTransition)
		case errors.Is(err, interfaces.ErrNotFound):
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	return updated, nil
}

func (s *matchService) ownsService(ctx context.Context, serviceID, userID string) (bool, error) {
	service, err := s.serviceRepo.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load support service: %w", err)
	}
	return service.IsOwnedBy(userID), nil
}

// GetMatch is visible to the provider owning the service and to the report owner.
func (s *matchService) GetMatch(ctx context.Context, matchID, userID string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}

	owns, err := s.ownsService(ctx, match.ServiceID, userID)
	if err != nil {
		return nil, err
	}
	if owns {
		return match, nil
	}

	report, err := s.reportRepo.GetByID(ctx, match.ReportID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report != nil && report.IsOwnedBy(userID) {
		return match, nil
	}
	return nil, ErrForbidden
}

func (s *matchService) ListForProvider(ctx context.Context, providerID string, status models.MatchStatusType, params *utils.PaginationParams) ([]*models.Match, int64, error) {
	if status != "" && !status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown match status %q", ErrValidation, status)
	}

	services, err := s.serviceRepo.GetByOwner(ctx, providerID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load provider services: %w", err)
	}
	if len(services) == 0 {
		return []*models.Match{}, 0, nil
	}

	filter := interfaces.MatchFilter{
		ServiceIDs: lo.Map(services, func(svc *models.SupportService, _ int) string { return svc.ID }),
		Status:     status,
	}
	return s.matchRepo.List(ctx, filter, params)
}
