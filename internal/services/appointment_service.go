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
)

type AppointmentService interface {
	GetAppointment(ctx context.Context, appointmentID, userID string) (*models.Appointment, error)
	ListForParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Appointment, int64, error)
	// UpdateStatus moves a scheduled appointment to completed or cancelled.
	UpdateStatus(ctx context.Context, appointmentID, userID string, status models.AppointmentStatus) (*models.Appointment, error)
}

type appointmentService struct {
	appointmentRepo interfaces.AppointmentRepository
	logger          *logger.Logger
	now             func() time.Time
}

func NewAppointmentService(appointmentRepo interfaces.AppointmentRepository, log *logger.Logger) AppointmentService {
	return &appointmentService{
		appointmentRepo: appointmentRepo,
		logger:          log,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *appointmentService) GetAppointment(ctx context.Context, appointmentID, userID string) (*models.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to load appointment: %w", err)
	}
	if !appointment.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return appointment, nil
}

func (s *appointmentService) ListForParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Appointment, int64, error) {
	return s.appointmentRepo.GetByParticipant(ctx, userID, params)
}

func (s *appointmentService) UpdateStatus(ctx context.Context, appointmentID, userID string, status models.AppointmentStatus) (*models.Appointment, error) {
	if status != models.AppointmentStatusCompleted && status != models.AppointmentStatusCancelled {
		return nil, fmt.Errorf("%w: status must be completed or cancelled", ErrValidation)
	}

	appointment, err := s.GetAppointment(ctx, appointmentID, userID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != models.AppointmentStatusScheduled {
		return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, appointment.Status)
	}

	updated, err := s.appointmentRepo.TransitionStatus(ctx, appointmentID, models.AppointmentStatusScheduled, status, s.now())
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrConflict):
			return nil, fmt.Errorf("%w: appointment is no longer scheduled", ErrInvalidTransition)
		case errors.Is(err, interfaces.ErrNotFound):
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	s.logger.LogAudit(utils.EventAppointmentUpdated, "appointment", appointmentID, userID, map[string]interface{}{
		"status":   string(status),
		"match_id": updated.MatchID,
	})
	return updated, nil
}
