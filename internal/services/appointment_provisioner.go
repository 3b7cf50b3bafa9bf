package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
)

type ProvisionOptions struct {
	AppointmentDate *time.Time
	Notes           string
}

// AppointmentProvisioner creates the single appointment bound to an accepted match.
type AppointmentProvisioner interface {
	Provision(ctx context.Context, matchID string, opts ProvisionOptions) (*models.Appointment, error)
}

type appointmentProvisioner struct {
	reportRepo      interfaces.ReportRepository
	matchRepo       interfaces.MatchRepository
	appointmentRepo interfaces.AppointmentRepository
	txManager       interfaces.TransactionManager
	defaultLead     time.Duration
	now             func() time.Time
}

func NewAppointmentProvisioner(
	reportRepo interfaces.ReportRepository,
	matchRepo interfaces.MatchRepository,
	appointmentRepo interfaces.AppointmentRepository,
	txManager interfaces.TransactionManager,
	defaultLead time.Duration,
) AppointmentProvisioner {
	return &appointmentProvisioner{
		reportRepo:      reportRepo,
		matchRepo:       matchRepo,
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		defaultLead:     defaultLead,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Provision joins the caller's transaction when there is one.
func (p *appointmentProvisioner) Provision(ctx context.Context, matchID string, opts ProvisionOptions) (*models.Appointment, error) {
	var appointment *models.Appointment
	err := p.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		match, err := p.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("failed to load match: %w", err)
		}
		if match.MatchStatusType != models.MatchStatusAccepted {
			return fmt.Errorf("%w: match is %s, not accepted", ErrInvalidTransition, match.MatchStatusType)
		}

		if _, err := p.appointmentRepo.GetByMatchID(ctx, matchID); err == nil {
			return ErrAppointmentConflict
		} else if !errors.Is(err, interfaces.ErrNotFound) {
			return fmt.Errorf("failed to check existing appointment: %w", err)
		}

		report, err := p.reportRepo.GetByID(ctx, match.ReportID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return ErrReportNotFound
			}
			return fmt.Errorf("failed to load report: %w", err)
		}

		now := p.now()
		date := now.Add(p.defaultLead)
		if opts.AppointmentDate != nil && !opts.AppointmentDate.IsZero() {
			date = opts.AppointmentDate.UTC()
		}

		appointment = &models.Appointment{
			MatchID:         match.ID,
			ReportID:        match.ReportID,
			ServiceID:       match.ServiceID,
			ProfessionalID:  match.ProviderID,
			AppointmentDate: date,
			Status:          models.AppointmentStatusScheduled,
			Notes:           opts.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if !report.IsAnonymous() {
			survivor := *report.UserID
			appointment.SurvivorID = &survivor
		}

		if err := p.appointmentRepo.Create(ctx, appointment); err != nil {
			if errors.Is(err, interfaces.ErrDuplicate) {
				return ErrAppointmentConflict
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appointment, nil
}
