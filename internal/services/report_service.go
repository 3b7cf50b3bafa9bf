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
	"supportmatch/internal/utils"
	"supportmatch/internal/validators"
	"supportmatch/pkg/logger"
)

const anonymousFirstName = "Anonymous"

type ReportService interface {
	// Submit stores the report and then runs matching. A matching failure is
	// logged and reported in the result, never returned as an error.
	Submit(ctx context.Context, actor Actor, submission *models.ReportSubmission) (*SubmissionResult, error)
	GetReport(ctx context.Context, actor Actor, reportID string) (*models.Report, error)
	ListMine(ctx context.Context, actor Actor, params *utils.PaginationParams) ([]*models.Report, int64, error)
	ListMatches(ctx context.Context, actor Actor, reportID string) ([]*models.Match, error)
	Rematch(ctx context.Context, actor Actor, reportID string) (*models.MatchResult, error)
}

type SubmissionResult struct {
	Report        *models.Report      `json:"report"`
	Match         *models.MatchResult `json:"match,omitempty"`
	MatchingError string              `json:"matching_error,omitempty"`
}

type reportService struct {
	reportRepo interfaces.ReportRepository
	matchRepo  interfaces.MatchRepository
	matcher    MatchingService
	logger     *logger.Logger
	now        func() time.Time
}

func NewReportService(
	reportRepo interfaces.ReportRepository,
	matchRepo interfaces.MatchRepository,
	matcher MatchingService,
	log *logger.Logger,
) ReportService {
	return &reportService{
		reportRepo: reportRepo,
		matchRepo:  matchRepo,
		matcher:    matcher,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *reportService) Submit(ctx context.Context, actor Actor, submission *models.ReportSubmission) (*SubmissionResult, error) {
	if err := validators.ValidateReportSubmission(submission).Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	report := s.newReport(actor, submission)
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}
	s.logger.LogReportEvent(report.ID, utils.EventReportSubmitted, map[string]interface{}{
		"urgency":           string(report.Urgency),
		"required_services": report.RequiredServices,
		"anonymous":         report.IsAnonymous(),
	})

	result := &SubmissionResult{Report: report}

	matchResult, err := s.matcher.MatchReport(ctx, report.ID)
	if err != nil {
		s.logger.WithReportID(report.ID).WithError(err).
			WithField("event", utils.EventMatchingFailed).
			Error("Matching failed for submitted report")
		result.MatchingError = publicMatchingError(err)
		return result, nil
	}
	result.Match = matchResult

	// The stored report now reflects the match outcome.
	if stored, err := s.reportRepo.GetByID(ctx, report.ID); err == nil {
		result.Report = stored
	} else {
		s.logger.WithReportID(report.ID).WithError(err).Warn("Failed to reload report after matching")
	}
	return result, nil
}

func (s *reportService) newReport(actor Actor, submission *models.ReportSubmission) *models.Report {
	now := s.now()

	submittedAt := now
	if submission.SubmissionTimestamp != nil && !submission.SubmissionTimestamp.IsZero() {
		submittedAt = submission.SubmissionTimestamp.UTC()
	}

	firstName := strings.TrimSpace(submission.FirstName)
	if firstName == "" {
		firstName = anonymousFirstName
	}

	report := &models.Report{
		FirstName:           firstName,
		LastName:            optionalString(submission.LastName),
		Email:               strings.TrimSpace(submission.Email),
		Phone:               optionalString(submission.Phone),
		TypeOfIncident:      validators.SanitizeInput(submission.TypeOfIncident),
		IncidentDescription: validators.SanitizeInput(submission.IncidentDescription),
		Urgency:             models.Urgency(submission.Urgency),
		RequiredServices:    matching.NormalizeTags(submission.RequiredServices),
		Latitude:            submission.Latitude,
		Longitude:           submission.Longitude,
		Consent:             submission.Consent != nil && *submission.Consent,
		ContactPreference:   submission.ContactPreference,
		SubmissionTimestamp: submittedAt,
		IsMatched:           false,
		MatchStatus:         models.ReportMatchStatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if !actor.IsAnonymous() {
		userID := actor.UserID
		report.UserID = &userID
	}
	return report
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// publicMatchingError keeps storage details out of the response.
func publicMatchingError(err error) string {
	switch {
	case errors.Is(err, ErrCatalogUnavailable):
		return ErrCatalogUnavailable.Error()
	case errors.Is(err, ErrLockUnavailable):
		return ErrLockUnavailable.Error()
	default:
		return ErrMatchPersistenceFailed.Error()
	}
}

// GetReport is limited to the report owner and admins. Anonymous reports are
// visible to admins only.
func (s *reportService) GetReport(ctx context.Context, actor Actor, reportID string) (*models.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if !actor.IsAdmin() && !report.IsOwnedBy(actor.UserID) {
		return nil, ErrForbidden
	}
	return report, nil
}

func (s *reportService) ListMine(ctx context.Context, actor Actor, params *utils.PaginationParams) ([]*models.Report, int64, error) {
	if actor.IsAnonymous() {
		return nil, 0, ErrForbidden
	}
	return s.reportRepo.GetByUser(ctx, actor.UserID, params)
}

func (s *reportService) ListMatches(ctx context.Context, actor Actor, reportID string) ([]*models.Match, error) {
	if _, err := s.GetReport(ctx, actor, reportID); err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.GetByReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	return matches, nil
}

func (s *reportService) Rematch(ctx context.Context, actor Actor, reportID string) (*models.MatchResult, error) {
	if _, err := s.GetReport(ctx, actor, reportID); err != nil {
		return nil, err
	}
	return s.matcher.MatchReport(ctx, reportID)
}
