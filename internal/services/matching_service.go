package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supportmatch/internal/config"
	"supportmatch/internal/matching"
	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"
	"supportmatch/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MatchingService selects and persists the best support services for a report.
type MatchingService interface {
	// MatchReport supersedes any pending matches of the report with a fresh
	// ranking. An empty result is not an error; the report becomes unmatched.
	MatchReport(ctx context.Context, reportID string) (*models.MatchResult, error)
}

type matchingService struct {
	reportRepo interfaces.ReportRepository
	matchRepo  interfaces.MatchRepository
	txManager  interfaces.TransactionManager
	catalog    CatalogService
	locker     Locker
	publisher  EventPublisher
	scorer     *matching.Scorer
	config     *config.MatchingConfig
	logger     *logger.Logger
	now        func() time.Time
}

func NewMatchingService(
	cfg *config.MatchingConfig,
	reportRepo interfaces.ReportRepository,
	matchRepo interfaces.MatchRepository,
	txManager interfaces.TransactionManager,
	catalog CatalogService,
	locker Locker,
	publisher EventPublisher,
	log *logger.Logger,
) MatchingService {
	if publisher == nil {
		publisher = NopPublisher()
	}
	return &matchingService{
		reportRepo: reportRepo,
		matchRepo:  matchRepo,
		txManager:  txManager,
		catalog:    catalog,
		locker:     locker,
		publisher:  publisher,
		scorer:     matching.NewScorer(cfg.Scoring()),
		config:     cfg,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// matchOutcome is what a committed run hands to the publisher.
type matchOutcome struct {
	result  *models.MatchResult
	created []*models.Match
	expired []*models.Match
}

func (s *matchingService) MatchReport(ctx context.Context, reportID string) (*models.MatchResult, error) {
	start := time.Now()
	lockCtx, cancel := context.WithTimeout(ctx, s.config.LockWait)
	lock, err := s.locker.Lock(lockCtx, reportLockKey(reportID), s.config.LockTTL)
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrLockUnavailable, err)
	}
	defer func() {
		// Release even if the caller's context is already done.
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lock); err != nil {
			s.logger.WithReportID(reportID).WithError(err).Warn("Failed to release report lock")
		}
	}()

	var outcome *matchOutcome
	attempts := s.config.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		outcome, err = s.run(ctx, reportID)
		if !errors.Is(err, interfaces.ErrConflict) {
			break
		}
		s.logger.WithReportID(reportID).WithField("attempt", attempt).Warn("Report changed during matching, retrying")
	}
	if err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", ErrMatchPersistenceFailed, err)
		}
		return nil, err
	}

	publishAll(ctx, s.publisher, s.logger, matchEvents(models.MatchEventUpdated, outcome.expired))
	publishAll(ctx, s.publisher, s.logger, matchEvents(models.MatchEventCreated, outcome.created))

	event := utils.EventReportMatched
	if outcome.result.Status == models.ReportMatchStatusUnmatched {
		event = utils.EventReportUnmatched
	}
	s.logger.LogReportEvent(reportID, event, map[string]interface{}{
		"match_status": string(outcome.result.Status),
		"matches":      len(outcome.created),
		"expired":      len(outcome.expired),
	})
	s.logger.LogPerformanceMetric("match_report_duration", float64(time.Since(start).Milliseconds()), "ms", map[string]string{
		"report_id": reportID,
	})
	return outcome.result, nil
}

// run performs one read-rank-write pass. ErrConflict means the report moved
// underneath us and the pass may be retried.
func (s *matchingService) run(ctx context.Context, reportID string) (*matchOutcome, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	var location *models.GeoPoint
	if lat, lng, ok := report.Coordinates(); ok {
		location = models.NewGeoPoint(lat, lng)
	}
	candidates, err := s.catalog.FindCandidates(ctx, report.RequiredServices, location)
	if err != nil {
		return nil, err
	}

	// Existing matches are read inside the transaction so an accept that lands
	// after the report read is either seen here or fails the version check.
	var (
		fresh  []*models.Match
		status models.ReportMatchStatus
	)
	outcome := &matchOutcome{}
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.matchRepo.GetByReport(ctx, report.ID)
		if err != nil {
			return err
		}
		accepted := lo.Filter(existing, func(m *models.Match, _ int) bool {
			return m.MatchStatusType == models.MatchStatusAccepted
		})
		exclude := lo.SliceToMap(accepted, func(m *models.Match) (string, bool) {
			return m.ServiceID, true
		})

		ranked := s.scorer.Rank(report, candidates, exclude)
		now := s.now()
		fresh = lo.Map(ranked, func(r matching.Result, _ int) *models.Match {
			return &models.Match{
				ID:              uuid.NewString(),
				ReportID:        report.ID,
				ServiceID:       r.Service.ID,
				ProviderID:      r.Service.UserID,
				MatchScore:      r.Score,
				MatchStatusType: models.MatchStatusPending,
				Description:     matching.Describe(report, r),
				Breakdown:       r.Breakdown,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
		})

		// A report with an accepted match stays matched even if nothing new qualifies.
		isMatched := len(fresh) > 0 || len(accepted) > 0
		status = models.ReportMatchStatusUnmatched
		if isMatched {
			status = models.ReportMatchStatusMatched
		}

		expired, err := s.matchRepo.ExpireActiveByReport(ctx, report.ID, now)
		if err != nil {
			return err
		}
		outcome.expired = expired

		if err := s.matchRepo.CreateMany(ctx, fresh); err != nil {
			return err
		}
		return s.reportRepo.UpdateMatchState(ctx, report.ID, report.MatchVersion, isMatched, status)
	})
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrConflict), errors.Is(err, interfaces.ErrDuplicate):
			// Another writer got there first; the duplicate pair is a lost race too.
			return nil, fmt.Errorf("%w: %w", interfaces.ErrConflict, err)
		case errors.Is(err, interfaces.ErrNotFound):
			return nil, ErrReportNotFound
		case ctx.Err() != nil:
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrMatchPersistenceFailed, err)
	}

	outcome.created = fresh
	outcome.result = &models.MatchResult{
		ReportID: report.ID,
		Status:   status,
		Matches:  fresh,
		Expired:  len(outcome.expired),
	}
	return outcome, nil
}
