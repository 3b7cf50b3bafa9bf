package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supportmatch/internal/config"
	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"
	"supportmatch/pkg/logger"

	"github.com/samber/lo"
)

const sweepBatchSize = 500

// PendingSweeper expires pending matches nobody answered within the TTL.
type PendingSweeper struct {
	reportRepo interfaces.ReportRepository
	matchRepo  interfaces.MatchRepository
	txManager  interfaces.TransactionManager
	locker     Locker
	publisher  EventPublisher
	config     *config.MatchingConfig
	logger     *logger.Logger
	now        func() time.Time
}

func NewPendingSweeper(
	cfg *config.MatchingConfig,
	reportRepo interfaces.ReportRepository,
	matchRepo interfaces.MatchRepository,
	txManager interfaces.TransactionManager,
	locker Locker,
	publisher EventPublisher,
	log *logger.Logger,
) *PendingSweeper {
	if publisher == nil {
		publisher = NopPublisher()
	}
	return &PendingSweeper{
		reportRepo: reportRepo,
		matchRepo:  matchRepo,
		txManager:  txManager,
		locker:     locker,
		publisher:  publisher,
		config:     cfg,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *PendingSweeper) Enabled() bool {
	return s.config.PendingTTL > 0 && s.config.SweepInterval > 0
}

// Run sweeps on every interval until ctx is done.
func (s *PendingSweeper) Run(ctx context.Context) {
	if !s.Enabled() {
		return
	}

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.WithError(err).Error("Pending match sweep failed")
			}
		}
	}
}

// SweepOnce expires stale pending matches and returns how many it expired.
func (s *PendingSweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.config.PendingTTL)
	stale, err := s.matchRepo.GetStalePending(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load stale matches: %w", err)
	}

	total := 0
	for reportID, matches := range lo.GroupBy(stale, func(m *models.Match) string { return m.ReportID }) {
		expired, err := s.sweepReport(ctx, reportID, matches)
		if err != nil {
			s.logger.WithReportID(reportID).WithError(err).Warn("Failed to expire stale matches")
			continue
		}
		total += len(expired)
		for _, m := range expired {
			s.logger.LogMatchEvent(m.ID, utils.EventMatchExpired, map[string]interface{}{"report_id": reportID})
		}
		publishAll(ctx, s.publisher, s.logger, matchEvents(models.MatchEventUpdated, expired))
	}

	if total > 0 {
		s.logger.WithField("expired", total).Info("Expired stale pending matches")
	}
	return total, nil
}

func (s *PendingSweeper) sweepReport(ctx context.Context, reportID string, stale []*models.Match) ([]*models.Match, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.config.LockWait)
	lock, err := s.locker.Lock(lockCtx, reportLockKey(reportID), s.config.LockTTL)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockUnavailable, err)
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lock); err != nil {
			s.logger.WithReportID(reportID).WithError(err).Warn("Failed to release report lock")
		}
	}()

	var expired []*models.Match
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		expired = expired[:0]
		now := s.now()
		for _, m := range stale {
			updated, err := s.matchRepo.TransitionStatus(ctx, m.ID, models.MatchStatusPending, models.MatchStatusExpired, now)
			if errors.Is(err, interfaces.ErrConflict) || errors.Is(err, interfaces.ErrNotFound) {
				// Answered or superseded since we looked.
				continue
			}
			if err != nil {
				return err
			}
			expired = append(expired, updated)
		}
		if len(expired) == 0 {
			return nil
		}

		return syncReportState(ctx, s.reportRepo, s.matchRepo, reportID)
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}
