package interfaces

import (
	"context"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/utils"
)

type MatchFilter struct {
	ServiceIDs []string
	Status     models.MatchStatusType
}

type MatchRepository interface {
	// CreateMany inserts pending matches. A second pending match for the same
	// (report, service) pair yields ErrDuplicate.
	CreateMany(ctx context.Context, matches []*models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	GetByReport(ctx context.Context, reportID string) ([]*models.Match, error)
	List(ctx context.Context, filter MatchFilter, params *utils.PaginationParams) ([]*models.Match, int64, error)

	// ExpireActiveByReport moves every pending match of the report to expired
	// and returns the matches it changed.
	ExpireActiveByReport(ctx context.Context, reportID string, at time.Time) ([]*models.Match, error)

	// TransitionStatus is a compare-and-set: it succeeds only if the match is
	// currently in from. Returns ErrConflict otherwise, ErrNotFound if absent.
	TransitionStatus(ctx context.Context, id string, from, to models.MatchStatusType, at time.Time) (*models.Match, error)

	// GetStalePending returns pending matches created before cutoff.
	GetStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.Match, error)
}
