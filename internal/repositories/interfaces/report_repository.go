package interfaces

import (
	"context"

	"supportmatch/internal/models"
	"supportmatch/internal/utils"
)

type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	GetByUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Report, int64, error)

	// UpdateMatchState sets the match flags only if the stored MatchVersion equals
	// expectedVersion, then increments it. Returns ErrConflict on version mismatch.
	UpdateMatchState(ctx context.Context, id string, expectedVersion int64, isMatched bool, status models.ReportMatchStatus) error
}
