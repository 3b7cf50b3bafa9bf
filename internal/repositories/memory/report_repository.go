package memory

import (
	"context"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"

	"github.com/google/uuid"
)

type reportRepository struct {
	store *Store
}

func NewReportRepository(store *Store) interfaces.ReportRepository {
	return &reportRepository{store: store}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.store.run(ctx, func() error {
		if report.ID == "" {
			report.ID = uuid.NewString()
		}
		if _, exists := r.store.reports[report.ID]; exists {
			return interfaces.ErrDuplicate
		}
		stamp(&report.CreatedAt, &report.UpdatedAt)
		r.store.reports[report.ID] = cloneReport(report)
		return nil
	})
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var out *models.Report
	err := r.store.run(ctx, func() error {
		report, ok := r.store.reports[id]
		if !ok {
			return interfaces.ErrNotFound
		}
		out = cloneReport(report)
		return nil
	})
	return out, err
}

func (r *reportRepository) GetByUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Report, int64, error) {
	var (
		out   []*models.Report
		total int64
	)
	err := r.store.run(ctx, func() error {
		var items []*models.Report
		for _, report := range r.store.reports {
			if report.IsOwnedBy(userID) {
				items = append(items, cloneReport(report))
			}
		}
		out, total = paginate(items, params, reportSortKey, func(r *models.Report) string { return r.ID })
		return nil
	})
	return out, total, err
}

func (r *reportRepository) UpdateMatchState(ctx context.Context, id string, expectedVersion int64, isMatched bool, status models.ReportMatchStatus) error {
	return r.store.run(ctx, func() error {
		current, ok := r.store.reports[id]
		if !ok {
			return interfaces.ErrNotFound
		}
		if current.MatchVersion != expectedVersion {
			return interfaces.ErrConflict
		}

		updated := cloneReport(current)
		updated.IsMatched = isMatched
		updated.MatchStatus = status
		updated.MatchVersion++
		updated.UpdatedAt = time.Now().UTC()
		r.store.reports[id] = updated
		return nil
	})
}

func reportSortKey(r *models.Report, column string) float64 {
	switch column {
	case "updated_at":
		return timeKey(r.UpdatedAt)
	default:
		return timeKey(r.CreatedAt)
	}
}
