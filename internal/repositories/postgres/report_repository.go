package postgres

import (
	"context"
	"fmt"
	"time"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) interfaces.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	rec := newReportRecord(report)
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(rec).Error; err != nil {
		return translateError("failed to create report", err)
	}
	report.CreatedAt = rec.CreatedAt
	report.UpdatedAt = rec.UpdatedAt
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var rec reportRecord
	if err := conn(ctx, r.db).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translateError("failed to get report", err)
	}
	return rec.toModel(), nil
}

func (r *reportRepository) GetByUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Report, int64, error) {
	if params == nil {
		params = utils.DefaultPagination()
	}
	query := conn(ctx, r.db).Model(&reportRecord{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	var recs []reportRecord
	err := query.Order(orderBy(params, "created_at", "updated_at")).Order("id").
		Offset(params.GetSkip()).Limit(params.GetLimit()).
		Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find reports: %w", err)
	}

	reports := make([]*models.Report, 0, len(recs))
	for i := range recs {
		reports = append(reports, recs[i].toModel())
	}
	return reports, total, nil
}

func (r *reportRepository) UpdateMatchState(ctx context.Context, id string, expectedVersion int64, isMatched bool, status models.ReportMatchStatus) error {
	db := conn(ctx, r.db)
	result := db.Model(&reportRecord{}).
		Where("id = ? AND match_version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"ismatched":     isMatched,
			"match_status":  string(status),
			"match_version": gorm.Expr("match_version + 1"),
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update report match state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return conflictOrNotFound(db, &reportRecord{}, id)
	}
	return nil
}
